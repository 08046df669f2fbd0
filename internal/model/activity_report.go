package model

import "time"

// ActivityReport is a discrete maintenance event. DurationHours is derived
// from StartTime and EndTime on every save.
type ActivityReport struct {
	ID            int64        `gorm:"primaryKey" json:"id"`
	AssetID       *int64       `gorm:"index" json:"asset_id"`
	Date          time.Time    `gorm:"type:date;not null;index" json:"date"`
	Type          ActivityType `gorm:"size:16;not null" json:"type"`
	Location      string       `gorm:"size:256" json:"location"`
	Description   string       `gorm:"type:text" json:"description"`
	Technician    string       `gorm:"size:128" json:"technician"`
	StartTime     *time.Time   `json:"start_time"`
	EndTime       *time.Time   `json:"end_time"`
	DurationHours float64      `gorm:"not null;default:0" json:"duration_hours"`
	Notes         string       `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time    `gorm:"not null" json:"created_at"`

	// Associations
	Asset *Asset `gorm:"constraint:OnDelete:SET NULL" json:"asset,omitempty"`
}
