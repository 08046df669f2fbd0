package model

import "time"

// PMPlan is a recurring preventive task for one asset. NextDueDate is never
// advanced automatically; completing a plan is an explicit action.
type PMPlan struct {
	ID            int64      `gorm:"primaryKey" json:"id"`
	AssetID       int64      `gorm:"index;not null" json:"asset_id"`
	Task          string     `gorm:"size:512;not null" json:"task"`
	FrequencyDays int        `gorm:"not null" json:"frequency_days"`
	NextDueDate   time.Time  `gorm:"type:date;not null;index" json:"next_due_date"`
	LastDoneDate  *time.Time `gorm:"type:date" json:"last_done_date"`
	Notes         string     `gorm:"type:text" json:"notes"`
	CreatedAt     time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"not null" json:"updated_at"`

	// Associations
	Asset *Asset `gorm:"constraint:OnDelete:CASCADE" json:"asset,omitempty"`
}

// TableName matches the hosted schema.
func (PMPlan) TableName() string {
	return "pm_plans"
}
