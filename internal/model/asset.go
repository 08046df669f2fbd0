package model

import "time"

// Asset is a piece of equipment that work orders, PM plans and activity
// reports refer to. Code is unique when present.
type Asset struct {
	ID                int64      `gorm:"primaryKey" json:"id"`
	Code              *string    `gorm:"uniqueIndex;size:64" json:"code"`
	Name              string     `gorm:"size:256;not null" json:"name"`
	Location          string     `gorm:"size:256" json:"location"`
	Category          string     `gorm:"size:128" json:"category"`
	Criticality       string     `gorm:"size:32" json:"criticality"`
	CommissioningDate *time.Time `gorm:"type:date" json:"commissioning_date"`
	CreatedAt         time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"not null" json:"updated_at"`
}
