package model

import "time"

// Supplier is where spare parts are bought from.
type Supplier struct {
	ID        int64     `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:256;not null" json:"name"`
	Contact   string    `gorm:"size:128" json:"contact"`
	Phone     string    `gorm:"size:64" json:"phone"`
	Email     string    `gorm:"size:128" json:"email"`
	Address   string    `gorm:"size:512" json:"address"`
	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}
