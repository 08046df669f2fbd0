package model

import "time"

// SparePart is an inventory item keyed by KodeBarang. AvailableStock only
// changes through the stock ledger and never drops below zero.
type SparePart struct {
	ID             int64     `gorm:"primaryKey" json:"id"`
	KodeBarang     string    `gorm:"column:kode_barang;uniqueIndex;size:64;not null" json:"kode_barang"`
	NamaBarang     string    `gorm:"column:nama_barang;size:256;not null" json:"nama_barang"`
	Spesifikasi    string    `gorm:"column:spesifikasi;type:text" json:"spesifikasi"`
	Satuan         string    `gorm:"column:satuan;size:32" json:"satuan"`
	AvailableStock int       `gorm:"not null;default:0" json:"available_stock"`
	MinimumStock   int       `gorm:"not null;default:0" json:"minimum_stock"`
	SupplierID     *int64    `gorm:"index" json:"supplier_id"`
	CreatedAt      time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null" json:"updated_at"`

	// Associations
	Supplier *Supplier `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

// IsLowStock reports whether the part is strictly below its minimum.
func (p SparePart) IsLowStock() bool {
	return p.AvailableStock < p.MinimumStock
}
