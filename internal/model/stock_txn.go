package model

import "time"

// StockTxn is one append-only ledger entry. Qty is what was requested;
// AppliedQty is the change actually made to the part after clamping at zero.
type StockTxn struct {
	ID           int64     `gorm:"primaryKey" json:"id"`
	PartID       int64     `gorm:"index;not null" json:"part_id"`
	TxnType      TxnType   `gorm:"size:8;not null" json:"txn_type"`
	Qty          int       `gorm:"not null" json:"qty"`
	AppliedQty   int       `gorm:"not null" json:"applied_qty"`
	BalanceAfter int       `gorm:"not null" json:"balance_after"`
	WorkOrderID  *int64    `gorm:"index" json:"work_order_id"`
	Notes        string    `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time `gorm:"not null;index" json:"created_at"`

	// Associations
	Part      *SparePart `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	WorkOrder *WorkOrder `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

// TableName keeps the ledger table singular.
func (StockTxn) TableName() string {
	return "stock_txn"
}
