package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// WorkOrder is a maintenance ticket.
type WorkOrder struct {
	ID            int64           `gorm:"primaryKey" json:"id"`
	WONo          string          `gorm:"column:wo_no;uniqueIndex;size:32;not null" json:"wo_no"`
	Type          WorkOrderType   `gorm:"size:8;not null" json:"type"`
	AssetID       *int64          `gorm:"index" json:"asset_id"`
	PMPlanID      *int64          `gorm:"column:pm_plan_id;index" json:"pm_plan_id"`
	Title         string          `gorm:"size:256;not null" json:"title"`
	Description   string          `gorm:"type:text" json:"description"`
	Requester     string          `gorm:"size:128" json:"requester"`
	Assignee      string          `gorm:"size:128" json:"assignee"`
	Status        WorkOrderStatus `gorm:"size:32;not null;index" json:"status"`
	Priority      Priority        `gorm:"size:16;not null" json:"priority"`
	DueDate       *time.Time      `gorm:"type:date" json:"due_date"`
	StartTime     *time.Time      `json:"start_time"`
	EndTime       *time.Time      `json:"end_time"`
	DowntimeHours float64         `gorm:"not null;default:0" json:"downtime_hours"`
	Cost          decimal.Decimal `gorm:"type:numeric(14,2);not null;default:0" json:"cost"`
	CreatedAt     time.Time       `gorm:"not null;index" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"not null" json:"updated_at"`

	// Associations
	Asset  *Asset  `gorm:"constraint:OnDelete:SET NULL" json:"asset,omitempty"`
	PMPlan *PMPlan `gorm:"constraint:OnDelete:SET NULL" json:"-"`
}

// WOPart records a spare part consumed by a work order.
type WOPart struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	WorkOrderID int64     `gorm:"index;not null" json:"work_order_id"`
	PartID      int64     `gorm:"index;not null" json:"part_id"`
	Qty         int       `gorm:"not null" json:"qty"`
	CreatedAt   time.Time `gorm:"not null" json:"created_at"`

	// Associations
	WorkOrder *WorkOrder `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Part      *SparePart `gorm:"constraint:OnDelete:CASCADE" json:"part,omitempty"`
}

// TableName matches the hosted schema.
func (WOPart) TableName() string {
	return "wo_parts"
}
