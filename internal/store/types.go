package store

import "cmms-backend/internal/model"

// AssetFilter narrows ListAssets. Search matches code or name.
type AssetFilter struct {
	Search string
}

// SupplierFilter narrows ListSuppliers. Search matches name or contact.
type SupplierFilter struct {
	Search string
}

// PartFilter narrows ListParts.
type PartFilter struct {
	Search   string // kode_barang or nama_barang
	LowStock bool   // available_stock < minimum_stock
}

// StockTxnFilter narrows ListStockTxns. Limit <= 0 means no limit.
type StockTxnFilter struct {
	PartID      *int64
	WorkOrderID *int64
	Limit       int
}

// WorkOrderFilter narrows ListWorkOrders.
type WorkOrderFilter struct {
	Status  model.WorkOrderStatus
	Type    model.WorkOrderType
	AssetID *int64
	Search  string // wo_no or title
}

// WOPartFilter narrows ListWOParts. A nil WorkOrderID lists every row.
type WOPartFilter struct {
	WorkOrderID *int64
}

// PMPlanFilter narrows ListPMPlans.
type PMPlanFilter struct {
	AssetID *int64
}

// ActivityFilter narrows ListActivityReports.
type ActivityFilter struct {
	Type    model.ActivityType
	AssetID *int64
}
