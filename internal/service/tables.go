package service

import (
	"context"

	"cmms-backend/internal/export"
	"cmms-backend/internal/store"
)

// Table loads every row of the named table in its export shape.
func (s *Service) Table(ctx context.Context, name string) (export.Table, error) {
	if !export.KnownTable(name) {
		return export.Table{}, invalidf("unknown table %q", name)
	}
	var (
		t   export.Table
		err error
	)
	switch name {
	case "assets":
		t, err = load(ctx, s.store.ListAssets, store.AssetFilter{}, export.AssetsTable)
	case "suppliers":
		t, err = load(ctx, s.store.ListSuppliers, store.SupplierFilter{}, export.SuppliersTable)
	case "spare_parts":
		t, err = load(ctx, s.store.ListParts, store.PartFilter{}, export.SparePartsTable)
	case "stock_txn":
		t, err = load(ctx, s.store.ListStockTxns, store.StockTxnFilter{}, export.StockTxnTable)
	case "work_orders":
		t, err = load(ctx, s.store.ListWorkOrders, store.WorkOrderFilter{}, export.WorkOrdersTable)
	case "wo_parts":
		t, err = load(ctx, s.store.ListWOParts, store.WOPartFilter{}, export.WOPartsTable)
	case "pm_plans":
		t, err = load(ctx, s.store.ListPMPlans, store.PMPlanFilter{}, export.PMPlansTable)
	case "activity_reports":
		t, err = load(ctx, s.store.ListActivityReports, store.ActivityFilter{}, export.ActivityReportsTable)
	}
	if err != nil {
		return export.Table{}, storeErr("list "+name, err)
	}
	return t, nil
}

func load[F, R any](ctx context.Context, list func(context.Context, F) ([]R, error), f F, build func([]R) export.Table) (export.Table, error) {
	rows, err := list(ctx, f)
	if err != nil {
		return export.Table{}, err
	}
	return build(rows), nil
}
