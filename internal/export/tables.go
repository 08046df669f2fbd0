package export

import (
	"strconv"
	"time"

	"cmms-backend/internal/model"
)

const (
	timestampLayout = time.RFC3339
	dateLayout      = "2006-01-02"
)

func AssetsTable(assets []model.Asset) Table {
	t := Table{
		Name:    "assets",
		Columns: []string{"id", "code", "name", "location", "category", "criticality", "commissioning_date", "created_at", "updated_at"},
	}
	for _, a := range assets {
		t.Rows = append(t.Rows, []string{
			id(a.ID), str(a.Code), a.Name, a.Location, a.Category, a.Criticality,
			date(a.CommissioningDate), stamp(&a.CreatedAt), stamp(&a.UpdatedAt),
		})
	}
	return t
}

func SuppliersTable(suppliers []model.Supplier) Table {
	t := Table{
		Name:    "suppliers",
		Columns: []string{"id", "name", "contact", "phone", "email", "address", "created_at", "updated_at"},
	}
	for _, s := range suppliers {
		t.Rows = append(t.Rows, []string{
			id(s.ID), s.Name, s.Contact, s.Phone, s.Email, s.Address, stamp(&s.CreatedAt), stamp(&s.UpdatedAt),
		})
	}
	return t
}

func SparePartsTable(parts []model.SparePart) Table {
	t := Table{
		Name:    "spare_parts",
		Columns: []string{"id", "kode_barang", "nama_barang", "spesifikasi", "satuan", "available_stock", "minimum_stock", "supplier_id", "created_at", "updated_at"},
	}
	for _, p := range parts {
		t.Rows = append(t.Rows, []string{
			id(p.ID), p.KodeBarang, p.NamaBarang, p.Spesifikasi, p.Satuan,
			strconv.Itoa(p.AvailableStock), strconv.Itoa(p.MinimumStock), optID(p.SupplierID),
			stamp(&p.CreatedAt), stamp(&p.UpdatedAt),
		})
	}
	return t
}

func StockTxnTable(txns []model.StockTxn) Table {
	t := Table{
		Name:    "stock_txn",
		Columns: []string{"id", "part_id", "txn_type", "qty", "applied_qty", "balance_after", "work_order_id", "notes", "created_at"},
	}
	for _, x := range txns {
		t.Rows = append(t.Rows, []string{
			id(x.ID), id(x.PartID), string(x.TxnType), strconv.Itoa(x.Qty), strconv.Itoa(x.AppliedQty),
			strconv.Itoa(x.BalanceAfter), optID(x.WorkOrderID), x.Notes, stamp(&x.CreatedAt),
		})
	}
	return t
}

func WorkOrdersTable(wos []model.WorkOrder) Table {
	t := Table{
		Name: "work_orders",
		Columns: []string{"id", "wo_no", "type", "asset_id", "pm_plan_id", "title", "description", "requester", "assignee",
			"status", "priority", "created_at", "due_date", "start_time", "end_time", "downtime_hours", "cost", "updated_at"},
	}
	for _, wo := range wos {
		t.Rows = append(t.Rows, []string{
			id(wo.ID), wo.WONo, string(wo.Type), optID(wo.AssetID), optID(wo.PMPlanID), wo.Title, wo.Description,
			wo.Requester, wo.Assignee, string(wo.Status), string(wo.Priority), stamp(&wo.CreatedAt), date(wo.DueDate),
			stamp(wo.StartTime), stamp(wo.EndTime), hours(wo.DowntimeHours), wo.Cost.StringFixed(2), stamp(&wo.UpdatedAt),
		})
	}
	return t
}

func WOPartsTable(parts []model.WOPart) Table {
	t := Table{
		Name:    "wo_parts",
		Columns: []string{"id", "work_order_id", "part_id", "qty", "created_at"},
	}
	for _, p := range parts {
		t.Rows = append(t.Rows, []string{id(p.ID), id(p.WorkOrderID), id(p.PartID), strconv.Itoa(p.Qty), stamp(&p.CreatedAt)})
	}
	return t
}

func PMPlansTable(plans []model.PMPlan) Table {
	t := Table{
		Name:    "pm_plans",
		Columns: []string{"id", "asset_id", "task", "frequency_days", "next_due_date", "last_done_date", "notes", "created_at", "updated_at"},
	}
	for _, p := range plans {
		t.Rows = append(t.Rows, []string{
			id(p.ID), id(p.AssetID), p.Task, strconv.Itoa(p.FrequencyDays), date(&p.NextDueDate), date(p.LastDoneDate),
			p.Notes, stamp(&p.CreatedAt), stamp(&p.UpdatedAt),
		})
	}
	return t
}

func ActivityReportsTable(reports []model.ActivityReport) Table {
	t := Table{
		Name: "activity_reports",
		Columns: []string{"id", "asset_id", "date", "type", "location", "description", "technician",
			"start_time", "end_time", "duration_hours", "notes", "created_at"},
	}
	for _, r := range reports {
		t.Rows = append(t.Rows, []string{
			id(r.ID), optID(r.AssetID), date(&r.Date), string(r.Type), r.Location, r.Description, r.Technician,
			stamp(r.StartTime), stamp(r.EndTime), hours(r.DurationHours), r.Notes, stamp(&r.CreatedAt),
		})
	}
	return t
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

func optID(v *int64) string {
	if v == nil {
		return ""
	}
	return id(*v)
}

func str(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func stamp(v *time.Time) string {
	if v == nil || v.IsZero() {
		return ""
	}
	return v.UTC().Format(timestampLayout)
}

func date(v *time.Time) string {
	if v == nil || v.IsZero() {
		return ""
	}
	return v.Format(dateLayout)
}

func hours(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
