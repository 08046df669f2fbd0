package maint

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"cmms-backend/internal/model"
)

// Dashboard is the read-side summary recomputed on every request.
type Dashboard struct {
	Today               string             `json:"today"`
	OpenWorkOrders      int                `json:"open_work_orders"`
	OverduePMPlans      int                `json:"overdue_pm_plans"`
	LowStockParts       int                `json:"low_stock_parts"`
	WorkOrdersByStatus  map[string]int     `json:"work_orders_by_status"`
	ActivityHoursByType map[string]float64 `json:"activity_hours_by_type"`
}

// AssetTotals aggregates the work orders raised against one asset.
type AssetTotals struct {
	AssetID           int64           `json:"asset_id"`
	AssetCode         string          `json:"asset_code"`
	AssetName         string          `json:"asset_name"`
	WorkOrders        int             `json:"work_orders"`
	TotalCost         decimal.Decimal `json:"total_cost"`
	MeanDowntimeHours float64         `json:"mean_downtime_hours"`
}

// CountOpenWorkOrders counts work orders that are neither closed nor cancelled.
func CountOpenWorkOrders(wos []model.WorkOrder) int {
	n := 0
	for _, wo := range wos {
		if wo.Status.IsOpen() {
			n++
		}
	}
	return n
}

// CountOverdue counts plans due on or before today.
func CountOverdue(plans []model.PMPlan, today time.Time) int {
	n := 0
	for _, p := range plans {
		if IsDue(p, today) {
			n++
		}
	}
	return n
}

// CountLowStock counts parts strictly below their minimum.
func CountLowStock(parts []model.SparePart) int {
	n := 0
	for _, p := range parts {
		if p.IsLowStock() {
			n++
		}
	}
	return n
}

// BuildDashboard assembles every dashboard metric.
func BuildDashboard(today time.Time, wos []model.WorkOrder, plans []model.PMPlan, parts []model.SparePart, reports []model.ActivityReport) Dashboard {
	d := Dashboard{
		Today:               CivilDate(today).Format("2006-01-02"),
		OpenWorkOrders:      CountOpenWorkOrders(wos),
		OverduePMPlans:      CountOverdue(plans, today),
		LowStockParts:       CountLowStock(parts),
		WorkOrdersByStatus:  make(map[string]int, len(model.WorkOrderStatuses)),
		ActivityHoursByType: make(map[string]float64, len(model.ActivityTypes)),
	}
	for _, s := range model.WorkOrderStatuses {
		d.WorkOrdersByStatus[string(s)] = 0
	}
	for _, wo := range wos {
		d.WorkOrdersByStatus[string(wo.Status)]++
	}
	for _, r := range reports {
		d.ActivityHoursByType[string(r.Type)] = RoundHours(d.ActivityHoursByType[string(r.Type)] + r.DurationHours)
	}
	return d
}

// TotalsByAsset sums cost and averages downtime per asset. Assets without work
// orders are reported with zero totals; work orders without an asset are
// ignored.
func TotalsByAsset(assets []model.Asset, wos []model.WorkOrder) []AssetTotals {
	byAsset := make(map[int64][]model.WorkOrder)
	for _, wo := range wos {
		if wo.AssetID == nil {
			continue
		}
		byAsset[*wo.AssetID] = append(byAsset[*wo.AssetID], wo)
	}

	out := make([]AssetTotals, 0, len(assets))
	for _, a := range assets {
		t := AssetTotals{AssetID: a.ID, AssetName: a.Name, TotalCost: decimal.Zero}
		if a.Code != nil {
			t.AssetCode = *a.Code
		}
		var downtime float64
		for _, wo := range byAsset[a.ID] {
			t.WorkOrders++
			t.TotalCost = t.TotalCost.Add(wo.Cost)
			downtime += wo.DowntimeHours
		}
		if t.WorkOrders > 0 {
			t.MeanDowntimeHours = RoundHours(downtime / float64(t.WorkOrders))
		}
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AssetID < out[j].AssetID })
	return out
}

// Digest is what the periodic notification reports: PM plans due today or
// earlier, work orders still open and parts below their minimum.
type Digest struct {
	Today          time.Time         `json:"today"`
	OverduePlans   []model.PMPlan    `json:"overdue_pm_plans"`
	OpenWorkOrders []model.WorkOrder `json:"open_work_orders"`
	LowStockParts  []model.SparePart `json:"low_stock_parts"`
}

// Empty reports whether there is nothing worth sending.
func (d Digest) Empty() bool {
	return len(d.OverduePlans) == 0 && len(d.OpenWorkOrders) == 0 && len(d.LowStockParts) == 0
}

// BuildDigest filters the full lists down to what needs attention.
func BuildDigest(today time.Time, wos []model.WorkOrder, plans []model.PMPlan, parts []model.SparePart) Digest {
	d := Digest{Today: CivilDate(today)}
	for _, p := range plans {
		if IsDue(p, today) {
			d.OverduePlans = append(d.OverduePlans, p)
		}
	}
	for _, wo := range wos {
		if wo.Status.IsOpen() {
			d.OpenWorkOrders = append(d.OpenWorkOrders, wo)
		}
	}
	for _, p := range parts {
		if p.IsLowStock() {
			d.LowStockParts = append(d.LowStockParts, p)
		}
	}
	return d
}
