package service

import (
	"context"

	"cmms-backend/internal/maint"
	"cmms-backend/internal/model"
	"cmms-backend/internal/store"
)

// snapshot is everything the read-side projections are computed from.
type snapshot struct {
	workOrders []model.WorkOrder
	plans      []model.PMPlan
	parts      []model.SparePart
}

func (s *Service) loadSnapshot(ctx context.Context) (*snapshot, error) {
	wos, err := s.store.ListWorkOrders(ctx, store.WorkOrderFilter{})
	if err != nil {
		return nil, storeErr("list work orders", err)
	}
	plans, err := s.store.ListPMPlans(ctx, store.PMPlanFilter{})
	if err != nil {
		return nil, storeErr("list pm plans", err)
	}
	parts, err := s.store.ListParts(ctx, store.PartFilter{})
	if err != nil {
		return nil, storeErr("list spare parts", err)
	}
	return &snapshot{workOrders: wos, plans: plans, parts: parts}, nil
}

// Dashboard recomputes the headline counts from the current rows.
func (s *Service) Dashboard(ctx context.Context) (*maint.Dashboard, error) {
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	reports, err := s.store.ListActivityReports(ctx, store.ActivityFilter{})
	if err != nil {
		return nil, storeErr("list activity reports", err)
	}
	d := maint.BuildDashboard(maint.Today(s.now(), s.loc), snap.workOrders, snap.plans, snap.parts, reports)
	return &d, nil
}

// AssetTotals returns work order count, total cost and mean downtime per asset.
func (s *Service) AssetTotals(ctx context.Context) ([]maint.AssetTotals, error) {
	assets, err := s.store.ListAssets(ctx, store.AssetFilter{})
	if err != nil {
		return nil, storeErr("list assets", err)
	}
	wos, err := s.store.ListWorkOrders(ctx, store.WorkOrderFilter{})
	if err != nil {
		return nil, storeErr("list work orders", err)
	}
	return maint.TotalsByAsset(assets, wos), nil
}

// Digest collects what the periodic notification reports.
func (s *Service) Digest(ctx context.Context) (*maint.Digest, error) {
	snap, err := s.loadSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	d := maint.BuildDigest(maint.Today(s.now(), s.loc), snap.workOrders, snap.plans, snap.parts)
	return &d, nil
}
