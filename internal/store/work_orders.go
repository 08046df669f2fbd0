package store

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"cmms-backend/internal/model"
)

// CountWorkOrdersCreatedBetween counts work orders with created_at in
// [from, to).
func (s *gormStore) CountWorkOrdersCreatedBetween(ctx context.Context, from, to time.Time) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.WorkOrder{}).
		Where("created_at >= ? AND created_at < ?", from, to).
		Count(&n).Error
	return n, err
}

func (s *gormStore) ListWorkOrders(ctx context.Context, f WorkOrderFilter) ([]model.WorkOrder, error) {
	var wos []model.WorkOrder
	q := likeAny(s.db.WithContext(ctx).Preload("Asset"), f.Search, "wo_no", "title")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.AssetID != nil {
		q = q.Where("asset_id = ?", *f.AssetID)
	}
	if err := q.Order("created_at DESC, id DESC").Find(&wos).Error; err != nil {
		return nil, err
	}
	return wos, nil
}

func (s *gormStore) GetWorkOrder(ctx context.Context, id int64) (*model.WorkOrder, error) {
	var wo model.WorkOrder
	if err := s.first(ctx, &wo, id, "Asset"); err != nil {
		return nil, err
	}
	return &wo, nil
}

func (s *gormStore) CreateWorkOrder(ctx context.Context, wo *model.WorkOrder) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(wo).Error
}

func (s *gormStore) UpdateWorkOrder(ctx context.Context, wo *model.WorkOrder) error {
	return s.update(ctx, wo, wo.ID)
}

func (s *gormStore) DeleteWorkOrder(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, &model.WorkOrder{}, id)
}

func (s *gormStore) AddWOPart(ctx context.Context, p *model.WOPart) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (s *gormStore) ListWOParts(ctx context.Context, f WOPartFilter) ([]model.WOPart, error) {
	var parts []model.WOPart
	q := s.db.WithContext(ctx).Preload("Part")
	if f.WorkOrderID != nil {
		q = q.Where("work_order_id = ?", *f.WorkOrderID)
	}
	if err := q.Order("id").Find(&parts).Error; err != nil {
		return nil, err
	}
	return parts, nil
}
