package store

import (
	"context"

	"gorm.io/gorm/clause"

	"cmms-backend/internal/model"
)

func (s *gormStore) ListPMPlans(ctx context.Context, f PMPlanFilter) ([]model.PMPlan, error) {
	var plans []model.PMPlan
	q := s.db.WithContext(ctx).Preload("Asset")
	if f.AssetID != nil {
		q = q.Where("asset_id = ?", *f.AssetID)
	}
	if err := q.Order("next_due_date, id").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (s *gormStore) GetPMPlan(ctx context.Context, id int64) (*model.PMPlan, error) {
	var p model.PMPlan
	if err := s.first(ctx, &p, id, "Asset"); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *gormStore) CreatePMPlan(ctx context.Context, p *model.PMPlan) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error
}

func (s *gormStore) UpdatePMPlan(ctx context.Context, p *model.PMPlan) error {
	return s.update(ctx, p, p.ID)
}

func (s *gormStore) DeletePMPlan(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, &model.PMPlan{}, id)
}
