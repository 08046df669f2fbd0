package store

import (
	"context"

	"gorm.io/gorm/clause"

	"cmms-backend/internal/model"
)

func (s *gormStore) ListActivityReports(ctx context.Context, f ActivityFilter) ([]model.ActivityReport, error) {
	var reports []model.ActivityReport
	q := s.db.WithContext(ctx).Preload("Asset")
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.AssetID != nil {
		q = q.Where("asset_id = ?", *f.AssetID)
	}
	if err := q.Order("date DESC, id DESC").Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *gormStore) GetActivityReport(ctx context.Context, id int64) (*model.ActivityReport, error) {
	var r model.ActivityReport
	if err := s.first(ctx, &r, id, "Asset"); err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *gormStore) CreateActivityReport(ctx context.Context, r *model.ActivityReport) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(r).Error
}

func (s *gormStore) UpdateActivityReport(ctx context.Context, r *model.ActivityReport) error {
	return s.update(ctx, r, r.ID)
}

func (s *gormStore) DeleteActivityReport(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, &model.ActivityReport{}, id)
}
