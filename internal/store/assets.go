package store

import (
	"context"

	"cmms-backend/internal/model"
)

func (s *gormStore) ListAssets(ctx context.Context, f AssetFilter) ([]model.Asset, error) {
	var assets []model.Asset
	q := likeAny(s.db.WithContext(ctx), f.Search, "code", "name")
	if err := q.Order("id").Find(&assets).Error; err != nil {
		return nil, err
	}
	return assets, nil
}

func (s *gormStore) GetAsset(ctx context.Context, id int64) (*model.Asset, error) {
	var a model.Asset
	if err := s.first(ctx, &a, id); err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *gormStore) CreateAsset(ctx context.Context, a *model.Asset) error {
	return s.db.WithContext(ctx).Create(a).Error
}

func (s *gormStore) UpdateAsset(ctx context.Context, a *model.Asset) error {
	return s.update(ctx, a, a.ID)
}

func (s *gormStore) DeleteAsset(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, &model.Asset{}, id)
}

func (s *gormStore) ListSuppliers(ctx context.Context, f SupplierFilter) ([]model.Supplier, error) {
	var suppliers []model.Supplier
	q := likeAny(s.db.WithContext(ctx), f.Search, "name", "contact")
	if err := q.Order("name").Find(&suppliers).Error; err != nil {
		return nil, err
	}
	return suppliers, nil
}

func (s *gormStore) GetSupplier(ctx context.Context, id int64) (*model.Supplier, error) {
	var sup model.Supplier
	if err := s.first(ctx, &sup, id); err != nil {
		return nil, err
	}
	return &sup, nil
}

func (s *gormStore) CreateSupplier(ctx context.Context, sup *model.Supplier) error {
	return s.db.WithContext(ctx).Create(sup).Error
}

func (s *gormStore) UpdateSupplier(ctx context.Context, sup *model.Supplier) error {
	return s.update(ctx, sup, sup.ID)
}

func (s *gormStore) DeleteSupplier(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, &model.Supplier{}, id)
}
