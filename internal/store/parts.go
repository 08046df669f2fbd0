package store

import (
	"context"
	"fmt"

	"gorm.io/gorm/clause"

	"cmms-backend/internal/model"
)

func (s *gormStore) ListParts(ctx context.Context, f PartFilter) ([]model.SparePart, error) {
	var parts []model.SparePart
	q := likeAny(s.db.WithContext(ctx), f.Search, "kode_barang", "nama_barang")
	if f.LowStock {
		q = q.Where("available_stock < minimum_stock")
	}
	if err := q.Order("kode_barang").Find(&parts).Error; err != nil {
		return nil, err
	}
	return parts, nil
}

func (s *gormStore) GetPart(ctx context.Context, id int64) (*model.SparePart, error) {
	var p model.SparePart
	if err := s.first(ctx, &p, id); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPartForUpdate loads a part and locks its row until the surrounding
// transaction ends. SQLite ignores the lock clause; its single writer already
// serialises the update.
func (s *gormStore) GetPartForUpdate(ctx context.Context, id int64) (*model.SparePart, error) {
	var p model.SparePart
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&p, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (s *gormStore) FindPartByCode(ctx context.Context, kodeBarang string) (*model.SparePart, error) {
	var p model.SparePart
	if err := s.db.WithContext(ctx).Where("kode_barang = ?", kodeBarang).First(&p).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

// UpsertPart inserts the part or, when kode_barang already exists, overwrites
// its descriptive fields. Stock is left alone on update. p is reloaded so its
// ID and stock reflect the stored row.
func (s *gormStore) UpsertPart(ctx context.Context, p *model.SparePart) error {
	err := s.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "kode_barang"}},
		DoUpdates: clause.AssignmentColumns([]string{"nama_barang", "spesifikasi", "satuan", "minimum_stock", "supplier_id", "updated_at"}),
	}).Create(p).Error
	if err != nil {
		return fmt.Errorf("upsert part %q failed: %w", p.KodeBarang, err)
	}

	var stored model.SparePart
	if err := s.db.WithContext(ctx).Where("kode_barang = ?", p.KodeBarang).First(&stored).Error; err != nil {
		return fmt.Errorf("failed to reload part %q after upsert: %w", p.KodeBarang, translate(err))
	}
	*p = stored
	return nil
}

func (s *gormStore) SetPartStock(ctx context.Context, id int64, stock int) error {
	res := s.db.WithContext(ctx).Model(&model.SparePart{ID: id}).Update("available_stock", stock)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *gormStore) DeletePart(ctx context.Context, id int64) error {
	return s.deleteByID(ctx, &model.SparePart{}, id)
}

// AppendStockTxn adds one ledger entry. Ledger rows are never updated or
// deleted through the store.
func (s *gormStore) AppendStockTxn(ctx context.Context, t *model.StockTxn) error {
	return s.db.WithContext(ctx).Omit(clause.Associations).Create(t).Error
}

func (s *gormStore) ListStockTxns(ctx context.Context, f StockTxnFilter) ([]model.StockTxn, error) {
	var txns []model.StockTxn
	q := s.db.WithContext(ctx)
	if f.PartID != nil {
		q = q.Where("part_id = ?", *f.PartID)
	}
	if f.WorkOrderID != nil {
		q = q.Where("work_order_id = ?", *f.WorkOrderID)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if err := q.Order("created_at DESC, id DESC").Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}
