package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"cmms-backend/internal/maint"
	"cmms-backend/internal/model"
	"cmms-backend/internal/store"
)

// PartInput saves a spare part keyed by KodeBarang. OpeningStock only applies
// when the part is new; existing stock changes through the ledger.
type PartInput struct {
	KodeBarang   string `json:"kode_barang" binding:"required,max=64"`
	NamaBarang   string `json:"nama_barang" binding:"required,max=256"`
	Spesifikasi  string `json:"spesifikasi"`
	Satuan       string `json:"satuan" binding:"max=32"`
	MinimumStock int    `json:"minimum_stock" binding:"gte=0"`
	OpeningStock int    `json:"opening_stock" binding:"gte=0"`
	SupplierID   *int64 `json:"supplier_id"`
}

// StockInput is one manual ledger entry.
type StockInput struct {
	TxnType model.TxnType `json:"txn_type" binding:"required"`
	Qty     int           `json:"qty"`
	Notes   string        `json:"notes"`
}

// StockResult is the part after a ledger entry and the entry itself.
type StockResult struct {
	Part        model.SparePart `json:"part"`
	Transaction model.StockTxn  `json:"transaction"`
}

// SaveResult reports whether SavePart inserted or updated.
type SaveResult struct {
	Part    model.SparePart `json:"part"`
	Created bool            `json:"created"`
}

func (s *Service) ListParts(ctx context.Context, search string, lowStock bool) ([]model.SparePart, error) {
	parts, err := s.store.ListParts(ctx, store.PartFilter{Search: search, LowStock: lowStock})
	if err != nil {
		return nil, storeErr("list spare parts", err)
	}
	return parts, nil
}

func (s *Service) GetPart(ctx context.Context, id int64) (*model.SparePart, error) {
	p, err := s.store.GetPart(ctx, id)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("spare part %d", id), err)
	}
	return p, nil
}

func (s *Service) DeletePart(ctx context.Context, id int64) error {
	if err := s.store.DeletePart(ctx, id); err != nil {
		return storeErr(fmt.Sprintf("spare part %d", id), err)
	}
	return nil
}

// SavePart inserts a part or updates the one with the same kode_barang.
func (s *Service) SavePart(ctx context.Context, in PartInput) (*SaveResult, error) {
	in.KodeBarang = strings.TrimSpace(in.KodeBarang)
	in.NamaBarang = strings.TrimSpace(in.NamaBarang)
	if err := s.check(in); err != nil {
		return nil, err
	}

	var result SaveResult
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		if in.SupplierID != nil {
			if _, err := tx.GetSupplier(ctx, *in.SupplierID); err != nil {
				if isNotFound(err) {
					return invalidf("supplier %d does not exist", *in.SupplierID)
				}
				return err
			}
		}

		_, err := tx.FindPartByCode(ctx, in.KodeBarang)
		switch {
		case isNotFound(err):
			result.Created = true
		case err != nil:
			return err
		}

		part := &model.SparePart{
			KodeBarang:   in.KodeBarang,
			NamaBarang:   in.NamaBarang,
			Spesifikasi:  strings.TrimSpace(in.Spesifikasi),
			Satuan:       strings.TrimSpace(in.Satuan),
			MinimumStock: in.MinimumStock,
			SupplierID:   in.SupplierID,
		}
		if err := tx.UpsertPart(ctx, part); err != nil {
			return err
		}

		if result.Created && in.OpeningStock > 0 {
			r, err := s.applyStock(ctx, tx, part.ID, model.TxnIn, in.OpeningStock, nil, "opening stock")
			if err != nil {
				return err
			}
			part = &r.Part
		}
		result.Part = *part
		return nil
	})
	if err != nil {
		return nil, storeErr("spare part "+in.KodeBarang, err)
	}

	s.log.Info("spare part saved",
		zap.String("kode_barang", result.Part.KodeBarang),
		zap.Bool("created", result.Created),
	)
	return &result, nil
}

// AdjustStock records one IN or OUT against a part. The stock update and the
// ledger append commit together or not at all.
func (s *Service) AdjustStock(ctx context.Context, partID int64, in StockInput) (*StockResult, error) {
	if err := s.checkStock(in.TxnType, in.Qty); err != nil {
		return nil, err
	}

	var result *StockResult
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		r, err := s.applyStock(ctx, tx, partID, in.TxnType, in.Qty, nil, strings.TrimSpace(in.Notes))
		result = r
		return err
	})
	if err != nil {
		return nil, storeErr(fmt.Sprintf("spare part %d", partID), err)
	}
	return result, nil
}

func (s *Service) checkStock(txnType model.TxnType, qty int) error {
	if !txnType.Valid() {
		return invalidf("txn_type must be IN or OUT")
	}
	if qty <= 0 {
		return invalidf("qty must be greater than zero")
	}
	return nil
}

// applyStock must run inside a transaction: it locks the part row, writes the
// new level and appends the ledger entry.
func (s *Service) applyStock(ctx context.Context, tx store.Store, partID int64, txnType model.TxnType, qty int, workOrderID *int64, notes string) (*StockResult, error) {
	part, err := tx.GetPartForUpdate(ctx, partID)
	if err != nil {
		return nil, err
	}

	change, err := maint.ApplyStock(part.AvailableStock, txnType, qty)
	if err != nil {
		if errors.Is(err, maint.ErrNonPositiveQty) || errors.Is(err, maint.ErrUnknownTxnType) {
			return nil, invalidf("%v", err)
		}
		return nil, err
	}

	if err := tx.SetPartStock(ctx, part.ID, change.After); err != nil {
		return nil, err
	}

	txn := model.StockTxn{
		PartID:       part.ID,
		TxnType:      txnType,
		Qty:          qty,
		AppliedQty:   change.Applied,
		BalanceAfter: change.After,
		WorkOrderID:  workOrderID,
		Notes:        notes,
		CreatedAt:    s.now().UTC(),
	}
	if err := tx.AppendStockTxn(ctx, &txn); err != nil {
		return nil, err
	}

	if change.Clamped(qty) {
		s.log.Warn("stock out clamped at zero",
			zap.String("kode_barang", part.KodeBarang),
			zap.Int("requested", qty),
			zap.Int("applied", change.Applied),
		)
	}

	part.AvailableStock = change.After
	return &StockResult{Part: *part, Transaction: txn}, nil
}

// StockTxnQuery narrows ListStockTxns.
type StockTxnQuery struct {
	PartID      *int64
	WorkOrderID *int64
	Limit       int
}

func (s *Service) ListStockTxns(ctx context.Context, q StockTxnQuery) ([]model.StockTxn, error) {
	txns, err := s.store.ListStockTxns(ctx, store.StockTxnFilter{PartID: q.PartID, WorkOrderID: q.WorkOrderID, Limit: q.Limit})
	if err != nil {
		return nil, storeErr("list stock transactions", err)
	}
	return txns, nil
}
