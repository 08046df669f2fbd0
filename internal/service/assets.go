package service

import (
	"context"
	"fmt"
	"strings"

	"cmms-backend/internal/model"
	"cmms-backend/internal/store"
)

// AssetInput is the editable part of an asset.
type AssetInput struct {
	Code              string `json:"code" binding:"max=64"`
	Name              string `json:"name" binding:"required,max=256"`
	Location          string `json:"location" binding:"max=256"`
	Category          string `json:"category" binding:"max=128"`
	Criticality       string `json:"criticality" binding:"max=32"`
	CommissioningDate string `json:"commissioning_date"`
}

func (s *Service) applyAsset(a *model.Asset, in AssetInput) error {
	if err := s.check(in); err != nil {
		return err
	}
	commissioned, err := s.parseDate("commissioning_date", in.CommissioningDate)
	if err != nil {
		return err
	}
	a.Code = optString(in.Code)
	a.Name = strings.TrimSpace(in.Name)
	a.Location = strings.TrimSpace(in.Location)
	a.Category = strings.TrimSpace(in.Category)
	a.Criticality = strings.TrimSpace(in.Criticality)
	a.CommissioningDate = commissioned
	return nil
}

func (s *Service) ListAssets(ctx context.Context, search string) ([]model.Asset, error) {
	assets, err := s.store.ListAssets(ctx, store.AssetFilter{Search: search})
	if err != nil {
		return nil, storeErr("list assets", err)
	}
	return assets, nil
}

func (s *Service) GetAsset(ctx context.Context, id int64) (*model.Asset, error) {
	a, err := s.store.GetAsset(ctx, id)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("asset %d", id), err)
	}
	return a, nil
}

func (s *Service) CreateAsset(ctx context.Context, in AssetInput) (*model.Asset, error) {
	var a model.Asset
	if err := s.applyAsset(&a, in); err != nil {
		return nil, err
	}
	if err := s.store.CreateAsset(ctx, &a); err != nil {
		return nil, storeErr("asset code "+in.Code, err)
	}
	return &a, nil
}

func (s *Service) UpdateAsset(ctx context.Context, id int64, in AssetInput) (*model.Asset, error) {
	a, err := s.GetAsset(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyAsset(a, in); err != nil {
		return nil, err
	}
	if err := s.store.UpdateAsset(ctx, a); err != nil {
		return nil, storeErr(fmt.Sprintf("asset %d", id), err)
	}
	return a, nil
}

func (s *Service) DeleteAsset(ctx context.Context, id int64) error {
	if err := s.store.DeleteAsset(ctx, id); err != nil {
		return storeErr(fmt.Sprintf("asset %d", id), err)
	}
	return nil
}

// requireAsset turns a dangling asset reference into a validation error.
func requireAsset(ctx context.Context, st store.Store, id *int64) error {
	if id == nil {
		return nil
	}
	if _, err := st.GetAsset(ctx, *id); err != nil {
		if isNotFound(err) {
			return invalidf("asset %d does not exist", *id)
		}
		return storeErr("asset lookup", err)
	}
	return nil
}

// SupplierInput is the editable part of a supplier.
type SupplierInput struct {
	Name    string `json:"name" binding:"required,max=256"`
	Contact string `json:"contact" binding:"max=128"`
	Phone   string `json:"phone" binding:"max=64"`
	Email   string `json:"email" binding:"omitempty,email,max=128"`
	Address string `json:"address" binding:"max=512"`
}

func (s *Service) applySupplier(sup *model.Supplier, in SupplierInput) error {
	if err := s.check(in); err != nil {
		return err
	}
	sup.Name = strings.TrimSpace(in.Name)
	sup.Contact = strings.TrimSpace(in.Contact)
	sup.Phone = strings.TrimSpace(in.Phone)
	sup.Email = strings.TrimSpace(in.Email)
	sup.Address = strings.TrimSpace(in.Address)
	return nil
}

func (s *Service) ListSuppliers(ctx context.Context, search string) ([]model.Supplier, error) {
	suppliers, err := s.store.ListSuppliers(ctx, store.SupplierFilter{Search: search})
	if err != nil {
		return nil, storeErr("list suppliers", err)
	}
	return suppliers, nil
}

func (s *Service) GetSupplier(ctx context.Context, id int64) (*model.Supplier, error) {
	sup, err := s.store.GetSupplier(ctx, id)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("supplier %d", id), err)
	}
	return sup, nil
}

func (s *Service) CreateSupplier(ctx context.Context, in SupplierInput) (*model.Supplier, error) {
	var sup model.Supplier
	if err := s.applySupplier(&sup, in); err != nil {
		return nil, err
	}
	if err := s.store.CreateSupplier(ctx, &sup); err != nil {
		return nil, storeErr("supplier", err)
	}
	return &sup, nil
}

func (s *Service) UpdateSupplier(ctx context.Context, id int64, in SupplierInput) (*model.Supplier, error) {
	sup, err := s.GetSupplier(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applySupplier(sup, in); err != nil {
		return nil, err
	}
	if err := s.store.UpdateSupplier(ctx, sup); err != nil {
		return nil, storeErr(fmt.Sprintf("supplier %d", id), err)
	}
	return sup, nil
}

func (s *Service) DeleteSupplier(ctx context.Context, id int64) error {
	if err := s.store.DeleteSupplier(ctx, id); err != nil {
		return storeErr(fmt.Sprintf("supplier %d", id), err)
	}
	return nil
}
