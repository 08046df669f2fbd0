package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"cmms-backend/internal/model"
)

// ErrNotFound is returned when a lookup, update or delete matches no row.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for all database operations.
type Store interface {
	Ping(ctx context.Context) error
	// Transaction runs fn against a Store bound to one database transaction.
	Transaction(ctx context.Context, fn func(tx Store) error) error

	ListAssets(ctx context.Context, f AssetFilter) ([]model.Asset, error)
	GetAsset(ctx context.Context, id int64) (*model.Asset, error)
	CreateAsset(ctx context.Context, a *model.Asset) error
	UpdateAsset(ctx context.Context, a *model.Asset) error
	DeleteAsset(ctx context.Context, id int64) error

	ListSuppliers(ctx context.Context, f SupplierFilter) ([]model.Supplier, error)
	GetSupplier(ctx context.Context, id int64) (*model.Supplier, error)
	CreateSupplier(ctx context.Context, s *model.Supplier) error
	UpdateSupplier(ctx context.Context, s *model.Supplier) error
	DeleteSupplier(ctx context.Context, id int64) error

	ListParts(ctx context.Context, f PartFilter) ([]model.SparePart, error)
	GetPart(ctx context.Context, id int64) (*model.SparePart, error)
	GetPartForUpdate(ctx context.Context, id int64) (*model.SparePart, error)
	FindPartByCode(ctx context.Context, kodeBarang string) (*model.SparePart, error)
	UpsertPart(ctx context.Context, p *model.SparePart) error
	SetPartStock(ctx context.Context, id int64, stock int) error
	DeletePart(ctx context.Context, id int64) error

	AppendStockTxn(ctx context.Context, t *model.StockTxn) error
	ListStockTxns(ctx context.Context, f StockTxnFilter) ([]model.StockTxn, error)

	CountWorkOrdersCreatedBetween(ctx context.Context, from, to time.Time) (int64, error)
	ListWorkOrders(ctx context.Context, f WorkOrderFilter) ([]model.WorkOrder, error)
	GetWorkOrder(ctx context.Context, id int64) (*model.WorkOrder, error)
	CreateWorkOrder(ctx context.Context, wo *model.WorkOrder) error
	UpdateWorkOrder(ctx context.Context, wo *model.WorkOrder) error
	DeleteWorkOrder(ctx context.Context, id int64) error
	AddWOPart(ctx context.Context, p *model.WOPart) error
	ListWOParts(ctx context.Context, f WOPartFilter) ([]model.WOPart, error)

	ListPMPlans(ctx context.Context, f PMPlanFilter) ([]model.PMPlan, error)
	GetPMPlan(ctx context.Context, id int64) (*model.PMPlan, error)
	CreatePMPlan(ctx context.Context, p *model.PMPlan) error
	UpdatePMPlan(ctx context.Context, p *model.PMPlan) error
	DeletePMPlan(ctx context.Context, id int64) error

	ListActivityReports(ctx context.Context, f ActivityFilter) ([]model.ActivityReport, error)
	GetActivityReport(ctx context.Context, id int64) (*model.ActivityReport, error)
	CreateActivityReport(ctx context.Context, r *model.ActivityReport) error
	UpdateActivityReport(ctx context.Context, r *model.ActivityReport) error
	DeleteActivityReport(ctx context.Context, id int64) error

	ListSubscriptions(ctx context.Context) ([]model.PushSubscription, error)
	GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error)
	UpsertSubscription(ctx context.Context, sub *model.PushSubscription) error
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormStore{db: tx})
	})
}

// --- shared helpers ---

// first loads one row by primary key into dest.
func (s *gormStore) first(ctx context.Context, dest any, id any, preload ...string) error {
	q := s.db.WithContext(ctx)
	for _, p := range preload {
		q = q.Preload(p)
	}
	if err := q.First(dest, id).Error; err != nil {
		return translate(err)
	}
	return nil
}

// deleteByID removes one row and reports ErrNotFound when nothing matched.
func (s *gormStore) deleteByID(ctx context.Context, value any, id any) error {
	res := s.db.WithContext(ctx).Delete(value, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// update writes every column of an existing row, leaving associations alone.
func (s *gormStore) update(ctx context.Context, value any, id int64) error {
	if id == 0 {
		return ErrNotFound
	}
	res := s.db.WithContext(ctx).Model(value).Select("*").Omit("id", "created_at", clause.Associations).Updates(value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)

// likeAny adds a case-insensitive substring match over the given columns.
// Wildcards in term match literally. gorm parenthesises the OR group itself.
func likeAny(q *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" {
		return q
	}
	pattern := "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
	conds := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, c := range columns {
		conds[i] = fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, c)
		args[i] = pattern
	}
	return q.Where(strings.Join(conds, " OR "), args...)
}
