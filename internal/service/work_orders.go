package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cmms-backend/internal/maint"
	"cmms-backend/internal/model"
	"cmms-backend/internal/parse"
	"cmms-backend/internal/store"
)

// maxNumberAttempts bounds the retries when two creators pick the same
// work order number.
const maxNumberAttempts = 5

// CreateWorkOrderInput opens a new work order. Type defaults to CM and
// priority to Medium.
type CreateWorkOrderInput struct {
	Type        model.WorkOrderType `json:"type"`
	AssetID     *int64              `json:"asset_id"`
	PMPlanID    *int64              `json:"pm_plan_id"`
	Title       string              `json:"title" binding:"required,max=256"`
	Description string              `json:"description"`
	Requester   string              `json:"requester" binding:"max=128"`
	Assignee    string              `json:"assignee" binding:"max=128"`
	Priority    model.Priority      `json:"priority"`
	DueDate     string              `json:"due_date"`
}

// UpdateWorkOrderInput is written as a whole: every field replaces the stored
// value, including blanks.
type UpdateWorkOrderInput struct {
	Status    model.WorkOrderStatus `json:"status" binding:"required"`
	Assignee  string                `json:"assignee" binding:"max=128"`
	Priority  model.Priority        `json:"priority" binding:"required"`
	StartTime string                `json:"start_time"`
	EndTime   string                `json:"end_time"`
	Cost      decimal.Decimal       `json:"cost"`
}

// UnmarshalJSON accepts cost as a JSON number or as text, where "1250,50"
// reads as 1250.50.
func (in *UpdateWorkOrderInput) UnmarshalJSON(b []byte) error {
	type plain UpdateWorkOrderInput
	aux := struct {
		*plain
		Cost json.RawMessage `json:"cost"`
	}{plain: (*plain)(in)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	raw := bytes.TrimSpace(aux.Cost)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		in.Cost = decimal.Zero
		return nil
	}
	text := string(raw)
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &text); err != nil {
			return err
		}
	}
	cost, err := parse.ParseDecimal(text)
	if err != nil {
		return fmt.Errorf("cost: %w", err)
	}
	in.Cost = cost
	return nil
}

// ConsumePartInput books a spare part against a work order.
type ConsumePartInput struct {
	PartID int64  `json:"part_id" binding:"required"`
	Qty    int    `json:"qty"`
	Notes  string `json:"notes"`
}

// ConsumeResult is everything ConsumePart wrote.
type ConsumeResult struct {
	WOPart      model.WOPart    `json:"wo_part"`
	Part        model.SparePart `json:"part"`
	Transaction model.StockTxn  `json:"transaction"`
}

// WorkOrderQuery narrows ListWorkOrders.
type WorkOrderQuery struct {
	Status  model.WorkOrderStatus
	Type    model.WorkOrderType
	AssetID *int64
	Search  string
}

// NextWONumber previews the number the next work order created today gets.
func (s *Service) NextWONumber(ctx context.Context) (string, error) {
	now := s.now()
	n, err := s.countCreatedToday(ctx)
	if err != nil {
		return "", err
	}
	return maint.NextWONumber(now.In(s.loc), n), nil
}

func (s *Service) countCreatedToday(ctx context.Context) (int64, error) {
	from, to := maint.DayBounds(s.now(), s.loc)
	n, err := s.store.CountWorkOrdersCreatedBetween(ctx, from, to)
	if err != nil {
		return 0, storeErr("count work orders", err)
	}
	return n, nil
}

// CreateWorkOrder opens a work order with a generated number. A number that is
// already taken is retried with the next sequence.
func (s *Service) CreateWorkOrder(ctx context.Context, in CreateWorkOrderInput) (*model.WorkOrder, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	if in.Type == "" {
		in.Type = model.WorkOrderCM
	}
	if !in.Type.Valid() {
		return nil, invalidf("type must be one of %v", model.WorkOrderTypes)
	}
	if in.Priority == "" {
		in.Priority = model.PriorityMedium
	}
	if !in.Priority.Valid() {
		return nil, invalidf("priority must be one of %v", model.Priorities)
	}
	due, err := s.parseDate("due_date", in.DueDate)
	if err != nil {
		return nil, err
	}
	if err := requireAsset(ctx, s.store, in.AssetID); err != nil {
		return nil, err
	}
	if in.PMPlanID != nil {
		if _, err := s.store.GetPMPlan(ctx, *in.PMPlanID); err != nil {
			if isNotFound(err) {
				return nil, invalidf("pm plan %d does not exist", *in.PMPlanID)
			}
			return nil, storeErr("pm plan lookup", err)
		}
	}

	now := s.now()
	wo := &model.WorkOrder{
		Type:        in.Type,
		AssetID:     in.AssetID,
		PMPlanID:    in.PMPlanID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Requester:   strings.TrimSpace(in.Requester),
		Assignee:    strings.TrimSpace(in.Assignee),
		Status:      model.StatusOpen,
		Priority:    in.Priority,
		DueDate:     due,
		Cost:        decimal.Zero,
		CreatedAt:   now.UTC(),
	}

	n, err := s.countCreatedToday(ctx)
	if err != nil {
		return nil, err
	}
	day := now.In(s.loc)
	for attempt := 0; attempt < maxNumberAttempts; attempt++ {
		wo.ID = 0
		wo.WONo = maint.NextWONumber(day, n+int64(attempt))
		err = s.store.CreateWorkOrder(ctx, wo)
		if err == nil {
			s.log.Info("work order created", zap.String("wo_no", wo.WONo), zap.Int64("id", wo.ID))
			return wo, nil
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, storeErr("work order", err)
		}
		s.log.Warn("work order number taken, retrying", zap.String("wo_no", wo.WONo), zap.Int("attempt", attempt+1))
	}
	return nil, fmt.Errorf("%w: no free work order number after %d attempts", ErrConflict, maxNumberAttempts)
}

// UpdateWorkOrder overwrites status, assignee, priority, times and cost, and
// recomputes downtime from the times. Any status may follow any other.
func (s *Service) UpdateWorkOrder(ctx context.Context, id int64, in UpdateWorkOrderInput) (*model.WorkOrder, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	if !in.Status.Valid() {
		return nil, invalidf("status must be one of %v", model.WorkOrderStatuses)
	}
	if !in.Priority.Valid() {
		return nil, invalidf("priority must be one of %v", model.Priorities)
	}
	if in.Cost.IsNegative() {
		return nil, invalidf("cost must not be negative")
	}
	start, err := s.parseTimestamp("start_time", in.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := s.parseTimestamp("end_time", in.EndTime)
	if err != nil {
		return nil, err
	}

	wo, err := s.GetWorkOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	previous := wo.Status

	wo.Status = in.Status
	wo.Assignee = strings.TrimSpace(in.Assignee)
	wo.Priority = in.Priority
	wo.StartTime = start
	wo.EndTime = end
	wo.DowntimeHours = maint.DurationHours(start, end)
	wo.Cost = in.Cost.Round(2)

	if err := s.store.UpdateWorkOrder(ctx, wo); err != nil {
		return nil, storeErr(fmt.Sprintf("work order %d", id), err)
	}
	if previous != wo.Status {
		s.log.Info("work order status changed",
			zap.String("wo_no", wo.WONo),
			zap.String("from", string(previous)),
			zap.String("to", string(wo.Status)),
		)
	}
	return wo, nil
}

func (s *Service) GetWorkOrder(ctx context.Context, id int64) (*model.WorkOrder, error) {
	wo, err := s.store.GetWorkOrder(ctx, id)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("work order %d", id), err)
	}
	return wo, nil
}

func (s *Service) ListWorkOrders(ctx context.Context, q WorkOrderQuery) ([]model.WorkOrder, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, invalidf("status must be one of %v", model.WorkOrderStatuses)
	}
	if q.Type != "" && !q.Type.Valid() {
		return nil, invalidf("type must be one of %v", model.WorkOrderTypes)
	}
	wos, err := s.store.ListWorkOrders(ctx, store.WorkOrderFilter{
		Status:  q.Status,
		Type:    q.Type,
		AssetID: q.AssetID,
		Search:  q.Search,
	})
	if err != nil {
		return nil, storeErr("list work orders", err)
	}
	return wos, nil
}

func (s *Service) DeleteWorkOrder(ctx context.Context, id int64) error {
	if err := s.store.DeleteWorkOrder(ctx, id); err != nil {
		return storeErr(fmt.Sprintf("work order %d", id), err)
	}
	return nil
}

// ConsumePart takes stock out for a work order and records the usage. The
// ledger entry, the stock level and the usage row commit together.
func (s *Service) ConsumePart(ctx context.Context, workOrderID int64, in ConsumePartInput) (*ConsumeResult, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	if err := s.checkStock(model.TxnOut, in.Qty); err != nil {
		return nil, err
	}

	var result ConsumeResult
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		wo, err := tx.GetWorkOrder(ctx, workOrderID)
		if err != nil {
			return storeErr(fmt.Sprintf("work order %d", workOrderID), err)
		}

		notes := strings.TrimSpace(in.Notes)
		if notes == "" {
			notes = "used on " + wo.WONo
		}
		r, err := s.applyStock(ctx, tx, in.PartID, model.TxnOut, in.Qty, &wo.ID, notes)
		if err != nil {
			return storeErr(fmt.Sprintf("spare part %d", in.PartID), err)
		}

		usage := model.WOPart{
			WorkOrderID: wo.ID,
			PartID:      in.PartID,
			Qty:         in.Qty,
			CreatedAt:   s.now().UTC(),
		}
		if err := tx.AddWOPart(ctx, &usage); err != nil {
			return err
		}

		result = ConsumeResult{WOPart: usage, Part: r.Part, Transaction: r.Transaction}
		return nil
	})
	if err != nil {
		return nil, storeErr("consume part", err)
	}
	return &result, nil
}

// WorkOrderParts lists the parts booked against a work order.
func (s *Service) WorkOrderParts(ctx context.Context, workOrderID int64) ([]model.WOPart, error) {
	if _, err := s.GetWorkOrder(ctx, workOrderID); err != nil {
		return nil, err
	}
	parts, err := s.store.ListWOParts(ctx, store.WOPartFilter{WorkOrderID: &workOrderID})
	if err != nil {
		return nil, storeErr("list work order parts", err)
	}
	return parts, nil
}
