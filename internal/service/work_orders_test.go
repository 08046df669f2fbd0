package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cmms-backend/internal/model"
)

func TestCreateWorkOrder_NumbersPerDay(t *testing.T) {
	// 01:00 in the plant is still the previous day in UTC.
	s, c, _ := newTestService(t, time.Date(2025, 1, 10, 1, 0, 0, 0, plant))
	ctx := context.Background()

	next, err := s.NextWONumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, "WO-20250110-001", next)

	var got []string
	for i := 0; i < 3; i++ {
		wo, err := s.CreateWorkOrder(ctx, CreateWorkOrderInput{Title: "Leaking valve"})
		require.NoError(t, err)
		assert.Equal(t, model.WorkOrderCM, wo.Type)
		assert.Equal(t, model.StatusOpen, wo.Status)
		assert.Equal(t, model.PriorityMedium, wo.Priority)
		got = append(got, wo.WONo)
		c.now = c.now.Add(time.Hour)
	}
	assert.Equal(t, []string{"WO-20250110-001", "WO-20250110-002", "WO-20250110-003"}, got)

	c.now = time.Date(2025, 1, 11, 8, 0, 0, 0, plant)
	wo, err := s.CreateWorkOrder(ctx, CreateWorkOrderInput{Title: "Noisy fan", Type: model.WorkOrderPM, Priority: model.PriorityHigh})
	require.NoError(t, err)
	assert.Equal(t, "WO-20250111-001", wo.WONo)
}

func TestCreateWorkOrder_RetriesTakenNumber(t *testing.T) {
	s, _, gormDB := newTestService(t, time.Date(2025, 1, 10, 9, 0, 0, 0, plant))
	ctx := context.Background()

	// Created "yesterday", so today's count misses it while its number collides.
	stray := model.WorkOrder{
		WONo:      "WO-20250110-001",
		Type:      model.WorkOrderCM,
		Title:     "imported",
		Status:    model.StatusClosed,
		Priority:  model.PriorityLow,
		Cost:      decimal.Zero,
		CreatedAt: time.Date(2025, 1, 9, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, gormDB.Create(&stray).Error)

	wo, err := s.CreateWorkOrder(ctx, CreateWorkOrderInput{Title: "Broken belt"})
	require.NoError(t, err)
	assert.Equal(t, "WO-20250110-002", wo.WONo)
}

func TestCreateWorkOrder_Validation(t *testing.T) {
	s, _, _ := newTestService(t, time.Now())
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateWorkOrderInput
	}{
		{"missing title", CreateWorkOrderInput{}},
		{"bad type", CreateWorkOrderInput{Title: "x", Type: "XX"}},
		{"bad priority", CreateWorkOrderInput{Title: "x", Priority: "urgent"}},
		{"bad due date", CreateWorkOrderInput{Title: "x", DueDate: "tomorrow"}},
		{"unknown asset", CreateWorkOrderInput{Title: "x", AssetID: ptr(int64(7))}},
		{"unknown pm plan", CreateWorkOrderInput{Title: "x", PMPlanID: ptr(int64(7))}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.CreateWorkOrder(ctx, tt.in)
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}

	wos, err := s.ListWorkOrders(ctx, WorkOrderQuery{})
	require.NoError(t, err)
	assert.Empty(t, wos)
}

func TestUpdateWorkOrder_DowntimeAndCost(t *testing.T) {
	s, _, _ := newTestService(t, time.Date(2025, 1, 10, 9, 0, 0, 0, plant))
	ctx := context.Background()

	wo, err := s.CreateWorkOrder(ctx, CreateWorkOrderInput{Title: "Replace bearing"})
	require.NoError(t, err)

	updated, err := s.UpdateWorkOrder(ctx, wo.ID, UpdateWorkOrderInput{
		Status:    model.StatusClosed,
		Assignee:  "Budi",
		Priority:  model.PriorityHigh,
		StartTime: "2025-01-10 08:00",
		EndTime:   "2025-01-10 08:20",
		Cost:      decimal.RequireFromString("150000.456"),
	})
	require.NoError(t, err)
	assert.Equal(t, 0.33, updated.DowntimeHours)
	assert.Equal(t, "150000.46", updated.Cost.StringFixed(2))
	require.NotNil(t, updated.StartTime)
	assert.Equal(t, time.Date(2025, 1, 10, 1, 0, 0, 0, time.UTC), updated.StartTime.UTC())

	// Reversed times give zero downtime; status may move back to open.
	reopened, err := s.UpdateWorkOrder(ctx, wo.ID, UpdateWorkOrderInput{
		Status:    model.StatusOpen,
		Priority:  model.PriorityHigh,
		StartTime: "2025-01-10 10:00",
		EndTime:   "2025-01-10 09:00",
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, reopened.DowntimeHours)

	stored, err := s.GetWorkOrder(ctx, wo.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusOpen, stored.Status)
	assert.Empty(t, stored.Assignee)

	_, err = s.UpdateWorkOrder(ctx, wo.ID, UpdateWorkOrderInput{Status: "done", Priority: model.PriorityLow})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = s.UpdateWorkOrder(ctx, wo.ID, UpdateWorkOrderInput{Status: model.StatusOpen, Priority: model.PriorityLow, Cost: decimal.NewFromInt(-1)})
	assert.ErrorIs(t, err, ErrInvalid)
	_, err = s.UpdateWorkOrder(ctx, 404, UpdateWorkOrderInput{Status: model.StatusOpen, Priority: model.PriorityLow})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateWorkOrderInput_CostFromJSON(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"number", `{"cost": 1250.5}`, "1250.50"},
		{"text", `{"cost": "1250.5"}`, "1250.50"},
		{"comma decimal", `{"cost": "99,95"}`, "99.95"},
		{"blank", `{"cost": ""}`, "0.00"},
		{"null", `{"cost": null}`, "0.00"},
		{"missing", `{"status": "Open"}`, "0.00"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var in UpdateWorkOrderInput
			require.NoError(t, json.Unmarshal([]byte(tt.body), &in))
			assert.Equal(t, tt.want, in.Cost.StringFixed(2))
		})
	}

	var in UpdateWorkOrderInput
	require.NoError(t, json.Unmarshal([]byte(`{"status": "Closed", "assignee": "Budi", "cost": "10"}`), &in))
	assert.Equal(t, model.StatusClosed, in.Status)
	assert.Equal(t, "Budi", in.Assignee)

	err := json.Unmarshal([]byte(`{"cost": "ten"}`), &in)
	assert.ErrorContains(t, err, "cost")
}

func TestConsumePart(t *testing.T) {
	s, _, _ := newTestService(t, time.Date(2025, 1, 10, 9, 0, 0, 0, plant))
	ctx := context.Background()

	saved, err := s.SavePart(ctx, PartInput{KodeBarang: "BRG-6204", NamaBarang: "Bearing 6204", MinimumStock: 2, OpeningStock: 3})
	require.NoError(t, err)
	wo, err := s.CreateWorkOrder(ctx, CreateWorkOrderInput{Title: "Replace bearing"})
	require.NoError(t, err)

	res, err := s.ConsumePart(ctx, wo.ID, ConsumePartInput{PartID: saved.Part.ID, Qty: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Part.AvailableStock)
	assert.Equal(t, 2, res.WOPart.Qty)
	assert.Equal(t, model.TxnOut, res.Transaction.TxnType)
	require.NotNil(t, res.Transaction.WorkOrderID)
	assert.Equal(t, wo.ID, *res.Transaction.WorkOrderID)
	assert.Equal(t, "used on WO-20250110-001", res.Transaction.Notes)

	// More than is on hand: stock clamps at zero, usage keeps the request.
	res, err = s.ConsumePart(ctx, wo.ID, ConsumePartInput{PartID: saved.Part.ID, Qty: 5, Notes: "emergency"})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Part.AvailableStock)
	assert.Equal(t, 1, res.Transaction.AppliedQty)
	assert.Equal(t, 5, res.WOPart.Qty)

	used, err := s.WorkOrderParts(ctx, wo.ID)
	require.NoError(t, err)
	require.Len(t, used, 2)
	require.NotNil(t, used[0].Part)
	assert.Equal(t, "BRG-6204", used[0].Part.KodeBarang)

	txns, err := s.ListStockTxns(ctx, StockTxnQuery{WorkOrderID: &wo.ID})
	require.NoError(t, err)
	assert.Len(t, txns, 2)
}

func TestConsumePart_FailureWritesNothing(t *testing.T) {
	s, _, _ := newTestService(t, time.Date(2025, 1, 10, 9, 0, 0, 0, plant))
	ctx := context.Background()

	saved, err := s.SavePart(ctx, PartInput{KodeBarang: "BRG-1", NamaBarang: "Belt", OpeningStock: 4})
	require.NoError(t, err)

	_, err = s.ConsumePart(ctx, 999, ConsumePartInput{PartID: saved.Part.ID, Qty: 1})
	assert.ErrorIs(t, err, ErrNotFound)

	wo, err := s.CreateWorkOrder(ctx, CreateWorkOrderInput{Title: "x"})
	require.NoError(t, err)
	_, err = s.ConsumePart(ctx, wo.ID, ConsumePartInput{PartID: 999, Qty: 1})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = s.ConsumePart(ctx, wo.ID, ConsumePartInput{PartID: saved.Part.ID, Qty: 0})
	assert.ErrorIs(t, err, ErrInvalid)

	part, err := s.GetPart(ctx, saved.Part.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, part.AvailableStock)

	used, err := s.WorkOrderParts(ctx, wo.ID)
	require.NoError(t, err)
	assert.Empty(t, used)
}

func TestListWorkOrders_Filters(t *testing.T) {
	s, _, _ := newTestService(t, time.Date(2025, 1, 10, 9, 0, 0, 0, plant))
	ctx := context.Background()

	asset, err := s.CreateAsset(ctx, AssetInput{Code: "CMP-1", Name: "Compressor"})
	require.NoError(t, err)
	_, err = s.CreateWorkOrder(ctx, CreateWorkOrderInput{Title: "Oil leak", AssetID: &asset.ID})
	require.NoError(t, err)
	_, err = s.CreateWorkOrder(ctx, CreateWorkOrderInput{Title: "Monthly check", Type: model.WorkOrderPM})
	require.NoError(t, err)

	pm, err := s.ListWorkOrders(ctx, WorkOrderQuery{Type: model.WorkOrderPM})
	require.NoError(t, err)
	require.Len(t, pm, 1)
	assert.Equal(t, "Monthly check", pm[0].Title)

	byAsset, err := s.ListWorkOrders(ctx, WorkOrderQuery{AssetID: &asset.ID})
	require.NoError(t, err)
	require.Len(t, byAsset, 1)
	require.NotNil(t, byAsset[0].Asset)
	assert.Equal(t, "Compressor", byAsset[0].Asset.Name)

	found, err := s.ListWorkOrders(ctx, WorkOrderQuery{Search: "leak"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	_, err = s.ListWorkOrders(ctx, WorkOrderQuery{Status: "weird"})
	assert.ErrorIs(t, err, ErrInvalid)

	require.NoError(t, s.DeleteWorkOrder(ctx, pm[0].ID))
	assert.ErrorIs(t, s.DeleteWorkOrder(ctx, pm[0].ID), ErrNotFound)
}
