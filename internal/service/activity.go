package service

import (
	"context"
	"fmt"
	"strings"

	"cmms-backend/internal/maint"
	"cmms-backend/internal/model"
	"cmms-backend/internal/store"
)

// ActivityInput is the editable part of an activity report. DurationHours is
// always derived from the times.
type ActivityInput struct {
	AssetID     *int64             `json:"asset_id"`
	Date        string             `json:"date" binding:"required"`
	Type        model.ActivityType `json:"type" binding:"required"`
	Location    string             `json:"location" binding:"max=256"`
	Description string             `json:"description"`
	Technician  string             `json:"technician" binding:"max=128"`
	StartTime   string             `json:"start_time"`
	EndTime     string             `json:"end_time"`
	Notes       string             `json:"notes"`
}

// ActivityQuery narrows ListActivityReports.
type ActivityQuery struct {
	Type    model.ActivityType
	AssetID *int64
}

func (s *Service) applyActivity(ctx context.Context, r *model.ActivityReport, in ActivityInput) error {
	if err := s.check(in); err != nil {
		return err
	}
	if !in.Type.Valid() {
		return invalidf("type must be one of %v", model.ActivityTypes)
	}
	date, err := s.parseDate("date", in.Date)
	if err != nil {
		return err
	}
	if date == nil {
		return invalidf("date is required")
	}
	start, err := s.parseTimestamp("start_time", in.StartTime)
	if err != nil {
		return err
	}
	end, err := s.parseTimestamp("end_time", in.EndTime)
	if err != nil {
		return err
	}
	if err := requireAsset(ctx, s.store, in.AssetID); err != nil {
		return err
	}

	r.AssetID = in.AssetID
	r.Date = *date
	r.Type = in.Type
	r.Location = strings.TrimSpace(in.Location)
	r.Description = strings.TrimSpace(in.Description)
	r.Technician = strings.TrimSpace(in.Technician)
	r.StartTime = start
	r.EndTime = end
	r.DurationHours = maint.DurationHours(start, end)
	r.Notes = strings.TrimSpace(in.Notes)
	return nil
}

func (s *Service) CreateActivityReport(ctx context.Context, in ActivityInput) (*model.ActivityReport, error) {
	var r model.ActivityReport
	if err := s.applyActivity(ctx, &r, in); err != nil {
		return nil, err
	}
	if err := s.store.CreateActivityReport(ctx, &r); err != nil {
		return nil, storeErr("activity report", err)
	}
	return &r, nil
}

func (s *Service) UpdateActivityReport(ctx context.Context, id int64, in ActivityInput) (*model.ActivityReport, error) {
	r, err := s.GetActivityReport(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyActivity(ctx, r, in); err != nil {
		return nil, err
	}
	if err := s.store.UpdateActivityReport(ctx, r); err != nil {
		return nil, storeErr(fmt.Sprintf("activity report %d", id), err)
	}
	return r, nil
}

func (s *Service) GetActivityReport(ctx context.Context, id int64) (*model.ActivityReport, error) {
	r, err := s.store.GetActivityReport(ctx, id)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("activity report %d", id), err)
	}
	return r, nil
}

func (s *Service) ListActivityReports(ctx context.Context, q ActivityQuery) ([]model.ActivityReport, error) {
	if q.Type != "" && !q.Type.Valid() {
		return nil, invalidf("type must be one of %v", model.ActivityTypes)
	}
	reports, err := s.store.ListActivityReports(ctx, store.ActivityFilter{Type: q.Type, AssetID: q.AssetID})
	if err != nil {
		return nil, storeErr("list activity reports", err)
	}
	return reports, nil
}

func (s *Service) DeleteActivityReport(ctx context.Context, id int64) error {
	if err := s.store.DeleteActivityReport(ctx, id); err != nil {
		return storeErr(fmt.Sprintf("activity report %d", id), err)
	}
	return nil
}
