package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"cmms-backend/internal/maint"
	"cmms-backend/internal/model"
	"cmms-backend/internal/store"
)

// PMPlanInput is the editable part of a PM plan.
type PMPlanInput struct {
	AssetID       int64  `json:"asset_id" binding:"required"`
	Task          string `json:"task" binding:"required,max=512"`
	FrequencyDays int    `json:"frequency_days" binding:"required,gt=0"`
	NextDueDate   string `json:"next_due_date" binding:"required"`
	LastDoneDate  string `json:"last_done_date"`
	Notes         string `json:"notes"`
}

// CompletePMInput marks a plan done. A blank DoneDate means today.
type CompletePMInput struct {
	DoneDate string `json:"done_date"`
}

// PMPlanQuery narrows ListPMPlans. DueOnly keeps plans due today or earlier.
type PMPlanQuery struct {
	AssetID *int64
	DueOnly bool
}

func (s *Service) applyPMPlan(ctx context.Context, p *model.PMPlan, in PMPlanInput) error {
	if err := s.check(in); err != nil {
		return err
	}
	next, err := s.parseDate("next_due_date", in.NextDueDate)
	if err != nil {
		return err
	}
	if next == nil {
		return invalidf("next_due_date is required")
	}
	last, err := s.parseDate("last_done_date", in.LastDoneDate)
	if err != nil {
		return err
	}
	if err := requireAsset(ctx, s.store, &in.AssetID); err != nil {
		return err
	}

	p.AssetID = in.AssetID
	p.Task = strings.TrimSpace(in.Task)
	p.FrequencyDays = in.FrequencyDays
	p.NextDueDate = *next
	p.LastDoneDate = last
	p.Notes = strings.TrimSpace(in.Notes)
	return nil
}

func (s *Service) CreatePMPlan(ctx context.Context, in PMPlanInput) (*model.PMPlan, error) {
	var p model.PMPlan
	if err := s.applyPMPlan(ctx, &p, in); err != nil {
		return nil, err
	}
	if err := s.store.CreatePMPlan(ctx, &p); err != nil {
		return nil, storeErr("pm plan", err)
	}
	return &p, nil
}

func (s *Service) UpdatePMPlan(ctx context.Context, id int64, in PMPlanInput) (*model.PMPlan, error) {
	p, err := s.GetPMPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.applyPMPlan(ctx, p, in); err != nil {
		return nil, err
	}
	if err := s.store.UpdatePMPlan(ctx, p); err != nil {
		return nil, storeErr(fmt.Sprintf("pm plan %d", id), err)
	}
	return p, nil
}

func (s *Service) GetPMPlan(ctx context.Context, id int64) (*model.PMPlan, error) {
	p, err := s.store.GetPMPlan(ctx, id)
	if err != nil {
		return nil, storeErr(fmt.Sprintf("pm plan %d", id), err)
	}
	return p, nil
}

func (s *Service) DeletePMPlan(ctx context.Context, id int64) error {
	if err := s.store.DeletePMPlan(ctx, id); err != nil {
		return storeErr(fmt.Sprintf("pm plan %d", id), err)
	}
	return nil
}

// ListPMPlans returns plans ordered by next due date. Due means the next due
// date is today or earlier in the plant timezone.
func (s *Service) ListPMPlans(ctx context.Context, q PMPlanQuery) ([]model.PMPlan, error) {
	plans, err := s.store.ListPMPlans(ctx, store.PMPlanFilter{AssetID: q.AssetID})
	if err != nil {
		return nil, storeErr("list pm plans", err)
	}
	if !q.DueOnly {
		return plans, nil
	}

	today := maint.Today(s.now(), s.loc)
	due := make([]model.PMPlan, 0, len(plans))
	for _, p := range plans {
		if maint.IsDue(p, today) {
			due = append(due, p)
		}
	}
	return due, nil
}

// CompletePMPlan records the plan as done and moves the next due date forward
// by its frequency. Nothing else ever advances a plan.
func (s *Service) CompletePMPlan(ctx context.Context, id int64, in CompletePMInput) (*model.PMPlan, error) {
	today := maint.Today(s.now(), s.loc)
	done, err := s.parseDate("done_date", in.DoneDate)
	if err != nil {
		return nil, err
	}
	if done == nil {
		done = &today
	}
	if done.After(today) {
		return nil, invalidf("done_date cannot be in the future")
	}

	p, err := s.GetPMPlan(ctx, id)
	if err != nil {
		return nil, err
	}
	doneDate := maint.CivilDate(*done)
	p.LastDoneDate = &doneDate
	p.NextDueDate = maint.NextDueAfter(doneDate, p.FrequencyDays)

	if err := s.store.UpdatePMPlan(ctx, p); err != nil {
		return nil, storeErr(fmt.Sprintf("pm plan %d", id), err)
	}
	s.log.Info("pm plan completed",
		zap.Int64("id", p.ID),
		zap.String("done", doneDate.Format("2006-01-02")),
		zap.String("next_due", p.NextDueDate.Format("2006-01-02")),
	)
	return p, nil
}
