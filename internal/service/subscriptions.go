package service

import (
	"context"
	"strings"

	"cmms-backend/internal/model"
)

// SubscriptionInput is a browser push subscription.
type SubscriptionInput struct {
	Endpoint string `json:"endpoint" binding:"required,url"`
	P256DH   string `json:"p256dh" binding:"required"`
	Auth     string `json:"auth" binding:"required"`
}

// Ping reports whether the store answers.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// SaveSubscription registers a browser for digest pushes, replacing the keys of
// a known endpoint.
func (s *Service) SaveSubscription(ctx context.Context, in SubscriptionInput) (*model.PushSubscription, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	sub := &model.PushSubscription{
		Endpoint:  strings.TrimSpace(in.Endpoint),
		P256DH:    in.P256DH,
		Auth:      in.Auth,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.UpsertSubscription(ctx, sub); err != nil {
		return nil, storeErr("subscription", err)
	}
	return sub, nil
}

func (s *Service) GetSubscription(ctx context.Context, endpoint string) (*model.PushSubscription, error) {
	sub, err := s.store.GetSubscription(ctx, endpoint)
	if err != nil {
		return nil, storeErr("subscription", err)
	}
	return sub, nil
}

func (s *Service) DeleteSubscription(ctx context.Context, endpoint string) error {
	if err := s.store.DeleteSubscription(ctx, endpoint); err != nil {
		return storeErr("subscription", err)
	}
	return nil
}
