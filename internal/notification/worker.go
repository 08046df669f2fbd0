// Package notification delivers the maintenance digest by email and web push
// from a small pool of background workers.
package notification

import (
	"context"
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"

	"cmms-backend/internal/maint"
	"cmms-backend/internal/model"
	"cmms-backend/internal/store"
)

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// SubscriptionStore is the part of the store the pool needs.
type SubscriptionStore interface {
	ListSubscriptions(ctx context.Context) ([]model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
}

// WorkerPool manages a pool of workers for sending digests.
type WorkerPool struct {
	size    int
	jobs    chan maint.Digest
	subs    SubscriptionStore
	webpush *webpush.Options
	sender  NotificationSender
	mailer  Mailer
	log     *zap.Logger
}

// NewWorkerPool creates a new worker pool. A nil webpushOptions disables push
// and a nil mailer disables email.
func NewWorkerPool(size int, subs SubscriptionStore, webpushOptions *webpush.Options, mailer Mailer, log *zap.Logger) *WorkerPool {
	if size <= 0 {
		size = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan maint.Digest, size),
		subs:    subs,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		mailer:  mailer,
		log:     log,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.log.Debug("notification worker started", zap.Int("worker", id))
	for {
		select {
		case d := <-wp.jobs:
			wp.deliver(ctx, d)
		case <-ctx.Done():
			wp.log.Debug("notification worker shutting down", zap.Int("worker", id))
			return
		}
	}
}

// Dispatch queues a digest, waiting for room until ctx is done.
func (wp *WorkerPool) Dispatch(ctx context.Context, d maint.Digest) error {
	select {
	case wp.jobs <- d:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan maint.Digest {
	return wp.jobs
}

// Channels reports which delivery channels are configured.
func (wp *WorkerPool) Channels() (email, push bool) {
	return wp.mailer != nil, wp.webpush != nil
}

func (wp *WorkerPool) deliver(ctx context.Context, d maint.Digest) {
	if d.Empty() {
		wp.log.Info("digest is empty, nothing to send")
		return
	}
	msg := FormatDigest(d)

	if wp.mailer != nil {
		if err := wp.mailer.Send(msg); err != nil {
			wp.log.Error("digest email failed", zap.Error(err))
		} else {
			wp.log.Info("digest email sent", zap.String("subject", msg.Subject))
		}
	}

	if wp.webpush != nil {
		wp.push(ctx, msg)
	}
}

func (wp *WorkerPool) push(ctx context.Context, msg Message) {
	subscriptions, err := wp.subs.ListSubscriptions(ctx)
	if err != nil {
		wp.log.Error("failed to load push subscriptions", zap.Error(err))
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := msg.PushPayload()
	if err != nil {
		wp.log.Error("failed to encode push payload", zap.Error(err))
		return
	}
	wp.log.Info("sending digest push", zap.Int("subscriptions", len(subscriptions)))
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

// sendNotification sends a single web push notification.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.log.Warn("push failed", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	// Expired subscriptions
	if resp.StatusCode == http.StatusGone {
		wp.log.Info("push subscription expired, deleting", zap.String("endpoint", sub.Endpoint))
		if err := wp.subs.DeleteSubscription(ctx, sub.Endpoint); err != nil && !errors.Is(err, store.ErrNotFound) {
			wp.log.Warn("failed to delete expired subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
	}
}
