package notification

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"cmms-backend/internal/maint"
	"cmms-backend/internal/model"
	"cmms-backend/internal/store"
)

// mockSender is a mock implementation of the NotificationSender interface.
type mockSender struct {
	SendFunc func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// Send calls the mock SendFunc.
func (m *mockSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return m.SendFunc(payload, sub, options)
}

// mockMailer records every message it is asked to send.
type mockMailer struct {
	sent chan Message
	err  error
}

func (m *mockMailer) Send(msg Message) error {
	m.sent <- msg
	return m.err
}

// A helper function to create a mock database connection.
func newTestDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func sampleDigest() maint.Digest {
	today := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return maint.Digest{
		Today:          today,
		OverduePlans:   []model.PMPlan{{Task: "Grease bearings", AssetID: 3, NextDueDate: today}},
		OpenWorkOrders: []model.WorkOrder{{WONo: "WO-20250301-001", Title: "Leak", Status: model.StatusOpen, Priority: model.PriorityHigh}},
	}
}

func pushResponse(status int) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(bytes.NewBufferString(""))}
}

func TestWorkerPool_Dispatch(t *testing.T) {
	gormDB, _ := newTestDB(t)
	wp := NewWorkerPool(1, store.NewGormStore(gormDB), &webpush.Options{}, nil, zap.NewNop())

	require.NoError(t, wp.Dispatch(context.Background(), sampleDigest()))

	select {
	case job := <-wp.Jobs():
		assert.Equal(t, "WO-20250301-001", job.OpenWorkOrders[0].WONo)
	case <-time.After(1 * time.Second):
		t.Fatal("timed out waiting for job to be dispatched")
	}
}

func TestWorkerPool_DispatchFullQueue(t *testing.T) {
	wp := NewWorkerPool(1, nil, nil, nil, zap.NewNop())
	require.NoError(t, wp.Dispatch(context.Background(), sampleDigest()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := wp.Dispatch(ctx, sampleDigest())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWorkerPool_WorkerLogic(t *testing.T) {
	gormDB, mock := newTestDB(t)
	mailer := &mockMailer{sent: make(chan Message, 4)}
	wp := NewWorkerPool(1, store.NewGormStore(gormDB), &webpush.Options{TTL: 60}, mailer, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	wp.Start(ctx)

	t.Run("sends email and push", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(1)

		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				assert.Equal(t, "https://example.com/push", sub.Endpoint)
				assert.Equal(t, "test_p256dh", sub.Keys.P256dh)
				assert.Contains(t, string(payload), "1 overdue PM plans, 1 open work orders, 0 parts below minimum")
				wg.Done()
				return pushResponse(http.StatusCreated), nil
			},
		}

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "push_subscriptions"`)).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
				AddRow("https://example.com/push", "test_p256dh", "test_auth", time.Now()))

		require.NoError(t, wp.Dispatch(ctx, sampleDigest()))

		select {
		case msg := <-mailer.sent:
			assert.Contains(t, msg.Subject, "2025-03-01")
			assert.Contains(t, msg.HTML, "Grease bearings")
		case <-time.After(time.Second):
			t.Fatal("email was not sent")
		}
		wg.Wait()
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("deletes expired subscription", func(t *testing.T) {
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				return pushResponse(http.StatusGone), nil
			},
		}

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "push_subscriptions"`)).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
				AddRow("https://example.com/expired", "p", "a", time.Now()))
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM "push_subscriptions" WHERE endpoint = $1`)).
			WithArgs("https://example.com/expired").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, wp.Dispatch(ctx, sampleDigest()))
		<-mailer.sent

		assert.Eventually(t, func() bool {
			return mock.ExpectationsWereMet() == nil
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("email failure does not stop push", func(t *testing.T) {
		var wg sync.WaitGroup
		wg.Add(1)
		mailer.err = errors.New("smtp down")
		wp.sender = &mockSender{
			SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
				wg.Done()
				return pushResponse(http.StatusCreated), nil
			},
		}

		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "push_subscriptions"`)).
			WillReturnRows(sqlmock.NewRows([]string{"endpoint", "p256dh", "auth", "created_at"}).
				AddRow("https://example.com/push", "p", "a", time.Now()))

		require.NoError(t, wp.Dispatch(ctx, sampleDigest()))
		<-mailer.sent
		wg.Wait()
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestWorkerPool_EmptyDigestSendsNothing(t *testing.T) {
	mailer := &mockMailer{sent: make(chan Message, 1)}
	wp := NewWorkerPool(1, nil, &webpush.Options{}, mailer, zap.NewNop())
	wp.sender = &mockSender{
		SendFunc: func(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
			t.Error("push should not be sent")
			return pushResponse(http.StatusCreated), nil
		},
	}

	wp.deliver(context.Background(), maint.Digest{Today: time.Now()})
	assert.Empty(t, mailer.sent)
}

func TestWorkerPool_Channels(t *testing.T) {
	email, push := NewWorkerPool(1, nil, nil, nil, nil).Channels()
	assert.False(t, email)
	assert.False(t, push)

	email, push = NewWorkerPool(1, nil, &webpush.Options{}, &mockMailer{}, nil).Channels()
	assert.True(t, email)
	assert.True(t, push)
}
