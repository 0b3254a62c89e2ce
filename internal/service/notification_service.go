package service

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hadirq/ledger-api/internal/models"
	"github.com/hadirq/ledger-api/internal/repository"
)

type dispatcher interface {
	Dispatch(ctx context.Context, intent models.NotificationIntent) error
}

// NotificationServiceParams wires the notification service dependencies.
type NotificationServiceParams struct {
	Queue      repository.Queue
	Dispatcher dispatcher
	Metrics    *MetricsService
	FlushDelay time.Duration
	Enabled    bool
	Logger     *zap.Logger
}

// NotificationService queues guardian notification intents and flushes them
// shortly after a burst of scans. The delayed flush coalesces the gateway
// round-trips a morning rush would otherwise make per scan.
type NotificationService struct {
	queue      repository.Queue
	dispatcher dispatcher
	metrics    *MetricsService
	flushDelay time.Duration
	enabled    bool
	logger     *zap.Logger

	flushArmed atomic.Bool
}

// NewNotificationService constructs the notification service.
func NewNotificationService(p NotificationServiceParams) *NotificationService {
	if p.FlushDelay <= 0 {
		p.FlushDelay = 10 * time.Second
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	return &NotificationService{
		queue:      p.Queue,
		dispatcher: p.Dispatcher,
		metrics:    p.Metrics,
		flushDelay: p.FlushDelay,
		enabled:    p.Enabled,
		logger:     p.Logger,
	}
}

// Enabled reports whether guardian notifications are configured.
func (s *NotificationService) Enabled() bool {
	return s != nil && s.enabled && s.queue != nil && s.dispatcher != nil
}

// Notify enqueues the intent and arms a delayed flush. When the queue itself
// is unreachable the intent is dispatched inline so it is not silently lost.
func (s *NotificationService) Notify(ctx context.Context, intent models.NotificationIntent) {
	if !s.Enabled() {
		return
	}
	if err := s.queue.Enqueue(ctx, intent); err != nil {
		s.logger.Warn("enqueue failed, dispatching inline",
			zap.String("nis", intent.NIS), zap.Error(err))
		s.dispatch(ctx, intent)
		return
	}
	if depth, err := s.queue.Depth(ctx); err == nil {
		s.metrics.SetQueueDepth(depth)
	}
	s.armFlush()
}

// armFlush schedules one flush per burst. The armed flag is cleared before
// draining so intents arriving mid-flush arm the next timer.
func (s *NotificationService) armFlush() {
	if !s.flushArmed.CompareAndSwap(false, true) {
		return
	}
	time.AfterFunc(s.flushDelay, func() {
		s.flushArmed.Store(false)
		s.Flush(context.Background())
	})
}

// Flush drains the queue and dispatches every intent in arrival order.
// Dispatch failures are logged and counted, never retried; flushing an
// empty queue is a no-op, so overlapping flushes are harmless.
func (s *NotificationService) Flush(ctx context.Context) {
	if !s.Enabled() {
		return
	}
	intents, err := s.queue.Drain(ctx)
	if err != nil {
		s.logger.Error("queue drain failed", zap.Error(err))
		return
	}
	s.metrics.SetQueueDepth(0)
	for _, intent := range intents {
		s.dispatch(ctx, intent)
	}
	if len(intents) > 0 {
		s.logger.Info("notification queue flushed", zap.Int("count", len(intents)))
	}
}

// TestSend dispatches a single intent immediately, bypassing the queue.
func (s *NotificationService) TestSend(ctx context.Context, nis, name string) error {
	if !s.Enabled() {
		return nil
	}
	intent := models.NotificationIntent{
		NIS:       nis,
		Name:      name,
		Type:      models.EventCheckIn,
		Status:    models.StatusPresent,
		Timestamp: time.Now().Unix(),
	}
	if err := s.dispatcher.Dispatch(ctx, intent); err != nil {
		s.metrics.RecordNotification(false)
		return err
	}
	s.metrics.RecordNotification(true)
	return nil
}

func (s *NotificationService) dispatch(ctx context.Context, intent models.NotificationIntent) {
	if err := s.dispatcher.Dispatch(ctx, intent); err != nil {
		s.metrics.RecordNotification(false)
		s.logger.Warn("notification dispatch failed",
			zap.String("nis", intent.NIS),
			zap.String("type", intent.Type),
			zap.Error(err))
		return
	}
	s.metrics.RecordNotification(true)
}
