package notification

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nekogravitycat/appointment-booking-backend/internal/metrics"
	"github.com/nekogravitycat/appointment-booking-backend/internal/pkg/retry"
)

const (
	drainTimeout    = 5 * time.Second
	deliveryTimeout = 10 * time.Second
)

// QueueConfig sizes the outbound buffer and its workers.
type QueueConfig struct {
	Buffer  int
	Workers int
	Retry   retry.Policy
}

// Queue is a bounded in-process outbound channel. Dispatch never blocks: when
// the buffer is full, or Run has already returned, the event is dropped and logged.
type Queue struct {
	mu      sync.RWMutex
	stopped bool

	events  chan Event
	sink    Sink
	logger  *zap.Logger
	workers int
	retry   retry.Policy
}

func NewQueue(sink Sink, logger *zap.Logger, cfg QueueConfig) *Queue {
	if cfg.Buffer <= 0 {
		cfg.Buffer = 256
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Queue{
		events:  make(chan Event, cfg.Buffer),
		sink:    sink,
		logger:  logger,
		workers: cfg.Workers,
		retry:   cfg.Retry,
	}
}

func (q *Queue) Dispatch(_ context.Context, ev Event) {
	// The read lock keeps Run from draining between the stopped check and the send.
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.stopped {
		q.drop(ev, "notification queue stopped, dropping event")
		return
	}
	select {
	case q.events <- ev:
	default:
		q.drop(ev, "notification buffer full, dropping event")
	}
}

func (q *Queue) drop(ev Event, msg string) {
	metrics.RecordNotification(string(ev.Kind), "dropped")
	q.logger.Error(msg,
		zap.String("event_id", ev.ID),
		zap.String("kind", string(ev.Kind)),
		zap.String("appointment_id", ev.AppointmentID),
	)
}

// Run delivers events until ctx is done, then flushes what is still buffered
// for a short grace period.
func (q *Queue) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < q.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				if ctx.Err() != nil {
					return
				}
				select {
				case <-ctx.Done():
					return
				case ev := <-q.events:
					q.deliver(ctx, ev)
				}
			}
		}()
	}
	wg.Wait()

	// Anything dispatched from here on is dropped rather than left in the buffer.
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()

	q.drain()
}

func (q *Queue) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()

	for {
		select {
		case ev := <-q.events:
			q.deliver(ctx, ev)
		default:
			return
		}
	}
}

// deliver is not interrupted by shutdown of the parent; an event taken off
// the buffer gets its full retry budget.
func (q *Queue) deliver(parent context.Context, ev Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), deliveryTimeout)
	defer cancel()

	_, err := retry.Do(ctx, q.retry, retryableSend, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, q.sink.Send(ctx, ev)
	})
	if err != nil {
		metrics.RecordNotification(string(ev.Kind), "failed")
		q.logger.Error("notification delivery failed",
			zap.String("event_id", ev.ID),
			zap.String("kind", string(ev.Kind)),
			zap.String("appointment_id", ev.AppointmentID),
			zap.String("business_id", ev.BusinessID),
			zap.Error(err),
		)
		return
	}
	metrics.RecordNotification(string(ev.Kind), "sent")
}

func retryableSend(err error) bool {
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// Close releases the sink. Call it after Run has returned.
func (q *Queue) Close() error {
	return q.sink.Close()
}
