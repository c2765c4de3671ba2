package notification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/nekogravitycat/appointment-booking-backend/internal/pkg/retry"
)

func testPolicy() retry.Policy {
	return retry.Policy{Attempts: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
}

func event(id string) Event {
	return Event{ID: id, Kind: KindCreated, AppointmentID: "a-" + id, Channel: ChannelSMS}
}

func TestQueueDelivers(t *testing.T) {
	sent := make(chan struct{})
	sink := &mockSink{}
	sink.On("Send", mock.Anything, event("1")).Return(nil).Once().Run(func(mock.Arguments) {
		close(sent)
	})

	q := NewQueue(sink, zap.NewNop(), QueueConfig{Buffer: 4, Workers: 2, Retry: testPolicy()})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		q.Run(ctx)
		close(done)
	}()

	q.Dispatch(context.Background(), event("1"))

	select {
	case <-sent:
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}

	cancel()
	<-done
	sink.AssertExpectations(t)
}

func TestQueueRetriesThenGivesUp(t *testing.T) {
	sink := &mockSink{}
	sink.On("Send", mock.Anything, event("1")).Return(errors.New("broker down")).Times(3)

	q := NewQueue(sink, zap.NewNop(), QueueConfig{Buffer: 1, Workers: 1, Retry: testPolicy()})
	q.Dispatch(context.Background(), event("1"))

	// A cancelled context only leaves the final flush, which still delivers.
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.Run(ctx)

	sink.AssertNumberOfCalls(t, "Send", 3)
}

func TestQueueRecoversAfterTransientFailure(t *testing.T) {
	sink := &mockSink{}
	sink.On("Send", mock.Anything, event("1")).Return(errors.New("leader not available")).Once()
	sink.On("Send", mock.Anything, event("1")).Return(nil).Once()

	q := NewQueue(sink, zap.NewNop(), QueueConfig{Buffer: 1, Workers: 1, Retry: testPolicy()})
	q.Dispatch(context.Background(), event("1"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.Run(ctx)

	sink.AssertExpectations(t)
	sink.AssertNumberOfCalls(t, "Send", 2)
}

func TestQueueDropsWhenFull(t *testing.T) {
	sink := &mockSink{}
	sink.On("Send", mock.Anything, event("1")).Return(nil).Once()

	q := NewQueue(sink, zap.NewNop(), QueueConfig{Buffer: 1, Workers: 1, Retry: testPolicy()})

	// Nothing is consuming yet; the second event does not fit and Dispatch must not block.
	q.Dispatch(context.Background(), event("1"))
	q.Dispatch(context.Background(), event("2"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.Run(ctx)

	sink.AssertExpectations(t)
	sink.AssertNumberOfCalls(t, "Send", 1)
}

func TestQueueDropsAfterRunReturned(t *testing.T) {
	sink := &mockSink{}
	core, logs := observer.New(zapcore.ErrorLevel)

	q := NewQueue(sink, zap.New(core), QueueConfig{Buffer: 4, Workers: 1, Retry: testPolicy()})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q.Run(ctx)

	// A handler finishing after shutdown must not park its event in the buffer.
	q.Dispatch(context.Background(), event("late"))

	assert.Len(t, q.events, 0)
	sink.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)

	dropped := logs.FilterMessage("notification queue stopped, dropping event").All()
	if assert.Len(t, dropped, 1) {
		assert.Equal(t, "late", dropped[0].ContextMap()["event_id"])
	}
}

func TestQueueClose(t *testing.T) {
	sink := &mockSink{}
	sink.On("Close").Return(nil)

	q := NewQueue(sink, zap.NewNop(), QueueConfig{})
	assert.NoError(t, q.Close())
	sink.AssertExpectations(t)
}

func TestSplitBrokers(t *testing.T) {
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, SplitBrokers(" k1:9092, ,k2:9092 "))
	assert.Empty(t, SplitBrokers(""))
}
