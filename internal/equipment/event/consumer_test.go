package event

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shandysiswandi/chemviz/internal/equipment/entity"
)

type handlerFunc func(ctx context.Context, event entity.DatasetStoredEvent) error

func (h handlerFunc) Handle(ctx context.Context, event entity.DatasetStoredEvent) error {
	return h(ctx, event)
}

func TestDatasetConsumerRetriesAndIdempotent(t *testing.T) {
	bus := NewBus(10)

	var attempts int32
	done := make(chan struct{})
	handler := handlerFunc(func(ctx context.Context, event entity.DatasetStoredEvent) error {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			return errors.New("temporary failure")
		}
		select {
		case <-done:
		default:
			close(done)
		}
		return nil
	})

	consumer := NewDatasetConsumer(bus, handler, ConsumerConfig{
		Workers:     1,
		MaxRetries:  2,
		BaseBackoff: time.Millisecond,
	})
	consumer.Start(context.Background())

	event := entity.DatasetStoredEvent{EventID: "evt-1", Dataset: entity.Dataset{ID: "ds-1"}}
	if err := bus.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish event: %v", err)
	}
	if err := bus.Publish(context.Background(), event); err != nil {
		t.Fatalf("publish duplicate: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for handler")
	}

	if err := consumer.Stop(context.Background()); err != nil {
		t.Fatalf("stop consumer: %v", err)
	}

	if got := atomic.LoadInt32(&attempts); got != 3 {
		t.Fatalf("expected 3 attempts, got %d", got)
	}
}

func TestDatasetConsumerGivesUpAfterRetries(t *testing.T) {
	bus := NewBus(1)

	var attempts int32
	consumer := NewDatasetConsumer(bus, handlerFunc(func(ctx context.Context, event entity.DatasetStoredEvent) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("render failed")
	}), ConsumerConfig{Workers: 2, MaxRetries: 1, BaseBackoff: time.Millisecond})
	consumer.Start(context.Background())

	if err := bus.Publish(context.Background(), entity.DatasetStoredEvent{EventID: "evt-2"}); err != nil {
		t.Fatalf("publish event: %v", err)
	}

	if err := consumer.Stop(context.Background()); err != nil {
		t.Fatalf("stop consumer: %v", err)
	}

	if got := atomic.LoadInt32(&attempts); got != 2 {
		t.Fatalf("expected 2 attempts, got %d", got)
	}
}

func TestDatasetConsumerCanceledContextStopsBackoff(t *testing.T) {
	bus := NewBus(1)
	ctx, cancel := context.WithCancel(context.Background())

	var attempts int32
	consumer := NewDatasetConsumer(bus, handlerFunc(func(ctx context.Context, event entity.DatasetStoredEvent) error {
		atomic.AddInt32(&attempts, 1)
		cancel()
		return errors.New("fail")
	}), ConsumerConfig{Workers: 1, MaxRetries: 5, BaseBackoff: time.Hour})
	consumer.Start(ctx)

	if err := bus.Publish(context.Background(), entity.DatasetStoredEvent{EventID: "evt-3"}); err != nil {
		t.Fatalf("publish event: %v", err)
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer stopCancel()
	if err := consumer.Stop(stopCtx); err != nil {
		t.Fatalf("stop consumer: %v", err)
	}

	if got := atomic.LoadInt32(&attempts); got != 1 {
		t.Fatalf("expected 1 attempt, got %d", got)
	}
}

func TestBusPublishAfterClose(t *testing.T) {
	bus := NewBus(1)
	bus.Close()
	bus.Close()

	if err := bus.Publish(context.Background(), entity.DatasetStoredEvent{}); !errors.Is(err, ErrBusClosed) {
		t.Fatalf("expected ErrBusClosed, got %v", err)
	}
}

func TestBusPublishRespectsContext(t *testing.T) {
	bus := NewBus(1)
	if err := bus.Publish(context.Background(), entity.DatasetStoredEvent{}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if got := bus.Depth(); got != 1 {
		t.Fatalf("expected depth 1, got %d", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := bus.Publish(ctx, entity.DatasetStoredEvent{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
