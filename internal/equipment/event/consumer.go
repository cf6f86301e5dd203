package event

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shandysiswandi/chemviz/internal/equipment/entity"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgcache"
)

type Handler interface {
	Handle(ctx context.Context, event entity.DatasetStoredEvent) error
}

type ConsumerConfig struct {
	Workers     int
	MaxRetries  int
	BaseBackoff time.Duration
	DedupSize   int // how many recent event IDs are remembered
}

// DatasetConsumer fans dataset events out to a fixed pool of workers. Failed
// handler calls are retried with exponential backoff; events seen recently
// (by ID) are skipped.
type DatasetConsumer struct {
	bus         *Bus
	handler     Handler
	workers     int
	maxRetries  int
	baseBackoff time.Duration
	seen        *pkgcache.LRU[string, struct{}]
	wg          sync.WaitGroup
	startOnce   sync.Once
}

func NewDatasetConsumer(bus *Bus, handler Handler, cfg ConsumerConfig) *DatasetConsumer {
	workers := cfg.Workers
	if workers < 1 {
		workers = 4
	}

	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}

	baseBackoff := cfg.BaseBackoff
	if baseBackoff <= 0 {
		baseBackoff = 100 * time.Millisecond
	}

	dedup := cfg.DedupSize
	if dedup <= 0 {
		dedup = 1024
	}

	return &DatasetConsumer{
		bus:         bus,
		handler:     handler,
		workers:     workers,
		maxRetries:  maxRetries,
		baseBackoff: baseBackoff,
		seen:        pkgcache.NewLRU[string, struct{}](dedup),
	}
}

// Start launches the workers. ctx is handed to the handler and cuts retry
// backoff short once canceled.
func (c *DatasetConsumer) Start(ctx context.Context) {
	c.startOnce.Do(func() {
		for range c.workers {
			c.wg.Add(1)
			go c.worker(ctx)
		}
	})
}

// Stop closes the bus and waits for in-flight events to finish.
func (c *DatasetConsumer) Stop(ctx context.Context) error {
	if c.bus != nil {
		c.bus.Close()
	}

	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *DatasetConsumer) worker(ctx context.Context) {
	defer c.wg.Done()

	for event := range c.bus.Subscribe() {
		c.bus.reportDepth()
		c.processEvent(ctx, event)
	}
}

func (c *DatasetConsumer) processEvent(ctx context.Context, event entity.DatasetStoredEvent) {
	if c.handler == nil {
		return
	}

	if event.EventID != "" && !c.seen.AddIfAbsent(event.EventID, struct{}{}) {
		slog.Info("skip duplicate dataset event", "event_id", event.EventID, "dataset_id", event.Dataset.ID)
		return
	}

	backoff := c.baseBackoff
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		err := c.handler.Handle(ctx, event)
		if err == nil {
			return
		}

		if attempt == c.maxRetries {
			slog.Error("failed to handle dataset event after retries",
				"event_id", event.EventID,
				"dataset_id", event.Dataset.ID,
				"attempts", attempt+1,
				"error", err,
			)
			return
		}

		slog.Warn("dataset event handler failed, retrying", "event_id", event.EventID, "attempt", attempt+1, "error", err)
		if !sleepBackoff(ctx, backoff) {
			return
		}
		backoff *= 2
	}
}

func sleepBackoff(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return false
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
