package event

import (
	"context"
	"errors"
	"sync"

	"github.com/shandysiswandi/chemviz/internal/equipment/entity"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgmetrics"
)

var ErrBusClosed = errors.New("event bus is closed")

const busName = "dataset_stored"

// Bus is a buffered in-process queue of DatasetStoredEvent. Publish blocks
// while the buffer is full until ctx is done.
type Bus struct {
	mu     sync.RWMutex
	closed bool
	ch     chan entity.DatasetStoredEvent
}

func NewBus(buffer int) *Bus {
	return &Bus{ch: make(chan entity.DatasetStoredEvent, max(buffer, 1))}
}

func (b *Bus) Publish(ctx context.Context, event entity.DatasetStoredEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}

	select {
	case b.ch <- event:
		b.reportDepth()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Subscribe returns the receive side shared by every consumer worker. It is
// closed by Close once the buffered events are drained.
func (b *Bus) Subscribe() <-chan entity.DatasetStoredEvent {
	return b.ch
}

// Depth is the number of events waiting to be consumed.
func (b *Bus) Depth() int {
	return len(b.ch)
}

func (b *Bus) reportDepth() {
	pkgmetrics.SetEventQueueDepth(busName, len(b.ch))
}

func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	b.closed = true
	close(b.ch)
}
