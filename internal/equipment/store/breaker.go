package store

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/shandysiswandi/chemviz/internal/equipment/entity"
	"github.com/shandysiswandi/chemviz/internal/equipment/usecase"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgmetrics"
)

var _ usecase.Store = (*BreakerStore)(nil)

type BreakerConfig struct {
	Name             string
	MaxRequests      uint32        // requests allowed while half-open
	Interval         time.Duration // closed-state count reset period
	Timeout          time.Duration // time spent open before probing again
	FailureThreshold uint32        // consecutive failures that open the circuit
}

func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:             name,
		MaxRequests:      3,
		Interval:         30 * time.Second,
		Timeout:          10 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerStore stops calling a failing backend for a while so uploads fail
// fast with a retryable StorageError instead of piling up on timeouts.
type BreakerStore struct {
	next usecase.Store
	cb   *gobreaker.CircuitBreaker[any]
}

func NewBreakerStore(next usecase.Store, cfg BreakerConfig) *BreakerStore {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// Only backend outages count against the circuit.
			var se *entity.StorageError
			return err == nil || !errors.As(err, &se)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("storage circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
			pkgmetrics.SetBreakerState(name, float64(to))
		},
	}

	pkgmetrics.SetBreakerState(cfg.Name, float64(gobreaker.StateClosed))

	return &BreakerStore{next: next, cb: gobreaker.NewCircuitBreaker[any](settings)}
}

// State reports the current breaker state.
func (s *BreakerStore) State() gobreaker.State {
	return s.cb.State()
}

func (s *BreakerStore) Put(ctx context.Context, owner string, nd entity.NewDataset) (entity.Dataset, error) {
	return execute(s.cb, "put", func() (entity.Dataset, error) {
		return s.next.Put(ctx, owner, nd)
	})
}

func (s *BreakerStore) List(ctx context.Context, owner string) ([]entity.Dataset, error) {
	return execute(s.cb, "list", func() ([]entity.Dataset, error) {
		return s.next.List(ctx, owner)
	})
}

func (s *BreakerStore) Latest(ctx context.Context, owner string) (entity.Dataset, error) {
	return execute(s.cb, "latest", func() (entity.Dataset, error) {
		return s.next.Latest(ctx, owner)
	})
}

func execute[T any](cb *gobreaker.CircuitBreaker[any], op string, f func() (T, error)) (T, error) {
	var zero T

	out, err := cb.Execute(func() (any, error) {
		v, err := f()
		return v, err
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return zero, entity.NewStorageError(op, err)
	}
	if err != nil {
		return zero, err
	}

	v, _ := out.(T)
	return v, nil
}
