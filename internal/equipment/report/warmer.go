package report

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shandysiswandi/chemviz/internal/equipment/entity"
	"github.com/shandysiswandi/chemviz/internal/equipment/usecase"
)

// Warmer renders each newly stored dataset ahead of the first download.
// It is the handler behind the dataset event consumer.
type Warmer struct {
	renderer usecase.ReportRenderer
	cache    *Cache
}

func NewWarmer(renderer usecase.ReportRenderer, cache *Cache) *Warmer {
	return &Warmer{renderer: renderer, cache: cache}
}

func (w *Warmer) Handle(ctx context.Context, event entity.DatasetStoredEvent) error {
	ds := event.Dataset
	if ds.ID == "" {
		return errors.New("dataset stored event without dataset id")
	}

	if w.cache.Contains(ds.ID) {
		return nil
	}

	pdf, err := w.renderer.Render(&ds)
	if err != nil {
		return err
	}

	w.cache.Add(ds.ID, pdf)
	slog.DebugContext(ctx, "report pre-rendered", "dataset_id", ds.ID, "bytes", len(pdf))

	return nil
}
