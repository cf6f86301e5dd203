package store

import (
	"context"
	"sync"
	"time"

	"github.com/shandysiswandi/chemviz/internal/equipment/entity"
	"github.com/shandysiswandi/chemviz/internal/equipment/usecase"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgerror"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkguid"
)

var _ usecase.Store = (*InMemoryStore)(nil)

// InMemoryStore keeps every dataset in process memory. Stored values are
// cloned on the way in and out so callers never share slices or maps with it.
type InMemoryStore struct {
	mu     sync.RWMutex
	id     pkguid.StringID
	seq    int64
	owners map[string][]entity.Dataset
}

func NewInMemoryStore(id pkguid.StringID) *InMemoryStore {
	return &InMemoryStore{
		id:     id,
		owners: make(map[string][]entity.Dataset),
	}
}

func (s *InMemoryStore) Put(ctx context.Context, owner string, nd entity.NewDataset) (entity.Dataset, error) {
	defer observe("put", DriverMemory, time.Now())

	if err := ctx.Err(); err != nil {
		return entity.Dataset{}, entity.NewStorageError("put", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	ds := newDataset(s.id.Generate(), owner, s.seq, nd)
	s.owners[owner] = append(s.owners[owner], ds)

	return ds.Clone(), nil
}

func (s *InMemoryStore) List(ctx context.Context, owner string) ([]entity.Dataset, error) {
	defer observe("list", DriverMemory, time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	stored := s.owners[owner]
	out := make([]entity.Dataset, 0, len(stored))
	for _, ds := range stored {
		out = append(out, ds.Clone())
	}
	entity.SortNewestFirst(out)

	return out, nil
}

func (s *InMemoryStore) Latest(ctx context.Context, owner string) (entity.Dataset, error) {
	defer observe("latest", DriverMemory, time.Now())

	s.mu.RLock()
	defer s.mu.RUnlock()

	latest, ok := latestOf(s.owners[owner])
	if !ok {
		return entity.Dataset{}, pkgerror.ErrNotFound
	}

	return latest.Clone(), nil
}
