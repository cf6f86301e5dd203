package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/shandysiswandi/chemviz/internal/equipment/entity"
	"github.com/shandysiswandi/chemviz/internal/equipment/usecase"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgerror"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkguid"
)

var _ usecase.Store = (*BadgerStore)(nil)

const (
	badgerDatasetPrefix = "dataset/"
	badgerSeqKey        = "meta/dataset_seq"
	badgerSeqBandwidth  = 100
)

// BadgerStore persists datasets in an embedded BadgerDB. Keys are
// dataset/<escaped owner>/<zero padded seq> so a prefix scan returns one
// owner's datasets in insertion order.
type BadgerStore struct {
	db  *badger.DB
	id  pkguid.StringID
	seq *badger.Sequence

	closeOnce sync.Once
}

// OpenBadger opens (or creates) a BadgerDB at dir. An empty dir keeps the
// database in memory.
func OpenBadger(dir string) (*badger.DB, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}

	return db, nil
}

func NewBadgerStore(db *badger.DB, id pkguid.StringID) (*BadgerStore, error) {
	seq, err := db.GetSequence([]byte(badgerSeqKey), badgerSeqBandwidth)
	if err != nil {
		return nil, fmt.Errorf("badger sequence: %w", err)
	}

	return &BadgerStore{db: db, id: id, seq: seq}, nil
}

func ownerPrefix(owner string) []byte {
	return []byte(badgerDatasetPrefix + url.PathEscape(owner) + "/")
}

func datasetKey(owner string, seq int64) []byte {
	return fmt.Appendf(ownerPrefix(owner), "%020d", seq)
}

func (s *BadgerStore) Put(ctx context.Context, owner string, nd entity.NewDataset) (entity.Dataset, error) {
	defer observe("put", DriverBadger, time.Now())

	if err := ctx.Err(); err != nil {
		return entity.Dataset{}, entity.NewStorageError("put", err)
	}

	next, err := s.seq.Next()
	if err != nil {
		return entity.Dataset{}, entity.NewStorageError("put", err)
	}
	seq := int64(next) + 1

	ds := newDataset(s.id.Generate(), owner, seq, nd)
	data, err := encodeDataset(ds)
	if err != nil {
		return entity.Dataset{}, fmt.Errorf("encode dataset: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(datasetKey(owner, seq), data)
	})
	if err != nil {
		return entity.Dataset{}, entity.NewStorageError("put", err)
	}

	return ds, nil
}

func (s *BadgerStore) List(ctx context.Context, owner string) ([]entity.Dataset, error) {
	defer observe("list", DriverBadger, time.Now())

	list, err := s.scan(ctx, owner)
	if err != nil {
		return nil, err
	}
	entity.SortNewestFirst(list)

	return list, nil
}

func (s *BadgerStore) Latest(ctx context.Context, owner string) (entity.Dataset, error) {
	defer observe("latest", DriverBadger, time.Now())

	list, err := s.scan(ctx, owner)
	if err != nil {
		return entity.Dataset{}, err
	}

	latest, ok := latestOf(list)
	if !ok {
		return entity.Dataset{}, pkgerror.ErrNotFound
	}

	return latest, nil
}

func (s *BadgerStore) scan(ctx context.Context, owner string) ([]entity.Dataset, error) {
	out := []entity.Dataset{}

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = ownerPrefix(owner)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}

			var ds entity.Dataset
			err := it.Item().Value(func(val []byte) error {
				var derr error
				ds, derr = decodeDataset(val)
				return derr
			})
			if err != nil {
				return fmt.Errorf("decode %s: %w", it.Item().Key(), err)
			}
			out = append(out, ds)
		}
		return nil
	})
	if err != nil {
		return nil, entity.NewStorageError("list", err)
	}

	return out, nil
}

// Close releases the sequence lease. The database itself is owned by the caller.
func (s *BadgerStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		err = s.seq.Release()
		if errors.Is(err, badger.ErrDBClosed) {
			err = nil
		}
	})
	return err
}
