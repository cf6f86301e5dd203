package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shandysiswandi/chemviz/internal/equipment/entity"
	"github.com/shandysiswandi/chemviz/internal/equipment/usecase"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgerror"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkguid"
)

var _ usecase.Store = (*RedisStore)(nil)

const (
	defaultRedisDialTimeout  = 5 * time.Second
	defaultRedisReadTimeout  = 3 * time.Second
	defaultRedisWriteTimeout = 3 * time.Second
	defaultRedisKeyPrefix    = "chemviz"
)

// NewRedisClient returns a configured go-redis client and validates the connection with PING.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil, errors.New("redis: addr is empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  defaultRedisDialTimeout,
		ReadTimeout:  defaultRedisReadTimeout,
		WriteTimeout: defaultRedisWriteTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), defaultRedisDialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return client, nil
}

// RedisStore keeps each dataset as a JSON string and indexes it per owner in
// a sorted set scored by its sequence number.
type RedisStore struct {
	client redis.UniversalClient
	id     pkguid.StringID
	prefix string
}

func NewRedisStore(client redis.UniversalClient, id pkguid.StringID, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisKeyPrefix
	}
	return &RedisStore{client: client, id: id, prefix: prefix}
}

func (s *RedisStore) seqKey() string {
	return s.prefix + ":datasets:seq"
}

func (s *RedisStore) datasetKey(id string) string {
	return s.prefix + ":dataset:" + id
}

func (s *RedisStore) ownerKey(owner string) string {
	return fmt.Sprintf("%s:owner:%s:datasets", s.prefix, url.PathEscape(owner))
}

func (s *RedisStore) Put(ctx context.Context, owner string, nd entity.NewDataset) (entity.Dataset, error) {
	defer observe("put", DriverRedis, time.Now())

	seq, err := s.client.Incr(ctx, s.seqKey()).Result()
	if err != nil {
		return entity.Dataset{}, entity.NewStorageError("put", err)
	}

	ds := newDataset(s.id.Generate(), owner, seq, nd)
	data, err := encodeDataset(ds)
	if err != nil {
		return entity.Dataset{}, fmt.Errorf("encode dataset: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.datasetKey(ds.ID), data, 0)
		pipe.ZAdd(ctx, s.ownerKey(owner), redis.Z{Score: float64(seq), Member: ds.ID})
		return nil
	})
	if err != nil {
		return entity.Dataset{}, entity.NewStorageError("put", err)
	}

	return ds, nil
}

func (s *RedisStore) List(ctx context.Context, owner string) ([]entity.Dataset, error) {
	defer observe("list", DriverRedis, time.Now())

	list, err := s.load(ctx, owner)
	if err != nil {
		return nil, err
	}
	entity.SortNewestFirst(list)

	return list, nil
}

func (s *RedisStore) Latest(ctx context.Context, owner string) (entity.Dataset, error) {
	defer observe("latest", DriverRedis, time.Now())

	list, err := s.load(ctx, owner)
	if err != nil {
		return entity.Dataset{}, err
	}

	latest, ok := latestOf(list)
	if !ok {
		return entity.Dataset{}, pkgerror.ErrNotFound
	}

	return latest, nil
}

func (s *RedisStore) load(ctx context.Context, owner string) ([]entity.Dataset, error) {
	ids, err := s.client.ZRange(ctx, s.ownerKey(owner), 0, -1).Result()
	if err != nil {
		return nil, entity.NewStorageError("list", err)
	}
	if len(ids) == 0 {
		return []entity.Dataset{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.datasetKey(id)
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, entity.NewStorageError("list", err)
	}

	out := make([]entity.Dataset, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			return nil, entity.NewStorageError("list", fmt.Errorf("dataset %s is indexed but missing", ids[i]))
		}
		ds, err := decodeDataset([]byte(raw))
		if err != nil {
			return nil, entity.NewStorageError("list", fmt.Errorf("decode dataset %s: %w", ids[i], err))
		}
		out = append(out, ds)
	}

	return out, nil
}
