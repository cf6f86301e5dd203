package app

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/shandysiswandi/chemviz/internal/equipment/store"
	"github.com/shandysiswandi/chemviz/internal/equipment/usecase"
)

func (a *App) initResources() {
	backend, err := a.openStore()
	if err != nil {
		slog.Error("failed to init storage", "driver", a.config.GetString("storage.driver"), "error", err)
		os.Exit(1)
	}

	cfg := store.DefaultBreakerConfig("equipment-store")
	if n := a.config.GetInt("storage.breaker.max_failures"); n > 0 {
		cfg.FailureThreshold = uint32(n)
	}
	if d := a.config.GetDuration("storage.breaker.open_timeout"); d > 0 {
		cfg.Timeout = d
	}

	a.store = store.NewBreakerStore(backend, cfg)
}

func (a *App) openStore() (usecase.Store, error) {
	driver := a.config.GetString("storage.driver")
	if driver == "" {
		driver = store.DriverMemory
	}

	switch driver {
	case store.DriverMemory:
		return store.NewInMemoryStore(a.uuid), nil

	case store.DriverBadger:
		db, err := store.OpenBadger(a.config.GetString("storage.badger.path"))
		if err != nil {
			return nil, err
		}
		bs, err := store.NewBadgerStore(db, a.uuid)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		a.addCloser("Badger", func(context.Context) error {
			return errors.Join(bs.Close(), db.Close())
		})
		return bs, nil

	case store.DriverPostgres:
		ctx, cancel := context.WithTimeout(a.ctx, 10*time.Second)
		defer cancel()

		pool, err := store.NewPostgresPool(ctx, a.config.GetString("storage.postgres.dsn"))
		if err != nil {
			return nil, err
		}
		ps := store.NewPostgresStore(pool, a.uuid)
		if err := ps.Migrate(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		a.addCloser("Postgres", func(context.Context) error {
			pool.Close()
			return nil
		})
		return ps, nil

	case store.DriverRedis:
		client, err := store.NewRedisClient(
			a.config.GetString("storage.redis.addr"),
			a.config.GetString("storage.redis.password"),
			int(a.config.GetInt("storage.redis.db")),
		)
		if err != nil {
			return nil, err
		}
		a.addCloser("Redis", func(context.Context) error {
			return client.Close()
		})
		return store.NewRedisStore(client, a.uuid, a.config.GetString("storage.redis.prefix")), nil
	}

	return nil, errors.New("unknown storage driver " + driver)
}
