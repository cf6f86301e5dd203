package store

import (
	"time"

	"github.com/shandysiswandi/chemviz/internal/pkg/pkgmetrics"
)

const (
	DriverMemory   = "memory"
	DriverBadger   = "badger"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
)

func observe(operation, driver string, start time.Time) {
	pkgmetrics.RecordStorageOperation(operation, driver, time.Since(start))
}
