package report

import (
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgcache"
	"github.com/shandysiswandi/chemviz/internal/pkg/pkgmetrics"
)

// Cache holds rendered reports keyed by dataset ID. Datasets are immutable,
// so an entry never goes stale and only needs evicting for space.
type Cache struct {
	lru *pkgcache.LRU[string, []byte]
}

func NewCache(capacity int) *Cache {
	lru := pkgcache.NewLRU[string, []byte](capacity)
	lru.OnEvict(func(string, []byte) { pkgmetrics.RecordReportCacheEviction() })

	return &Cache{lru: lru}
}

func (c *Cache) Get(datasetID string) ([]byte, bool) {
	return c.lru.Get(datasetID)
}

func (c *Cache) Add(datasetID string, pdf []byte) {
	c.lru.Add(datasetID, pdf)
	pkgmetrics.SetReportCacheEntries(c.lru.Len())
}

func (c *Cache) Contains(datasetID string) bool {
	return c.lru.Contains(datasetID)
}
