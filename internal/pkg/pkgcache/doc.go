// Package pkgcache provides a small thread-safe LRU cache.
//
// It backs the rendered report cache and the event consumer's
// duplicate detection, both of which need a hard bound on memory.
package pkgcache
