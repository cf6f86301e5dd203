package pkgconfig

import "time"

// Config is the read-only view of application configuration used by the
// application and its modules.
type Config interface {
	GetInt(key string) int64
	GetBool(key string) bool
	GetFloat(key string) float64
	GetString(key string) string
	GetBinary(key string) ([]byte, error)
	GetArray(key string) []string
	GetMap(key string) map[string]string
	GetDuration(key string) time.Duration
	Close() error
}
