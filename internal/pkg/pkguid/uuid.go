package pkguid

import "github.com/google/uuid"

// UUID generates RFC 9562 version 7 UUID strings. V7 values sort by creation
// time, which keeps storage keys roughly insertion ordered.
type UUID struct{}

// NewUUID returns a UUID generator.
func NewUUID() *UUID {
	return &UUID{}
}

// Generate returns a new UUID string.
func (u *UUID) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// IsUUID reports whether s is a well-formed UUID string.
func IsUUID(s string) bool {
	return uuid.Validate(s) == nil
}
