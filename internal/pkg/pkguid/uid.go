package pkguid

// StringID generates unique string identifiers.
type StringID interface {
	// Generate generates a unique identifier as a string.
	Generate() string
}

// NumberID generates unique numeric identifiers.
type NumberID interface {
	// Generate generates a unique identifier as an int64 number.
	Generate() int64
}

// Func adapts a plain function to StringID. Handy for deterministic IDs in tests.
type Func func() string

// Generate calls f.
func (f Func) Generate() string {
	return f()
}
