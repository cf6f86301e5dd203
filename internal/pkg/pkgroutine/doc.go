// Package pkgroutine runs bounded background work.
//
// Manager caps the number of concurrent goroutines, skips work whose context
// is already canceled, recovers panics, and joins returned errors for Wait.
package pkgroutine
