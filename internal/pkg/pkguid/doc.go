// Package pkguid provides helpers for generating unique identifiers.
//
// The codebase uses these interfaces to avoid hard-coding a specific UID
// strategy:
//   - String IDs (UUIDv7) for datasets, correlation IDs and CSRF tokens.
//   - Numeric IDs (Snowflake) for session token identifiers.
package pkguid
