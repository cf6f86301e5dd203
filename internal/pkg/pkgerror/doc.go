// Package pkgerror defines the structured error returned by use cases and
// rendered by the router.
//
// An Error carries a public message, a type (client or server), a Code that
// maps to an HTTP status, and optional details that are merged into the JSON
// error body (for example missing_columns on a rejected upload).
package pkgerror
