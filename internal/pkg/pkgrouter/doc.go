// Package pkgrouter wraps HTTP routing and common middleware used by the API.
//
// It provides a small router abstraction over httprouter plus shared concerns
// like JSON encoding, binary attachments, error mapping, logging, metrics,
// recovery, body size limits and correlation ID propagation.
package pkgrouter
