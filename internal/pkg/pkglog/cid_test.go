package pkglog

import (
	"context"
	"testing"
)

func TestCorrelationID(t *testing.T) {
	ctx := context.Background()
	if got := GetCorrelationID(ctx); got != "" {
		t.Fatalf("expected no correlation id, got %q", got)
	}

	ctx = SetCorrelationID(ctx, "cid-123")
	if got := GetCorrelationID(ctx); got != "cid-123" {
		t.Fatalf("expected cid-123, got %q", got)
	}

	// a background job derived from a request keeps the id
	child, cancel := context.WithCancel(ctx)
	defer cancel()
	if got := GetCorrelationID(child); got != "cid-123" {
		t.Fatalf("expected cid-123 on derived context, got %q", got)
	}
}
