// Package ports defines the interfaces the API layer depends on, so handlers can be
// exercised against fakes instead of a live upstream.
package ports

import (
	"context"

	"github.com/xzzpig/openbanking-proxy/internal/openbanking"
)

// Fetcher retrieves one page of an upstream collection.
type Fetcher interface {
	Fetch(ctx context.Context, path string, p openbanking.Pagination) (*openbanking.Payload, error)
}

var _ Fetcher = (*openbanking.Client)(nil)
