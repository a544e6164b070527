package openbanking

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xzzpig/openbanking-proxy/internal/core/errs"
)

const (
	// QueryPage is the page number query parameter, shared with the upstream.
	QueryPage = "page"
	// QueryPageSize is the page size query parameter, shared with the upstream.
	QueryPageSize = "page-size"
)

// Pagination is a validated page request: Page >= 1, 1 <= PageSize <= max.
type Pagination struct {
	Page     int
	PageSize int
}

// PaginationPolicy holds the configured bounds and the malformed-input policy.
type PaginationPolicy struct {
	DefaultPageSize int
	MaxPageSize     int
	// Strict rejects present-but-malformed values instead of replacing them with defaults.
	Strict bool
}

// Parse turns raw query values into a Pagination.
// Absent values always take the defaults and an oversized page-size is always clamped.
// Non-numeric or non-positive values are replaced by defaults, or rejected with
// errs.ErrInvalidInput when the policy is strict.
func (p PaginationPolicy) Parse(rawPage, rawPageSize string) (Pagination, error) {
	page, err := p.parseValue(QueryPage, rawPage, 1)
	if err != nil {
		return Pagination{}, err
	}
	size, err := p.parseValue(QueryPageSize, rawPageSize, p.DefaultPageSize)
	if err != nil {
		return Pagination{}, err
	}
	if size > p.MaxPageSize {
		size = p.MaxPageSize
	}
	return Pagination{Page: page, PageSize: size}, nil
}

func (p PaginationPolicy) parseValue(name, raw string, fallback int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err == nil && n > 0 {
		return n, nil
	}
	if p.Strict {
		return 0, fmt.Errorf("%w: %s must be a positive integer, got %q", errs.ErrInvalidInput, name, raw)
	}
	return fallback, nil
}
