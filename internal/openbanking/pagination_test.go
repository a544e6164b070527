package openbanking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xzzpig/openbanking-proxy/internal/core/errs"
)

func TestPaginationPolicy_ParseLenient(t *testing.T) {
	policy := PaginationPolicy{DefaultPageSize: 25, MaxPageSize: 100}

	tests := []struct {
		name     string
		page     string
		pageSize string
		want     Pagination
	}{
		{name: "absent", want: Pagination{Page: 1, PageSize: 25}},
		{name: "valid", page: "3", pageSize: "10", want: Pagination{Page: 3, PageSize: 10}},
		{name: "whitespace", page: " 2 ", pageSize: " 5", want: Pagination{Page: 2, PageSize: 5}},
		{name: "non numeric", page: "abc", pageSize: "x", want: Pagination{Page: 1, PageSize: 25}},
		{name: "zero", page: "0", pageSize: "0", want: Pagination{Page: 1, PageSize: 25}},
		{name: "negative", page: "-4", pageSize: "-1", want: Pagination{Page: 1, PageSize: 25}},
		{name: "float", page: "1.5", pageSize: "2.0", want: Pagination{Page: 1, PageSize: 25}},
		{name: "oversized page-size clamped", page: "1", pageSize: "500", want: Pagination{Page: 1, PageSize: 100}},
		{name: "exactly max", pageSize: "100", want: Pagination{Page: 1, PageSize: 100}},
		{name: "overflowing page", page: "99999999999999999999999", want: Pagination{Page: 1, PageSize: 25}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := policy.Parse(tt.page, tt.pageSize)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPaginationPolicy_ParseStrict(t *testing.T) {
	policy := PaginationPolicy{DefaultPageSize: 25, MaxPageSize: 100, Strict: true}

	got, err := policy.Parse("", "")
	require.NoError(t, err)
	assert.Equal(t, Pagination{Page: 1, PageSize: 25}, got)

	got, err = policy.Parse("2", "500")
	require.NoError(t, err)
	assert.Equal(t, Pagination{Page: 2, PageSize: 100}, got, "oversized page-size is clamped even in strict mode")

	for _, bad := range [][2]string{
		{"abc", "10"},
		{"0", "10"},
		{"1", "-5"},
		{"1", "ten"},
	} {
		_, err := policy.Parse(bad[0], bad[1])
		require.Error(t, err, "page=%q page-size=%q", bad[0], bad[1])
		assert.ErrorIs(t, err, errs.ErrInvalidInput)
	}
}
