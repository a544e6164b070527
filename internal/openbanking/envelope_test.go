package openbanking

import (
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/xzzpig/openbanking-proxy/internal/core/errs"
)

const testBase = "http://localhost:5000/api/v1/personal-accounts"

func TestTotalPages(t *testing.T) {
	for total := 0; total <= 60; total++ {
		for size := 1; size <= 12; size++ {
			want := int(math.Ceil(float64(total) / float64(size)))
			if want < 1 {
				want = 1
			}
			assert.Equal(t, want, TotalPages(total, size), "total=%d size=%d", total, size)
		}
	}
	assert.Equal(t, 1, TotalPages(10, 0))
}

func TestTotalPages_LargeTotals(t *testing.T) {
	assert.Equal(t, 922337203685477581, TotalPages(math.MaxInt64, 10))
	assert.Equal(t, math.MaxInt64, TotalPages(math.MaxInt64, 1))
	assert.Equal(t, 1, TotalPages(math.MaxInt64, math.MaxInt64))
}

func TestNormalize_HugeUpstreamTotal(t *testing.T) {
	body := []byte(`{"data":[],"meta":{"totalRecords":9223372036854775807}}`)
	env, err := Normalize(body, Pagination{Page: 1, PageSize: 10}, testBase)
	require.NoError(t, err)

	assert.Equal(t, math.MaxInt64, env.Meta.TotalRecords)
	assert.Equal(t, 922337203685477581, env.Meta.TotalPages)
	assert.Nil(t, env.Links.Prev)
	require.NotNil(t, env.Links.Next)
	assert.Equal(t, testBase+"?page=2&page-size=10", *env.Links.Next)
}

func TestNormalize_UsesUpstreamTotals(t *testing.T) {
	body := []byte(`{
		"data": [{"id": 1}, {"id": 2}],
		"links": {"self": "http://upstream/personal-accounts"},
		"meta": {"totalRecords": 45, "totalPages": 99, "requestDateTime": "2024-01-01T00:00:00Z"}
	}`)

	env, err := Normalize(body, Pagination{Page: 2, PageSize: 10}, testBase)
	require.NoError(t, err)

	assert.JSONEq(t, `[{"id": 1}, {"id": 2}]`, string(env.Data))
	assert.Equal(t, 45, env.Meta.TotalRecords)
	assert.Equal(t, 5, env.Meta.TotalPages, "totalPages is recomputed from the effective page size")
	assert.Equal(t, "2024-01-01T00:00:00Z", env.Meta.RequestDateTime)

	assert.Equal(t, testBase+"?page=2&page-size=10", env.Links.Self)
	assert.Equal(t, testBase+"?page=1&page-size=10", env.Links.First)
	assert.Equal(t, testBase+"?page=5&page-size=10", env.Links.Last)
	require.NotNil(t, env.Links.Prev)
	assert.Equal(t, testBase+"?page=1&page-size=10", *env.Links.Prev)
	require.NotNil(t, env.Links.Next)
	assert.Equal(t, testBase+"?page=3&page-size=10", *env.Links.Next)
}

func TestNormalize_CountsCollectionWithoutMeta(t *testing.T) {
	env, err := Normalize([]byte(`{"data": [1, 2, 3]}`), Pagination{Page: 1, PageSize: 2}, testBase)
	require.NoError(t, err)
	assert.Equal(t, 3, env.Meta.TotalRecords)
	assert.Equal(t, 2, env.Meta.TotalPages)
}

func TestNormalize_BareArray(t *testing.T) {
	env, err := Normalize([]byte(`[{"a":1},{"a":2}]`), Pagination{Page: 1, PageSize: 25}, testBase)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"a":1},{"a":2}]`, string(env.Data))
	assert.Equal(t, 2, env.Meta.TotalRecords)
	assert.Equal(t, 1, env.Meta.TotalPages)
}

func TestNormalize_ObjectAndNullData(t *testing.T) {
	env, err := Normalize([]byte(`{"data": {"brand": "x"}}`), Pagination{Page: 1, PageSize: 25}, testBase)
	require.NoError(t, err)
	assert.Equal(t, 1, env.Meta.TotalRecords)

	env, err = Normalize([]byte(`{"data": null}`), Pagination{Page: 1, PageSize: 25}, testBase)
	require.NoError(t, err)
	assert.Equal(t, 0, env.Meta.TotalRecords)
	assert.Equal(t, 1, env.Meta.TotalPages, "zero records still yields one page")
	assert.Equal(t, "null", string(env.Data))
}

func TestNormalize_IgnoresNonNumericTotal(t *testing.T) {
	env, err := Normalize([]byte(`{"data": [1], "meta": {"totalRecords": "lots"}}`), Pagination{Page: 1, PageSize: 25}, testBase)
	require.NoError(t, err)
	assert.Equal(t, 1, env.Meta.TotalRecords)
}

func TestNormalize_Malformed(t *testing.T) {
	_, err := Normalize([]byte(`{"data": [`), Pagination{Page: 1, PageSize: 25}, testBase)
	assert.ErrorIs(t, err, errs.ErrMalformedUpstream)
}

func TestNormalize_PrevNextNullity(t *testing.T) {
	for total := 0; total <= 30; total += 3 {
		for size := 1; size <= 7; size++ {
			pages := TotalPages(total, size)
			for page := 1; page <= pages; page++ {
				body := []byte(fmt.Sprintf(`{"data": [], "meta": {"totalRecords": %d}}`, total))
				env, err := Normalize(body, Pagination{Page: page, PageSize: size}, testBase)
				require.NoError(t, err)

				assert.Equal(t, page == 1, env.Links.Prev == nil, "prev: total=%d size=%d page=%d", total, size, page)
				assert.Equal(t, page == pages, env.Links.Next == nil, "next: total=%d size=%d page=%d", total, size, page)
			}
		}
	}
}

func TestEnvelope_JSONShape(t *testing.T) {
	env, err := Normalize([]byte(`{"data": [1]}`), Pagination{Page: 1, PageSize: 25}, testBase)
	require.NoError(t, err)

	raw, err := json.Marshal(env)
	require.NoError(t, err)

	doc := string(raw)
	assert.True(t, gjson.Get(doc, "links.prev").Exists())
	assert.Equal(t, gjson.Null, gjson.Get(doc, "links.prev").Type)
	assert.Equal(t, gjson.Null, gjson.Get(doc, "links.next").Type)
	assert.Equal(t, int64(1), gjson.Get(doc, "meta.totalRecords").Int())
	assert.False(t, gjson.Get(doc, "meta.requestDateTime").Exists())
}
