package openbanking

import (
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/xzzpig/openbanking-proxy/internal/core/errs"
)

// Links are absolute urls pointing back at the proxy route.
type Links struct {
	Self  string  `json:"self"`
	First string  `json:"first"`
	Prev  *string `json:"prev"`
	Next  *string `json:"next"`
	Last  string  `json:"last"`
}

// Meta carries the pagination totals.
type Meta struct {
	TotalRecords    int    `json:"totalRecords"`
	TotalPages      int    `json:"totalPages"`
	RequestDateTime string `json:"requestDateTime,omitempty"`
}

// Envelope is the response body of every resource route.
type Envelope struct {
	Data  json.RawMessage `json:"data"`
	Links Links           `json:"links"`
	Meta  Meta            `json:"meta"`
}

// Normalize wraps an upstream body into an Envelope.
//
// data is the upstream "data" member, or the whole body when there is none.
// totalRecords is upstream meta.totalRecords when numeric, otherwise the size of data.
// linkBase is the absolute url of the proxy route without a query string.
func Normalize(body []byte, p Pagination, linkBase string) (*Envelope, error) {
	if !gjson.ValidBytes(body) {
		return nil, errs.ErrMalformedUpstream
	}

	data := gjson.GetBytes(body, "data")
	if !data.Exists() {
		data = gjson.ParseBytes(body)
	}

	total := countRecords(data)
	if tr := gjson.GetBytes(body, "meta.totalRecords"); tr.Type == gjson.Number && tr.Int() >= 0 {
		total = int(tr.Int())
	}

	totalPages := TotalPages(total, p.PageSize)

	env := &Envelope{
		Data: json.RawMessage(data.Raw),
		Meta: Meta{
			TotalRecords:    total,
			TotalPages:      totalPages,
			RequestDateTime: gjson.GetBytes(body, "meta.requestDateTime").String(),
		},
		Links: Links{
			Self:  pageLink(linkBase, p.Page, p.PageSize),
			First: pageLink(linkBase, 1, p.PageSize),
			Last:  pageLink(linkBase, totalPages, p.PageSize),
		},
	}
	if p.Page > 1 {
		prev := pageLink(linkBase, p.Page-1, p.PageSize)
		env.Links.Prev = &prev
	}
	if p.Page < totalPages {
		next := pageLink(linkBase, p.Page+1, p.PageSize)
		env.Links.Next = &next
	}
	return env, nil
}

// TotalPages is ceil(totalRecords / pageSize), never less than 1.
func TotalPages(totalRecords, pageSize int) int {
	if pageSize < 1 || totalRecords <= 0 {
		return 1
	}
	// totalRecords comes from upstream and may be close to MaxInt; avoid total+size-1
	pages := totalRecords / pageSize
	if totalRecords%pageSize != 0 {
		pages++
	}
	return pages
}

func countRecords(data gjson.Result) int {
	switch {
	case data.IsArray():
		return len(data.Array())
	case data.Type == gjson.Null:
		return 0
	default:
		return 1
	}
}

func pageLink(base string, page, size int) string {
	q := url.Values{}
	q.Set(QueryPage, strconv.Itoa(page))
	q.Set(QueryPageSize, strconv.Itoa(size))
	return base + "?" + q.Encode()
}
