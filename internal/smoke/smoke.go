// Package smoke exercises a running proxy end to end: health, every resource route,
// pagination and the JSON 404.
package smoke

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/xzzpig/openbanking-proxy/internal/core/logger"
	"github.com/xzzpig/openbanking-proxy/internal/openbanking"
)

// ErrProxyUnavailable means /health did not answer 200, so nothing else is checked.
var ErrProxyUnavailable = errors.New("proxy is not running")

// envelopeKeys must be present in every successful resource response.
var envelopeKeys = []string{"data", "links", "meta"}

// Status is the outcome of one check.
type Status int

const (
	StatusPass Status = iota
	StatusFail
	// StatusDegraded is a 502 from the proxy: the proxy works but the upstream does not.
	StatusDegraded
)

func (s Status) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusDegraded:
		return "UPSTREAM UNAVAILABLE"
	default:
		return "FAIL"
	}
}

// Result is one checked url.
type Result struct {
	Name    string
	Status  Status
	Code    int
	Bytes   int
	Latency time.Duration
	Detail  string
}

// Report collects every check of a run.
type Report struct {
	// Upstream is nil unless an upstream url was configured.
	Upstream   *Result
	Health     Result
	Endpoints  []Result
	Pagination Result
	NotFound   Result
}

// Passed reports whether no counted check failed. A degraded result means the proxy
// answered correctly while the upstream was down, so it never fails the run.
// The upstream check is informational.
func (r *Report) Passed() bool {
	for _, res := range r.counted() {
		if res.Status == StatusFail {
			return false
		}
	}
	return true
}

// Degraded counts the checks that hit an unavailable upstream.
func (r *Report) Degraded() int {
	n := 0
	for _, res := range r.counted() {
		if res.Status == StatusDegraded {
			n++
		}
	}
	return n
}

func (r *Report) counted() []Result {
	all := make([]Result, 0, len(r.Endpoints)+3)
	all = append(all, r.Health)
	all = append(all, r.Endpoints...)
	if r.Pagination.Name != "" {
		all = append(all, r.Pagination)
	}
	if r.NotFound.Name != "" {
		all = append(all, r.NotFound)
	}
	return all
}

// Checker runs smoke checks against a proxy at ProxyURL.
type Checker struct {
	ProxyURL    string
	UpstreamURL string
	client      *http.Client
}

// NewChecker creates a Checker. upstreamURL may be empty to skip the upstream check.
func NewChecker(proxyURL, upstreamURL string, timeout time.Duration) *Checker {
	return &Checker{
		ProxyURL:    strings.TrimSuffix(proxyURL, "/"),
		UpstreamURL: strings.TrimSuffix(upstreamURL, "/"),
		client:      &http.Client{Timeout: timeout},
	}
}

func smokeLog() *zap.Logger {
	return logger.Named("smoke")
}

// Run checks the proxy. only restricts the resource checks to one resource name.
func (c *Checker) Run(ctx context.Context, only string) (*Report, error) {
	resources := openbanking.Resources()
	if only != "" {
		res, ok := openbanking.Lookup(only)
		if !ok {
			return nil, fmt.Errorf("unknown resource %q", only)
		}
		resources = []openbanking.Resource{res}
	}

	report := &Report{}
	if c.UpstreamURL != "" {
		up := c.checkUpstream(ctx)
		report.Upstream = &up
	}

	report.Health = c.checkHealth(ctx)
	if report.Health.Status != StatusPass {
		return report, fmt.Errorf("%w: %s", ErrProxyUnavailable, report.Health.Detail)
	}

	for _, res := range resources {
		report.Endpoints = append(report.Endpoints, c.checkResource(ctx, res.Name, res.RoutePath()))
	}
	report.Pagination = c.checkPagination(ctx)
	report.NotFound = c.checkNotFound(ctx)
	return report, nil
}

type response struct {
	code    int
	body    []byte
	latency time.Duration
}

func (c *Checker) get(ctx context.Context, target string) (*response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	smokeLog().Debug("Check finished", zap.String("url", target), zap.Int("status", resp.StatusCode))
	return &response{code: resp.StatusCode, body: body, latency: time.Since(start)}, nil
}

func (c *Checker) check(ctx context.Context, name, target string, judge func(*response, *Result)) Result {
	res := Result{Name: name, Status: StatusFail}
	resp, err := c.get(ctx, target)
	if err != nil {
		res.Detail = err.Error()
		return res
	}
	res.Code = resp.code
	res.Bytes = len(resp.body)
	res.Latency = resp.latency
	judge(resp, &res)
	return res
}

func (c *Checker) checkUpstream(ctx context.Context) Result {
	return c.check(ctx, "upstream", c.UpstreamURL+"/personal-accounts", func(resp *response, res *Result) {
		// any answer means the mock is running
		res.Status = StatusPass
		res.Detail = fmt.Sprintf("HTTP %d", resp.code)
	})
}

func (c *Checker) checkHealth(ctx context.Context) Result {
	return c.check(ctx, "health", c.ProxyURL+"/health", func(resp *response, res *Result) {
		if resp.code != http.StatusOK {
			res.Detail = fmt.Sprintf("HTTP %d", resp.code)
			return
		}
		res.Status = StatusPass
		res.Detail = gjson.GetBytes(resp.body, "service").String()
	})
}

func (c *Checker) checkResource(ctx context.Context, name, path string) Result {
	return c.check(ctx, name, c.ProxyURL+path, func(resp *response, res *Result) {
		switch resp.code {
		case http.StatusOK:
			var missing []string
			for _, key := range envelopeKeys {
				if !gjson.GetBytes(resp.body, key).Exists() {
					missing = append(missing, key)
				}
			}
			if len(missing) > 0 {
				res.Detail = "missing keys " + strings.Join(missing, ", ")
				return
			}
			res.Status = StatusPass
			res.Detail = fmt.Sprintf("%d records", gjson.GetBytes(resp.body, "meta.totalRecords").Int())
		case http.StatusBadGateway:
			res.Status = StatusDegraded
			res.Detail = "upstream unavailable (502)"
		default:
			res.Detail = fmt.Sprintf("HTTP %d", resp.code)
		}
	})
}

func (c *Checker) checkPagination(ctx context.Context) Result {
	target := c.ProxyURL + openbanking.APIPrefix + "/personal-accounts?page=1&page-size=10"
	return c.check(ctx, "pagination", target, func(resp *response, res *Result) {
		switch resp.code {
		case http.StatusOK:
			if !strings.Contains(gjson.GetBytes(resp.body, "links.self").String(), "page-size=10") {
				res.Detail = "links.self does not echo page-size"
				return
			}
			res.Status = StatusPass
			res.Detail = "parameters accepted"
		case http.StatusBadGateway:
			res.Status = StatusDegraded
			res.Detail = "parameters accepted, upstream unavailable (502)"
		default:
			res.Detail = fmt.Sprintf("HTTP %d", resp.code)
		}
	})
}

func (c *Checker) checkNotFound(ctx context.Context) Result {
	return c.check(ctx, "not found", c.ProxyURL+openbanking.APIPrefix+"/nonexistent", func(resp *response, res *Result) {
		if resp.code != http.StatusNotFound {
			res.Detail = fmt.Sprintf("expected 404, got %d", resp.code)
			return
		}
		if !gjson.GetBytes(resp.body, "error").Exists() {
			res.Detail = "404 body is not an error document"
			return
		}
		res.Status = StatusPass
		res.Detail = "404 for invalid endpoint"
	})
}

var (
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

func (s Status) colored() string {
	switch s {
	case StatusPass:
		return green(s.String())
	case StatusDegraded:
		return yellow(s.String())
	default:
		return red(s.String())
	}
}

func writeResult(w io.Writer, r Result) {
	size := "-"
	if r.Code != 0 {
		size = humanize.Bytes(uint64(r.Bytes))
	}
	fmt.Fprintf(w, "  %-40s %-22s %8s %10s  %s\n", r.Name, r.Status.colored(), size, r.Latency.Round(time.Millisecond), r.Detail)
}

// Write prints a human readable report.
func (r *Report) Write(w io.Writer) {
	fmt.Fprintln(w, bold("Connections"))
	if r.Upstream != nil {
		writeResult(w, *r.Upstream)
	}
	writeResult(w, r.Health)

	if len(r.Endpoints) > 0 {
		fmt.Fprintln(w, bold("Endpoints"))
		passed := 0
		for _, e := range r.Endpoints {
			writeResult(w, e)
			if e.Status == StatusPass {
				passed++
			}
		}
		fmt.Fprintf(w, "  %d/%d working\n", passed, len(r.Endpoints))
	}

	if r.Pagination.Name != "" {
		fmt.Fprintln(w, bold("Pagination"))
		writeResult(w, r.Pagination)
	}
	if r.NotFound.Name != "" {
		fmt.Fprintln(w, bold("Error handling"))
		writeResult(w, r.NotFound)
	}

	switch degraded := r.Degraded(); {
	case !r.Passed():
		fmt.Fprintln(w, red("Some checks failed"))
	case degraded > 0:
		fmt.Fprintln(w, yellow(fmt.Sprintf("Proxy checks passed, upstream unavailable for %d", degraded)))
	default:
		fmt.Fprintln(w, green("All checks passed"))
	}
}
