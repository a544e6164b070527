package openbanking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/xzzpig/openbanking-proxy/internal/core/logger"
	"github.com/xzzpig/openbanking-proxy/internal/metrics"
)

// maxBodyBytes caps how much of an upstream body is buffered.
const maxBodyBytes = 16 << 20

// Payload is a successful upstream response.
type Payload struct {
	StatusCode int
	Body       json.RawMessage
}

// Client performs single, unretried GETs against the upstream mock.
type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client (its Timeout is left untouched).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a Client for baseURL. timeout bounds every call.
func NewClient(baseURL string, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		timeout:    timeout,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func clientLog() *zap.Logger {
	return logger.Named("openbanking.client")
}

// Fetch requests one page of path. Failures are always *UpstreamError.
func (c *Client) Fetch(ctx context.Context, path string, p Pagination) (*Payload, error) {
	target := c.buildURL(path, p)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	payload, err := c.do(ctx, target)
	elapsed := time.Since(start)

	outcome := "ok"
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		outcome = upErr.Kind.String()
	}
	metrics.ObserveUpstream(path, outcome, elapsed)

	if err != nil {
		clientLog().Warn("Upstream request failed",
			zap.String("url", target),
			zap.String("outcome", outcome),
			zap.Duration("latency", elapsed),
			zap.Error(err))
		return nil, err
	}

	clientLog().Debug("Upstream request succeeded",
		zap.String("url", target),
		zap.Int("status", payload.StatusCode),
		zap.Int("bytes", len(payload.Body)),
		zap.Duration("latency", elapsed))
	return payload, nil
}

func (c *Client) do(ctx context.Context, target string) (*Payload, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &UpstreamError{Kind: FailureUnreachable, URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Kind: classifyTransportError(err), URL: target, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &UpstreamError{Kind: classifyTransportError(err), URL: target, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{
			Kind:       FailureStatus,
			StatusCode: resp.StatusCode,
			URL:        target,
			Err:        fmt.Errorf("status %s", resp.Status),
		}
	}
	if !json.Valid(body) {
		return nil, &UpstreamError{
			Kind:       FailureMalformed,
			StatusCode: resp.StatusCode,
			URL:        target,
			Err:        errors.New("invalid JSON"),
		}
	}

	return &Payload{StatusCode: resp.StatusCode, Body: body}, nil
}

func (c *Client) buildURL(path string, p Pagination) string {
	q := url.Values{}
	q.Set(QueryPage, strconv.Itoa(p.Page))
	q.Set(QueryPageSize, strconv.Itoa(p.PageSize))
	return c.baseURL + path + "?" + q.Encode()
}

func classifyTransportError(err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FailureTimeout
	}
	return FailureUnreachable
}
