package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	apicontext "github.com/xzzpig/openbanking-proxy/internal/api/context"
	"github.com/xzzpig/openbanking-proxy/internal/core/errs"
	"github.com/xzzpig/openbanking-proxy/internal/openbanking"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appError *AppError
		want     string
	}{
		{
			name:     "bad gateway",
			appError: NewError(http.StatusBadGateway, "upstream down"),
			want:     "502: upstream down",
		},
		{
			name:     "bad request",
			appError: NewError(http.StatusBadRequest, "bad page"),
			want:     "400: bad page",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.appError.Error())
		})
	}
}

func TestNewError_Title(t *testing.T) {
	assert.Equal(t, "Bad Gateway", NewError(http.StatusBadGateway, "").Title)
	assert.Equal(t, "Too Many Requests", NewError(http.StatusTooManyRequests, "").Title)
}

// serveError runs HandleError for err behind the request id and locale middleware.
func serveError(t *testing.T, err error, acceptLanguage string) *httptest.ResponseRecorder {
	t.Helper()
	r := gin.New()
	r.Use(apicontext.RequestIDMiddleware(), apicontext.LocaleMiddleware())
	r.GET("/fail", func(c *gin.Context) {
		HandleError(c, err)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	if acceptLanguage != "" {
		req.Header.Set("Accept-Language", acceptLanguage)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestHandleError_Mapping(t *testing.T) {
	const upstreamURL = "http://upstream.internal:7004/open-banking/personal-loans"

	tests := []struct {
		name      string
		err       error
		wantCode  int
		wantTitle string
		wantMsg   string
	}{
		{
			name:      "unreachable",
			err:       &openbanking.UpstreamError{Kind: openbanking.FailureUnreachable, URL: upstreamURL, Err: errors.New("connection refused")},
			wantCode:  http.StatusBadGateway,
			wantTitle: "Bad Gateway",
			wantMsg:   "The Open Banking upstream service is unreachable",
		},
		{
			name:      "timeout",
			err:       &openbanking.UpstreamError{Kind: openbanking.FailureTimeout, URL: upstreamURL, Err: context.DeadlineExceeded},
			wantCode:  http.StatusBadGateway,
			wantTitle: "Bad Gateway",
			wantMsg:   "The Open Banking upstream service did not respond in time",
		},
		{
			name:      "upstream 404 passes through",
			err:       &openbanking.UpstreamError{Kind: openbanking.FailureStatus, StatusCode: http.StatusNotFound, URL: upstreamURL},
			wantCode:  http.StatusNotFound,
			wantTitle: "Not Found",
			wantMsg:   "The Open Banking upstream service rejected the request with status 404",
		},
		{
			name:      "upstream 422 passes through",
			err:       &openbanking.UpstreamError{Kind: openbanking.FailureStatus, StatusCode: http.StatusUnprocessableEntity, URL: upstreamURL},
			wantCode:  http.StatusUnprocessableEntity,
			wantTitle: "Unprocessable Entity",
			wantMsg:   "The Open Banking upstream service rejected the request with status 422",
		},
		{
			name:      "upstream 500 becomes 502",
			err:       &openbanking.UpstreamError{Kind: openbanking.FailureStatus, StatusCode: http.StatusInternalServerError, URL: upstreamURL},
			wantCode:  http.StatusBadGateway,
			wantTitle: "Bad Gateway",
			wantMsg:   "The Open Banking upstream service failed to process the request",
		},
		{
			name:      "upstream 302 becomes 502",
			err:       &openbanking.UpstreamError{Kind: openbanking.FailureStatus, StatusCode: http.StatusFound, URL: upstreamURL},
			wantCode:  http.StatusBadGateway,
			wantTitle: "Bad Gateway",
			wantMsg:   "The Open Banking upstream service failed to process the request",
		},
		{
			name:      "malformed body",
			err:       &openbanking.UpstreamError{Kind: openbanking.FailureMalformed, URL: upstreamURL},
			wantCode:  http.StatusBadGateway,
			wantTitle: "Bad Gateway",
			wantMsg:   "The Open Banking upstream service returned an invalid response",
		},
		{
			name:      "normalizer rejects body",
			err:       errs.ErrMalformedUpstream,
			wantCode:  http.StatusBadGateway,
			wantTitle: "Bad Gateway",
			wantMsg:   "The Open Banking upstream service returned an invalid response",
		},
		{
			name:      "invalid input",
			err:       fmt.Errorf("%w: page must be a positive integer", errs.ErrInvalidInput),
			wantCode:  http.StatusBadRequest,
			wantTitle: "Bad Request",
			wantMsg:   "Invalid pagination parameters: page and page-size must be positive integers",
		},
		{
			name:      "forbidden origin",
			err:       errs.ErrForbidden,
			wantCode:  http.StatusForbidden,
			wantTitle: "Forbidden",
			wantMsg:   "Cross-origin requests from this origin are not allowed",
		},
		{
			name:      "rate limited",
			err:       errs.ErrRateLimited,
			wantCode:  http.StatusTooManyRequests,
			wantTitle: "Too Many Requests",
			wantMsg:   "Too many requests, please slow down",
		},
		{
			name:      "not found",
			err:       errs.ErrNotFound,
			wantCode:  http.StatusNotFound,
			wantTitle: "Not Found",
			wantMsg:   "The requested endpoint does not exist",
		},
		{
			name:      "unknown error is generic",
			err:       fmt.Errorf("dial %s: boom", upstreamURL),
			wantCode:  http.StatusInternalServerError,
			wantTitle: "Internal Server Error",
			wantMsg:   "An unexpected error occurred",
		},
		{
			name:      "AppError is used as is",
			err:       NewError(http.StatusConflict, "custom"),
			wantCode:  http.StatusConflict,
			wantTitle: "Conflict",
			wantMsg:   "custom",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serveError(t, tt.err, "")

			assert.Equal(t, tt.wantCode, w.Code)
			body := w.Body.Bytes()
			assert.Equal(t, int64(tt.wantCode), gjson.GetBytes(body, "code").Int())
			assert.Equal(t, tt.wantTitle, gjson.GetBytes(body, "error").String())
			assert.Equal(t, tt.wantMsg, gjson.GetBytes(body, "message").String())
			assert.Equal(t, w.Header().Get(apicontext.HeaderRequestID), gjson.GetBytes(body, "requestId").String())
			assert.Equal(t, "en", w.Header().Get("Content-Language"))
			assert.NotContains(t, w.Body.String(), "upstream.internal")
		})
	}
}

func TestHandleError_Localized(t *testing.T) {
	err := &openbanking.UpstreamError{Kind: openbanking.FailureUnreachable, URL: "http://x", Err: errors.New("refused")}

	w := serveError(t, err, "pt-BR,pt;q=0.9")

	require.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "Bad Gateway", gjson.Get(w.Body.String(), "error").String())
	assert.Equal(t, "O serviço Open Banking de origem está inacessível", gjson.Get(w.Body.String(), "message").String())
	assert.Equal(t, "pt-BR", w.Header().Get("Content-Language"))
}

func TestHandleError_DoesNotMutateAppError(t *testing.T) {
	shared := NewError(http.StatusTeapot, "shared")

	serveError(t, shared, "")

	assert.Empty(t, shared.RequestID)
}

func TestNotFoundAndMethodNotAllowed(t *testing.T) {
	r := newTestRouter(&mockFetcher{}, lenient)

	t.Run("unknown route", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/savings-accounts", nil))

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "Not Found", gjson.Get(w.Body.String(), "error").String())
		assert.NotEmpty(t, gjson.Get(w.Body.String(), "message").String())
	})

	t.Run("wrong method", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/personal-loans", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
		assert.Equal(t, "Method Not Allowed", gjson.Get(w.Body.String(), "error").String())
	})
}

func TestRecoveryHandler(t *testing.T) {
	r := newTestRouter(&mockFetcher{}, lenient)
	r.GET("/panic", func(c *gin.Context) {
		panic("secret http://upstream.internal detail")
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error", gjson.Get(w.Body.String(), "error").String())
	assert.Equal(t, "An unexpected error occurred", gjson.Get(w.Body.String(), "message").String())
	assert.NotEmpty(t, gjson.Get(w.Body.String(), "requestId").String())
	assert.NotContains(t, w.Body.String(), "upstream.internal")
	assert.NotContains(t, w.Body.String(), "goroutine")
}
