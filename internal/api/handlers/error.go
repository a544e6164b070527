package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apicontext "github.com/xzzpig/openbanking-proxy/internal/api/context"
	"github.com/xzzpig/openbanking-proxy/internal/core/errs"
	"github.com/xzzpig/openbanking-proxy/internal/core/logger"
	"github.com/xzzpig/openbanking-proxy/internal/i18n"
	"github.com/xzzpig/openbanking-proxy/internal/openbanking"
)

// AppError is the JSON body of every failed request.
type AppError struct {
	Code      int    `json:"code"`
	Title     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	return fmt.Sprintf("%d: %s", e.Code, e.Message)
}

// NewError creates an AppError titled with the status text of code.
func NewError(code int, message string) *AppError {
	return &AppError{
		Code:    code,
		Title:   http.StatusText(code),
		Message: message,
	}
}

// NewLocalizedError creates an AppError whose message is msgID translated for the request.
func NewLocalizedError(c *gin.Context, code int, msgID string, data map[string]interface{}) *AppError {
	return NewError(code, i18n.TWithData(apicontext.GetLocalizer(c), msgID, data))
}

func errorLog() *zap.Logger {
	return logger.Named("api.handlers.error")
}

// HandleError translates err into a status code and an AppError body, then aborts the request.
// Internal details (upstream urls, wrapped causes) go to the log only.
func HandleError(c *gin.Context, err error) {
	appErr := translateError(c, err)
	appErr.RequestID = apicontext.GetRequestID(c)

	fields := []zap.Field{
		zap.Int("status", appErr.Code),
		zap.String("path", c.Request.URL.Path),
		zap.String("requestId", appErr.RequestID),
		zap.Error(err),
	}
	switch {
	case appErr.Code >= http.StatusInternalServerError:
		errorLog().Error("request failed", fields...)
	case appErr.Code == http.StatusNotFound || appErr.Code == http.StatusMethodNotAllowed:
		errorLog().Debug("request failed", fields...)
	default:
		errorLog().Warn("request failed", fields...)
	}

	c.Header("Content-Language", apicontext.GetLocale(c))
	c.AbortWithStatusJSON(appErr.Code, appErr)
}

func translateError(c *gin.Context, err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		cp := *appErr
		return &cp
	}

	switch {
	case errors.Is(err, errs.ErrInvalidInput):
		return NewLocalizedError(c, http.StatusBadRequest, i18n.ErrInvalidPagination, nil)
	case errors.Is(err, errs.ErrForbidden):
		return NewLocalizedError(c, http.StatusForbidden, i18n.ErrOriginNotAllowed, nil)
	case errors.Is(err, errs.ErrRateLimited):
		return NewLocalizedError(c, http.StatusTooManyRequests, i18n.ErrRateLimited, nil)
	case errors.Is(err, errs.ErrNotFound):
		return NewLocalizedError(c, http.StatusNotFound, i18n.ErrNotFound, nil)
	case errors.Is(err, errs.ErrUpstreamUnreachable):
		msgID := i18n.ErrUpstreamUnreachable
		var upErr *openbanking.UpstreamError
		if errors.As(err, &upErr) && upErr.Kind == openbanking.FailureTimeout {
			msgID = i18n.ErrUpstreamTimeout
		}
		return NewLocalizedError(c, http.StatusBadGateway, msgID, nil)
	case errors.Is(err, errs.ErrUpstreamClient):
		// 上游 4xx 原样透传状态码
		var upErr *openbanking.UpstreamError
		if !errors.As(err, &upErr) {
			return NewLocalizedError(c, http.StatusBadGateway, i18n.ErrUpstreamFailed, nil)
		}
		return NewLocalizedError(c, upErr.StatusCode, i18n.ErrUpstreamRejected,
			map[string]interface{}{"Status": upErr.StatusCode})
	case errors.Is(err, errs.ErrUpstreamServer):
		return NewLocalizedError(c, http.StatusBadGateway, i18n.ErrUpstreamFailed, nil)
	case errors.Is(err, errs.ErrMalformedUpstream):
		return NewLocalizedError(c, http.StatusBadGateway, i18n.ErrUpstreamMalformed, nil)
	default:
		return NewLocalizedError(c, http.StatusInternalServerError, i18n.ErrGeneric, nil)
	}
}

// NotFoundHandler handles 404 errors
func NotFoundHandler(c *gin.Context) {
	HandleError(c, NewLocalizedError(c, http.StatusNotFound, i18n.ErrNotFound, nil))
}

// MethodNotAllowedHandler handles 405 errors
func MethodNotAllowedHandler(c *gin.Context) {
	HandleError(c, NewLocalizedError(c, http.StatusMethodNotAllowed, i18n.ErrMethodNotAllowed, nil))
}

// RecoveryHandler turns a recovered panic into a generic 500; use with gin.CustomRecoveryWithWriter.
func RecoveryHandler(c *gin.Context, recovered any) {
	errorLog().Error("panic recovered",
		zap.Any("panic", recovered),
		zap.String("requestId", apicontext.GetRequestID(c)),
		zap.Stack("stack"),
	)
	HandleError(c, fmt.Errorf("%w: panic: %v", errs.ErrSystem, recovered))
}
