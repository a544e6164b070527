// Package context provides request scoped values and the middleware that sets them.
package context

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// Gin context keys
const (
	GinContextKeyRequestID = "requestId"
	GinContextKeyLocale    = "locale"
	GinContextKeyLocalizer = "localizer"
)

const maxRequestIDLength = 128

// RequestIDMiddleware reuses a caller supplied X-Request-ID or generates a uuid,
// then echoes it on the response.
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > maxRequestIDLength {
			id = uuid.NewString()
		}
		c.Set(GinContextKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// GetRequestID returns the id set by RequestIDMiddleware, or "".
func GetRequestID(c *gin.Context) string {
	return c.GetString(GinContextKeyRequestID)
}
