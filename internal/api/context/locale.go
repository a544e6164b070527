package context

import (
	"github.com/gin-gonic/gin"
	"github.com/nicksnyder/go-i18n/v2/i18n"
	i18npkg "github.com/xzzpig/openbanking-proxy/internal/i18n"
)

// LocaleMiddleware parses Accept-Language header and stores Localizer in both contexts
func LocaleMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := c.GetHeader("Accept-Language")
		locale := i18npkg.ParseLocale(lang)
		localizer := i18npkg.NewLocalizer(locale)

		c.Set(GinContextKeyLocale, locale)
		c.Set(GinContextKeyLocalizer, localizer)

		// 通过修改 c.Request 的 Context 来传递到下游
		ctx := c.Request.Context()
		ctx = i18npkg.WithLocalizer(ctx, localizer)
		ctx = i18npkg.WithLocale(ctx, locale)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetLocalizer retrieves the Localizer from Gin context
func GetLocalizer(c *gin.Context) *i18n.Localizer {
	if localizer, exists := c.Get(GinContextKeyLocalizer); exists {
		if l, ok := localizer.(*i18n.Localizer); ok {
			return l
		}
	}
	// Fallback: try to get from request context
	return i18npkg.LocalizerFromContext(c.Request.Context())
}

// GetLocale returns the locale chosen by LocaleMiddleware, or "en".
func GetLocale(c *gin.Context) string {
	if locale := c.GetString(GinContextKeyLocale); locale != "" {
		return locale
	}
	return i18npkg.LocaleFromContext(c.Request.Context())
}
