package api

import (
	"io"
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apicontext "github.com/xzzpig/openbanking-proxy/internal/api/context"
	"github.com/xzzpig/openbanking-proxy/internal/api/handlers"
	"github.com/xzzpig/openbanking-proxy/internal/core/config"
	"github.com/xzzpig/openbanking-proxy/internal/core/logger"
	"github.com/xzzpig/openbanking-proxy/internal/core/ports"
	"github.com/xzzpig/openbanking-proxy/internal/metrics"
)

// SetupRouter builds the gin engine serving the proxy.
func SetupRouter(cfg *config.Config, fetcher ports.Fetcher) *gin.Engine {
	switch cfg.App.Environment {
	case string(logger.EnvironmentDevelopment):
		gin.SetMode(gin.DebugMode)
	case string(logger.EnvironmentTesting):
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true

	if err := r.SetTrustedProxies(cfg.TrustedProxyList()); err != nil {
		logger.Named("api").Warn("ignoring trusted proxies", zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}

	// Middleware
	r.Use(apicontext.RequestIDMiddleware())
	r.Use(apicontext.LocaleMiddleware())
	r.Use(ginLogger(logger.Named("api.access")))
	r.Use(gin.CustomRecoveryWithWriter(io.Discard, handlers.RecoveryHandler))
	r.Use(metricsMiddleware())
	if origins := cfg.AllowedOrigins(); !allowsAnyOrigin(origins) {
		r.Use(originGuard(origins))
	}
	r.Use(cors.New(corsConfig(cfg)))

	// Health check and metrics are not rate limited
	r.GET("/health", handlers.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	if cfg.RateLimit.RPS > 0 {
		r.Use(rateLimitMiddleware(newLimiterPool(cfg.RateLimit.RPS, cfg.RateLimit.Burst)))
	}

	RegisterAPIRoutes(r, RouterDeps{Fetcher: fetcher, Config: cfg, Links: linkBuilder(cfg)})

	r.NoRoute(handlers.NotFoundHandler)
	r.NoMethod(handlers.MethodNotAllowedHandler)

	return r
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Accept-Language", apicontext.HeaderRequestID},
		ExposeHeaders: []string{"Content-Length", apicontext.HeaderRequestID},
		MaxAge:        12 * time.Hour,
	}
	origins := cfg.AllowedOrigins()
	if allowsAnyOrigin(origins) {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	return c
}

func allowsAnyOrigin(origins []string) bool {
	return slices.Contains(origins, "*")
}

func linkBuilder(cfg *config.Config) handlers.LinkBuilder {
	return handlers.LinkBuilder{
		PublicBaseURL:  cfg.Server.PublicURL,
		TrustedProxies: cfg.TrustedProxyPrefixes(),
	}
}
