// Package api provides HTTP API routes and server setup.
package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/xzzpig/openbanking-proxy/internal/api/handlers"
	"github.com/xzzpig/openbanking-proxy/internal/core/config"
	"github.com/xzzpig/openbanking-proxy/internal/core/logger"
	"github.com/xzzpig/openbanking-proxy/internal/core/ports"
	"github.com/xzzpig/openbanking-proxy/internal/openbanking"
)

// RouterDeps contains all dependencies required for setting up API routes.
type RouterDeps struct {
	Fetcher ports.Fetcher
	Config  *config.Config
	Links   handlers.LinkBuilder
}

// routesLog returns a named logger for the api.routes package.
func routesLog() *zap.Logger {
	return logger.Named("api.routes")
}

// PaginationPolicy derives the request pagination policy from cfg.
func PaginationPolicy(cfg *config.Config) openbanking.PaginationPolicy {
	return openbanking.PaginationPolicy{
		DefaultPageSize: cfg.Pagination.DefaultPageSize,
		MaxPageSize:     cfg.Pagination.MaxPageSize,
		Strict:          cfg.Pagination.Strict,
	}
}

// RegisterAPIRoutes registers the endpoint listing and one GET route per resource
// on an engine-level router; paths already carry the /api/v1 prefix.
func RegisterAPIRoutes(router gin.IRoutes, deps RouterDeps) {
	resources := openbanking.Resources()
	policy := PaginationPolicy(deps.Config)

	router.GET(handlers.EndpointsPath, handlers.NewEndpointsHandler(resources).List)

	for _, res := range resources {
		h := handlers.NewResourceHandler(deps.Fetcher, policy, deps.Links, res)
		router.GET(res.RoutePath(), h.Get)
		routesLog().Debug("Registered resource route",
			zap.String("route", res.RoutePath()),
			zap.String("upstream", res.UpstreamPath))
	}
}
