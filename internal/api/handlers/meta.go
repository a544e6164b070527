package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/xzzpig/openbanking-proxy/internal/openbanking"
	"github.com/xzzpig/openbanking-proxy/internal/version"
)

// EndpointsPath lists the proxy routes.
const EndpointsPath = openbanking.APIPrefix + "/endpoints"

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// Health handles GET /health. It never touches the upstream.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Service: version.ServiceName,
		Version: version.Version,
	})
}

// EndpointInfo describes one listed route.
type EndpointInfo struct {
	Path        string   `json:"path"`
	Method      string   `json:"method"`
	Description string   `json:"description"`
	Parameters  []string `json:"parameters"`
}

// EndpointsResponse is the body of GET /api/v1/endpoints.
type EndpointsResponse struct {
	Service   string         `json:"service"`
	Version   string         `json:"version"`
	Endpoints []EndpointInfo `json:"endpoints"`
}

// ListEndpoints builds the listing for resources plus the listing route itself.
// Upstream paths are not listed.
func ListEndpoints(resources []openbanking.Resource) EndpointsResponse {
	out := EndpointsResponse{
		Service:   version.ServiceName,
		Version:   version.Version,
		Endpoints: make([]EndpointInfo, 0, len(resources)+1),
	}
	for _, r := range resources {
		out.Endpoints = append(out.Endpoints, EndpointInfo{
			Path:        r.RoutePath(),
			Method:      r.Method,
			Description: r.Description,
			Parameters:  []string{openbanking.QueryPage, openbanking.QueryPageSize},
		})
	}
	out.Endpoints = append(out.Endpoints, EndpointInfo{
		Path:        EndpointsPath,
		Method:      http.MethodGet,
		Description: "List available endpoints",
		Parameters:  []string{},
	})
	return out
}

// EndpointsHandler serves a precomputed endpoint listing.
type EndpointsHandler struct {
	listing EndpointsResponse
}

// NewEndpointsHandler creates a new EndpointsHandler for resources.
func NewEndpointsHandler(resources []openbanking.Resource) *EndpointsHandler {
	return &EndpointsHandler{listing: ListEndpoints(resources)}
}

// List handles GET /api/v1/endpoints.
func (h *EndpointsHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, h.listing)
}
