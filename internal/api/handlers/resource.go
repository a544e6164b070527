package handlers

import (
	"net/http"
	"net/netip"

	"github.com/gin-gonic/gin"

	"github.com/xzzpig/openbanking-proxy/internal/core/ports"
	"github.com/xzzpig/openbanking-proxy/internal/openbanking"
)

// ResourceHandler serves one proxied collection.
type ResourceHandler struct {
	fetcher  ports.Fetcher
	policy   openbanking.PaginationPolicy
	links    LinkBuilder
	resource openbanking.Resource
}

// NewResourceHandler creates a new ResourceHandler for resource.
func NewResourceHandler(fetcher ports.Fetcher, policy openbanking.PaginationPolicy, links LinkBuilder, resource openbanking.Resource) *ResourceHandler {
	return &ResourceHandler{fetcher: fetcher, policy: policy, links: links, resource: resource}
}

// Get handles GET /api/v1/{resource}.
func (h *ResourceHandler) Get(c *gin.Context) {
	p, err := h.policy.Parse(c.Query(openbanking.QueryPage), c.Query(openbanking.QueryPageSize))
	if err != nil {
		HandleError(c, err)
		return
	}

	payload, err := h.fetcher.Fetch(c.Request.Context(), h.resource.UpstreamPath, p)
	if err != nil {
		HandleError(c, err)
		return
	}

	env, err := openbanking.Normalize(payload.Body, p, h.links.Base(c))
	if err != nil {
		HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, env)
}

// LinkBuilder derives the absolute url used for pagination links.
// X-Forwarded-Proto and X-Forwarded-Host are honoured only when the direct peer is a trusted proxy.
type LinkBuilder struct {
	// PublicBaseURL, when set, replaces scheme and host of the request, e.g. "https://api.example.com".
	PublicBaseURL  string
	TrustedProxies []netip.Prefix
}

// Base is the absolute url of the current request without its query string.
func (b LinkBuilder) Base(c *gin.Context) string {
	if b.PublicBaseURL != "" {
		return b.PublicBaseURL + c.Request.URL.Path
	}

	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	host := c.Request.Host
	if b.fromTrustedProxy(c) {
		if proto := c.GetHeader("X-Forwarded-Proto"); proto == "http" || proto == "https" {
			scheme = proto
		}
		if fwd := c.GetHeader("X-Forwarded-Host"); fwd != "" {
			host = fwd
		}
	}
	return scheme + "://" + host + c.Request.URL.Path
}

func (b LinkBuilder) fromTrustedProxy(c *gin.Context) bool {
	if len(b.TrustedProxies) == 0 {
		return false
	}
	addr, err := netip.ParseAddr(c.RemoteIP())
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, p := range b.TrustedProxies {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}
