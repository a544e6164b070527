package i18n

// Error message keys
const (
	ErrGeneric             = "error_generic"
	ErrNotFound            = "error_not_found"
	ErrMethodNotAllowed    = "error_method_not_allowed"
	ErrInvalidPagination   = "error_invalid_pagination"
	ErrRateLimited         = "error_rate_limited"
	ErrUpstreamUnreachable = "error_upstream_unreachable"
	ErrUpstreamTimeout     = "error_upstream_timeout"
	ErrUpstreamRejected    = "error_upstream_rejected"
	ErrUpstreamFailed      = "error_upstream_failed"
	ErrUpstreamMalformed   = "error_upstream_malformed"
	ErrOriginNotAllowed    = "error_origin_not_allowed"
)
