package errs

import "errors"

// Sentinel errors for the domain layer.
// Lower layers (upstream client, pagination parser) wrap these so that the API layer can
// pick a status code with errors.Is without knowing where the failure came from.

var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when the input provided is invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSystem is returned when an unexpected system error occurs.
	ErrSystem = errors.New("system error")

	// ErrForbidden is returned when a request is refused by policy, e.g. a disallowed CORS origin.
	ErrForbidden = errors.New("forbidden")

	// ErrRateLimited is returned when a client exceeds the configured request rate.
	ErrRateLimited = errors.New("rate limited")

	// ErrUpstreamUnreachable is returned when the upstream could not be reached or timed out.
	ErrUpstreamUnreachable = errors.New("upstream unreachable")

	// ErrUpstreamClient is returned when the upstream answered with a 4xx status.
	ErrUpstreamClient = errors.New("upstream client error")

	// ErrUpstreamServer is returned when the upstream answered with any other non-2xx status.
	ErrUpstreamServer = errors.New("upstream server error")

	// ErrMalformedUpstream is returned when the upstream body is not valid JSON.
	ErrMalformedUpstream = errors.New("malformed upstream body")
)
