package openbanking

import (
	"fmt"

	"github.com/xzzpig/openbanking-proxy/internal/core/errs"
)

// FailureKind classifies why an upstream call did not yield usable JSON.
type FailureKind int

const (
	// FailureUnreachable covers dial errors, resets and cancelled requests.
	FailureUnreachable FailureKind = iota
	// FailureTimeout means the configured upstream timeout elapsed.
	FailureTimeout
	// FailureStatus means the upstream answered with a non-2xx status.
	FailureStatus
	// FailureMalformed means a 2xx body that is not valid JSON.
	FailureMalformed
)

func (k FailureKind) String() string {
	switch k {
	case FailureUnreachable:
		return "unreachable"
	case FailureTimeout:
		return "timeout"
	case FailureStatus:
		return "status"
	case FailureMalformed:
		return "malformed"
	default:
		return "unknown"
	}
}

// UpstreamError is returned by Client.Fetch for every failed call.
// It matches one of the errs.ErrUpstream* sentinels with errors.Is.
type UpstreamError struct {
	Kind       FailureKind
	StatusCode int
	URL        string
	Err        error
}

func (e *UpstreamError) Error() string {
	switch e.Kind {
	case FailureStatus:
		return fmt.Sprintf("upstream %s answered %d", e.URL, e.StatusCode)
	case FailureMalformed:
		return fmt.Sprintf("upstream %s returned a non-JSON body", e.URL)
	default:
		return fmt.Sprintf("upstream %s %s: %v", e.URL, e.Kind, e.Err)
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is maps the failure onto the domain taxonomy.
func (e *UpstreamError) Is(target error) bool {
	return target == e.sentinel()
}

func (e *UpstreamError) sentinel() error {
	switch e.Kind {
	case FailureUnreachable, FailureTimeout:
		return errs.ErrUpstreamUnreachable
	case FailureMalformed:
		return errs.ErrMalformedUpstream
	case FailureStatus:
		if e.StatusCode >= 400 && e.StatusCode < 500 {
			return errs.ErrUpstreamClient
		}
		return errs.ErrUpstreamServer
	default:
		return errs.ErrSystem
	}
}
