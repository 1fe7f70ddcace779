package genai

import (
	"errors"
	"fmt"
)

// ErrEmptyOutput means the upstream accepted the request but returned no
// usable text. Callers must not treat this as success; the gateway
// substitutes a safe default reply.
var ErrEmptyOutput = errors.New("generation returned no output")

// TransportError covers network failures and timeouts: nothing reached the
// upstream, or the response never arrived.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("generation transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UpstreamError means the upstream rejected the request (bad key, provider
// rate limit, malformed payload).
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("generation rejected upstream: status %d", e.StatusCode)
	}
	return fmt.Sprintf("generation rejected upstream: status %d: %s", e.StatusCode, e.Message)
}
