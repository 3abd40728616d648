package models

import "errors"

// Upstream and normalization failure classes. The service layer wraps
// these with context; the HTTP layer maps them to status codes.
var (
	// ErrUpstreamTimeout: the source did not answer within the fetch budget.
	ErrUpstreamTimeout = errors.New("upstream timeout")

	// ErrUpstreamUnavailable: connection failures, 5xx responses, or an
	// exhausted outbound scrape budget.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrUpstreamMalformed: the source answered but the payload is not
	// usable (empty body, non-HTML, truncated).
	ErrUpstreamMalformed = errors.New("upstream malformed response")

	// ErrSymbolNotFound: the source has no company page for the symbol.
	// Never retried and never degraded to a stale value.
	ErrSymbolNotFound = errors.New("symbol not found")

	// ErrNormalization: a required field was absent or unparseable after
	// a successful fetch.
	ErrNormalization = errors.New("normalization failed")
)

// Transient reports whether a failed fetch may be retried.
func Transient(err error) bool {
	return errors.Is(err, ErrUpstreamTimeout) || errors.Is(err, ErrUpstreamUnavailable)
}
