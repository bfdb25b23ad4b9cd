package fetch

import (
	"errors"
	"fmt"
)

// Kind classifies a terminal fetch failure. It is set once, at the point of
// classification, and never reconstructed from error text.
type Kind int

const (
	KindUnknown Kind = iota

	// KindRateLimited: the remote kept answering 429 until the retry
	// budget ran out.
	KindRateLimited

	// KindBadRequest: terminal 4xx (other than 404/403/429); carries the
	// remote status and a truncated body for diagnostics.
	KindBadRequest

	// KindUnavailable: 5xx, network failure or timeout, after the retry
	// budget ran out.
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindRateLimited:
		return "rate_limited"
	case KindBadRequest:
		return "bad_request"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind     Kind
	Status   int    // remote status code, 0 for transport failures
	Body     string // truncated response body, may be empty
	Attempts int
	Err      error // underlying transport error, if any
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("fetch %s after %d attempt(s): %v", e.Kind, e.Attempts, e.Err)
	case e.Body != "":
		return fmt.Sprintf("fetch %s after %d attempt(s): status %d: %s", e.Kind, e.Attempts, e.Status, e.Body)
	default:
		return fmt.Sprintf("fetch %s after %d attempt(s): status %d", e.Kind, e.Attempts, e.Status)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the classification from err, KindUnknown when err is not a
// fetch error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return KindUnknown
}
