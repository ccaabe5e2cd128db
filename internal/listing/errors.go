package listing

import "errors"

var (
	// ErrUnknownDimension is returned for a dimension tag outside department, course and year.
	ErrUnknownDimension = errors.New("unknown filter dimension")
	// ErrTransport covers requests that never produced a usable response.
	ErrTransport = errors.New("filter request failed")
	// ErrMalformedResponse covers responses that are not a JSON array of cards.
	ErrMalformedResponse = errors.New("malformed filter response")
)

// FailureKind names the failure category for diagnostics.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMalformedResponse):
		return "malformed"
	case errors.Is(err, ErrTransport):
		return "transport"
	default:
		return "unknown"
	}
}
