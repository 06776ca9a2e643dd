package reliability

import (
	"errors"
	"io"
	"net"
)

// IsRetryableHTTPStatus classifies status codes from the generation service
// where a later attempt may succeed. The controller never retries on its own;
// the classification only shapes the error wording shown to the user.
func IsRetryableHTTPStatus(code int) bool {
	switch code {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// IsTransientStreamErr reports whether a mid-stream failure looks like a
// connection problem rather than a service rejection.
func IsTransientStreamErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) {
		return nerr.Timeout()
	}
	return false
}
