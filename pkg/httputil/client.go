package httputil

import (
	"net/http"
	"time"

	apperr "github.com/matzehuels/archview/pkg/errors"
)

// DefaultTimeout bounds a single backend request.
const DefaultTimeout = 10 * time.Second

// NewHTTPClient creates an HTTP client with the given timeout.
// A zero timeout uses [DefaultTimeout].
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// CheckStatus maps an HTTP status code to a structured error.
//
//   - 2xx: nil
//   - 404: NOT_FOUND
//   - 401: UNAUTHORIZED, 403: FORBIDDEN
//   - 429: RATE_LIMITED, retryable
//   - 5xx: NETWORK_ERROR, retryable
//   - anything else: NETWORK_ERROR
func CheckStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return apperr.New(apperr.ErrCodeNotFound, "resource not found")
	case code == http.StatusUnauthorized:
		return apperr.New(apperr.ErrCodeUnauthorized, "session rejected (status %d)", code)
	case code == http.StatusForbidden:
		return apperr.New(apperr.ErrCodeForbidden, "access denied (status %d)", code)
	case code == http.StatusTooManyRequests:
		return Retryable(apperr.New(apperr.ErrCodeRateLimited, "rate limited"))
	case code >= 500:
		return Retryable(apperr.New(apperr.ErrCodeNetwork, "backend error: status %d", code))
	default:
		return apperr.New(apperr.ErrCodeNetwork, "unexpected status %d", code)
	}
}

// TransportError wraps a failed round trip as a retryable NETWORK_ERROR.
func TransportError(err error) error {
	return Retryable(apperr.Wrap(apperr.ErrCodeNetwork, err, "request failed"))
}
