package telegram

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"voicebot/internal/services"
)

// APIError is a failure reported by the Bot API.
type APIError struct {
	Method      string
	Code        int
	Description string
	RetryAfter  time.Duration
}

func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("telegram %s: %d %s (retry after %s)", e.Method, e.Code, e.Description, e.RetryAfter)
	}
	return fmt.Sprintf("telegram %s: %d %s", e.Method, e.Code, e.Description)
}

// Unwrap maps the API code onto the shared error markers.
func (e *APIError) Unwrap() error {
	switch {
	case e.Code == http.StatusTooManyRequests:
		return services.ErrRateLimited
	case e.Code == http.StatusUnauthorized:
		return services.ErrUnauthorized
	case e.Code == http.StatusNotFound:
		return services.ErrNotFound
	case e.Code == http.StatusBadRequest || e.Code == http.StatusForbidden:
		return services.ErrValidation
	case e.Code >= http.StatusInternalServerError:
		return services.ErrTransient
	default:
		return nil
	}
}

// RetryAfter reports the cooldown requested by a rate-limit error.
func RetryAfter(err error) (time.Duration, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
		return apiErr.RetryAfter, true
	}
	return 0, false
}

// IsRateLimited reports whether err is a 429 from the Bot API.
func IsRateLimited(err error) bool {
	_, ok := RetryAfter(err)
	return ok
}
