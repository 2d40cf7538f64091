package models

import "fmt"

// Error codes used in API responses and internal error handling.
const (
	ErrCodeInvalidDomain    = "INVALID_DOMAIN"
	ErrCodeRobotsDisallowed = "ROBOTS_DISALLOWED"
	ErrCodeTimeout          = "FETCH_TIMEOUT"
	ErrCodeNavigation       = "NAVIGATION_FAILED"
	ErrCodeBrowserCrash     = "BROWSER_CRASH"
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DiscoveryError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type DiscoveryError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *DiscoveryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// NewDiscoveryError creates a new DiscoveryError.
func NewDiscoveryError(code, message string, err error) *DiscoveryError {
	return &DiscoveryError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *DiscoveryError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}
