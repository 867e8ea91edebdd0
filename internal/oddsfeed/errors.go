package oddsfeed

import (
	"errors"
	"fmt"
)

// Error codes carried by FeedError.
const (
	ErrCodeRateLimitExceeded    = "rate_limit_exceeded"
	ErrCodeAuthenticationFailed = "authentication_failed"
	ErrCodeNotFound             = "not_found"
	ErrCodeInvalidData          = "invalid_data"
	ErrCodeNetworkError         = "network_error"
	ErrCodeServerError          = "server_error"
	ErrCodeUnknown              = "unknown"
)

// ErrCircuitOpen is returned while the HTTP circuit breaker rejects requests.
var ErrCircuitOpen = errors.New("circuit breaker open")

// FeedError represents a failure retrieving or decoding a market.
type FeedError struct {
	Source  string // feed name or file path
	Code    string // one of the ErrCode constants
	Message string
	Err     error
}

func (e *FeedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s (%v)", e.Source, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", e.Source, e.Code, e.Message)
}

func (e *FeedError) Unwrap() error {
	return e.Err
}

// NewFeedError creates a new feed error.
func NewFeedError(source, code, message string, err error) *FeedError {
	return &FeedError{
		Source:  source,
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Code extracts the feed error code from err, or ErrCodeUnknown.
func Code(err error) string {
	var fe *FeedError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ErrCodeUnknown
}
