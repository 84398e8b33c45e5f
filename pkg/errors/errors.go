package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents different types of errors that can occur
type ErrorType string

const (
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error represents a remote API error with type information.
// Code carries the HTTP status or, when negative, the Bilibili business code.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// New creates a typed error
func New(t ErrorType, message string, code int) *Error {
	return &Error{Type: t, Message: message, Code: code}
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	case ErrorTypeAuth, ErrorTypeNotFound, ErrorTypeParsing:
		return false
	default:
		return false
	}
}

// TypeOf extracts the ErrorType from err, or ErrorTypeUnknown for plain errors
func TypeOf(err error) ErrorType {
	var apiErr *Error
	if stderrors.As(err, &apiErr) {
		return apiErr.Type
	}
	return ErrorTypeUnknown
}

// IsRateLimited reports whether err is a rate-limit classified error
func IsRateLimited(err error) bool {
	return TypeOf(err) == ErrorTypeRateLimit
}

// IsNotFound reports whether err indicates the resource is gone upstream
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

// IsTransient reports whether err is a short-lived network fault
// (disconnects, timeouts) worth an immediate bounded retry.
func IsTransient(err error) bool {
	return TypeOf(err) == ErrorTypeNetwork
}

// FromBilibiliCode maps a Bilibili business code (the "code" field of the
// response envelope) onto the error taxonomy.
func FromBilibiliCode(code int, message string) *Error {
	var t ErrorType
	switch code {
	case -412:
		// 请求被拦截: the anti-crawl gateway is throttling us
		t = ErrorTypeRateLimit
	case -404, 62002, 62004:
		// resource deleted or hidden upstream
		t = ErrorTypeNotFound
	case -101, -102, -401, 61001:
		t = ErrorTypeAuth
	case -400, -409:
		t = ErrorTypeParsing
	case -500, -502, -503, -504, -509:
		t = ErrorTypeServerError
	default:
		t = ErrorTypeUnknown
	}
	if message == "" {
		message = "bilibili api error"
	}
	return &Error{Type: t, Message: message, Code: code}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 412, 429: // Throttled
		return true
	case 500, 502, 503, 504: // Server errors
		return true
	case 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500 // Retry all 5xx errors
	}
}
