package httpclient

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode classifies a failed exchange.
type ErrorCode string

const (
	ErrCodeTimeout    ErrorCode = "timeout"
	ErrCodeConnection ErrorCode = "connection"
	ErrCodeAuth       ErrorCode = "auth"
	ErrCodeNotFound   ErrorCode = "not_found"
	ErrCodeRateLimit  ErrorCode = "rate_limit"
	// ErrCodeValidation covers the remaining 4xx statuses and requests that
	// could not be built.
	ErrCodeValidation ErrorCode = "validation"
	// ErrCodeServer covers 5xx and any non-2xx status outside 4xx.
	ErrCodeServer ErrorCode = "server"
	ErrCodeEncode ErrorCode = "encode"
	ErrCodeDecode ErrorCode = "decode"
)

func (c ErrorCode) String() string { return string(c) }

// Error is returned by Client.Do for every failure. StatusCode is zero when no
// response was received.
type Error struct {
	StatusCode int
	Code       ErrorCode
	Message    string
	Retryable  bool
	// Body is the raw response body (may be nil).
	Body []byte
	Err  error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("httpclient: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("httpclient: %s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func wrapError(code ErrorCode, retryable bool, prefix string, err error) *Error {
	msg := err.Error()
	if prefix != "" {
		msg = prefix + ": " + msg
	}
	return &Error{Code: code, Message: msg, Retryable: retryable, Err: err}
}

// NewTimeoutError wraps a deadline or client timeout.
func NewTimeoutError(err error) *Error {
	return wrapError(ErrCodeTimeout, true, "", err)
}

// NewConnectionError wraps a dial, TLS or socket failure.
func NewConnectionError(err error) *Error {
	return wrapError(ErrCodeConnection, true, "", err)
}

// NewEncodeError wraps a request body marshal failure.
func NewEncodeError(err error) *Error {
	return wrapError(ErrCodeEncode, false, "encode body", err)
}

// NewDecodeError wraps a failure to unmarshal a successful response.
func NewDecodeError(err error) *Error {
	return wrapError(ErrCodeDecode, false, "decode response", err)
}

// NewValidationError reports a request that was rejected before sending.
func NewValidationError(msg string) *Error {
	return &Error{Code: ErrCodeValidation, Message: msg}
}

// ClassifyStatusCode returns nil for 2xx statuses and a typed error otherwise.
// Only 429 and 5xx are retryable; 408 falls under validation so that
// long-poll endpoints reporting a server-side deadline are not replayed.
func ClassifyStatusCode(statusCode int, body []byte) *Error {
	if statusCode >= 200 && statusCode < 300 {
		return nil
	}

	e := &Error{
		StatusCode: statusCode,
		Code:       ErrCodeServer,
		Message:    fmt.Sprintf("HTTP %d", statusCode),
		Body:       body,
	}
	switch {
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		e.Code = ErrCodeAuth
	case statusCode == http.StatusNotFound:
		e.Code = ErrCodeNotFound
	case statusCode == http.StatusTooManyRequests:
		e.Code, e.Retryable = ErrCodeRateLimit, true
	case statusCode >= 400 && statusCode < 500:
		e.Code = ErrCodeValidation
	case statusCode >= 500:
		e.Retryable = true
	}
	return e
}

// HasCode reports whether err wraps an *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

func IsTimeout(err error) bool     { return HasCode(err, ErrCodeTimeout) }
func IsConnection(err error) bool  { return HasCode(err, ErrCodeConnection) }
func IsAuth(err error) bool        { return HasCode(err, ErrCodeAuth) }
func IsNotFound(err error) bool    { return HasCode(err, ErrCodeNotFound) }
func IsRateLimit(err error) bool   { return HasCode(err, ErrCodeRateLimit) }
func IsServerError(err error) bool { return HasCode(err, ErrCodeServer) }
func IsEncode(err error) bool      { return HasCode(err, ErrCodeEncode) }
func IsDecode(err error) bool      { return HasCode(err, ErrCodeDecode) }

// IsRetryable reports whether err wraps a retryable *Error.
func IsRetryable(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Retryable
}
