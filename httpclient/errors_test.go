package httpclient

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	e := ClassifyStatusCode(404, nil)
	want := "httpclient: not_found (HTTP 404): HTTP 404"
	if got := e.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	e2 := NewConnectionError(errors.New("connection refused"))
	want2 := "httpclient: connection: connection refused"
	if got := e2.Error(); got != want2 {
		t.Errorf("got %q, want %q", got, want2)
	}
}

func TestError_Unwrap(t *testing.T) {
	inner := errors.New("unexpected EOF")
	err := fmt.Errorf("get machine: %w", NewDecodeError(inner))
	if !errors.Is(err, inner) {
		t.Error("expected wrapped error to reach the cause")
	}
	if e := NewDecodeError(inner); e.Message != "decode response: unexpected EOF" {
		t.Errorf("unexpected message %q", e.Message)
	}
}

func TestClassifyStatusCode(t *testing.T) {
	tests := []struct {
		code    int
		wantNil bool
		errCode ErrorCode
		retry   bool
	}{
		{200, true, "", false},
		{201, true, "", false},
		{204, true, "", false},
		{101, false, ErrCodeServer, false},
		{302, false, ErrCodeServer, false},
		{400, false, ErrCodeValidation, false},
		{401, false, ErrCodeAuth, false},
		{403, false, ErrCodeAuth, false},
		{404, false, ErrCodeNotFound, false},
		{408, false, ErrCodeValidation, false},
		{412, false, ErrCodeValidation, false},
		{429, false, ErrCodeRateLimit, true},
		{500, false, ErrCodeServer, true},
		{502, false, ErrCodeServer, true},
		{503, false, ErrCodeServer, true},
	}
	for _, tt := range tests {
		e := ClassifyStatusCode(tt.code, []byte("body"))
		if tt.wantNil {
			if e != nil {
				t.Errorf("ClassifyStatusCode(%d): expected nil, got %v", tt.code, e)
			}
			continue
		}
		if e == nil {
			t.Errorf("ClassifyStatusCode(%d): expected error, got nil", tt.code)
			continue
		}
		if e.Code != tt.errCode {
			t.Errorf("ClassifyStatusCode(%d): code = %v, want %v", tt.code, e.Code, tt.errCode)
		}
		if e.Retryable != tt.retry {
			t.Errorf("ClassifyStatusCode(%d): retryable = %v, want %v", tt.code, e.Retryable, tt.retry)
		}
		if string(e.Body) != "body" {
			t.Errorf("ClassifyStatusCode(%d): body not kept", tt.code)
		}
	}
}

func TestIsHelpers(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		is        func(error) bool
		retryable bool
	}{
		{"timeout", NewTimeoutError(errors.New("timed out")), IsTimeout, true},
		{"connection", NewConnectionError(errors.New("refused")), IsConnection, true},
		{"auth", ClassifyStatusCode(401, nil), IsAuth, false},
		{"not found", ClassifyStatusCode(404, nil), IsNotFound, false},
		{"rate limit", ClassifyStatusCode(429, nil), IsRateLimit, true},
		{"server", ClassifyStatusCode(500, nil), IsServerError, true},
		{"encode", NewEncodeError(errors.New("unsupported type")), IsEncode, false},
		{"decode", NewDecodeError(errors.New("unexpected end of JSON input")), IsDecode, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("op: %w", tt.err)
			if !tt.is(wrapped) {
				t.Errorf("predicate did not match %v", tt.err)
			}
			if IsRetryable(wrapped) != tt.retryable {
				t.Errorf("IsRetryable = %v, want %v", !tt.retryable, tt.retryable)
			}
		})
	}

	if IsRetryable(NewValidationError("bad")) || HasCode(errors.New("plain"), ErrCodeServer) {
		t.Error("unexpected classification")
	}
}
