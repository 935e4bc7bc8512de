package flaps

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/kbukum/flyio-api/httpclient"
	"github.com/kbukum/flyio-api/machine"
	"github.com/kbukum/flyio-api/validation"
)

// Construction and input errors.
var (
	ErrMissingAppName = errors.New("flaps: missing app name")
	ErrNoMachineID    = errors.New("flaps: no machine id provided")
)

const leaseNotFoundMessage = "lease not found"

// InvalidAppNameError reports an app name that cannot be used in a URL path.
type InvalidAppNameError struct {
	Name string
}

func (e *InvalidAppNameError) Error() string {
	return fmt.Sprintf("flaps: invalid app name %q", e.Name)
}

// InvalidBaseURLError reports a base URL that is not absolute.
type InvalidBaseURLError struct {
	URL string
	Err error
}

func (e *InvalidBaseURLError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("flaps: invalid base url %q", e.URL)
	}
	return fmt.Sprintf("flaps: invalid base url %q: %v", e.URL, e.Err)
}

func (e *InvalidBaseURLError) Unwrap() error { return e.Err }

// TransportError is a connection or timeout failure.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("flaps %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DecodeError reports a 2xx body that could not be decoded.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return "flaps: decode response: " + e.Err.Error() }

func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports a request body that could not be encoded.
type EncodeError struct {
	Err error
}

func (e *EncodeError) Error() string { return "flaps: encode request: " + e.Err.Error() }

func (e *EncodeError) Unwrap() error { return e.Err }

// UnexpectedStatusError is returned for a status that is neither success nor
// a client or server error.
type UnexpectedStatusError struct {
	StatusCode int
}

func (e *UnexpectedStatusError) Error() string {
	return fmt.Sprintf("flaps: unexpected HTTP status code %d", e.StatusCode)
}

// APIError is an error reported by the Machines API.
type APIError struct {
	StatusCode int    `json:"-"`
	RequestID  string `json:"-"`
	// Err is the server's error text.
	Err     string `json:"error"`
	Message string `json:"message,omitempty"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return e.Err
	}
	return e.Err + ": " + e.Message
}

// NotFoundError is a 404 from the API.
type NotFoundError struct {
	APIError
}

func (e *NotFoundError) Error() string { return "not found: " + e.APIError.Error() }

func (e *NotFoundError) Unwrap() error { return &e.APIError }

// DesiredStateNotReachedError is returned when a wait times out server-side.
type DesiredStateNotReachedError struct {
	DesiredState machine.State
	APIError
}

func (e *DesiredStateNotReachedError) Error() string {
	return fmt.Sprintf("timed out waiting for machine to reach desired state '%s'", e.DesiredState)
}

func (e *DesiredStateNotReachedError) Unwrap() error { return &e.APIError }

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e)
}

// IsDesiredStateNotReached reports whether a wait timed out.
func IsDesiredStateNotReached(err error) bool {
	var e *DesiredStateNotReachedError
	return errors.As(err, &e)
}

// IsLeaseNotFound reports whether err says the machine holds no lease.
func IsLeaseNotFound(err error) bool {
	var e *NotFoundError
	return errors.As(err, &e) && e.Message == leaseNotFoundMessage
}

// AsAPIError returns the API error carried by err, if any.
func AsAPIError(err error) (*APIError, bool) {
	var e *APIError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// mapError converts a transport result into the package error taxonomy.
func mapError(c call, resp *httpclient.Response, err error) error {
	var he *httpclient.Error
	if !errors.As(err, &he) {
		return &TransportError{Op: c.op, Err: err}
	}
	switch he.Code {
	case httpclient.ErrCodeEncode:
		return &EncodeError{Err: he.Err}
	case httpclient.ErrCodeDecode:
		return &DecodeError{Err: he.Err}
	case httpclient.ErrCodeTimeout, httpclient.ErrCodeConnection:
		return &TransportError{Op: c.op, Err: err}
	}
	if resp == nil {
		return &TransportError{Op: c.op, Err: err}
	}

	status := resp.StatusCode
	if status < http.StatusBadRequest || status > 599 {
		return &UnexpectedStatusError{StatusCode: status}
	}

	apiErr := parseAPIError(resp)
	switch {
	case c.waitState != "" && status == http.StatusRequestTimeout:
		return &DesiredStateNotReachedError{DesiredState: c.waitState, APIError: apiErr}
	case status == http.StatusNotFound:
		return &NotFoundError{APIError: apiErr}
	}
	return &apiErr
}

func parseAPIError(resp *httpclient.Response) APIError {
	e := APIError{StatusCode: resp.StatusCode, RequestID: resp.RequestID}
	if err := json.Unmarshal(resp.Body, &e); err != nil || e.Err == "" {
		e.Err = fmt.Sprintf("Server returned non-2xx status code %d, raw response: %s", resp.StatusCode, resp.Body)
		e.Message = ""
	}
	return e
}

// errorKind labels err for metrics.
func errorKind(err error) string {
	var (
		dsn *DesiredStateNotReachedError
		nf  *NotFoundError
		api *APIError
		te  *TransportError
		de  *DecodeError
		ee  *EncodeError
		us  *UnexpectedStatusError
	)
	switch {
	case errors.As(err, &dsn):
		return "desired_state_not_reached"
	case errors.As(err, &nf):
		return "not_found"
	case errors.As(err, &api):
		return "api"
	case errors.As(err, &te):
		return "transport"
	case errors.As(err, &de):
		return "decode"
	case errors.As(err, &ee):
		return "encode"
	case errors.As(err, &us):
		return "unexpected_status"
	case validation.IsValidationError(err):
		return "validation"
	}
	return "other"
}
