package httpclient

import (
	"context"
	"net/http"

	"github.com/goccy/go-json"
)

// Request describes an outbound HTTP request.
type Request struct {
	// Method is the HTTP method (GET, POST, PUT, PATCH, DELETE, etc).
	Method string
	// Path is appended to the client's BaseURL. Can be a full URL if BaseURL is empty.
	Path string
	// Headers are request-specific headers (merged with client defaults).
	Headers map[string]string
	// Query are URL query parameters.
	Query map[string]string
	// Body is the request body. Accepts io.Reader, []byte, string, or any value
	// that will be JSON-encoded.
	Body any
	// Auth overrides the client-level auth for this request.
	Auth *AuthConfig
}

// Response is the result of an HTTP request.
type Response struct {
	// StatusCode is the HTTP status code.
	StatusCode int
	// Headers are the response headers.
	Headers map[string]string
	// Body is the raw response body.
	Body []byte
	// RequestID is the server-assigned request id, if the response carried one.
	RequestID string
}

// Header returns the value of a response header.
func (r *Response) Header(key string) string {
	return r.Headers[http.CanonicalHeaderKey(key)]
}

// IsSuccess returns true if the status code is 2xx.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsError returns true if the status code is 4xx or 5xx.
func (r *Response) IsError() bool {
	return r.StatusCode >= 400
}

// DoJSON executes req and decodes a 2xx JSON body into T. An empty body leaves
// T at its zero value. On failure the response is still returned when one was
// received.
func DoJSON[T any](ctx context.Context, c *Client, req Request) (T, *Response, error) {
	var data T
	resp, err := c.Do(ctx, req)
	if err != nil {
		return data, resp, err
	}
	if len(resp.Body) > 0 {
		if err := json.Unmarshal(resp.Body, &data); err != nil {
			return data, resp, NewDecodeError(err)
		}
	}
	return data, resp, nil
}
