package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/flyio-api/logger"
	"github.com/kbukum/flyio-api/resilience"
)

// Client is a configurable HTTP client with built-in auth, retries and rate
// limiting.
type Client struct {
	httpClient *http.Client
	transport  http.RoundTripper
	config     Config
	rl         *resilience.RateLimiter
	log        *logger.Logger
	tp         trace.TracerProvider
	mp         metric.MeterProvider
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. Requests are logged at debug level.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithHTTPClient uses hc as-is. No transport is built and no instrumentation
// is added.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTransport replaces the default transport. It is still instrumented.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.transport = rt }
}

// WithTracerProvider sets the provider for client spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(c *Client) { c.tp = tp }
}

// WithMeterProvider sets the provider for client metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(c *Client) { c.mp = mp }
}

// New creates a new HTTP client with the given configuration.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{config: cfg}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.GetGlobalLogger()
	}
	c.log = c.log.WithComponent("httpclient")

	if c.httpClient == nil {
		base := c.transport
		if base == nil {
			if cfg.SocketPath != "" {
				base = NewUnixTransport(cfg.SocketPath)
			} else {
				t, err := NewHTTPSTransport()
				if err != nil {
					return nil, fmt.Errorf("httpclient: configure transport: %w", err)
				}
				base = t
			}
		}
		c.httpClient = &http.Client{
			Transport: instrument(base, c.tp, c.mp),
			Timeout:   cfg.Timeout,
			// 3xx responses are surfaced to the caller.
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		}
	}

	if cfg.RateLimiter != nil {
		c.rl = resilience.NewRateLimiter(*cfg.RateLimiter)
	}

	return c, nil
}

// Do executes an HTTP request and returns the complete response. Responses
// with a non-2xx status are returned together with a classified *Error.
// Idempotent requests are retried when the client has a retry policy.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if c.config.Retry == nil || !isIdempotent(req.Method) {
		return c.doOnce(ctx, req)
	}

	cfg := *c.config.Retry
	if cfg.RetryIf == nil {
		cfg.RetryIf = IsRetryable
	}
	cfg.OnRetry = func(attempt int, err error, next time.Duration) {
		c.log.Warn("retrying request", logger.Fields(
			logger.FieldMethod, req.Method,
			logger.FieldPath, req.Path,
			logger.FieldAttempt, attempt,
			logger.FieldError, err.Error(),
			"backoff_ms", next.Milliseconds(),
		))
	}

	var last *Response
	_, err := resilience.Retry(ctx, cfg, func() (*Response, error) {
		resp, err := c.doOnce(ctx, req)
		last = resp
		if err != nil && resp != nil {
			return resp, resilience.RetryAfter(retryAfter(resp), err)
		}
		return resp, err
	})
	var ra *resilience.RetryAfterError
	if errors.As(err, &ra) {
		err = ra.Err
	}
	if err != nil && ctx.Err() != nil {
		return nil, err
	}
	return last, err
}

// Unwrap returns the underlying *http.Client for advanced use cases.
func (c *Client) Unwrap() *http.Client {
	return c.httpClient
}

// doOnce executes a single HTTP request behind the rate limiter.
func (c *Client) doOnce(ctx context.Context, req Request) (*Response, error) {
	if c.rl != nil {
		if err := c.rl.Wait(ctx); err != nil {
			return nil, NewTimeoutError(err)
		}
	}
	return c.executeRequest(ctx, req)
}

// executeRequest builds and sends the HTTP request.
func (c *Client) executeRequest(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Debug("request failed", logger.Fields(
			logger.FieldMethod, req.Method,
			logger.FieldPath, httpReq.URL.Path,
			logger.FieldError, err.Error(),
		))
		if ctx.Err() != nil || isTimeout(err) {
			return nil, NewTimeoutError(err)
		}
		return nil, NewConnectionError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewConnectionError(fmt.Errorf("read response body: %w", err))
	}

	result := &Response{
		StatusCode: resp.StatusCode,
		Headers:    flattenHeaders(resp.Header),
		Body:       body,
		RequestID:  resp.Header.Get(c.config.RequestIDHeader),
	}

	c.log.Debug("request completed", logger.Fields(
		logger.FieldMethod, req.Method,
		logger.FieldPath, httpReq.URL.Path,
		logger.FieldStatus, resp.StatusCode,
		logger.FieldRequestID, result.RequestID,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))

	if classErr := ClassifyStatusCode(resp.StatusCode, body); classErr != nil {
		return result, classErr
	}

	return result, nil
}

// buildRequest constructs an *http.Request from the client config and request.
func (c *Client) buildRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := resolveURL(c.config.BaseURL, req.Path)

	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, NewEncodeError(err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, NewValidationError(fmt.Sprintf("create request: %v", err))
	}

	if len(req.Query) > 0 {
		q := httpReq.URL.Query()
		for k, v := range req.Query {
			q.Set(k, v)
		}
		httpReq.URL.RawQuery = q.Encode()
	}

	for k, v := range c.config.Headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	if c.config.UserAgent != "" && httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", c.config.UserAgent)
	}
	if httpReq.Header.Get(HeaderRequestID) == "" {
		httpReq.Header.Set(HeaderRequestID, uuid.NewString())
	}
	if body != nil && httpReq.Header.Get("Content-Type") == "" && contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	// Request-level auth overrides client-level.
	auth := c.config.Auth
	if req.Auth != nil {
		auth = req.Auth
	}
	auth.apply(httpReq)

	return httpReq, nil
}

// resolveURL joins base and path. Absolute paths bypass the base URL and an
// empty path addresses the base itself.
func resolveURL(base, path string) string {
	if base == "" || strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	base = strings.TrimRight(base, "/")
	if path == "" {
		return base
	}
	return base + "/" + strings.TrimLeft(path, "/")
}

// encodeBody converts a body value into an io.Reader and content type.
func encodeBody(body any) (io.Reader, string, error) {
	if body == nil {
		return nil, "", nil
	}
	switch v := body.(type) {
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case string:
		return strings.NewReader(v), "text/plain", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(data), "application/json", nil
	}
}

// flattenHeaders converts multi-value headers to single-value.
func flattenHeaders(h http.Header) map[string]string {
	result := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) > 0 {
			result[k] = v[0]
		}
	}
	return result
}

func isIdempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete, http.MethodOptions:
		return true
	}
	return false
}

func isTimeout(err error) bool {
	var ue *url.Error
	return errors.As(err, &ue) && ue.Timeout()
}

// retryAfter reads the Retry-After header of 429 and 503 responses, in
// seconds or as an HTTP date.
func retryAfter(resp *Response) time.Duration {
	if resp.StatusCode != http.StatusTooManyRequests && resp.StatusCode != http.StatusServiceUnavailable {
		return 0
	}
	v := resp.Header("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		return time.Until(t)
	}
	return 0
}
