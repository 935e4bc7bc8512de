// Package httpclient provides a configurable HTTP client with built-in
// authentication, retries of idempotent requests, rate limiting, request ids
// and OpenTelemetry instrumentation.
//
// Requests go over a pooled HTTP/2-capable transport, or over a Unix domain
// socket when Config.SocketPath is set. Non-2xx responses come back together
// with a classified *Error so callers can inspect the body.
//
// # Basic Usage
//
//	client, err := httpclient.New(httpclient.Config{
//	    BaseURL: "https://api.machines.dev/v1/apps/my-app/machines",
//	    Timeout: 30 * time.Second,
//	    Auth:    httpclient.FlyAuth(token),
//	    Retry:   httpclient.DefaultRetryConfig(),
//	})
//
//	m, resp, err := httpclient.DoJSON[Machine](ctx, client, httpclient.Request{
//	    Method: http.MethodGet,
//	    Path:   "148ed726c15789",
//	})
package httpclient
