package httpclient

import (
	"context"
	"net"
	"net/http"
	"time"

	cleanhttp "github.com/hashicorp/go-cleanhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/http2"
)

const (
	http2ReadIdleTimeout = 30 * time.Second
	http2PingTimeout     = 15 * time.Second
)

// NewHTTPSTransport returns a pooled transport with HTTP/2 enabled. Idle
// HTTP/2 connections are health-checked with pings so dead connections are
// dropped instead of hanging requests.
func NewHTTPSTransport() (*http.Transport, error) {
	t := cleanhttp.DefaultPooledTransport()
	h2, err := http2.ConfigureTransports(t)
	if err != nil {
		return nil, err
	}
	h2.ReadIdleTimeout = http2ReadIdleTimeout
	h2.PingTimeout = http2PingTimeout
	return t, nil
}

// NewUnixTransport returns a pooled transport that dials socketPath for every
// request regardless of the request host.
func NewUnixTransport(socketPath string) *http.Transport {
	t := cleanhttp.DefaultPooledTransport()
	t.Proxy = nil
	t.DialContext = func(ctx context.Context, _, _ string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "unix", socketPath)
	}
	return t
}

// instrument wraps rt with otelhttp client spans and metrics. Nil providers
// fall back to the global ones.
func instrument(rt http.RoundTripper, tp trace.TracerProvider, mp metric.MeterProvider) http.RoundTripper {
	opts := []otelhttp.Option{
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return "HTTP " + r.Method
		}),
	}
	if tp != nil {
		opts = append(opts, otelhttp.WithTracerProvider(tp))
	}
	if mp != nil {
		opts = append(opts, otelhttp.WithMeterProvider(mp))
	}
	return otelhttp.NewTransport(rt, opts...)
}
