package flaps

import (
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/flyio-api/flyenv"
	"github.com/kbukum/flyio-api/httpclient"
	"github.com/kbukum/flyio-api/logger"
	"github.com/kbukum/flyio-api/observability"
	"github.com/kbukum/flyio-api/util"
	"github.com/kbukum/flyio-api/validation"
	"github.com/kbukum/flyio-api/version"
)

// Client talks to the Machines API on behalf of a single app. It is safe for
// concurrent use.
type Client struct {
	http        *httpclient.Client
	appName     string
	appURL      string
	log         *logger.Logger
	tracer      trace.Tracer
	metrics     *observability.Metrics
	concurrency int
}

type options struct {
	log         *logger.Logger
	httpClient  *http.Client
	socketPath  string
	concurrency int
	tp          trace.TracerProvider
	mp          metric.MeterProvider
}

// Option configures a Client.
type Option func(*options)

// WithLogger sets the logger. Requests are logged at debug level.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithHTTPClient sends requests through hc instead of a pooled transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.httpClient = hc }
}

// WithSocketPath overrides the socket NewFromSocket dials.
func WithSocketPath(path string) Option {
	return func(o *options) { o.socketPath = path }
}

// WithConcurrency sets how many machines GetMany fetches at once.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

// WithTracerProvider sets the provider for operation spans.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) { o.tp = tp }
}

// WithMeterProvider sets the provider for operation metrics.
func WithMeterProvider(mp metric.MeterProvider) Option {
	return func(o *options) { o.mp = mp }
}

// New creates a client for the HTTPS Machines API.
func New(settings Settings, opts ...Option) (*Client, error) {
	settings.ApplyDefaults()
	if err := validation.Validate(settings); err != nil {
		return nil, err
	}

	app, err := resolveAppName(settings.AppName)
	if err != nil {
		return nil, err
	}
	baseURL := util.Coalesce(settings.BaseURL, flyenv.FlapsBaseURL())
	appURL, err := machinesURL(baseURL, app)
	if err != nil {
		return nil, err
	}

	auth := httpclient.NoAuth()
	if settings.AuthToken != "" {
		auth = httpclient.FlyAuth(settings.AuthToken)
	}

	o := newOptions(opts)
	cfg := httpclient.Config{
		BaseURL:         appURL,
		Timeout:         settings.Timeout,
		Auth:            auth,
		UserAgent:       util.Coalesce(settings.UserAgent, version.UserAgent(userAgentProduct)),
		Retry:           settings.retryConfig(),
		RateLimiter:     settings.rateLimiterConfig(app),
		RequestIDHeader: headerRequestID,
	}
	return newClient(app, cfg, o)
}

// NewFromSocket creates a client that reaches the API through the Unix socket
// exposed inside Fly machines. No credentials are sent.
func NewFromSocket(appName string, opts ...Option) (*Client, error) {
	app, err := resolveAppName(appName)
	if err != nil {
		return nil, err
	}
	appURL, err := machinesURL(socketBaseURL, app)
	if err != nil {
		return nil, err
	}

	o := newOptions(opts)
	settings := Settings{}
	settings.ApplyDefaults()
	cfg := httpclient.Config{
		BaseURL:         appURL,
		Timeout:         settings.Timeout,
		Auth:            httpclient.NoAuth(),
		UserAgent:       version.UserAgent(unixUserAgentProduct),
		Retry:           settings.retryConfig(),
		RequestIDHeader: headerRequestID,
		SocketPath:      util.Coalesce(o.socketPath, DefaultSocketPath),
	}
	return newClient(app, cfg, o)
}

func newOptions(opts []Option) *options {
	o := &options{concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(o)
	}
	if o.log == nil {
		o.log = logger.GetGlobalLogger()
	}
	if o.concurrency <= 0 {
		o.concurrency = DefaultConcurrency
	}
	return o
}

func newClient(app string, cfg httpclient.Config, o *options) (*Client, error) {
	httpOpts := []httpclient.Option{
		httpclient.WithLogger(o.log),
		httpclient.WithTracerProvider(o.tp),
		httpclient.WithMeterProvider(o.mp),
	}
	if o.httpClient != nil {
		httpOpts = append(httpOpts, httpclient.WithHTTPClient(o.httpClient))
	}
	hc, err := httpclient.New(cfg, httpOpts...)
	if err != nil {
		return nil, err
	}

	log := o.log.WithComponent("flaps").WithFields(logger.Fields(logger.FieldApp, app))
	metrics, err := observability.NewMetrics(observability.Meter(o.mp))
	if err != nil {
		log.Warn("metrics disabled", logger.Fields(logger.FieldError, err.Error()))
	}

	return &Client{
		http:        hc,
		appName:     app,
		appURL:      cfg.BaseURL,
		log:         log,
		tracer:      observability.Tracer(o.tp),
		metrics:     metrics,
		concurrency: o.concurrency,
	}, nil
}

// AppName returns the app the client is bound to.
func (c *Client) AppName() string { return c.appName }

// AppURL returns the machines collection URL of the app.
func (c *Client) AppURL() string { return c.appURL }

func resolveAppName(name string) (string, error) {
	if name == "" {
		name, _ = flyenv.CurrentAppName()
	}
	if name == "" {
		return "", ErrMissingAppName
	}
	if strings.ContainsAny(name, `/:\`) {
		return "", &InvalidAppNameError{Name: name}
	}
	return name, nil
}

func machinesURL(base, app string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", &InvalidBaseURLError{URL: base, Err: err}
	}
	if u.Scheme == "" || u.Host == "" {
		return "", &InvalidBaseURLError{URL: base}
	}
	return u.JoinPath("v1", "apps", app, "machines").String(), nil
}
