package flaps

import (
	"time"

	"github.com/kbukum/flyio-api/httpclient"
	"github.com/kbukum/flyio-api/resilience"
)

const (
	// DefaultTimeout bounds a single request. Wait requests block for up to
	// a minute on the server.
	DefaultTimeout = 90 * time.Second

	// DefaultConcurrency is the GetMany fan-out width.
	DefaultConcurrency = 8

	// DefaultSocketPath is the machine-local API proxy.
	DefaultSocketPath = "/.fly/api"

	userAgentProduct     = "flyio-api-go"
	unixUserAgentProduct = "flyio-api-go-unix"
	socketBaseURL        = "http://localhost"

	headerRequestID  = "fly-request-id"
	headerLeaseNonce = "fly-machine-lease-nonce"
)

// Settings configures a Client. Empty fields fall back to the environment and
// package defaults.
type Settings struct {
	// BaseURL of the Machines API. Defaults to flyenv.FlapsBaseURL().
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	// UserAgent overrides the default "flyio-api-go/<version>".
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
	// AuthToken is an API token. "FlyV1 " tokens are sent as-is, anything
	// else as a bearer token.
	AuthToken string `yaml:"auth_token" mapstructure:"auth_token"`
	// AppName defaults to FLY_APP_NAME.
	AppName string        `yaml:"app_name" mapstructure:"app_name"`
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	Retry     RetrySettings     `yaml:"retry" mapstructure:"retry"`
	RateLimit RateLimitSettings `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// RetrySettings tunes transport retries of idempotent requests.
type RetrySettings struct {
	Disabled       bool          `yaml:"disabled" mapstructure:"disabled"`
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts" validate:"gte=0"`
	InitialBackoff time.Duration `yaml:"initial_backoff" mapstructure:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff" mapstructure:"max_backoff"`
}

// RateLimitSettings enables client-side rate limiting when Rate is positive.
type RateLimitSettings struct {
	Rate  float64 `yaml:"rate" mapstructure:"rate" validate:"gte=0"`
	Burst int     `yaml:"burst" mapstructure:"burst" validate:"gte=0"`
}

// ApplyDefaults fills in zero-value fields.
func (s *Settings) ApplyDefaults() {
	if s.Timeout <= 0 {
		s.Timeout = DefaultTimeout
	}
	def := httpclient.DefaultRetryConfig()
	if s.Retry.MaxAttempts == 0 {
		s.Retry.MaxAttempts = def.MaxAttempts
	}
	if s.Retry.InitialBackoff <= 0 {
		s.Retry.InitialBackoff = def.InitialBackoff
	}
	if s.Retry.MaxBackoff <= 0 {
		s.Retry.MaxBackoff = def.MaxBackoff
	}
	if s.RateLimit.Rate > 0 && s.RateLimit.Burst <= 0 {
		s.RateLimit.Burst = int(s.RateLimit.Rate) + 1
	}
}

func (s *Settings) retryConfig() *resilience.RetryConfig {
	if s.Retry.Disabled {
		return nil
	}
	cfg := httpclient.DefaultRetryConfig()
	cfg.MaxAttempts = s.Retry.MaxAttempts
	cfg.InitialBackoff = s.Retry.InitialBackoff
	cfg.MaxBackoff = s.Retry.MaxBackoff
	return cfg
}

func (s *Settings) rateLimiterConfig(app string) *resilience.RateLimiterConfig {
	if s.RateLimit.Rate <= 0 {
		return nil
	}
	return &resilience.RateLimiterConfig{
		Name:  "flaps:" + app,
		Rate:  s.RateLimit.Rate,
		Burst: s.RateLimit.Burst,
	}
}
