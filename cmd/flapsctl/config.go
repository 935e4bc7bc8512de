package main

import (
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/kbukum/flyio-api/config"
	"github.com/kbukum/flyio-api/flaps"
	"github.com/kbukum/flyio-api/flyenv"
	"github.com/kbukum/flyio-api/observability"
	"github.com/kbukum/flyio-api/validation"
)

const (
	appName   = "flapsctl"
	envPrefix = "FLAPSCTL"

	outputTable = "table"
	outputJSON  = "json"
)

// Config is the flapsctl configuration, read from flapsctl.yml, FLAPSCTL_*
// env vars and flags.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	Flaps         flaps.Settings       `yaml:"flaps" mapstructure:"flaps"`
	SocketPath    string               `yaml:"socket_path" mapstructure:"socket_path"`
	Output        string               `yaml:"output" mapstructure:"output"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	if c.Output == "" {
		c.Output = outputTable
	}
	if c.Observability.Endpoint != "" {
		c.Observability.Enabled = true
	}
}

// Validate checks the loaded configuration.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	return validation.New().
		OneOf("output", c.Output, []string{outputTable, outputJSON}).
		Custom(c.SocketPath == "" || c.Flaps.BaseURL == "", "socket_path", "cannot be combined with flaps.base_url").
		Custom(c.SocketPath == "" || filepath.IsAbs(c.SocketPath), "socket_path", "must be an absolute path").
		Validate()
}

// loadConfig reads the configuration with flags taking precedence.
func loadConfig(flags *pflag.FlagSet, configFile string) (*Config, error) {
	cfg := &Config{}
	cfg.Name = appName

	err := config.LoadConfig(appName, cfg,
		config.WithConfigFile(configFile),
		config.WithEnvPrefix(envPrefix),
		config.WithEnvAlias("flaps.auth_token", flyenv.EnvAPIToken),
		config.WithEnvAlias("flaps.app_name", flyenv.EnvAppName),
		config.WithFlag("flaps.app_name", flags.Lookup("app")),
		config.WithFlag("flaps.auth_token", flags.Lookup("token")),
		config.WithFlag("flaps.base_url", flags.Lookup("base-url")),
		config.WithFlag("socket_path", flags.Lookup("socket")),
		config.WithFlag("logging.level", flags.Lookup("log-level")),
		config.WithFlag("logging.format", flags.Lookup("log-format")),
		config.WithFlag("observability.endpoint", flags.Lookup("otlp-endpoint")),
		config.WithFlag("output", flags.Lookup("output")),
	)
	if err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
