// Package config loads tool configuration with Viper.
//
// Values come from a YAML file, an optional .env file, environment variables
// and bound command-line flags:
//
//	var cfg Config
//	err := config.LoadConfig("flapsctl", &cfg,
//	    config.WithEnvPrefix("FLAPSCTL"),
//	    config.WithEnvAlias("flaps.auth_token", "FLY_API_TOKEN"),
//	)
//
// With the FLAPSCTL prefix, FLAPSCTL_FLAPS_APP_NAME sets flaps.app_name.
package config
