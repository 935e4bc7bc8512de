package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kbukum/flyio-api/flaps"
	"github.com/kbukum/flyio-api/logger"
	"github.com/kbukum/flyio-api/observability"
	"github.com/kbukum/flyio-api/util"
	"github.com/kbukum/flyio-api/version"
)

// skipClient marks commands that do not talk to the API.
const skipClient = "flapsctl/skip-client"

// cli holds state shared by all subcommands.
type cli struct {
	configFile string
	cfg        *Config
	log        *logger.Logger
	client     *flaps.Client
	shutdown   observability.ShutdownFunc
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           appName,
		Short:         "Manage Fly Machines through the Machines API",
		Version:       version.GetVersionInfo().String(),
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if c.shutdown == nil {
				return nil
			}
			return c.shutdown(context.WithoutCancel(cmd.Context()))
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.configFile, "config", "", "config file (default: ./flapsctl.yml or ~/.config/flapsctl/config.yml)")
	pf.StringP("app", "a", "", "app name (env FLY_APP_NAME)")
	pf.String("token", "", "API token (env FLY_API_TOKEN)")
	pf.String("base-url", "", "Machines API base URL (env FLY_FLAPS_BASE_URL)")
	pf.String("socket", "", "reach the API through a Unix socket, e.g. "+flaps.DefaultSocketPath)
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: console, json")
	pf.String("otlp-endpoint", "", "export traces and metrics to this OTLP/HTTP endpoint")
	pf.StringP("output", "o", "", "output format: table, json")

	root.AddCommand(
		c.listCmd(),
		c.getCmd(),
		c.launchCmd(),
		c.startCmd(),
		c.stopCmd(),
		c.restartCmd(),
		c.waitCmd(),
		c.destroyCmd(),
		c.killCmd(),
		c.leaseCmd(),
		c.execCmd(),
		c.psCmd(),
		versionCmd(),
	)
	return root
}

// setup loads configuration and builds the logger, telemetry and client.
func (c *cli) setup(cmd *cobra.Command) error {
	if cmd.Annotations[skipClient] != "" {
		return nil
	}

	cfg, err := loadConfig(cmd.Flags(), c.configFile)
	if err != nil {
		return err
	}
	c.cfg = cfg
	c.log = logger.Init(cfg.Logging, appName)

	shutdown, err := observability.Setup(cmd.Context(), cfg.Observability, appName, version.GetShortVersion(), cfg.Environment)
	if err != nil {
		return fmt.Errorf("setup telemetry: %w", err)
	}
	c.shutdown = shutdown

	opts := []flaps.Option{flaps.WithLogger(c.log)}
	if cfg.SocketPath != "" {
		c.client, err = flaps.NewFromSocket(cfg.Flaps.AppName, append(opts, flaps.WithSocketPath(cfg.SocketPath))...)
	} else {
		c.client, err = flaps.New(cfg.Flaps, opts...)
	}
	if err != nil {
		return err
	}
	fields := logger.Fields(logger.FieldApp, c.client.AppName(), "url", c.client.AppURL())
	if cfg.SocketPath == "" && cfg.Flaps.AuthToken != "" {
		fields["token"] = util.MaskSecret(cfg.Flaps.AuthToken, 8)
	}
	c.log.Debug("client ready", fields)
	return nil
}

func (c *cli) printer(cmd *cobra.Command) *printer {
	return newPrinter(cmd.OutOrStdout(), c.cfg.Output)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{skipClient: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), appName, version.GetVersionInfo().String())
			return err
		},
	}
}
