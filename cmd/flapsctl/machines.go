package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/kbukum/flyio-api/flaps"
	"github.com/kbukum/flyio-api/machine"
	"github.com/kbukum/flyio-api/util"
)

func (c *cli) listCmd() *cobra.Command {
	var (
		state    string
		active   bool
		platform bool
	)
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List the app's machines",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			p := c.printer(cmd)
			switch {
			case platform:
				am, err := c.client.ListFlyAppsMachines(ctx)
				if err != nil {
					return err
				}
				return p.appMachines(am)
			case active:
				ms, err := c.client.ListActive(ctx)
				if err != nil {
					return err
				}
				return p.machines(ms)
			}

			var s machine.State
			if state != "" {
				var err error
				if s, err = machine.ParseState(state); err != nil {
					return err
				}
			}
			ms, err := c.client.List(ctx, s)
			if err != nil {
				return err
			}
			return p.machines(ms)
		},
	}
	cmd.Flags().StringVar(&state, "state", "", "only list machines in this state")
	cmd.Flags().BoolVar(&active, "active", false, "leave out release command, console and destroyed machines")
	cmd.Flags().BoolVar(&platform, "platform", false, "split out the release command machine")
	cmd.MarkFlagsMutuallyExclusive("state", "active", "platform")
	return cmd
}

func (c *cli) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>...",
		Short: "Show one or more machines",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ms, err := c.client.GetMany(cmd.Context(), args)
			if err != nil {
				return err
			}
			return c.printer(cmd).machines(ms)
		},
	}
}

func (c *cli) launchCmd() *cobra.Command {
	var (
		in     flaps.LaunchMachineInput
		image  string
		size   string
		memory string
		env    []string
	)
	cmd := &cobra.Command{
		Use:   "launch",
		Short: "Create and start a machine",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := &machine.Config{Image: image}
			if size != "" || memory != "" {
				guest, err := machine.GuestFromSize(util.Coalesce(size, "shared-cpu-1x"))
				if err != nil {
					return err
				}
				if memory != "" {
					if err := guest.SetMemory(memory); err != nil {
						return err
					}
					if err := guest.ValidateMemory(); err != nil {
						return err
					}
				}
				cfg.Guest = guest
			}
			if len(env) > 0 {
				cfg.Env = make(map[string]string, len(env))
				for _, kv := range env {
					k, v, ok := strings.Cut(kv, "=")
					if !ok || k == "" {
						return fmt.Errorf("invalid --env %q, expected KEY=VALUE", kv)
					}
					cfg.Env[k] = v
				}
			}
			in.Config = cfg

			m, err := c.client.Launch(cmd.Context(), in)
			if err != nil {
				return err
			}
			return c.printer(cmd).machines([]*machine.Machine{m})
		},
	}
	f := cmd.Flags()
	f.StringVar(&image, "image", "", "image to run")
	f.StringVar(&in.Region, "region", "", "region code, e.g. ord")
	f.StringVar(&in.Name, "name", "", "machine name")
	f.StringVar(&size, "size", "", "guest preset, e.g. shared-cpu-1x")
	f.StringVar(&memory, "memory", "", "memory, e.g. 512 or 2gb")
	f.StringArrayVarP(&env, "env", "e", nil, "environment variable KEY=VALUE, repeatable")
	f.BoolVar(&in.SkipLaunch, "skip-launch", false, "create the machine without starting it")
	_ = cmd.MarkFlagRequired("image")
	return cmd
}

func (c *cli) startCmd() *cobra.Command {
	var nonce string
	cmd := &cobra.Command{
		Use:   "start <id>",
		Short: "Start a stopped machine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := c.client.Start(cmd.Context(), args[0], nonce)
			if err != nil {
				return err
			}
			return c.printer(cmd).message(resp, fmt.Sprintf("%s started (was %s)", args[0], util.Coalesce(resp.PreviousState, "unknown")))
		},
	}
	cmd.Flags().StringVar(&nonce, "nonce", "", "lease nonce")
	return cmd
}

func (c *cli) stopCmd() *cobra.Command {
	var (
		in      flaps.StopMachineInput
		timeout time.Duration
		nonce   string
	)
	cmd := &cobra.Command{
		Use:   "stop <id>",
		Short: "Stop a machine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.ID = args[0]
			if timeout > 0 {
				in.Timeout = machine.NewDuration(timeout)
			}
			if err := c.client.Stop(cmd.Context(), in, nonce); err != nil {
				return err
			}
			return c.printer(cmd).message(map[string]string{"id": in.ID, "status": "stopped"}, in.ID+" stopped")
		},
	}
	cmd.Flags().StringVar(&in.Signal, "signal", "", "signal to stop with, e.g. SIGTERM")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "grace period before the machine is killed")
	cmd.Flags().StringVar(&nonce, "nonce", "", "lease nonce")
	return cmd
}

func (c *cli) restartCmd() *cobra.Command {
	var (
		in    flaps.RestartMachineInput
		nonce string
	)
	cmd := &cobra.Command{
		Use:   "restart <id>",
		Short: "Restart a machine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.ID = args[0]
			if err := c.client.Restart(cmd.Context(), in, nonce); err != nil {
				return err
			}
			return c.printer(cmd).message(map[string]string{"id": in.ID, "status": "restarted"}, in.ID+" restarted")
		},
	}
	cmd.Flags().BoolVar(&in.ForceStop, "force", false, "force stop before restarting")
	cmd.Flags().StringVar(&in.Signal, "signal", "", "signal to stop with")
	cmd.Flags().DurationVar(&in.Timeout, "timeout", 0, "grace period before the machine is killed")
	cmd.Flags().StringVar(&nonce, "nonce", "", "lease nonce")
	return cmd
}

func (c *cli) waitCmd() *cobra.Command {
	var (
		state   string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "wait <id>",
		Short: "Wait until a machine reaches a state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := machine.ParseState(state)
			if err != nil {
				return err
			}
			m, err := c.client.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := c.client.WaitForState(cmd.Context(), m, s, timeout); err != nil {
				return err
			}
			return c.printer(cmd).message(map[string]string{"id": m.ID, "state": string(s)},
				fmt.Sprintf("%s is %s", m.ID, stateColor(s)))
		},
	}
	cmd.Flags().StringVar(&state, "state", string(machine.StateStarted), "state to wait for")
	cmd.Flags().DurationVar(&timeout, "timeout", time.Minute, "how long to wait")
	return cmd
}

func (c *cli) destroyCmd() *cobra.Command {
	var (
		in    flaps.RemoveMachineInput
		nonce string
	)
	cmd := &cobra.Command{
		Use:     "destroy <id>",
		Aliases: []string{"rm"},
		Short:   "Destroy a machine",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.ID = args[0]
			if err := c.client.Destroy(cmd.Context(), in, nonce); err != nil {
				return err
			}
			return c.printer(cmd).message(map[string]string{"id": in.ID, "status": "destroyed"}, in.ID+" destroyed")
		},
	}
	cmd.Flags().BoolVar(&in.Kill, "kill", false, "destroy a running machine")
	cmd.Flags().StringVar(&nonce, "nonce", "", "lease nonce")
	return cmd
}

func (c *cli) killCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kill <id>",
		Short: "Send SIGKILL to a machine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.client.Kill(cmd.Context(), args[0]); err != nil {
				return err
			}
			return c.printer(cmd).message(map[string]string{"id": args[0], "status": "killed"}, args[0]+" killed")
		},
	}
}

func (c *cli) execCmd() *cobra.Command {
	var timeout int
	cmd := &cobra.Command{
		Use:   "exec <id> -- <command>...",
		Short: "Run a command inside a machine",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := c.client.Exec(cmd.Context(), args[0], flaps.MachineExecRequest{
				Cmd:     strings.Join(args[1:], " "),
				Timeout: timeout,
			})
			if err != nil {
				return err
			}
			if c.cfg.Output == outputJSON {
				if err := c.printer(cmd).json(resp); err != nil {
					return err
				}
			} else {
				fmt.Fprint(cmd.OutOrStdout(), resp.Stdout)
				fmt.Fprint(cmd.ErrOrStderr(), resp.Stderr)
			}
			if resp.ExitCode != 0 {
				return fmt.Errorf("command exited with code %d", resp.ExitCode)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&timeout, "timeout", 0, "seconds before the command is killed")
	return cmd
}

func (c *cli) psCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ps <id>",
		Short: "List processes running in a machine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := c.client.GetProcesses(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.printer(cmd).processes(ps)
		},
	}
}
