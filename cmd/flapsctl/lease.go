package main

import (
	"github.com/spf13/cobra"

	"github.com/kbukum/flyio-api/util"
)

func (c *cli) leaseCmd() *cobra.Command {
	var (
		ttl   int
		nonce string
	)
	ttlPtr := func(cmd *cobra.Command) *int {
		if !cmd.Flags().Changed("ttl") {
			return nil
		}
		return util.Ptr(ttl)
	}

	cmd := &cobra.Command{
		Use:   "lease",
		Short: "Inspect and manage machine leases",
	}
	cmd.PersistentFlags().IntVar(&ttl, "ttl", 0, "lease duration in seconds")
	cmd.PersistentFlags().StringVar(&nonce, "nonce", "", "lease nonce")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show the lease held on a machine",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				l, err := c.client.FindLease(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return c.printer(cmd).lease(l)
			},
		},
		&cobra.Command{
			Use:   "acquire <id>",
			Short: "Acquire a lease",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				l, err := c.client.AcquireLease(cmd.Context(), args[0], ttlPtr(cmd))
				if err != nil {
					return err
				}
				return c.printer(cmd).lease(l)
			},
		},
		&cobra.Command{
			Use:   "refresh <id>",
			Short: "Extend a lease",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				l, err := c.client.RefreshLease(cmd.Context(), args[0], ttlPtr(cmd), nonce)
				if err != nil {
					return err
				}
				return c.printer(cmd).lease(l)
			},
		},
		&cobra.Command{
			Use:   "release <id>",
			Short: "Release a lease",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				if err := c.client.ReleaseLease(cmd.Context(), args[0], nonce); err != nil {
					return err
				}
				return c.printer(cmd).message(map[string]string{"id": args[0], "status": "released"}, "lease released")
			},
		},
	)
	return cmd
}
