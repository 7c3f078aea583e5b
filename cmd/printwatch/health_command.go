package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"printwatch/internal/ipc"
)

func newHealthCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Run a fresh print service health check",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Health()
				if err != nil {
					return fmt.Errorf("check health: %w", err)
				}
				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)
				for _, line := range renderSectionHeader("Print Service", colorize) {
					fmt.Fprintln(stdout, line)
				}
				renderHealthLines(stdout, resp.Health, colorize)
				if !resp.Health.Healthy() {
					fmt.Fprintln(stdout)
					fmt.Fprintln(stdout, "Run 'printwatch fix' to attempt recovery.")
				}
				return nil
			})
		},
	}
}

func newFixCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "fix",
		Short: "Restart and recover the print service",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				stdout := cmd.OutOrStdout()
				fmt.Fprintln(stdout, "Running print service recovery...")
				resp, err := client.Fix()
				if err != nil {
					return fmt.Errorf("run recovery: %w", err)
				}
				for _, step := range resp.Steps {
					fmt.Fprintln(stdout, "  "+step)
				}
				if resp.Fixed {
					fmt.Fprintln(stdout, "Print service recovered")
					return nil
				}
				return fmt.Errorf("print service did not recover; check the daemon log for details")
			})
		},
	}
}

func newDiscoveryCommand(ctx *commandContext) *cobra.Command {
	discoveryCmd := &cobra.Command{
		Use:   "discovery",
		Short: "Printer auto-discovery controls",
	}

	discoveryCmd.AddCommand(&cobra.Command{
		Use:   "disable",
		Short: "Disable network printer auto-discovery",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.DisableDiscovery()
				if err != nil {
					return fmt.Errorf("disable discovery: %w", err)
				}
				stdout := cmd.OutOrStdout()
				if resp.Message != "" {
					fmt.Fprintln(stdout, resp.Message)
				}
				if !resp.Disabled {
					return fmt.Errorf("discovery was not fully disabled")
				}
				return nil
			})
		},
	})

	return discoveryCmd
}
