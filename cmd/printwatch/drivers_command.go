package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"printwatch/internal/ipc"
)

func newDriversCommand(ctx *commandContext) *cobra.Command {
	driversCmd := &cobra.Command{
		Use:   "drivers",
		Short: "Query the printer driver database",
	}

	driversCmd.AddCommand(&cobra.Command{
		Use:   "search [keyword]",
		Short: "Search installed drivers by keyword",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keyword := ""
			if len(args) > 0 {
				keyword = strings.TrimSpace(args[0])
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.DriverSearch(keyword)
				if err != nil {
					return fmt.Errorf("search drivers: %w", err)
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Drivers) == 0 {
					if keyword == "" {
						fmt.Fprintln(stdout, "No drivers found")
					} else {
						fmt.Fprintf(stdout, "No drivers match %q\n", keyword)
					}
					return nil
				}
				rows := make([][]string, 0, len(resp.Drivers))
				for _, driver := range resp.Drivers {
					rows = append(rows, []string{driver.URI, orDash(driver.Description)})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"Driver", "Description"},
					rows,
					[]columnAlignment{alignLeft, alignLeft},
				))
				fmt.Fprintf(stdout, "%s shown\n", pluralize(len(resp.Drivers), "driver"))
				return nil
			})
		},
	})

	return driversCmd
}

func newInstallCommand(ctx *commandContext) *cobra.Command {
	var driver string

	cmd := &cobra.Command{
		Use:   "install <model>",
		Short: "Configure a print queue for a printer model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model := strings.TrimSpace(args[0])
			return ctx.withClient(func(client *ipc.Client) error {
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Installing queue for %s...\n", model)
				resp, err := client.Install(model, strings.TrimSpace(driver))
				if err != nil {
					return fmt.Errorf("install printer: %w", err)
				}
				result := resp.Result
				action := "Updated"
				if result.Created {
					action = "Created"
				}
				fmt.Fprintf(stdout, "%s queue %s\n", action, result.Printer)
				fmt.Fprintf(stdout, "Driver: %s (%s)\n", result.Driver, result.Source)
				if result.Message != "" {
					fmt.Fprintln(stdout, result.Message)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&driver, "driver", "", "Driver URI to use instead of automatic selection")
	return cmd
}
