package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"printwatch/internal/ipc"
)

func newPrintersCommand(ctx *commandContext) *cobra.Command {
	printersCmd := &cobra.Command{
		Use:   "printers",
		Short: "Inspect and manage configured print queues",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrinterList(ctx, cmd)
		},
	}

	printersCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured print queues",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPrinterList(ctx, cmd)
		},
	})

	printersCmd.AddCommand(&cobra.Command{
		Use:   "show <name>",
		Short: "Show one queue's attributes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PrinterDescribe(name)
				if err != nil {
					return fmt.Errorf("describe printer: %w", err)
				}
				detail := resp.Detail
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Name:        %s\n", detail.Name)
				fmt.Fprintf(stdout, "Description: %s\n", orDash(detail.Description))
				fmt.Fprintf(stdout, "Location:    %s\n", orDash(detail.Location))
				fmt.Fprintf(stdout, "Device URI:  %s\n", orDash(detail.DeviceURI))
				fmt.Fprintf(stdout, "Active jobs: %d\n", detail.ActiveJobs)
				return nil
			})
		},
	})

	printersCmd.AddCommand(&cobra.Command{
		Use:   "test <name>",
		Short: "Send a test page to a queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			return ctx.withClient(func(client *ipc.Client) error {
				stdout := cmd.OutOrStdout()
				fmt.Fprintf(stdout, "Sending test page to %s...\n", name)
				resp, err := client.TestPrint(name)
				if err != nil {
					return fmt.Errorf("send test page: %w", err)
				}
				if resp.Message != "" {
					fmt.Fprintln(stdout, resp.Message)
				}
				if !resp.Sent {
					return fmt.Errorf("test page was not accepted by %s", name)
				}
				return nil
			})
		},
	})

	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Remove a print queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.PrinterDelete(name)
				if err != nil {
					return fmt.Errorf("delete printer: %w", err)
				}
				stdout := cmd.OutOrStdout()
				if resp.Message != "" {
					fmt.Fprintln(stdout, resp.Message)
				}
				if !resp.Deleted {
					return fmt.Errorf("queue %s was not removed", name)
				}
				fmt.Fprintf(stdout, "Removed queue %s\n", name)
				return nil
			})
		},
	}
	printersCmd.AddCommand(deleteCmd)

	return printersCmd
}

func runPrinterList(ctx *commandContext, cmd *cobra.Command) error {
	return ctx.withClient(func(client *ipc.Client) error {
		resp, err := client.PrinterList()
		if err != nil {
			return fmt.Errorf("list printers: %w", err)
		}
		stdout := cmd.OutOrStdout()
		if len(resp.Printers) == 0 {
			fmt.Fprintln(stdout, "No printers configured")
			return nil
		}
		rows := make([][]string, 0, len(resp.Printers))
		for _, printer := range resp.Printers {
			rows = append(rows, []string{
				printer.Name,
				printer.State,
				yesNo(printer.HasIssues),
				orDash(printer.Description),
				orDash(printer.DeviceURI),
			})
		}
		fmt.Fprintln(stdout, renderTable(
			[]string{"Name", "State", "Issues", "Description", "Device URI"},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
		))
		fmt.Fprintf(stdout, "%s configured\n", pluralize(len(resp.Printers), "printer"))
		return nil
	})
}

func orDash(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func pluralize(count int, noun string) string {
	if count == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(count) + " " + noun + "s"
}
