package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"printwatch/internal/cups"
	"printwatch/internal/ipc"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and print service status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			client, err := ctx.dialClient()
			if err != nil {
				for _, line := range renderSectionHeader("Daemon", colorize) {
					fmt.Fprintln(stdout, line)
				}
				fmt.Fprintln(stdout, renderStatusLine("Running", statusError, "not reachable", colorize))
				fmt.Fprintln(stdout, renderStatusLine("Socket", statusInfo, ctx.socketPath(), colorize))
				return nil
			}
			defer client.Close()

			resp, err := client.Status()
			if err != nil {
				return fmt.Errorf("fetch status: %w", err)
			}
			status := resp.Status

			for _, line := range renderSectionHeader("Daemon", colorize) {
				fmt.Fprintln(stdout, line)
			}
			runningKind := statusError
			if status.Running {
				runningKind = statusOK
			}
			fmt.Fprintln(stdout, renderStatusLine("Running", runningKind, "pid "+strconv.Itoa(status.PID), colorize))
			fmt.Fprintln(stdout, renderStatusLine("Started", statusInfo, formatTimestamp(status.StartedAt), colorize))
			fmt.Fprintln(stdout, renderStatusLine("Socket", statusInfo, status.SocketPath, colorize))
			fmt.Fprintln(stdout, renderStatusLine("Lock", statusInfo, status.LockPath, colorize))
			if status.HistoryDBPath != "" {
				fmt.Fprintln(stdout, renderStatusLine("History DB", statusInfo, status.HistoryDBPath, colorize))
			}
			watcherKind := statusWarn
			watcherDetail := "not running"
			if status.WatcherRunning {
				watcherKind = statusOK
				watcherDetail = "watching for printers"
			}
			fmt.Fprintln(stdout, renderStatusLine("USB watcher", watcherKind, watcherDetail, colorize))
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Print Service", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if status.Health == nil {
				fmt.Fprintln(stdout, renderStatusLine("Health", statusInfo, "no probe recorded yet", colorize))
				return nil
			}
			renderHealthLines(stdout, *status.Health, colorize)
			return nil
		},
	}
}

func newPingCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check whether the daemon is answering",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Ping()
				if err != nil {
					return fmt.Errorf("ping daemon: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Daemon is running (pid %d)\n", resp.PID)
				return nil
			})
		},
	}
}

func renderHealthLines(stdout io.Writer, health cups.ServiceHealth, colorize bool) {
	activeKind := statusError
	activeDetail := "inactive"
	if health.Active {
		activeKind = statusOK
		activeDetail = "active"
	}
	fmt.Fprintln(stdout, renderStatusLine("Service", activeKind, activeDetail, colorize))

	if health.Active {
		hungKind := statusOK
		hungDetail := "responding"
		if health.Hung {
			hungKind = statusError
			hungDetail = "not responding"
		}
		fmt.Fprintln(stdout, renderStatusLine("Scheduler", hungKind, hungDetail, colorize))
	}

	if health.Err != "" {
		fmt.Fprintln(stdout, renderStatusLine("Error", statusError, health.Err, colorize))
	}

	if !health.Active || health.Hung {
		return
	}

	printersKind := statusOK
	printersDetail := fmt.Sprintf("%d configured", health.TotalPrinters)
	if health.ProblemPrinters > 0 {
		printersKind = statusWarn
		printersDetail = fmt.Sprintf("%d configured, %d with issues", health.TotalPrinters, health.ProblemPrinters)
	}
	fmt.Fprintln(stdout, renderStatusLine("Printers", printersKind, printersDetail, colorize))

	jobsKind := statusOK
	jobsDetail := "none stuck"
	if health.StuckJobs > 0 {
		jobsKind = statusWarn
		jobsDetail = fmt.Sprintf("%d stuck", health.StuckJobs)
	}
	fmt.Fprintln(stdout, renderStatusLine("Jobs", jobsKind, jobsDetail, colorize))

	for _, printer := range health.Printers {
		kind := statusOK
		if printer.HasIssues {
			kind = statusWarn
		}
		fmt.Fprintln(stdout, renderStatusLine(printer.Name, kind, printer.State, colorize))
	}
}
