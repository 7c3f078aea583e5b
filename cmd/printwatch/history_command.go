package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"printwatch/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded printer events, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.HistoryList(limit)
				if err != nil {
					return fmt.Errorf("fetch history: %w", err)
				}
				stdout := cmd.OutOrStdout()
				if len(resp.Events) == 0 {
					fmt.Fprintln(stdout, "No events recorded")
					return nil
				}
				rows := make([][]string, 0, len(resp.Events))
				for _, event := range resp.Events {
					rows = append(rows, []string{
						strconv.FormatInt(event.ID, 10),
						formatTimestamp(event.CreatedAt),
						event.Kind,
						orDash(event.Printer),
						okFailed(event.Success),
						orDash(firstLine(event.Detail)),
					})
				}
				fmt.Fprintln(stdout, renderTable(
					[]string{"ID", "Time", "Kind", "Printer", "Outcome", "Detail"},
					rows,
					[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum events to show (0 for all)")
	return cmd
}

func firstLine(value string) string {
	for i := 0; i < len(value); i++ {
		if value[i] == '\n' {
			return value[:i]
		}
	}
	return value
}
