package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"printwatch/internal/deps"
)

func newDepsCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "deps",
		Short:       "Check availability of required system commands",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			statuses := deps.CheckBinaries(deps.Requirements())
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				available := "yes"
				if !status.Available {
					available = "missing"
					if status.Optional {
						available = "missing (optional)"
					}
				}
				rows = append(rows, []string{
					status.Name,
					available,
					status.Description,
				})
			}
			stdout := cmd.OutOrStdout()
			fmt.Fprintln(stdout, renderTable(
				[]string{"Command", "Available", "Purpose"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			if missing := deps.MissingRequired(statuses); len(missing) > 0 {
				return fmt.Errorf("missing required commands: %v", missing)
			}
			fmt.Fprintln(stdout, "All required commands are available")
			return nil
		},
	}
}
