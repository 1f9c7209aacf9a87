package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"scriptbook/internal/preflight"
	"scriptbook/internal/services"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check converters and directory access",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			for _, line := range renderSectionHeader("Converters", colorize) {
				fmt.Fprintln(out, line)
			}
			_, statuses := preflight.CheckConverters(cfg)
			rows := make([][]string, 0, len(statuses))
			for _, status := range statuses {
				detail := status.Detail
				if status.Available {
					detail = status.Path
				}
				rows = append(rows, []string{status.Name, status.Command, yesNo(status.Available), detail, status.Description})
			}
			fmt.Fprintln(out, renderTable([]string{"Name", "Command", "Available", "Detail", "Purpose"}, rows, nil))

			fmt.Fprintln(out)
			for _, line := range renderSectionHeader("Preflight", colorize) {
				fmt.Fprintln(out, line)
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				fmt.Fprintln(out, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			if err := preflight.FirstFailure(results); err != nil {
				return services.Wrap(services.ErrConfiguration, "cli", "deps", "", err)
			}
			return nil
		},
	}
}
