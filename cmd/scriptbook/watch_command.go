package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"scriptbook/internal/config"
	"scriptbook/internal/ledger"
	"scriptbook/internal/pipeline"
)

func newWatchCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Rebuild whenever source scripts or the configuration change",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return ctx.withLedger(func(cfg *config.Config, store *ledger.Store) error {
				builder := ctx.newBuilder(cfg, store, logger)
				out := cmd.OutOrStdout()
				colorize := shouldColorize(out)
				fmt.Fprintln(out, "Watching for changes; press Ctrl+C to stop.")
				return builder.Watch(cmd.Context(), pipeline.WatchOptions{
					ConfigPath: ctx.configPath,
					Force:      force,
					OnBuild: func(summary *pipeline.Summary, err error) {
						if err != nil {
							kind := statusError
							if errors.Is(err, pipeline.ErrBuildInProgress) {
								kind = statusWarn
							}
							fmt.Fprintln(out, renderStatusLine("Build", kind, err.Error(), colorize))
							return
						}
						fmt.Fprintln(out, renderStatusLine("Build", statusOK,
							fmt.Sprintf("%d pages, written %d, pruned %d, issues %d", summary.Pages(), summary.Written, summary.Pruned, len(summary.Issues)), colorize))
					},
				})
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Ignore cached extractions for the initial build")
	return cmd
}
