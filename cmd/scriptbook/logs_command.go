package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"scriptbook/internal/logs"
)

const logFollowWait = 5 * time.Second

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool
	var lastRun bool
	var filter logs.Filter
	var rawJSON bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the build log from the state directory",
		Long:  "Show records from the JSON build log. --last limits output to the most recent build; --run selects a build by run id prefix.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			path := cfg.LogPath()

			if lastRun {
				if filter.RunID != "" {
					return fmt.Errorf("--last and --run cannot be combined")
				}
				id, err := logs.LatestRun(path)
				if err != nil {
					return err
				}
				if id == "" {
					fmt.Fprintf(out, "No builds recorded in %s\n", path)
					return nil
				}
				filter.RunID = id
			}

			batch, err := logs.Read(path, logs.Query{Filter: filter, Limit: lines})
			if err != nil {
				return err
			}
			printLogEntries(out, batch.Entries, rawJSON)
			if len(batch.Entries) == 0 && !follow {
				fmt.Fprintf(out, "No matching log entries in %s\n", path)
			}

			offset := batch.Offset
			for follow {
				next, err := logs.Follow(cmd.Context(), path, offset, filter, logFollowWait)
				if err != nil {
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				}
				offset = next.Offset
				printLogEntries(out, next.Entries, rawJSON)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of matching entries to show before following (0 for all)")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new entries")
	cmd.Flags().BoolVar(&lastRun, "last", false, "Only show entries from the most recent build")
	cmd.Flags().StringVar(&filter.RunID, "run", "", "Only show entries for this run id (prefix match)")
	cmd.Flags().StringVar(&filter.Component, "component", "", "Only show entries from this component")
	cmd.Flags().StringVar(&filter.MinLevel, "level", "", "Minimum level (debug, info, warn, error)")
	cmd.Flags().StringVar(&filter.EventType, "event", "", "Only show entries with this event_type")
	cmd.Flags().BoolVar(&rawJSON, "json", false, "Print the raw JSON records")
	return cmd
}

func printLogEntries(out io.Writer, entries []logs.Entry, rawJSON bool) {
	for _, e := range entries {
		if rawJSON {
			fmt.Fprintln(out, e.Raw)
			continue
		}
		fmt.Fprintln(out, logs.Format(e.Record))
	}
}
