package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"scriptbook/internal/config"
	"scriptbook/internal/ledger"
	"scriptbook/internal/pipeline"
	"scriptbook/internal/preflight"
	"scriptbook/internal/services"
)

func newBuildCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var dryRun bool
	var jsonOutput bool
	var skipPreflight bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Generate the docs tree and MkDocs navigation from the source scripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			cfg, _ := ctx.ensureConfig()
			if !skipPreflight {
				if err := preflight.FirstFailure(preflight.RunAll(cmd.Context(), cfg)); err != nil {
					return services.Wrap(services.ErrConfiguration, "cli", "preflight", "run 'scriptbook deps' for details", err)
				}
			}
			return ctx.withLedger(func(cfg *config.Config, store *ledger.Store) error {
				builder := ctx.newBuilder(cfg, store, logger)
				summary, err := builder.Build(cmd.Context(), pipeline.Options{
					Force:   force,
					DryRun:  dryRun,
					Trigger: "build",
				})
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, summary)
				}
				printBuildSummary(cmd.OutOrStdout(), summary, shouldColorize(cmd.OutOrStdout()))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-run converters even when a cached extraction exists")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing files")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the build summary as JSON")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip directory and converter checks")
	return cmd
}

func printBuildSummary(out io.Writer, summary *pipeline.Summary, colorize bool) {
	title := "Build"
	if summary.DryRun {
		title = "Build (dry run)"
	}
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Run", statusInfo, summary.RunID, colorize))

	pagesKind := statusOK
	if len(summary.Issues) > 0 {
		pagesKind = statusWarn
	}
	verb := "written"
	if summary.DryRun {
		verb = "would write"
	}
	fmt.Fprintln(out, renderStatusLine("Pages", pagesKind,
		fmt.Sprintf("%d total, %s %d, unchanged %d, pruned %d", summary.Pages(), verb, summary.Written, summary.Unchanged, summary.Pruned), colorize))
	fmt.Fprintln(out, renderStatusLine("Navigation", statusInfo, navDetail(summary), colorize))
	if len(summary.Skipped) > 0 {
		fmt.Fprintln(out, renderStatusLine("Outside catalog", statusWarn, strings.Join(summary.Skipped, ", "), colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Elapsed", statusInfo, summary.Duration.Round(time.Millisecond).String(), colorize))

	rows := make([][]string, 0, len(summary.Seasons))
	for _, season := range summary.Seasons {
		rows = append(rows, []string{
			strconv.Itoa(season.Season),
			strconv.Itoa(season.Pages),
			missingDetail(season.Missing),
		})
	}
	if len(rows) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable([]string{"Season", "Pages", "Missing"}, rows, []columnAlignment{alignRight, alignRight, alignLeft}))
	}

	if len(summary.Issues) > 0 {
		issueRows := make([][]string, 0, len(summary.Issues))
		for _, issue := range summary.Issues {
			issueRows = append(issueRows, []string{issue.Source, issue.EpisodeKey, issue.Kind, issue.Message})
		}
		fmt.Fprintln(out)
		fmt.Fprintln(out, renderTable([]string{"Source", "Episode", "Kind", "Message"}, issueRows, nil))
	}
}

func navDetail(summary *pipeline.Summary) string {
	switch {
	case summary.NavUpdated && summary.DryRun:
		return "would update"
	case summary.NavUpdated:
		return "updated"
	default:
		return "unchanged"
	}
}

func missingDetail(missing []string) string {
	switch {
	case len(missing) == 0:
		return "-"
	case len(missing) > 6:
		return fmt.Sprintf("%s … (+%d)", strings.Join(missing[:6], ", "), len(missing)-6)
	default:
		return strings.Join(missing, ", ")
	}
}
