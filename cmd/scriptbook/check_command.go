package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"scriptbook/internal/language"
	"scriptbook/internal/logging"
	"scriptbook/internal/services"
	"scriptbook/internal/verify"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool
	var threshold float64

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify links, front matter, navigation, and episode splits in the docs tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.logger(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			heading := cfg.Site.ChineseHeading
			if heading == "" {
				heading = language.Heading(language.Chinese)
			}
			report, err := verify.Run(cmd.Context(), verify.Options{
				DocsDir:        cfg.Paths.DocsDir,
				MkDocsConfig:   cfg.MkDocsPath(),
				ChineseHeading: heading,
				Threshold:      threshold,
				Logger:         logging.NewComponentLogger(logger, "verify"),
			})
			if err != nil {
				return err
			}
			if jsonOutput {
				if err := writeJSON(cmd, report); err != nil {
					return err
				}
			} else {
				printCheckReport(cmd.OutOrStdout(), report, shouldColorize(cmd.OutOrStdout()))
			}
			if !report.OK() {
				return services.Wrap(services.ErrValidation, "cli", "check", fmt.Sprintf("%d problem(s) found", len(report.Findings)), nil)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the report as JSON")
	cmd.Flags().Float64Var(&threshold, "threshold", verify.DefaultThreshold, "Similarity at which adjacent Chinese sections count as duplicates")
	return cmd
}

func printCheckReport(out io.Writer, report *verify.Report, colorize bool) {
	for _, line := range renderSectionHeader("Check", colorize) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintln(out, renderStatusLine("Pages", statusInfo, strconv.Itoa(report.Pages), colorize))
	fmt.Fprintln(out, renderStatusLine("Links", statusInfo, strconv.Itoa(report.Links), colorize))
	if report.OK() {
		fmt.Fprintln(out, renderStatusLine("Result", statusOK, "no problems found", colorize))
		return
	}
	fmt.Fprintln(out, renderStatusLine("Result", statusError, fmt.Sprintf("%d problem(s)", len(report.Findings)), colorize))
	rows := make([][]string, 0, len(report.Findings))
	for _, finding := range report.Findings {
		rows = append(rows, []string{finding.Kind, finding.Path, finding.Detail})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderTable([]string{"Kind", "Path", "Detail"}, rows, nil))
}
