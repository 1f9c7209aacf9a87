package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"scriptbook/internal/config"
	"scriptbook/internal/episode"
	"scriptbook/internal/ledger"
)

type seasonStatus struct {
	Season   int      `json:"season"`
	Expected int      `json:"expected"`
	Pages    int      `json:"pages"`
	Missing  []string `json:"missing,omitempty"`
}

type statusReport struct {
	ConfigPath string         `json:"config_path"`
	DocsDir    string         `json:"docs_dir"`
	LastRun    *ledger.Run    `json:"last_run,omitempty"`
	Seasons    []seasonStatus `json:"seasons"`
	Pages      []ledger.Page  `json:"pages"`
	Issues     []ledger.Issue `json:"issues,omitempty"`
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show published pages, missing episodes, and the last build",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withLedger(func(cfg *config.Config, store *ledger.Store) error {
				report, err := collectStatus(cmd, cfg, store)
				if err != nil {
					return err
				}
				report.ConfigPath = ctx.configPath
				if jsonOutput {
					return writeJSON(cmd, report)
				}
				printStatus(cmd.OutOrStdout(), report, shouldColorize(cmd.OutOrStdout()))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output status as JSON")
	return cmd
}

func collectStatus(cmd *cobra.Command, cfg *config.Config, store *ledger.Store) (*statusReport, error) {
	pages, err := store.ListPages(cmd.Context())
	if err != nil {
		return nil, err
	}
	run, err := store.LastRun(cmd.Context())
	if err != nil {
		return nil, err
	}
	report := &statusReport{DocsDir: cfg.Paths.DocsDir, LastRun: run, Pages: pages}
	if run != nil {
		if report.Issues, err = store.ListIssues(cmd.Context(), run.ID); err != nil {
			return nil, err
		}
	}

	catalog := episode.NewCatalog(cfg.Seasons)
	present := make(map[episode.Number]bool, len(pages))
	counts := make(map[int]int)
	for _, page := range pages {
		n := episode.Number(page.Season*100 + page.Episode)
		present[n] = true
		counts[page.Season]++
	}
	for _, season := range catalog.Seasons() {
		status := seasonStatus{
			Season:   season,
			Expected: len(catalog.Expected(season)),
			Pages:    counts[season],
		}
		for _, n := range catalog.Missing(season, present) {
			status.Missing = append(status.Missing, n.Label())
		}
		report.Seasons = append(report.Seasons, status)
	}
	return report, nil
}

func printStatus(out io.Writer, report *statusReport, colorize bool) {
	for _, line := range renderSectionHeader("Last build", colorize) {
		fmt.Fprintln(out, line)
	}
	if report.LastRun == nil {
		fmt.Fprintln(out, renderStatusLine("Run", statusWarn, "no builds recorded; run 'scriptbook build'", colorize))
	} else {
		run := report.LastRun
		fmt.Fprintln(out, renderStatusLine("Run", runKind(run.Status), fmt.Sprintf("%s (%s, %s)", run.ID, run.Status, run.Trigger), colorize))
		fmt.Fprintln(out, renderStatusLine("Started", statusInfo, run.StartedAt.Local().Format(time.DateTime), colorize))
		if run.FinishedAt != nil {
			fmt.Fprintln(out, renderStatusLine("Duration", statusInfo, run.Duration().Round(time.Millisecond).String(), colorize))
		}
		fmt.Fprintln(out, renderStatusLine("Pages", statusInfo,
			fmt.Sprintf("written %d, unchanged %d, pruned %d", run.PagesWritten, run.PagesUnchanged, run.PagesPruned), colorize))
		if run.ErrorMessage != "" {
			fmt.Fprintln(out, renderStatusLine("Error", statusError, run.ErrorMessage, colorize))
		}
		issueKind := statusOK
		if run.IssueCount > 0 {
			issueKind = statusWarn
		}
		fmt.Fprintln(out, renderStatusLine("Issues", issueKind, strconv.Itoa(run.IssueCount), colorize))
	}
	fmt.Fprintln(out, renderStatusLine("Docs", statusInfo, report.DocsDir, colorize))

	fmt.Fprintln(out)
	for _, line := range renderSectionHeader("Seasons", colorize) {
		fmt.Fprintln(out, line)
	}
	seasonRows := make([][]string, 0, len(report.Seasons))
	for _, season := range report.Seasons {
		seasonRows = append(seasonRows, []string{
			strconv.Itoa(season.Season),
			fmt.Sprintf("%d/%d", season.Pages, season.Expected),
			missingDetail(season.Missing),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"Season", "Pages", "Missing"}, seasonRows, []columnAlignment{alignRight, alignRight, alignLeft}))

	if len(report.Pages) > 0 {
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader("Pages", colorize) {
			fmt.Fprintln(out, line)
		}
		rows := make([][]string, 0, len(report.Pages))
		for _, page := range report.Pages {
			rows = append(rows, []string{
				page.Slug,
				page.Title,
				yesNo(page.HasEnglish),
				yesNo(page.HasChinese),
				page.Path,
			})
		}
		fmt.Fprintln(out, renderTable([]string{"Slug", "Title", "EN", "ZH", "Path"}, rows, nil))
	}

	if len(report.Issues) > 0 {
		fmt.Fprintln(out)
		for _, line := range renderSectionHeader("Issues", colorize) {
			fmt.Fprintln(out, line)
		}
		rows := make([][]string, 0, len(report.Issues))
		for _, issue := range report.Issues {
			rows = append(rows, []string{issue.Source, issue.EpisodeKey, issue.Kind, issue.Message})
		}
		fmt.Fprintln(out, renderTable([]string{"Source", "Episode", "Kind", "Message"}, rows, nil))
	}
}

func runKind(status ledger.RunStatus) statusKind {
	switch status {
	case ledger.RunSucceeded:
		return statusOK
	case ledger.RunFailed:
		return statusError
	default:
		return statusWarn
	}
}
