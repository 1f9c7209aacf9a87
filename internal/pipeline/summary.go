package pipeline

import (
	"time"

	"scriptbook/internal/source"
)

// SeasonCount reports what a build published for one season.
type SeasonCount struct {
	Season  int      `json:"season"`
	Pages   int      `json:"pages"`
	Missing []string `json:"missing,omitempty"`
}

// IssueSummary is a skipped or degraded source document.
type IssueSummary struct {
	Source     string `json:"source"`
	EpisodeKey string `json:"episode_key,omitempty"`
	Kind       string `json:"kind"`
	Message    string `json:"message"`
}

// Summary describes a finished build.
type Summary struct {
	RunID      string         `json:"run_id"`
	DryRun     bool           `json:"dry_run"`
	Written    int            `json:"written"`
	Unchanged  int            `json:"unchanged"`
	Pruned     int            `json:"pruned"`
	NavUpdated bool           `json:"nav_updated"`
	Seasons    []SeasonCount  `json:"seasons"`
	Skipped    []string       `json:"skipped,omitempty"`
	Issues     []IssueSummary `json:"issues,omitempty"`
	Duration   time.Duration  `json:"duration_ns"`
}

// Pages returns the total number of published episode pages.
func (s *Summary) Pages() int {
	total := 0
	for _, season := range s.Seasons {
		total += season.Pages
	}
	return total
}

func summarizeIssues(issues []source.Issue) []IssueSummary {
	if len(issues) == 0 {
		return nil
	}
	out := make([]IssueSummary, 0, len(issues))
	for _, issue := range issues {
		out = append(out, IssueSummary{
			Source:     issue.Source,
			EpisodeKey: issue.EpisodeKey,
			Kind:       issue.Kind(),
			Message:    issue.Message(),
		})
	}
	return out
}
