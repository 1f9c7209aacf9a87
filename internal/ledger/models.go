package ledger

import "time"

// RunStatus is the lifecycle state of a build run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// Run is one invocation of the build.
type Run struct {
	ID             string     `json:"id"`
	Trigger        string     `json:"trigger"`
	Status         RunStatus  `json:"status"`
	StartedAt      time.Time  `json:"started_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
	PagesWritten   int        `json:"pages_written"`
	PagesUnchanged int        `json:"pages_unchanged"`
	PagesPruned    int        `json:"pages_pruned"`
	IssueCount     int        `json:"issue_count"`
	ErrorMessage   string     `json:"error_message,omitempty"`
}

// Duration returns the elapsed time of a finished run, or zero.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// RunCounts are the totals stored when a run finishes.
type RunCounts struct {
	Written   int `json:"written"`
	Unchanged int `json:"unchanged"`
	Pruned    int `json:"pruned"`
	Issues    int `json:"issues"`
}

// Page records one generated episode page.
type Page struct {
	Slug          string    `json:"slug"`
	Season        int       `json:"season"`
	Episode       int       `json:"episode"`
	Path          string    `json:"path"` // relative to the docs directory, slash separated
	Title         string    `json:"title"`
	ContentHash   string    `json:"content_hash"`
	HasEnglish    bool      `json:"has_english"`
	HasChinese    bool      `json:"has_chinese"`
	EnglishSource string    `json:"english_source"`
	ChineseSource string    `json:"chinese_source"`
	RunID         string    `json:"run_id"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Issue is a source document that was skipped during a run.
type Issue struct {
	ID         int64     `json:"id"`
	RunID      string    `json:"run_id"`
	Source     string    `json:"source"`
	EpisodeKey string    `json:"episode_key"`
	Kind       string    `json:"kind"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}
