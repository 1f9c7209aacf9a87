package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"scriptbook/internal/pipeline"
	"scriptbook/internal/services"
	"scriptbook/internal/testsupport"
)

func TestBuildStatusShowAndCheck(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"build", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var summary pipeline.Summary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode build summary: %v\n%s", err, out)
	}
	if summary.Written != 2 || summary.RunID == "" {
		t.Fatalf("unexpected build summary: %+v", summary)
	}
	want := []pipeline.SeasonCount{{Season: 1, Pages: 2, Missing: []string{"S01E03"}}}
	if diff := cmp.Diff(want, summary.Seasons); diff != "" {
		t.Fatalf("season counts mismatch (-want +got):\n%s", diff)
	}
	requireFile(t, filepath.Join(env.baseDir, "docs", "season-01", "s01e01.md"))
	requireFile(t, filepath.Join(env.baseDir, "mkdocs.yml"))
	requireFile(t, filepath.Join(env.baseDir, ".scriptbook", "scriptbook.log"))

	out, _, err = runCLI(t, []string{"status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var report statusReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if report.LastRun == nil || report.LastRun.ID != summary.RunID {
		t.Fatalf("unexpected last run: %+v", report.LastRun)
	}
	if len(report.Pages) != 2 || len(report.Seasons) != 1 || report.Seasons[0].Expected != 3 {
		t.Fatalf("unexpected status report: %+v", report)
	}

	out, _, err = runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status text: %v", err)
	}
	requireContains(t, out, "S01E03")
	requireContains(t, out, "s01e02")

	out, _, err = runCLI(t, []string{"show", "s01e01", "--raw"}, env.configPath)
	if err != nil {
		t.Fatalf("show --raw: %v", err)
	}
	requireContains(t, out, "# S01E01 - The Boy in the Iceberg\n")
	requireContains(t, out, "season: 1\n")

	out, _, err = runCLI(t, []string{"show", "102"}, env.configPath)
	if err != nil {
		t.Fatalf("show rendered: %v", err)
	}
	requireContains(t, out, "Sokka")

	out, _, err = runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "no problems found")

	_, _, err = runCLI(t, []string{"show", "s01e03"}, env.configPath)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unbuilt page, got %v", err)
	}
}

func TestBuildDryRunTextOutput(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"build", "--dry-run"}, env.configPath)
	if err != nil {
		t.Fatalf("build --dry-run: %v", err)
	}
	requireContains(t, out, "Build (dry run)")
	requireContains(t, out, "would write 2")
	if _, err := os.Stat(filepath.Join(env.baseDir, "docs", "index.md")); !os.IsNotExist(err) {
		t.Fatalf("dry run wrote index.md, stat err=%v", err)
	}
}

func TestCheckReportsBrokenLinks(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"build"}, env.configPath); err != nil {
		t.Fatalf("build: %v", err)
	}
	testsupport.WriteText(t, filepath.Join(env.baseDir, "docs", "notes.md"), "# Notes\n\nSee [missing](season-09/index.md).\n")

	out, _, err := runCLI(t, []string{"check", "--json"}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	requireContains(t, out, `"broken_link"`)
}

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
	requireContains(t, out, "1 (101-103)")

	target := filepath.Join(t.TempDir(), "nested", "scriptbook.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	requireFile(t, target)

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected config init to refuse overwriting")
	}
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target, "--overwrite"}, ""); err != nil {
		t.Fatalf("config init --overwrite: %v", err)
	}
}

func TestInvalidConfigIsConfigurationError(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.WriteText(t, env.configPath, "[extract]\nconverters = [\"catdoc\"]\n")

	_, _, err := runCLI(t, []string{"status"}, env.configPath)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if exitCode(err) != 2 {
		t.Fatalf("expected exit code 2, got %d", exitCode(err))
	}
}

func TestDepsFailsWithoutConverter(t *testing.T) {
	env := setupCLITestEnv(t)
	t.Setenv("PATH", t.TempDir())

	out, _, err := runCLI(t, []string{"deps"}, env.configPath)
	if err == nil {
		t.Fatalf("expected deps to fail without a converter:\n%s", out)
	}
	requireContains(t, out, "antiword")
	requireContains(t, out, "need conversion")
}

func TestParseEpisodeArg(t *testing.T) {
	tests := []struct {
		arg  string
		want string
		ok   bool
	}{
		{"s01e05", "s01e05", true},
		{"S02E10", "s02e10", true},
		{"305", "s03e05", true},
		{"１０１", "s01e01", true},
		{"episode", "", false},
		{"1005", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			n, err := parseEpisodeArg(tt.arg)
			if (err == nil) != tt.ok {
				t.Fatalf("parseEpisodeArg(%q) err=%v, want ok=%v", tt.arg, err, tt.ok)
			}
			if tt.ok && n.Slug() != tt.want {
				t.Fatalf("parseEpisodeArg(%q) = %s, want %s", tt.arg, n.Slug(), tt.want)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{services.Wrap(services.ErrConfiguration, "cli", "load", "", nil), 2},
		{fmt.Errorf("%w (lock x)", pipeline.ErrBuildInProgress), 3},
		{errors.New("boom"), 1},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestLogsFiltersByRun(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"build", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	var summary pipeline.Summary
	if err := json.Unmarshal([]byte(out), &summary); err != nil {
		t.Fatalf("decode build summary: %v", err)
	}

	out, _, err = runCLI(t, []string{"logs", "--run", summary.RunID, "--event", "build_complete"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "build complete")
	requireContains(t, out, "written=2")

	out, _, err = runCLI(t, []string{"logs", "--run", "no-such-run"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "No matching log entries")
}

func TestLogsLastShowsOnlyNewestBuild(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"logs", "--last"}, env.configPath)
	if err != nil {
		t.Fatalf("logs --last before any build: %v", err)
	}
	requireContains(t, out, "No builds recorded")

	for range 2 {
		if _, _, err := runCLI(t, []string{"build"}, env.configPath); err != nil {
			t.Fatalf("build: %v", err)
		}
	}
	out, _, err = runCLI(t, []string{"logs", "--last", "--event", "build_complete", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("logs --last: %v", err)
	}
	if got := strings.Count(out, `"event_type":"build_complete"`); got != 1 {
		t.Fatalf("expected one build_complete record for the last run, got %d:\n%s", got, out)
	}
	requireContains(t, out, `"unchanged":2`)

	if _, _, err := runCLI(t, []string{"logs", "--last", "--run", "abc"}, env.configPath); err == nil {
		t.Fatal("expected --last with --run to be rejected")
	}
}

func TestCacheClearForgetsExtractions(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"build"}, env.configPath); err != nil {
		t.Fatalf("build: %v", err)
	}

	out, _, err := runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear: %v", err)
	}
	requireContains(t, out, "Removed 1 cached extraction(s)")

	out, _, err = runCLI(t, []string{"cache", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("cache clear again: %v", err)
	}
	requireContains(t, out, "Removed 0 cached extraction(s)")
}

func TestExtractPrintsNormalizedText(t *testing.T) {
	env := setupCLITestEnv(t)

	doc := filepath.Join(env.baseDir, "zh", "avatar101-102.doc")
	out, stderr, err := runCLI(t, []string{"extract", doc}, env.configPath)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	requireContains(t, out, "第一回 冰山少年\n")
	requireContains(t, out, "第二回 神通归来\n")
	requireContains(t, stderr, "converted with antiword")

	_, _, err = runCLI(t, []string{"extract", filepath.Join(env.baseDir, "zh", "missing.doc")}, env.configPath)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error for missing document, got %v", err)
	}
}

func TestWriteJSONKeepsTitlesReadable(t *testing.T) {
	cmd := newStatusCommand(nil)
	var out strings.Builder
	cmd.SetOut(&out)
	page := struct {
		Title string `json:"title"`
	}{Title: "S02E12 - The Drill <Part 1> & Sokka"}
	if err := writeJSON(cmd, page); err != nil {
		t.Fatalf("writeJSON: %v", err)
	}
	requireContains(t, out.String(), `"title": "S02E12 - The Drill <Part 1> & Sokka"`)

	if err := writeJSON(cmd, map[string]any{"bad": make(chan int)}); err == nil {
		t.Fatal("expected unsupported value to fail")
	}
}
