package ledger_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"scriptbook/internal/ledger"
	"scriptbook/internal/testsupport"
)

func TestOpenCreatesDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	if store.Path() != cfg.LedgerPath() {
		t.Fatalf("unexpected path %q", store.Path())
	}
	if _, err := os.Stat(cfg.LedgerPath()); err != nil {
		t.Fatalf("expected database file: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := ledger.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = reopened.Close()
}

func TestRunLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	last, err := store.LastRun(ctx)
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if last != nil {
		t.Fatalf("expected no runs, got %+v", last)
	}

	if _, err := store.BeginRun(ctx, "", "build"); err == nil {
		t.Fatal("expected error for empty run id")
	}

	run, err := store.BeginRun(ctx, "run-1", "")
	if err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if run.Status != ledger.RunRunning || run.Trigger != "build" {
		t.Fatalf("unexpected run %+v", run)
	}

	counts := ledger.RunCounts{Written: 3, Unchanged: 2, Pruned: 1, Issues: 4}
	if err := store.FinishRun(ctx, "run-1", ledger.RunSucceeded, counts, ""); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
	if err := store.FinishRun(ctx, "missing", ledger.RunFailed, ledger.RunCounts{}, "boom"); err == nil {
		t.Fatal("expected error finishing unknown run")
	}

	last, err = store.LastRun(ctx)
	if err != nil {
		t.Fatalf("LastRun: %v", err)
	}
	if last == nil || last.ID != "run-1" {
		t.Fatalf("unexpected last run %+v", last)
	}
	if last.Status != ledger.RunSucceeded || last.FinishedAt == nil {
		t.Fatalf("expected finished run, got %+v", last)
	}
	if last.PagesWritten != 3 || last.PagesUnchanged != 2 || last.PagesPruned != 1 || last.IssueCount != 4 {
		t.Fatalf("unexpected counts %+v", last)
	}
	if last.Duration() < 0 {
		t.Fatalf("negative duration %v", last.Duration())
	}
}

func TestPagesUpsertListDelete(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	pages := []ledger.Page{
		{Slug: "s02e01", Season: 2, Episode: 1, Path: "season-02/s02e01.md", Title: "S02E01", ContentHash: "a", HasChinese: true, ChineseSource: "avatar 201-203.doc", RunID: "r"},
		{Slug: "s01e02", Season: 1, Episode: 2, Path: "season-01/s01e02.md", Title: "S01E02", ContentHash: "b", HasEnglish: true, EnglishSource: "102.txt", RunID: "r"},
		{Slug: "s01e01", Season: 1, Episode: 1, Path: "season-01/s01e01.md", Title: "S01E01 - The Boy in the Iceberg", ContentHash: "c", HasEnglish: true, HasChinese: true, EnglishSource: "101.txt", ChineseSource: "avatar 101.doc", RunID: "r"},
	}
	for _, page := range pages {
		if err := store.UpsertPage(ctx, page); err != nil {
			t.Fatalf("UpsertPage: %v", err)
		}
	}
	if err := store.UpsertPage(ctx, ledger.Page{}); err == nil {
		t.Fatal("expected error for empty slug")
	}

	updated := pages[1]
	updated.ContentHash = "b2"
	updated.RunID = "r2"
	if err := store.UpsertPage(ctx, updated); err != nil {
		t.Fatalf("UpsertPage update: %v", err)
	}

	got, err := store.ListPages(ctx)
	if err != nil {
		t.Fatalf("ListPages: %v", err)
	}
	want := []ledger.Page{pages[2], updated, pages[0]}
	opts := cmpopts.IgnoreFields(ledger.Page{}, "UpdatedAt")
	if diff := cmp.Diff(want, got, opts); diff != "" {
		t.Fatalf("ListPages mismatch (-want +got):\n%s", diff)
	}

	page, err := store.GetPage(ctx, " S01E01 ")
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if page == nil || page.Title != "S01E01 - The Boy in the Iceberg" {
		t.Fatalf("unexpected page %+v", page)
	}

	if err := store.DeletePage(ctx, "s02e01"); err != nil {
		t.Fatalf("DeletePage: %v", err)
	}
	if err := store.DeletePage(ctx, "s09e09"); err != nil {
		t.Fatalf("DeletePage missing: %v", err)
	}
	missing, err := store.GetPage(ctx, "s02e01")
	if err != nil {
		t.Fatalf("GetPage: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected page to be deleted, got %+v", missing)
	}
}

func TestIssuesAreScopedToRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	for _, id := range []string{"run-a", "run-b"} {
		if _, err := store.BeginRun(ctx, id, "build"); err != nil {
			t.Fatalf("BeginRun: %v", err)
		}
	}
	if err := store.RecordIssue(ctx, ledger.Issue{RunID: "run-a", Source: "abc.txt", Kind: "validation", Message: "bad name"}); err != nil {
		t.Fatalf("RecordIssue: %v", err)
	}
	if err := store.RecordIssue(ctx, ledger.Issue{RunID: "run-a", Source: "avatar 104.doc", EpisodeKey: "s01e04", Message: "converter failed"}); err != nil {
		t.Fatalf("RecordIssue: %v", err)
	}
	if err := store.RecordIssue(ctx, ledger.Issue{RunID: "run-b", Source: "x.txt", Kind: "validation", Message: "m"}); err != nil {
		t.Fatalf("RecordIssue: %v", err)
	}
	if err := store.RecordIssue(ctx, ledger.Issue{Source: "x"}); err == nil {
		t.Fatal("expected error without run id")
	}

	issues, err := store.ListIssues(ctx, "run-a")
	if err != nil {
		t.Fatalf("ListIssues: %v", err)
	}
	if len(issues) != 2 {
		t.Fatalf("expected 2 issues, got %d", len(issues))
	}
	if issues[0].Source != "abc.txt" || issues[1].EpisodeKey != "s01e04" {
		t.Fatalf("unexpected issue order %+v", issues)
	}
	if issues[1].Kind != "failure" {
		t.Fatalf("expected default kind, got %q", issues[1].Kind)
	}
}

func TestExtractionCache(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	if _, ok, err := store.LookupExtraction(ctx, "hash", "antiword"); err != nil || ok {
		t.Fatalf("expected cache miss, ok=%v err=%v", ok, err)
	}
	if err := store.SaveExtraction(ctx, "hash", "antiword", "avatar 101.doc", "第一回"); err != nil {
		t.Fatalf("SaveExtraction: %v", err)
	}
	if err := store.SaveExtraction(ctx, "hash", "antiword", "avatar 101.doc", "第一回 冰山"); err != nil {
		t.Fatalf("SaveExtraction overwrite: %v", err)
	}
	text, ok, err := store.LookupExtraction(ctx, "hash", "antiword")
	if err != nil || !ok {
		t.Fatalf("expected cache hit, ok=%v err=%v", ok, err)
	}
	if text != "第一回 冰山" {
		t.Fatalf("unexpected cached text %q", text)
	}
	if _, ok, _ := store.LookupExtraction(ctx, "hash", "textutil"); ok {
		t.Fatal("cache must be keyed by converter")
	}

	n, err := store.ClearExtractions(ctx)
	if err != nil {
		t.Fatalf("ClearExtractions: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 cleared row, got %d", n)
	}
}

func TestSchemaMismatchIsReported(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()
	if _, err := store.BeginRun(ctx, "x", "build"); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	if err := ledger.SetSchemaVersionForTests(store, 99); err != nil {
		t.Fatalf("set version: %v", err)
	}
	_ = store.Close()

	_, err := ledger.Open(cfg)
	if !errors.Is(err, ledger.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
