package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"scriptbook/internal/pipeline"
	"scriptbook/internal/testsupport"
)

type buildResult struct {
	summary *pipeline.Summary
	err     error
}

func TestWatchRebuildsAfterSourceChange(t *testing.T) {
	builder, cfg, _ := newBuilder(t, testsupport.WithoutManifest(), testsupport.WithWatchDebounce(50))
	seedSources(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	results := make(chan buildResult, 8)
	done := make(chan error, 1)
	go func() {
		done <- builder.Watch(ctx, pipeline.WatchOptions{
			OnBuild: func(s *pipeline.Summary, err error) { results <- buildResult{s, err} },
		})
	}()

	first := waitForBuild(t, results)
	if first.Written != 3 {
		t.Fatalf("unexpected initial build: %+v", first)
	}

	testsupport.WriteText(t, filepath.Join(cfg.Paths.EnglishDir, "103.txt"), "The Southern Air Temple\n")
	testsupport.WriteText(t, filepath.Join(cfg.Paths.EnglishDir, "~$scratch.txt"), "ignored\n")

	second := waitForBuild(t, results)
	if second.Written < 1 {
		t.Fatalf("expected rebuild to write the new page: %+v", second)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.DocsDir, "season-01", "s01e03.md")); err != nil {
		t.Fatalf("expected s01e03.md after rebuild: %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Watch returned error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop after cancellation")
	}
}

func waitForBuild(t *testing.T, results <-chan buildResult) *pipeline.Summary {
	t.Helper()
	select {
	case res := <-results:
		if res.err != nil {
			t.Fatalf("build failed: %v", res.err)
		}
		return res.summary
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for build")
		return nil
	}
}
