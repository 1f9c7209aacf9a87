package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"scriptbook/internal/extract"
	"scriptbook/internal/logging"
)

func TestCheckBinariesOnPath(t *testing.T) {
	binDir := t.TempDir()
	antiword := filepath.Join(binDir, "antiword")
	if err := os.WriteFile(antiword, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	reqs := []Requirement{
		{Name: "antiword", Command: " antiword ", Description: " Converts legacy .doc scripts "},
		{Name: "textutil", Command: "textutil"},
		{Name: "catdoc"},
	}
	got := CheckBinaries(reqs)
	want := []Status{
		{Requirement: Requirement{Name: "antiword", Command: "antiword", Description: "Converts legacy .doc scripts"}, Available: true, Path: antiword},
		{Requirement: Requirement{Name: "textutil", Command: "textutil"}, Detail: `"textutil" not on PATH`},
		{Requirement: Requirement{Name: "catdoc"}, Detail: "catdoc is not a known converter"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("statuses mismatch (-want +got):\n%s", diff)
	}
}

func TestCheckBinariesSharesExtractorLookup(t *testing.T) {
	restore := extract.SetLookPathForTests(func(binary string) (string, error) {
		if binary == "antiword" {
			return "/opt/stub/antiword", nil
		}
		return "", exec.ErrNotFound
	})
	t.Cleanup(restore)
	t.Setenv("PATH", t.TempDir())

	names := []string{"textutil", "antiword"}
	statuses := CheckBinaries(ConverterRequirements(names))
	picked, ok := Ready(statuses)
	if !ok || picked != "antiword" || statuses[1].Path != "/opt/stub/antiword" {
		t.Fatalf("expected stubbed antiword to be ready, got %q ok=%v %+v", picked, ok, statuses)
	}

	conv, err := extract.NewExtractor(names, time.Second, logging.NewNop()).Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if conv.Name != picked {
		t.Fatalf("build would use %q but deps reports %q", conv.Name, picked)
	}
}

func TestConverterRequirementsAndReady(t *testing.T) {
	binDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(binDir, "antiword"), []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	t.Setenv("PATH", binDir)

	reqs := ConverterRequirements([]string{"textutil", "antiword"})
	if len(reqs) != 2 || reqs[0].Command != "textutil" || reqs[1].Command != "antiword" {
		t.Fatalf("unexpected requirements: %#v", reqs)
	}
	for _, req := range reqs {
		if !req.Optional || req.Description == "" {
			t.Fatalf("expected optional described requirement, got %#v", req)
		}
	}

	statuses := CheckBinaries(reqs)
	name, ok := Ready(statuses)
	if !ok || name != "antiword" {
		t.Fatalf("expected antiword to be picked, got %q ok=%v", name, ok)
	}
	if got := Summary(statuses); got != "using antiword" {
		t.Fatalf("unexpected summary %q", got)
	}
}

func TestReadyWithoutConverters(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	statuses := CheckBinaries(ConverterRequirements([]string{"antiword"}))
	if _, ok := Ready(statuses); ok {
		t.Fatal("expected no converter to be ready")
	}
	if got := Summary(statuses); got != "no converter found on PATH" {
		t.Fatalf("unexpected summary %q", got)
	}
	if got := Summary(nil); got != "no converters configured" {
		t.Fatalf("unexpected empty summary %q", got)
	}
}
