package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"scriptbook/internal/testsupport"
)

type cliTestEnv struct {
	baseDir    string
	configPath string
}

const testConfig = `[paths]
english_dir = "en"
chinese_dir = "zh"
docs_dir = "docs"
state_dir = ".scriptbook"

[site]
title = "Avatar Scripts"
intro = "Test intro."
mkdocs_config = "mkdocs.yml"

[[seasons]]
number = 1
first = 101
last = 103

[extract]
converters = ["antiword"]
workers = 2

[logging]
level = "warn"
`

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	t.Setenv("HOME", filepath.Join(base, "home"))
	testsupport.StubBinary(t, "antiword", "#!/bin/sh\ncat \"$1\"\n")

	configPath := filepath.Join(base, "scriptbook.toml")
	testsupport.WriteText(t, configPath, testConfig)
	testsupport.WriteText(t, filepath.Join(base, "en", "101.txt"), "The Boy in the Iceberg\n\nKatara: Water. Earth. Fire. Air.\n")
	testsupport.WriteText(t, filepath.Join(base, "en", "102.txt"), "The Avatar Returns\n\nSokka: Hey!\n")
	testsupport.WriteText(t, filepath.Join(base, "zh", "avatar101-102.doc"),
		"第一回 冰山少年\n卡塔拉：水，土，火，气。\n第二回 神通归来\n索卡：嘿！\n")

	return &cliTestEnv{baseDir: base, configPath: configPath}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func requireFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected file %s: %v", path, err)
	}
}
