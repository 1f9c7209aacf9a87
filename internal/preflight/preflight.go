package preflight

import (
	"context"
	"fmt"
	"strings"

	"scriptbook/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes every check relevant to a build with the given config.
// A source directory that is missing altogether is reported but not fatal
// as long as the other language's directory is readable.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	english := CheckReadableDirectory("English scripts", cfg.Paths.EnglishDir)
	chinese := CheckReadableDirectory("Chinese scripts", cfg.Paths.ChineseDir)
	if !english.Passed && chinese.Passed && strings.HasSuffix(english.Detail, "does not exist)") {
		english.Passed = true
		english.Detail += "; skipped"
	}
	if !chinese.Passed && english.Passed && strings.HasSuffix(chinese.Detail, "does not exist)") {
		chinese.Passed = true
		chinese.Detail += "; skipped"
	}
	results = append(results, english, chinese)

	results = append(results, CheckCreatableDirectory("Docs directory", cfg.Paths.DocsDir))
	results = append(results, CheckCreatableDirectory("State directory", cfg.Paths.StateDir))

	if mkdocs := cfg.MkDocsPath(); mkdocs != "" {
		results = append(results, CheckWritableFile("MkDocs config", mkdocs))
	}

	if ctx.Err() == nil {
		converter, _ := CheckConverters(cfg)
		results = append(results, converter)
	}
	return results
}

// FirstFailure returns an error describing the first failed result, or nil.
func FirstFailure(results []Result) error {
	for _, r := range results {
		if !r.Passed {
			return fmt.Errorf("%s: %s", r.Name, r.Detail)
		}
	}
	return nil
}
