package testsupport

import (
	"path/filepath"
	"testing"

	"scriptbook/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.EnglishDir = filepath.Join(base, "en")
	cfgVal.Paths.ChineseDir = filepath.Join(base, "zh")
	cfgVal.Paths.DocsDir = filepath.Join(base, "docs")
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Site.MkDocsConfig = filepath.Join(base, "mkdocs.yml")
	cfgVal.Extract.Converters = []string{"antiword"}
	cfgVal.Extract.Workers = 2

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.Validate(); err != nil {
		t.Fatalf("test config invalid: %v", err)
	}
	return builder.cfg
}

// WithSeasons replaces the season catalog.
func WithSeasons(seasons ...config.Season) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Seasons = seasons
	}
}

// WithoutManifest disables MkDocs navigation updates.
func WithoutManifest() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Site.MkDocsConfig = ""
	}
}

// WithFrontMatter toggles YAML front matter on generated pages.
func WithFrontMatter(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Site.FrontMatter = enabled
	}
}

// WithStubbedAntiword installs an antiword stub that prints the document bytes.
func WithStubbedAntiword() ConfigOption {
	return func(b *configBuilder) {
		StubBinary(b.t, "antiword", "#!/bin/sh\ncat \"$1\"\n")
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DocsDir)
}

// WithWatchDebounce sets the watch debounce window in milliseconds.
func WithWatchDebounce(millis int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Watch.DebounceMillis = millis
	}
}
