package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeSite(); err != nil {
		return err
	}
	c.normalizeSources()
	c.normalizeSeasons()
	c.normalizeExtract()
	if c.Watch.DebounceMillis <= 0 {
		c.Watch.DebounceMillis = defaultWatchDebounce
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := os.LookupEnv("SCRIPTBOOK_DOCS_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.DocsDir = value
	}
	if strings.TrimSpace(c.Paths.DocsDir) == "" {
		c.Paths.DocsDir = defaultDocsDir
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}

	var err error
	if c.Paths.EnglishDir, err = resolvePath(c.baseDir, c.Paths.EnglishDir); err != nil {
		return fmt.Errorf("paths.english_dir: %w", err)
	}
	if c.Paths.ChineseDir, err = resolvePath(c.baseDir, c.Paths.ChineseDir); err != nil {
		return fmt.Errorf("paths.chinese_dir: %w", err)
	}
	if c.Paths.DocsDir, err = resolvePath(c.baseDir, c.Paths.DocsDir); err != nil {
		return fmt.Errorf("paths.docs_dir: %w", err)
	}
	if c.Paths.StateDir, err = resolvePath(c.baseDir, c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSite() error {
	c.Site.Title = strings.TrimSpace(c.Site.Title)
	if c.Site.Title == "" {
		c.Site.Title = defaultSiteTitle
	}
	c.Site.Intro = strings.TrimSpace(c.Site.Intro)
	c.Site.EnglishHeading = strings.TrimSpace(c.Site.EnglishHeading)
	c.Site.ChineseHeading = strings.TrimSpace(c.Site.ChineseHeading)

	var err error
	if c.Site.MkDocsConfig, err = resolvePath(c.baseDir, c.Site.MkDocsConfig); err != nil {
		return fmt.Errorf("site.mkdocs_config: %w", err)
	}
	return nil
}

func (c *Config) normalizeSources() {
	c.Sources.EnglishPattern = strings.TrimSpace(c.Sources.EnglishPattern)
	if c.Sources.EnglishPattern == "" {
		c.Sources.EnglishPattern = defaultEnglishPattern
	}
	c.Sources.ChinesePrefix = strings.TrimSpace(c.Sources.ChinesePrefix)
	ext := strings.ToLower(strings.TrimSpace(c.Sources.ChineseExtension))
	if ext == "" {
		ext = defaultChineseExtension
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	c.Sources.ChineseExtension = ext
	c.Sources.EpisodeMarker = strings.TrimSpace(c.Sources.EpisodeMarker)
	if c.Sources.EpisodeMarker == "" {
		c.Sources.EpisodeMarker = defaultEpisodeMarker
	}
}

func (c *Config) normalizeSeasons() {
	if len(c.Seasons) == 0 {
		c.Seasons = DefaultSeasons()
		return
	}
	sort.SliceStable(c.Seasons, func(i, j int) bool {
		return c.Seasons[i].Number < c.Seasons[j].Number
	})
}

func (c *Config) normalizeExtract() {
	converters := make([]string, 0, len(c.Extract.Converters))
	seen := make(map[string]struct{}, len(c.Extract.Converters))
	for _, name := range c.Extract.Converters {
		normalized := strings.ToLower(strings.TrimSpace(name))
		if normalized == "" {
			continue
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		converters = append(converters, normalized)
	}
	if len(converters) == 0 {
		converters = []string{"textutil", "antiword"}
	}
	c.Extract.Converters = converters
	if c.Extract.TimeoutSeconds <= 0 {
		c.Extract.TimeoutSeconds = defaultExtractTimeout
	}
	if c.Extract.Workers <= 0 {
		c.Extract.Workers = defaultExtractWorkers
	}
}

func (c *Config) normalizeLogging() {
	if value, ok := os.LookupEnv("SCRIPTBOOK_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	if value, ok := os.LookupEnv("SCRIPTBOOK_LOG_FORMAT"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Format = value
	}
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
