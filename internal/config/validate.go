package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// KnownConverters lists the external extraction tools scriptbook knows how to drive.
var KnownConverters = []string{"textutil", "antiword"}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSources(); err != nil {
		return err
	}
	if err := c.validateSeasons(); err != nil {
		return err
	}
	if err := c.validateExtract(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.EnglishDir) == "" && strings.TrimSpace(c.Paths.ChineseDir) == "" {
		return errors.New("paths.english_dir or paths.chinese_dir must be set")
	}
	if strings.TrimSpace(c.Paths.DocsDir) == "" {
		return errors.New("paths.docs_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	if c.Paths.DocsDir == c.Paths.StateDir {
		return errors.New("paths.state_dir must differ from paths.docs_dir")
	}
	return nil
}

func (c *Config) validateSources() error {
	if strings.ContainsAny(c.Sources.ChinesePrefix, `/\`) {
		return fmt.Errorf("sources.chinese_prefix %q must not contain path separators", c.Sources.ChinesePrefix)
	}
	if _, err := regexp.Compile(c.Sources.EpisodeMarker); err != nil {
		return fmt.Errorf("sources.episode_marker: %w", err)
	}
	return nil
}

func (c *Config) validateSeasons() error {
	if len(c.Seasons) == 0 {
		return errors.New("at least one [[seasons]] entry is required")
	}
	seen := make(map[int]struct{}, len(c.Seasons))
	for _, season := range c.Seasons {
		if season.Number < 1 || season.Number > 9 {
			return fmt.Errorf("seasons: number %d must be between 1 and 9", season.Number)
		}
		if _, dup := seen[season.Number]; dup {
			return fmt.Errorf("seasons: duplicate season %d", season.Number)
		}
		seen[season.Number] = struct{}{}
		low := season.Number*100 + 1
		high := season.Number*100 + 99
		if season.First < low || season.First > high || season.Last < low || season.Last > high {
			return fmt.Errorf("seasons: season %d range %d-%d must lie within %d-%d", season.Number, season.First, season.Last, low, high)
		}
		if season.First > season.Last {
			return fmt.Errorf("seasons: season %d first episode %d exceeds last %d", season.Number, season.First, season.Last)
		}
	}
	return nil
}

func (c *Config) validateExtract() error {
	for _, name := range c.Extract.Converters {
		if !isKnownConverter(name) {
			return fmt.Errorf("extract.converters: unsupported converter %q (supported: %s)", name, strings.Join(KnownConverters, ", "))
		}
	}
	if c.Extract.TimeoutSeconds <= 0 {
		return errors.New("extract.timeout_seconds must be positive")
	}
	if c.Extract.Workers <= 0 {
		return errors.New("extract.workers must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}

func isKnownConverter(name string) bool {
	for _, known := range KnownConverters {
		if known == name {
			return true
		}
	}
	return false
}
