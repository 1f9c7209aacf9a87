package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains source and output directory configuration.
type Paths struct {
	EnglishDir string `toml:"english_dir"`
	ChineseDir string `toml:"chinese_dir"`
	DocsDir    string `toml:"docs_dir"`
	StateDir   string `toml:"state_dir"`
}

// Site contains configuration for the generated markdown tree and the
// static-site generator manifest.
type Site struct {
	Title          string `toml:"title"`
	Intro          string `toml:"intro"`
	MkDocsConfig   string `toml:"mkdocs_config"`
	FrontMatter    bool   `toml:"front_matter"`
	SlugTitles     bool   `toml:"slug_titles"`
	EnglishHeading string `toml:"english_heading"`
	ChineseHeading string `toml:"chinese_heading"`
}

// Sources describes how episode documents are named on disk.
type Sources struct {
	EnglishPattern   string `toml:"english_pattern"`
	ChinesePrefix    string `toml:"chinese_prefix"`
	ChineseExtension string `toml:"chinese_extension"`
	EpisodeMarker    string `toml:"episode_marker"`
}

// Season declares the inclusive episode-number range belonging to a season.
type Season struct {
	Number int `toml:"number"`
	First  int `toml:"first"`
	Last   int `toml:"last"`
}

// Extract contains configuration for legacy document text extraction.
type Extract struct {
	Converters     []string `toml:"converters"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	Workers        int      `toml:"workers"`
	Cache          bool     `toml:"cache"`
}

// Watch contains configuration for rebuild-on-change mode.
type Watch struct {
	DebounceMillis int `toml:"debounce_millis"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for scriptbook.
//
// Configuration sections by subsystem:
//   - Paths: source directories, docs output, build state
//   - Site: titles, headings, front matter, MkDocs manifest location
//   - Sources: file naming of episode documents
//   - Seasons: season catalog (episode number ranges)
//   - Extract: external converters for legacy documents
//   - Watch: rebuild debounce
//   - Logging: log format and level
type Config struct {
	Paths   Paths    `toml:"paths"`
	Site    Site     `toml:"site"`
	Sources Sources  `toml:"sources"`
	Seasons []Season `toml:"seasons"`
	Extract Extract  `toml:"extract"`
	Watch   Watch    `toml:"watch"`
	Logging Logging  `toml:"logging"`

	baseDir string
}

// DefaultConfigPath returns the absolute path to the user-level configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/scriptbook/config.toml")
}

// Load locates, parses, and validates a configuration file. Relative paths in the
// file resolve against the directory containing it; without a file they resolve
// against the working directory.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
		cfg.baseDir = filepath.Dir(resolvedPath)
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, "", false, fmt.Errorf("resolve working directory: %w", err)
		}
		cfg.baseDir = wd
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	projectPath, err := filepath.Abs("scriptbook.toml")
	if err != nil {
		return "", false, err
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}

	return projectPath, false, nil
}

// BaseDir returns the directory relative paths were resolved against.
func (c *Config) BaseDir() string {
	return c.baseDir
}

// EnsureDirectories creates the output and state directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DocsDir, c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// LedgerPath returns the SQLite build ledger location.
func (c *Config) LedgerPath() string {
	return filepath.Join(c.Paths.StateDir, "scriptbook.db")
}

// LockPath returns the build lock file location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "scriptbook.lock")
}

// LogPath returns the log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.StateDir, "scriptbook.log")
}

// MkDocsPath returns the navigation manifest path, or "" when manifest updates are disabled.
func (c *Config) MkDocsPath() string {
	return c.Site.MkDocsConfig
}

// SeasonFor returns the catalog season owning the provided season number.
func (c *Config) SeasonFor(number int) (Season, bool) {
	for _, season := range c.Seasons {
		if season.Number == number {
			return season, true
		}
	}
	return Season{}, false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// resolvePath expands ~ and anchors relative paths at base.
func resolvePath(base, pathValue string) (string, error) {
	pathValue = strings.TrimSpace(pathValue)
	if pathValue == "" {
		return "", nil
	}
	if strings.HasPrefix(pathValue, "~") || filepath.IsAbs(pathValue) || base == "" {
		return expandPath(pathValue)
	}
	return expandPath(filepath.Join(base, pathValue))
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
