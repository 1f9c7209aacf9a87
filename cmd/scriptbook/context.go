package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"scriptbook/internal/config"
	"scriptbook/internal/extract"
	"scriptbook/internal/ledger"
	"scriptbook/internal/logging"
	"scriptbook/internal/pipeline"
	"scriptbook/internal/services"
)

type globalFlags struct {
	config    string
	logLevel  string
	logFormat string
}

type commandContext struct {
	flags *globalFlags

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.flags != nil {
			path = strings.TrimSpace(c.flags.config)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "cli", "load config", "", err)
			return
		}
		if c.flags != nil {
			if level := strings.TrimSpace(c.flags.logLevel); level != "" {
				cfg.Logging.Level = strings.ToLower(level)
			}
			if format := strings.TrimSpace(c.flags.logFormat); format != "" {
				cfg.Logging.Format = strings.ToLower(format)
			}
		}
		if err := cfg.Validate(); err != nil {
			c.configErr = services.Wrap(services.ErrConfiguration, "cli", "validate config", "", err)
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

// logger builds a logger writing console output to w and the debug stream to
// the state directory log file.
func (c *commandContext) logger(w io.Writer) (*slog.Logger, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	return logging.NewFromConfig(cfg, w)
}

func (c *commandContext) withLedger(fn func(*config.Config, *ledger.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	store, err := ledger.Open(cfg)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()
	return fn(cfg, store)
}

func (c *commandContext) newExtractor(cfg *config.Config, logger *slog.Logger) *extract.Extractor {
	timeout := time.Duration(cfg.Extract.TimeoutSeconds) * time.Second
	return extract.NewExtractor(cfg.Extract.Converters, timeout, logger)
}

func (c *commandContext) newBuilder(cfg *config.Config, store *ledger.Store, logger *slog.Logger) *pipeline.Builder {
	return pipeline.NewBuilder(cfg, store, c.newExtractor(cfg, logger), logger)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

// exitCode maps failures to process exit codes: 2 for configuration and
// usage problems, 3 when another build holds the lock, 1 otherwise.
func exitCode(err error) int {
	switch {
	case errors.Is(err, services.ErrConfiguration):
		return 2
	case errors.Is(err, pipeline.ErrBuildInProgress):
		return 3
	default:
		return 1
	}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
