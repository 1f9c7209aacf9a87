package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"scriptbook/internal/config"
	"scriptbook/internal/logging"
	"scriptbook/internal/services"
)

// WatchOptions configure Watch.
type WatchOptions struct {
	// ConfigPath is reloaded when it changes. Empty disables config reloads.
	ConfigPath string

	// Force applies to the initial build only.
	Force bool

	// OnBuild receives the result of every build, including failed ones.
	OnBuild func(*Summary, error)
}

// Watch builds once and then rebuilds whenever source documents or the
// configuration file change, until ctx is cancelled. Bursts of events within
// the configured debounce window produce a single build.
func (b *Builder) Watch(ctx context.Context, opts WatchOptions) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "watch", "init", "create filesystem watcher", err)
	}
	defer watcher.Close()

	configPath := ""
	if opts.ConfigPath != "" {
		if abs, err := filepath.Abs(opts.ConfigPath); err == nil {
			configPath = abs
		}
	}
	watched := b.addWatches(watcher, configPath)
	if len(watched) == 0 {
		return services.Wrap(services.ErrConfiguration, "watch", "init", "no source directory could be watched", nil)
	}

	b.runWatchBuild(ctx, Options{Force: opts.Force, Trigger: "watch"}, opts.OnBuild)

	debounce := time.Duration(b.cfg.Watch.DebounceMillis) * time.Millisecond
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	pending := false
	reload := false

	for {
		select {
		case <-ctx.Done():
			b.logger.Info("watch stopped", logging.String(logging.FieldEventType, "watch_stop"))
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			relevant, isConfig := b.classifyEvent(event, configPath)
			if !relevant {
				continue
			}
			b.logger.Debug("source change detected",
				logging.String("path", event.Name),
				logging.String("op", event.Op.String()),
			)
			reload = reload || isConfig
			pending = true
			timer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(b.logger, "filesystem watcher error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "changes may be missed until the next event"),
			)

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			if reload {
				reload = false
				if b.reloadConfig(configPath) {
					watched = b.refreshWatches(watcher, watched, configPath)
				}
			}
			b.runWatchBuild(ctx, Options{Trigger: "watch"}, opts.OnBuild)
		}
	}
}

func (b *Builder) runWatchBuild(ctx context.Context, opts Options, onBuild func(*Summary, error)) {
	summary, err := b.Build(ctx, opts)
	if err != nil && errors.Is(err, context.Canceled) {
		return
	}
	if onBuild != nil {
		onBuild(summary, err)
	}
}

// classifyEvent reports whether the event should trigger a build and whether
// it touched the configuration file.
func (b *Builder) classifyEvent(event fsnotify.Event, configPath string) (bool, bool) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false, false
	}
	name := filepath.Clean(event.Name)
	if configPath != "" && name == configPath {
		return true, true
	}
	if isScratchFile(filepath.Base(name)) {
		return false, false
	}
	dir := filepath.Dir(name)
	return dir == filepath.Clean(b.cfg.Paths.EnglishDir) || dir == filepath.Clean(b.cfg.Paths.ChineseDir), false
}

// isScratchFile matches editor and office lock or swap files.
func isScratchFile(base string) bool {
	switch {
	case strings.HasPrefix(base, "~$"), strings.HasPrefix(base, ".~lock"), strings.HasPrefix(base, ".#"):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".tmp"):
		return true
	}
	return false
}

func (b *Builder) watchDirs(configPath string) []string {
	dirs := []string{b.cfg.Paths.EnglishDir, b.cfg.Paths.ChineseDir}
	if configPath != "" {
		dirs = append(dirs, filepath.Dir(configPath))
	}
	seen := make(map[string]struct{}, len(dirs))
	out := make([]string, 0, len(dirs))
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		dir = filepath.Clean(dir)
		if _, ok := seen[dir]; ok {
			continue
		}
		seen[dir] = struct{}{}
		out = append(out, dir)
	}
	return out
}

func (b *Builder) addWatches(watcher *fsnotify.Watcher, configPath string) map[string]struct{} {
	watched := make(map[string]struct{})
	for _, dir := range b.watchDirs(configPath) {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			logging.WarnWithContext(b.logger, "watch directory unavailable", "watch_dir_missing",
				logging.String("path", dir),
				logging.String(logging.FieldImpact, "changes in this directory are not watched"),
				logging.String(logging.FieldErrorHint, "create the directory and restart watch"),
			)
			continue
		}
		if err := watcher.Add(dir); err != nil {
			logging.WarnWithContext(b.logger, "failed to watch directory", "watch_add_failed",
				logging.String("path", dir),
				logging.Error(err),
				logging.String(logging.FieldImpact, "changes in this directory are not watched"),
			)
			continue
		}
		b.logger.Info("watching directory", logging.String("path", dir))
		watched[dir] = struct{}{}
	}
	return watched
}

func (b *Builder) refreshWatches(watcher *fsnotify.Watcher, watched map[string]struct{}, configPath string) map[string]struct{} {
	for dir := range watched {
		_ = watcher.Remove(dir)
	}
	return b.addWatches(watcher, configPath)
}

// reloadConfig swaps in the configuration at path. The state directory is
// pinned to the running ledger. It reports whether the config was replaced.
func (b *Builder) reloadConfig(path string) bool {
	cfg, _, exists, err := config.Load(path)
	if err == nil && !exists {
		err = errors.New("configuration file removed")
	}
	if err == nil {
		err = cfg.Validate()
	}
	if err != nil {
		logging.WarnWithContext(b.logger, "config reload failed", "config_reload_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "previous configuration stays in effect"),
			logging.String(logging.FieldErrorHint, "run 'scriptbook config validate'"),
		)
		return false
	}
	if cfg.Paths.StateDir != b.cfg.Paths.StateDir {
		logging.WarnWithContext(b.logger, "state_dir change ignored while watching", "config_reload_partial",
			logging.String("current", b.cfg.Paths.StateDir),
			logging.String("requested", cfg.Paths.StateDir),
			logging.String(logging.FieldImpact, "ledger location unchanged until restart"),
		)
		cfg.Paths.StateDir = b.cfg.Paths.StateDir
	}
	b.cfg = cfg
	b.logger.Info("configuration reloaded",
		logging.String("path", path),
		logging.String(logging.FieldEventType, "config_reloaded"),
	)
	return true
}
