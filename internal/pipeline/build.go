package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"scriptbook/internal/config"
	"scriptbook/internal/episode"
	"scriptbook/internal/fileutil"
	"scriptbook/internal/ledger"
	"scriptbook/internal/logging"
	"scriptbook/internal/nav"
	"scriptbook/internal/services"
	"scriptbook/internal/site"
	"scriptbook/internal/source"
)

// ErrBuildInProgress reports that another process holds the build lock.
var ErrBuildInProgress = errors.New("another build is running")

// Options control a single build.
type Options struct {
	// Force ignores cached extractions and re-runs the converter for every document.
	Force bool

	// DryRun computes the summary without touching the docs tree, nav, or ledger.
	DryRun bool

	// Trigger is recorded with the run ("build", "watch").
	Trigger string
}

// Builder runs builds against one configuration.
type Builder struct {
	cfg       *config.Config
	store     *ledger.Store
	extractor source.TextExtractor
	logger    *slog.Logger
}

// NewBuilder wires a builder. The store must be open for the builder's lifetime.
func NewBuilder(cfg *config.Config, store *ledger.Store, extractor source.TextExtractor, logger *slog.Logger) *Builder {
	return &Builder{
		cfg:       cfg,
		store:     store,
		extractor: extractor,
		logger:    logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Build performs one full build and returns its summary.
func (b *Builder) Build(ctx context.Context, opts Options) (*Summary, error) {
	if b.cfg == nil || b.store == nil || b.extractor == nil {
		return nil, services.Wrap(services.ErrConfiguration, "build", "init", "builder is not fully configured", nil)
	}
	if opts.Trigger == "" {
		opts.Trigger = "build"
	}
	started := time.Now()
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	logger := b.logger.With(logging.String(logging.FieldRunID, runID))

	if !opts.DryRun {
		if err := b.cfg.EnsureDirectories(); err != nil {
			return nil, services.Wrap(services.ErrConfiguration, "build", "prepare", "", err)
		}
		lock := flock.New(b.cfg.LockPath())
		ok, err := lock.TryLock()
		if err != nil {
			return nil, fmt.Errorf("acquire build lock: %w", err)
		}
		if !ok {
			return nil, fmt.Errorf("%w (lock %s)", ErrBuildInProgress, b.cfg.LockPath())
		}
		defer func() {
			if err := lock.Unlock(); err != nil {
				logger.Warn("failed to release build lock",
					logging.Error(err),
					logging.String(logging.FieldEventType, "lock_release_failed"),
					logging.String(logging.FieldErrorHint, "remove "+b.cfg.LockPath()+" if no build is running"),
					logging.String(logging.FieldImpact, "next build may report a running build"),
				)
			}
		}()
		if _, err := b.store.BeginRun(ctx, runID, opts.Trigger); err != nil {
			return nil, err
		}
	}

	logger.Info("build started",
		logging.String(logging.FieldEventType, "build_start"),
		logging.String("trigger", opts.Trigger),
		logging.Bool("dry_run", opts.DryRun),
		logging.Bool("force", opts.Force),
	)

	summary, err := b.build(ctx, logger, runID, opts)
	if err != nil {
		if !opts.DryRun {
			counts := ledger.RunCounts{}
			if summary != nil {
				counts = ledger.RunCounts{Written: summary.Written, Unchanged: summary.Unchanged, Pruned: summary.Pruned, Issues: len(summary.Issues)}
			}
			if finishErr := b.store.FinishRun(context.WithoutCancel(ctx), runID, ledger.RunFailed, counts, err.Error()); finishErr != nil {
				logger.Warn("failed to record run failure", logging.Error(finishErr))
			}
		}
		logging.ErrorWithContext(logger, "build failed", "build_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run 'scriptbook check' to inspect converters and directories"),
		)
		return nil, err
	}
	summary.Duration = time.Since(started)

	if !opts.DryRun {
		counts := ledger.RunCounts{Written: summary.Written, Unchanged: summary.Unchanged, Pruned: summary.Pruned, Issues: len(summary.Issues)}
		if err := b.store.FinishRun(ctx, runID, ledger.RunSucceeded, counts, ""); err != nil {
			return nil, err
		}
	}

	logger.Info("build complete",
		logging.String(logging.FieldEventType, "build_complete"),
		logging.Int("pages", summary.Pages()),
		logging.Int("written", summary.Written),
		logging.Int("unchanged", summary.Unchanged),
		logging.Int("pruned", summary.Pruned),
		logging.Int("issues", len(summary.Issues)),
		logging.Duration("elapsed", summary.Duration),
	)
	return summary, nil
}

func (b *Builder) build(ctx context.Context, logger *slog.Logger, runID string, opts Options) (*Summary, error) {
	summary := &Summary{RunID: runID, DryRun: opts.DryRun}

	previous, err := b.store.ListPages(ctx)
	if err != nil {
		return nil, err
	}

	loaderOpts := source.Options{Workers: b.cfg.Extract.Workers, Refresh: opts.Force}
	if b.cfg.Extract.Cache && !opts.DryRun {
		loaderOpts.Cache = b.store
	}
	loader, err := source.NewLoader(b.cfg, b.extractor, logger, loaderOpts)
	if err != nil {
		return nil, err
	}
	set, err := loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	summary.Issues = summarizeIssues(set.Issues)
	if !opts.DryRun {
		for _, issue := range set.Issues {
			if err := b.store.RecordIssue(ctx, ledger.Issue{
				RunID:      runID,
				Source:     issue.Source,
				EpisodeKey: issue.EpisodeKey,
				Kind:       issue.Kind(),
				Message:    issue.Message(),
			}); err != nil {
				return summary, err
			}
		}
	}

	catalog := episode.NewCatalog(b.cfg.Seasons)
	grouped, outside := catalog.Group(set.Numbers())
	for _, n := range outside {
		summary.Skipped = append(summary.Skipped, n.Label())
		logger.Info("episode outside season catalog",
			logging.Args(append(logging.DecisionAttrs("catalog_filter", "skipped", "season not configured"),
				logging.String(logging.FieldEpisodeKey, n.Slug()),
				logging.Int(logging.FieldSeason, n.Season()),
			)...)...,
		)
	}

	renderer := site.NewRenderer(b.cfg)
	writer := site.NewWriter(b.cfg.Paths.DocsDir, opts.DryRun)
	produced := make(map[string]string)
	var manifest []nav.Season

	for _, season := range catalog.Seasons() {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		nums := grouped[season]
		pages := make([]site.Page, 0, len(nums))
		present := make(map[episode.Number]bool, len(nums))
		for _, n := range nums {
			en, zh := set.English[n], set.Chinese[n]
			page := renderer.NewPage(n, en.Text, zh.Text, en.Source, zh.Source)
			data, err := renderer.RenderPage(page)
			if err != nil {
				return summary, err
			}
			changed, err := writer.Write(page.File, data)
			if err != nil {
				return summary, services.Wrap(services.ErrTransient, "build", "write page", page.File, err)
			}
			if changed {
				summary.Written++
			} else {
				summary.Unchanged++
			}
			if !opts.DryRun {
				if err := b.store.UpsertPage(ctx, ledger.Page{
					Slug:          n.Slug(),
					Season:        n.Season(),
					Episode:       n.Episode(),
					Path:          page.File,
					Title:         page.Title,
					ContentHash:   fileutil.HashBytes(data),
					HasEnglish:    en.Text != "",
					HasChinese:    zh.Text != "",
					EnglishSource: en.Source,
					ChineseSource: zh.Source,
					RunID:         runID,
				}); err != nil {
					return summary, err
				}
			}
			logger.Debug("page rendered",
				logging.String(logging.FieldEpisodeKey, n.Slug()),
				logging.String("file", page.File),
				logging.Bool("changed", changed),
			)
			produced[n.Slug()] = page.File
			present[n] = true
			pages = append(pages, page)
		}

		if _, err := writer.Write(site.SeasonIndexPath(season), renderer.RenderSeasonIndex(season, pages)); err != nil {
			return summary, services.Wrap(services.ErrTransient, "build", "write season index", site.SeasonIndexPath(season), err)
		}
		summary.Seasons = append(summary.Seasons, SeasonCount{
			Season:  season,
			Pages:   len(pages),
			Missing: labels(catalog.Missing(season, present)),
		})
		manifest = append(manifest, navSeason(season, pages))
	}

	if _, err := writer.Write(site.RootIndexPath, renderer.RenderRootIndex(catalog.Seasons())); err != nil {
		return summary, services.Wrap(services.ErrTransient, "build", "write root index", site.RootIndexPath, err)
	}

	pruned, err := b.prune(ctx, logger, writer, catalog, previous, produced, opts.DryRun)
	summary.Pruned = pruned
	if err != nil {
		return summary, err
	}

	if mkdocs := b.cfg.MkDocsPath(); mkdocs != "" {
		updated, err := nav.Update(mkdocs, nav.Manifest{
			SiteName: b.cfg.Site.Title,
			DocsDir:  nav.RelativeDocsDir(mkdocs, b.cfg.Paths.DocsDir),
			Home:     site.RootIndexPath,
			Seasons:  manifest,
		}, opts.DryRun)
		if err != nil {
			return summary, services.Wrap(services.ErrValidation, "build", "update nav", mkdocs, err)
		}
		summary.NavUpdated = updated
	}
	return summary, nil
}

// prune removes pages recorded by earlier runs that this run did not produce
// at the same path.
func (b *Builder) prune(ctx context.Context, logger *slog.Logger, writer *site.Writer, catalog episode.Catalog, previous []ledger.Page, produced map[string]string, dryRun bool) (int, error) {
	pruned := 0
	dropped := make(map[int]struct{})
	for _, page := range previous {
		file, ok := produced[page.Slug]
		if ok && file == page.Path {
			continue
		}
		if err := writer.Remove(page.Path); err != nil {
			return pruned, services.Wrap(services.ErrTransient, "build", "prune", page.Path, err)
		}
		pruned++
		if !ok {
			if !dryRun {
				if err := b.store.DeletePage(ctx, page.Slug); err != nil {
					return pruned, err
				}
			}
			if !catalog.Contains(episode.Number(page.Season*100 + page.Episode)) {
				dropped[page.Season] = struct{}{}
			}
		}
		logger.Info("stale page pruned",
			logging.String(logging.FieldEpisodeKey, page.Slug),
			logging.String("file", page.Path),
			logging.String(logging.FieldEventType, "page_pruned"),
		)
	}
	for season := range dropped {
		if err := writer.Remove(site.SeasonIndexPath(season)); err != nil {
			return pruned, services.Wrap(services.ErrTransient, "build", "prune", site.SeasonIndexPath(season), err)
		}
	}
	return pruned, nil
}

func navSeason(season int, pages []site.Page) nav.Season {
	entry := nav.Season{Number: season, Overview: site.SeasonIndexPath(season)}
	for _, p := range pages {
		entry.Pages = append(entry.Pages, nav.Entry{Title: p.Title, Path: p.File})
	}
	return entry
}

func labels(nums []episode.Number) []string {
	if len(nums) == 0 {
		return nil
	}
	out := make([]string, 0, len(nums))
	for _, n := range nums {
		out = append(out, n.Label())
	}
	return out
}
