package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"scriptbook/internal/config"
	"scriptbook/internal/episode"
	"scriptbook/internal/extract"
	"scriptbook/internal/fileutil"
	"scriptbook/internal/logging"
	"scriptbook/internal/segment"
	"scriptbook/internal/services"
)

// Options tune a Loader.
type Options struct {
	Workers int

	// Cache, when set, is consulted before running a converter and filled afterwards.
	Cache ExtractionCache

	// Refresh ignores cached extractions but still stores fresh output.
	Refresh bool
}

// Loader reads source documents according to configuration.
type Loader struct {
	englishDir string
	chineseDir string
	pattern    string
	prefix     string
	extension  string
	splitter   *segment.Splitter
	extractor  TextExtractor
	opts       Options
	logger     *slog.Logger
}

// NewLoader builds a loader for the configured source directories.
func NewLoader(cfg *config.Config, extractor TextExtractor, logger *slog.Logger, opts Options) (*Loader, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "source", "init", "config is required", nil)
	}
	splitter, err := segment.NewSplitter(cfg.Sources.EpisodeMarker)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "source", "init", "", err)
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Loader{
		englishDir: cfg.Paths.EnglishDir,
		chineseDir: cfg.Paths.ChineseDir,
		pattern:    cfg.Sources.EnglishPattern,
		prefix:     cfg.Sources.ChinesePrefix,
		extension:  cfg.Sources.ChineseExtension,
		splitter:   splitter,
		extractor:  extractor,
		opts:       opts,
		logger:     logging.NewComponentLogger(logger, "source"),
	}, nil
}

// Load reads both languages. Only infrastructure failures (no converter,
// cancellation) are returned as errors; bad documents land in Set.Issues.
func (l *Loader) Load(ctx context.Context) (*Set, error) {
	english, enIssues, err := l.LoadEnglish(ctx)
	if err != nil {
		return nil, err
	}
	chinese, zhIssues, err := l.LoadChinese(ctx)
	if err != nil {
		return nil, err
	}
	return &Set{
		English: english,
		Chinese: chinese,
		Issues:  append(enIssues, zhIssues...),
	}, nil
}

// LoadEnglish reads every plain-text script in the English directory.
func (l *Loader) LoadEnglish(ctx context.Context) (map[episode.Number]Document, []Issue, error) {
	out := make(map[episode.Number]Document)
	if strings.TrimSpace(l.englishDir) == "" {
		return out, nil, nil
	}
	paths, err := filepath.Glob(filepath.Join(l.englishDir, l.pattern))
	if err != nil {
		return nil, nil, services.Wrap(services.ErrConfiguration, "source", "english glob", l.pattern, err)
	}
	if len(paths) == 0 && !dirExists(l.englishDir) {
		logging.WarnWithContext(l.logger, "english source directory missing", "source_dir_missing",
			logging.String("dir", l.englishDir),
			logging.String(logging.FieldImpact, "no english text will be published"),
			logging.String(logging.FieldErrorHint, "check paths.english_dir"),
		)
		return out, nil, nil
	}
	sort.Strings(paths)

	var issues []Issue
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		name := filepath.Base(path)
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		num, err := episode.ParseNumber(stem)
		if err != nil {
			issues = append(issues, l.skip(name, "", services.Wrap(services.ErrValidation, "source", "english", "", err)))
			continue
		}
		text, err := extract.ReadText(path)
		if err != nil {
			issues = append(issues, l.skip(name, num.Slug(), services.Wrap(services.ErrNotFound, "source", "english", "read", err)))
			continue
		}
		out[num] = Document{Number: num, Text: segment.NormalizeBlock(text), Source: name}
	}
	l.logger.Debug("english scripts loaded",
		logging.Int("documents", len(out)),
		logging.Int("skipped", len(issues)),
	)
	return out, issues, nil
}

type chineseJob struct {
	path    string
	name    string
	start   episode.Number
	end     episode.Number
	isRange bool

	text string
	err  error
}

// LoadChinese extracts and segments every legacy document in the Chinese
// directory. Single-episode documents are applied first, then range
// documents in name order, so ranges win on overlap.
func (l *Loader) LoadChinese(ctx context.Context) (map[episode.Number]Document, []Issue, error) {
	out := make(map[episode.Number]Document)
	if strings.TrimSpace(l.chineseDir) == "" {
		return out, nil, nil
	}
	entries, err := os.ReadDir(l.chineseDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logging.WarnWithContext(l.logger, "chinese source directory missing", "source_dir_missing",
				logging.String("dir", l.chineseDir),
				logging.String(logging.FieldImpact, "no chinese text will be published"),
				logging.String(logging.FieldErrorHint, "check paths.chinese_dir"),
			)
			return out, nil, nil
		}
		return nil, nil, services.Wrap(services.ErrConfiguration, "source", "chinese list", l.chineseDir, err)
	}

	var (
		singles []*chineseJob
		ranges  []*chineseJob
		issues  []Issue
	)
	for _, entry := range entries {
		if entry.IsDir() || !l.isChineseDocument(entry.Name()) {
			continue
		}
		name := entry.Name()
		job := &chineseJob{path: filepath.Join(l.chineseDir, name), name: name}
		rest := strings.TrimPrefix(name, l.prefix)
		if episode.HasRange(rest) {
			start, end, err := episode.ParseRange(rest)
			if err != nil {
				issues = append(issues, l.skip(name, "", services.Wrap(services.ErrValidation, "source", "chinese range", "", err)))
				continue
			}
			job.start, job.end, job.isRange = start, end, true
			ranges = append(ranges, job)
			continue
		}
		num, ok := episode.FindNumber(rest)
		if !ok {
			continue
		}
		job.start, job.end = num, num
		singles = append(singles, job)
	}
	sort.Slice(singles, func(i, j int) bool { return singles[i].name < singles[j].name })
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].name < ranges[j].name })

	jobs := append(append([]*chineseJob(nil), singles...), ranges...)
	if len(jobs) == 0 {
		return out, issues, nil
	}

	conv, err := l.extractor.Resolve()
	if err != nil {
		return nil, nil, err
	}
	if err := l.extractAll(ctx, conv, jobs); err != nil {
		return nil, nil, err
	}

	for _, job := range jobs {
		if job.err != nil {
			issues = append(issues, l.skip(job.name, job.start.Slug(), job.err))
			continue
		}
		if !job.isRange {
			out[job.start] = Document{Number: job.start, Text: segment.NormalizeBlock(job.text), Source: job.name}
			continue
		}
		if issue, degraded := l.applyRange(out, job); degraded {
			issues = append(issues, issue)
		}
	}
	l.logger.Debug("chinese scripts loaded",
		logging.String("converter", conv.Name),
		logging.Int("documents", len(jobs)),
		logging.Int("episodes", len(out)),
		logging.Int("skipped", len(issues)),
	)
	return out, issues, nil
}

func (l *Loader) applyRange(out map[episode.Number]Document, job *chineseJob) (Issue, bool) {
	expected := episode.Span(job.start, job.end)
	raw := l.splitter.Split(job.text)
	if len(raw) != len(expected) {
		err := services.Wrap(services.ErrValidation, "source", "split",
			fmt.Sprintf("found %d episode headings, expected %d; whole document attached to %s", len(raw), len(expected), job.start.Label()), nil)
		logging.WarnWithContext(l.logger, "range document not split", "range_split_mismatch",
			logging.String(logging.FieldSource, job.name),
			logging.String(logging.FieldEpisodeKey, job.start.Slug()),
			logging.Int("chunks", len(raw)),
			logging.Int("expected", len(expected)),
			logging.String(logging.FieldImpact, "range text published on the first episode only"),
			logging.String(logging.FieldErrorHint, "check the episode headings in the document"),
		)
		out[job.start] = Document{Number: job.start, Text: segment.NormalizeBlock(job.text), Source: job.name}
		return Issue{Source: job.name, EpisodeKey: job.start.Slug(), Err: err}, true
	}
	for i, num := range expected {
		out[num] = Document{Number: num, Text: segment.NormalizeBlock(raw[i]), Source: job.name}
	}
	return Issue{}, false
}

func (l *Loader) extractAll(ctx context.Context, conv extract.Converter, jobs []*chineseJob) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.opts.Workers)
	for _, job := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			job.text, job.err = l.extractDocument(gctx, conv, job.path)
			if job.err != nil && gctx.Err() != nil {
				return gctx.Err()
			}
			return nil
		})
	}
	return g.Wait()
}

func (l *Loader) extractDocument(ctx context.Context, conv extract.Converter, path string) (string, error) {
	var hash string
	if l.opts.Cache != nil {
		sum, err := fileutil.HashFile(path)
		if err != nil {
			return "", services.Wrap(services.ErrNotFound, "source", "hash", filepath.Base(path), err)
		}
		hash = sum
		if !l.opts.Refresh {
			text, ok, err := l.opts.Cache.LookupExtraction(ctx, hash, conv.Name)
			if err != nil {
				l.logger.Warn("extraction cache lookup failed",
					logging.String(logging.FieldSource, path),
					logging.Error(err),
					logging.String(logging.FieldEventType, "extraction_cache_error"),
					logging.String(logging.FieldErrorHint, "delete the state directory if the ledger is corrupt"),
					logging.String(logging.FieldImpact, "document re-extracted"),
				)
			} else if ok {
				l.logger.Debug("extraction cache hit", logging.String(logging.FieldSource, path))
				return text, nil
			}
		}
	}

	res, err := l.extractor.ExtractWith(ctx, conv, path)
	if err != nil {
		return "", err
	}
	if l.opts.Cache != nil {
		if err := l.opts.Cache.SaveExtraction(ctx, hash, conv.Name, filepath.Base(path), res.Text); err != nil {
			l.logger.Warn("extraction cache store failed",
				logging.String(logging.FieldSource, path),
				logging.Error(err),
				logging.String(logging.FieldEventType, "extraction_cache_error"),
				logging.String(logging.FieldErrorHint, "check state_dir permissions"),
				logging.String(logging.FieldImpact, "next build re-extracts this document"),
			)
		}
	}
	return res.Text, nil
}

func (l *Loader) isChineseDocument(name string) bool {
	if !strings.EqualFold(filepath.Ext(name), l.extension) {
		return false
	}
	return strings.HasPrefix(name, l.prefix)
}

func (l *Loader) skip(source, key string, err error) Issue {
	attrs := []logging.Attr{
		logging.String(logging.FieldSource, source),
		logging.String("issue_kind", services.IssueKind(err)),
		logging.Error(err),
	}
	if key != "" {
		attrs = append(attrs, logging.String(logging.FieldEpisodeKey, key))
	}
	logging.WarnWithContext(l.logger, "source document skipped", "source_skipped", attrs...)
	return Issue{Source: source, EpisodeKey: key, Err: err}
}

func dirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
