package verify

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"scriptbook/internal/episode"
	"scriptbook/internal/language"
	"scriptbook/internal/logging"
	"scriptbook/internal/nav"
	"scriptbook/internal/site"
	"scriptbook/internal/textutil"
)

// DefaultThreshold is the cosine similarity at which adjacent Chinese
// sections are reported as duplicates.
const DefaultThreshold = 0.95

// Finding kinds.
const (
	KindBrokenLink    = "broken_link"
	KindFrontMatter   = "front_matter"
	KindNearDuplicate = "near_duplicate"
	KindNavMissing    = "nav_missing"
	KindUnreadable    = "unreadable"
)

// Finding is one problem in the docs tree.
type Finding struct {
	Kind   string `json:"kind"`
	Path   string `json:"path"`
	Detail string `json:"detail"`
}

// Report summarizes a verification pass.
type Report struct {
	Pages    int       `json:"pages"`
	Links    int       `json:"links"`
	Findings []Finding `json:"findings"`
}

// OK reports whether no findings were produced.
func (r *Report) OK() bool {
	return r != nil && len(r.Findings) == 0
}

// Options configure a verification pass.
type Options struct {
	DocsDir        string
	MkDocsConfig   string // optional; nav entries are checked when set
	ChineseHeading string
	Threshold      float64
	Logger         *slog.Logger
}

type episodePage struct {
	number  episode.Number
	rel     string
	chinese string
}

// Run walks the docs tree and returns every finding. Only an unreadable docs
// directory or cancellation is returned as an error.
func Run(ctx context.Context, opts Options) (*Report, error) {
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.ChineseHeading == "" {
		opts.ChineseHeading = language.Heading(language.Chinese)
	}
	logger := logging.NewComponentLogger(opts.Logger, "verify")

	var files []string
	err := filepath.WalkDir(opts.DocsDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".md") {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk docs dir: %w", err)
	}
	sort.Strings(files)

	report := &Report{}
	md := goldmark.New()
	var episodes []episodePage
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel, _ := filepath.Rel(opts.DocsDir, file)
		rel = filepath.ToSlash(rel)
		report.Pages++

		raw, err := os.ReadFile(file)
		if err != nil {
			report.add(KindUnreadable, rel, err.Error())
			continue
		}
		var fm site.FrontMatter
		body, err := frontmatter.Parse(bytes.NewReader(raw), &fm)
		if err != nil {
			report.add(KindFrontMatter, rel, fmt.Sprintf("parse front matter: %v", err))
			body = raw
		}

		num, isEpisode := episode.ParseKey(path.Base(rel))
		if isEpisode {
			checkFrontMatter(report, rel, num, fm)
		}

		doc := md.Parser().Parse(text.NewReader(body))
		sections := walkPage(doc, body, func(dest string) {
			report.Links++
			if target, ok := localTarget(rel, dest); ok {
				if _, err := os.Stat(filepath.Join(opts.DocsDir, filepath.FromSlash(target))); err != nil {
					report.add(KindBrokenLink, rel, fmt.Sprintf("link %q does not resolve", dest))
				}
			}
		})
		if isEpisode {
			episodes = append(episodes, episodePage{number: num, rel: rel, chinese: sections[opts.ChineseHeading]})
		}
	}

	checkDuplicates(report, episodes, opts.Threshold)
	if opts.MkDocsConfig != "" {
		checkNav(report, opts.MkDocsConfig, opts.DocsDir)
	}

	logger.Info("docs verified",
		logging.Int("pages", report.Pages),
		logging.Int("links", report.Links),
		logging.Int("findings", len(report.Findings)),
		logging.String(logging.FieldEventType, "verify_complete"),
	)
	return report, nil
}

func (r *Report) add(kind, rel, detail string) {
	r.Findings = append(r.Findings, Finding{Kind: kind, Path: rel, Detail: detail})
}

func checkFrontMatter(report *Report, rel string, num episode.Number, fm site.FrontMatter) {
	if fm.Slug == "" && fm.Season == 0 && fm.Episode == 0 {
		return
	}
	if fm.Season != num.Season() || fm.Episode != num.Episode() {
		report.add(KindFrontMatter, rel, fmt.Sprintf("front matter says season %d episode %d, file name says %s", fm.Season, fm.Episode, num.Label()))
	}
	if fm.Slug != "" && fm.Slug != num.Slug() {
		report.add(KindFrontMatter, rel, fmt.Sprintf("front matter slug %q does not match %s", fm.Slug, num.Slug()))
	}
}

// walkPage reports every link and image destination to onLink and returns the
// text of fenced code blocks keyed by the preceding level-2 heading.
func walkPage(doc ast.Node, source []byte, onLink func(string)) map[string]string {
	sections := make(map[string]string)
	var current string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			if node.Level == 2 {
				current = strings.TrimSpace(string(node.Text(source)))
			}
		case *ast.Link:
			onLink(string(node.Destination))
		case *ast.Image:
			onLink(string(node.Destination))
		case *ast.FencedCodeBlock:
			if current == "" {
				break
			}
			var buf strings.Builder
			lines := node.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				buf.Write(seg.Value(source))
			}
			sections[current] += buf.String()
		}
		return ast.WalkContinue, nil
	})
	return sections
}

// localTarget resolves a link destination against the page's directory.
// External URLs and pure fragments are not local.
func localTarget(pageRel, dest string) (string, bool) {
	dest = strings.TrimSpace(dest)
	if dest == "" || strings.HasPrefix(dest, "#") {
		return "", false
	}
	u, err := url.Parse(dest)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return "", false
	}
	p := u.Path
	if p == "" {
		return "", false
	}
	if strings.HasPrefix(p, "/") {
		return strings.TrimPrefix(path.Clean(p), "/"), true
	}
	return path.Join(path.Dir(pageRel), p), true
}

func checkDuplicates(report *Report, pages []episodePage, threshold float64) {
	sort.Slice(pages, func(i, j int) bool { return pages[i].number < pages[j].number })

	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.chinese
	}
	prints := textutil.WeightedFingerprints(texts)

	for i := 1; i < len(pages); i++ {
		prev, cur := pages[i-1], pages[i]
		if prev.number.Season() != cur.number.Season() || cur.number != prev.number+1 {
			continue
		}
		sim := prints[i-1].Similarity(prints[i])
		if sim >= threshold {
			report.add(KindNearDuplicate, cur.rel,
				fmt.Sprintf("chinese text is %.0f%% similar to %s; check the range split", sim*100, prev.number.Label()))
		}
	}
}

func checkNav(report *Report, configPath, docsDir string) {
	entries, err := nav.Read(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return
		}
		report.add(KindNavMissing, filepath.Base(configPath), err.Error())
		return
	}
	for _, entry := range entries {
		target, ok := localTarget("index.md", entry.Path)
		if !ok {
			continue
		}
		if _, err := os.Stat(filepath.Join(docsDir, filepath.FromSlash(target))); err != nil {
			report.add(KindNavMissing, filepath.Base(configPath), fmt.Sprintf("nav entry %q points at missing %s", entry.Title, entry.Path))
		}
	}
}
