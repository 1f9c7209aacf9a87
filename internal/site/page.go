package site

import (
	"bytes"
	"fmt"
	"path"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"scriptbook/internal/config"
	"scriptbook/internal/episode"
	"scriptbook/internal/language"
	"scriptbook/internal/segment"
	"scriptbook/internal/textutil"
)

const maxTitleSlug = 60

// Page is one episode page ready to render.
type Page struct {
	Number        episode.Number
	Title         string
	English       string
	Chinese       string
	EnglishSource string
	ChineseSource string
	File          string // path relative to the docs directory, slash separated
}

// FileName returns the page's base name within its season directory.
func (p Page) FileName() string {
	return path.Base(p.File)
}

// FrontMatter is the YAML header written above each page.
type FrontMatter struct {
	Title     string   `yaml:"title"`
	Season    int      `yaml:"season"`
	Episode   int      `yaml:"episode"`
	Slug      string   `yaml:"slug"`
	Languages []string `yaml:"languages,omitempty"`
	Sources   []string `yaml:"sources,omitempty"`
}

// Renderer turns pages and indexes into markdown.
type Renderer struct {
	siteTitle      string
	intro          string
	frontMatter    bool
	slugTitles     bool
	englishHeading string
	chineseHeading string
}

// NewRenderer builds a renderer from the site configuration.
func NewRenderer(cfg *config.Config) *Renderer {
	r := &Renderer{
		siteTitle:      cfg.Site.Title,
		intro:          cfg.Site.Intro,
		frontMatter:    cfg.Site.FrontMatter,
		slugTitles:     cfg.Site.SlugTitles,
		englishHeading: cfg.Site.EnglishHeading,
		chineseHeading: cfg.Site.ChineseHeading,
	}
	if r.englishHeading == "" {
		r.englishHeading = language.Heading(language.English)
	}
	if r.chineseHeading == "" {
		r.chineseHeading = language.Heading(language.Chinese)
	}
	return r
}

// PageTitle returns the display title for an episode: the label alone, or
// "label - english title" when the script's first line adds information.
func PageTitle(num episode.Number, english string) string {
	title := num.Label()
	if english == "" {
		return title
	}
	enTitle := segment.FindTitle(english)
	if enTitle != "" && !strings.Contains(strings.ToLower(title), strings.ToLower(enTitle)) {
		title = title + " - " + enTitle
	}
	return title
}

// NewPage assembles a page for num from its normalized texts.
func (r *Renderer) NewPage(num episode.Number, english, chinese, englishSource, chineseSource string) Page {
	page := Page{
		Number:        num,
		Title:         PageTitle(num, english),
		English:       english,
		Chinese:       chinese,
		EnglishSource: englishSource,
		ChineseSource: chineseSource,
	}
	name := num.Slug()
	if r.slugTitles && english != "" {
		if slug := textutil.TruncateSlug(textutil.Slugify(segment.FindTitle(english)), maxTitleSlug); slug != "" {
			name = name + "-" + slug
		}
	}
	page.File = path.Join(episode.SeasonDir(num.Season()), name+".md")
	return page
}

// RenderPage produces the markdown for one episode page.
func (r *Renderer) RenderPage(p Page) ([]byte, error) {
	var buf bytes.Buffer
	if r.frontMatter {
		header, err := r.frontMatterFor(p)
		if err != nil {
			return nil, err
		}
		buf.WriteString("---\n")
		buf.Write(header)
		buf.WriteString("---\n\n")
	}

	lines := []string{"# " + p.Title, ""}
	if p.English != "" {
		lines = append(lines, codeSection(r.englishHeading, p.English)...)
	}
	if p.Chinese != "" {
		lines = append(lines, codeSection(r.chineseHeading, p.Chinese)...)
	}
	body := strings.TrimRightFunc(strings.Join(lines, "\n"), unicode.IsSpace)
	buf.WriteString(body)
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

func (r *Renderer) frontMatterFor(p Page) ([]byte, error) {
	fm := FrontMatter{
		Title:   p.Title,
		Season:  p.Number.Season(),
		Episode: p.Number.Episode(),
		Slug:    p.Number.Slug(),
	}
	if p.English != "" {
		fm.Languages = append(fm.Languages, language.English)
		fm.Sources = append(fm.Sources, p.EnglishSource)
	}
	if p.Chinese != "" {
		fm.Languages = append(fm.Languages, language.Chinese)
		fm.Sources = append(fm.Sources, p.ChineseSource)
	}
	fm.Sources = compact(fm.Sources)
	out, err := yaml.Marshal(fm)
	if err != nil {
		return nil, fmt.Errorf("marshal front matter for %s: %w", p.Number.Slug(), err)
	}
	return out, nil
}

func codeSection(heading, text string) []string {
	fence := Fence(text)
	return []string{"## " + heading, "", fence + "text", text, fence, ""}
}

// Fence returns a backtick fence longer than any backtick run inside text,
// and at least three long.
func Fence(text string) string {
	longest, run := 0, 0
	for _, r := range text {
		if r == '`' {
			run++
			longest = max(longest, run)
			continue
		}
		run = 0
	}
	return strings.Repeat("`", max(3, longest+1))
}

func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
