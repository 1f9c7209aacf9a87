package source

import (
	"context"
	"sort"

	"scriptbook/internal/episode"
	"scriptbook/internal/extract"
	"scriptbook/internal/services"
)

// Document is the normalized text of one episode in one language.
type Document struct {
	Number episode.Number
	Text   string
	Source string // base name of the file the text came from
}

// Issue records a source document that was skipped or degraded.
type Issue struct {
	Source     string
	EpisodeKey string
	Err        error
}

// Kind classifies the issue for the ledger.
func (i Issue) Kind() string {
	return services.IssueKind(i.Err)
}

// Message returns the error text.
func (i Issue) Message() string {
	if i.Err == nil {
		return ""
	}
	return i.Err.Error()
}

// Set is everything loaded for one build.
type Set struct {
	English map[episode.Number]Document
	Chinese map[episode.Number]Document
	Issues  []Issue
}

// Numbers returns the sorted union of English and Chinese episode numbers.
func (s *Set) Numbers() []episode.Number {
	seen := make(map[episode.Number]struct{}, len(s.English)+len(s.Chinese))
	for n := range s.English {
		seen[n] = struct{}{}
	}
	for n := range s.Chinese {
		seen[n] = struct{}{}
	}
	out := make([]episode.Number, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// TextExtractor converts legacy documents; *extract.Extractor satisfies it.
type TextExtractor interface {
	Resolve() (extract.Converter, error)
	ExtractWith(ctx context.Context, conv extract.Converter, path string) (extract.Result, error)
}

// ExtractionCache stores converter output keyed by source hash; *ledger.Store satisfies it.
type ExtractionCache interface {
	LookupExtraction(ctx context.Context, sourceHash, converter string) (string, bool, error)
	SaveExtraction(ctx context.Context, sourceHash, converter, sourcePath, text string) error
}
