package segment

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizeBlock right-trims every line and removes leading and trailing blank lines.
func NormalizeBlock(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRightFunc(line, unicode.IsSpace)
	}
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	return strings.Join(lines[start:end], "\n")
}

// FindTitle returns the first non-blank line with internal whitespace collapsed.
func FindTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		stripped := strings.TrimSpace(line)
		if stripped != "" {
			return whitespaceRun.ReplaceAllString(stripped, " ")
		}
	}
	return ""
}

// Splitter cuts a document at episode heading lines.
type Splitter struct {
	marker *regexp.Regexp
}

// NewSplitter compiles the episode heading pattern.
func NewSplitter(pattern string) (*Splitter, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile episode marker: %w", err)
	}
	return &Splitter{marker: re}, nil
}

// IsMarker reports whether line starts a new episode.
func (s *Splitter) IsMarker(line string) bool {
	return isMarker(s.marker, line)
}

// Split cuts text at the splitter's marker. See SplitEpisodes.
func (s *Splitter) Split(text string) []string {
	return SplitEpisodes(text, s.marker)
}

// Full-width forms are folded so "第１回" and "第1回" behave alike.
func isMarker(marker *regexp.Regexp, line string) bool {
	return marker.MatchString(width.Fold.String(strings.TrimSpace(line)))
}

// SplitEpisodes returns one chunk per episode heading. Text before the first
// heading is discarded; a document without headings is returned whole.
func SplitEpisodes(text string, marker *regexp.Regexp) []string {
	lines := strings.Split(text, "\n")
	var starts []int
	for i, line := range lines {
		if isMarker(marker, line) {
			starts = append(starts, i)
		}
	}
	if len(starts) == 0 {
		return []string{text}
	}
	chunks := make([]string, 0, len(starts))
	for idx, start := range starts {
		end := len(lines)
		if idx+1 < len(starts) {
			end = starts[idx+1]
		}
		chunks = append(chunks, strings.Join(lines[start:end], "\n"))
	}
	return chunks
}
