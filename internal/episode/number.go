package episode

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// Number is a three-digit episode identifier such as 101 (season 1, episode 1).
type Number int

var (
	stemPattern  = regexp.MustCompile(`^(\d{3})$`)
	rangePattern = regexp.MustCompile(`(\d{3})-(\d{3})`)
	digitPattern = regexp.MustCompile(`(\d{3})`)
)

// ErrBadName reports a file name that does not carry an episode number.
var ErrBadName = errors.New("unexpected episode file name")

// ParseNumber parses a file stem that must consist of exactly three digits.
// Full-width digits are folded to ASCII first.
func ParseNumber(stem string) (Number, error) {
	folded := width.Fold.String(strings.TrimSpace(stem))
	m := stemPattern.FindStringSubmatch(folded)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrBadName, stem)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrBadName, stem)
	}
	return Number(n), nil
}

// FindNumber returns the first three-digit run in name.
func FindNumber(name string) (Number, bool) {
	m := digitPattern.FindStringSubmatch(width.Fold.String(name))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return Number(n), true
}

// HasRange reports whether name contains an NNN-MMM range.
func HasRange(name string) bool {
	return rangePattern.MatchString(width.Fold.String(name))
}

// ParseRange extracts the inclusive NNN-MMM range from a file name.
func ParseRange(name string) (Number, Number, error) {
	m := rangePattern.FindStringSubmatch(width.Fold.String(name))
	if m == nil {
		return 0, 0, fmt.Errorf("%w: no range in %q", ErrBadName, name)
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	if start > end {
		return 0, 0, fmt.Errorf("%w: range %d-%d is inverted in %q", ErrBadName, start, end, name)
	}
	return Number(start), Number(end), nil
}

// Span lists every number in the inclusive range.
func Span(start, end Number) []Number {
	if end < start {
		return nil
	}
	out := make([]Number, 0, int(end-start)+1)
	for n := start; n <= end; n++ {
		out = append(out, n)
	}
	return out
}

// Season returns the season component.
func (n Number) Season() int {
	return int(n) / 100
}

// Episode returns the episode-within-season component.
func (n Number) Episode() int {
	return int(n) % 100
}

// Slug returns the lowercase page key, e.g. s01e05.
func (n Number) Slug() string {
	return Key(n.Season(), n.Episode())
}

// Label returns the display label, e.g. S01E05.
func (n Number) Label() string {
	return fmt.Sprintf("S%02dE%02d", n.Season(), n.Episode())
}

func (n Number) String() string {
	return fmt.Sprintf("%03d", int(n))
}

// Key formats a season/episode pair as sSSeEE.
func Key(season, ep int) string {
	return fmt.Sprintf("s%02de%02d", season, ep)
}

// SeasonDir returns the output directory name for a season.
func SeasonDir(season int) string {
	return fmt.Sprintf("season-%02d", season)
}

var keyPattern = regexp.MustCompile(`^s(\d{2})e(\d{2})`)

// ParseKey parses the leading sSSeEE of a page key or file name.
func ParseKey(key string) (Number, bool) {
	m := keyPattern.FindStringSubmatch(strings.ToLower(strings.TrimSpace(key)))
	if m == nil {
		return 0, false
	}
	season, _ := strconv.Atoi(m[1])
	ep, _ := strconv.Atoi(m[2])
	if season <= 0 || season > 9 {
		return 0, false
	}
	return Number(season*100 + ep), true
}
