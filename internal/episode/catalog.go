package episode

import (
	"sort"

	"scriptbook/internal/config"
)

// Catalog is the ordered set of published seasons.
type Catalog struct {
	seasons []config.Season
}

// NewCatalog builds a catalog from configured seasons.
func NewCatalog(seasons []config.Season) Catalog {
	cp := append([]config.Season(nil), seasons...)
	sort.SliceStable(cp, func(i, j int) bool { return cp[i].Number < cp[j].Number })
	return Catalog{seasons: cp}
}

// Seasons returns the season numbers in ascending order.
func (c Catalog) Seasons() []int {
	out := make([]int, 0, len(c.seasons))
	for _, s := range c.seasons {
		out = append(out, s.Number)
	}
	return out
}

// Contains reports whether the number's season is published.
func (c Catalog) Contains(n Number) bool {
	for _, s := range c.seasons {
		if s.Number == n.Season() {
			return true
		}
	}
	return false
}

// Expected lists the catalog's declared episode numbers for a season.
func (c Catalog) Expected(season int) []Number {
	for _, s := range c.seasons {
		if s.Number == season {
			return Span(Number(s.First), Number(s.Last))
		}
	}
	return nil
}

// Missing returns declared numbers of the season that are absent from present.
func (c Catalog) Missing(season int, present map[Number]bool) []Number {
	var out []Number
	for _, n := range c.Expected(season) {
		if !present[n] {
			out = append(out, n)
		}
	}
	return out
}

// Group buckets numbers by published season; numbers outside the catalog are
// returned separately. Each bucket is sorted ascending and every catalog season
// has an entry, possibly empty.
func (c Catalog) Group(numbers []Number) (map[int][]Number, []Number) {
	grouped := make(map[int][]Number, len(c.seasons))
	for _, s := range c.seasons {
		grouped[s.Number] = []Number{}
	}
	var outside []Number
	for _, n := range numbers {
		if _, ok := grouped[n.Season()]; !ok {
			outside = append(outside, n)
			continue
		}
		grouped[n.Season()] = append(grouped[n.Season()], n)
	}
	for season := range grouped {
		list := grouped[season]
		sort.Slice(list, func(i, j int) bool { return list[i] < list[j] })
	}
	return grouped, outside
}
