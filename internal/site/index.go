package site

import (
	"fmt"
	"strings"

	"scriptbook/internal/episode"
)

// RenderRootIndex lists every published season.
func (r *Renderer) RenderRootIndex(seasons []int) []byte {
	lines := []string{"# " + r.siteTitle, ""}
	if r.intro != "" {
		lines = append(lines, r.intro, "")
	}
	for _, season := range seasons {
		lines = append(lines, fmt.Sprintf("- [Season %d](%s/index.md)", season, episode.SeasonDir(season)))
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}

// RenderSeasonIndex lists the season's pages in the given order.
func (r *Renderer) RenderSeasonIndex(season int, pages []Page) []byte {
	lines := []string{fmt.Sprintf("# Season %d", season), ""}
	for _, p := range pages {
		lines = append(lines, fmt.Sprintf("- [%s](./%s)", p.Number.Label(), p.FileName()))
	}
	return []byte(strings.Join(lines, "\n") + "\n")
}

// SeasonIndexPath returns the docs-relative path of a season index.
func SeasonIndexPath(season int) string {
	return episode.SeasonDir(season) + "/index.md"
}

// RootIndexPath is the docs-relative path of the root index.
const RootIndexPath = "index.md"
