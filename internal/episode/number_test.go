package episode_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"scriptbook/internal/config"
	"scriptbook/internal/episode"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		stem    string
		want    episode.Number
		wantErr bool
	}{
		{"101", 101, false},
		{" 215 ", 215, false},
		{"３０１", 301, false},
		{"1010", 0, true},
		{"ep101", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.stem, func(t *testing.T) {
			got, err := episode.ParseNumber(tt.stem)
			if tt.wantErr {
				if !errors.Is(err, episode.ErrBadName) {
					t.Fatalf("expected ErrBadName, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseNumber(%q): %v", tt.stem, err)
			}
			if got != tt.want {
				t.Fatalf("ParseNumber(%q) = %d, want %d", tt.stem, got, tt.want)
			}
		})
	}
}

func TestNumberComponents(t *testing.T) {
	n := episode.Number(305)
	if n.Season() != 3 || n.Episode() != 5 {
		t.Fatalf("unexpected components %d/%d", n.Season(), n.Episode())
	}
	if n.Slug() != "s03e05" {
		t.Fatalf("unexpected slug %q", n.Slug())
	}
	if n.Label() != "S03E05" {
		t.Fatalf("unexpected label %q", n.Label())
	}
	if episode.SeasonDir(3) != "season-03" {
		t.Fatalf("unexpected season dir %q", episode.SeasonDir(3))
	}
}

func TestParseRange(t *testing.T) {
	start, end, err := episode.ParseRange("avatar 201-205.doc")
	if err != nil {
		t.Fatalf("ParseRange: %v", err)
	}
	if start != 201 || end != 205 {
		t.Fatalf("unexpected range %d-%d", start, end)
	}
	if !episode.HasRange("avatar 201-205.doc") || episode.HasRange("avatar 201.doc") {
		t.Fatal("HasRange misclassified names")
	}
	if _, _, err := episode.ParseRange("avatar 205-201.doc"); err == nil {
		t.Fatal("expected inverted range error")
	}
	if _, _, err := episode.ParseRange("avatar.doc"); err == nil {
		t.Fatal("expected missing range error")
	}
	if diff := cmp.Diff([]episode.Number{201, 202, 203}, episode.Span(201, 203)); diff != "" {
		t.Fatalf("Span mismatch (-want +got):\n%s", diff)
	}
}

func TestParseKey(t *testing.T) {
	n, ok := episode.ParseKey("s02e10-the-drill.md")
	if !ok || n != 210 {
		t.Fatalf("ParseKey = %d %v", n, ok)
	}
	if _, ok := episode.ParseKey("index.md"); ok {
		t.Fatal("expected index to be rejected")
	}
}

func TestCatalogGroupAndMissing(t *testing.T) {
	cat := episode.NewCatalog([]config.Season{
		{Number: 2, First: 201, Last: 203},
		{Number: 1, First: 101, Last: 102},
	})
	if diff := cmp.Diff([]int{1, 2}, cat.Seasons()); diff != "" {
		t.Fatalf("Seasons mismatch (-want +got):\n%s", diff)
	}

	grouped, outside := cat.Group([]episode.Number{203, 101, 201, 401})
	if diff := cmp.Diff(map[int][]episode.Number{1: {101}, 2: {201, 203}}, grouped); diff != "" {
		t.Fatalf("Group mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]episode.Number{401}, outside); diff != "" {
		t.Fatalf("outside mismatch (-want +got):\n%s", diff)
	}

	missing := cat.Missing(2, map[episode.Number]bool{201: true, 203: true})
	if diff := cmp.Diff([]episode.Number{202}, missing); diff != "" {
		t.Fatalf("Missing mismatch (-want +got):\n%s", diff)
	}
	if !cat.Contains(102) || cat.Contains(301) {
		t.Fatal("Contains misclassified numbers")
	}
}
