package main

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"scriptbook/internal/config"
	"scriptbook/internal/episode"
	"scriptbook/internal/ledger"
	"scriptbook/internal/services"
	"scriptbook/internal/site"
)

const showWordWrap = 100

func newShowCommand(ctx *commandContext) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show <episode>",
		Short: "Render a generated episode page in the terminal",
		Long:  "Render a generated episode page. The episode may be given as a page key (s01e05), a label (S01E05), or a number (105).",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			num, err := parseEpisodeArg(args[0])
			if err != nil {
				return err
			}
			return ctx.withLedger(func(cfg *config.Config, store *ledger.Store) error {
				path, err := locatePage(cmd, cfg, store, num)
				if err != nil {
					return err
				}
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read page: %w", err)
				}
				out := cmd.OutOrStdout()
				if raw {
					_, err := out.Write(data)
					return err
				}
				return renderMarkdown(out, data)
			})
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "Print the markdown source instead of rendering it")
	return cmd
}

func parseEpisodeArg(arg string) (episode.Number, error) {
	if n, ok := episode.ParseKey(arg); ok {
		return n, nil
	}
	if n, err := episode.ParseNumber(arg); err == nil {
		return n, nil
	}
	return 0, services.Wrap(services.ErrValidation, "cli", "show", fmt.Sprintf("invalid episode %q (expected s01e05, S01E05, or 105)", arg), nil)
}

// locatePage prefers the ledger record and falls back to scanning the season
// directory for pages written before the ledger existed.
func locatePage(cmd *cobra.Command, cfg *config.Config, store *ledger.Store, num episode.Number) (string, error) {
	writer := site.NewWriter(cfg.Paths.DocsDir, true)
	page, err := store.GetPage(cmd.Context(), num.Slug())
	if err != nil {
		return "", err
	}
	if page != nil {
		return writer.Path(page.Path), nil
	}
	matches, err := filepath.Glob(filepath.Join(cfg.Paths.DocsDir, episode.SeasonDir(num.Season()), num.Slug()+"*.md"))
	if err != nil {
		return "", err
	}
	for _, match := range matches {
		base := strings.TrimSuffix(filepath.Base(match), ".md")
		if base == num.Slug() || strings.HasPrefix(base, num.Slug()+"-") {
			return match, nil
		}
	}
	return "", services.Wrap(services.ErrNotFound, "cli", "show",
		fmt.Sprintf("no page for %s; run 'scriptbook build' first", num.Label()), fs.ErrNotExist)
}

func renderMarkdown(out io.Writer, data []byte) error {
	var meta site.FrontMatter
	body, err := frontmatter.Parse(bytes.NewReader(data), &meta)
	if err != nil {
		return fmt.Errorf("parse front matter: %w", err)
	}

	style := glamour.WithStandardStyle("notty")
	if shouldColorize(out) {
		style = glamour.WithAutoStyle()
	}
	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(showWordWrap))
	if err != nil {
		return fmt.Errorf("create markdown renderer: %w", err)
	}
	rendered, err := renderer.Render(string(body))
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = io.WriteString(out, rendered)
	return err
}
