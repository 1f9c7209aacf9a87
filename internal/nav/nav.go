package nav

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"scriptbook/internal/fileutil"
)

// Entry is one navigable page.
type Entry struct {
	Title string
	Path  string // docs-relative, slash separated
}

// Season groups the pages of one season under its overview page.
type Season struct {
	Number   int
	Overview string
	Pages    []Entry
}

// Manifest describes the desired navigation.
type Manifest struct {
	SiteName string
	DocsDir  string // relative to the MkDocs config file
	Home     string
	Seasons  []Season
}

// Build returns the nav sequence node for m.
func Build(m Manifest) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	home := m.Home
	if home == "" {
		home = "index.md"
	}
	seq.Content = append(seq.Content, pair("Home", scalar(home)))
	for _, season := range m.Seasons {
		items := &yaml.Node{Kind: yaml.SequenceNode}
		if season.Overview != "" {
			items.Content = append(items.Content, pair("Overview", scalar(season.Overview)))
		}
		for _, page := range season.Pages {
			items.Content = append(items.Content, pair(page.Title, scalar(page.Path)))
		}
		seq.Content = append(seq.Content, pair(fmt.Sprintf("Season %d", season.Number), items))
	}
	return seq
}

// Update replaces the nav key of the MkDocs config at path, creating a minimal
// config when the file is missing. It reports whether the file changed.
func Update(path string, m Manifest, dryRun bool) (bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("read mkdocs config: %w", err)
	}

	var doc yaml.Node
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return false, fmt.Errorf("parse mkdocs config: %w", err)
		}
	}
	root, err := documentRoot(&doc)
	if err != nil {
		return false, err
	}
	if lookup(root, "site_name") == nil && m.SiteName != "" {
		setKey(root, "site_name", scalar(m.SiteName))
	}
	if lookup(root, "docs_dir") == nil && m.DocsDir != "" && m.DocsDir != "docs" {
		setKey(root, "docs_dir", scalar(m.DocsDir))
	}
	setKey(root, "nav", Build(m))

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&doc); err != nil {
		return false, fmt.Errorf("encode mkdocs config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return false, fmt.Errorf("encode mkdocs config: %w", err)
	}
	if dryRun {
		return !bytes.Equal(raw, buf.Bytes()), nil
	}
	return fileutil.WriteFileIfChanged(path, buf.Bytes(), 0o644)
}

// Read returns the nav entries currently in the MkDocs config as flat
// title/path pairs in document order.
func Read(path string) ([]Entry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse mkdocs config: %w", err)
	}
	root, err := documentRoot(&doc)
	if err != nil {
		return nil, err
	}
	navNode := lookup(root, "nav")
	if navNode == nil {
		return nil, nil
	}
	var out []Entry
	flatten(navNode, &out)
	return out, nil
}

// RelativeDocsDir expresses docsDir relative to the MkDocs config file.
func RelativeDocsDir(configPath, docsDir string) string {
	rel, err := filepath.Rel(filepath.Dir(configPath), docsDir)
	if err != nil {
		return filepath.ToSlash(docsDir)
	}
	return filepath.ToSlash(rel)
}

func documentRoot(doc *yaml.Node) (*yaml.Node, error) {
	if doc.Kind == 0 {
		doc.Kind = yaml.DocumentNode
	}
	if doc.Kind != yaml.DocumentNode {
		return nil, errors.New("mkdocs config: unexpected YAML structure")
	}
	if len(doc.Content) == 0 {
		doc.Content = []*yaml.Node{{Kind: yaml.MappingNode}}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, errors.New("mkdocs config: top level must be a mapping")
	}
	return root, nil
}

func lookup(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func setKey(mapping *yaml.Node, key string, value *yaml.Node) {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			mapping.Content[i+1] = value
			return
		}
	}
	mapping.Content = append(mapping.Content, scalar(key), value)
}

func flatten(node *yaml.Node, out *[]Entry) {
	switch node.Kind {
	case yaml.SequenceNode:
		for _, child := range node.Content {
			flatten(child, out)
		}
	case yaml.MappingNode:
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, value := node.Content[i], node.Content[i+1]
			if value.Kind == yaml.ScalarNode {
				*out = append(*out, Entry{Title: key.Value, Path: value.Value})
				continue
			}
			flatten(value, out)
		}
	case yaml.ScalarNode:
		*out = append(*out, Entry{Path: node.Value})
	}
}

func scalar(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

func pair(key string, value *yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Content: []*yaml.Node{scalar(key), value}}
}
