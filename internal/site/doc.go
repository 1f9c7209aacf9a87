// Package site renders the markdown tree consumed by MkDocs: one page per
// episode under season-XX/, an index page per season, and the root index.
//
// Rendering is pure; Writer puts the bytes on disk and only touches files
// whose content changed.
package site
