// Package source locates the English and Chinese script documents for a build
// and turns them into normalized per-episode text.
//
// English scripts are one plain-text file per episode named by its three-digit
// number. Chinese scripts are legacy word-processor documents, either one per
// episode or one per episode range; range documents are split at episode
// headings and override single documents. Every per-document failure becomes
// an Issue and the document is skipped.
package source
