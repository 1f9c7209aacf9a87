// Package ledger persists build state in SQLite.
//
// The Store records build runs, the pages each run produced (with content
// hashes so unchanged pages are detected and stale pages can be pruned), the
// per-document issues that were skipped and logged, and a cache of text
// extracted from legacy documents keyed by source hash and converter.
//
// The database is treated as rebuildable state rather than an archive. Schema
// changes bump the version in schema.go; users delete the database (or run a
// forced build) to adopt the new schema.
package ledger
