// Package pipeline runs the scriptbook build: it locks the state directory,
// loads and segments the source scripts, writes episode pages and indexes,
// refreshes the MkDocs navigation, prunes pages that are no longer produced,
// and records the run in the ledger.
//
// Watch wraps Build with a filesystem watcher that rebuilds after source
// documents or the configuration file change.
package pipeline
