// Package main hosts the scriptbook CLI entrypoint and command graph.
//
// The Cobra-based command tree turns the English and Chinese Avatar scripts
// into an MkDocs docs tree (build, watch), reports on the published site
// (status, show, check), and scaffolds configuration. It centralizes
// configuration resolution, ledger access, and structured logging setup so
// subcommands can focus on user experience instead of wiring.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main
