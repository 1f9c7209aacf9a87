// Package logging assembles structured slog loggers and formatting helpers used
// across scriptbook.
//
// It owns the console/JSON handlers, routes the full debug stream to the log
// file in the state directory, and exposes context-aware helpers so build
// stages can tag log lines with run IDs, stages, and source documents. The
// package also provides a no-op logger for tests and wiring code that cannot
// fail.
package logging
