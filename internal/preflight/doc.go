// Package preflight provides readiness checks for the directories and
// external converters a scriptbook build depends on.
//
// The CLI "scriptbook deps" command prints every result, and "scriptbook
// build" runs RunAll first so an unreadable source tree or unwritable docs
// directory fails fast with a clear message instead of mid-build.
package preflight
