// Package config loads, normalizes, and validates scriptbook configuration data.
//
// It supplies repository defaults, resolves source and output paths relative to
// the configuration file (including tilde shortcuts), reads TOML files, and
// honours environment overrides such as SCRIPTBOOK_DOCS_DIR. The Config type
// centralizes every knob the build and CLI need, including the season catalog
// that decides which episode numbers are published.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
