// Package services defines shared utilities consumed by the build stages.
//
// Key responsibilities:
//   - Context helpers that stamp build run IDs, stage names, and source paths
//     for logging.
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent issue kinds recorded in the build ledger.
//
// Use these helpers when wiring new stage logic so skip-and-log behaviour
// stays uniform across the pipeline.
package services
