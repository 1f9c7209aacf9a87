// Package logs reads the JSON build log that scriptbook appends to its state
// directory.
//
// Read scans the file once, decoding each record and keeping only those that
// pass a Filter, so `scriptbook logs --run <id>` replays a single build without
// loading unrelated runs. Follow polls from a saved offset for new matching
// records, and LatestRun finds the newest build so `--last` can bound output
// to it.
package logs
