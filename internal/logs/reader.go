package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const pollInterval = 250 * time.Millisecond

// eventBuildStart marks the first record of every build run.
const eventBuildStart = "build_start"

// Entry is one log line and its decoded record.
type Entry struct {
	Raw    string
	Record Record
}

// Query selects records from the build log.
type Query struct {
	Filter Filter

	// Limit keeps only the last Limit matching records. Zero keeps all of them.
	Limit int

	// Offset resumes at a byte position returned by an earlier read. Zero
	// starts at the beginning of the file.
	Offset int64
}

// Batch holds matching records and the offset to resume from.
type Batch struct {
	Entries []Entry
	Offset  int64
}

// Read scans the log at path from q.Offset and returns the records matching
// q.Filter. Lines that are not JSON records are skipped. A final line without
// a newline is still being written and is left for the next read. An offset
// past the end of the file means the log was truncated, so the scan restarts
// at the beginning. A missing file yields an empty batch.
func Read(path string, q Query) (Batch, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Batch{}, nil
		}
		return Batch{Offset: q.Offset}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return Batch{Offset: q.Offset}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return Batch{Offset: q.Offset}, fmt.Errorf("log path %q is a directory", path)
	}

	offset := q.Offset
	if offset < 0 || offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return Batch{Offset: q.Offset}, fmt.Errorf("seek log file: %w", err)
	}

	batch := Batch{Offset: offset}
	reader := bufio.NewReaderSize(file, 64*1024)
	for {
		line, err := reader.ReadString('\n')
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return batch, fmt.Errorf("read log file: %w", err)
		}
		batch.Offset += int64(len(line))

		raw := strings.TrimRight(line, "\r\n")
		rec, err := ParseRecord(raw)
		if err != nil || !q.Filter.Match(rec) {
			continue
		}
		batch.Entries = append(batch.Entries, Entry{Raw: raw, Record: rec})
		if q.Limit > 0 && len(batch.Entries) > q.Limit {
			batch.Entries = batch.Entries[1:]
		}
	}
	return batch, nil
}

// Follow polls the log from offset until a record matching filter arrives,
// wait elapses, or ctx ends. The returned offset always advances past lines
// that were read, matching or not.
func Follow(ctx context.Context, path string, offset int64, filter Filter, wait time.Duration) (Batch, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		batch, err := Read(path, Query{Filter: filter, Offset: offset})
		if err != nil {
			return batch, err
		}
		offset = batch.Offset
		if len(batch.Entries) > 0 || !time.Now().Before(deadline) {
			return batch, nil
		}
		select {
		case <-ctx.Done():
			return Batch{Offset: offset}, ctx.Err()
		case <-ticker.C:
		}
	}
}

// LatestRun returns the run id of the most recent build recorded in the log,
// or "" when no build has started yet.
func LatestRun(path string) (string, error) {
	batch, err := Read(path, Query{Filter: Filter{EventType: eventBuildStart}, Limit: 1})
	if err != nil || len(batch.Entries) == 0 {
		return "", err
	}
	return batch.Entries[0].Record.RunID, nil
}
