package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"scriptbook/internal/logging"
	"scriptbook/internal/services"
)

// ErrNoConverter reports that none of the configured converters is installed.
var ErrNoConverter = errors.New("missing converter: install 'antiword' (Linux) or use macOS 'textutil'")

// Result is the normalized text of one legacy document.
type Result struct {
	Text      string
	Converter string
	Elapsed   time.Duration
}

// Extractor runs the first available converter against legacy documents.
type Extractor struct {
	converters []string
	timeout    time.Duration
	logger     *slog.Logger
}

// NewExtractor builds an extractor that tries converters in order.
func NewExtractor(converters []string, timeout time.Duration, logger *slog.Logger) *Extractor {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Extractor{
		converters: append([]string(nil), converters...),
		timeout:    timeout,
		logger:     logging.NewComponentLogger(logger, "extract"),
	}
}

// Resolve returns the first configured converter found on PATH.
func (e *Extractor) Resolve() (Converter, error) {
	for _, name := range e.converters {
		conv, ok := LookupConverter(name)
		if !ok {
			continue
		}
		if _, err := lookPath(conv.Binary); err == nil {
			return conv, nil
		}
	}
	return Converter{}, services.Wrap(services.ErrConfiguration, "extract", "resolve converter", "", ErrNoConverter)
}

// LookPath resolves a converter binary on PATH with the same lookup Resolve
// uses, so availability reports agree with what a build would pick.
func LookPath(binary string) (string, error) {
	return lookPath(binary)
}

// Extract converts a legacy document to normalized text.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	conv, err := e.Resolve()
	if err != nil {
		return Result{}, err
	}
	return e.ExtractWith(ctx, conv, path)
}

// ExtractWith converts path using a specific converter.
func (e *Extractor) ExtractWith(ctx context.Context, conv Converter, path string) (Result, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Result{}, services.Wrap(services.ErrValidation, "extract", conv.Name, "empty path", nil)
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	started := time.Now()
	out, err := runCommand(runCtx, conv.Binary, conv.Args(path)...)
	elapsed := time.Since(started)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return Result{}, services.Wrap(services.ErrTimeout, "extract", conv.Name, fmt.Sprintf("exceeded %s", e.timeout), err)
		}
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		return Result{}, services.Wrap(services.ErrExternalTool, "extract", conv.Name, path, err)
	}

	e.logger.Debug("document converted",
		logging.String("converter", conv.Name),
		logging.String(logging.FieldSource, path),
		logging.Int("bytes", len(out)),
		logging.Duration("elapsed", elapsed),
	)
	return Result{Text: Normalize(Decode(out)), Converter: conv.Name, Elapsed: elapsed}, nil
}

func execCommand(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%w: %s", err, msg)
		}
		return nil, err
	}
	return out, nil
}
