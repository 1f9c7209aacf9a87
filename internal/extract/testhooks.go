package extract

import (
	"context"
	"os/exec"
)

// runCommand and lookPath are package-level variables so tests can override them.
var (
	runCommand = execCommand
	lookPath   = exec.LookPath
)

// SetCommandRunnerForTests overrides the converter runner during tests.
func SetCommandRunnerForTests(fn func(ctx context.Context, binary string, args ...string) ([]byte, error)) func() {
	previous := runCommand
	runCommand = fn
	return func() {
		runCommand = previous
	}
}

// SetLookPathForTests overrides PATH lookups during tests.
func SetLookPathForTests(fn func(string) (string, error)) func() {
	previous := lookPath
	lookPath = fn
	return func() {
		lookPath = previous
	}
}
