package preflight

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sys/unix"

	"scriptbook/internal/config"
	"scriptbook/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckReadableDirectory verifies that a source directory exists and can be listed.
func CheckReadableDirectory(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "read ok")
}

// CheckCreatableDirectory passes when path is a writable directory or when
// the nearest existing ancestor is writable, so the build can create it.
func CheckCreatableDirectory(name, path string) Result {
	if _, err := os.Stat(path); err == nil {
		return CheckDirectoryAccess(name, path)
	}
	ancestor := filepath.Dir(path)
	for {
		if info, err := os.Stat(ancestor); err == nil {
			if !info.IsDir() {
				return Result{Name: name, Detail: fmt.Sprintf("%s (error: %s is not a directory)", path, ancestor)}
			}
			break
		}
		parent := filepath.Dir(ancestor)
		if parent == ancestor {
			break
		}
		ancestor = parent
	}
	if err := unix.Access(ancestor, unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: cannot create under %s: %v)", path, ancestor, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", path)}
}

// CheckWritableFile verifies that path can be rewritten in place, or created
// when it does not exist yet.
func CheckWritableFile(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
		}
		res := CheckCreatableDirectory(name, filepath.Dir(path))
		if res.Passed {
			res.Detail = fmt.Sprintf("%s (will be created)", path)
		}
		return res
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	// Updates are written to a temp file and renamed over the original.
	if err := unix.Access(filepath.Dir(path), unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: directory not writable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckConverters reports whether a configured converter is installed. A
// missing converter only fails when legacy documents are waiting to be read.
func CheckConverters(cfg *config.Config) (Result, []deps.Status) {
	const name = "Converter"

	statuses := deps.CheckBinaries(deps.ConverterRequirements(cfg.Extract.Converters))
	if picked, ok := deps.Ready(statuses); ok {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (first available of %s)", picked, strings.Join(cfg.Extract.Converters, ", "))}, statuses
	}
	pending := countLegacyDocuments(cfg)
	if pending == 0 {
		return Result{Name: name, Passed: true, Detail: "none installed (no legacy documents to convert)"}, statuses
	}
	return Result{
		Name:   name,
		Detail: fmt.Sprintf("none of %s installed; %d document(s) need conversion", strings.Join(cfg.Extract.Converters, ", "), pending),
	}, statuses
}

func countLegacyDocuments(cfg *config.Config) int {
	entries, err := os.ReadDir(cfg.Paths.ChineseDir)
	if err != nil {
		return 0
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, cfg.Sources.ChinesePrefix) && strings.EqualFold(filepath.Ext(name), cfg.Sources.ChineseExtension) {
			count++
		}
	}
	return count
}

func checkDirectory(name, path string, mode uint32, ok string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, ok)}
}
