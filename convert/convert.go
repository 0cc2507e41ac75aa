// Package convert drives the eml-to-mbox and mbox-to-eml conversions. Each
// driver processes one unit at a time, isolates per-unit failures and
// reports aggregate counters when it is done.
package convert

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dhcgn/emlbox/progress"
)

var (
	ErrOutputExists  = errors.New("output already exists")
	ErrInputMissing  = errors.New("input does not exist")
	ErrNoEmlFiles    = errors.New("no .eml files found")
	ErrNotText       = errors.New("file is not valid UTF-8 text")
	ErrDirectoryPath = errors.New("path appears to be a directory, not a file")
)

// EmlExt is the extension, compared case-sensitively, of message files.
const EmlExt = ".eml"

// ValidateFilePath rejects a path that ends in a separator, since the
// caller cannot tell whether a file or a directory was meant.
func ValidateFilePath(path string) error {
	if strings.HasSuffix(path, "/") || strings.HasSuffix(path, `\`) {
		return fmt.Errorf("%q: %w", path, ErrDirectoryPath)
	}
	return nil
}

// FindEmlFiles walks root with an explicit work-list and returns every file
// ending in .eml, sorted lexicographically.
func FindEmlFiles(root string) ([]string, error) {
	var files []string
	pending := []string{root}

	for len(pending) > 0 {
		dir := pending[len(pending)-1]
		pending = pending[:len(pending)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			return nil, fmt.Errorf("read directory %s: %w", dir, err)
		}

		for _, entry := range entries {
			path := filepath.Join(dir, entry.Name())
			if entry.IsDir() {
				pending = append(pending, path)
				continue
			}
			if filepath.Ext(entry.Name()) == EmlExt {
				files = append(files, path)
			}
		}
	}

	sort.Strings(files)
	return files, nil
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}

func orDiscard(sink progress.Sink, logger *slog.Logger) (progress.Sink, *slog.Logger) {
	if sink == nil {
		sink = progress.Discard
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return sink, logger
}
