package convert

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/dhcgn/emlbox/filter"
	"github.com/dhcgn/emlbox/mbox"
	"github.com/dhcgn/emlbox/progress"
	"github.com/dhcgn/emlbox/stats"
)

type EmlToMboxOptions struct {
	InputDir   string
	OutputFile string
	Overwrite  bool
	Filter     *filter.Filter
	Logger     *slog.Logger

	// NewProgress is called once the number of input files is known.
	NewProgress func(total int) progress.Sink
}

// EmlToMbox packs every .eml file below InputDir, in lexicographic path
// order, into a single mbox archive at OutputFile.
func EmlToMbox(opts EmlToMboxOptions) (stats.Summary, error) {
	var summary stats.Summary

	if err := ValidateFilePath(opts.OutputFile); err != nil {
		return summary, err
	}

	found, err := exists(opts.OutputFile)
	if err != nil {
		return summary, fmt.Errorf("stat output file: %w", err)
	}
	if found && !opts.Overwrite {
		return summary, fmt.Errorf("file %s: %w, use --overwrite to replace it", opts.OutputFile, ErrOutputExists)
	}

	if ok, err := exists(opts.InputDir); err != nil {
		return summary, fmt.Errorf("stat input directory: %w", err)
	} else if !ok {
		return summary, fmt.Errorf("directory %s: %w", opts.InputDir, ErrInputMissing)
	}

	files, err := FindEmlFiles(opts.InputDir)
	if err != nil {
		return summary, err
	}
	if len(files) == 0 {
		return summary, fmt.Errorf("%w inside %s", ErrNoEmlFiles, opts.InputDir)
	}

	var sink progress.Sink
	if opts.NewProgress != nil {
		sink = opts.NewProgress(len(files))
	}
	sink, logger := orDiscard(sink, opts.Logger)
	defer sink.Stop()

	output, err := os.Create(opts.OutputFile)
	if err != nil {
		return summary, fmt.Errorf("create mbox file: %w", err)
	}
	defer output.Close()

	writer := mbox.NewWriter(output)
	logger.Debug("packing eml files", "input", opts.InputDir, "output", opts.OutputFile, "files", len(files))

	for _, path := range files {
		before := writer.Written()
		skipped, err := appendEmlFile(writer, path, opts.Filter)
		switch {
		case err != nil:
			err = fmt.Errorf("process %s: %w", path, err)
			logger.Error("eml file failed", "path", path, "err", err)
			sink.Fail(err)
			summary.AddError(err)
		case skipped:
			logger.Debug("eml file filtered out", "path", path)
			summary.AddSkipped()
		default:
			summary.AddConverted(writer.Written() - before)
		}
		sink.Step(filepath.Base(path))
	}

	if err := output.Close(); err != nil {
		return summary, fmt.Errorf("close mbox file: %w", err)
	}

	logger.Info("eml to mbox finished", append(summary.LogAttrs(), "output", opts.OutputFile)...)
	return summary, nil
}

func appendEmlFile(w *mbox.Writer, path string, f *filter.Filter) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, fmt.Errorf("read eml file: %w", err)
	}
	if !utf8.Valid(data) {
		return false, ErrNotText
	}
	if !f.AllowsRaw(data) {
		return true, nil
	}
	return false, w.WriteMessage(string(data))
}
