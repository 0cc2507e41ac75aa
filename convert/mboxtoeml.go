package convert

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dhcgn/emlbox/filter"
	"github.com/dhcgn/emlbox/mbox"
	"github.com/dhcgn/emlbox/model"
	"github.com/dhcgn/emlbox/progress"
	"github.com/dhcgn/emlbox/sanitize"
	"github.com/dhcgn/emlbox/stats"
)

type MboxToEmlOptions struct {
	InputFile string
	OutputDir string
	Overwrite bool
	Filter    *filter.Filter
	Logger    *slog.Logger
	Progress  progress.Sink
}

// MboxToEml extracts every message of the archive at InputFile into its own
// .eml file below OutputDir.
func MboxToEml(opts MboxToEmlOptions) (stats.Summary, error) {
	var summary stats.Summary

	if err := ValidateFilePath(opts.InputFile); err != nil {
		return summary, err
	}

	if ok, err := exists(opts.InputFile); err != nil {
		return summary, fmt.Errorf("stat mbox file: %w", err)
	} else if !ok {
		return summary, fmt.Errorf("mbox file %s: %w", opts.InputFile, ErrInputMissing)
	}

	found, err := exists(opts.OutputDir)
	if err != nil {
		return summary, fmt.Errorf("stat output directory: %w", err)
	}
	if found && !opts.Overwrite {
		return summary, fmt.Errorf("directory %s: %w, use --overwrite to replace overlapping files inside of it", opts.OutputDir, ErrOutputExists)
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return summary, fmt.Errorf("create output directory: %w", err)
	}

	input, err := os.Open(opts.InputFile)
	if err != nil {
		return summary, fmt.Errorf("open mbox file: %w", err)
	}
	defer input.Close()

	sink, logger := orDiscard(opts.Progress, opts.Logger)
	defer sink.Stop()

	logger.Debug("extracting mbox", "input", opts.InputFile, "output", opts.OutputDir)

	segmenter := mbox.NewSegmenter(input)
	index := 0
	for {
		msg, err := segmenter.NextMessage()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			err = fmt.Errorf("read email %d: %w", index, err)
			logger.Error("mbox read failed", "index", index, "line", segmenter.Line(), "err", err)
			sink.Fail(err)
			summary.AddError(err)
			sink.Step("")
			continue
		}

		if !opts.Filter.AllowsMessage(msg) {
			logger.Debug("message filtered out", "line", segmenter.Line())
			summary.AddSkipped()
			sink.Step("")
			continue
		}

		name := EmlFilename(index, msg)
		index++

		n, err := saveEml(filepath.Join(opts.OutputDir, name), msg)
		if err != nil {
			err = fmt.Errorf("save email %s: %w", name, err)
			logger.Error("eml save failed", "index", index-1, "file", name, "err", err)
			sink.Fail(err)
			summary.AddError(err)
		} else {
			summary.AddConverted(n)
		}
		sink.Step(name)
	}

	logger.Info("mbox to eml finished", append(summary.LogAttrs(), "output", opts.OutputDir)...)
	return summary, nil
}

// EmlFilename returns NNNN_<subject>.eml, or NNNN.eml when the message has
// no usable subject.
func EmlFilename(index int, msg model.Message) string {
	if subject, ok := msg.Header("subject"); ok {
		if slug := sanitize.Filename(subject); slug != "" {
			return fmt.Sprintf("%04d_%s%s", index, slug, EmlExt)
		}
	}
	return fmt.Sprintf("%04d%s", index, EmlExt)
}

func saveEml(path string, msg model.Message) (int64, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("create eml file: %w", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	eol := msg.LineEnding()
	var written int64
	for _, line := range msg.Lines {
		n, err := w.WriteString(line)
		written += int64(n)
		if err != nil {
			return written, err
		}
		n, err = w.WriteString(eol)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}

	if err := w.Flush(); err != nil {
		return written, fmt.Errorf("flush eml file: %w", err)
	}
	if err := file.Close(); err != nil {
		return written, fmt.Errorf("close eml file: %w", err)
	}
	return written, nil
}
