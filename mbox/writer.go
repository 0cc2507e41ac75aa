package mbox

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dhcgn/emlbox/model"
)

// TrailingNewlines returns the newlines to append so content is followed by
// exactly one blank line: none after "\n\n", one after a single "\n", two
// otherwise.
func TrailingNewlines(content string) string {
	switch {
	case strings.HasSuffix(content, "\n\n"):
		return ""
	case strings.HasSuffix(content, "\n"):
		return "\n"
	default:
		return "\n\n"
	}
}

// Writer appends messages to an mbox archive.
type Writer struct {
	w       *bufio.Writer
	written int64
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// WriteMessage writes the synthesised envelope line, the raw content as-is
// and the trailing newlines, then flushes so a failed message never leaves
// a partial record buffered behind a later one.
func (w *Writer) WriteMessage(content string) error {
	envelope := Envelope(model.SplitLines(content))

	n, err := fmt.Fprintf(w.w, "%s\n", envelope)
	w.written += int64(n)
	if err != nil {
		return fmt.Errorf("write envelope line: %w", err)
	}

	n, err = w.w.WriteString(content)
	w.written += int64(n)
	if err != nil {
		return fmt.Errorf("write message content: %w", err)
	}

	n, err = w.w.WriteString(TrailingNewlines(content))
	w.written += int64(n)
	if err != nil {
		return fmt.Errorf("write message separator: %w", err)
	}

	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("flush mbox output: %w", err)
	}
	return nil
}

// Written returns the number of bytes handed to the underlying writer.
func (w *Writer) Written() int64 {
	return w.written
}
