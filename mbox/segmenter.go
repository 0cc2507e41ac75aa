package mbox

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/dhcgn/emlbox/model"
)

// Boundary is the literal prefix that opens every message in an mbox archive.
const Boundary = "From "

// IsBoundary reports whether line starts a new message.
//
// Body lines that happen to start with "From " are not distinguished; the
// archive is not expected to carry >From escaping.
func IsBoundary(line string) bool {
	return strings.HasPrefix(line, Boundary)
}

// Segmenter splits an mbox stream into messages, one per NextMessage call.
// It is forward-only and must not be shared between goroutines.
type Segmenter struct {
	r    *bufio.Reader
	line int

	peeked  bool
	next    string
	nextEOL string
	nextErr error

	finished bool
}

func NewSegmenter(r io.Reader) *Segmenter {
	return &Segmenter{r: bufio.NewReader(r)}
}

// Line returns the number of input lines consumed so far.
func (s *Segmenter) Line() int {
	return s.line
}

// NextMessage returns the lines between the current boundary and the next
// one. It returns io.EOF once the stream is exhausted. A read error is
// returned exactly once, the message in progress is dropped and every later
// call returns io.EOF.
func (s *Segmenter) NextMessage() (model.Message, error) {
	if s.finished {
		return model.Message{}, io.EOF
	}

	// Skip ahead to the next boundary, discarding any preamble.
	for {
		line, _, err := s.peek()
		if err != nil {
			break
		}
		s.advance()
		if IsBoundary(line) {
			break
		}
	}

	var msg model.Message
	for {
		line, eol, err := s.peek()
		if errors.Is(err, io.EOF) {
			s.finished = true
			if len(msg.Lines) == 0 {
				return model.Message{}, io.EOF
			}
			return msg, nil
		}
		if err != nil {
			s.finished = true
			return model.Message{}, fmt.Errorf("read line %d: %w", s.line+1, err)
		}
		if IsBoundary(line) {
			return msg, nil
		}
		s.advance()
		if msg.EOL == "" && eol != "" {
			msg.EOL = eol
		}
		msg.Lines = append(msg.Lines, line)
	}
}

// peek reads one line of lookahead without consuming it.
func (s *Segmenter) peek() (string, string, error) {
	if s.peeked {
		return s.next, s.nextEOL, s.nextErr
	}
	s.peeked = true

	raw, err := s.r.ReadString('\n')
	switch {
	case err == nil:
	case errors.Is(err, io.EOF) && raw != "":
		// final line without a terminator; EOF surfaces on the following read
		err = nil
	default:
		s.next, s.nextEOL, s.nextErr = "", "", err
		return s.next, s.nextEOL, s.nextErr
	}

	line, eol := splitEOL(raw)
	s.next, s.nextEOL, s.nextErr = line, eol, nil
	return line, eol, nil
}

func (s *Segmenter) advance() {
	if s.peeked && s.nextErr == nil {
		s.line++
	}
	s.peeked = false
}

func splitEOL(raw string) (string, string) {
	switch {
	case strings.HasSuffix(raw, "\r\n"):
		return raw[:len(raw)-2], "\r\n"
	case strings.HasSuffix(raw, "\n"):
		return raw[:len(raw)-1], "\n"
	default:
		return raw, ""
	}
}
