package model

import "strings"

// Message is a single email as an ordered run of text lines, terminators stripped.
type Message struct {
	Lines []string
	// EOL is the line terminator seen on input; empty means "\n".
	EOL string
}

// LineEnding returns the terminator to use when writing the message back out.
func (m Message) LineEnding() string {
	if m.EOL == "" {
		return "\n"
	}
	return m.EOL
}

// HeaderLines returns the lines up to, not including, the first empty line.
func (m Message) HeaderLines() []string {
	return HeaderBlock(m.Lines)
}

// BodyLines returns the lines following the header block separator.
func (m Message) BodyLines() []string {
	n := len(HeaderBlock(m.Lines))
	if n >= len(m.Lines) {
		return nil
	}
	return m.Lines[n+1:]
}

// Header returns the trimmed value of the first header line named name.
func (m Message) Header(name string) (string, bool) {
	return HeaderValue(m.Lines, name)
}

// String renders the message with its own line terminator after every line.
func (m Message) String() string {
	eol := m.LineEnding()
	var sb strings.Builder
	for _, line := range m.Lines {
		sb.WriteString(line)
		sb.WriteString(eol)
	}
	return sb.String()
}

// HeaderBlock returns the leading lines before the first empty line.
func HeaderBlock(lines []string) []string {
	for i, line := range lines {
		if line == "" {
			return lines[:i]
		}
	}
	return lines
}

// HeaderValue finds the first line in the header block whose lowercased
// form starts with "name:" and returns the trimmed remainder.
func HeaderValue(lines []string, name string) (string, bool) {
	prefix := strings.ToLower(name) + ":"
	for _, line := range HeaderBlock(lines) {
		if len(line) < len(prefix) {
			continue
		}
		if strings.ToLower(line[:len(prefix)]) == prefix {
			return strings.TrimSpace(line[len(prefix):]), true
		}
	}
	return "", false
}

// SplitLines breaks raw text into lines, accepting "\n" and "\r\n" terminators.
// A trailing terminator does not produce an extra empty line.
func SplitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
