// Package sanitize turns arbitrary header text into a path component that is
// safe on Linux, macOS and Windows filesystems.
package sanitize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// MaxLength caps the result in bytes, leaving room for the index prefix and
// extension under the common 255 byte name limit.
const MaxLength = 200

const illegal = `/?<>\:*|"`

var reserved = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// Filename returns s with every character that is illegal in a file name
// removed. It never fails; an input made only of unsafe characters yields "".
func Filename(s string) string {
	s = norm.NFC.String(strings.ToValidUTF8(s, ""))

	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) || strings.ContainsRune(illegal, r) {
			continue
		}
		sb.WriteRune(r)
	}
	out := strings.TrimSpace(sb.String())

	if out == "." || out == ".." {
		return ""
	}

	out = truncate(out, MaxLength)
	out = strings.TrimRight(out, ". ")

	base := out
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	if reserved[strings.ToUpper(strings.TrimSpace(base))] {
		out = "_" + out
	}

	return out
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	s = s[:limit]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
