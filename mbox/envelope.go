package mbox

import (
	"net/mail"
	"strings"
	"time"

	"github.com/dhcgn/emlbox/model"
)

const (
	// PlaceholderSender is used when no usable From header exists.
	PlaceholderSender = "unknown@example.com"
	// PlaceholderDate is used when the Date header is missing or unparsable.
	PlaceholderDate = "Mon Jan 01 00:00:00 2024"

	// DateLayout is the asctime form of the envelope date, with a zero-padded day.
	DateLayout = "Mon Jan 02 15:04:05 2006"
)

// Envelope builds the "From <addr> <date>" line for a message from its
// header lines. The result carries no line terminator.
func Envelope(lines []string) string {
	return Boundary + EnvelopeSender(lines) + " " + EnvelopeDate(lines)
}

// EnvelopeSender returns the address of the first From header. An
// angle-bracketed address wins over the display name.
func EnvelopeSender(lines []string) string {
	value, ok := model.HeaderValue(lines, "from")
	if !ok {
		return PlaceholderSender
	}

	if start := strings.IndexByte(value, '<'); start >= 0 {
		end := strings.IndexByte(value[start+1:], '>')
		if end < 0 {
			return PlaceholderSender
		}
		value = value[start+1 : start+1+end]
	}

	value = strings.TrimSpace(value)
	if value == "" {
		return PlaceholderSender
	}
	return value
}

// EnvelopeDate reformats the first Date header, accepting RFC 2822 and then
// RFC 3339. The header's own offset is kept.
func EnvelopeDate(lines []string) string {
	value, ok := model.HeaderValue(lines, "date")
	if !ok {
		return PlaceholderDate
	}

	t, err := ParseDate(value)
	if err != nil {
		return PlaceholderDate
	}
	return t.Format(DateLayout)
}

// ParseDate parses an RFC 2822 date-time, falling back to RFC 3339.
func ParseDate(value string) (time.Time, error) {
	t, err := mail.ParseDate(value)
	if err == nil {
		return t, nil
	}
	if t, rfc3339Err := time.Parse(time.RFC3339, strings.TrimSpace(value)); rfc3339Err == nil {
		return t, nil
	}
	return time.Time{}, err
}
