package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderValue(t *testing.T) {
	lines := []string{
		"Received: by mx.example.com",
		"FROM: Jane <jane@x.com>",
		"From: second@x.com",
		"Subject:   Quarterly numbers  ",
		"",
		"From: body@x.com",
		"date: not a header",
	}

	tests := []struct {
		name   string
		header string
		want   string
		found  bool
	}{
		{name: "case insensitive first match", header: "From", want: "Jane <jane@x.com>", found: true},
		{name: "value trimmed", header: "subject", want: "Quarterly numbers", found: true},
		{name: "body lines ignored", header: "Date", found: false},
		{name: "missing", header: "Message-Id", found: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := HeaderValue(lines, tt.header)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMessageParts(t *testing.T) {
	m := Message{Lines: []string{"Subject: hi", "To: a@b.c", "", "body 1", "", "body 2"}}

	assert.Equal(t, []string{"Subject: hi", "To: a@b.c"}, m.HeaderLines())
	assert.Equal(t, []string{"body 1", "", "body 2"}, m.BodyLines())

	headersOnly := Message{Lines: []string{"Subject: hi"}}
	assert.Nil(t, headersOnly.BodyLines())
}

func TestMessageString(t *testing.T) {
	m := Message{Lines: []string{"Subject: hi", "", "body"}}
	assert.Equal(t, "Subject: hi\n\nbody\n", m.String())

	m.EOL = "\r\n"
	assert.Equal(t, "Subject: hi\r\n\r\nbody\r\n", m.String())
}

func TestSplitLines(t *testing.T) {
	require.Nil(t, SplitLines(""))
	assert.Equal(t, []string{"a", "", "b"}, SplitLines("a\n\nb\n"))
	assert.Equal(t, []string{"a", "b"}, SplitLines("a\r\nb"))
	assert.Equal(t, []string{""}, SplitLines("\n"))
}
