package mbox

import (
	_ "embed"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dhcgn/emlbox/model"
)

//go:embed test_data/sample.mbox
var sampleMbox string

func collect(t *testing.T, s *Segmenter) ([]model.Message, []error) {
	t.Helper()

	var msgs []model.Message
	var errs []error
	for i := 0; i < 1000; i++ {
		msg, err := s.NextMessage()
		if errors.Is(err, io.EOF) {
			return msgs, errs
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		msgs = append(msgs, msg)
	}
	t.Fatal("segmenter did not terminate")
	return nil, nil
}

func TestSegmenterSample(t *testing.T) {
	msgs, errs := collect(t, NewSegmenter(strings.NewReader(sampleMbox)))
	require.Empty(t, errs)
	require.Len(t, msgs, 3)

	assert.Equal(t, []string{
		"From: Alice <alice@example.com>",
		"To: bob@example.com",
		"Subject: First",
		"Date: Tue, 02 Jan 2024 10:00:00 +0000",
		"",
		"Hello Bob.",
		"",
	}, msgs[0].Lines)
	assert.Equal(t, "\n", msgs[0].EOL)

	last := msgs[2].Lines
	assert.Equal(t, "No subject here.", last[len(last)-1])

	for _, msg := range msgs {
		for _, line := range msg.Lines {
			assert.False(t, IsBoundary(line), "envelope line leaked into message: %q", line)
		}
	}
}

func TestSegmenterBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  [][]string
	}{
		{
			name:  "preamble discarded",
			input: "exported by some client\n\nFrom a@b Mon Jan 01 00:00:00 2024\nSubject: x\n",
			want:  [][]string{{"Subject: x"}},
		},
		{
			name:  "no boundary at all",
			input: "Subject: x\n\nbody\n",
			want:  nil,
		},
		{
			name:  "empty input",
			input: "",
			want:  nil,
		},
		{
			name:  "adjacent boundaries yield an empty message",
			input: "From a\nFrom b\nbody\n",
			want:  [][]string{nil, {"body"}},
		},
		{
			name:  "empty final block is dropped",
			input: "From a\nbody\nFrom b\n",
			want:  [][]string{{"body"}},
		},
		{
			name:  "final line without terminator",
			input: "From a\nSubject: x\n\nbody",
			want:  [][]string{{"Subject: x", "", "body"}},
		},
		{
			name:  "blank lines preserved",
			input: "From a\n\n\nx\n\n\nFrom b\ny\n",
			want:  [][]string{{"", "", "x", "", ""}, {"y"}},
		},
		{
			name:  "unescaped body line starting with From splits the message",
			input: "From a\nSubject: x\n\nFrom here on, things changed.\n",
			want:  [][]string{{"Subject: x", ""}},
		},
		{
			name:  "escaped body line is kept verbatim",
			input: "From a\nSubject: x\n\n>From here on\n",
			want:  [][]string{{"Subject: x", "", ">From here on"}},
		},
		{
			name:  "prefix must include the space",
			input: "From a\nFrom: sender@x.com\nFromage\n",
			want:  [][]string{{"From: sender@x.com", "Fromage"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msgs, errs := collect(t, NewSegmenter(strings.NewReader(tt.input)))
			require.Empty(t, errs)

			var got [][]string
			for _, m := range msgs {
				got = append(got, m.Lines)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSegmenterMessageCount(t *testing.T) {
	var sb strings.Builder
	const n = 25
	for i := 0; i < n; i++ {
		sb.WriteString("From sender@example.com Mon Jan 01 00:00:00 2024\n")
		sb.WriteString("Subject: message\n\nbody\n\n")
	}

	msgs, errs := collect(t, NewSegmenter(strings.NewReader(sb.String())))
	require.Empty(t, errs)
	assert.Len(t, msgs, n)
}

func TestSegmenterCRLF(t *testing.T) {
	s := NewSegmenter(strings.NewReader("From a\r\nSubject: x\r\n\r\nbody\r\n"))

	msg, err := s.NextMessage()
	require.NoError(t, err)
	assert.Equal(t, []string{"Subject: x", "", "body"}, msg.Lines)
	assert.Equal(t, "\r\n", msg.EOL)
	assert.Equal(t, "Subject: x\r\n\r\nbody\r\n", msg.String())

	_, err = s.NextMessage()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSegmenterReadError(t *testing.T) {
	errBoom := errors.New("boom")
	input := io.MultiReader(
		strings.NewReader("From a\nfirst\nFrom b\npartial\n"),
		iotest.ErrReader(errBoom),
	)
	s := NewSegmenter(input)

	msg, err := s.NextMessage()
	require.NoError(t, err)
	assert.Equal(t, []string{"first"}, msg.Lines)

	msg, err = s.NextMessage()
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, msg.Lines, "lines of the failed message are discarded")

	for i := 0; i < 3; i++ {
		_, err = s.NextMessage()
		assert.ErrorIs(t, err, io.EOF)
	}
}

func TestSegmenterReadErrorBeforeFirstBoundary(t *testing.T) {
	errBoom := errors.New("boom")
	s := NewSegmenter(io.MultiReader(strings.NewReader("preamble\n"), iotest.ErrReader(errBoom)))

	msgs, errs := collect(t, s)
	assert.Empty(t, msgs)
	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], errBoom)
}

func TestSegmenterLine(t *testing.T) {
	s := NewSegmenter(strings.NewReader("junk\nFrom a\nx\ny\nFrom b\nz\n"))

	_, err := s.NextMessage()
	require.NoError(t, err)
	assert.Equal(t, 4, s.Line())

	_, err = s.NextMessage()
	require.NoError(t, err)
	assert.Equal(t, 6, s.Line())
}

func BenchmarkSegmenter(b *testing.B) {
	input := strings.Repeat(sampleMbox, 100)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := NewSegmenter(strings.NewReader(input))
		for {
			if _, err := s.NextMessage(); err != nil {
				break
			}
		}
	}
}
