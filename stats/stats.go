package stats

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
)

// Summary holds the per-run counters owned by a conversion driver.
type Summary struct {
	Converted int
	Errors    int
	Skipped   int
	Bytes     int64
	LastError error
}

// AddConverted records a unit that was fully written.
func (s *Summary) AddConverted(n int64) {
	s.Converted++
	s.Bytes += n
}

// AddError records a failed unit.
func (s *Summary) AddError(err error) {
	s.Errors++
	if err != nil {
		s.LastError = err
	}
}

// AddSkipped records a unit removed by a filter.
func (s *Summary) AddSkipped() {
	s.Skipped++
}

// Processed returns the number of units the driver looked at.
func (s Summary) Processed() int {
	return s.Converted + s.Errors + s.Skipped
}

func (s Summary) LogAttrs() []any {
	attrs := []any{
		"converted", s.Converted,
		"errors", s.Errors,
		"skipped", s.Skipped,
		"bytes", s.Bytes,
	}
	if s.LastError != nil {
		attrs = append(attrs, "lastError", s.LastError.Error())
	}
	return attrs
}

// String renders the human readable summary line.
func (s Summary) String() string {
	line := fmt.Sprintf("converted=%d, errors=%d", s.Converted, s.Errors)
	if s.Skipped > 0 {
		line += fmt.Sprintf(", skipped=%d", s.Skipped)
	}
	return line + fmt.Sprintf(" (%s written)", humanize.Bytes(uint64(s.Bytes)))
}

// Counter tallies how often each value of a header occurs.
type Counter map[string]int

func (c Counter) Add(value string) {
	if value == "" {
		return
	}
	c[value]++
}

// Pair is a value and its count.
type Pair struct {
	Key   string
	Value int
}

// Top returns at most limit pairs ordered by count descending, ties broken
// by key so the output is stable.
func (c Counter) Top(limit int) []Pair {
	pairs := make([]Pair, 0, len(c))
	for k, v := range c {
		pairs = append(pairs, Pair{k, v})
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Value != pairs[j].Value {
			return pairs[i].Value > pairs[j].Value
		}
		return pairs[i].Key < pairs[j].Key
	})

	if limit >= 0 && len(pairs) > limit {
		pairs = pairs[:limit]
	}
	return pairs
}

// PrettyPrintTop prints the top N most frequent items in a map.
func PrettyPrintTop(w io.Writer, c Counter, limit int) {
	for i, p := range c.Top(limit) {
		fmt.Fprintf(w, "%d. %s (%s)\n", i+1, p.Key, humanize.Comma(int64(p.Value)))
	}
}
