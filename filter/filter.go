package filter

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/dhcgn/emlbox/model"
)

// ErrModeConflict is returned when include and exclude patterns are mixed.
var ErrModeConflict = errors.New("include and exclude filters are mutually exclusive")

// Options captures the filtering configuration.
type Options struct {
	IncludeHeader []string `yaml:"include_header"`
	IncludeBody   []string `yaml:"include_body"`
	ExcludeHeader []string `yaml:"exclude_header"`
	ExcludeBody   []string `yaml:"exclude_body"`
}

// Active reports whether any pattern is configured.
func (o Options) Active() bool {
	return len(o.IncludeHeader)+len(o.IncludeBody)+len(o.ExcludeHeader)+len(o.ExcludeBody) > 0
}

// Validate checks the include/exclude exclusivity without compiling.
func (o Options) Validate() error {
	includeActive := len(o.IncludeHeader) > 0 || len(o.IncludeBody) > 0
	excludeActive := len(o.ExcludeHeader) > 0 || len(o.ExcludeBody) > 0
	if includeActive && excludeActive {
		return ErrModeConflict
	}
	return nil
}

// Filter holds compiled regex patterns for filtering messages.
// A nil *Filter allows every message.
type Filter struct {
	includeMode   bool
	excludeMode   bool
	includeHeader []*regexp.Regexp
	includeBody   []*regexp.Regexp
	excludeHeader []*regexp.Regexp
	excludeBody   []*regexp.Regexp
}

// New compiles the patterns in opts. It returns a nil Filter when no
// pattern is configured.
func New(opts Options) (*Filter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if !opts.Active() {
		return nil, nil
	}

	includeHeader, err := compilePatterns(opts.IncludeHeader)
	if err != nil {
		return nil, fmt.Errorf("compile include-header pattern: %w", err)
	}
	includeBody, err := compilePatterns(opts.IncludeBody)
	if err != nil {
		return nil, fmt.Errorf("compile include-body pattern: %w", err)
	}
	excludeHeader, err := compilePatterns(opts.ExcludeHeader)
	if err != nil {
		return nil, fmt.Errorf("compile exclude-header pattern: %w", err)
	}
	excludeBody, err := compilePatterns(opts.ExcludeBody)
	if err != nil {
		return nil, fmt.Errorf("compile exclude-body pattern: %w", err)
	}

	return &Filter{
		includeMode:   len(includeHeader) > 0 || len(includeBody) > 0,
		excludeMode:   len(excludeHeader) > 0 || len(excludeBody) > 0,
		includeHeader: includeHeader,
		includeBody:   includeBody,
		excludeHeader: excludeHeader,
		excludeBody:   excludeBody,
	}, nil
}

// Allows returns true if the message passes the filter criteria.
func (f *Filter) Allows(header, body []byte) bool {
	if f == nil {
		return true
	}
	return f.allowsText(string(header), string(body))
}

// AllowsMessage applies the filter to a segmented message.
func (f *Filter) AllowsMessage(m model.Message) bool {
	if f == nil {
		return true
	}
	return f.allowsText(strings.Join(m.HeaderLines(), "\n"), strings.Join(m.BodyLines(), "\n"))
}

// AllowsRaw applies the filter to raw message content such as an eml file.
func (f *Filter) AllowsRaw(content []byte) bool {
	if f == nil {
		return true
	}
	header, body := SplitRawMessage(content)
	return f.Allows(header, body)
}

func (f *Filter) allowsText(headerText, bodyText string) bool {
	if f.includeMode {
		return matchAny(f.includeHeader, headerText) || matchAny(f.includeBody, bodyText)
	}

	if f.excludeMode {
		if matchAny(f.excludeHeader, headerText) || matchAny(f.excludeBody, bodyText) {
			return false
		}
	}

	return true
}

// SplitRawMessage splits a raw email message into header and body parts.
func SplitRawMessage(raw []byte) (header, body []byte) {
	if len(raw) == 0 {
		return nil, nil
	}

	if idx := bytes.Index(raw, []byte("\r\n\r\n")); idx >= 0 {
		return raw[:idx], raw[idx+4:]
	}
	if idx := bytes.Index(raw, []byte("\n\n")); idx >= 0 {
		return raw[:idx], raw[idx+2:]
	}

	return raw, nil
}

func compilePatterns(patterns []string) ([]*regexp.Regexp, error) {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", pattern, err)
		}
		compiled = append(compiled, re)
	}
	return compiled, nil
}

func matchAny(patterns []*regexp.Regexp, text string) bool {
	for _, re := range patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
