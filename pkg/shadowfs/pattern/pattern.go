// Package pattern compiles glob and regular-expression pattern strings into
// matchers that test normalized virtual paths. It is the sole consumer of
// raw pattern strings in shadowfs: the rule engine, the classifier-layer
// pattern lists, and the tag-layer pattern extractors all compile through
// this package so that normalization and dialect semantics stay in one
// place.
package pattern

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Dialect selects how a pattern string is interpreted.
type Dialect int

const (
	// Glob interprets the pattern with shell-glob semantics: '*' matches a
	// run of non-'/' characters, '?' matches one non-'/' character, and
	// '**' matches zero or more complete path segments when it appears as
	// a whole segment on its own.
	Glob Dialect = iota
	// Regex interprets the pattern as a regular expression tested with an
	// unanchored search against the normalized path.
	Regex
)

// Entry pairs a raw pattern string with the dialect it should be compiled
// under.
type Entry struct {
	Pattern         string
	Dialect         Dialect
	CaseInsensitive bool
}

// compiled is the result of compiling a single Entry.
type compiled struct {
	entry Entry
	re    *regexp.Regexp // set only for Regex dialect
}

// Matcher holds an ordered list of compiled patterns and reports a path as
// matching if any one of them matches ("OR" semantics), per spec.
type Matcher struct {
	compiled []compiled
}

// Normalize converts backslashes to forward slashes and strips a single
// leading slash, so that patterns and candidate paths are compared in the
// same coordinate space regardless of how either was supplied.
func Normalize(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	return strings.TrimPrefix(p, "/")
}

// Compile compiles an ordered list of pattern entries into a Matcher. It
// fails at compile time (never at match time) when a pattern is
// syntactically invalid for its dialect, or when a glob pattern uses '**'
// in a way that isn't a whole path segment.
func Compile(entries []Entry) (*Matcher, error) {
	m := &Matcher{compiled: make([]compiled, 0, len(entries))}
	for i, e := range entries {
		c, err := compileOne(e)
		if err != nil {
			return nil, fmt.Errorf("pattern %d (%q): %w", i, e.Pattern, err)
		}
		m.compiled = append(m.compiled, c)
	}
	return m, nil
}

func compileOne(e Entry) (compiled, error) {
	switch e.Dialect {
	case Glob:
		if err := validateGlobSegments(e.Pattern); err != nil {
			return compiled{}, err
		}
		candidate := e.Pattern
		if e.CaseInsensitive {
			candidate = strings.ToLower(candidate)
		}
		if !doublestar.ValidatePattern(candidate) {
			return compiled{}, fmt.Errorf("invalid glob pattern")
		}
		e.Pattern = candidate
		return compiled{entry: e}, nil
	case Regex:
		re, err := regexp.Compile(e.Pattern)
		if err != nil {
			return compiled{}, fmt.Errorf("invalid regular expression: %w", err)
		}
		return compiled{entry: e, re: re}, nil
	default:
		return compiled{}, fmt.Errorf("unknown pattern dialect %d", e.Dialect)
	}
}

// validateGlobSegments rejects a '**' that appears fused to other
// characters within a single path segment (e.g. "a**b" or "**foo"), which
// doublestar would otherwise silently treat as a literal run of stars.
func validateGlobSegments(p string) error {
	for _, segment := range strings.Split(Normalize(p), "/") {
		if strings.Contains(segment, "**") && segment != "**" {
			return fmt.Errorf("'**' must occupy a whole path segment, got segment %q", segment)
		}
	}
	return nil
}

// Match reports whether path matches any compiled pattern.
func (m *Matcher) Match(path string) bool {
	if m == nil {
		return false
	}
	normalized := Normalize(path)
	for _, c := range m.compiled {
		switch c.entry.Dialect {
		case Glob:
			candidate := normalized
			if c.entry.CaseInsensitive {
				candidate = strings.ToLower(candidate)
			}
			if ok, err := doublestar.Match(c.entry.Pattern, candidate); err == nil && ok {
				return true
			}
		case Regex:
			if c.re.MatchString(normalized) {
				return true
			}
		}
	}
	return false
}

// Empty reports whether the matcher has no patterns at all.
func (m *Matcher) Empty() bool {
	return m == nil || len(m.compiled) == 0
}
