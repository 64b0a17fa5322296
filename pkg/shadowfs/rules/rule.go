package rules

import (
	"fmt"

	"github.com/andronics/shadowfs/pkg/shadowfs/pattern"
)

// Action is the decision a matching rule renders.
type Action int

const (
	Include Action = iota
	Exclude
)

func (a Action) String() string {
	if a == Exclude {
		return "exclude"
	}
	return "include"
}

// Rule is one entry in the rule engine, as described in spec.md §3.
type Rule struct {
	Name       string
	Action     Action
	Patterns   []string
	Dialect    pattern.Dialect
	Conditions []Condition
	Combinator Combinator
	Priority   int
	Enabled    bool

	matcher *pattern.Matcher
	// insertionIndex breaks priority ties in favor of earlier registration,
	// giving deterministic, stable ordering for equal-priority rules.
	insertionIndex int
}

// compile compiles the rule's patterns and conditions. It is called once at
// registration time; a failure here rejects the whole rule, per spec.md's
// data-model invariant that patterns and regex conditions compile
// successfully at load time.
func (r *Rule) compile() error {
	entries := make([]pattern.Entry, len(r.Patterns))
	for i, p := range r.Patterns {
		entries[i] = pattern.Entry{Pattern: p, Dialect: r.Dialect}
	}
	m, err := pattern.Compile(entries)
	if err != nil {
		return fmt.Errorf("rule %q: %w", r.Name, err)
	}
	r.matcher = m

	for i := range r.Conditions {
		if err := r.Conditions[i].compile(); err != nil {
			return fmt.Errorf("rule %q: %w", r.Name, err)
		}
	}
	return nil
}

// matches reports whether the rule matches the given path/attrs pair: both
// the pattern test (if the rule has patterns) and the condition test (if
// the rule has conditions) must pass.
func (r *Rule) matches(path string, attrs *Attrs) bool {
	if len(r.Patterns) > 0 && !r.matcher.Match(path) {
		return false
	}
	return evaluateAll(r.Conditions, r.Combinator, attrs)
}
