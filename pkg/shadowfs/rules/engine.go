// Package rules implements the ordered include/exclude rule engine (C2):
// visibility decisions over virtual paths, optionally narrowed by attribute
// predicates, evaluated in priority order with a configurable default.
package rules

import (
	"sync"

	"github.com/emirpasic/gods/lists/arraylist"
	"github.com/emirpasic/gods/utils"

	"github.com/andronics/shadowfs/pkg/shadowfs/logging"
)

// Engine evaluates visibility for a virtual path against an ordered set of
// rules. It never panics and never returns an error from Visible — failures
// are only possible at Add time, per spec.md §4.2's propagation policy.
type Engine struct {
	mu      sync.RWMutex
	ordered *arraylist.List // of *Rule, kept sorted by priority desc, insertion asc
	next    int             // next insertion index
	Default Action

	logger *logging.Logger
}

// priorityComparator orders rules by descending priority, breaking ties by
// ascending insertion index so that equal-priority rules evaluate in the
// order they were registered.
func priorityComparator(a, b interface{}) int {
	ra, rb := a.(*Rule), b.(*Rule)
	if ra.Priority != rb.Priority {
		return utils.IntComparator(rb.Priority, ra.Priority)
	}
	return utils.IntComparator(ra.insertionIndex, rb.insertionIndex)
}

// NewEngine creates an empty engine with the given default action.
func NewEngine(defaultAction Action, logger *logging.Logger) *Engine {
	return &Engine{
		ordered: arraylist.New(),
		Default: defaultAction,
		logger:  logger,
	}
}

// Add registers a new rule. It fails if the rule's patterns or condition
// regular expressions don't compile; name uniqueness is not enforced, per
// spec.md §4.2.
func (e *Engine) Add(r Rule) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := r.compile(); err != nil {
		return err
	}
	r.insertionIndex = e.next
	e.next++

	e.ordered.Add(&r)
	e.ordered.Sort(priorityComparator)
	return nil
}

// ReplaceAll atomically swaps the engine's entire rule set, used when
// reloading configuration without tearing down and rebuilding the engine
// (and thereby invalidating every holder of its pointer).
func (e *Engine) ReplaceAll(newRules []Rule, defaultAction Action) error {
	ordered := arraylist.New()
	next := 0
	for _, r := range newRules {
		if err := r.compile(); err != nil {
			return err
		}
		r := r
		r.insertionIndex = next
		next++
		ordered.Add(&r)
	}
	ordered.Sort(priorityComparator)

	e.mu.Lock()
	e.ordered = ordered
	e.next = next
	e.Default = defaultAction
	e.mu.Unlock()
	return nil
}

// Remove deletes the first rule (in priority order) whose name matches.
func (e *Engine) Remove(name string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, v := range e.ordered.Values() {
		if v.(*Rule).Name == name {
			e.ordered.Remove(i)
			return true
		}
	}
	return false
}

// SetEnabled toggles the first rule (in priority order) whose name matches,
// returning whether a rule was found.
func (e *Engine) SetEnabled(name string, enabled bool) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, v := range e.ordered.Values() {
		rule := v.(*Rule)
		if rule.Name == name {
			rule.Enabled = enabled
			return true
		}
	}
	return false
}

// Rules returns a snapshot of the current rule list in evaluation order.
func (e *Engine) Rules() []Rule {
	e.mu.RLock()
	defer e.mu.RUnlock()

	values := e.ordered.Values()
	out := make([]Rule, len(values))
	for i, v := range values {
		out[i] = *v.(*Rule)
	}
	return out
}

// Visible evaluates the engine's rules against path/attrs and reports
// whether the path is visible. attrs may be nil, in which case any rule
// carrying conditions cannot match (spec.md: "absent attributes cause any
// condition rule to fail to match").
func (e *Engine) Visible(path string, attrs *Attrs) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, v := range e.ordered.Values() {
		rule := v.(*Rule)
		if !rule.Enabled {
			continue
		}
		if rule.matches(path, attrs) {
			visible := rule.Action == Include
			e.logger.Trace("rule %q decided %s -> %v", rule.Name, path, visible)
			return visible
		}
	}
	visible := e.Default == Include
	e.logger.Trace("default action decided %s -> %v", path, visible)
	return visible
}
