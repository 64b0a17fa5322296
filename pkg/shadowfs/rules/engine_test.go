package rules

import (
	"testing"

	"github.com/andronics/shadowfs/pkg/shadowfs/pattern"
)

func TestDefaultActionWhenNoRulesMatch(t *testing.T) {
	e := NewEngine(Include, nil)
	if !e.Visible("anything.txt", nil) {
		t.Errorf("expected default Include to apply")
	}
}

func TestFirstMatchingRuleWins(t *testing.T) {
	e := NewEngine(Include, nil)
	mustAdd(t, e, Rule{Name: "exclude-tmp", Action: Exclude, Patterns: []string{"*.tmp"}, Dialect: pattern.Glob, Priority: 100, Enabled: true})
	mustAdd(t, e, Rule{Name: "include-all", Action: Include, Patterns: []string{"*"}, Dialect: pattern.Glob, Priority: 1, Enabled: true})

	if e.Visible("drop.tmp", nil) {
		t.Errorf("expected drop.tmp to be excluded")
	}
	if !e.Visible("keep.txt", nil) {
		t.Errorf("expected keep.txt to be included")
	}
}

func TestDisabledRulesAreSkipped(t *testing.T) {
	e := NewEngine(Include, nil)
	mustAdd(t, e, Rule{Name: "exclude-tmp", Action: Exclude, Patterns: []string{"*.tmp"}, Dialect: pattern.Glob, Priority: 100, Enabled: false})

	if !e.Visible("drop.tmp", nil) {
		t.Errorf("expected disabled rule to be ignored, falling through to default Include")
	}
}

func TestConditionsRequireAttrs(t *testing.T) {
	e := NewEngine(Include, nil)
	mustAdd(t, e, Rule{
		Name:       "exclude-large",
		Action:     Exclude,
		Conditions: []Condition{{Attribute: AttrSize, Comparator: CompareGT, Target: "1000"}},
		Combinator: CombinatorAll,
		Priority:   10,
		Enabled:    true,
	})

	if !e.Visible("big.bin", nil) {
		t.Errorf("expected rule with conditions to fail to match without attrs -> fall through to default")
	}

	small := NewAttrs().WithSize(10)
	if !e.Visible("small.bin", small) {
		t.Errorf("expected small file to remain visible")
	}

	large := NewAttrs().WithSize(5000)
	if e.Visible("big.bin", large) {
		t.Errorf("expected large file to be excluded")
	}
}

func TestCombinators(t *testing.T) {
	conds := []Condition{
		{Attribute: AttrIsDir, Comparator: CompareEQ, Target: "false"},
		{Attribute: AttrSize, Comparator: CompareGT, Target: "0"},
	}
	attrs := NewAttrs().WithIsDir(false).WithSize(5)

	if !evaluateAll(conds, CombinatorAll, attrs) {
		t.Errorf("expected All to be true when both conditions hold")
	}
	if !evaluateAll(conds, CombinatorAny, attrs) {
		t.Errorf("expected Any to be true")
	}
	if evaluateAll(conds, CombinatorNone, attrs) {
		t.Errorf("expected None to be false when both conditions hold")
	}
}

func TestPriorityOrderingWithStableTies(t *testing.T) {
	e := NewEngine(Exclude, nil)
	mustAdd(t, e, Rule{Name: "first", Action: Include, Patterns: []string{"a.txt"}, Dialect: pattern.Glob, Priority: 5, Enabled: true})
	mustAdd(t, e, Rule{Name: "second", Action: Exclude, Patterns: []string{"a.txt"}, Dialect: pattern.Glob, Priority: 5, Enabled: true})

	// Equal priority: "first" was registered first, so it should win.
	if !e.Visible("a.txt", nil) {
		t.Errorf("expected the first-registered rule to decide ties")
	}
}

func TestInvalidPatternRejectsRuleAtLoadTime(t *testing.T) {
	e := NewEngine(Include, nil)
	err := e.Add(Rule{Name: "bad", Patterns: []string{"a**b"}, Dialect: pattern.Glob, Priority: 1, Enabled: true})
	if err == nil {
		t.Fatalf("expected invalid pattern to be rejected at Add time")
	}
}

func TestRemoveAndSetEnabled(t *testing.T) {
	e := NewEngine(Include, nil)
	mustAdd(t, e, Rule{Name: "x", Action: Exclude, Patterns: []string{"*.tmp"}, Dialect: pattern.Glob, Priority: 1, Enabled: true})

	if !e.SetEnabled("x", false) {
		t.Fatalf("expected to find rule x")
	}
	if !e.Visible("a.tmp", nil) {
		t.Errorf("expected rule to be disabled")
	}

	if !e.Remove("x") {
		t.Fatalf("expected to remove rule x")
	}
	if e.Remove("x") {
		t.Fatalf("expected second removal to report not found")
	}
}

func mustAdd(t *testing.T, e *Engine, r Rule) {
	t.Helper()
	if err := e.Add(r); err != nil {
		t.Fatalf("Add(%q): %v", r.Name, err)
	}
}
