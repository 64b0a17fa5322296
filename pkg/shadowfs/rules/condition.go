package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Comparator names how a condition's target value is compared against the
// attribute's actual value.
type Comparator string

const (
	CompareEQ         Comparator = "eq"
	CompareNE         Comparator = "ne"
	CompareLT         Comparator = "lt"
	CompareLE         Comparator = "le"
	CompareGT         Comparator = "gt"
	CompareGE         Comparator = "ge"
	CompareContains   Comparator = "contains"
	CompareStartsWith Comparator = "starts-with"
	CompareEndsWith   Comparator = "ends-with"
	CompareMatches    Comparator = "matches"
)

// Combinator names how a rule's condition list is reduced to a single
// boolean.
type Combinator string

const (
	CombinatorAll  Combinator = "all"  // logical AND
	CombinatorAny  Combinator = "any"  // logical OR
	CombinatorNone Combinator = "none" // NOT(AND)
)

// Condition tests a single attribute against a target value. A Condition
// that names an attribute the supplied Attrs doesn't have is defined to be
// false, never an error — spec.md §4.2 requires conditions to never throw.
type Condition struct {
	Attribute  Attribute
	Comparator Comparator
	Target     string

	// compiledMatches caches the compiled regexp for CompareMatches so that
	// repeated evaluation doesn't recompile on every call. It is populated
	// by the owning Rule's load-time compilation step (see Rule.compile),
	// not by this type directly.
	compiledMatches *regexp.Regexp
}

// compile pre-compiles anything the condition needs up front, so that
// evaluation at read time can never fail to compile a pattern — only to
// evaluate false. Per spec.md's data-model invariant, a regex condition
// that fails to compile at load time rejects the whole rule at
// registration.
func (c *Condition) compile() error {
	if c.Comparator == CompareMatches {
		re, err := regexp.Compile(c.Target)
		if err != nil {
			return fmt.Errorf("condition on %s: invalid regular expression %q: %w", c.Attribute, c.Target, err)
		}
		c.compiledMatches = re
	}
	return nil
}

// evaluate reports whether the condition matches the given attrs. It never
// panics or returns an error: an unknown comparator or a missing attribute
// simply evaluates to false.
func (c *Condition) evaluate(attrs *Attrs) bool {
	if attrs == nil || !attrs.Has(c.Attribute) {
		return false
	}

	switch c.Attribute {
	case AttrSize:
		return compareInt(attrs.Size, c.Comparator, c.Target)
	case AttrMTime:
		return compareInt(attrs.ModTime, c.Comparator, c.Target)
	case AttrUID:
		return compareInt(int64(attrs.UID), c.Comparator, c.Target)
	case AttrGID:
		return compareInt(int64(attrs.GID), c.Comparator, c.Target)
	case AttrMode:
		return compareInt(int64(attrs.Mode), c.Comparator, c.Target)
	case AttrIsFile:
		return compareBool(attrs.IsFile, c.Comparator, c.Target)
	case AttrIsDir:
		return compareBool(attrs.IsDir, c.Comparator, c.Target)
	case AttrIsSymlink:
		return compareBool(attrs.IsSymlink, c.Comparator, c.Target)
	case AttrPermissions:
		return compareString(attrs.Permissions, c.Comparator, c.Target, c.compiledMatches)
	default:
		return false
	}
}

func compareInt(actual int64, cmp Comparator, targetStr string) bool {
	target, err := strconv.ParseInt(targetStr, 10, 64)
	if err != nil {
		return false
	}
	switch cmp {
	case CompareEQ:
		return actual == target
	case CompareNE:
		return actual != target
	case CompareLT:
		return actual < target
	case CompareLE:
		return actual <= target
	case CompareGT:
		return actual > target
	case CompareGE:
		return actual >= target
	default:
		return false
	}
}

func compareBool(actual bool, cmp Comparator, targetStr string) bool {
	target, err := strconv.ParseBool(targetStr)
	if err != nil {
		return false
	}
	switch cmp {
	case CompareEQ:
		return actual == target
	case CompareNE:
		return actual != target
	default:
		return false
	}
}

func compareString(actual string, cmp Comparator, target string, matches *regexp.Regexp) bool {
	switch cmp {
	case CompareEQ:
		return actual == target
	case CompareNE:
		return actual != target
	case CompareContains:
		return strings.Contains(actual, target)
	case CompareStartsWith:
		return strings.HasPrefix(actual, target)
	case CompareEndsWith:
		return strings.HasSuffix(actual, target)
	case CompareMatches:
		return matches != nil && matches.MatchString(actual)
	default:
		return false
	}
}

// evaluateAll reduces a condition list with the given combinator. An empty
// condition list is considered to match unconditionally (the rule is then
// purely pattern-driven).
func evaluateAll(conditions []Condition, combinator Combinator, attrs *Attrs) bool {
	if len(conditions) == 0 {
		return true
	}
	switch combinator {
	case CombinatorAny:
		for _, c := range conditions {
			if c.evaluate(attrs) {
				return true
			}
		}
		return false
	case CombinatorNone:
		// None = NOT(AND): false only when every condition matches.
		for _, c := range conditions {
			if !c.evaluate(attrs) {
				return true
			}
		}
		return false
	case CombinatorAll:
		fallthrough
	default:
		for _, c := range conditions {
			if !c.evaluate(attrs) {
				return false
			}
		}
		return true
	}
}
