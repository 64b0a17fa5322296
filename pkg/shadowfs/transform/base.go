package transform

import "github.com/andronics/shadowfs/pkg/shadowfs/pattern"

// base provides the name/enabled/pattern-support plumbing shared by every
// built-in transform, so each variant only has to implement Apply.
type base struct {
	name    string
	enabled bool
	matcher *pattern.Matcher
}

func newBase(name string, enabled bool, globPattern string) (base, error) {
	var matcher *pattern.Matcher
	if globPattern != "" {
		m, err := pattern.Compile([]pattern.Entry{{Pattern: globPattern, Dialect: pattern.Glob}})
		if err != nil {
			return base{}, err
		}
		matcher = m
	}
	return base{name: name, enabled: enabled, matcher: matcher}, nil
}

func (b base) Name() string { return b.name }

func (b base) Enabled() bool { return b.enabled }

// Supports reports true when no pattern was configured (applies to every
// path) or when the configured pattern matches, per spec.md §4.7's
// "supports(path, meta) -> bool (default true)".
func (b base) Supports(path string, _ Meta) bool {
	if b.matcher == nil || b.matcher.Empty() {
		return true
	}
	return b.matcher.Match(path)
}
