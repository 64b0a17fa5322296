package pattern

import "testing"

func TestGlobBasic(t *testing.T) {
	m, err := Compile([]Entry{{Pattern: "*.txt", Dialect: Glob}})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !m.Match("notes.txt") {
		t.Errorf("expected notes.txt to match *.txt")
	}
	if m.Match("dir/notes.txt") {
		t.Errorf("expected * not to cross a path separator")
	}
}

func TestGlobDoubleStar(t *testing.T) {
	m, err := Compile([]Entry{{Pattern: "**/notes.txt", Dialect: Glob}})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !m.Match("notes.txt") {
		t.Errorf("expected ** to match zero segments")
	}
	if !m.Match("a/b/notes.txt") {
		t.Errorf("expected ** to match multiple segments")
	}
}

func TestGlobDoubleStarMustBeWholeSegment(t *testing.T) {
	if _, err := Compile([]Entry{{Pattern: "a**b", Dialect: Glob}}); err == nil {
		t.Fatalf("expected error for '**' fused into a segment")
	}
}

func TestGlobCaseInsensitive(t *testing.T) {
	m, err := Compile([]Entry{{Pattern: "*.TXT", Dialect: Glob, CaseInsensitive: true}})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !m.Match("readme.txt") {
		t.Errorf("expected case-insensitive match")
	}
}

func TestRegex(t *testing.T) {
	m, err := Compile([]Entry{{Pattern: `^drafts/.*\.md$`, Dialect: Regex}})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !m.Match("drafts/post.md") {
		t.Errorf("expected regex match")
	}
	if m.Match("published/post.md") {
		t.Errorf("expected regex not to match")
	}
}

func TestRegexInvalid(t *testing.T) {
	if _, err := Compile([]Entry{{Pattern: "(", Dialect: Regex}}); err == nil {
		t.Fatalf("expected error for invalid regex")
	}
}

func TestCompositeOrSemantics(t *testing.T) {
	m, err := Compile([]Entry{
		{Pattern: "*.py", Dialect: Glob},
		{Pattern: "*.md", Dialect: Glob},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	for _, name := range []string{"a.py", "b.md"} {
		if !m.Match(name) {
			t.Errorf("expected %s to match one of the composite patterns", name)
		}
	}
	if m.Match("c.txt") {
		t.Errorf("expected c.txt not to match")
	}
}

func TestNormalizeStripsLeadingSlashAndBackslashes(t *testing.T) {
	if got := Normalize(`\a\b`); got != "a/b" {
		t.Errorf("Normalize(%q) = %q", `\a\b`, got)
	}
	if got := Normalize("/a/b"); got != "a/b" {
		t.Errorf("Normalize(%q) = %q", "/a/b", got)
	}
}

func TestEmptyMatcherNeverMatches(t *testing.T) {
	m, err := Compile(nil)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !m.Empty() {
		t.Errorf("expected empty matcher")
	}
	if m.Match("anything") {
		t.Errorf("expected empty matcher to match nothing")
	}
}
