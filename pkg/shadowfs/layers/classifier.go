package layers

import (
	"mime"
	"sort"
	"strings"
	"sync"

	"github.com/andronics/shadowfs/pkg/shadowfs/pattern"
	"github.com/andronics/shadowfs/pkg/shadowfs/scan"
)

// ClassifierFunc maps a FileRecord to a category string. An empty result
// means "skip this file" (spec.md §4.5: "skip files whose classification
// throws" — in Go there's no exception to throw, so an empty category plays
// the same role).
type ClassifierFunc func(scan.FileRecord) string

// Classifier is the C5 "Classifier" variant: one category function
// producing one bucket per file.
type Classifier struct {
	name    string
	classify ClassifierFunc

	mu    sync.RWMutex
	index map[string][]scan.FileRecord // category -> records, by Name
}

// NewClassifier constructs a named classifier layer around fn.
func NewClassifier(name string, fn ClassifierFunc) *Classifier {
	return &Classifier{name: name, classify: fn}
}

func (c *Classifier) Name() string { return c.name }

func (c *Classifier) BuildIndex(files []scan.FileRecord) {
	index := make(map[string][]scan.FileRecord)
	for _, f := range files {
		if f.Mode.IsDir {
			continue
		}
		category := safeClassify(c.classify, f)
		if category == "" {
			continue
		}
		index[category] = append(index[category], f)
	}
	for category := range index {
		sort.Slice(index[category], func(i, j int) bool {
			return index[category][i].Name < index[category][j].Name
		})
	}

	c.mu.Lock()
	c.index = index
	c.mu.Unlock()
}

// safeClassify guards against a user-supplied classifier panicking, mapping
// that to "skip" rather than letting it escape BuildIndex.
func safeClassify(fn ClassifierFunc, f scan.FileRecord) (category string) {
	defer func() {
		if recover() != nil {
			category = ""
		}
	}()
	return fn(f)
}

func (c *Classifier) Resolve(subPath string) (string, bool) {
	parts := splitPath(subPath)
	if len(parts) != 2 {
		return "", false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, f := range c.index[parts[0]] {
		if f.Name == parts[1] {
			return f.AbsolutePath, true
		}
	}
	return "", false
}

func (c *Classifier) List(subPath string) []string {
	parts := splitPath(subPath)
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(parts) == 0 {
		categories := make([]string, 0, len(c.index))
		for category := range c.index {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		return categories
	}
	if len(parts) == 1 {
		records := c.index[parts[0]]
		names := make([]string, len(records))
		for i, r := range records {
			names[i] = r.Name
		}
		return names
	}
	return nil
}

// Built-in classifier functions, grounded on shadowfs/layers/classifier.py's
// built-in set: extension, size bucket, MIME major type, and a
// first-match-wins pattern list.

// ExtensionClassifierFunc buckets by lowercased extension, with
// "no-extension" for bare names.
func ExtensionClassifierFunc(f scan.FileRecord) string {
	if f.Extension == "" {
		return "no-extension"
	}
	return f.Extension
}

const (
	sizeEmpty     = "empty"
	sizeUnder1KiB = "under-1kib"
	sizeUnder1MiB = "under-1mib"
	sizeUnder100MiB = "under-100mib"
	sizeUnder1GiB = "under-1gib"
	sizeHuge      = "huge"
)

// SizeBucketClassifierFunc buckets by file size: empty < 1KiB < 1MiB <
// 100MiB < 1GiB <= huge, per spec.md §4.5.1.
func SizeBucketClassifierFunc(f scan.FileRecord) string {
	const (
		kib = 1024
		mib = 1024 * kib
		gib = 1024 * mib
	)
	switch {
	case f.Size == 0:
		return sizeEmpty
	case f.Size < kib:
		return sizeUnder1KiB
	case f.Size < mib:
		return sizeUnder1MiB
	case f.Size < 100*mib:
		return sizeUnder100MiB
	case f.Size < gib:
		return sizeUnder1GiB
	default:
		return sizeHuge
	}
}

// MimeMajorClassifierFunc buckets by the major component of the MIME type
// inferred from the file's extension (e.g. "text", "image", "application"),
// falling back to "other" when no MIME type is registered for the
// extension.
func MimeMajorClassifierFunc(f scan.FileRecord) string {
	if f.Extension == "" {
		return "other"
	}
	mt := mime.TypeByExtension("." + f.Extension)
	if mt == "" {
		return "other"
	}
	major, _, found := strings.Cut(mt, "/")
	if !found || major == "" {
		return "other"
	}
	return major
}

// PatternListClassifier builds a ClassifierFunc from an ordered list of
// (category, patterns) pairs; the first pattern to match a file's relative
// path wins, falling back to "other" when none do.
func PatternListClassifier(categories []PatternCategory) (ClassifierFunc, error) {
	compiled := make([]compiledCategory, len(categories))
	for i, cat := range categories {
		entries := make([]pattern.Entry, len(cat.Patterns))
		for j, p := range cat.Patterns {
			entries[j] = pattern.Entry{Pattern: p, Dialect: pattern.Glob}
		}
		m, err := pattern.Compile(entries)
		if err != nil {
			return nil, err
		}
		compiled[i] = compiledCategory{name: cat.Name, matcher: m}
	}
	return func(f scan.FileRecord) string {
		for _, c := range compiled {
			if c.matcher.Match(f.RelativePath) {
				return c.name
			}
		}
		return "other"
	}, nil
}

// PatternCategory names one category in a PatternListClassifier's ordered
// list.
type PatternCategory struct {
	Name     string
	Patterns []string
}

type compiledCategory struct {
	name    string
	matcher *pattern.Matcher
}
