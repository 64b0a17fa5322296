package layers

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/andronics/shadowfs/pkg/shadowfs/pattern"
	"github.com/andronics/shadowfs/pkg/shadowfs/scan"
)

// TagExtractor produces zero or more tags for a file. An error causes the
// whole file to be skipped by the owning TagLayer (spec.md §4.5.3:
// "extractor exceptions cause the file to be skipped entirely"), not just
// that extractor's contribution.
type TagExtractor func(f scan.FileRecord) ([]string, error)

// TagLayer is the C5 "Tag" variant: zero-or-more tags per file via an
// ordered list of extractors, deduplicated across extractors.
type TagLayer struct {
	name       string
	extractors []TagExtractor

	mu    sync.RWMutex
	index map[string][]scan.FileRecord // tag -> unique records, sorted by name
}

// NewTagLayer constructs a named Tag layer applying extractors in order.
func NewTagLayer(name string, extractors ...TagExtractor) *TagLayer {
	return &TagLayer{name: name, extractors: extractors}
}

func (l *TagLayer) Name() string { return l.name }

func (l *TagLayer) BuildIndex(files []scan.FileRecord) {
	index := make(map[string][]scan.FileRecord)

	for _, f := range files {
		if f.Mode.IsDir {
			continue
		}
		tags, ok := l.collectTags(f)
		if !ok {
			continue
		}
		for tag := range tags {
			index[tag] = append(index[tag], f)
		}
	}
	for tag := range index {
		index[tag] = dedupeAndSortByName(index[tag])
	}

	l.mu.Lock()
	l.index = index
	l.mu.Unlock()
}

// collectTags runs every extractor, unioning and deduplicating string tags.
// It returns ok=false if any extractor errors, meaning the file should be
// dropped entirely.
func (l *TagLayer) collectTags(f scan.FileRecord) (map[string]struct{}, bool) {
	tags := make(map[string]struct{})
	for _, extract := range l.extractors {
		extracted, err := safeExtract(extract, f)
		if err != nil {
			return nil, false
		}
		for _, tag := range extracted {
			tag = strings.TrimSpace(tag)
			if tag == "" {
				continue
			}
			tags[tag] = struct{}{}
		}
	}
	if len(tags) == 0 {
		return nil, true
	}
	return tags, true
}

func safeExtract(extract TagExtractor, f scan.FileRecord) (tags []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errPanic
		}
	}()
	return extract(f)
}

var errPanic = errExtractorPanic{}

type errExtractorPanic struct{}

func (errExtractorPanic) Error() string { return "tag extractor panicked" }

func dedupeAndSortByName(records []scan.FileRecord) []scan.FileRecord {
	seen := make(map[string]bool, len(records))
	out := records[:0]
	for _, r := range records {
		if seen[r.AbsolutePath] {
			continue
		}
		seen[r.AbsolutePath] = true
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (l *TagLayer) Resolve(subPath string) (string, bool) {
	parts := splitPath(subPath)
	if len(parts) != 2 {
		return "", false
	}
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, f := range l.index[parts[0]] {
		if f.Name == parts[1] {
			return f.AbsolutePath, true
		}
	}
	return "", false
}

func (l *TagLayer) List(subPath string) []string {
	parts := splitPath(subPath)
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(parts) == 0 {
		tags := make([]string, 0, len(l.index))
		for tag := range l.index {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		return tags
	}
	if len(parts) == 1 {
		records := l.index[parts[0]]
		names := make([]string, len(records))
		for i, r := range records {
			names[i] = r.Name
		}
		return names
	}
	return nil
}

// Built-in extractors, grounded on shadowfs/layers/tag.py's extractor set.

// SidecarTagExtractor reads a sidecar file alongside F named F+suffix.
// Content is parsed as a JSON array of strings if it parses as one,
// otherwise as a comma-separated list; surrounding whitespace is stripped
// and empty values discarded, per spec.md §6's sidecar format.
func SidecarTagExtractor(suffix string) TagExtractor {
	return func(f scan.FileRecord) ([]string, error) {
		content, err := os.ReadFile(f.AbsolutePath + suffix)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, nil
			}
			return nil, err
		}
		return parseSidecarContent(content), nil
	}
}

func parseSidecarContent(content []byte) []string {
	var asJSON []string
	if json.Unmarshal(content, &asJSON) == nil {
		return asJSON
	}
	parts := strings.Split(string(content), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// FilenamePatternExtractor tags a file with every category whose glob
// pattern list matches the file's base name.
func FilenamePatternExtractor(categories []PatternCategory) (TagExtractor, error) {
	return patternMapExtractor(categories, func(f scan.FileRecord) string { return f.Name })
}

// PathPatternExtractor tags a file with every category whose glob pattern
// list matches the file's relative path.
func PathPatternExtractor(categories []PatternCategory) (TagExtractor, error) {
	return patternMapExtractor(categories, func(f scan.FileRecord) string { return f.RelativePath })
}

func patternMapExtractor(categories []PatternCategory, subject func(scan.FileRecord) string) (TagExtractor, error) {
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
	return func(f scan.FileRecord) ([]string, error) {
		var tags []string
		for _, c := range compiled {
			if c.matcher.Match(subject(f)) {
				tags = append(tags, c.name)
			}
		}
		return tags, nil
	}, nil
}

// XattrTagExtractor reads the named extended attribute off each file and
// parses its raw value the same way SidecarTagExtractor parses a sidecar
// file's contents (a JSON string array, falling back to a comma-separated
// list), the first-listed built-in extractor. A missing attribute yields
// no tags, not an error; any other failure (permissions, I/O) drops the
// file per TagExtractor's contract. Backed by Lgetxattr/Llistxattr on POSIX
// (xattr_posix.go) and a stub reporting "unsupported" on Windows
// (xattr_windows.go).
func XattrTagExtractor(attribute string) TagExtractor {
	return func(f scan.FileRecord) ([]string, error) {
		value, err := getXattr(f.AbsolutePath, attribute)
		if err != nil {
			if isXattrMissing(err) {
				return nil, nil
			}
			return nil, err
		}
		return parseSidecarContent(value), nil
	}
}

// ExtensionGroupExtractor tags a file with every group whose extension list
// contains the file's extension (e.g. group "image" <- {"png","jpg","gif"}).
func ExtensionGroupExtractor(groups map[string][]string) TagExtractor {
	byExtension := make(map[string][]string)
	for group, extensions := range groups {
		for _, ext := range extensions {
			ext = strings.ToLower(ext)
			byExtension[ext] = append(byExtension[ext], group)
		}
	}
	return func(f scan.FileRecord) ([]string, error) {
		return byExtension[f.Extension], nil
	}
}
