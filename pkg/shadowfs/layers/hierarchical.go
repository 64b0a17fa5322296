package layers

import (
	"sort"
	"sync"

	"github.com/andronics/shadowfs/pkg/shadowfs/scan"
)

// hierarchicalNode is one level of the tree: classified children, plus the
// records that terminate at exactly this depth.
type hierarchicalNode struct {
	children map[string]*hierarchicalNode
	leaves   []scan.FileRecord
}

func newHierarchicalNode() *hierarchicalNode {
	return &hierarchicalNode{children: make(map[string]*hierarchicalNode)}
}

// HierarchicalLayer is the C5 "Hierarchical" variant: an ordered chain of
// classifier functions, each contributing one level of a tree, so that
// "genre/decade/artist" style nesting falls out of composing three single
// classifiers.
type HierarchicalLayer struct {
	name        string
	classifiers []ClassifierFunc

	mu   sync.RWMutex
	root *hierarchicalNode
}

// NewHierarchicalLayer constructs a named Hierarchical layer from an ordered
// list of classifier functions, one per tree depth.
func NewHierarchicalLayer(name string, classifiers ...ClassifierFunc) *HierarchicalLayer {
	return &HierarchicalLayer{name: name, classifiers: classifiers}
}

func (l *HierarchicalLayer) Name() string { return l.name }

func (l *HierarchicalLayer) BuildIndex(files []scan.FileRecord) {
	root := newHierarchicalNode()

	for _, f := range files {
		if f.Mode.IsDir {
			continue
		}
		node := root
		skip := false
		for _, classify := range l.classifiers {
			category := safeClassify(classify, f)
			if category == "" {
				skip = true
				break
			}
			child, ok := node.children[category]
			if !ok {
				child = newHierarchicalNode()
				node.children[category] = child
			}
			node = child
		}
		if skip {
			continue
		}
		node.leaves = append(node.leaves, f)
	}
	sortTree(root)

	l.mu.Lock()
	l.root = root
	l.mu.Unlock()
}

func sortTree(node *hierarchicalNode) {
	sort.Slice(node.leaves, func(i, j int) bool { return node.leaves[i].Name < node.leaves[j].Name })
	for _, child := range node.children {
		sortTree(child)
	}
}

// Resolve requires exactly len(classifiers)+1 path components: one category
// per classifier depth, plus the leaf file name.
func (l *HierarchicalLayer) Resolve(subPath string) (string, bool) {
	parts := splitPath(subPath)
	if len(parts) != len(l.classifiers)+1 {
		return "", false
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.root == nil {
		return "", false
	}

	node := l.root
	for _, category := range parts[:len(parts)-1] {
		child, ok := node.children[category]
		if !ok {
			return "", false
		}
		node = child
	}
	name := parts[len(parts)-1]
	for _, f := range node.leaves {
		if f.Name == name {
			return f.AbsolutePath, true
		}
	}
	return "", false
}

// List descends the tree by category at every depth up to len(classifiers);
// at that final depth it lists leaf file names rather than further
// categories.
func (l *HierarchicalLayer) List(subPath string) []string {
	parts := splitPath(subPath)
	if len(parts) > len(l.classifiers) {
		return nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.root == nil {
		return nil
	}

	node := l.root
	for _, category := range parts {
		child, ok := node.children[category]
		if !ok {
			return nil
		}
		node = child
	}

	if len(parts) == len(l.classifiers) {
		names := make([]string, len(node.leaves))
		for i, f := range node.leaves {
			names[i] = f.Name
		}
		return names
	}

	categories := make([]string, 0, len(node.children))
	for category := range node.children {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}
