package layers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/andronics/shadowfs/pkg/shadowfs/scan"
)

func writeManagerFile(t *testing.T, root, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(root, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestManagerAddSourceRejectsNonDirectory(t *testing.T) {
	root := t.TempDir()
	writeManagerFile(t, root, "f.txt", "x")

	m := NewManager(nil)
	if err := m.AddSource(scan.Entry{Root: filepath.Join(root, "f.txt")}); err == nil {
		t.Fatalf("expected error registering a file as a source root")
	}
}

func TestManagerAddLayerRejectsDuplicateName(t *testing.T) {
	m := NewManager(nil)
	if err := m.AddLayer(NewClassifier("byext", ExtensionClassifierFunc)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := m.AddLayer(NewClassifier("byext", ExtensionClassifierFunc)); err == nil {
		t.Fatalf("expected error registering a duplicate layer name")
	}
}

func TestManagerScanRebuildResolveList(t *testing.T) {
	root := t.TempDir()
	writeManagerFile(t, root, "a.png", "data")
	writeManagerFile(t, root, "b.txt", "data")

	m := NewManager(nil)
	if err := m.AddSource(scan.Entry{Root: root}); err != nil {
		t.Fatalf("AddSource: %v", err)
	}
	if err := m.AddLayer(NewClassifier("byext", ExtensionClassifierFunc)); err != nil {
		t.Fatalf("AddLayer: %v", err)
	}
	if err := m.Scan(); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	m.RebuildIndexes()

	layerNames := m.List("")
	if len(layerNames) != 1 || layerNames[0] != "byext" {
		t.Fatalf("expected [byext], got %v", layerNames)
	}

	categories := m.List("byext")
	if len(categories) != 2 {
		t.Fatalf("expected 2 categories, got %v", categories)
	}

	path, ok := m.Resolve("byext/png/a.png")
	if !ok || path != filepath.Join(root, "a.png") {
		t.Fatalf("expected resolve to backing path, got %q, %v", path, ok)
	}
}

func TestManagerAddLayerAfterScanBuildsImmediately(t *testing.T) {
	root := t.TempDir()
	writeManagerFile(t, root, "a.png", "data")

	m := NewManager(nil)
	if err := m.AddSource(scan.Entry{Root: root}); err != nil {
		t.Fatalf("AddSource: %v", err)
	}
	if err := m.Scan(); err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if err := m.AddLayer(NewClassifier("byext", ExtensionClassifierFunc)); err != nil {
		t.Fatalf("AddLayer: %v", err)
	}

	if categories := m.List("byext"); len(categories) != 1 {
		t.Fatalf("expected layer added after a scan to be indexed immediately, got %v", categories)
	}
}

func TestManagerListLayersIsSorted(t *testing.T) {
	m := NewManager(nil)
	if err := m.AddLayer(NewClassifier("zebra", ExtensionClassifierFunc)); err != nil {
		t.Fatalf("AddLayer zebra: %v", err)
	}
	if err := m.AddLayer(NewClassifier("apple", ExtensionClassifierFunc)); err != nil {
		t.Fatalf("AddLayer apple: %v", err)
	}
	if err := m.AddLayer(NewClassifier("mango", ExtensionClassifierFunc)); err != nil {
		t.Fatalf("AddLayer mango: %v", err)
	}

	names := m.List("")
	want := []string{"apple", "mango", "zebra"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
}

func TestManagerRemoveLayer(t *testing.T) {
	m := NewManager(nil)
	_ = m.AddLayer(NewClassifier("byext", ExtensionClassifierFunc))

	if !m.RemoveLayer("byext") {
		t.Fatalf("expected removal of registered layer to succeed")
	}
	if m.RemoveLayer("byext") {
		t.Fatalf("expected second removal to report false")
	}
	if _, ok := m.GetLayer("byext"); ok {
		t.Fatalf("expected layer to be gone after removal")
	}
}
