package fskernel

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/andronics/shadowfs/pkg/shadowfs/cache"
	"github.com/andronics/shadowfs/pkg/shadowfs/config"
	"github.com/andronics/shadowfs/pkg/shadowfs/layers"
	"github.com/andronics/shadowfs/pkg/shadowfs/logging"
	"github.com/andronics/shadowfs/pkg/shadowfs/pattern"
	"github.com/andronics/shadowfs/pkg/shadowfs/rules"
	"github.com/andronics/shadowfs/pkg/shadowfs/scan"
	"github.com/andronics/shadowfs/pkg/shadowfs/transform"
)

func testLogger() *logging.Logger {
	return logging.NewLogger(logging.LevelDisabled, io.Discard)
}

func testCacheFor() *cache.Cache {
	tc := cache.TierConfig{MaxEntries: 1000, MaxBytes: 1 << 20, Enabled: true}
	return cache.New(cache.Config{L1: tc, L2: tc, L3: tc}, testLogger())
}

// newTestHandler wires a Handler over a single source root with no virtual
// layers, the given rule engine, and the given pipeline.
func newTestHandler(t *testing.T, root string, readOnly bool, engine *rules.Engine, pipeline *transform.Pipeline) *Handler {
	t.Helper()
	logger := testLogger()

	manager := layers.NewManager(logger)
	if err := manager.AddSource(scan.Entry{Root: root}); err != nil {
		t.Fatalf("AddSource: %v", err)
	}
	if err := manager.Scan(); err != nil {
		t.Fatalf("Scan: %v", err)
	}

	cfg := &config.Config{
		Sources:  []config.SourceConfig{{Path: root}},
		ReadOnly: readOnly,
	}

	if engine == nil {
		engine = rules.NewEngine(rules.Include, logger)
	}
	if pipeline == nil {
		pipeline = transform.New(transform.Config{Cache: testCacheFor(), CacheTier: cache.L3, Cacheable: true}, logger)
	}

	return New(cfg, manager, engine, pipeline, testCacheFor(), logger)
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestReadDirectoryExcludesRuleFilteredEntries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "keep.txt", "keep")
	writeFile(t, dir, "drop.tmp", "drop")

	logger := testLogger()
	engine := rules.NewEngine(rules.Include, logger)
	if err := engine.Add(rules.Rule{
		Name:     "drop-tmp",
		Action:   rules.Exclude,
		Patterns: []string{"*.tmp"},
		Dialect:  pattern.Glob,
		Priority: 100,
		Enabled:  true,
	}); err != nil {
		t.Fatalf("Add rule: %v", err)
	}

	h := newTestHandler(t, dir, false, engine, nil)

	names, rerr := h.ReadDirectory("/")
	if rerr != nil {
		t.Fatalf("ReadDirectory: %v", rerr)
	}
	for _, n := range names {
		if n == "drop.tmp" {
			t.Fatalf("expected drop.tmp to be filtered out of %v", names)
		}
	}
	found := false
	for _, n := range names {
		if n == "keep.txt" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected keep.txt to be present in %v", names)
	}
}

func TestReadAppliesUppercaseTransformAndCaches(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "hello.txt", "content1")

	logger := testLogger()
	upper, err := transform.NewUppercaseTransform("upper", true, "*.txt")
	if err != nil {
		t.Fatalf("NewUppercaseTransform: %v", err)
	}
	pl := transform.New(transform.Config{Cache: testCacheFor(), CacheTier: cache.L3, Cacheable: true}, logger)
	pl.SetSteps([]transform.Step{{Transform: upper, HaltOnError: false}})

	h := newTestHandler(t, dir, false, nil, pl)

	id, oerr := h.Open("/hello.txt", os.O_RDONLY)
	if oerr != nil {
		t.Fatalf("Open: %v", oerr)
	}

	data, rerr := h.Read(context.Background(), "/hello.txt", 1024, 0, id)
	if rerr != nil {
		t.Fatalf("Read: %v", rerr)
	}
	if string(data) != "CONTENT1" {
		t.Fatalf("expected CONTENT1, got %q", data)
	}

	data2, rerr := h.Read(context.Background(), "/hello.txt", 1024, 0, id)
	if rerr != nil {
		t.Fatalf("second Read: %v", rerr)
	}
	if string(data2) != "CONTENT1" {
		t.Fatalf("expected cached CONTENT1, got %q", data2)
	}
}

func TestWriteInvalidatesTransformedContentCache(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "hello.txt", "content1")

	logger := testLogger()
	upper, err := transform.NewUppercaseTransform("upper", true, "*.txt")
	if err != nil {
		t.Fatalf("NewUppercaseTransform: %v", err)
	}
	pl := transform.New(transform.Config{Cache: testCacheFor(), CacheTier: cache.L3, Cacheable: true}, logger)
	pl.SetSteps([]transform.Step{{Transform: upper, HaltOnError: false}})

	h := newTestHandler(t, dir, false, nil, pl)

	id, oerr := h.Open("/hello.txt", os.O_RDWR)
	if oerr != nil {
		t.Fatalf("Open: %v", oerr)
	}
	if _, rerr := h.Read(context.Background(), "/hello.txt", 1024, 0, id); rerr != nil {
		t.Fatalf("initial Read: %v", rerr)
	}

	if _, werr := h.Write("/hello.txt", []byte("zzz"), 0, id); werr != nil {
		t.Fatalf("Write: %v", werr)
	}

	data, rerr := h.Read(context.Background(), "/hello.txt", 1024, 0, id)
	if rerr != nil {
		t.Fatalf("Read after write: %v", rerr)
	}
	if string(data) != "ZZZTENT1" {
		t.Fatalf("expected ZZZTENT1 after write invalidation, got %q", data)
	}
}

func TestReadOnlyRejectsMutations(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "hello.txt", "content1")

	h := newTestHandler(t, dir, true, nil, nil)

	if _, err := h.Create("/x.txt", 0o644); err == nil || err.Code != ReadOnly {
		t.Fatalf("expected ReadOnly from Create, got %v", err)
	}
	if err := h.MakeDirectory("/y", 0o755); err == nil || err.Code != ReadOnly {
		t.Fatalf("expected ReadOnly from MakeDirectory, got %v", err)
	}
	if err := h.Unlink("/hello.txt"); err == nil || err.Code != ReadOnly {
		t.Fatalf("expected ReadOnly from Unlink, got %v", err)
	}
	if _, err := h.Open("/hello.txt", os.O_WRONLY); err == nil || err.Code != ReadOnly {
		t.Fatalf("expected ReadOnly from Open(write), got %v", err)
	}
}

func TestReleaseInvalidatesHandleForBadHandle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "hello.txt", "content1")

	h := newTestHandler(t, dir, false, nil, nil)

	id, oerr := h.Open("/hello.txt", os.O_RDONLY)
	if oerr != nil {
		t.Fatalf("Open: %v", oerr)
	}
	if err := h.Release(id); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if _, err := h.Read(context.Background(), "/hello.txt", 16, 0, id); err == nil || err.Code != BadHandle {
		t.Fatalf("expected BadHandle after release, got %v", err)
	}
	if err := h.Release(id); err == nil || err.Code != BadHandle {
		t.Fatalf("expected BadHandle on double release, got %v", err)
	}
}

func TestMakeDirectoryExistsForExistingPath(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	h := newTestHandler(t, dir, false, nil, nil)

	if err := h.MakeDirectory("/sub", 0o755); err == nil || err.Code != Exists {
		t.Fatalf("expected Exists, got %v", err)
	}
}

func TestRemoveDirectoryNotEmptyForNonEmptyDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}
	writeFile(t, filepath.Join(dir, "sub"), "child.txt", "x")
	h := newTestHandler(t, dir, false, nil, nil)

	if err := h.RemoveDirectory("/sub"); err == nil || err.Code != NotEmpty {
		t.Fatalf("expected NotEmpty, got %v", err)
	}
}

func TestCreateNotDirectoryWhenParentIsAFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "notadir", "x")
	h := newTestHandler(t, dir, false, nil, nil)

	if _, err := h.Create("/notadir/child.txt", 0o644); err == nil || err.Code != NotDirectory {
		t.Fatalf("expected NotDirectory, got %v", err)
	}
}

func TestUnlinkNotFoundForMissingPath(t *testing.T) {
	dir := t.TempDir()
	h := newTestHandler(t, dir, false, nil, nil)

	if err := h.Unlink("/missing.txt"); err == nil || err.Code != NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestGetAttributesNotFoundForMissingPath(t *testing.T) {
	dir := t.TempDir()
	h := newTestHandler(t, dir, false, nil, nil)

	if _, err := h.GetAttributes("/nope.txt"); err == nil || err.Code != NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
