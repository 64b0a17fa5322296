package transform

import (
	"context"
	"testing"

	"github.com/andronics/shadowfs/pkg/shadowfs/cache"
)

func testCache() *cache.Cache {
	tc := cache.TierConfig{MaxEntries: 100, MaxBytes: 1 << 20, Enabled: true}
	return cache.New(cache.Config{L1: tc, L2: tc, L3: tc}, nil)
}

func TestPipelineEmptyReturnsInputUnchanged(t *testing.T) {
	p := New(Config{}, nil)
	result := p.Apply(context.Background(), []byte("content1"), "/hello.txt", Meta{})
	if !result.Success || result.TransformsApplied != 0 {
		t.Fatalf("expected a no-op pass-through, got %+v", result)
	}
	if string(result.Bytes) != "content1" {
		t.Fatalf("expected unchanged bytes, got %q", result.Bytes)
	}
}

func TestPipelineUppercaseScenarioS4(t *testing.T) {
	up, err := NewUppercaseTransform("upper", true, "*.txt")
	if err != nil {
		t.Fatalf("NewUppercaseTransform: %v", err)
	}
	p := New(Config{Cache: testCache(), Cacheable: true}, nil)
	p.SetSteps([]Step{{Transform: up, HaltOnError: true}})

	result := p.Apply(context.Background(), []byte("content1"), "/hello.txt", Meta{Extension: "txt"})
	if !result.Success || string(result.Bytes) != "CONTENT1" {
		t.Fatalf("expected CONTENT1, got %q (success=%v)", result.Bytes, result.Success)
	}
	if result.FromCache {
		t.Fatalf("expected first application to be a cache miss")
	}

	second := p.Apply(context.Background(), []byte("content1"), "/hello.txt", Meta{Extension: "txt"})
	if !second.FromCache {
		t.Fatalf("expected second identical application to hit the cache")
	}
	if string(second.Bytes) != "CONTENT1" {
		t.Fatalf("expected cached bytes to match, got %q", second.Bytes)
	}
}

func TestPipelineSkipsNonSupportingTransform(t *testing.T) {
	up, _ := NewUppercaseTransform("upper", true, "*.md")
	p := New(Config{}, nil)
	p.SetSteps([]Step{{Transform: up}})

	result := p.Apply(context.Background(), []byte("content1"), "/hello.txt", Meta{Extension: "txt"})
	if string(result.Bytes) != "content1" || result.TransformsApplied != 0 {
		t.Fatalf("expected non-matching transform to be skipped, got %+v", result)
	}
}

type failingTransform struct{ base }

func (failingTransform) Apply(context.Context, []byte, string, Meta) ([]byte, error) {
	return nil, errFail
}

type failErr struct{}

func (failErr) Error() string { return "boom" }

var errFail = failErr{}

func TestPipelineHaltOnErrorStopsChain(t *testing.T) {
	b, _ := newBase("fail", true, "")
	failing := failingTransform{base: b}
	up, _ := NewUppercaseTransform("upper", true, "")

	p := New(Config{}, nil)
	p.SetSteps([]Step{{Transform: failing, HaltOnError: true}, {Transform: up}})

	result := p.Apply(context.Background(), []byte("content1"), "/hello.txt", Meta{})
	if result.TransformsApplied != 0 || string(result.Bytes) != "content1" {
		t.Fatalf("expected halt to leave bytes at pre-failure state, got %+v", result)
	}
}

func TestPipelineContinueOnErrorSkipsFailingStep(t *testing.T) {
	b, _ := newBase("fail", true, "")
	failing := failingTransform{base: b}
	up, _ := NewUppercaseTransform("upper", true, "")

	p := New(Config{}, nil)
	p.SetSteps([]Step{{Transform: failing, HaltOnError: false}, {Transform: up}})

	result := p.Apply(context.Background(), []byte("content1"), "/hello.txt", Meta{})
	if result.TransformsApplied != 1 || string(result.Bytes) != "CONTENT1" {
		t.Fatalf("expected the later transform to still apply, got %+v", result)
	}
}

func TestPipelineIdempotenceWithIdentityTransforms(t *testing.T) {
	disabled, _ := NewUppercaseTransform("upper", false, "")
	p := New(Config{}, nil)
	p.SetSteps([]Step{{Transform: disabled}})

	result := p.Apply(context.Background(), []byte("content1"), "/hello.txt", Meta{})
	if string(result.Bytes) != "content1" {
		t.Fatalf("expected disabled transform to leave content unchanged, got %q", result.Bytes)
	}
}
