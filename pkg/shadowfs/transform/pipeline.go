package transform

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"sync"
	"time"

	"github.com/eknkc/basex"

	"github.com/andronics/shadowfs/pkg/shadowfs/cache"
	"github.com/andronics/shadowfs/pkg/shadowfs/logging"
)

// fingerprintAlphabet mirrors the teacher's Base62 encoder (pkg/encoding's
// EncodeBase62), reused here to render pipeline fingerprints as compact
// cache-key-safe strings. Content hashes are rendered in hex (contentHash).
const fingerprintAlphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var fingerprintEncoding = func() *basex.Encoding {
	enc, err := basex.NewEncoding(fingerprintAlphabet)
	if err != nil {
		panic("transform: unable to initialize fingerprint encoder")
	}
	return enc
}()

// StepResult records one transform's outcome within a pipeline application.
type StepResult struct {
	Name     string
	Success  bool
	Error    string
	Duration time.Duration
}

// Result is the outcome of a pipeline Apply (spec.md §4.7's "Result{bytes,
// success, metadata}").
type Result struct {
	Bytes             []byte
	Success           bool
	TransformsApplied int
	Steps             []StepResult
	FromCache         bool
}

// Pipeline is the C8 ordered transform chain, with per-result caching keyed
// by content hash and pipeline fingerprint.
type Pipeline struct {
	mu        sync.Mutex
	steps     []Step
	cache     *cache.Cache
	cacheTier cache.Name
	cacheable bool
	logger    *logging.Logger
}

// Step pairs a transform with whether its failure halts the pipeline
// (true) or is skipped in favor of the pre-failure bytes (false).
type Step struct {
	Transform   Transform
	HaltOnError bool
}

// Config controls a Pipeline's caching behavior.
type Config struct {
	Cache     *cache.Cache
	CacheTier cache.Name // defaults to cache.L3
	Cacheable bool
}

// New constructs an empty pipeline. Steps are added with SetSteps.
func New(cfg Config, logger *logging.Logger) *Pipeline {
	tier := cfg.CacheTier
	if tier == "" {
		tier = cache.L3
	}
	return &Pipeline{
		cache:     cfg.Cache,
		cacheTier: tier,
		cacheable: cfg.Cacheable,
		logger:    logger,
	}
}

// SetSteps atomically replaces the pipeline's transform list.
func (p *Pipeline) SetSteps(steps []Step) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.steps = append([]Step(nil), steps...)
}

// Apply runs the pipeline's transforms over input in order, per spec.md
// §4.7. path and meta are passed to every transform's Supports/Apply.
func (p *Pipeline) Apply(ctx context.Context, input []byte, path string, meta Meta) Result {
	p.mu.Lock()
	steps := append([]Step(nil), p.steps...)
	p.mu.Unlock()

	if len(steps) == 0 {
		return Result{Bytes: input, Success: true, TransformsApplied: 0}
	}

	var cacheKey string
	if p.cacheable && p.cache != nil {
		cacheKey = p.fingerprintKey(steps, path, input)
		if cached, ok := p.cache.Get(cache.NamespaceTransform, cacheKey, p.cacheTier); ok {
			if result, ok := cached.(Result); ok {
				result.FromCache = true
				return result
			}
		}
	}

	current := input
	applied := 0
	var stepResults []StepResult
	for _, step := range steps {
		if !step.Transform.Enabled() || !step.Transform.Supports(path, meta) {
			continue
		}
		start := time.Now()
		out, err := step.Transform.Apply(ctx, current, path, meta)
		elapsed := time.Since(start)

		if err != nil {
			p.logger.Warn("transform %s failed on %s: %v", step.Transform.Name(), path, err)
			stepResults = append(stepResults, StepResult{Name: step.Transform.Name(), Success: false, Error: err.Error(), Duration: elapsed})
			if step.HaltOnError {
				break
			}
			continue
		}

		current = out
		applied++
		stepResults = append(stepResults, StepResult{Name: step.Transform.Name(), Success: true, Duration: elapsed})
	}

	result := Result{Bytes: current, Success: true, TransformsApplied: applied, Steps: stepResults}

	if p.cacheable && p.cache != nil {
		cost := int64(len(current)) + 64
		p.cache.Set(cache.NamespaceTransform, cacheKey, result, cost, p.cacheTier)
	}
	return result
}

// fingerprintKey combines the pipeline's configuration fingerprint, the
// virtual path, and a content hash prefix into one cache key, per spec.md
// §4.7 step 2.
func (p *Pipeline) fingerprintKey(steps []Step, path string, content []byte) string {
	return configFingerprint(steps) + ":" + path + ":" + contentHash(content)
}

// configFingerprint concatenates each transform's name and enabled flag in
// order and hashes the result (spec.md §4.7, "Pipeline fingerprint" in the
// glossary).
func configFingerprint(steps []Step) string {
	h := sha256.New()
	for _, s := range steps {
		h.Write([]byte(s.Transform.Name()))
		h.Write([]byte(strconv.FormatBool(s.Transform.Enabled())))
	}
	return fingerprintEncoding.Encode(h.Sum(nil))
}

// contentHash is the first 16 hex characters of the content's SHA-256,
// matching spec.md §4.7's "first 16 hex characters of SHA-256" example.
func contentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:16]
}
