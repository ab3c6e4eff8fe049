package rules

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/koekalenteri/qualification/internal/logger"
	"github.com/koekalenteri/qualification/internal/metrics"
)

// ErrMissingResults is returned when a request carries neither official
// results nor a registration number to load them with
var ErrMissingResults = errors.New("official results or regNo required")

// QualifyRequest is the input of a qualification check
type QualifyRequest struct {
	Event Event  `json:"event" yaml:"event"`
	Class Class  `json:"class,omitempty" yaml:"class,omitempty"`
	RegNo string `json:"regNo,omitempty" yaml:"regNo,omitempty"`
	// Loaded from the result store by RegNo when nil
	Official []Result           `json:"officialResults" yaml:"officialResults,omitempty"`
	Manual   []QualifyingResult `json:"manualResults,omitempty" yaml:"manualResults,omitempty"`
}

// ClassOutcome is the outcome of one class of an event
type ClassOutcome struct {
	Class   Class   `json:"class" yaml:"class"`
	Outcome Outcome `json:"outcome" yaml:"outcome"`
}

// Engine runs qualification checks against a catalog, loading official
// results from a store through a cache.
// Safe for concurrent use when the store and cache are.
type Engine struct {
	catalog *Catalog
	store   ResultStore
	cache   ResultsCache
	metrics *metrics.Metrics

	// bumped on every result change, a load that sees it move may have
	// cached results older than the change
	changes atomic.Uint64
}

// NewEngine creates a qualification engine. A nil cache uses an in-memory
// cache with DefaultCacheConfig, nil metrics records nothing.
func NewEngine(catalog *Catalog, store ResultStore, cache ResultsCache, m *metrics.Metrics) *Engine {
	if cache == nil {
		cache = NewInMemoryResultsCache(DefaultCacheConfig())
	}
	return &Engine{
		catalog: catalog,
		store:   store,
		cache:   cache,
		metrics: m,
	}
}

// Catalog returns the catalog the engine evaluates against
func (en *Engine) Catalog() *Catalog {
	return en.catalog
}

// Qualify checks whether the dog of req qualifies for req.Class
func (en *Engine) Qualify(ctx context.Context, req QualifyRequest) (Outcome, error) {
	start := time.Now()
	defer func() { en.metrics.ObserveEvaluateLatency(time.Since(start)) }()
	req = req.InZone(en.catalog.Location())

	official, err := en.officialResults(ctx, req)
	if err != nil {
		return Outcome{}, err
	}

	out := FilterRelevantResults(en.catalog, req.Event, req.Class, official, req.Manual)
	en.metrics.IncrementOutcome(req.Event.EventType, string(req.Class), out.Qualifies)
	logger.Debug("qualification evaluated",
		"eventType", req.Event.EventType,
		"class", req.Class,
		"qualifies", out.Qualifies,
		"relevant", len(out.Relevant))
	return out, nil
}

// QualifyClasses checks every class of the event type concurrently.
// Event types without classes yield a single outcome with ClassNone.
func (en *Engine) QualifyClasses(ctx context.Context, req QualifyRequest) ([]ClassOutcome, error) {
	start := time.Now()
	defer func() { en.metrics.ObserveEvaluateLatency(time.Since(start)) }()
	req = req.InZone(en.catalog.Location())

	official, err := en.officialResults(ctx, req)
	if err != nil {
		return nil, err
	}

	classes := en.catalog.Classes(req.Event.EventType)
	if len(classes) == 0 {
		classes = []Class{ClassNone}
	}

	outcomes := make([]ClassOutcome, len(classes))
	g, gctx := errgroup.WithContext(ctx)
	for i, class := range classes {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out := FilterRelevantResults(en.catalog, req.Event, class, official, req.Manual)
			en.metrics.IncrementOutcome(req.Event.EventType, string(class), out.Qualifies)
			outcomes[i] = ClassOutcome{Class: class, Outcome: out}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

func (en *Engine) officialResults(ctx context.Context, req QualifyRequest) ([]Result, error) {
	if req.Official != nil {
		return req.Official, nil
	}
	if req.RegNo == "" {
		return nil, ErrMissingResults
	}
	return en.ListResults(ctx, req.RegNo)
}

// ListResults returns the official results of regNo, cached
func (en *Engine) ListResults(ctx context.Context, regNo string) ([]Result, error) {
	results, ok, err := en.cache.Get(ctx, regNo)
	switch {
	case err != nil:
		// fall through to the store
		en.metrics.IncrementCacheLookup("error")
		logger.Warn("results cache lookup failed", "regNo", regNo, "error", err)
	case ok:
		en.metrics.IncrementCacheLookup("hit")
		return results, nil
	default:
		en.metrics.IncrementCacheLookup("miss")
	}

	seen := en.changes.Load()
	results, err = en.store.ListByDog(ctx, regNo)
	if err != nil {
		return nil, fmt.Errorf("failed to load results of %s: %w", regNo, err)
	}

	if err := en.cache.Set(ctx, regNo, results); err != nil {
		logger.Warn("failed to cache results", "regNo", regNo, "error", err)
	}
	if en.changes.Load() != seen {
		en.dropCached(ctx, regNo)
	}
	return results, nil
}

// AddResult stores an official result, assigning an ID when it has none
func (en *Engine) AddResult(ctx context.Context, r Result) (Result, error) {
	r.Date = InZone(r.Date, en.catalog.Location())
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.Official = true

	if err := en.store.Add(ctx, r); err != nil {
		return Result{}, err
	}
	en.invalidate(ctx, r.RegNo)

	logger.Debug("result added", "regNo", r.RegNo, "id", r.ID, "type", r.Type)
	return r, nil
}

// DeleteResult removes an official result
func (en *Engine) DeleteResult(ctx context.Context, regNo, id string) error {
	if err := en.store.Delete(ctx, regNo, id); err != nil {
		return err
	}
	en.invalidate(ctx, regNo)
	return nil
}

// invalidate must run after the store write
func (en *Engine) invalidate(ctx context.Context, regNo string) {
	en.changes.Add(1)
	en.dropCached(ctx, regNo)
}

func (en *Engine) dropCached(ctx context.Context, regNo string) {
	if err := en.cache.Invalidate(ctx, regNo); err != nil {
		logger.Error("failed to invalidate cached results", "regNo", regNo, "error", err)
	}
}
