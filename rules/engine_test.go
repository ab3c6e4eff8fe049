package rules

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/koekalenteri/qualification/internal/metrics"
)

// countingStore counts the loads that reach the store
type countingStore struct {
	*InMemoryResultStore
	loads atomic.Int32
	// runs after the results are read, before they are returned
	afterList func()
}

func (s *countingStore) ListByDog(ctx context.Context, regNo string) ([]Result, error) {
	s.loads.Add(1)
	results, err := s.InMemoryResultStore.ListByDog(ctx, regNo)
	if s.afterList != nil {
		s.afterList()
	}
	return results, err
}

// failingCache fails every operation
type failingCache struct{}

var errCacheDown = errors.New("cache down")

func (failingCache) Get(context.Context, string) ([]Result, bool, error) {
	return nil, false, errCacheDown
}
func (failingCache) Set(context.Context, string, []Result) error { return errCacheDown }
func (failingCache) Invalidate(context.Context, string) error    { return errCacheDown }

func newTestEngine(t *testing.T) (*Engine, *countingStore, *metrics.Metrics) {
	t.Helper()
	store := &countingStore{InMemoryResultStore: NewInMemoryResultStore()}
	m := metrics.New(prometheus.NewRegistry())
	return NewEngine(DefaultCatalog(), store, nil, m), store, m
}

// TestNewEngine verifies the constructor defaults
func TestNewEngine(t *testing.T) {
	engine := NewEngine(DefaultCatalog(), NewInMemoryResultStore(), nil, nil)
	if engine == nil {
		t.Fatal("NewEngine() should return non-nil engine")
	}
	if engine.Catalog() != DefaultCatalog() {
		t.Error("Catalog() should return the catalog given")
	}
	if _, ok := engine.cache.(*InMemoryResultsCache); !ok {
		t.Errorf("default cache is %T, want *InMemoryResultsCache", engine.cache)
	}
}

// TestEngine_QualifyWithResults verifies results in the request are used as is
func TestEngine_QualifyWithResults(t *testing.T) {
	engine, store, m := newTestEngine(t)

	req := QualifyRequest{
		Event:    event("NOWT", "2024-08-01"),
		Class:    ClassAVO,
		Official: []Result{result("NOWT", ClassALO, "ALO1", "2023-06-01")},
	}
	out, err := engine.Qualify(context.Background(), req)
	if err != nil {
		t.Fatalf("Qualify() failed: %v", err)
	}
	if !out.Qualifies {
		t.Errorf("expected qualification, got %+v", out)
	}
	if store.loads.Load() != 0 {
		t.Error("store should not be consulted when results are given")
	}
	if got := testutil.ToFloat64(m.Outcomes.WithLabelValues("NOWT", "AVO", "true")); got != 1 {
		t.Errorf("outcome counter = %v, want 1", got)
	}
}

// TestEngine_QualifyLoadsResults verifies official results are loaded by
// registration number and cached
func TestEngine_QualifyLoadsResults(t *testing.T) {
	ctx := context.Background()
	engine, store, m := newTestEngine(t)

	alo1 := result("NOWT", ClassALO, "ALO1", "2023-06-01")
	alo1.RegNo = "FI10090/20"
	if _, err := engine.AddResult(ctx, alo1); err != nil {
		t.Fatalf("AddResult() failed: %v", err)
	}

	req := QualifyRequest{Event: event("NOWT", "2024-08-01"), Class: ClassAVO, RegNo: "FI10090/20"}
	for range 3 {
		out, err := engine.Qualify(ctx, req)
		if err != nil {
			t.Fatalf("Qualify() failed: %v", err)
		}
		if !out.Qualifies {
			t.Fatalf("expected qualification, got %+v", out)
		}
	}

	if got := store.loads.Load(); got != 1 {
		t.Errorf("store loads = %d, want 1", got)
	}
	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues("miss")); got != 1 {
		t.Errorf("cache misses = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues("hit")); got != 2 {
		t.Errorf("cache hits = %v, want 2", got)
	}
}

// TestEngine_MissingResults verifies a request without results or regNo is rejected
func TestEngine_MissingResults(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.Qualify(context.Background(), QualifyRequest{Event: event("NOWT", "2024-08-01")})
	if !errors.Is(err, ErrMissingResults) {
		t.Errorf("expected ErrMissingResults, got %v", err)
	}

	_, err = engine.QualifyClasses(context.Background(), QualifyRequest{Event: event("NOWT", "2024-08-01")})
	if !errors.Is(err, ErrMissingResults) {
		t.Errorf("expected ErrMissingResults, got %v", err)
	}
}

// TestEngine_QualifyClasses verifies every class is checked in ladder order
func TestEngine_QualifyClasses(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	req := QualifyRequest{
		Event: event("NOME-B", "2024-08-01"),
		Official: []Result{
			result("NOU", ClassNone, "NOU1", "2022-05-30"),
			result("NOME-B", ClassALO, "ALO1", "2024-06-01"),
		},
	}
	outcomes, err := engine.QualifyClasses(context.Background(), req)
	if err != nil {
		t.Fatalf("QualifyClasses() failed: %v", err)
	}

	want := map[Class]bool{ClassALO: true, ClassAVO: true, ClassVOI: false}
	if len(outcomes) != len(want) {
		t.Fatalf("got %d outcomes, want %d", len(outcomes), len(want))
	}
	for i, class := range Classes() {
		if outcomes[i].Class != class {
			t.Errorf("outcome %d is for %q, want %q", i, outcomes[i].Class, class)
		}
		if outcomes[i].Outcome.Qualifies != want[class] {
			t.Errorf("%s: Qualifies = %v, want %v", class, outcomes[i].Outcome.Qualifies, want[class])
		}
	}

	outcomes, err = engine.QualifyClasses(context.Background(), QualifyRequest{Event: event("NOU", "2024-08-01"), Official: []Result{}})
	if err != nil {
		t.Fatalf("QualifyClasses() failed: %v", err)
	}
	if len(outcomes) != 1 || outcomes[0].Class != ClassNone || !outcomes[0].Outcome.Qualifies {
		t.Errorf("NOU outcomes = %+v", outcomes)
	}
}

// TestEngine_QualifyClassesCancelled verifies a cancelled context stops the checks
func TestEngine_QualifyClassesCancelled(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.QualifyClasses(ctx, QualifyRequest{Event: event("NOME-B", "2024-08-01"), Official: []Result{}})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// TestEngine_AddAndDeleteResult verifies changes invalidate the cached results
func TestEngine_AddAndDeleteResult(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newTestEngine(t)
	regNo := "FI10090/20"

	if results, err := engine.ListResults(ctx, regNo); err != nil || len(results) != 0 {
		t.Fatalf("ListResults() = %v, %v", results, err)
	}

	r := result("NOWT", ClassALO, "ALO1", "2023-06-01")
	r.RegNo = regNo
	added, err := engine.AddResult(ctx, r)
	if err != nil {
		t.Fatalf("AddResult() failed: %v", err)
	}
	if added.ID == "" || !added.Official {
		t.Errorf("added result = %+v", added)
	}

	results, err := engine.ListResults(ctx, regNo)
	if err != nil || len(results) != 1 || results[0].ID != added.ID {
		t.Fatalf("ListResults() after add = %v, %v", results, err)
	}

	if _, err := engine.AddResult(ctx, added); !errors.Is(err, ErrResultExists) {
		t.Errorf("expected ErrResultExists, got %v", err)
	}

	if err := engine.DeleteResult(ctx, regNo, added.ID); err != nil {
		t.Fatalf("DeleteResult() failed: %v", err)
	}
	if results, _ := engine.ListResults(ctx, regNo); len(results) != 0 {
		t.Errorf("ListResults() after delete = %v", results)
	}
	if err := engine.DeleteResult(ctx, regNo, added.ID); !errors.Is(err, ErrResultNotFound) {
		t.Errorf("expected ErrResultNotFound, got %v", err)
	}

	if got := store.loads.Load(); got != 3 {
		t.Errorf("store loads = %d, want 3", got)
	}
}

// TestEngine_CacheFailure verifies a failing cache falls back to the store
func TestEngine_CacheFailure(t *testing.T) {
	ctx := context.Background()
	store := NewInMemoryResultStore()
	m := metrics.New(prometheus.NewRegistry())
	engine := NewEngine(DefaultCatalog(), store, failingCache{}, m)

	r := result("NOWT", ClassALO, "ALO1", "2023-06-01")
	r.RegNo = "FI10090/20"
	if _, err := engine.AddResult(ctx, r); err != nil {
		t.Fatalf("AddResult() should succeed without a cache: %v", err)
	}

	results, err := engine.ListResults(ctx, r.RegNo)
	if err != nil || len(results) != 1 {
		t.Fatalf("ListResults() = %v, %v", results, err)
	}
	if got := testutil.ToFloat64(m.CacheLookups.WithLabelValues("error")); got != 1 {
		t.Errorf("cache errors = %v, want 1", got)
	}
}

// TestEngine_ChangeDuringLoad verifies results loaded before a concurrent
// change are not served from the cache afterwards
func TestEngine_ChangeDuringLoad(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newTestEngine(t)
	regNo := "FI10090/20"

	r := result("NOWT", ClassALO, "ALO1", "2023-06-01")
	r.RegNo = regNo
	store.afterList = func() {
		store.afterList = nil
		if _, err := engine.AddResult(ctx, r); err != nil {
			t.Errorf("AddResult() failed: %v", err)
		}
	}

	stale, err := engine.ListResults(ctx, regNo)
	if err != nil || len(stale) != 0 {
		t.Fatalf("ListResults() = %v, %v, want the results read before the change", stale, err)
	}

	results, err := engine.ListResults(ctx, regNo)
	if err != nil {
		t.Fatalf("ListResults() failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("got %d results, want the added one", len(results))
	}
	if got := store.loads.Load(); got != 2 {
		t.Errorf("store loads = %d, want 2", got)
	}
}

// TestEngine_CalendarDates verifies dates decoded without a zone are taken
// in the catalog zone
func TestEngine_CalendarDates(t *testing.T) {
	ctx := context.Background()
	engine, _, _ := newTestEngine(t)
	helsinki := engine.Catalog().Location()

	var req QualifyRequest
	body := `{
		"event": {"eventType": "NOWT", "startDate": "2021-08-01"},
		"class": "AVO",
		"officialResults": [
			{"type": "NOWT", "class": "ALO", "result": "ALO1", "date": "2019-05-30"},
			{"type": "NOWT", "class": "AVO", "result": "AVO1", "date": "2021-01-01"}
		]
	}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}

	out, err := engine.Qualify(ctx, req)
	if err != nil {
		t.Fatalf("Qualify() failed: %v", err)
	}
	if !out.Qualifies {
		t.Errorf("AVO1 of new year's day should not carry over, got %+v", out)
	}
	want := time.Date(2019, time.May, 30, 0, 0, 0, 0, helsinki)
	if len(out.Relevant) == 0 || !out.Relevant[0].Date.Equal(want) {
		t.Errorf("relevant = %+v, want ALO1 at %v", out.Relevant, want)
	}

	added, err := engine.AddResult(ctx, req.Official[0])
	if err != nil {
		t.Fatalf("AddResult() failed: %v", err)
	}
	if !added.Date.Equal(want) {
		t.Errorf("stored date = %v, want %v", added.Date, want)
	}
}
