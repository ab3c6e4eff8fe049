package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/koekalenteri/qualification/eligibility"
	"github.com/koekalenteri/qualification/internal/config"
	"github.com/koekalenteri/qualification/internal/logger"
	"github.com/koekalenteri/qualification/internal/metrics"
	"github.com/koekalenteri/qualification/migrations"
	"github.com/koekalenteri/qualification/rules"
)

const dateLayout = "2006-01-02"

// HealthCheck reports whether a backing service is reachable
type HealthCheck func(ctx context.Context) error

type Server struct {
	engine  *rules.Engine
	metrics http.Handler
	checks  map[string]HealthCheck
	now     func() time.Time
	router  *chi.Mux
}

// NewServer wires the HTTP API around engine.
// metricsHandler serves /metrics, checks are run by the health endpoint.
func NewServer(engine *rules.Engine, metricsHandler http.Handler, checks map[string]HealthCheck) *Server {
	if metricsHandler == nil {
		metricsHandler = promhttp.Handler()
	}
	s := &Server{
		engine:  engine,
		metrics: metricsHandler,
		checks:  checks,
		now:     time.Now,
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Health check
	r.Get("/api/v1/health", s.handleHealth)
	r.Handle("/metrics", s.metrics)

	// Qualification
	r.Post("/api/v1/qualification", s.handleQualify)
	r.Post("/api/v1/qualification/classes", s.handleQualifyClasses)
	r.Get("/api/v1/requirements/{eventType}", s.handleRequirements)

	// Dogs
	r.Post("/api/v1/dogs/validate", s.handleValidateDog)
	r.Route("/api/v1/dogs/{regNo}/results", func(r chi.Router) {
		r.Get("/", s.handleListResults)
		r.Post("/", s.handleAddResult)
		r.Delete("/{resultId}", s.handleDeleteResult)
	})

	s.router = r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	for name, check := range s.checks {
		if err := check(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, HealthResponse{
				Status: "unhealthy",
				Error:  fmt.Sprintf("%s: %v", name, err),
			})
			return
		}
	}

	respondJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
}

// decodeQualifyRequest reads and checks a qualification request body
func (s *Server) decodeQualifyRequest(w http.ResponseWriter, r *http.Request) (rules.QualifyRequest, bool) {
	var body QualificationRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return rules.QualifyRequest{}, false
	}
	req := body.QualifyRequest

	if req.Event.EventType == "" || req.Event.StartDate.IsZero() {
		respondError(w, http.StatusBadRequest, "event.eventType and event.startDate are required", nil)
		return req, false
	}
	if body.PreviousEvent != nil {
		req.Event = s.engine.Catalog().AfterPrevious(req.Event, *body.PreviousEvent)
	}

	// Manual results are identified by the caller, assign missing ids
	manual := make([]rules.QualifyingResult, len(req.Manual))
	for i, m := range req.Manual {
		if m.ID == "" {
			m.ID = uuid.NewString()
		}
		manual[i] = m
	}
	req.Manual = manual

	return req, true
}

// Qualification handler
func (s *Server) handleQualify(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeQualifyRequest(w, r)
	if !ok {
		return
	}

	startTime := time.Now()

	out, err := s.engine.Qualify(r.Context(), req)
	if err != nil {
		respondEngineError(w, "qualification failed", err)
		return
	}

	resp := QualificationResponse{
		Outcome:        out,
		EvaluationTime: time.Since(startTime).String(),
	}
	if m, ok := s.engine.Catalog().MissingResult(req.Event, req.Class, req.RegNo, out, s.now()); ok {
		resp.Missing = &m
	}
	respondJSON(w, http.StatusOK, resp)
}

// Qualification of every class handler
func (s *Server) handleQualifyClasses(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeQualifyRequest(w, r)
	if !ok {
		return
	}

	startTime := time.Now()

	outcomes, err := s.engine.QualifyClasses(r.Context(), req)
	if err != nil {
		respondEngineError(w, "qualification failed", err)
		return
	}

	respondJSON(w, http.StatusOK, ClassesResponse{
		Classes:        outcomes,
		EvaluationTime: time.Since(startTime).String(),
	})
}

// Requirements handler
func (s *Server) handleRequirements(w http.ResponseWriter, r *http.Request) {
	eventType, err := url.PathUnescape(chi.URLParam(r, "eventType"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid event type", err)
		return
	}
	class := rules.Class(r.URL.Query().Get("class"))
	catalog := s.engine.Catalog()

	date := s.now()
	if d := r.URL.Query().Get("date"); d != "" {
		date, err = time.ParseInLocation(dateLayout, d, catalog.Location())
		if err != nil {
			respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD", err)
			return
		}
	}

	req, ok := catalog.Requirements(eventType, class, date)
	if !ok {
		respondError(w, http.StatusNotFound, "no result requirements", nil)
		return
	}

	resp := RequirementsResponse{
		EventType:   eventType,
		Class:       class,
		RuleDate:    string(req.Date),
		ResultTypes: rules.AvailableTypes(req.Rules, eventType),
		ResultCodes: rules.AvailableResults(req.Rules, r.URL.Query().Get("type"), eventType, nil),
	}
	switch rs := req.Rules.(type) {
	case rules.FixedRules:
		resp.Alternatives = rs
	case rules.CustomRules:
		resp.Custom = true
	}

	respondJSON(w, http.StatusOK, resp)
}

// Dog eligibility handler
func (s *Server) handleValidateDog(w http.ResponseWriter, r *http.Request) {
	var req ValidateDogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	err := eligibility.ValidateDog(s.engine.Catalog(), req.Event, req.Dog)

	var violation *eligibility.Violation
	if errors.As(err, &violation) {
		respondJSON(w, http.StatusOK, ValidateDogResponse{Eligible: false, Violation: violation})
		return
	}

	respondJSON(w, http.StatusOK, ValidateDogResponse{Eligible: true})
}

// regNoParam returns the unescaped registration number, which may contain a slash
func regNoParam(r *http.Request) (string, error) {
	regNo, err := url.PathUnescape(chi.URLParam(r, "regNo"))
	if err != nil {
		return "", err
	}
	if !eligibility.ValidRegNo(regNo) {
		return "", fmt.Errorf("malformed registration number %q", regNo)
	}
	return regNo, nil
}

// List results handler
func (s *Server) handleListResults(w http.ResponseWriter, r *http.Request) {
	regNo, err := regNoParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid registration number", err)
		return
	}

	results, err := s.engine.ListResults(r.Context(), regNo)
	if err != nil {
		respondEngineError(w, "failed to list results", err)
		return
	}

	views := make([]ResultView, len(results))
	for i, res := range results {
		views[i] = ResultView{Result: res, Code: rules.FormatResultCode(res)}
	}
	respondJSON(w, http.StatusOK, ResultsListResponse{Results: views})
}

// Add result handler
func (s *Server) handleAddResult(w http.ResponseWriter, r *http.Request) {
	regNo, err := regNoParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid registration number", err)
		return
	}

	var result rules.Result
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	result.RegNo = regNo

	// Display codes such as "A1 CERT" carry their modifiers
	if strings.Contains(result.Result, " ") {
		rules.ParseResultCode(result.Result).Apply(&result)
	}

	if result.Type == "" || result.Result == "" || result.Date.IsZero() {
		respondError(w, http.StatusBadRequest, "type, result and date are required", nil)
		return
	}

	created, err := s.engine.AddResult(r.Context(), result)
	if err != nil {
		respondEngineError(w, "failed to add result", err)
		return
	}

	respondJSON(w, http.StatusCreated, created)
}

// Delete result handler
func (s *Server) handleDeleteResult(w http.ResponseWriter, r *http.Request) {
	regNo, err := regNoParam(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid registration number", err)
		return
	}
	resultID := chi.URLParam(r, "resultId")

	if err := s.engine.DeleteResult(r.Context(), regNo, resultID); err != nil {
		respondEngineError(w, "failed to delete result", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Helper functions
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string, err error) {
	switch {
	case status >= 500:
		logger.ErrorHttp5xx()
		logger.Error(message, "status", status, "error", err)
	case status >= 400:
		logger.WarnHttp4xx(status)
	}

	response := ErrorResponse{Error: message}
	if err != nil {
		response.Details = err.Error()
	}
	respondJSON(w, status, response)
}

// respondEngineError maps engine and store errors to HTTP statuses
func respondEngineError(w http.ResponseWriter, message string, err error) {
	switch {
	case errors.Is(err, rules.ErrResultNotFound):
		respondError(w, http.StatusNotFound, message, err)
	case errors.Is(err, rules.ErrResultExists):
		respondError(w, http.StatusConflict, message, err)
	case errors.Is(err, rules.ErrMissingResults):
		respondError(w, http.StatusBadRequest, message, err)
	default:
		respondError(w, http.StatusInternalServerError, message, err)
	}
}

func main() {
	cfg, cfgErr := config.FromEnv()

	ctx := context.Background()
	if err := logger.Setup(ctx, cfg.Log); err != nil {
		logger.Warn("logger setup", "error", err)
	}
	if cfgErr != nil {
		logger.Warn("invalid configuration, using defaults", "error", cfgErr)
	}

	catalog, err := rules.NewDefaultCatalog(cfg.TimeZone)
	if err != nil {
		logger.Fatal("failed to build rule catalog", "error", err)
	}

	checks := map[string]HealthCheck{}

	// Result store
	var store rules.ResultStore
	if cfg.DatabaseURL != "" {
		if cfg.Migrate {
			if err := migrations.Up(cfg.DatabaseURL); err != nil {
				logger.Fatal("failed to migrate database", "error", err)
			}
		}
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			logger.Fatal("failed to open database", "error", err)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			logger.Fatal("failed to ping database", "error", err)
		}
		store = rules.NewPostgresResultStore(db)
		checks["database"] = db.PingContext
	} else {
		logger.Info("DATABASE_URL not set, using in-memory result store")
		store = rules.NewInMemoryResultStore()
	}

	// Results cache
	cacheConfig := rules.CacheConfig{TTL: cfg.CacheTTL}
	var cache rules.ResultsCache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logger.Fatal("failed to parse redis URL", "error", err)
		}
		client := redis.NewClient(opts)
		defer client.Close()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Fatal("redis ping failed", "error", err)
		}
		cache = rules.NewRedisResultsCache(client, cacheConfig)
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
	} else {
		cache = rules.NewInMemoryResultsCache(cacheConfig)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(registry)

	engine := rules.NewEngine(catalog, store, cache, m)
	server := NewServer(engine, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}), checks)

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown handling
	go func() {
		logger.Info("server starting", "port", cfg.Port, "eventTypes", catalog.EventTypes())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed to start", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := logger.Shutdown(shutdownCtx); err != nil {
		logger.Error("logger shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
