package main

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/miretskiy/mlqsim/internal/logging"
	"github.com/miretskiy/mlqsim/internal/session"
	"github.com/miretskiy/mlqsim/internal/store"
	"github.com/miretskiy/mlqsim/simulator"
)

// server owns the HTTP routes, the live REST sessions and the optional run
// store. Websocket sessions are private to their connection.
type server struct {
	cfg      serverConfig
	logger   *slog.Logger
	store    *store.Store // nil when MLQ_DB_PATH is unset
	registry *prometheus.Registry
	metrics  *promMetrics
	router   chi.Router

	// closed on Close; websocket loops and autoplay exit with it
	baseCtx context.Context
	cancel  context.CancelFunc

	quit     chan struct{}
	quitOnce sync.Once

	mu       sync.Mutex
	sessions map[string]*session.Session
}

func newServer(cfg serverConfig, logger *slog.Logger, st *store.Store) (*server, error) {
	simCfg := cfg.simConfig()
	if err := simCfg.Validate(); err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	ctx, cancel := context.WithCancel(context.Background())
	s := &server{
		cfg:      cfg,
		logger:   logger.With("component", "server"),
		store:    st,
		registry: reg,
		metrics:  newPromMetrics(reg),
		router:   chi.NewRouter(),
		baseCtx:  ctx,
		cancel:   cancel,
		quit:     make(chan struct{}),
		sessions: make(map[string]*session.Session),
	}
	s.routes()
	return s, nil
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Close stops every websocket loop. It does not close the store.
func (s *server) Close() {
	s.cancel()
}

// Quit is closed when a client requests shutdown.
func (s *server) Quit() <-chan struct{} {
	return s.quit
}

func (s *server) routes() {
	r := s.router
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware(s.logger))

	r.Get("/healthz", s.handleHealth)
	r.Get("/ws", s.handleWebSocket)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	r.Post("/quitquitquit", s.handleQuit)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleCreateSession)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetSession)
				r.Delete("/", s.handleDeleteSession)
				r.Post("/step", s.handleStep)
				r.Post("/undo", s.handleUndo)
				r.Post("/redo", s.handleRedo)
				r.Post("/reset", s.handleReset)
				r.Get("/metrics", s.handleSessionMetrics)
				r.Get("/gantt", s.handleGantt)
			})
		})
		r.Route("/runs", func(r chi.Router) {
			r.Post("/", s.handleCreateRun)
			r.Get("/", s.handleListRuns)
			r.Get("/{id}", s.handleGetRun)
			r.Delete("/{id}", s.handleDeleteRun)
		})
	})
}

// newEngine builds an engine for a quantum (0 = server default) with decision
// logging wired to the server logger.
func (s *server) newEngine(quantum int) (*simulator.Engine, error) {
	cfg := s.cfg.simConfig()
	if quantum > 0 {
		cfg.TimeQuantum = quantum
	}
	e, err := simulator.NewEngine(cfg)
	if err != nil {
		return nil, err
	}
	e.LogEvent = logging.SimLogger(s.logger.With("component", "engine"))
	return e, nil
}

func (s *server) newSession(engine *simulator.Engine, processes []simulator.Process) *session.Session {
	return session.New(engine, processes,
		session.WithLogger(s.logger),
		session.WithMaxHistory(s.cfg.MaxHistory),
		session.WithStrict(s.cfg.Strict),
	)
}

func (s *server) register(sess *session.Session) {
	s.mu.Lock()
	s.sessions[sess.ID()] = sess
	s.mu.Unlock()
	s.metrics.activeSessions.Inc()
	s.observe(sess)
}

func (s *server) lookup(id string) (*session.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *server) unregister(id string) bool {
	s.mu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if ok {
		s.metrics.activeSessions.Dec()
		s.metrics.forget(id)
	}
	return ok
}

func (s *server) observe(sess *session.Session) {
	s.metrics.observe(sess.ID(), sess.State(), sess.Metrics())
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	n := len(s.sessions)
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": n,
		"store":    s.store != nil,
	})
}

func (s *server) handleQuit(w http.ResponseWriter, r *http.Request) {
	s.logger.Info("shutdown requested", "remote", r.RemoteAddr)
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "shutting down"})
	s.quitOnce.Do(func() { close(s.quit) })
}

// loggingMiddleware logs each request at INFO level.
func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			// WrapResponseWriter keeps http.Hijacker so websocket upgrades still work.
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start).String(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
