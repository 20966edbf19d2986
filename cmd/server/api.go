package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/miretskiy/mlqsim/internal/session"
	"github.com/miretskiy/mlqsim/internal/store"
	"github.com/miretskiy/mlqsim/internal/workload"
	"github.com/miretskiy/mlqsim/simulator"
)

const (
	maxBodyBytes = 1 << 20
	maxRunSteps  = 1_000_000
)

type sessionView struct {
	Session  session.Status  `json:"session"`
	State    simulator.State `json:"state"`
	Advanced *bool           `json:"advanced,omitempty"`
}

type metricsView struct {
	QueueMetrics []simulator.QueueMetrics `json:"queueMetrics"`
	Summary      simulator.Summary        `json:"summary"`
}

func viewOf(sess *session.Session) sessionView {
	return sessionView{Session: sess.Status(), State: sess.State()}
}

// readWorkload parses a YAML or JSON workload body. Validation problems are
// reported as 422 with the full problem list.
func readWorkload(w http.ResponseWriter, r *http.Request) (*workload.Workload, bool) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("read body: %v", err))
		return nil, false
	}
	wl, err := workload.Parse(data)
	if err != nil {
		var verr *workload.ValidationError
		if errors.As(err, &verr) {
			respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":    verr.Error(),
				"problems": verr.Problems,
			})
			return nil, false
		}
		respondError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return wl, true
}

func (s *server) sessionFromURL(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := chi.URLParam(r, "id")
	sess, ok := s.lookup(id)
	if !ok {
		respondError(w, http.StatusNotFound, fmt.Sprintf("session %s not found", id))
	}
	return sess, ok
}

func (s *server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	wl, ok := readWorkload(w, r)
	if !ok {
		return
	}
	engine, err := s.newEngine(wl.TimeQuantum)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess := s.newSession(engine, wl.Processes())
	s.register(sess)
	s.logger.Info("session created", "session", sess.ID(), "processes", len(wl.Processes))
	respondJSON(w, http.StatusCreated, viewOf(sess))
}

func (s *server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromURL(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, viewOf(sess))
}

func (s *server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !s.unregister(id) {
		respondError(w, http.StatusNotFound, fmt.Sprintf("session %s not found", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStep always answers 200; "advanced" is false once the simulation has
// completed.
func (s *server) handleStep(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromURL(w, r)
	if !ok {
		return
	}
	_, advanced := sess.StepForward()
	if advanced {
		s.metrics.steps.Inc()
		s.observe(sess)
	}
	view := viewOf(sess)
	view.Advanced = &advanced
	respondJSON(w, http.StatusOK, view)
}

func (s *server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.moveHistory(w, r, (*session.Session).Undo, "nothing to undo")
}

func (s *server) handleRedo(w http.ResponseWriter, r *http.Request) {
	s.moveHistory(w, r, (*session.Session).Redo, "nothing to redo")
}

func (s *server) moveHistory(w http.ResponseWriter, r *http.Request, move func(*session.Session) bool, emptyMsg string) {
	sess, ok := s.sessionFromURL(w, r)
	if !ok {
		return
	}
	if !move(sess) {
		respondError(w, http.StatusConflict, emptyMsg)
		return
	}
	s.observe(sess)
	respondJSON(w, http.StatusOK, viewOf(sess))
}

func (s *server) handleReset(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromURL(w, r)
	if !ok {
		return
	}
	sess.Restart()
	s.observe(sess)
	respondJSON(w, http.StatusOK, viewOf(sess))
}

func (s *server) handleSessionMetrics(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromURL(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, metricsView{QueueMetrics: sess.Metrics(), Summary: sess.Summary()})
}

func (s *server) handleGantt(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.sessionFromURL(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, sess.Gantt())
}

// handleCreateRun simulates a workload to completion in one request and
// stores the result when a store is configured.
func (s *server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	wl, ok := readWorkload(w, r)
	if !ok {
		return
	}
	engine, err := s.newEngine(wl.TimeQuantum)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	final, err := engine.Run(engine.Initialize(wl.Processes()), maxRunSteps)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	s.metrics.runs.Inc()

	run := store.NewRun(final, engine.Config(), engine.QueueMetrics(final))
	run.Name = wl.Name
	if s.store == nil {
		run.ID = uuid.NewString()
	} else if err := s.store.SaveRun(r.Context(), run); err != nil {
		s.logger.Error("save run failed", "error", err)
		respondError(w, http.StatusInternalServerError, "save run failed")
		return
	}
	s.logger.Info("run completed", "run", run.ID, "steps", run.Steps, "stored", s.store != nil)
	respondJSON(w, http.StatusCreated, run)
}

func (s *server) requireStore(w http.ResponseWriter) bool {
	if s.store == nil {
		respondError(w, http.StatusServiceUnavailable, "run store not configured (set MLQ_DB_PATH)")
		return false
	}
	return true
}

func (s *server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}
	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.logger.Error("list runs failed", "error", err)
		respondError(w, http.StatusInternalServerError, "list runs failed")
		return
	}
	respondJSON(w, http.StatusOK, runs)
}

func (s *server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	id := chi.URLParam(r, "id")
	run, err := s.store.GetRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, fmt.Sprintf("run %s not found", id))
		return
	}
	if err != nil {
		s.logger.Error("get run failed", "run", id, "error", err)
		respondError(w, http.StatusInternalServerError, "get run failed")
		return
	}
	respondJSON(w, http.StatusOK, run)
}

func (s *server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if !s.requireStore(w) {
		return
	}
	id := chi.URLParam(r, "id")
	err := s.store.DeleteRun(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, fmt.Sprintf("run %s not found", id))
		return
	}
	if err != nil {
		s.logger.Error("delete run failed", "run", id, "error", err)
		respondError(w, http.StatusInternalServerError, "delete run failed")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
