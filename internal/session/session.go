// Package session drives a simulation on behalf of an interactive client. It
// owns the current state plus undo/redo history and paces autoplay; all
// scheduling decisions are delegated to the pure simulator engine.
package session

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/miretskiy/mlqsim/simulator"
)

// DefaultMaxHistory bounds the undo stack when no option overrides it.
const DefaultMaxHistory = 10000

// Option configures a Session.
type Option func(*Session)

// WithStrict makes every step verify simulator.CheckTransition and log
// violations.
func WithStrict(strict bool) Option {
	return func(s *Session) { s.strict = strict }
}

// WithMaxHistory bounds the number of undo snapshots kept (0 = unbounded).
func WithMaxHistory(n int) Option {
	return func(s *Session) { s.maxHistory = n }
}

// WithLogger sets the session logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) { s.logger = logger }
}

// WithID overrides the generated session id.
func WithID(id string) Option {
	return func(s *Session) { s.id = id }
}

// Status is a small summary of the session suitable for status messages.
type Status struct {
	ID          string             `json:"id"`
	Playing     bool               `json:"playing"`
	CanUndo     bool               `json:"canUndo"`
	CanRedo     bool               `json:"canRedo"`
	CurrentStep int                `json:"currentStep"`
	CurrentTime int                `json:"currentTime"`
	IsCompleted bool               `json:"isCompleted"`
	Config      simulator.SimConfig `json:"config"`
}

// Session is safe for concurrent use. Each operation holds the session mutex
// for its whole duration, so a cancelled autoplay loop never leaves a half
// applied step behind.
type Session struct {
	id         string
	strict     bool
	maxHistory int
	logger     *slog.Logger

	mu         sync.Mutex
	engine     *simulator.Engine
	current    simulator.State
	history    []simulator.State // oldest first
	future     []simulator.State // next redo first
	playing    bool
	violations int
}

// New creates a session positioned at the initial state for processes.
func New(engine *simulator.Engine, processes []simulator.Process, opts ...Option) *Session {
	s := &Session{
		id:         uuid.NewString(),
		engine:     engine,
		maxHistory: DefaultMaxHistory,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.logger = s.logger.With("component", "session", "session", s.id)
	s.current = engine.Initialize(processes)
	return s
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// Config returns the engine configuration.
func (s *Session) Config() simulator.SimConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Config()
}

// Reset discards the current state and all history, stops autoplay and starts
// over with processes.
func (s *Session) Reset(processes []simulator.Process) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked(processes)
}

// Restart re-initializes the current process list, discarding all progress
// and history.
func (s *Session) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked(s.current.Processes)
}

// Load replaces both the engine and the process list, for example when a
// client changes the time quantum.
func (s *Session) Load(engine *simulator.Engine, processes []simulator.Process) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine = engine
	s.resetLocked(processes)
}

func (s *Session) resetLocked(processes []simulator.Process) {
	s.current = s.engine.Initialize(processes)
	s.history = nil
	s.future = nil
	s.playing = false
	s.logger.Info("session reset", "processes", len(processes), "quantum", s.engine.Config().TimeQuantum)
}

// StepForward advances one step. It returns false without recording history
// when the simulation has already completed.
func (s *Session) StepForward() (simulator.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.IsCompleted {
		return s.current.Clone(), false
	}
	s.advance()
	return s.current.Clone(), true
}

// Undo restores the previous snapshot.
func (s *Session) Undo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.history) == 0 {
		return false
	}
	last := len(s.history) - 1
	s.future = append([]simulator.State{s.current}, s.future...)
	s.current = s.history[last]
	s.history = s.history[:last]
	return true
}

// Redo re-applies the most recently undone snapshot.
func (s *Session) Redo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.future) == 0 {
		return false
	}
	s.pushHistory(s.current)
	s.current = s.future[0]
	s.future = s.future[1:]
	return true
}

func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history) > 0
}

func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.future) > 0
}

// State returns a copy of the current state.
func (s *Session) State() simulator.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Metrics returns per-queue averages for the current state.
func (s *Session) Metrics() []simulator.QueueMetrics {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.QueueMetrics(s.current)
}

// Summary returns whole-run analytics for the current state.
func (s *Session) Summary() simulator.Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return simulator.Summarize(s.current)
}

// Gantt returns a copy of the current Gantt chart.
func (s *Session) Gantt() []simulator.GanttEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]simulator.GanttEvent, len(s.current.Gantt))
	copy(out, s.current.Gantt)
	return out
}

// Status returns the playback summary.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		ID:          s.id,
		Playing:     s.playing,
		CanUndo:     len(s.history) > 0,
		CanRedo:     len(s.future) > 0,
		CurrentStep: s.current.CurrentStep,
		CurrentTime: s.current.CurrentTime,
		IsCompleted: s.current.IsCompleted,
		Config:      s.engine.Config(),
	}
}

// Violations returns how many strict-mode transition checks failed.
func (s *Session) Violations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.violations
}

// Play turns autoplay on. It has no effect once the simulation has completed.
func (s *Session) Play() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current.IsCompleted {
		return false
	}
	s.playing = true
	s.current.IsRunning = true
	return true
}

// Pause turns autoplay off.
func (s *Session) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	s.current.IsRunning = false
}

// Playing reports whether autoplay is on.
func (s *Session) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// Tick is one autoplay beat: it steps when playing and switches autoplay off
// as soon as the simulation is complete. The bool reports whether a step was
// taken.
func (s *Session) Tick() (simulator.State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.playing {
		return s.current.Clone(), false
	}
	if s.current.IsCompleted {
		s.playing = false
		s.current.IsRunning = false
		return s.current.Clone(), false
	}
	s.advance()
	if s.current.IsCompleted {
		s.playing = false
		s.logger.Info("autoplay finished", "step", s.current.CurrentStep, "time", s.current.CurrentTime)
	}
	return s.current.Clone(), true
}

// Run calls Tick every interval until ctx is done, passing each new state to
// notify (which may be nil). It returns ctx.Err(), or an error straight away
// when interval is not positive.
func (s *Session) Run(ctx context.Context, interval time.Duration, notify func(simulator.State)) error {
	if interval <= 0 {
		return fmt.Errorf("autoplay interval must be positive, got %v", interval)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if st, ok := s.Tick(); ok && notify != nil {
				notify(st)
			}
		}
	}
}

// advance must be called with mu held.
func (s *Session) advance() {
	prev := s.current
	next := s.engine.Step(prev)
	if s.strict {
		if err := simulator.CheckTransition(prev, next); err != nil {
			s.violations++
			s.logger.Error("invariant violation", "step", next.CurrentStep, "error", err)
		}
	}
	s.pushHistory(prev)
	s.future = nil
	s.current = next
	s.logger.Debug("step", "step", next.CurrentStep, "time", next.CurrentTime, "completed", next.IsCompleted)
}

func (s *Session) pushHistory(st simulator.State) {
	s.history = append(s.history, st)
	if s.maxHistory > 0 && len(s.history) > s.maxHistory {
		s.history = s.history[len(s.history)-s.maxHistory:]
	}
}
