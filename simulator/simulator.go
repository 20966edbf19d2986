package simulator

import (
	"fmt"
	"math"
)

// State is one snapshot of the simulation. It is a plain value: Step never
// writes into the slices of the State it is given, so callers may keep old
// snapshots around (undo, replay, diffing) without copying them. Treat
// Processes and Gantt as read-only and Clone before modifying them.
type State struct {
	CurrentTime     int          `json:"currentTime"`
	Processes       []Process    `json:"processes"`
	Gantt           []GanttEvent `json:"ganttChart"`
	IsRunning       bool         `json:"isRunning"` // set by playback drivers, cleared on completion
	IsCompleted     bool         `json:"isCompleted"`
	CurrentStep     int          `json:"currentStep"`
	LastScheduledID string       `json:"lastScheduledProcessId,omitempty"` // last Round Robin dispatch
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	out := s
	if s.Processes != nil {
		out.Processes = make([]Process, len(s.Processes))
		copy(out.Processes, s.Processes)
	}
	if s.Gantt != nil {
		out.Gantt = make([]GanttEvent, len(s.Gantt))
		copy(out.Gantt, s.Gantt)
	}
	return out
}

// Process returns the process with the given id.
func (s State) Process(id string) (Process, bool) {
	for _, p := range s.Processes {
		if p.ID == id {
			return p, true
		}
	}
	return Process{}, false
}

// Eligible returns the processes of queue q that can be dispatched right now,
// in collection order.
func (s State) Eligible(q QueueNumber) []Process {
	out := make([]Process, 0)
	for _, p := range s.Processes {
		if p.Queue == q && p.Eligible(s.CurrentTime) {
			out = append(out, p)
		}
	}
	return out
}

// CompletedCount returns how many processes have finished.
func (s State) CompletedCount() int {
	n := 0
	for _, p := range s.Processes {
		if p.IsCompleted() {
			n++
		}
	}
	return n
}

func (s State) allCompleted() bool {
	return s.CompletedCount() == len(s.Processes)
}

// Engine is a PURE multilevel-queue scheduler with NO concurrency primitives
// and no mutable state of its own. Step maps one State to the next; the caller
// owns the current State and decides pacing, history and when to stop.
type Engine struct {
	config SimConfig

	// Event logging callback (optional, for UI/debugging). It observes
	// decisions and has no influence on them.
	LogEvent func(msg string)
}

// NewEngine creates a new engine
func NewEngine(config SimConfig) (*Engine, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Engine{config: config}, nil
}

var defaultEngine = &Engine{config: DefaultConfig()}

// Initialize builds the starting state with the default configuration.
func Initialize(processes []Process) State { return defaultEngine.Initialize(processes) }

// Step advances a state with the default configuration.
func Step(state State) State { return defaultEngine.Step(state) }

// Config returns the engine configuration
func (e *Engine) Config() SimConfig {
	return e.config
}

// Initialize builds the starting state for a process list. Remaining time and
// status are reset from the burst time whatever the caller passed in, and any
// previously recorded times are cleared. The input slice is not retained.
func (e *Engine) Initialize(processes []Process) State {
	procs := make([]Process, len(processes))
	for i, p := range processes {
		p.RemainingTime = p.BurstTime
		p.Status = StatusWaiting
		p.StartTime = nil
		p.CompletionTime = nil
		p.TurnaroundTime = nil
		p.WaitingTime = nil
		procs[i] = p
	}
	return State{
		CurrentTime: 0,
		Processes:   procs,
		Gantt:       make([]GanttEvent, 0),
		CurrentStep: 0,
	}
}

// Step advances the simulation by exactly one scheduling decision or one clock
// jump. A completed state is returned unchanged.
//
// Queue 1 is always serviced before Queue 2, and Queue 2 before Queue 3; a lower
// queue only runs when every higher queue has no ready work at the current time.
func (e *Engine) Step(state State) State {
	if state.IsCompleted {
		return state
	}

	// Vacuously true for an empty process list.
	if state.allCompleted() {
		next := state
		next.IsCompleted = true
		next.IsRunning = false
		e.logEvent("[t=%d] all %d processes completed after %d steps",
			state.CurrentTime, len(state.Processes), state.CurrentStep)
		return next
	}

	next := state
	next.CurrentStep = state.CurrentStep + 1

	if !e.anyArrived(state) {
		next.CurrentTime = nextArrival(state)
		e.logEvent("[t=%d] idle, clock jumps to next arrival t=%d", state.CurrentTime, next.CurrentTime)
		return next
	}

	for _, q := range Queues {
		sel := e.selectFrom(q, state)
		if !sel.OK {
			continue
		}
		next.Processes = replaceProcess(state.Processes, sel.Process)
		next.Gantt = appendEvent(state.Gantt, sel.Event)
		next.CurrentTime = sel.Time
		next.LastScheduledID = sel.LastScheduled
		e.logEvent("[t=%d] %s", state.CurrentTime, sel.Event)
		if sel.Process.IsCompleted() {
			e.logEvent("[t=%d] %s completed (turnaround=%d, waiting=%d)",
				sel.Time, sel.Process.Name, *sel.Process.TurnaroundTime, *sel.Process.WaitingTime)
		}
		return next
	}

	// Unreachable for validated input: an arrived, unfinished process always
	// belongs to one of the three queues.
	e.logEvent("[t=%d] no queue had ready work", state.CurrentTime)
	return next
}

// Run steps from state until the simulation completes. maxSteps bounds the
// number of steps taken (0 = no bound).
func (e *Engine) Run(state State, maxSteps int) (State, error) {
	if maxSteps <= 0 {
		maxSteps = math.MaxInt
	}
	for i := 0; i < maxSteps; i++ {
		if state.IsCompleted {
			return state, nil
		}
		state = e.Step(state)
	}
	if state.IsCompleted {
		return state, nil
	}
	return state, SimError{Message: fmt.Sprintf("%d steps taken at t=%d", maxSteps, state.CurrentTime), Err: ErrStepLimit}
}

// selectFrom runs the selector bound to queue q over the state's processes.
func (e *Engine) selectFrom(q QueueNumber, state State) Selection {
	candidates := state.Eligible(q)
	switch AlgorithmFor(q) {
	case AlgorithmRoundRobin:
		return RoundRobin(candidates, state.CurrentTime, state.LastScheduledID, e.config.TimeQuantum)
	case AlgorithmPriority:
		sel := Priority(candidates, state.CurrentTime)
		sel.LastScheduled = state.LastScheduledID
		return sel
	default:
		sel := FCFS(candidates, state.CurrentTime)
		sel.LastScheduled = state.LastScheduledID
		return sel
	}
}

func (e *Engine) anyArrived(state State) bool {
	for _, p := range state.Processes {
		if p.Eligible(state.CurrentTime) {
			return true
		}
	}
	return false
}

// nextArrival returns the earliest arrival among unfinished processes.
func nextArrival(state State) int {
	earliest := math.MaxInt
	for _, p := range state.Processes {
		if !p.IsCompleted() && p.ArrivalTime < earliest {
			earliest = p.ArrivalTime
		}
	}
	return earliest
}

// replaceProcess returns a fresh copy of procs with updated swapped in by id.
func replaceProcess(procs []Process, updated Process) []Process {
	out := make([]Process, len(procs))
	copy(out, procs)
	for i := range out {
		if out[i].ID == updated.ID {
			out[i] = updated
			break
		}
	}
	return out
}

// appendEvent never writes into the input's backing array, so two states
// stepped from the same parent cannot clobber each other's history.
func appendEvent(events []GanttEvent, ev GanttEvent) []GanttEvent {
	out := make([]GanttEvent, len(events), len(events)+1)
	copy(out, events)
	return append(out, ev)
}

func (e *Engine) logEvent(format string, args ...interface{}) {
	if e.LogEvent != nil {
		e.LogEvent(fmt.Sprintf(format, args...))
	}
}
