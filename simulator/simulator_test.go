package simulator

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func newProc(id string, q QueueNumber, arrival, burst, priority int) Process {
	return Process{
		ID:          id,
		Name:        id,
		ArrivalTime: arrival,
		BurstTime:   burst,
		Priority:    priority,
		Queue:       q,
	}
}

// runChecked steps until completion, verifying every transition.
func runChecked(t *testing.T, e *Engine, s State) (State, []State) {
	t.Helper()
	states := []State{s}
	for i := 0; i < 10000 && !s.IsCompleted; i++ {
		next := e.Step(s)
		require.NoError(t, CheckTransition(s, next))
		s = next
		states = append(states, s)
	}
	require.True(t, s.IsCompleted, "simulation did not finish")
	return s, states
}

func mustEngine(t *testing.T, cfg SimConfig) *Engine {
	t.Helper()
	e, err := NewEngine(cfg)
	require.NoError(t, err)
	return e
}

func TestInitialize_NormalizesProcesses(t *testing.T) {
	p := newProc("A", Queue1, 2, 5, 0)
	p.RemainingTime = 1
	p.Status = StatusCompleted
	p.StartTime = intPtr(3)
	p.CompletionTime = intPtr(4)
	p.TurnaroundTime = intPtr(2)
	p.WaitingTime = intPtr(0)
	input := []Process{p}

	s := Initialize(input)

	require.Equal(t, 0, s.CurrentTime)
	require.Equal(t, 0, s.CurrentStep)
	require.False(t, s.IsCompleted)
	require.False(t, s.IsRunning)
	require.Empty(t, s.LastScheduledID)
	require.Empty(t, s.Gantt)
	require.Len(t, s.Processes, 1)

	got := s.Processes[0]
	require.Equal(t, 5, got.RemainingTime)
	require.Equal(t, StatusWaiting, got.Status)
	require.Nil(t, got.StartTime)
	require.Nil(t, got.CompletionTime)
	require.Nil(t, got.TurnaroundTime)
	require.Nil(t, got.WaitingTime)

	// The caller's slice is not aliased.
	input[0].Name = "changed"
	require.Equal(t, "A", s.Processes[0].Name)
}

func TestStep_EmptyProcessListCompletesImmediately(t *testing.T) {
	s := Step(Initialize(nil))
	require.True(t, s.IsCompleted)
	require.Equal(t, 0, s.CurrentTime)
	require.Empty(t, s.Gantt)
}

// Scenario: a single FCFS process runs start to finish in one event.
func TestStep_SingleFCFSProcess(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	final, _ := runChecked(t, e, e.Initialize([]Process{newProc("P1", Queue3, 0, 5, 0)}))

	require.Equal(t, []GanttEvent{{ProcessID: "P1", ProcessName: "P1", StartTime: 0, EndTime: 5, Queue: Queue3}}, final.Gantt)
	p, ok := final.Process("P1")
	require.True(t, ok)
	require.Equal(t, 5, *p.CompletionTime)
	require.Equal(t, 5, *p.TurnaroundTime)
	require.Equal(t, 0, *p.WaitingTime)
	require.Equal(t, 0, *p.StartTime)
}

// Scenario: two Round Robin processes alternate on a 3-unit quantum.
func TestStep_RoundRobinAlternates(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	s := e.Initialize([]Process{
		newProc("A", Queue1, 0, 5, 0),
		newProc("B", Queue1, 0, 2, 0),
	})

	s = e.Step(s)
	require.Equal(t, GanttEvent{ProcessID: "A", ProcessName: "A", StartTime: 0, EndTime: 3, Queue: Queue1}, s.Gantt[0])
	a, _ := s.Process("A")
	require.Equal(t, StatusRunning, a.Status)
	require.Equal(t, 2, a.RemainingTime)
	require.Equal(t, "A", s.LastScheduledID)

	s = e.Step(s)
	require.Equal(t, GanttEvent{ProcessID: "B", ProcessName: "B", StartTime: 3, EndTime: 5, Queue: Queue1}, s.Gantt[1])
	b, _ := s.Process("B")
	require.Equal(t, StatusCompleted, b.Status)
	require.Equal(t, 0, b.RemainingTime)

	s = e.Step(s)
	require.Equal(t, GanttEvent{ProcessID: "A", ProcessName: "A", StartTime: 5, EndTime: 7, Queue: Queue1}, s.Gantt[2])

	final, _ := runChecked(t, e, s)
	a, _ = final.Process("A")
	b, _ = final.Process("B")
	require.Equal(t, 7, *a.CompletionTime)
	require.Equal(t, 5, *b.CompletionTime)
	require.Equal(t, 3, *b.WaitingTime)
	require.Len(t, final.Gantt, 3)
}

// Scenario: Queue 1 work preempts Queue 2 at the same instant.
func TestStep_QueueOneBeforeQueueTwo(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	final, _ := runChecked(t, e, e.Initialize([]Process{
		newProc("LOW", Queue2, 0, 4, 1),
		newProc("HIGH", Queue1, 0, 3, 0),
	}))

	require.Equal(t, []GanttEvent{
		{ProcessID: "HIGH", ProcessName: "HIGH", StartTime: 0, EndTime: 3, Queue: Queue1},
		{ProcessID: "LOW", ProcessName: "LOW", StartTime: 3, EndTime: 7, Queue: Queue2},
	}, final.Gantt)
}

// Scenario: nothing has arrived, so the first step is a pure clock jump.
func TestStep_ClockJumpsToFirstArrival(t *testing.T) {
	s0 := Initialize([]Process{
		newProc("A", Queue1, 5, 2, 0),
		newProc("B", Queue3, 5, 2, 0),
	})
	s1 := Step(s0)

	require.NoError(t, CheckTransition(s0, s1))
	require.Equal(t, 5, s1.CurrentTime)
	require.Empty(t, s1.Gantt)
	require.Equal(t, 1, s1.CurrentStep)
	require.Equal(t, s0.Processes, s1.Processes)
}

func TestStep_ClockJumpBetweenBursts(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	final, _ := runChecked(t, e, e.Initialize([]Process{
		newProc("A", Queue2, 0, 2, 0),
		newProc("B", Queue2, 10, 1, 0),
	}))

	require.Len(t, final.Gantt, 2)
	require.Equal(t, 10, final.Gantt[1].StartTime)
	s := Summarize(final)
	require.Equal(t, 11, s.TotalTime)
	require.Equal(t, 8, s.IdleTime)
}

// Non-preemptive queues keep the CPU even when higher queue work arrives mid-run.
func TestStep_LowerQueueRunIsNotInterrupted(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	final, _ := runChecked(t, e, e.Initialize([]Process{
		newProc("BATCH", Queue3, 0, 10, 0),
		newProc("INTERACTIVE", Queue1, 2, 2, 0),
	}))

	require.Equal(t, "BATCH", final.Gantt[0].ProcessID)
	require.Equal(t, 10, final.Gantt[0].EndTime)
	require.Equal(t, "INTERACTIVE", final.Gantt[1].ProcessID)
	p, _ := final.Process("INTERACTIVE")
	require.Equal(t, 8, *p.WaitingTime)
}

func TestStep_QueueTwoBeforeQueueThree(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	final, _ := runChecked(t, e, e.Initialize([]Process{
		newProc("F", Queue3, 0, 2, 0),
		newProc("P2", Queue2, 0, 2, 5),
		newProc("P1", Queue2, 0, 2, 1),
	}))

	order := make([]string, 0, len(final.Gantt))
	for _, ev := range final.Gantt {
		order = append(order, ev.ProcessID)
	}
	require.Equal(t, []string{"P1", "P2", "F"}, order)
}

func TestStep_TerminalStateIsUnchanged(t *testing.T) {
	final, _ := runChecked(t, mustEngine(t, DefaultConfig()), Initialize([]Process{newProc("A", Queue1, 0, 4, 0)}))
	require.False(t, final.IsRunning)

	again := Step(final)
	require.Equal(t, final, again)
	require.NoError(t, CheckTransition(final, again))
}

func TestStep_CompletionClearsRunningFlag(t *testing.T) {
	s := Initialize([]Process{newProc("A", Queue3, 0, 1, 0)})
	s.IsRunning = true
	s = Step(s)
	require.True(t, s.IsRunning)
	require.False(t, s.IsCompleted)

	s = Step(s)
	require.True(t, s.IsCompleted)
	require.False(t, s.IsRunning)
}

func TestStep_DoesNotModifyInput(t *testing.T) {
	s1 := Step(Initialize([]Process{
		newProc("A", Queue1, 0, 7, 0),
		newProc("B", Queue1, 0, 7, 0),
		newProc("C", Queue2, 0, 3, 0),
	}))
	snapshot := s1.Clone()

	a := Step(s1)
	aSnapshot := a.Clone()
	b := Step(s1)

	require.Equal(t, snapshot, s1, "input state modified")
	require.Equal(t, a, b, "step is not deterministic")
	require.Equal(t, aSnapshot, a, "sibling step clobbered an earlier result")
}

func TestStep_CustomQuantum(t *testing.T) {
	e := mustEngine(t, SimConfig{TimeQuantum: 2})
	final, _ := runChecked(t, e, e.Initialize([]Process{
		newProc("A", Queue1, 0, 3, 0),
		newProc("B", Queue1, 0, 3, 0),
	}))

	spans := make([]string, 0, len(final.Gantt))
	for _, ev := range final.Gantt {
		spans = append(spans, fmt.Sprintf("%s[%d,%d)", ev.ProcessID, ev.StartTime, ev.EndTime))
	}
	require.Equal(t, []string{"A[0,2)", "B[2,4)", "A[4,5)", "B[5,6)"}, spans)
}

func TestNewEngine_RejectsInvalidConfig(t *testing.T) {
	_, err := NewEngine(SimConfig{TimeQuantum: 0})
	require.Error(t, err)
	require.ErrorAs(t, err, &SimError{})
}

func TestRun_StepLimit(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	s := e.Initialize([]Process{newProc("A", Queue1, 0, 30, 0)})

	partial, err := e.Run(s, 3)
	require.ErrorIs(t, err, ErrStepLimit)
	require.Equal(t, 9, partial.CurrentTime)

	final, err := e.Run(partial, 0)
	require.NoError(t, err)
	require.True(t, final.IsCompleted)
	require.Equal(t, 30, final.CurrentTime)
}

func TestEngine_LogEvent(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	var lines []string
	e.LogEvent = func(msg string) { lines = append(lines, msg) }

	withLog, err := e.Run(e.Initialize([]Process{newProc("A", Queue3, 4, 2, 0)}), 0)
	require.NoError(t, err)
	require.Len(t, lines, 4) // jump, dispatch, completion, done
	require.Contains(t, lines[0], "clock jumps")

	e.LogEvent = nil
	withoutLog, err := e.Run(e.Initialize([]Process{newProc("A", Queue3, 4, 2, 0)}), 0)
	require.NoError(t, err)
	require.Equal(t, withoutLog, withLog)
}

// TestStep_RandomWorkloads checks the scheduling properties over many
// generated workloads.
func TestStep_RandomWorkloads(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for round := 0; round < 200; round++ {
		n := rng.Intn(12)
		procs := make([]Process, n)
		totalBurst := 0
		for i := range procs {
			procs[i] = newProc(fmt.Sprintf("P%d", i), QueueNumber(1+rng.Intn(3)),
				rng.Intn(20), 1+rng.Intn(9), rng.Intn(5))
			totalBurst += procs[i].BurstTime
		}
		e := mustEngine(t, SimConfig{TimeQuantum: 1 + rng.Intn(4)})

		final, states := runChecked(t, e, e.Initialize(procs))

		// Each non-final step either dispatches at least one unit or jumps the
		// clock to an arrival, so the run is bounded.
		require.LessOrEqual(t, len(states)-1, totalBurst+n+1)

		busy := 0
		for _, ev := range final.Gantt {
			busy += ev.Duration()
		}
		require.Equal(t, totalBurst, busy, "round %d: CPU time not conserved", round)

		for _, p := range final.Processes {
			require.Equal(t, 0, p.RemainingTime)
			require.Equal(t, StatusCompleted, p.Status)
			require.GreaterOrEqual(t, *p.StartTime, p.ArrivalTime)
			require.GreaterOrEqual(t, *p.WaitingTime, 0)
		}
	}
}
