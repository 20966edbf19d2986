package simulator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func dispatchOrder(t *testing.T, e *Engine, procs []Process) []string {
	t.Helper()
	final, _ := runChecked(t, e, e.Initialize(procs))
	order := make([]string, 0, len(final.Gantt))
	for _, ev := range final.Gantt {
		order = append(order, ev.ProcessID)
	}
	return order
}

func TestRoundRobin_EmptyIsNoOp(t *testing.T) {
	sel := RoundRobin(nil, 7, "X", 3)
	require.False(t, sel.OK)
	require.Equal(t, 7, sel.Time)
	require.Equal(t, "X", sel.LastScheduled)

	// Nothing arrived yet.
	sel = RoundRobin([]Process{newProc("A", Queue1, 9, 3, 0)}, 7, "", 3)
	require.False(t, sel.OK)
}

func TestRoundRobin_SliceAndStatus(t *testing.T) {
	p := newProc("A", Queue1, 0, 5, 0)
	p.RemainingTime = 5

	sel := RoundRobin([]Process{p}, 4, "", 3)
	require.True(t, sel.OK)
	require.Equal(t, 7, sel.Time)
	require.Equal(t, "A", sel.LastScheduled)
	require.Equal(t, 2, sel.Process.RemainingTime)
	require.Equal(t, StatusRunning, sel.Process.Status)
	require.Equal(t, 4, *sel.Process.StartTime)
	require.Nil(t, sel.Process.CompletionTime)
	require.Equal(t, GanttEvent{ProcessID: "A", ProcessName: "A", StartTime: 4, EndTime: 7, Queue: Queue1}, sel.Event)

	// The second slice is shorter than the quantum and finishes the process.
	sel = RoundRobin([]Process{sel.Process}, 7, "A", 3)
	require.Equal(t, 9, sel.Time)
	require.Equal(t, StatusCompleted, sel.Process.Status)
	require.Equal(t, 4, *sel.Process.StartTime, "start time is set once")
	require.Equal(t, 9, *sel.Process.CompletionTime)
	require.Equal(t, 9, *sel.Process.TurnaroundTime)
	require.Equal(t, 4, *sel.Process.WaitingTime)
}

func TestRoundRobin_RotatesAfterLastScheduled(t *testing.T) {
	procs := []Process{
		newProc("A", Queue1, 0, 6, 0),
		newProc("B", Queue1, 0, 6, 0),
		newProc("C", Queue1, 0, 6, 0),
	}
	for i := range procs {
		procs[i].RemainingTime = 6
	}

	tests := []struct {
		last string
		want string
	}{
		{"", "A"},
		{"A", "B"},
		{"B", "C"},
		{"C", "A"},
		{"gone", "A"},
	}
	for _, tt := range tests {
		t.Run("after "+tt.last, func(t *testing.T) {
			sel := RoundRobin(procs, 0, tt.last, 3)
			require.Equal(t, tt.want, sel.Process.ID)
		})
	}
}

func TestRoundRobin_OrdersByArrival(t *testing.T) {
	procs := []Process{
		newProc("LATE", Queue1, 2, 4, 0),
		newProc("EARLY", Queue1, 1, 4, 0),
	}
	for i := range procs {
		procs[i].RemainingTime = 4
	}
	sel := RoundRobin(procs, 2, "", 3)
	require.Equal(t, "EARLY", sel.Process.ID)

	sel = RoundRobin(procs, 2, "EARLY", 3)
	require.Equal(t, "LATE", sel.Process.ID)
}

func TestRoundRobin_FullRotation(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	order := dispatchOrder(t, e, []Process{
		newProc("A", Queue1, 0, 6, 0),
		newProc("B", Queue1, 0, 6, 0),
		newProc("C", Queue1, 0, 6, 0),
	})
	require.Equal(t, []string{"A", "B", "C", "A", "B", "C"}, order)
}

func TestRoundRobin_LateArrivalJoinsRotation(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	order := dispatchOrder(t, e, []Process{
		newProc("A", Queue1, 0, 9, 0),
		newProc("B", Queue1, 0, 9, 0),
		newProc("C", Queue1, 4, 6, 0),
	})
	require.Equal(t, []string{"A", "B", "C", "A", "B", "C", "A", "B"}, order)
}

// When the last dispatched process has finished it leaves the ready set and the
// rotation restarts from the earliest arrival.
func TestRoundRobin_RestartsWhenLastScheduledFinished(t *testing.T) {
	e := mustEngine(t, DefaultConfig())
	order := dispatchOrder(t, e, []Process{
		newProc("A", Queue1, 0, 3, 0),
		newProc("B", Queue1, 0, 6, 0),
		newProc("C", Queue1, 0, 6, 0),
	})
	require.Equal(t, []string{"A", "B", "C", "B", "C"}, order)
}

func TestPriority_Selection(t *testing.T) {
	procs := []Process{
		newProc("P3", Queue2, 0, 2, 3),
		newProc("P1-late", Queue2, 2, 2, 1),
		newProc("P1-early", Queue2, 1, 2, 1),
		newProc("P0-future", Queue2, 9, 2, 0),
	}
	for i := range procs {
		procs[i].RemainingTime = procs[i].BurstTime
	}

	sel := Priority(procs, 5)
	require.True(t, sel.OK)
	require.Equal(t, "P1-early", sel.Process.ID)
	require.Equal(t, 7, sel.Time)
	require.Equal(t, StatusCompleted, sel.Process.Status)
	require.Equal(t, 0, sel.Process.RemainingTime)
	require.Equal(t, 6, *sel.Process.TurnaroundTime)
	require.Equal(t, 4, *sel.Process.WaitingTime)
	require.Empty(t, sel.LastScheduled)

	require.False(t, Priority(nil, 5).OK)
}

func TestPriority_TieKeepsCollectionOrder(t *testing.T) {
	procs := []Process{
		newProc("first", Queue2, 0, 1, 2),
		newProc("second", Queue2, 0, 1, 2),
	}
	for i := range procs {
		procs[i].RemainingTime = 1
	}
	require.Equal(t, "first", Priority(procs, 0).Process.ID)
}

func TestFCFS_Selection(t *testing.T) {
	procs := []Process{
		newProc("second", Queue3, 3, 4, 0),
		newProc("first", Queue3, 1, 4, 0),
		newProc("tie", Queue3, 1, 4, 0),
	}
	for i := range procs {
		procs[i].RemainingTime = procs[i].BurstTime
	}
	// A partially run process only charges its remaining time.
	procs[1].RemainingTime = 1
	procs[1].StartTime = intPtr(1)

	sel := FCFS(procs, 3)
	require.True(t, sel.OK)
	require.Equal(t, "first", sel.Process.ID)
	require.Equal(t, 4, sel.Time)
	require.Equal(t, 1, *sel.Process.StartTime)
	require.Equal(t, GanttEvent{ProcessID: "first", ProcessName: "first", StartTime: 3, EndTime: 4, Queue: Queue3}, sel.Event)

	require.False(t, FCFS(procs, 0).OK)
}
