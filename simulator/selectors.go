package simulator

import "sort"

// Selection is the outcome of asking a queue's selector for work.
// When OK is false nothing was dispatched: Time equals the input time and the
// other fields are zero, except LastScheduled which is passed through.
type Selection struct {
	Process       Process    // updated copy of the dispatched process
	Time          int        // clock after the dispatch
	Event         GanttEvent // the slice that was just run
	LastScheduled string     // Round Robin rotation marker after this dispatch
	OK            bool
}

// ready returns the candidates that have arrived and still need CPU, in
// collection order.
func ready(candidates []Process, now int) []Process {
	out := make([]Process, 0, len(candidates))
	for _, p := range candidates {
		if p.HasArrived(now) && p.RemainingTime > 0 {
			out = append(out, p)
		}
	}
	return out
}

func dispatch(p Process, now, slice int) Selection {
	return Selection{
		Process: p.run(now, slice),
		Time:    now + slice,
		Event:   newGanttEvent(p, now, now+slice),
		OK:      true,
	}
}

// RoundRobin picks the next Queue 1 process and runs it for at most quantum
// units.
//
// Ready processes are ordered by arrival time; equal arrivals keep their
// collection order. If lastScheduled is among them, the process right after it
// (cyclically) goes next, otherwise the earliest arrival does. A process that
// arrives later joins the rotation at its arrival-ordered position.
func RoundRobin(candidates []Process, now int, lastScheduled string, quantum int) Selection {
	procs := ready(candidates, now)
	if len(procs) == 0 {
		return Selection{Time: now, LastScheduled: lastScheduled}
	}
	sort.SliceStable(procs, func(i, j int) bool {
		return procs[i].ArrivalTime < procs[j].ArrivalTime
	})

	next := procs[0]
	if lastScheduled != "" {
		for i, p := range procs {
			if p.ID == lastScheduled {
				next = procs[(i+1)%len(procs)]
				break
			}
		}
	}

	sel := dispatch(next, now, min(quantum, next.RemainingTime))
	sel.LastScheduled = next.ID
	return sel
}

// Priority runs the ready Queue 2 process with the lowest priority value to
// completion. Ties go to the earliest arrival, then to collection order.
func Priority(candidates []Process, now int) Selection {
	return runToCompletion(candidates, now, func(a, b Process) bool {
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		return a.ArrivalTime < b.ArrivalTime
	})
}

// FCFS runs the earliest-arrived ready Queue 3 process to completion. Ties go
// to collection order.
func FCFS(candidates []Process, now int) Selection {
	return runToCompletion(candidates, now, func(a, b Process) bool {
		return a.ArrivalTime < b.ArrivalTime
	})
}

func runToCompletion(candidates []Process, now int, less func(a, b Process) bool) Selection {
	procs := ready(candidates, now)
	if len(procs) == 0 {
		return Selection{Time: now}
	}
	best := procs[0]
	for _, p := range procs[1:] {
		if less(p, best) {
			best = p
		}
	}
	return dispatch(best, now, best.RemainingTime)
}
