package simulator

import (
	"reflect"
	"slices"
)

// CheckProcess validates the internal consistency of a single process record.
func CheckProcess(p Process) error {
	return checkProcess(0, p)
}

func checkProcess(step int, p Process) error {
	if p.RemainingTime < 0 || p.RemainingTime > p.BurstTime {
		return invariantf(step, "%s: remaining time %d outside [0, %d]", p.Name, p.RemainingTime, p.BurstTime)
	}

	set := 0
	for _, v := range []*int{p.CompletionTime, p.TurnaroundTime, p.WaitingTime} {
		if v != nil {
			set++
		}
	}
	if set != 0 && set != 3 {
		return invariantf(step, "%s: completion, turnaround and waiting times must be set together", p.Name)
	}

	if p.IsCompleted() != (p.RemainingTime == 0) {
		return invariantf(step, "%s: status %s with remaining time %d", p.Name, p.Status, p.RemainingTime)
	}
	if p.IsCompleted() != (set == 3) {
		return invariantf(step, "%s: status %s but completion times set=%v", p.Name, p.Status, set == 3)
	}
	if p.Status != StatusWaiting && p.StartTime == nil {
		return invariantf(step, "%s: %s without a start time", p.Name, p.Status)
	}

	if set == 3 {
		if *p.TurnaroundTime != *p.CompletionTime-p.ArrivalTime {
			return invariantf(step, "%s: turnaround %d != completion %d - arrival %d",
				p.Name, *p.TurnaroundTime, *p.CompletionTime, p.ArrivalTime)
		}
		if *p.WaitingTime != *p.TurnaroundTime-p.BurstTime {
			return invariantf(step, "%s: waiting %d != turnaround %d - burst %d",
				p.Name, *p.WaitingTime, *p.TurnaroundTime, p.BurstTime)
		}
	}
	return nil
}

// CheckTransition verifies that next is a legal successor of prev under
// multilevel-queue semantics. It is meant for tests and debugging drivers.
func CheckTransition(prev, next State) error {
	step := next.CurrentStep

	if prev.IsCompleted {
		if !reflect.DeepEqual(prev, next) {
			return invariantf(step, "completed state changed")
		}
		return nil
	}

	if next.CurrentTime < prev.CurrentTime {
		return invariantf(step, "clock moved backwards: %d -> %d", prev.CurrentTime, next.CurrentTime)
	}
	if next.CurrentStep != prev.CurrentStep && next.CurrentStep != prev.CurrentStep+1 {
		return invariantf(step, "step counter jumped: %d -> %d", prev.CurrentStep, next.CurrentStep)
	}
	if len(next.Processes) != len(prev.Processes) {
		return invariantf(step, "process count changed: %d -> %d", len(prev.Processes), len(next.Processes))
	}

	for _, before := range prev.Processes {
		after, ok := next.Process(before.ID)
		if !ok {
			return invariantf(step, "process %s disappeared", before.ID)
		}
		if after.Queue != before.Queue {
			return invariantf(step, "%s: queue changed %d -> %d", before.Name, before.Queue, after.Queue)
		}
		if after.RemainingTime > before.RemainingTime {
			return invariantf(step, "%s: remaining time grew %d -> %d", before.Name, before.RemainingTime, after.RemainingTime)
		}
		if before.IsCompleted() && !reflect.DeepEqual(before, after) {
			return invariantf(step, "%s: completed process changed", before.Name)
		}
		if err := checkProcess(step, after); err != nil {
			return err
		}
	}

	switch len(next.Gantt) - len(prev.Gantt) {
	case 0:
	case 1:
		ev := next.Gantt[len(next.Gantt)-1]
		if ev.EndTime <= ev.StartTime {
			return invariantf(step, "empty or negative event %s", ev)
		}
		if ev.StartTime != prev.CurrentTime || ev.EndTime != next.CurrentTime {
			return invariantf(step, "event %s does not span [%d,%d)", ev, prev.CurrentTime, next.CurrentTime)
		}
		for _, q := range Queues {
			if len(prev.Eligible(q)) > 0 {
				if ev.Queue != q {
					return invariantf(step, "queue %d ran while queue %d had ready work", ev.Queue, q)
				}
				break
			}
		}
	default:
		return invariantf(step, "gantt grew from %d to %d events", len(prev.Gantt), len(next.Gantt))
	}
	if !slices.Equal(prev.Gantt, next.Gantt[:len(prev.Gantt)]) {
		return invariantf(step, "gantt history rewritten")
	}
	return nil
}
