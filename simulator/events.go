package simulator

import "fmt"

// GanttEvent records that a process held the CPU over [StartTime, EndTime).
// One event is produced per dispatch; the sequence in State.Gantt is the full
// execution history and is only ever appended to.
type GanttEvent struct {
	ProcessID   string      `json:"processId"`
	ProcessName string      `json:"processName"`
	StartTime   int         `json:"startTime"`
	EndTime     int         `json:"endTime"`
	Queue       QueueNumber `json:"queueNumber"`
}

func newGanttEvent(p Process, start, end int) GanttEvent {
	return GanttEvent{
		ProcessID:   p.ID,
		ProcessName: p.Name,
		StartTime:   start,
		EndTime:     end,
		Queue:       p.Queue,
	}
}

// Duration returns the CPU time covered by the event.
func (e GanttEvent) Duration() int { return e.EndTime - e.StartTime }

func (e GanttEvent) String() string {
	return fmt.Sprintf("Run(%s, q=%d, [%d,%d))", e.ProcessName, e.Queue, e.StartTime, e.EndTime)
}
