package simulator

import (
	"encoding/json"
	"fmt"
)

// Status is the lifecycle state of a process.
//
//	waiting -> running -> completed
//	waiting ----------> completed   (non-preemptive queues)
//
// completed is terminal.
type Status int

const (
	StatusWaiting Status = iota
	StatusRunning
	StatusCompleted
)

// String returns the string representation of Status
func (s Status) String() string {
	switch s {
	case StatusWaiting:
		return "waiting"
	case StatusRunning:
		return "running"
	case StatusCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// ParseStatus parses a string into Status
func ParseStatus(s string) (Status, error) {
	switch s {
	case "waiting":
		return StatusWaiting, nil
	case "running":
		return StatusRunning, nil
	case "completed":
		return StatusCompleted, nil
	default:
		return StatusWaiting, fmt.Errorf("invalid status: %s (must be 'waiting', 'running' or 'completed')", s)
	}
}

// MarshalJSON implements json.Marshaler for Status
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON implements json.Unmarshaler for Status
func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	parsed, err := ParseStatus(str)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// QueueNumber identifies one of the three ready queues. Lower numbers are
// serviced first.
type QueueNumber int

const (
	Queue1 QueueNumber = 1
	Queue2 QueueNumber = 2
	Queue3 QueueNumber = 3
)

// Queues lists every queue in precedence order.
var Queues = [...]QueueNumber{Queue1, Queue2, Queue3}

// Valid reports whether q names one of the three queues.
func (q QueueNumber) Valid() bool {
	return q >= Queue1 && q <= Queue3
}

// Process is one schedulable unit of work. Times are in simulated time units.
// The optional fields are nil until set; CompletionTime, TurnaroundTime and
// WaitingTime are always set together.
type Process struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	ArrivalTime   int         `json:"arrivalTime"`
	BurstTime     int         `json:"burstTime"`
	RemainingTime int         `json:"remainingTime"`
	Priority      int         `json:"priority"` // lower = more urgent, Queue 2 only
	Queue         QueueNumber `json:"queueNumber"`
	Status        Status      `json:"status"`

	StartTime      *int `json:"startTime,omitempty"`
	CompletionTime *int `json:"completionTime,omitempty"`
	TurnaroundTime *int `json:"turnaroundTime,omitempty"`
	WaitingTime    *int `json:"waitingTime,omitempty"`
}

// IsCompleted reports whether the process has finished.
func (p Process) IsCompleted() bool { return p.Status == StatusCompleted }

// HasArrived reports whether the process is visible to the scheduler at now.
func (p Process) HasArrived(now int) bool { return p.ArrivalTime <= now }

// Eligible reports whether the process can be dispatched at now.
func (p Process) Eligible(now int) bool {
	return p.HasArrived(now) && !p.IsCompleted()
}

// run charges slice units of CPU to the process starting at now and returns
// the updated copy. The receiver is not modified.
func (p Process) run(now, slice int) Process {
	if p.StartTime == nil {
		p.StartTime = intPtr(now)
	}
	p.RemainingTime -= slice
	if p.RemainingTime > 0 {
		p.Status = StatusRunning
		return p
	}

	completion := now + slice
	turnaround := completion - p.ArrivalTime
	p.Status = StatusCompleted
	p.CompletionTime = intPtr(completion)
	p.TurnaroundTime = intPtr(turnaround)
	p.WaitingTime = intPtr(turnaround - p.BurstTime)
	return p
}

func (p Process) String() string {
	return fmt.Sprintf("%s(q=%d, arrival=%d, burst=%d, remaining=%d, %s)",
		p.Name, p.Queue, p.ArrivalTime, p.BurstTime, p.RemainingTime, p.Status)
}

func intPtr(v int) *int { return &v }
