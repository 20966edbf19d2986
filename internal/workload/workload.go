// Package workload reads process lists from YAML or JSON files and validates
// them before they are handed to the simulator, which trusts its input.
package workload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/miretskiy/mlqsim/simulator"
)

// Spec is one process as written in a workload file
type Spec struct {
	ID          string `yaml:"id,omitempty" json:"id,omitempty"`
	Name        string `yaml:"name" json:"name"`
	ArrivalTime int    `yaml:"arrivalTime" json:"arrivalTime"`
	BurstTime   int    `yaml:"burstTime" json:"burstTime"`
	Priority    int    `yaml:"priority" json:"priority"` // lower = more urgent (queue 2 only)
	Queue       int    `yaml:"queue" json:"queue"`       // 1 = Round Robin, 2 = Priority, 3 = FCFS

	// QueueNumber is the key the simulator emits for the queue, accepted so
	// clients can send back the processes they were given.
	QueueNumber int `yaml:"queueNumber,omitempty" json:"queueNumber,omitempty"`
}

// QueueID returns the queue from whichever of queue or queueNumber is set.
func (s Spec) QueueID() int {
	if s.Queue == 0 {
		return s.QueueNumber
	}
	return s.Queue
}

// Workload is a named process list with optional simulation overrides
type Workload struct {
	Name        string `yaml:"name,omitempty" json:"name,omitempty"`
	TimeQuantum int    `yaml:"timeQuantum,omitempty" json:"timeQuantum,omitempty"` // 0 = simulator default
	Processes   []Spec `yaml:"processes" json:"processes"`
}

// Problem describes one invalid field
type Problem struct {
	Index   int    `json:"index"` // position in Processes, -1 for workload-level fields
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (p Problem) String() string {
	if p.Index < 0 {
		return fmt.Sprintf("%s: %s", p.Field, p.Message)
	}
	return fmt.Sprintf("processes[%d].%s: %s", p.Index, p.Field, p.Message)
}

// ValidationError lists every problem found in a workload
type ValidationError struct {
	Problems []Problem `json:"problems"`
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.String()
	}
	return "invalid workload: " + strings.Join(msgs, "; ")
}

// Parse decodes a workload from YAML or JSON and validates it.
func Parse(data []byte) (*Workload, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var w Workload
	if err := dec.Decode(&w); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("parse workload: empty document")
		}
		return nil, fmt.Errorf("parse workload: %w", err)
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}

// Load reads and parses a workload file.
func Load(path string) (*Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workload %s: %w", path, err)
	}
	w, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if w.Name == "" {
		w.Name = path
	}
	return w, nil
}

// Validate rejects anything the simulator is not prepared to handle: missing
// names, non-positive bursts, negative arrivals, unknown queues and duplicate
// ids. An empty process list is valid.
func (w *Workload) Validate() error {
	var problems []Problem
	add := func(i int, field, format string, args ...interface{}) {
		problems = append(problems, Problem{Index: i, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if w.TimeQuantum < 0 {
		add(-1, "timeQuantum", "must be >= 1 when set, got %d", w.TimeQuantum)
	}

	seen := make(map[string]int)
	for i, p := range w.Processes {
		if strings.TrimSpace(p.Name) == "" {
			add(i, "name", "is required")
		}
		if p.BurstTime <= 0 {
			add(i, "burstTime", "must be greater than 0, got %d", p.BurstTime)
		}
		if p.ArrivalTime < 0 {
			add(i, "arrivalTime", "cannot be negative, got %d", p.ArrivalTime)
		}
		if p.Queue != 0 && p.QueueNumber != 0 && p.Queue != p.QueueNumber {
			add(i, "queueNumber", "conflicts with queue %d, got %d", p.Queue, p.QueueNumber)
		} else if q := p.QueueID(); !simulator.QueueNumber(q).Valid() {
			add(i, "queue", "must be 1, 2 or 3, got %d", q)
		}
		if p.ID != "" {
			if first, dup := seen[p.ID]; dup {
				add(i, "id", "duplicate of processes[%d]", first)
			} else {
				seen[p.ID] = i
			}
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// Config returns the simulator configuration for this workload.
func (w *Workload) Config() simulator.SimConfig {
	cfg := simulator.DefaultConfig()
	if w.TimeQuantum > 0 {
		cfg.TimeQuantum = w.TimeQuantum
	}
	return cfg
}

// Processes converts the specs into simulator processes. Specs without an id
// get a random UUID. Call Validate first.
func (w *Workload) Processes() []simulator.Process {
	procs := make([]simulator.Process, len(w.Processes))
	for i, s := range w.Processes {
		id := s.ID
		if id == "" {
			id = uuid.NewString()
		}
		procs[i] = simulator.Process{
			ID:            id,
			Name:          s.Name,
			ArrivalTime:   s.ArrivalTime,
			BurstTime:     s.BurstTime,
			RemainingTime: s.BurstTime,
			Priority:      s.Priority,
			Queue:         simulator.QueueNumber(s.QueueID()),
			Status:        simulator.StatusWaiting,
		}
	}
	return procs
}
