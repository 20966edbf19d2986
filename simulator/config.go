package simulator

import (
	"encoding/json"
	"fmt"
)

// DefaultTimeQuantum is the Round Robin slice used by Queue 1.
const DefaultTimeQuantum = 3

// Algorithm represents the scheduling discipline that governs a queue
type Algorithm int

const (
	AlgorithmRoundRobin Algorithm = iota // Queue 1: preemptive, fixed quantum
	AlgorithmPriority                    // Queue 2: lowest priority value first, non-preemptive
	AlgorithmFCFS                        // Queue 3: earliest arrival first, non-preemptive
)

// String returns the string representation of Algorithm
func (a Algorithm) String() string {
	switch a {
	case AlgorithmRoundRobin:
		return "round_robin"
	case AlgorithmPriority:
		return "priority"
	case AlgorithmFCFS:
		return "fcfs"
	default:
		return "unknown"
	}
}

// ParseAlgorithm parses a string into Algorithm
func ParseAlgorithm(s string) (Algorithm, error) {
	switch s {
	case "round_robin":
		return AlgorithmRoundRobin, nil
	case "priority":
		return AlgorithmPriority, nil
	case "fcfs":
		return AlgorithmFCFS, nil
	default:
		return AlgorithmFCFS, fmt.Errorf("invalid algorithm: %s (must be 'round_robin', 'priority' or 'fcfs')", s)
	}
}

// MarshalJSON implements json.Marshaler for Algorithm
func (a Algorithm) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON implements json.Unmarshaler for Algorithm
func (a *Algorithm) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseAlgorithm(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// AlgorithmFor returns the discipline bound to a queue. The binding is fixed.
func AlgorithmFor(q QueueNumber) Algorithm {
	switch q {
	case Queue1:
		return AlgorithmRoundRobin
	case Queue2:
		return AlgorithmPriority
	default:
		return AlgorithmFCFS
	}
}

// SimConfig holds the tunable simulation parameters
type SimConfig struct {
	TimeQuantum int `json:"timeQuantum" yaml:"timeQuantum"` // Round Robin slice for Queue 1 (default 3)
}

// DefaultConfig returns the classic three-queue setup
func DefaultConfig() SimConfig {
	return SimConfig{
		TimeQuantum: DefaultTimeQuantum,
	}
}

// Validate checks if configuration values are reasonable
func (c *SimConfig) Validate() error {
	if c.TimeQuantum < 1 {
		return ErrInvalidConfig("timeQuantum must be >= 1")
	}
	return nil
}

// Label returns the human readable algorithm label reported in queue metrics.
func (c SimConfig) Label(q QueueNumber) string {
	switch AlgorithmFor(q) {
	case AlgorithmRoundRobin:
		return fmt.Sprintf("Round Robin (TQ=%d)", c.TimeQuantum)
	case AlgorithmPriority:
		return "Priority Scheduling"
	default:
		return "First-Come-First-Serve"
	}
}
