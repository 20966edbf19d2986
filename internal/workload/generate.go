package workload

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
)

// Distribution selects how random workload values are drawn from a range
type Distribution int

const (
	DistUniform Distribution = iota
	DistExponential
	DistGeometric
	DistFixed
)

// String returns the string representation of Distribution
func (d Distribution) String() string {
	switch d {
	case DistUniform:
		return "uniform"
	case DistExponential:
		return "exponential"
	case DistGeometric:
		return "geometric"
	case DistFixed:
		return "fixed"
	default:
		return fmt.Sprintf("unknown(%d)", int(d))
	}
}

// ParseDistribution parses a string into a Distribution
func ParseDistribution(s string) (Distribution, error) {
	switch s {
	case "uniform":
		return DistUniform, nil
	case "exponential":
		return DistExponential, nil
	case "geometric":
		return DistGeometric, nil
	case "fixed":
		return DistFixed, nil
	default:
		return DistUniform, fmt.Errorf("invalid distribution: %s (must be 'uniform', 'exponential', 'geometric', or 'fixed')", s)
	}
}

func (d Distribution) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Distribution) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDistribution(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Sample draws a value in [lo, hi]. Exponential and geometric draws are skewed
// toward lo; fixed always returns the midpoint.
func (d Distribution) Sample(rng *rand.Rand, lo, hi int) int {
	if lo >= hi {
		return lo
	}
	span := hi - lo
	switch d {
	case DistExponential:
		const lambda = 0.5
		u := rng.Float64()
		if u == 0 {
			u = 1e-10
		}
		// 95% of draws fall below 6/lambda.
		normalized := math.Min((-math.Log(u)/lambda)/(6.0/lambda), 1.0)
		return lo + int(normalized*float64(span))
	case DistGeometric:
		const p = 0.3
		u := math.Min(rng.Float64(), 0.999999)
		failures := int(math.Log(1-u) / math.Log(1-p))
		return lo + min(max(failures, 0), span)
	case DistFixed:
		return lo + span/2
	default:
		return lo + rng.Intn(span+1)
	}
}

// GenerateConfig describes a random workload.
type GenerateConfig struct {
	Count       int          `json:"count"`
	Seed        int64        `json:"seed"`   // 0 = random seed
	MaxGap      int          `json:"maxGap"` // largest gap between consecutive arrivals
	MinBurst    int          `json:"minBurst"`
	MaxBurst    int          `json:"maxBurst"`
	MaxPriority int          `json:"maxPriority"`
	Burst       Distribution `json:"burst"`
	Arrival     Distribution `json:"arrival"`
}

// DefaultGenerateConfig returns a small mixed workload shape
func DefaultGenerateConfig() GenerateConfig {
	return GenerateConfig{
		Count:       8,
		MaxGap:      3,
		MinBurst:    1,
		MaxBurst:    10,
		MaxPriority: 5,
		Burst:       DistExponential,
		Arrival:     DistUniform,
	}
}

// Validate checks the generator configuration
func (c *GenerateConfig) Validate() error {
	if c.Count < 0 {
		return fmt.Errorf("count must be >= 0, got %d", c.Count)
	}
	if c.MinBurst < 1 {
		return fmt.Errorf("minBurst must be >= 1, got %d", c.MinBurst)
	}
	if c.MaxBurst < c.MinBurst {
		return fmt.Errorf("maxBurst (%d) must be >= minBurst (%d)", c.MaxBurst, c.MinBurst)
	}
	if c.MaxGap < 0 {
		return fmt.Errorf("maxGap must be >= 0, got %d", c.MaxGap)
	}
	if c.MaxPriority < 0 {
		return fmt.Errorf("maxPriority must be >= 0, got %d", c.MaxPriority)
	}
	return nil
}

// Generate builds a valid random workload. The same non-zero seed always
// produces the same workload.
func Generate(cfg GenerateConfig) (*Workload, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))

	w := &Workload{
		Name:      fmt.Sprintf("generated-%d", seed),
		Processes: make([]Spec, 0, cfg.Count),
	}
	arrival := 0
	for i := 0; i < cfg.Count; i++ {
		if i > 0 {
			arrival += cfg.Arrival.Sample(rng, 0, cfg.MaxGap)
		}
		w.Processes = append(w.Processes, Spec{
			ID:          fmt.Sprintf("p%d", i+1),
			Name:        fmt.Sprintf("P%d", i+1),
			ArrivalTime: arrival,
			BurstTime:   cfg.Burst.Sample(rng, cfg.MinBurst, cfg.MaxBurst),
			Priority:    rng.Intn(cfg.MaxPriority + 1),
			Queue:       1 + rng.Intn(3),
		})
	}
	return w, nil
}
