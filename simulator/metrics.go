package simulator

// QueueMetrics summarises the completed processes of one queue
type QueueMetrics struct {
	Queue                 QueueNumber `json:"queue"`
	Algorithm             string      `json:"algorithm"`
	AverageTurnaroundTime float64     `json:"averageTurnaroundTime"`
	AverageWaitingTime    float64     `json:"averageWaitingTime"`
	CompletedCount        int         `json:"completedCount"`
}

// CalculateQueueMetrics returns one entry per queue, in queue order. Only
// processes with both turnaround and waiting time recorded are averaged, so it
// is safe to call mid-simulation; a queue with nothing finished reports zeros.
func CalculateQueueMetrics(processes []Process, config SimConfig) []QueueMetrics {
	metrics := make([]QueueMetrics, 0, len(Queues))
	for _, q := range Queues {
		var turnaroundSum, waitingSum, count int
		for _, p := range processes {
			if p.Queue != q || p.TurnaroundTime == nil || p.WaitingTime == nil {
				continue
			}
			turnaroundSum += *p.TurnaroundTime
			waitingSum += *p.WaitingTime
			count++
		}

		m := QueueMetrics{
			Queue:          q,
			Algorithm:      config.Label(q),
			CompletedCount: count,
		}
		if count > 0 {
			m.AverageTurnaroundTime = float64(turnaroundSum) / float64(count)
			m.AverageWaitingTime = float64(waitingSum) / float64(count)
		}
		metrics = append(metrics, m)
	}
	return metrics
}

// QueueMetrics returns the per-queue metrics for a state's processes.
func (e *Engine) QueueMetrics(state State) []QueueMetrics {
	return CalculateQueueMetrics(state.Processes, e.config)
}

// Summary is a whole-run view over a state: CPU usage from the Gantt chart
// and averages over every completed process regardless of queue.
type Summary struct {
	TotalTime   int     `json:"totalTime"`   // span from t=0 to the end of the last event
	BusyTime    int     `json:"busyTime"`    // sum of Gantt event durations
	IdleTime    int     `json:"idleTime"`    // TotalTime - BusyTime
	Utilization float64 `json:"utilization"` // BusyTime / TotalTime (0 when nothing ran)
	Throughput  float64 `json:"throughput"`  // completed processes per time unit

	Completed int `json:"completed"`
	Total     int `json:"total"`

	AverageTurnaroundTime float64 `json:"averageTurnaroundTime"`
	AverageWaitingTime    float64 `json:"averageWaitingTime"`
	AverageResponseTime   float64 `json:"averageResponseTime"` // first dispatch - arrival, over dispatched processes
}

// Summarize computes the run summary for a state. It never modifies the state.
func Summarize(state State) Summary {
	s := Summary{Total: len(state.Processes)}

	for _, ev := range state.Gantt {
		s.BusyTime += ev.Duration()
		if ev.EndTime > s.TotalTime {
			s.TotalTime = ev.EndTime
		}
	}
	s.IdleTime = s.TotalTime - s.BusyTime

	var turnaroundSum, waitingSum, responseSum, started int
	for _, p := range state.Processes {
		if p.StartTime != nil {
			responseSum += *p.StartTime - p.ArrivalTime
			started++
		}
		if p.TurnaroundTime == nil || p.WaitingTime == nil {
			continue
		}
		turnaroundSum += *p.TurnaroundTime
		waitingSum += *p.WaitingTime
		s.Completed++
	}

	if s.TotalTime > 0 {
		s.Utilization = float64(s.BusyTime) / float64(s.TotalTime)
		s.Throughput = float64(s.Completed) / float64(s.TotalTime)
	}
	if s.Completed > 0 {
		s.AverageTurnaroundTime = float64(turnaroundSum) / float64(s.Completed)
		s.AverageWaitingTime = float64(waitingSum) / float64(s.Completed)
	}
	if started > 0 {
		s.AverageResponseTime = float64(responseSum) / float64(started)
	}
	return s
}
