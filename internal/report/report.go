// Package report renders simulation results as plain text for terminals.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/olekukonko/tablewriter"

	"github.com/miretskiy/mlqsim/simulator"
)

const cellWidth = 8

// WriteTitle prints a boxed title line.
func WriteTitle(w io.Writer, title string) {
	_, _ = fmt.Fprintln(w, strings.Repeat("-", len(title)*2))
	_, _ = fmt.Fprintln(w, strings.Repeat(" ", len(title)/2), title)
	_, _ = fmt.Fprintln(w, strings.Repeat("-", len(title)*2))
}

type segment struct {
	label      string
	start, end int
}

// WriteGantt draws the chart as one row of fixed-width cells with the
// boundary times underneath. Gaps between events are drawn as idle cells.
func WriteGantt(w io.Writer, events []simulator.GanttEvent) {
	_, _ = fmt.Fprintln(w, "Gantt chart")
	if len(events) == 0 {
		_, _ = fmt.Fprintln(w, "(no events)")
		return
	}

	var segs []segment
	prevEnd := 0
	for _, ev := range events {
		if ev.StartTime > prevEnd {
			segs = append(segs, segment{"idle", prevEnd, ev.StartTime})
		}
		segs = append(segs, segment{ev.ProcessName, ev.StartTime, ev.EndTime})
		prevEnd = ev.EndTime
	}

	var bar, times strings.Builder
	bar.WriteString("|")
	for _, s := range segs {
		bar.WriteString(center(s.label, cellWidth))
		bar.WriteString("|")
		times.WriteString(fmt.Sprintf("%-*d", cellWidth+1, s.start))
	}
	times.WriteString(strconv.Itoa(segs[len(segs)-1].end))

	_, _ = fmt.Fprintln(w, bar.String())
	_, _ = fmt.Fprintln(w, times.String())
}

// center pads s to width display columns, truncating whole runes when it is
// too wide.
func center(s string, width int) string {
	s = runewidth.Truncate(s, width, "")
	w := runewidth.StringWidth(s)
	left := (width - w) / 2
	return strings.Repeat(" ", left) + s + strings.Repeat(" ", width-w-left)
}

// WriteProcesses prints one row per process with an averages footer.
func WriteProcesses(w io.Writer, processes []simulator.Process) {
	rows := make([][]string, 0, len(processes))
	for _, p := range processes {
		rows = append(rows, []string{
			p.Name,
			strconv.Itoa(int(p.Queue)),
			strconv.Itoa(p.ArrivalTime),
			strconv.Itoa(p.BurstTime),
			strconv.Itoa(p.Priority),
			p.Status.String(),
			optional(p.StartTime),
			optional(p.CompletionTime),
			optional(p.TurnaroundTime),
			optional(p.WaitingTime),
		})
	}
	sum := simulator.Summarize(simulator.State{Processes: processes})

	_, _ = fmt.Fprintln(w, "Processes")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Queue", "Arrival", "Burst", "Priority", "Status", "Start", "Completion", "Turnaround", "Waiting"})
	table.AppendBulk(rows)
	table.SetFooter([]string{"", "", "", "", "", "", "", "",
		fmt.Sprintf("Average\n%.2f", sum.AverageTurnaroundTime),
		fmt.Sprintf("Average\n%.2f", sum.AverageWaitingTime)})
	table.Render()
}

func optional(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}

// WriteQueueMetrics prints the per-queue averages.
func WriteQueueMetrics(w io.Writer, metrics []simulator.QueueMetrics) {
	rows := make([][]string, 0, len(metrics))
	for _, m := range metrics {
		rows = append(rows, []string{
			strconv.Itoa(int(m.Queue)),
			m.Algorithm,
			strconv.Itoa(m.CompletedCount),
			fmt.Sprintf("%.2f", m.AverageTurnaroundTime),
			fmt.Sprintf("%.2f", m.AverageWaitingTime),
		})
	}

	_, _ = fmt.Fprintln(w, "Queue metrics")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Queue", "Algorithm", "Completed", "Avg Turnaround", "Avg Waiting"})
	table.AppendBulk(rows)
	table.Render()
}

// WriteSummary prints the whole-run analytics.
func WriteSummary(w io.Writer, s simulator.Summary) {
	_, _ = fmt.Fprintln(w, "Summary")
	_, _ = fmt.Fprintf(w, "  completed:        %d/%d\n", s.Completed, s.Total)
	_, _ = fmt.Fprintf(w, "  total time:       %d (busy %d, idle %d)\n", s.TotalTime, s.BusyTime, s.IdleTime)
	_, _ = fmt.Fprintf(w, "  utilization:      %.2f%%\n", s.Utilization*100)
	_, _ = fmt.Fprintf(w, "  throughput:       %.3f/t\n", s.Throughput)
	_, _ = fmt.Fprintf(w, "  avg turnaround:   %.2f\n", s.AverageTurnaroundTime)
	_, _ = fmt.Fprintf(w, "  avg waiting:      %.2f\n", s.AverageWaitingTime)
	_, _ = fmt.Fprintf(w, "  avg response:     %.2f\n", s.AverageResponseTime)
}

// WriteAll prints every section for a finished state.
func WriteAll(w io.Writer, title string, state simulator.State, metrics []simulator.QueueMetrics) {
	WriteTitle(w, title)
	WriteGantt(w, state.Gantt)
	_, _ = fmt.Fprintln(w)
	WriteProcesses(w, state.Processes)
	_, _ = fmt.Fprintln(w)
	WriteQueueMetrics(w, metrics)
	_, _ = fmt.Fprintln(w)
	WriteSummary(w, simulator.Summarize(state))
}

// RunRow is one line of a stored-run listing.
type RunRow struct {
	ID          string
	Name        string
	CreatedAt   time.Time
	TimeQuantum int
	Processes   int
	TotalTime   int
	AvgWaiting  float64
}

// WriteRuns prints a stored-run listing.
func WriteRuns(w io.Writer, runs []RunRow) {
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(w, "No runs found.")
		return
	}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			r.Name,
			r.CreatedAt.Format(time.RFC3339),
			strconv.Itoa(r.TimeQuantum),
			strconv.Itoa(r.Processes),
			strconv.Itoa(r.TotalTime),
			fmt.Sprintf("%.2f", r.AvgWaiting),
		})
	}
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Name", "Created", "TQ", "Processes", "Total Time", "Avg Waiting"})
	table.AppendBulk(rows)
	table.Render()
}
