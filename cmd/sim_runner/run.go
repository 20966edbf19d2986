package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/miretskiy/mlqsim/internal/logging"
	"github.com/miretskiy/mlqsim/internal/report"
	"github.com/miretskiy/mlqsim/internal/store"
	"github.com/miretskiy/mlqsim/internal/workload"
	"github.com/miretskiy/mlqsim/simulator"
)

type runResult struct {
	Name         string                   `json:"name"`
	RunID        string                   `json:"runId,omitempty"`
	Config       simulator.SimConfig      `json:"config"`
	RealTime     float64                  `json:"realTime"`
	State        simulator.State          `json:"state"`
	QueueMetrics []simulator.QueueMetrics `json:"queueMetrics"`
	Summary      simulator.Summary        `json:"summary"`
}

type runOptions struct {
	file     string
	quantum  int
	maxSteps int
	format   string
	output   string
	name     string
}

func newRunCmd(a *app) *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a workload to completion and report the results",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.file, "file", "f", "", "Workload file (YAML or JSON)")
	f.IntVar(&opts.quantum, "quantum", 0, "Round Robin time quantum (overrides the workload file)")
	f.IntVar(&opts.maxSteps, "max-steps", 100000, "Abort after this many steps (0 = unbounded)")
	f.StringVar(&opts.format, "format", "table", "Output format (table, json)")
	f.StringVar(&opts.output, "output", "", "Write results to this file instead of stdout")
	f.StringVar(&opts.name, "name", "", "Name to store the run under (defaults to the workload name)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func (a *app) run(cmd *cobra.Command, opts runOptions) error {
	if opts.format != "table" && opts.format != "json" {
		return fmt.Errorf("unknown format %q (must be table or json)", opts.format)
	}

	w, err := workload.Load(opts.file)
	if err != nil {
		return err
	}
	cfg := w.Config()
	if opts.quantum != 0 {
		cfg.TimeQuantum = opts.quantum
	}
	engine, err := simulator.NewEngine(cfg)
	if err != nil {
		return err
	}
	engine.LogEvent = logging.SimLogger(a.logger)

	name := opts.name
	if name == "" {
		name = w.Name
	}
	a.logger.Info("starting simulation", "workload", name, "processes", len(w.Processes), "quantum", cfg.TimeQuantum)

	start := time.Now()
	final, err := engine.Run(engine.Initialize(w.Processes()), opts.maxSteps)
	if err != nil {
		return fmt.Errorf("simulate %s: %w", name, err)
	}
	elapsed := time.Since(start)
	a.logger.Info("simulation completed", "steps", final.CurrentStep, "time", final.CurrentTime, "elapsed", elapsed)

	metrics := engine.QueueMetrics(final)
	result := runResult{
		Name:         name,
		Config:       cfg,
		RealTime:     elapsed.Seconds(),
		State:        final,
		QueueMetrics: metrics,
		Summary:      simulator.Summarize(final),
	}

	if a.dbPath != "" {
		st, err := a.openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close()
		r := store.NewRun(final, cfg, metrics)
		r.Name = name
		if err := st.SaveRun(cmd.Context(), r); err != nil {
			return fmt.Errorf("save run: %w", err)
		}
		result.RunID = r.ID
		a.logger.Info("run stored", "id", r.ID, "db", a.dbPath)
	}

	var buf bytes.Buffer
	switch opts.format {
	case "json":
		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal results: %w", err)
		}
		buf.Write(out)
		buf.WriteByte('\n')
	default:
		report.WriteAll(&buf, name, final, metrics)
	}
	return writeOutput(cmd.OutOrStdout(), opts.output, buf.Bytes())
}

func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
