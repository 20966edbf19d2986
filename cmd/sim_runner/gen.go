package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/miretskiy/mlqsim/internal/workload"
)

func newGenCmd(a *app) *cobra.Command {
	cfg := workload.DefaultGenerateConfig()
	var burstDist, arrivalDist, output string

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a random workload file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if cfg.Burst, err = workload.ParseDistribution(burstDist); err != nil {
				return err
			}
			if cfg.Arrival, err = workload.ParseDistribution(arrivalDist); err != nil {
				return err
			}

			w, err := workload.Generate(cfg)
			if err != nil {
				return fmt.Errorf("generate workload: %w", err)
			}
			data, err := yaml.Marshal(w)
			if err != nil {
				return fmt.Errorf("marshal workload: %w", err)
			}
			a.logger.Debug("workload generated", "name", w.Name, "processes", len(w.Processes))
			return writeOutput(cmd.OutOrStdout(), output, data)
		},
	}

	f := cmd.Flags()
	f.IntVarP(&cfg.Count, "count", "n", cfg.Count, "Number of processes")
	f.Int64Var(&cfg.Seed, "seed", 0, "Random seed (0 = random)")
	f.IntVar(&cfg.MaxGap, "max-gap", cfg.MaxGap, "Largest gap between consecutive arrivals")
	f.IntVar(&cfg.MinBurst, "min-burst", cfg.MinBurst, "Shortest burst time")
	f.IntVar(&cfg.MaxBurst, "max-burst", cfg.MaxBurst, "Longest burst time")
	f.IntVar(&cfg.MaxPriority, "max-priority", cfg.MaxPriority, "Largest priority value")
	f.StringVar(&burstDist, "burst-dist", cfg.Burst.String(), "Burst distribution (uniform, exponential, geometric, fixed)")
	f.StringVar(&arrivalDist, "arrival-dist", cfg.Arrival.String(), "Arrival gap distribution (uniform, exponential, geometric, fixed)")
	f.StringVar(&output, "output", "", "Write the workload to this file instead of stdout")
	return cmd
}
