package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/miretskiy/mlqsim/internal/report"
	"github.com/miretskiy/mlqsim/simulator"
)

func newRunsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored runs",
	}
	cmd.AddCommand(newRunsListCmd(a), newRunsShowCmd(a), newRunsDeleteCmd(a))
	return cmd
}

func newRunsListCmd(a *app) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			runs, err := st.ListRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			rows := make([]report.RunRow, 0, len(runs))
			for _, r := range runs {
				rows = append(rows, report.RunRow{
					ID:          r.ID,
					Name:        r.Name,
					CreatedAt:   r.CreatedAt,
					TimeQuantum: r.TimeQuantum,
					Processes:   len(r.Processes),
					TotalTime:   r.Summary.TotalTime,
					AvgWaiting:  r.Summary.AverageWaitingTime,
				})
			}
			report.WriteRuns(cmd.OutOrStdout(), rows)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to list")
	return cmd
}

func newRunsShowCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			r, err := st.GetRun(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("run %s: %w", args[0], err)
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				data, err := json.MarshalIndent(r, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(data))
				return err
			}
			state := simulator.State{
				CurrentTime: r.Summary.TotalTime,
				Processes:   r.Processes,
				Gantt:       r.Gantt,
				IsCompleted: true,
				CurrentStep: r.Steps,
			}
			report.WriteAll(out, fmt.Sprintf("%s (%s)", r.Name, r.ID), state, r.Metrics)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "table", "Output format (table, json)")
	return cmd
}

func newRunsDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()

			if err := st.DeleteRun(cmd.Context(), args[0]); err != nil {
				return fmt.Errorf("run %s: %w", args[0], err)
			}
			a.logger.Info("run deleted", "id", args[0])
			return nil
		},
	}
}
