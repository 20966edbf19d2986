package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/miretskiy/mlqsim/internal/logging"
	"github.com/miretskiy/mlqsim/internal/store"
)

// app carries the persistent flags shared by every subcommand.
type app struct {
	logLevel  string
	logFormat string
	verbose   bool
	dbPath    string

	logger *slog.Logger
}

func defaultDBPath() string {
	return os.Getenv("MLQ_DB_PATH")
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "sim_runner",
		Short: "Multilevel-queue CPU scheduler simulator",
		Long: "sim_runner simulates three priority-ordered ready queues (Round Robin, " +
			"non-preemptive Priority, FCFS) sharing one CPU and reports per-queue metrics.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.verbose {
				a.logLevel = "debug"
			}
			a.logger = logging.NewLoggerWithWriter(logging.ParseLevel(a.logLevel), a.logFormat, cmd.ErrOrStderr())
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "text", "Log format (text, json)")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log every scheduling decision")
	root.PersistentFlags().StringVar(&a.dbPath, "db", defaultDBPath(), "SQLite database for stored runs (or MLQ_DB_PATH env)")

	root.AddCommand(
		newRunCmd(a),
		newRunsCmd(a),
		newGenCmd(a),
	)
	return root
}

// openStore opens and migrates the run database.
func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	if a.dbPath == "" {
		return nil, fmt.Errorf("no database configured (use --db or MLQ_DB_PATH)")
	}
	st, err := store.Open(a.dbPath, a.logger)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("migrate %s: %w", a.dbPath, err)
	}
	return st, nil
}
