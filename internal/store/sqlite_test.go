package store

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/miretskiy/mlqsim/simulator"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
	st, err := Open(":memory:", logger)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { st.Close() })
	return st
}

func finishedRun(t *testing.T) *Run {
	t.Helper()
	e, err := simulator.NewEngine(simulator.DefaultConfig())
	require.NoError(t, err)
	final, err := e.Run(e.Initialize([]simulator.Process{
		{ID: "A", Name: "A", BurstTime: 5, Queue: simulator.Queue1},
		{ID: "B", Name: "B", ArrivalTime: 1, BurstTime: 2, Priority: 1, Queue: simulator.Queue2},
		{ID: "C", Name: "C", ArrivalTime: 2, BurstTime: 3, Queue: simulator.Queue3},
	}), 0)
	require.NoError(t, err)
	r := NewRun(final, e.Config(), e.QueueMetrics(final))
	r.Name = "mixed"
	return r
}

func TestSaveAndGetRun(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	want := finishedRun(t)
	require.NoError(t, st.SaveRun(ctx, want))
	require.NotEmpty(t, want.ID)

	got, err := st.GetRun(ctx, want.ID)
	require.NoError(t, err)
	require.True(t, want.CreatedAt.Equal(got.CreatedAt))
	require.Equal(t, want.Name, got.Name)
	require.Equal(t, 3, got.TimeQuantum)
	require.Equal(t, want.Steps, got.Steps)
	require.Equal(t, want.Processes, got.Processes)
	require.Equal(t, want.Gantt, got.Gantt)
	require.Equal(t, want.Metrics, got.Metrics)
	require.Equal(t, want.Summary, got.Summary)
	require.Equal(t, 3, got.Summary.Completed)
}

func TestGetRun_NotFound(t *testing.T) {
	st := testStore(t)
	_, err := st.GetRun(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSaveRun_DuplicateID(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	r := finishedRun(t)
	r.ID = "fixed"
	require.NoError(t, st.SaveRun(ctx, r))
	require.Error(t, st.SaveRun(ctx, r))
}

func TestListRuns_NewestFirst(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	runs, err := st.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Empty(t, runs)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		r := finishedRun(t)
		r.ID = id
		r.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, st.SaveRun(ctx, r))
	}

	runs, err = st.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	require.Equal(t, "new", runs[0].ID)
	require.Equal(t, "mid", runs[1].ID)
}

func TestListRuns_SubSecondOrder(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	// .1 and .12 seconds: a trimmed fractional part would sort these backwards.
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, tc := range []struct {
		id     string
		offset time.Duration
	}{
		{"older", 100 * time.Millisecond},
		{"newer", 120 * time.Millisecond},
		{"whole", time.Second},
	} {
		r := finishedRun(t)
		r.ID = tc.id
		r.CreatedAt = base.Add(tc.offset)
		require.NoError(t, st.SaveRun(ctx, r))
	}

	runs, err := st.ListRuns(ctx, 0)
	require.NoError(t, err)
	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	require.Equal(t, []string{"whole", "newer", "older"}, ids)
	require.True(t, runs[1].CreatedAt.Equal(base.Add(120*time.Millisecond)))
}

func TestDeleteRun(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	r := finishedRun(t)
	require.NoError(t, st.SaveRun(ctx, r))

	require.NoError(t, st.DeleteRun(ctx, r.ID))
	require.ErrorIs(t, st.DeleteRun(ctx, r.ID), ErrNotFound)
	_, err := st.GetRun(ctx, r.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestOpen_FileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	ctx := context.Background()

	st, err := Open(path, logger)
	require.NoError(t, err)
	require.NoError(t, st.Migrate(ctx))
	r := finishedRun(t)
	require.NoError(t, st.SaveRun(ctx, r))
	require.NoError(t, st.Close())

	// Migrate is idempotent and data survives reopening.
	st, err = Open(path, logger)
	require.NoError(t, err)
	defer st.Close()
	require.NoError(t, st.Migrate(ctx))
	got, err := st.GetRun(ctx, r.ID)
	require.NoError(t, err)
	require.Equal(t, r.Gantt, got.Gantt)
}
