package history_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/drainage/internal/adapters/history"
	"go.trai.ch/drainage/internal/core/domain"
	"go.trai.ch/zerr"
)

func openStore(t *testing.T) *history.SQLiteStore {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "state", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func report(id string, started time.Time, tasks ...domain.TaskReport) *domain.Report {
	return &domain.Report{
		ExecutionID: id,
		Started:     started,
		Finished:    started.Add(time.Minute),
		Tasks:       tasks,
	}
}

func task(id string, state domain.State, ran bool, cause error) domain.TaskReport {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return domain.TaskReport{
		ID:       domain.NewTaskID(id),
		State:    state,
		Cause:    cause,
		Ran:      ran,
		Started:  start,
		Finished: start.Add(2 * time.Second),
	}
}

func TestSQLiteStore_RecordAndList(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := report("run-1", base,
		task("dem", domain.StateSucceeded, true, nil),
		task("fill", domain.StateSucceeded, true, nil),
	)
	second := report("run-2", base.Add(time.Hour),
		task("dem", domain.StateFailed, true, zerr.Wrap(domain.ErrAlgorithmFailed, "gdal:merge")),
		task("fill", domain.StateFailed, false, domain.ErrUpstreamFailure),
		task("flow", domain.StateCanceled, false, nil),
	)
	require.NoError(t, store.Record(ctx, "/data/catchment", first))
	require.NoError(t, store.Record(ctx, "/data/catchment", second))

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	latest := runs[0]
	assert.Equal(t, "run-2", latest.ExecutionID)
	assert.Equal(t, "/data/catchment", latest.Pipeline)
	assert.Equal(t, "failed", latest.Outcome)
	assert.Equal(t, 3, latest.Tasks)
	assert.ElementsMatch(t, []string{"dem", "fill"}, latest.Failed)
	assert.Equal(t, []string{"flow"}, latest.Canceled)
	assert.True(t, latest.Started.Equal(base.Add(time.Hour)))
	assert.True(t, latest.Finished.Equal(base.Add(time.Hour+time.Minute)))

	assert.Equal(t, "run-1", runs[1].ExecutionID)
	assert.Equal(t, "succeeded", runs[1].Outcome)
	assert.Empty(t, runs[1].Failed)
	assert.Empty(t, runs[1].Canceled)
}

func TestSQLiteStore_ListLimit(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		r := report(id, base.Add(time.Duration(i)*time.Hour), task("dem", domain.StateSucceeded, true, nil))
		require.NoError(t, store.Record(ctx, "p", r))
	}

	runs, err := store.List(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ExecutionID)
	assert.Equal(t, "b", runs[1].ExecutionID)
}

func TestSQLiteStore_RecordReplacesExecution(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Record(ctx, "p", report("run", base,
		task("dem", domain.StateCanceled, false, nil),
		task("fill", domain.StateCanceled, false, nil),
	)))
	require.NoError(t, store.Record(ctx, "p", report("run", base,
		task("dem", domain.StateSucceeded, true, nil),
	)))

	runs, err := store.List(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 1, runs[0].Tasks)
	assert.Equal(t, "succeeded", runs[0].Outcome)
	assert.Empty(t, runs[0].Canceled)
}

func TestSQLiteStore_EmptyReport(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, "p", report("empty", time.Now())))

	runs, err := store.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 0, runs[0].Tasks)
	assert.Equal(t, "succeeded", runs[0].Outcome)
}

func TestSQLiteStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := history.Open(path)
	require.NoError(t, err)
	require.NoError(t, store.Record(ctx, "p", report("kept", time.Now(), task("dem", domain.StateSucceeded, true, nil))))
	require.NoError(t, store.Close())

	reopened, err := history.Open(path)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	runs, err := reopened.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "kept", runs[0].ExecutionID)
}

func TestOpen_Errors(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("not a directory"), 0o600))

	_, err := history.Open(filepath.Join(blocker, "history.db"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrHistoryOpenFailed)
}

func TestSQLiteStore_ClosedStore(t *testing.T) {
	store, err := history.Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	require.NoError(t, store.Close())

	err = store.Record(context.Background(), "p", report("late", time.Now()))
	assert.ErrorIs(t, err, domain.ErrHistoryWriteFailed)

	_, err = store.List(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrHistoryReadFailed)
}
