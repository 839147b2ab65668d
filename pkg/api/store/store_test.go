package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/qa-sync/qasync/pkg/config"
	"github.com/qa-sync/qasync/pkg/engine"
	"github.com/qa-sync/qasync/pkg/report"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) Store {
	t.Helper()

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	s := NewStore(log, &config.APIDatabaseConfig{
		Driver: "sqlite",
		SQLite: config.SQLiteDatabaseConfig{
			Path: filepath.Join(t.TempDir(), "test.db"),
		},
	})

	require.NoError(t, s.Start(context.Background()))
	t.Cleanup(func() {
		require.NoError(t, s.Stop())
	})

	return s
}

func TestStore_UpsertAndGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run := &Run{
		RunID:       "1700000000_abcd1234",
		ProjectName: "demo",
		SiteURL:     "https://example.com",
		RunAt:       time.Now().UTC().Truncate(time.Second),
		TotalTests:  3,
		Passed:      2,
		Failed:      1,
	}

	require.NoError(t, s.UpsertRun(ctx, run))

	got, err := s.GetRun(ctx, "1700000000_abcd1234")
	require.NoError(t, err)
	assert.Equal(t, "demo", got.ProjectName)
	assert.Equal(t, 3, got.TotalTests)

	// Upserting the same run updates in place.
	run.Passed = 3
	run.Failed = 0
	require.NoError(t, s.UpsertRun(ctx, run))

	got, err = s.GetRun(ctx, "1700000000_abcd1234")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Passed)
	assert.Zero(t, got.Failed)

	// One logical run must stay one row.
	runs, err := s.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestStore_GetMissingRun(t *testing.T) {
	s := testStore(t)

	_, err := s.GetRun(context.Background(), "missing")
	require.Error(t, err)
}

func TestStore_ListRunsFilters(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	for i, project := range []string{"alpha", "alpha", "beta"} {
		require.NoError(t, s.UpsertRun(ctx, &Run{
			RunID:       fmt.Sprintf("run_%d", i),
			ProjectName: project,
			RunAt:       time.Now().Add(time.Duration(i) * time.Minute),
		}))
	}

	all, err := s.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	// Newest first.
	assert.True(t, all[0].RunAt.After(all[1].RunAt))

	alpha, err := s.ListRuns(ctx, "alpha", 0)
	require.NoError(t, err)
	assert.Len(t, alpha, 2)

	limited, err := s.ListRuns(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestStore_SyncFromDir(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	resultsDir := t.TempDir()

	rep := engine.BuildReport("demo", "https://example.com", time.Now(), 1234, []engine.TestResult{
		{TestID: "TC001", Status: engine.StatusPassed, StepsCompleted: 2, TotalSteps: 2},
	})

	runDir := filepath.Join(resultsDir, "1700000000_deadbeef")
	require.NoError(t, os.MkdirAll(runDir, 0o755))

	data, err := report.RenderJSON(rep)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(runDir, report.JSONFileName), data, 0o644))

	// A directory without a report and a malformed report are both skipped.
	require.NoError(t, os.MkdirAll(filepath.Join(resultsDir, "incomplete"), 0o755))
	brokenDir := filepath.Join(resultsDir, "broken")
	require.NoError(t, os.MkdirAll(brokenDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(brokenDir, report.JSONFileName), []byte("{"), 0o644))

	synced, err := s.SyncFromDir(ctx, resultsDir)
	require.NoError(t, err)
	assert.Equal(t, 1, synced)

	run, err := s.GetRun(ctx, "1700000000_deadbeef")
	require.NoError(t, err)
	assert.Equal(t, "demo", run.ProjectName)
	assert.Equal(t, 1, run.TotalTests)
	assert.Equal(t, 1, run.Passed)
	assert.Equal(t, int64(1234), run.DurationMs)
}

func TestStore_SyncFromMissingDir(t *testing.T) {
	s := testStore(t)

	synced, err := s.SyncFromDir(context.Background(), filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Zero(t, synced)
}
