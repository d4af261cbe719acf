package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pyfacts/internal/analyzer"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)

	a := analyzer.New([]string{"pd"})
	res := a.Analyze(context.Background(), "svc.py", "def f(x):\n    if x:\n        pass\n")

	runID := uuid.NewString()
	snap := SnapshotOf(runID, time.Now(), res)
	require.NoError(t, store.Record([]Snapshot{snap}))

	got, err := store.Recent("svc.py", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, runID, got[0].RunID)
	assert.Equal(t, "svc.py", got[0].Path)
	assert.False(t, got[0].Degraded)
	assert.Equal(t, 1, got[0].FunctionCount)
	assert.Equal(t, 2, got[0].CyclomaticComplexity)
}

func TestRecordUpsertsWithinRun(t *testing.T) {
	store := openTestStore(t)

	snap := Snapshot{RunID: "run-1", Path: "a.py", FunctionCount: 1}
	require.NoError(t, store.Record([]Snapshot{snap}))

	snap.FunctionCount = 3
	require.NoError(t, store.Record([]Snapshot{snap}))

	got, err := store.Recent("a.py", 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 3, got[0].FunctionCount)
}

func TestDegradedSnapshot(t *testing.T) {
	store := openTestStore(t)

	res := analyzer.Degraded("broken.py", "syntax error at line 1")
	snap := SnapshotOf("run-2", time.Now(), res)
	require.NoError(t, store.Record([]Snapshot{snap}))

	got, err := store.Recent("broken.py", 1)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Degraded)
	assert.Zero(t, got[0].FunctionCount)
}

func TestRecentOrdering(t *testing.T) {
	store := openTestStore(t)

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		snap := Snapshot{
			RunID:      uuid.NewString(),
			Path:       "b.py",
			Timestamp:  base.Add(time.Duration(i) * time.Minute),
			TotalLines: i,
		}
		require.NoError(t, store.Record([]Snapshot{snap}))
	}

	got, err := store.Recent("b.py", 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].TotalLines, "newest first")
	assert.Equal(t, 1, got[1].TotalLines)
}
