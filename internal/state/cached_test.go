package state_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/guludo/yape/internal/state"
)

func TestCachedStateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := state.NewCachedState(filepath.Join(dir, "entry"))

	require.False(t, s.HasResult())
	require.NoError(t, s.SetResult(map[string]any{"x": int64(42)}))
	require.True(t, s.HasResult())

	v, err := s.GetResult()
	require.NoError(t, err)
	require.Equal(t, map[string]any{"x": int64(42)}, v)

	// A fresh CachedState pointed at the same path observes the same
	// result without ever calling SetResult itself.
	s2 := state.NewCachedState(filepath.Join(dir, "entry"))
	v2, err := s2.GetResult()
	require.NoError(t, err)
	require.Equal(t, v, v2)

	ok, err := s2.IsUpToDate(state.UpToDateCheck{})
	require.NoError(t, err)
	require.True(t, ok)
}

func TestCachedStateReleaseClearsMemory(t *testing.T) {
	dir := t.TempDir()
	s := state.NewCachedState(dir)
	require.NoError(t, s.SetResult(7))
	s.Release()
	require.True(t, s.HasResult()) // still recoverable from disk
	v, err := s.GetResult()
	require.NoError(t, err)
	require.EqualValues(t, 7, v)
}

func TestCachedStatePathInStalenessForcesRerun(t *testing.T) {
	dir := t.TempDir()
	inputPath := filepath.Join(dir, "input.txt")
	require.NoError(t, os.WriteFile(inputPath, []byte("v1"), 0o644))

	s := state.NewCachedState(filepath.Join(dir, "entry"))
	require.NoError(t, s.SetResult("first"))

	ok, err := s.IsUpToDate(state.UpToDateCheck{PathIns: []string{inputPath}})
	require.NoError(t, err)
	require.True(t, ok, "input written before the run must not invalidate it")

	ts, hasTS, err := s.GetTimestamp()
	require.NoError(t, err)
	require.True(t, hasTS)

	// Touching the input after the run advances its mtime past the
	// recorded state timestamp, so a later check must report staleness.
	s.Release()
	later := ts.Add(time.Second)
	require.NoError(t, os.Chtimes(inputPath, later, later))

	ok, err = s.IsUpToDate(state.UpToDateCheck{PathIns: []string{inputPath}})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestCachedStateDependencyOrderingInvalidates(t *testing.T) {
	dir := t.TempDir()
	s := state.NewCachedState(filepath.Join(dir, "entry"))
	require.NoError(t, s.SetResult("v"))

	ts, _, err := s.GetTimestamp()
	require.NoError(t, err)

	ok, err := s.IsUpToDate(state.UpToDateCheck{
		Dependencies: []state.DependencyStatus{
			{UpToDate: true, HasTimestamp: true, Timestamp: ts.Add(time.Second)},
		},
	})
	require.NoError(t, err)
	require.False(t, ok, "a dependency newer than this state must force a rerun")

	s.Release()
	ok, err = s.IsUpToDate(state.UpToDateCheck{
		Dependencies: []state.DependencyStatus{
			{UpToDate: true, HasTimestamp: true, Timestamp: ts.Add(-time.Second)},
		},
	})
	require.NoError(t, err)
	require.True(t, ok, "an older, up-to-date dependency must not force a rerun")
}
