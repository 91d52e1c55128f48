package state_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/guludo/yape/internal/state"
)

func TestMemoryHasNoResultInitially(t *testing.T) {
	m := state.NewMemory(nil)
	require.False(t, m.HasResult())

	_, err := m.GetResult()
	require.Error(t, err)
}

func TestMemorySetAndGetResult(t *testing.T) {
	m := state.NewMemory(nil)
	require.NoError(t, m.SetResult(42))
	require.True(t, m.HasResult())

	v, err := m.GetResult()
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestMemoryReleaseClearsResult(t *testing.T) {
	m := state.NewMemory(nil)
	require.NoError(t, m.SetResult("x"))
	m.Release()
	require.False(t, m.HasResult())
}

func TestMemoryIsNeverUpToDate(t *testing.T) {
	m := state.NewMemory(nil)
	require.NoError(t, m.SetResult(1))
	ok, err := m.IsUpToDate(state.UpToDateCheck{})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMemoryGetTimestampAlwaysAbsent(t *testing.T) {
	m := state.NewMemory(nil)
	_, has, err := m.GetTimestamp()
	require.NoError(t, err)
	require.False(t, has)
}

func TestMemoryWorkdirLazilyCreatesOnce(t *testing.T) {
	calls := 0
	m := state.NewMemory(func() (string, error) {
		calls++
		return "/tmp/scratch", nil
	})

	d1, err := m.Workdir()
	require.NoError(t, err)
	require.Equal(t, "/tmp/scratch", d1)

	d2, err := m.Workdir()
	require.NoError(t, err)
	require.Equal(t, d1, d2)
	require.Equal(t, 1, calls)
}

func TestMemoryWorkdirWithoutFactoryIsEmpty(t *testing.T) {
	m := state.NewMemory(nil)
	d, err := m.Workdir()
	require.NoError(t, err)
	require.Empty(t, d)
}
