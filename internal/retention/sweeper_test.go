package retention

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadcheck/internal/result"
	"leadcheck/internal/task"
)

func TestSweepRemovesExpiredTasks(t *testing.T) {
	registry := task.NewRegistry()
	results, err := result.NewStore(t.TempDir())
	require.NoError(t, err)

	done := registry.Create("old.txt", 1, 0)
	require.NoError(t, registry.Start(done.ID))
	require.NoError(t, registry.RecordResult(done.ID, false))
	_, err = results.Save(done.ID, []string{"a@x.com"})
	require.NoError(t, err)
	require.NoError(t, registry.Complete(done.ID, "result", "done"))

	active := registry.Create("active.txt", 1, 0)

	// Zero window: anything terminal is already expired.
	s := NewSweeper(registry, results, 0, 60)
	s.Sweep()

	_, err = registry.Get(done.ID)
	assert.ErrorIs(t, err, task.ErrNotFound)
	_, err = results.Fetch(done.ID)
	assert.ErrorIs(t, err, result.ErrNotFound)

	// In-flight tasks are untouched.
	_, err = registry.Get(active.ID)
	assert.NoError(t, err)
}

func TestSweepKeepsTasksInsideWindow(t *testing.T) {
	registry := task.NewRegistry()
	results, err := result.NewStore(t.TempDir())
	require.NoError(t, err)

	done := registry.Create("recent.txt", 0, 0)
	require.NoError(t, registry.Start(done.ID))
	require.NoError(t, registry.Complete(done.ID, "", "done"))

	s := NewSweeper(registry, results, 24*time.Hour, 60)
	s.Sweep()

	_, err = registry.Get(done.ID)
	assert.NoError(t, err)
}

func TestSweeperStartStop(t *testing.T) {
	registry := task.NewRegistry()
	results, err := result.NewStore(t.TempDir())
	require.NoError(t, err)

	s := NewSweeper(registry, results, time.Hour, 60)
	require.NoError(t, s.Start())
	assert.Error(t, s.Start(), "second start must be rejected")
	s.Stop()
	s.Stop()
}
