package result

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func TestSaveAndFetch(t *testing.T) {
	s := newTestStore(t)

	ref, err := s.Save("task-1", []string{"a@x.com", "b@y.com"})
	require.NoError(t, err)
	assert.Equal(t, "result_task-1.txt", ref)

	path, err := s.Fetch("task-1")
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com\nb@y.com\n", string(content))
}

// Fetching twice must return byte-identical content.
func TestFetchIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Save("task-1", []string{"a@x.com"})
	require.NoError(t, err)

	path1, err := s.Fetch("task-1")
	require.NoError(t, err)
	first, err := os.ReadFile(path1)
	require.NoError(t, err)

	path2, err := s.Fetch("task-1")
	require.NoError(t, err)
	second, err := os.ReadFile(path2)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSaveIsStoreOnce(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Save("task-1", []string{"a@x.com"})
	require.NoError(t, err)

	_, err = s.Save("task-1", []string{"other@y.com"})
	assert.ErrorIs(t, err, ErrAlreadyStored)

	// Original content untouched.
	path, _ := s.Fetch("task-1")
	content, _ := os.ReadFile(path)
	assert.Equal(t, "a@x.com\n", string(content))
}

func TestFetchUnknownTask(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Fetch("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveEmptyList(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Save("task-1", nil)
	require.NoError(t, err)

	path, err := s.Fetch("task-1")
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Empty(t, content)
}

func TestRemove(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Save("task-1", []string{"a@x.com"})
	require.NoError(t, err)

	require.NoError(t, s.Remove("task-1"))
	_, err = s.Fetch("task-1")
	assert.ErrorIs(t, err, ErrNotFound)

	// Removing again is a no-op.
	assert.NoError(t, s.Remove("task-1"))
}
