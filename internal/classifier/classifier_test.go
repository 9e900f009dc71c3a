package classifier

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"leadcheck/internal/email"
	"leadcheck/internal/metrics"
	"leadcheck/internal/result"
	"leadcheck/internal/task"
)

// fakeIndex marks a fixed set of addresses as leaked.
type fakeIndex struct {
	leaked map[string]bool
	err    error
	// failFirst makes the first N calls fail, then recover.
	failFirst int
	calls     int
}

func (f *fakeIndex) Exists(ctx context.Context, normalized, hash string) (bool, error) {
	f.calls++
	if f.failFirst > 0 && f.calls <= f.failFirst {
		return false, errors.New("transient shard error")
	}
	if f.err != nil {
		return false, f.err
	}
	return f.leaked[normalized], nil
}

// memSink records persisted leads and task traces in memory.
type memSink struct {
	leads   []string
	records []task.Task
}

func (m *memSink) SaveFreshLeads(taskID, source string, emails []string) error {
	m.leads = append(m.leads, emails...)
	return nil
}

func (m *memSink) SaveTaskRecord(t task.Task) error {
	m.records = append(m.records, t)
	return nil
}

type fixture struct {
	registry *task.Registry
	results  *result.Store
	sink     *memSink
	cls      *Classifier
}

func newFixture(t *testing.T, index LeakIndex, opts Options) *fixture {
	t.Helper()
	registry := task.NewRegistry()
	results, err := result.NewStore(t.TempDir())
	require.NoError(t, err)
	sink := &memSink{}
	m := metrics.NewMetricsWith(prometheus.NewRegistry())
	return &fixture{
		registry: registry,
		results:  results,
		sink:     sink,
		cls:      New(registry, index, results, sink, m, opts),
	}
}

func TestRunClassifiesBatch(t *testing.T) {
	index := &fakeIndex{leaked: map[string]bool{"b@y.com": true}}
	f := newFixture(t, index, Options{})

	// Parsed upload: a@x.com twice (case variant), one invalid dropped at
	// parse time, b@y.com leaked.
	created := f.registry.Create("leads.txt", 3, 1)
	err := f.cls.Run(context.Background(), created.ID, []string{"a@x.com", "a@x.com", "b@y.com"}, "leads.txt")
	require.NoError(t, err)

	got, err := f.registry.Get(created.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, got.Status)
	assert.Equal(t, 3, got.ProcessedCount)
	assert.Equal(t, 1, got.LeakedCount)
	assert.Equal(t, 2, got.FreshCount)
	assert.Equal(t, got.ProcessedCount, got.LeakedCount+got.FreshCount)
	assert.Contains(t, got.Message, "2 fresh leads found, 1 leaked")
	assert.Contains(t, got.Message, "1 invalid lines skipped")
	assert.NotEmpty(t, got.ResultRef)

	// Artifact holds fresh addresses in encounter order, no dedup.
	path, err := f.results.Fetch(created.ID)
	require.NoError(t, err)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a@x.com\na@x.com\n", string(content))

	assert.Equal(t, []string{"a@x.com", "a@x.com"}, f.sink.leads)
	require.NotEmpty(t, f.sink.records)
	assert.Equal(t, string(task.StatusCompleted), string(f.sink.records[len(f.sink.records)-1].Status))
}

func TestRunExactlyOncePerTask(t *testing.T) {
	index := &fakeIndex{leaked: map[string]bool{}}
	f := newFixture(t, index, Options{})

	created := f.registry.Create("leads.txt", 1, 0)
	require.NoError(t, f.cls.Run(context.Background(), created.ID, []string{"a@x.com"}, "leads.txt"))

	err := f.cls.Run(context.Background(), created.ID, []string{"a@x.com"}, "leads.txt")
	assert.Error(t, err, "second run for the same task must be rejected")

	got, _ := f.registry.Get(created.ID)
	assert.Equal(t, 1, got.ProcessedCount)
}

func TestRunEmptyBatchCompletesImmediately(t *testing.T) {
	index := &fakeIndex{}
	f := newFixture(t, index, Options{})

	created := f.registry.Create("empty.txt", 0, 0)
	require.NoError(t, f.cls.Run(context.Background(), created.ID, nil, "empty.txt"))

	got, _ := f.registry.Get(created.ID)
	assert.Equal(t, task.StatusCompleted, got.Status)
	assert.Zero(t, got.TotalEmails)
	assert.Zero(t, got.FreshCount)
	assert.InDelta(t, 100.0, got.Progress(), 0.01)
	assert.Zero(t, index.calls)
}

func TestRunFailsOnPersistentLookupError(t *testing.T) {
	index := &fakeIndex{err: errors.New("corpus unreachable")}
	f := newFixture(t, index, Options{MaxRetries: 2})

	created := f.registry.Create("leads.txt", 2, 0)
	err := f.cls.Run(context.Background(), created.ID, []string{"a@x.com", "b@y.com"}, "leads.txt")
	require.Error(t, err)

	got, _ := f.registry.Get(created.ID)
	assert.Equal(t, task.StatusFailed, got.Status)
	assert.Contains(t, got.Message, "Failed:")
	// No partial artifact is exposed.
	_, err = f.results.Fetch(created.ID)
	assert.ErrorIs(t, err, result.ErrNotFound)
}

func TestRunRetriesTransientLookupError(t *testing.T) {
	index := &fakeIndex{leaked: map[string]bool{}, failFirst: 1}
	f := newFixture(t, index, Options{MaxRetries: 3})

	created := f.registry.Create("leads.txt", 1, 0)
	require.NoError(t, f.cls.Run(context.Background(), created.ID, []string{"a@x.com"}, "leads.txt"))

	got, _ := f.registry.Get(created.ID)
	assert.Equal(t, task.StatusCompleted, got.Status)
	assert.Equal(t, 1, got.FreshCount)
}

func TestRunCheckpointMessages(t *testing.T) {
	index := &fakeIndex{leaked: map[string]bool{}}
	f := newFixture(t, index, Options{CheckpointEvery: 2})

	addrs := []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com", "e@x.com"}
	created := f.registry.Create("leads.txt", len(addrs), 0)
	require.NoError(t, f.cls.Run(context.Background(), created.ID, addrs, "leads.txt"))

	got, _ := f.registry.Get(created.ID)
	assert.Equal(t, task.StatusCompleted, got.Status)
	assert.Equal(t, 5, got.ProcessedCount)
}

// failingSink rejects lead inserts but accepts task traces.
type failingSink struct {
	memSink
}

func (f *failingSink) SaveFreshLeads(taskID, source string, emails []string) error {
	return errors.New("insert failed")
}

func TestRunSinkFailureFailsTaskAndDropsArtifact(t *testing.T) {
	index := &fakeIndex{leaked: map[string]bool{}}
	registry := task.NewRegistry()
	results, err := result.NewStore(t.TempDir())
	require.NoError(t, err)
	m := metrics.NewMetricsWith(prometheus.NewRegistry())
	cls := New(registry, index, results, &failingSink{}, m, Options{})

	created := registry.Create("leads.txt", 1, 0)
	err = cls.Run(context.Background(), created.ID, []string{"a@x.com"}, "leads.txt")
	require.Error(t, err)

	got, _ := registry.Get(created.ID)
	assert.Equal(t, task.StatusFailed, got.Status)
	_, err = results.Fetch(created.ID)
	assert.ErrorIs(t, err, result.ErrNotFound)
}

// A failed materialization must not leave fresh leads persisted: the
// date-range export and download regeneration only ever see leads of
// completed tasks.
func TestRunMaterializationFailureKeepsNoLeads(t *testing.T) {
	index := &fakeIndex{leaked: map[string]bool{}}
	registry := task.NewRegistry()
	dir := filepath.Join(t.TempDir(), "results")
	results, err := result.NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.RemoveAll(dir))
	sink := &memSink{}
	m := metrics.NewMetricsWith(prometheus.NewRegistry())
	cls := New(registry, index, results, sink, m, Options{})

	created := registry.Create("leads.txt", 1, 0)
	err = cls.Run(context.Background(), created.ID, []string{"a@x.com"}, "leads.txt")
	require.Error(t, err)

	got, _ := registry.Get(created.ID)
	assert.Equal(t, task.StatusFailed, got.Status)
	assert.Empty(t, sink.leads)
}

// The classifier feeds the hasher normalized input, so identity equality
// across case variants holds end to end.
func TestRunHashesNormalizedForm(t *testing.T) {
	leakedHash := email.Hash("b@y.com")
	index := &hashCheckingIndex{leakedHash: leakedHash}
	f := newFixture(t, index, Options{})

	created := f.registry.Create("leads.txt", 1, 0)
	require.NoError(t, f.cls.Run(context.Background(), created.ID, []string{"b@y.com"}, "leads.txt"))

	got, _ := f.registry.Get(created.ID)
	assert.Equal(t, 1, got.LeakedCount)
}

type hashCheckingIndex struct {
	leakedHash string
}

func (h *hashCheckingIndex) Exists(ctx context.Context, normalized, hash string) (bool, error) {
	if hash != email.Hash(normalized) {
		return false, errors.New("hash does not match normalized address")
	}
	return hash == h.leakedHash, nil
}
