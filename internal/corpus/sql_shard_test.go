package corpus

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A failed collection-existence check must surface as a lookup error and
// must not poison the cache: once the shard recovers, the collection is
// seen again and leaked addresses stay findable.
func TestHostsCollectionDoesNotCacheFailures(t *testing.T) {
	calls := 0
	shard := &SQLShard{name: "vps2", hosted: make(map[string]bool)}
	shard.tableExists = func(ctx context.Context, collection string) (bool, error) {
		calls++
		if calls == 1 {
			return false, errors.New("connection reset")
		}
		return true, nil
	}

	_, err := shard.hostsCollection(context.Background(), "Email_GCa_GCg")
	require.Error(t, err)

	hosts, err := shard.hostsCollection(context.Background(), "Email_GCa_GCg")
	require.NoError(t, err)
	assert.True(t, hosts)

	// The recovered answer is definitive and cached.
	hosts, err = shard.hostsCollection(context.Background(), "Email_GCa_GCg")
	require.NoError(t, err)
	assert.True(t, hosts)
	assert.Equal(t, 2, calls)
}

// Contains propagates the existence-check error instead of answering a
// silent "not leaked".
func TestContainsSurfacesCollectionCheckError(t *testing.T) {
	shard := &SQLShard{name: "vps2", hosted: make(map[string]bool)}
	shard.tableExists = func(ctx context.Context, collection string) (bool, error) {
		return false, errors.New("driver: bad connection")
	}

	_, err := shard.Contains(context.Background(), Target{Collection: "Email_Aa_Ag"}, "abc")
	assert.Error(t, err)
}

func TestContainsNotHostedCollectionAnswersOnce(t *testing.T) {
	calls := 0
	shard := &SQLShard{name: "vps3", hosted: make(map[string]bool)}
	shard.tableExists = func(ctx context.Context, collection string) (bool, error) {
		calls++
		return false, nil
	}

	for i := 0; i < 3; i++ {
		found, err := shard.Contains(context.Background(), Target{Collection: "Email_MRh_MRn"}, "abc")
		require.NoError(t, err)
		assert.False(t, found)
	}
	assert.Equal(t, 1, calls, "definitive answer is served from cache")
}
