// Package corpus answers existence queries against the sharded
// leaked-address corpus. The corpus is read only from this service's
// perspective; shards may be backed by different stores and are queried
// through a common handle so topology changes never touch the classifier.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// ErrUnavailable is returned when a lookup cannot be answered because
// shard queries failed. The caller decides whether to retry or fail the
// active task; the service itself keeps running.
var ErrUnavailable = errors.New("leak corpus unavailable")

// Shard is one partition of the leaked-address corpus.
type Shard interface {
	// Name identifies the shard in logs and error messages.
	Name() string
	// Contains reports whether the given identity hash exists in the
	// shard's collection for the routed target. A shard that does not
	// host the target collection reports false without error.
	Contains(ctx context.Context, target Target, hash string) (bool, error)
	Close() error
}

// Corpus is the logical existence index over all configured shards.
type Corpus struct {
	shards        []Shard
	lookupTimeout time.Duration
}

// New builds a corpus over the given shards. lookupTimeout bounds each
// shard round-trip.
func New(shards []Shard, lookupTimeout time.Duration) *Corpus {
	if lookupTimeout <= 0 {
		lookupTimeout = 5 * time.Second
	}
	return &Corpus{shards: shards, lookupTimeout: lookupTimeout}
}

// ShardCount returns the number of configured shards.
func (c *Corpus) ShardCount() int {
	return len(c.shards)
}

// Exists reports whether the normalized address's identity hash is present
// in any shard. Checking stops at the first hit. An address whose domain
// cannot be routed can never have been ingested, so it is reported absent.
//
// A shard error does not by itself decide the address: remaining shards
// are still consulted, because a hit anywhere is authoritative. If no
// shard reports a hit and at least one errored, the address cannot be
// called fresh and the lookup fails with ErrUnavailable.
func (c *Corpus) Exists(ctx context.Context, normalized, hash string) (bool, error) {
	target, ok := Route(normalized)
	if !ok {
		return false, nil
	}

	var lastErr error
	for _, shard := range c.shards {
		lookupCtx, cancel := context.WithTimeout(ctx, c.lookupTimeout)
		found, err := shard.Contains(lookupCtx, target, hash)
		cancel()
		if err != nil {
			logrus.Warnf("Corpus lookup failed on shard %s (%s): %v", shard.Name(), target.Collection, err)
			lastErr = err
			continue
		}
		if found {
			return true, nil
		}
	}

	if lastErr != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, lastErr)
	}
	return false, nil
}

// Close closes every shard handle.
func (c *Corpus) Close() {
	for _, shard := range c.shards {
		if err := shard.Close(); err != nil {
			logrus.Errorf("Failed to close shard %s: %v", shard.Name(), err)
		}
	}
}
