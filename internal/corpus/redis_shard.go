package corpus

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// redisKeyPrefix namespaces corpus membership keys.
const redisKeyPrefix = "leak:"

// RedisShard is a corpus partition backed by Redis, where membership of an
// identity hash is a key of the form leak:<collection>:<hash>. Useful as a
// hot shard in front of the SQL-backed ones.
type RedisShard struct {
	name string
	rdb  *redis.Client
}

// NewRedisShard creates a shard over an existing Redis client.
func NewRedisShard(name string, rdb *redis.Client) *RedisShard {
	return &RedisShard{name: name, rdb: rdb}
}

// Name implements Shard.
func (s *RedisShard) Name() string {
	return s.name
}

// Contains implements Shard via a single EXISTS call.
func (s *RedisShard) Contains(ctx context.Context, target Target, hash string) (bool, error) {
	key := fmt.Sprintf("%s%s:%s", redisKeyPrefix, target.Collection, hash)
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("shard %s EXISTS: %w", s.name, err)
	}
	return n > 0, nil
}

// Close implements Shard.
func (s *RedisShard) Close() error {
	return s.rdb.Close()
}
