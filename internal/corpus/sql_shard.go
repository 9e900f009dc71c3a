package corpus

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SQLShard is a corpus partition backed by a MySQL database where each
// collection is a table carrying an indexed `_email_hash` column.
type SQLShard struct {
	name string
	db   *gorm.DB

	// tableExists answers whether this shard hosts a collection table.
	tableExists func(ctx context.Context, collection string) (bool, error)

	// hosted caches which collection tables exist on this shard, so a
	// shard that does not carry a routed collection answers false without
	// a round-trip per lookup. Only definitive answers land here; a
	// failed existence check is a lookup error, never a cached "no".
	mu     sync.RWMutex
	hosted map[string]bool
}

// NewSQLShard connects to a shard database. Connections are pooled and
// kept read-only by convention; this service never writes to the corpus.
func NewSQLShard(name, dsn string) (*SQLShard, error) {
	gormLogger := logger.New(
		logrus.StandardLogger(),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to shard %s: %w", name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying SQL DB for shard %s: %w", name, err)
	}
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetConnMaxLifetime(time.Hour)

	s := &SQLShard{name: name, db: db, hosted: make(map[string]bool)}
	s.tableExists = s.queryTableExists
	return s, nil
}

// Name implements Shard.
func (s *SQLShard) Name() string {
	return s.name
}

// Contains implements Shard with a single indexed point query.
func (s *SQLShard) Contains(ctx context.Context, target Target, hash string) (bool, error) {
	hosts, err := s.hostsCollection(ctx, target.Collection)
	if err != nil {
		return false, err
	}
	if !hosts {
		return false, nil
	}

	var one int
	err = s.db.WithContext(ctx).
		Table(target.Collection).
		Select("1").
		Where("`_email_hash` = ?", hash).
		Limit(1).
		Scan(&one).Error
	if err != nil {
		return false, fmt.Errorf("shard %s query %s: %w", s.name, target.Collection, err)
	}
	return one == 1, nil
}

// Close implements Shard.
func (s *SQLShard) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB exposes the shard connection for the index maintenance command.
func (s *SQLShard) DB() *gorm.DB {
	return s.db
}

func (s *SQLShard) hostsCollection(ctx context.Context, collection string) (bool, error) {
	s.mu.RLock()
	hosts, known := s.hosted[collection]
	s.mu.RUnlock()
	if known {
		return hosts, nil
	}

	hosts, err := s.tableExists(ctx, collection)
	if err != nil {
		return false, fmt.Errorf("shard %s: collection check %s: %w", s.name, collection, err)
	}

	s.mu.Lock()
	s.hosted[collection] = hosts
	s.mu.Unlock()
	return hosts, nil
}

func (s *SQLShard) queryTableExists(ctx context.Context, collection string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Raw(
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = DATABASE() AND table_name = ?",
		collection,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
