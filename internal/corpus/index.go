package corpus

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// hashIndexName is the name of the `_email_hash` index expected on every
// corpus collection.
const hashIndexName = "idx_email_hash"

// IndexReport summarizes one EnsureHashIndexes run.
type IndexReport struct {
	Created  int
	Existing int
	Errors   int
}

// collectionIndexer is the slice of shard DB access the index ensure
// needs: list the collections, probe for the hash index, create it.
type collectionIndexer interface {
	Tables() ([]string, error)
	HasHashIndex(table string) (bool, error)
	CreateHashIndex(table string) error
}

// EnsureHashIndexes creates the `_email_hash` index on every collection
// table of a shard database that does not already have one. The operation
// is idempotent: collections already carrying the index are skipped and
// only counted.
func EnsureHashIndexes(db *gorm.DB) (IndexReport, error) {
	return ensureHashIndexes(gormIndexer{db: db})
}

func ensureHashIndexes(idx collectionIndexer) (IndexReport, error) {
	var report IndexReport

	tables, err := idx.Tables()
	if err != nil {
		return report, fmt.Errorf("failed to list collections: %w", err)
	}
	logrus.Infof("Found %d collections", len(tables))

	for _, table := range tables {
		has, err := idx.HasHashIndex(table)
		if err != nil {
			logrus.Errorf("Collection %s: index check failed: %v", table, err)
			report.Errors++
			continue
		}
		if has {
			logrus.Debugf("Collection %s: index already exists", table)
			report.Existing++
			continue
		}

		if err := idx.CreateHashIndex(table); err != nil {
			logrus.Errorf("Collection %s: index creation failed: %v", table, err)
			report.Errors++
			continue
		}
		logrus.Infof("Collection %s: index created", table)
		report.Created++
	}

	return report, nil
}

// gormIndexer implements collectionIndexer against a MySQL shard.
type gormIndexer struct {
	db *gorm.DB
}

func (g gormIndexer) Tables() ([]string, error) {
	return g.db.Migrator().GetTables()
}

// HasHashIndex reports whether any index on the table covers the
// `_email_hash` column, regardless of the index name it was created under.
func (g gormIndexer) HasHashIndex(table string) (bool, error) {
	var count int64
	err := g.db.Raw(
		"SELECT COUNT(*) FROM information_schema.statistics WHERE table_schema = DATABASE() AND table_name = ? AND column_name = '_email_hash'",
		table,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (g gormIndexer) CreateHashIndex(table string) error {
	stmt := fmt.Sprintf("CREATE INDEX %s ON `%s` (`_email_hash`)", hashIndexName, table)
	return g.db.Exec(stmt).Error
}
