// Command ensure-indexes creates the `_email_hash` index on every corpus
// collection of every configured MySQL shard. Safe to run repeatedly:
// collections that already carry the index are skipped.
package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"leadcheck/internal/config"
	"leadcheck/internal/corpus"
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Errorf("Failed to load configuration: %v", err)
		os.Exit(1)
	}

	var total corpus.IndexReport
	for _, sc := range cfg.Corpus.Shards {
		if sc.Driver != "mysql" {
			logrus.Infof("Shard %s: skipping (%s driver has no collection indexes)", sc.Name, sc.Driver)
			continue
		}

		logrus.Infof("Shard %s: ensuring _email_hash indexes", sc.Name)
		shard, err := corpus.NewSQLShard(sc.Name, sc.DSN)
		if err != nil {
			logrus.Errorf("Shard %s: connection failed: %v", sc.Name, err)
			total.Errors++
			continue
		}

		report, err := corpus.EnsureHashIndexes(shard.DB())
		if err != nil {
			logrus.Errorf("Shard %s: %v", sc.Name, err)
			total.Errors++
		}
		total.Created += report.Created
		total.Existing += report.Existing
		total.Errors += report.Errors

		if err := shard.Close(); err != nil {
			logrus.Errorf("Shard %s: close failed: %v", sc.Name, err)
		}
	}

	logrus.Infof("Summary: created=%d existing=%d errors=%d", total.Created, total.Existing, total.Errors)
	if total.Errors > 0 {
		os.Exit(1)
	}
}
