package app

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"leadcheck/internal/classifier"
	"leadcheck/internal/config"
	"leadcheck/internal/corpus"
	"leadcheck/internal/db"
	"leadcheck/internal/handlers"
	"leadcheck/internal/metrics"
	"leadcheck/internal/repository"
	"leadcheck/internal/result"
	"leadcheck/internal/retention"
	"leadcheck/internal/server"
	"leadcheck/internal/task"
)

// Run initializes and starts the application
func Run() error {
	logrus.SetFormatter(&logrus.JSONFormatter{})
	logrus.SetLevel(logrus.InfoLevel)

	logrus.Info("Starting Leadcheck Service")

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	dbConn, err := db.Init(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	shards, err := buildShards(cfg.Corpus.Shards)
	if err != nil {
		return fmt.Errorf("failed to initialize corpus shards: %w", err)
	}
	leakCorpus := corpus.New(shards, cfg.Corpus.LookupTimeout)
	logrus.Infof("Leak corpus initialized with %d shards", leakCorpus.ShardCount())

	results, err := result.NewStore(cfg.Results.Dir)
	if err != nil {
		return fmt.Errorf("failed to initialize result store: %w", err)
	}

	m := metrics.NewMetrics()
	registry := task.NewRegistry()
	repo := repository.New(dbConn)

	cls := classifier.New(registry, leakCorpus, results, repo, m, classifier.Options{
		CheckpointEvery: cfg.Corpus.CheckpointN,
		MaxRetries:      cfg.Corpus.MaxRetries,
		LookupRate:      cfg.Corpus.LookupRate,
	})

	sweeper := retention.NewSweeper(registry, results, cfg.Retention.Window, cfg.Retention.SweepInterval)
	if err := sweeper.Start(); err != nil {
		return fmt.Errorf("failed to start retention sweeper: %w", err)
	}

	h := handlers.NewHandlers(registry, cls, results, repo, m, dbConn, cfg.Upload.MaxSizeMB, cfg.Admin.Token)
	router := server.SetupRouter(h)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logrus.Infof("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("HTTP server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logrus.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	sweeper.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		logrus.Errorf("HTTP server shutdown error: %v", err)
	}

	leakCorpus.Close()

	logrus.Info("Server stopped gracefully")
	return nil
}

// buildShards creates a shard handle per configured corpus partition.
func buildShards(configs []config.ShardConfig) ([]corpus.Shard, error) {
	shards := make([]corpus.Shard, 0, len(configs))
	for _, sc := range configs {
		switch sc.Driver {
		case "mysql":
			shard, err := corpus.NewSQLShard(sc.Name, sc.DSN)
			if err != nil {
				return nil, err
			}
			shards = append(shards, shard)
		case "redis":
			rdb := redis.NewClient(&redis.Options{
				Addr:     sc.Addr,
				Password: sc.Password,
				DB:       sc.DB,
			})
			shards = append(shards, corpus.NewRedisShard(sc.Name, rdb))
		default:
			return nil, fmt.Errorf("corpus shard %s: unknown driver %q", sc.Name, sc.Driver)
		}
		logrus.Infof("Corpus shard %s initialized (%s)", sc.Name, sc.Driver)
	}
	return shards, nil
}
