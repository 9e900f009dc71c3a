// Package config loads service configuration from config.yaml and
// environment variable overrides.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Corpus    CorpusConfig    `mapstructure:"corpus"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Results   ResultsConfig   `mapstructure:"results"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Retention RetentionConfig `mapstructure:"retention"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds the application database connection configuration
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
}

// GetDSN returns the MySQL connection string
func (c DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

// ShardConfig describes one leak-corpus shard. Driver selects the backend:
// "mysql" expects DSN, "redis" expects Addr/Password/DB.
type ShardConfig struct {
	Name     string `mapstructure:"name"`
	Driver   string `mapstructure:"driver"`
	DSN      string `mapstructure:"dsn"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CorpusConfig holds leak-corpus lookup configuration
type CorpusConfig struct {
	Shards        []ShardConfig `mapstructure:"shards"`
	LookupTimeout time.Duration `mapstructure:"lookup_timeout"`
	LookupRate    float64       `mapstructure:"lookup_rate"`
	MaxRetries    int           `mapstructure:"max_retries"`
	CheckpointN   int           `mapstructure:"checkpoint_every"`
}

// UploadConfig holds upload constraints
type UploadConfig struct {
	MaxSizeMB int `mapstructure:"max_size_mb"`
}

// ResultsConfig holds result artifact storage configuration
type ResultsConfig struct {
	Dir string `mapstructure:"dir"`
}

// AdminConfig holds the admin bearer token
type AdminConfig struct {
	Token string `mapstructure:"token"`
}

// RetentionConfig holds task garbage collection configuration
type RetentionConfig struct {
	Window        time.Duration `mapstructure:"window"`
	SweepInterval int           `mapstructure:"sweep_interval_minutes"`
}

// LoadConfig loads configuration from environment variables and config file
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	viper.AutomaticEnv()
	bindEnvVars()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// Validate checks that required configuration values are present
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Database.Host == "" || c.Database.User == "" || c.Database.DBName == "" {
		return fmt.Errorf("database host, user and dbname are required")
	}
	if c.Admin.Token == "" {
		return fmt.Errorf("admin token is required")
	}
	for i, shard := range c.Corpus.Shards {
		if shard.Name == "" {
			return fmt.Errorf("corpus shard %d: name is required", i)
		}
		switch shard.Driver {
		case "mysql":
			if shard.DSN == "" {
				return fmt.Errorf("corpus shard %s: dsn is required for mysql driver", shard.Name)
			}
		case "redis":
			if shard.Addr == "" {
				return fmt.Errorf("corpus shard %s: addr is required for redis driver", shard.Name)
			}
		default:
			return fmt.Errorf("corpus shard %s: unknown driver %q", shard.Name, shard.Driver)
		}
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "30s")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 3306)

	viper.SetDefault("corpus.lookup_timeout", "5s")
	viper.SetDefault("corpus.lookup_rate", 0)
	viper.SetDefault("corpus.max_retries", 3)
	viper.SetDefault("corpus.checkpoint_every", 50)

	viper.SetDefault("upload.max_size_mb", 10)
	viper.SetDefault("results.dir", "./results")

	viper.SetDefault("retention.window", "24h")
	viper.SetDefault("retention.sweep_interval_minutes", 60)
}

// bindEnvVars binds environment variables to configuration keys
func bindEnvVars() {
	viper.BindEnv("server.port", "SERVER_PORT")
	viper.BindEnv("server.read_timeout", "SERVER_READ_TIMEOUT")
	viper.BindEnv("server.write_timeout", "SERVER_WRITE_TIMEOUT")

	viper.BindEnv("database.host", "DB_HOST")
	viper.BindEnv("database.port", "DB_PORT")
	viper.BindEnv("database.user", "DB_USER")
	viper.BindEnv("database.password", "DB_PASSWORD")
	viper.BindEnv("database.dbname", "DB_NAME")

	viper.BindEnv("corpus.lookup_timeout", "CORPUS_LOOKUP_TIMEOUT")

	viper.BindEnv("upload.max_size_mb", "UPLOAD_MAX_SIZE_MB")
	viper.BindEnv("results.dir", "RESULTS_DIR")

	viper.BindEnv("admin.token", "ADMIN_TOKEN")

	viper.BindEnv("retention.window", "RETENTION_WINDOW")
	viper.BindEnv("retention.sweep_interval_minutes", "RETENTION_SWEEP_INTERVAL_MINUTES")
}
