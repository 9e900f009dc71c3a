package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Database: DatabaseConfig{
			Host:   "localhost",
			User:   "test",
			DBName: "leadcheck",
		},
		Admin: AdminConfig{Token: "secret"},
		Corpus: CorpusConfig{
			Shards: []ShardConfig{
				{Name: "vps2", Driver: "mysql", DSN: "user:pass@tcp(vps2:3306)/email_A_G"},
				{Name: "hot", Driver: "redis", Addr: "localhost:6379"},
			},
		},
	}
}

func TestConfigValidation(t *testing.T) {
	assert.NoError(t, validConfig().Validate())

	invalid := validConfig()
	invalid.Server.Port = ""
	assert.Error(t, invalid.Validate())

	invalid = validConfig()
	invalid.Admin.Token = ""
	assert.Error(t, invalid.Validate())

	invalid = validConfig()
	invalid.Corpus.Shards[0].DSN = ""
	assert.Error(t, invalid.Validate())

	invalid = validConfig()
	invalid.Corpus.Shards[1].Addr = ""
	assert.Error(t, invalid.Validate())

	invalid = validConfig()
	invalid.Corpus.Shards[0].Driver = "mongodb"
	assert.Error(t, invalid.Validate())
}

func TestDatabaseDSN(t *testing.T) {
	config := DatabaseConfig{
		Host:     "localhost",
		Port:     3306,
		User:     "testuser",
		Password: "testpass",
		DBName:   "testdb",
	}

	dsn := config.GetDSN()
	expected := "testuser:testpass@tcp(localhost:3306)/testdb?charset=utf8mb4&parseTime=True&loc=Local"
	assert.Equal(t, expected, dsn)
}
