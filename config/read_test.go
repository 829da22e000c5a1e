package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return dir
}

func TestReadConfig_FileAndDefaults(t *testing.T) {
	dir := writeConfig(t, `
database:
  host: db.internal
  dbname: clinic
prediction:
  batch_concurrency: 4
  cache:
    driver: memory
`)

	cfg, err := ReadConfig(dir)
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}

	if cfg.Database.Host != "db.internal" {
		t.Errorf("Database.Host = %q, want db.internal", cfg.Database.Host)
	}
	if cfg.Database.Port != 5432 {
		t.Errorf("Database.Port = %d, want default 5432", cfg.Database.Port)
	}
	if cfg.Prediction.BatchConcurrency != 4 {
		t.Errorf("BatchConcurrency = %d, want 4", cfg.Prediction.BatchConcurrency)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want default 8080", cfg.Server.Port)
	}
	if cfg.Prediction.Cache.TTL().Hours() != 24 {
		t.Errorf("Cache TTL = %v, want 24h", cfg.Prediction.Cache.TTL())
	}
}

func TestReadConfig_EnvOverride(t *testing.T) {
	dir := writeConfig(t, "database:\n  host: from-file\n")
	t.Setenv("SIMORQ_DATABASE_HOST", "from-env")
	t.Setenv("SIMORQ_PREDICTION_BATCH_CONCURRENCY", "16")

	cfg, err := ReadConfig(dir)
	if err != nil {
		t.Fatalf("ReadConfig failed: %v", err)
	}
	if cfg.Database.Host != "from-env" {
		t.Errorf("Database.Host = %q, want from-env", cfg.Database.Host)
	}
	if cfg.Prediction.BatchConcurrency != 16 {
		t.Errorf("BatchConcurrency = %d, want 16", cfg.Prediction.BatchConcurrency)
	}
}

func TestReadConfig_MissingFileWithoutEnv(t *testing.T) {
	t.Setenv("SIMORQ_DATABASE_HOST", "")

	if _, err := ReadConfig(t.TempDir()); err == nil {
		t.Error("Expected error when config file and env are both missing")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults are valid", func(c *Config) {}, ""},
		{"unknown cache driver", func(c *Config) { c.Prediction.Cache.Driver = "memcached" }, "unknown prediction.cache.driver"},
		{"redis cache without addr", func(c *Config) { c.Prediction.Cache.Driver = CacheDriverRedis }, "requires redis.addr"},
		{"redis cache with addr", func(c *Config) {
			c.Prediction.Cache.Driver = CacheDriverRedis
			c.Redis.Addr = "localhost:6379"
		}, ""},
		{"negative concurrency", func(c *Config) { c.Prediction.BatchConcurrency = -1 }, "batch_concurrency"},
		{"outcome events without nats", func(c *Config) { c.Prediction.OutcomeEvents = true }, "requires nats"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "out of range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Server: ServerConfig{Port: 8080}}
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
