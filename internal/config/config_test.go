package config

import (
	"strings"
	"testing"
	"time"
)

func envMap(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"TELEGRAM_TOKEN": "123:abc",
		"DATABASE_URL":   "postgres://localhost/wish",
		"JWT_SECRET":     "secret",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}

	if cfg.StorageDriver != DriverPostgres {
		t.Errorf("StorageDriver = %q, want %q", cfg.StorageDriver, DriverPostgres)
	}
	if cfg.TokenTTL != 30*time.Minute {
		t.Errorf("TokenTTL = %v, want 30m", cfg.TokenTTL)
	}
	if cfg.InitDataMaxAge != 24*time.Hour {
		t.Errorf("InitDataMaxAge = %v, want 24h", cfg.InitDataMaxAge)
	}
	if cfg.ScrapeTimeout != 30*time.Second {
		t.Errorf("ScrapeTimeout = %v, want 30s", cfg.ScrapeTimeout)
	}
	if cfg.Port != "8080" || cfg.PrometheusPort != "9090" {
		t.Errorf("ports = %s/%s, want 8080/9090", cfg.Port, cfg.PrometheusPort)
	}
	if !cfg.BotEnabled {
		t.Error("BotEnabled should default to true")
	}
	if cfg.IsDevelopment() {
		t.Error("default environment should not be development")
	}
}

func TestFromEnvErrors(t *testing.T) {
	base := map[string]string{
		"TELEGRAM_TOKEN": "123:abc",
		"DATABASE_URL":   "postgres://localhost/wish",
		"JWT_SECRET":     "secret",
	}

	tests := []struct {
		name    string
		change  map[string]string
		wantErr string
	}{
		{"missing jwt secret", map[string]string{"JWT_SECRET": ""}, "JWT_SECRET"},
		{"missing telegram token", map[string]string{"TELEGRAM_TOKEN": ""}, "TELEGRAM_TOKEN"},
		{"missing database url", map[string]string{"DATABASE_URL": ""}, "DATABASE_URL"},
		{"unknown driver", map[string]string{"STORAGE_DRIVER": "mongo"}, "STORAGE_DRIVER"},
		{"bad ttl", map[string]string{"TOKEN_TTL": "soon"}, "TOKEN_TTL"},
		{"bad bot flag", map[string]string{"BOT_ENABLED": "maybe"}, "BOT_ENABLED"},
		{"bad init data age", map[string]string{"INIT_DATA_MAX_AGE": "forever"}, "INIT_DATA_MAX_AGE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := make(map[string]string, len(base))
			for k, v := range base {
				values[k] = v
			}
			for k, v := range tt.change {
				values[k] = v
			}

			_, err := FromEnv(envMap(values))
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not mention %s", err, tt.wantErr)
			}
		})
	}
}

func TestFromEnvMemoryDevelopment(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"APP_ENV":        "development",
		"STORAGE_DRIVER": "memory",
		"BOT_ENABLED":    "false",
		"JWT_SECRET":     "secret",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.StorageDriver != DriverMemory {
		t.Errorf("StorageDriver = %q, want memory", cfg.StorageDriver)
	}
	if !cfg.IsDevelopment() {
		t.Error("expected development mode")
	}
}
