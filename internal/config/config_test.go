package config

import (
	"strings"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/gradimport")
	t.Setenv("DB_URL", "")
}

func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Server.Addr() != "0.0.0.0:8080" {
		t.Errorf("Addr = %s", cfg.Server.Addr())
	}
	if cfg.Database.MaxConns != 20 || cfg.Database.MinConns != 4 {
		t.Errorf("pool sizes = %d/%d", cfg.Database.MaxConns, cfg.Database.MinConns)
	}
	if cfg.Import.MaxFileSize != 52428800 {
		t.Errorf("MaxFileSize = %d", cfg.Import.MaxFileSize)
	}
	if cfg.Import.MaxConcurrent != 3 || cfg.Import.MaxWaitTime != 30*time.Second {
		t.Errorf("import limits = %d/%v", cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime)
	}
	if !cfg.Import.DefaultAllowEmployerContact || !cfg.Import.DefaultJobSearchActive {
		t.Error("boolean import defaults should be true")
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("logging = %s/%s", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoadOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("SERVER_READ_TIMEOUT", "15s")
	t.Setenv("IMPORT_MAX_CONCURRENT", "5")
	t.Setenv("IMPORT_DEFAULT_ALLOW_CONTACT", "false")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9000 {
		t.Errorf("Port = %d", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("ReadTimeout = %v", cfg.Server.ReadTimeout)
	}
	if cfg.Import.MaxConcurrent != 5 {
		t.Errorf("MaxConcurrent = %d", cfg.Import.MaxConcurrent)
	}
	if cfg.Import.DefaultAllowEmployerContact {
		t.Error("DefaultAllowEmployerContact should be false")
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("Format = %s", cfg.Logging.Format)
	}
}

func TestLoadAltDatabaseEnv(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "postgres://alt:5432/gradimport")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.URL != "postgres://alt:5432/gradimport" {
		t.Errorf("URL = %s", cfg.Database.URL)
	}
}

func TestLoadMissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "DATABASE_URL") {
		t.Errorf("err = %v, want missing DATABASE_URL", err)
	}
}

func TestLoadInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad int", "SERVER_PORT", "eighty"},
		{"bad duration", "SERVER_READ_TIMEOUT", "soon"},
		{"bad bool", "IMPORT_DEFAULT_JOB_SEARCH", "perhaps"},
		{"port out of range", "SERVER_PORT", "70000"},
		{"min conns above max", "DB_MIN_CONNS", "50"},
		{"bad log level", "LOG_LEVEL", "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequiredEnv(t)
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Load with %s=%s succeeded, want error", tt.key, tt.value)
			}
		})
	}
}

func TestConfigStringMasksURL(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	s := cfg.String()
	if strings.Contains(s, "postgres://") {
		t.Errorf("String() leaks database URL: %s", s)
	}
	if !strings.Contains(s, "[MASKED]") {
		t.Errorf("String() missing mask: %s", s)
	}
}
