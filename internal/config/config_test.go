package config

import (
	"strings"
	"testing"
	"time"

	"github.com/mmynk/splitledger/internal/models"
)

func validConfig() Config {
	return Config{
		Port:            "8080",
		ShutdownTimeout: 10 * time.Second,
		DataBackend:     BackendSQLite,
		SQLiteDBPath:    "./test.db",
		SnapshotKey:     "default",
		BlobContainer:   "splitledger",
		LogFormat:       "text",
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		wantErr     bool
		errorString string
	}{
		{
			name:   "valid sqlite backend config",
			mutate: func(c *Config) {},
		},
		{
			name:   "valid memory backend without db path",
			mutate: func(c *Config) { c.DataBackend = BackendMemory; c.SQLiteDBPath = "" },
		},
		{
			name: "valid azblob backend",
			mutate: func(c *Config) {
				c.DataBackend = BackendAzBlob
				c.BlobURL = "http://127.0.0.1:10000/devstoreaccount1"
			},
		},
		{
			name:        "invalid port - non-numeric",
			mutate:      func(c *Config) { c.Port = "abc" },
			wantErr:     true,
			errorString: "invalid port 'abc': must be a number",
		},
		{
			name:        "invalid port - out of range high",
			mutate:      func(c *Config) { c.Port = "70000" },
			wantErr:     true,
			errorString: "invalid port 70000: must be between 1 and 65535",
		},
		{
			name:        "invalid backend",
			mutate:      func(c *Config) { c.DataBackend = "sheets" },
			wantErr:     true,
			errorString: "invalid data backend 'sheets'",
		},
		{
			name:        "sqlite without path",
			mutate:      func(c *Config) { c.SQLiteDBPath = "" },
			wantErr:     true,
			errorString: "SQLite database path cannot be empty",
		},
		{
			name:        "azblob without url",
			mutate:      func(c *Config) { c.DataBackend = BackendAzBlob },
			wantErr:     true,
			errorString: "BLOB_SERVICE_URL is required",
		},
		{
			name: "azblob with bad url",
			mutate: func(c *Config) {
				c.DataBackend = BackendAzBlob
				c.BlobURL = "ftp://example.com"
			},
			wantErr:     true,
			errorString: "invalid blob service URL",
		},
		{
			name:        "shutdown timeout too short",
			mutate:      func(c *Config) { c.ShutdownTimeout = 10 * time.Millisecond },
			wantErr:     true,
			errorString: "invalid shutdown timeout",
		},
		{
			name:        "bad log format",
			mutate:      func(c *Config) { c.LogFormat = "xml" },
			wantErr:     true,
			errorString: "invalid log format 'xml'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errorString) {
				t.Errorf("Validate() error = %q, want to contain %q", err.Error(), tt.errorString)
			}
		})
	}
}

func TestConfig_ValidateReportsAllProblems(t *testing.T) {
	cfg := validConfig()
	cfg.Port = "abc"
	cfg.DataBackend = "nope"
	cfg.SnapshotKey = " "

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if got := strings.Count(err.Error(), "\n- "); got != 3 {
		t.Errorf("expected 3 problems, got %d in %q", got, err.Error())
	}
}

func TestLoad(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("CATEGORIES", "Food, Rent ,,Travel")
	t.Setenv("SNAPSHOT_KEY", "")

	cfg := Load()
	if cfg.Port != "9090" || cfg.Addr() != ":9090" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.DataBackend != BackendMemory {
		t.Errorf("DataBackend = %q", cfg.DataBackend)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Errorf("ShutdownTimeout = %v", cfg.ShutdownTimeout)
	}
	if cfg.SnapshotKey != "default" {
		t.Errorf("SnapshotKey = %q, want default", cfg.SnapshotKey)
	}

	got := cfg.CategoryProvider().Categories()
	want := []string{"Food", "Rent", "Travel", models.CategoryOther}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Categories = %v, want %v", got, want)
	}
}

func TestCategoryProvider_Default(t *testing.T) {
	cfg := validConfig()
	got := cfg.CategoryProvider().Categories()
	if len(got) != len(models.DefaultCategories) {
		t.Errorf("Categories = %v", got)
	}
}
