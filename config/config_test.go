package config

import (
	"os"
	"reflect"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	unset(t, "SERVER_PORT", "PORT", "NEXO_SECRET_KEY", "SESSION_TTL", "UPLOAD_ALLOWED_EXTENSIONS", "STORAGE_BACKEND", "MQ_BACKEND")

	cfg := LoadConfig()

	if cfg.ServerPort != 5000 {
		t.Errorf("ServerPort = %d, want 5000", cfg.ServerPort)
	}
	if cfg.Session.Secret != DefaultSessionSecret {
		t.Errorf("Session.Secret = %q, want default", cfg.Session.Secret)
	}
	if cfg.Session.TTL != 12*time.Hour {
		t.Errorf("Session.TTL = %v, want 12h", cfg.Session.TTL)
	}
	if want := []string{".xlsx", ".xls"}; !reflect.DeepEqual(cfg.Upload.AllowedExtensions, want) {
		t.Errorf("AllowedExtensions = %v, want %v", cfg.Upload.AllowedExtensions, want)
	}
	if cfg.Storage.Backend != "local" {
		t.Errorf("Storage.Backend = %q, want local", cfg.Storage.Backend)
	}
	if cfg.MQ.Backend != "none" {
		t.Errorf("MQ.Backend = %q, want none", cfg.MQ.Backend)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	unset(t, "SERVER_PORT")
	t.Setenv("PORT", "8081")
	t.Setenv("NEXO_SECRET_KEY", "s3cret")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("UPLOAD_ALLOWED_EXTENSIONS", "XLSX, csv ,,")
	t.Setenv("DB_USE_SSL", "true")

	cfg := LoadConfig()

	if cfg.ServerPort != 8081 {
		t.Errorf("ServerPort = %d, want PORT fallback 8081", cfg.ServerPort)
	}
	if cfg.Session.Secret != "s3cret" {
		t.Errorf("Session.Secret = %q", cfg.Session.Secret)
	}
	if cfg.Session.TTL != 30*time.Minute {
		t.Errorf("Session.TTL = %v", cfg.Session.TTL)
	}
	if want := []string{".xlsx", ".csv"}; !reflect.DeepEqual(cfg.Upload.AllowedExtensions, want) {
		t.Errorf("AllowedExtensions = %v, want %v", cfg.Upload.AllowedExtensions, want)
	}
	if !cfg.Database.UseSSL {
		t.Errorf("Database.UseSSL = false, want true")
	}
}

func TestDatabaseURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  DatabaseConfig
		want string
	}{
		{
			name: "plain",
			cfg:  DatabaseConfig{Host: "db", Port: 5432, User: "nexo", Password: "pw", DBName: "nexo_rrhh"},
			want: "postgres://nexo:pw@db:5432/nexo_rrhh?sslmode=disable",
		},
		{
			name: "ssl and escaped password",
			cfg:  DatabaseConfig{Host: "db", Port: 6543, User: "nexo", Password: "p@ss", DBName: "x", UseSSL: true},
			want: "postgres://nexo:p%40ss@db:6543/x?sslmode=require",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.URL(); got != tt.want {
				t.Errorf("URL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGetEnvIntInvalidFallsBack(t *testing.T) {
	t.Setenv("NEXO_TEST_INT", "abc")
	if got := getEnvInt("NEXO_TEST_INT", 7); got != 7 {
		t.Errorf("getEnvInt = %d, want 7", got)
	}
}

// unset clears keys for the duration of the test; t.Setenv restores them.
func unset(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unset %s: %v", key, err)
		}
	}
}
