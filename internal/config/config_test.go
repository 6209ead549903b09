package config

import (
	"strings"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", ":memory:")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "5000" {
		t.Fatalf("expected default port 5000, got %q", cfg.Port)
	}
	if cfg.BcryptCost != 10 {
		t.Fatalf("expected bcrypt cost 10, got %d", cfg.BcryptCost)
	}
	if cfg.BlobBackend != "disk" || cfg.UploadDir != "uploads" {
		t.Fatalf("unexpected blob settings: %q %q", cfg.BlobBackend, cfg.UploadDir)
	}
	if cfg.EventsEnabled {
		t.Fatalf("events should be disabled by default")
	}
	if len(cfg.CORSOrigins) != 1 || cfg.CORSOrigins[0] != "*" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("APP_PORT", "8088")
	t.Setenv("BCRYPT_COST", "12")
	t.Setenv("EVENTS_ENABLED", "yes")
	t.Setenv("BLOB_TTL", "48h")
	t.Setenv("CORS_ORIGINS", "http://a.test, http://b.test ,")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8088" || cfg.BcryptCost != 12 || !cfg.EventsEnabled {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.BlobTTL != 48*time.Hour {
		t.Fatalf("unexpected blob ttl: %v", cfg.BlobTTL)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "http://b.test" {
		t.Fatalf("unexpected cors origins: %v", cfg.CORSOrigins)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]struct {
		key, value, want string
	}{
		"short secret":  {"JWT_SECRET", "short", "JWT_SECRET"},
		"bad driver":    {"DB_DRIVER", "oracle", "DB_DRIVER"},
		"bad cost":      {"BCRYPT_COST", "abc", "BCRYPT_COST"},
		"cost too high": {"BCRYPT_COST", "40", "BCRYPT_COST"},
		"bad backend":   {"BLOB_BACKEND", "s3", "BLOB_BACKEND"},
		"bad bool":      {"EVENTS_ENABLED", "maybe", "EVENTS_ENABLED"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			setBaseEnv(t)
			t.Setenv(tc.key, tc.value)
			_, err := Load()
			if err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.value)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %s", err, tc.want)
			}
		})
	}
}

func TestLoadRequiresMySQLSettings(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DB_DRIVER", "mysql")
	t.Setenv("DB_USER", "")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "DB_USER") {
		t.Fatalf("expected missing DB_USER error, got %v", err)
	}
}

func TestLoadRequiresSecret(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_SECRET", "")
	if _, err := Load(); err == nil {
		t.Fatalf("expected missing JWT_SECRET error")
	}
}
