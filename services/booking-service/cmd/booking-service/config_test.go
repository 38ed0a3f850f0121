package main

import (
	"strings"
	"testing"
	"time"
)

func TestLoadConfigMemoryDefaults(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "memory")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("PORT", "")
	t.Setenv("BOOKING_TIMEZONE", "Africa/Cairo")
	t.Setenv("BOOKING_COMMIT_TIMEOUT", "")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Port != "8083" || cfg.CommitTimeout != 5*time.Second || cfg.Location.String() != "Africa/Cairo" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadConfigReportsEveryProblem(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWKS_URL", "")
	t.Setenv("BOOKING_TIMEZONE", "Mars/Olympus")

	_, err := loadConfig()
	if err == nil {
		t.Fatal("expected configuration errors")
	}
	for _, want := range []string{"DATABASE_URL", "JWT_SECRET", "BOOKING_TIMEZONE"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("expected %s in %q", want, err)
		}
	}
}

func TestLoadConfigRejectsUnknownBackend(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "sqlite")
	t.Setenv("JWT_SECRET", "s3cret")
	if _, err := loadConfig(); err == nil || !strings.Contains(err.Error(), "STORAGE_BACKEND") {
		t.Fatalf("expected backend error, got %v", err)
	}
}
