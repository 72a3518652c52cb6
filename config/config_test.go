package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "APP_ENV", "DATABASE_URL", "LOG_LEVEL", "ADMIN_PASSWORD",
		"SECURE_COOKIES", "FETCH_TIMEOUT", "FETCH_MAX_BYTES", "OTEL_ENABLED", "OTEL_SAMPLING_RATE",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != "8080" {
		t.Errorf("want port 8080, got %s", cfg.Port)
	}
	if cfg.AdminPassword != "admin123" {
		t.Errorf("want default admin password, got %s", cfg.AdminPassword)
	}
	if cfg.FetchTimeout != 15*time.Second {
		t.Errorf("want fetch timeout 15s, got %s", cfg.FetchTimeout)
	}
	if cfg.FetchMaxBytes != 1<<20 {
		t.Errorf("want fetch max bytes 1MiB, got %d", cfg.FetchMaxBytes)
	}
	if cfg.SecureCookies || cfg.OtelEnabled {
		t.Error("want secure cookies and otel disabled by default")
	}
	if cfg.OtelSamplingRate != 1.0 {
		t.Errorf("want sampling rate 1.0, got %f", cfg.OtelSamplingRate)
	}
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DATABASE_URL", "mongodb://localhost/app")
	t.Setenv("ADMIN_PASSWORD", "s3cret")
	t.Setenv("SECURE_COOKIES", "true")
	t.Setenv("FETCH_TIMEOUT", "3s")
	t.Setenv("FETCH_MAX_BYTES", "4096")
	t.Setenv("OTEL_SAMPLING_RATE", "0.25")

	cfg := Load()

	if cfg.Port != "9090" {
		t.Errorf("want port 9090, got %s", cfg.Port)
	}
	if cfg.DatabaseURL != "mongodb://localhost/app" {
		t.Errorf("unexpected database url: %s", cfg.DatabaseURL)
	}
	if cfg.AdminPassword != "s3cret" {
		t.Errorf("unexpected admin password: %s", cfg.AdminPassword)
	}
	if !cfg.SecureCookies {
		t.Error("want secure cookies")
	}
	if cfg.FetchTimeout != 3*time.Second {
		t.Errorf("want fetch timeout 3s, got %s", cfg.FetchTimeout)
	}
	if cfg.FetchMaxBytes != 4096 {
		t.Errorf("want fetch max bytes 4096, got %d", cfg.FetchMaxBytes)
	}
	if cfg.OtelSamplingRate != 0.25 {
		t.Errorf("want sampling rate 0.25, got %f", cfg.OtelSamplingRate)
	}
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("SECURE_COOKIES", "maybe")
	t.Setenv("FETCH_TIMEOUT", "-1s")
	t.Setenv("FETCH_MAX_BYTES", "lots")
	t.Setenv("OTEL_SAMPLING_RATE", "2")

	cfg := Load()

	if cfg.SecureCookies {
		t.Error("want secure cookies false")
	}
	if cfg.FetchTimeout != 15*time.Second {
		t.Errorf("want default fetch timeout, got %s", cfg.FetchTimeout)
	}
	if cfg.FetchMaxBytes != 1<<20 {
		t.Errorf("want default fetch max bytes, got %d", cfg.FetchMaxBytes)
	}
	if cfg.OtelSamplingRate != 1.0 {
		t.Errorf("want default sampling rate, got %f", cfg.OtelSamplingRate)
	}
}
