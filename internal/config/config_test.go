package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"SALON_API_URL", "SALON_API_TOKEN", "HTTP_TIMEOUT", "LOG_LEVEL", "LOG_FORMAT",
		"BOOKING_TIMEZONE", "SUBMIT_GUARD_ENABLED", "SUBMIT_MAX_PER_WINDOW", "SUBMIT_WINDOW",
		"PORT", "MOCK_RATE_LIMIT_RPS", "METRICS_PUSHGATEWAY_URL", "MOCK_TRUST_PROXY",
	} {
		t.Setenv(key, "")
	}
	cfg := Load()
	if cfg.APIBaseURL != "http://localhost:3333" {
		t.Fatalf("expected default api url, got %s", cfg.APIBaseURL)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Fatalf("expected default timeout, got %s", cfg.HTTPTimeout)
	}
	if cfg.LogFormat != "json" {
		t.Fatalf("expected json log format, got %s", cfg.LogFormat)
	}
	if cfg.SubmitGuardEnabled {
		t.Fatalf("expected submit guard disabled by default")
	}
	if cfg.SubmitMaxPerWindow != 5 {
		t.Fatalf("expected default submit cap, got %d", cfg.SubmitMaxPerWindow)
	}
	if cfg.SubmitWindow != 10*time.Minute {
		t.Fatalf("expected default submit window, got %s", cfg.SubmitWindow)
	}
	if cfg.MockRateLimitRPS != 20 {
		t.Fatalf("expected default rate limit, got %v", cfg.MockRateLimitRPS)
	}
	if cfg.Location() != time.Local {
		t.Fatalf("expected local timezone by default")
	}
	if cfg.MetricsPushURL != "" || cfg.MockTrustProxy {
		t.Fatalf("expected metrics push and proxy trust off by default")
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SALON_API_URL", "https://api.example.com/")
	t.Setenv("SALON_API_TOKEN", "tok")
	t.Setenv("HTTP_TIMEOUT", "3s")
	t.Setenv("LOG_FORMAT", "TEXT")
	t.Setenv("BOOKING_TIMEZONE", "America/Sao_Paulo")
	t.Setenv("SUBMIT_GUARD_ENABLED", "true")
	t.Setenv("SUBMIT_MAX_PER_WINDOW", "2")
	t.Setenv("SUBMIT_WINDOW", "1m")
	t.Setenv("MOCK_RATE_LIMIT_RPS", "2.5")
	t.Setenv("SALON_SESSION_FILE", "/tmp/barber.json")
	t.Setenv("METRICS_PUSHGATEWAY_URL", "http://pushgateway:9091/")
	t.Setenv("MOCK_TRUST_PROXY", "true")
	cfg := Load()
	if cfg.MetricsPushURL != "http://pushgateway:9091" {
		t.Fatalf("expected trimmed pushgateway url, got %s", cfg.MetricsPushURL)
	}
	if !cfg.MockTrustProxy {
		t.Fatalf("expected trust proxy override")
	}
	if cfg.SessionFile != "/tmp/barber.json" {
		t.Fatalf("expected session file override, got %s", cfg.SessionFile)
	}
	if cfg.APIBaseURL != "https://api.example.com" {
		t.Fatalf("expected trimmed api url, got %s", cfg.APIBaseURL)
	}
	if cfg.APIToken != "tok" {
		t.Fatalf("expected token override, got %s", cfg.APIToken)
	}
	if cfg.HTTPTimeout != 3*time.Second {
		t.Fatalf("expected timeout override, got %s", cfg.HTTPTimeout)
	}
	if cfg.LogFormat != "text" {
		t.Fatalf("expected lowercase log format, got %s", cfg.LogFormat)
	}
	if !cfg.SubmitGuardEnabled || cfg.SubmitMaxPerWindow != 2 || cfg.SubmitWindow != time.Minute {
		t.Fatalf("unexpected guard settings: %+v", cfg)
	}
	if cfg.MockRateLimitRPS != 2.5 {
		t.Fatalf("expected rate override, got %v", cfg.MockRateLimitRPS)
	}
	if got := cfg.Location().String(); got != "America/Sao_Paulo" {
		t.Fatalf("expected Sao Paulo location, got %s", got)
	}
}

func TestLocationUnknownFallsBackToLocal(t *testing.T) {
	cfg := &Config{BookingTimezone: "Mars/Olympus"}
	if cfg.Location() != time.Local {
		t.Fatalf("expected fallback to local zone")
	}
}

func TestInvalidNumbersUseDefaults(t *testing.T) {
	t.Setenv("SUBMIT_MAX_PER_WINDOW", "lots")
	t.Setenv("HTTP_TIMEOUT", "soon")
	cfg := Load()
	if cfg.SubmitMaxPerWindow != 5 {
		t.Fatalf("expected default cap, got %d", cfg.SubmitMaxPerWindow)
	}
	if cfg.HTTPTimeout != 15*time.Second {
		t.Fatalf("expected default timeout, got %s", cfg.HTTPTimeout)
	}
}
