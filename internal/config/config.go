package config

import (
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // BOOKING_TIMEZONE must resolve on hosts without a zoneinfo database
)

// Config holds application configuration
type Config struct {
	// Remote salon API
	APIBaseURL  string
	APIToken    string
	HTTPTimeout time.Duration
	// SessionFile persists the CLI session between invocations. Empty means
	// the user config directory.
	SessionFile string

	LogLevel  string
	LogFormat string
	// MetricsPushURL is a Prometheus Pushgateway the CLI pushes its client
	// metrics to after each command. Empty disables pushing.
	MetricsPushURL string

	// BookingTimezone is the zone used to build appointment timestamps and
	// to decide what "today" is. Empty or "Local" means the process zone.
	BookingTimezone string

	// Submission guard (optional, Redis-backed)
	RedisAddr          string
	RedisPassword      string
	SubmitGuardEnabled bool
	SubmitMaxPerWindow int
	SubmitWindow       time.Duration

	// Mock backend
	Port               string
	MockJWTSecret      string
	MockTokenTTL       time.Duration
	MockRateLimitRPS   float64
	MockRateLimitBurst int
	MockTrustProxy     bool
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		APIBaseURL:  strings.TrimRight(getEnv("SALON_API_URL", "http://localhost:3333"), "/"),
		APIToken:    getEnv("SALON_API_TOKEN", ""),
		HTTPTimeout: getEnvAsDuration("HTTP_TIMEOUT", 15*time.Second),
		SessionFile: getEnv("SALON_SESSION_FILE", ""),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: strings.ToLower(getEnv("LOG_FORMAT", "json")),

		MetricsPushURL: strings.TrimRight(getEnv("METRICS_PUSHGATEWAY_URL", ""), "/"),

		BookingTimezone: getEnv("BOOKING_TIMEZONE", "Local"),

		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		SubmitGuardEnabled: getEnvAsBool("SUBMIT_GUARD_ENABLED", false),
		SubmitMaxPerWindow: getEnvAsInt("SUBMIT_MAX_PER_WINDOW", 5),
		SubmitWindow:       getEnvAsDuration("SUBMIT_WINDOW", 10*time.Minute),

		Port:               getEnv("PORT", "3333"),
		MockJWTSecret:      getEnv("MOCK_JWT_SECRET", "dev-secret"),
		MockTokenTTL:       getEnvAsDuration("MOCK_TOKEN_TTL", 24*time.Hour),
		MockRateLimitRPS:   getEnvAsFloat("MOCK_RATE_LIMIT_RPS", 20),
		MockRateLimitBurst: getEnvAsInt("MOCK_RATE_LIMIT_BURST", 40),
		MockTrustProxy:     getEnvAsBool("MOCK_TRUST_PROXY", false),
	}
}

// Location resolves BookingTimezone, falling back to time.Local when the
// zone is unset or unknown.
func (c *Config) Location() *time.Location {
	name := strings.TrimSpace(c.BookingTimezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local
	}
	return loc
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
