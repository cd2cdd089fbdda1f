package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort     string
	APIURL         string
	AllowedOrigins []string

	HTTPTimeout       time.Duration
	AccessCookie      string
	RefreshAhead      time.Duration
	GuardCheckTimeout time.Duration
	WorkspaceIdleTTL  time.Duration

	BreakerMaxRequests         uint32
	BreakerTimeout             time.Duration
	BreakerConsecutiveFailures uint32

	LogFile  string
	LogLevel string

	ServiceName string
}

// LoadEnv reads the dotenv file into the process environment. A missing
// file is reported but is not fatal; variables may come from the shell.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return os.ErrNotExist
	}
	return godotenv.Load(existing...)
}

func Load() Config {
	return Config{
		ServerPort:     readString("SERVER_PORT", "4200"),
		APIURL:         strings.TrimRight(readString("API_URL", "http://localhost:8080/api"), "/"),
		AllowedOrigins: readList("ALLOWED_ORIGINS", []string{"http://localhost:4200"}),

		HTTPTimeout:       readDuration("HTTP_TIMEOUT", 15*time.Second),
		AccessCookie:      readString("ACCESS_TOKEN_COOKIE", "accessToken"),
		RefreshAhead:      readDuration("REFRESH_AHEAD", 0),
		GuardCheckTimeout: readDuration("GUARD_CHECK_TIMEOUT", 10*time.Second),
		WorkspaceIdleTTL:  readDuration("WORKSPACE_IDLE_TTL", 30*time.Minute),

		BreakerMaxRequests:         uint32(readInt("BREAKER_MAX_REQUESTS", 1)),
		BreakerTimeout:             readDuration("BREAKER_TIMEOUT", 5*time.Second),
		BreakerConsecutiveFailures: uint32(readInt("BREAKER_CONSECUTIVE_FAILURES", 3)),

		LogFile:  os.Getenv("LOG_FILE"),
		LogLevel: readString("LOG_LEVEL", "info"),

		ServiceName: readString("SERVICE_NAME", "web-client"),
	}
}

func readString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func readInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func readDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value < 0 {
		return fallback
	}
	return value
}

func readList(key string, fallback []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
