// Package config builds the platform configuration from environment variables
// with development defaults, so main stays lean and deploys configure via env.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the root configuration for the platform binary.
type Config struct {
	Server    Server
	JWT       JWT
	Redis     Redis
	Postgres  Postgres
	Kafka     Kafka
	RateLimit RateLimit
	Documents Documents
	SeedDemo  bool
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// JWT holds token issuance settings shared by the auth service and middleware.
type JWT struct {
	SigningKey      string
	Issuer          string
	Audience        string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// Redis configures the optional Redis backend for session revocation.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Postgres configures the optional Postgres backend for audit and compliance
// stores. Empty URL means in-memory stores.
type Postgres struct {
	URL string
}

// Kafka configures the optional audit event sink.
type Kafka struct {
	Brokers    []string
	AuditTopic string
}

// RateLimit configures the request limiter.
type RateLimit struct {
	Disabled        bool
	PublicLimit     int
	PublicWindow    time.Duration
	AuthLimit       int
	AuthWindow      time.Duration
	LockoutAttempts int
	LockoutWindow   time.Duration
}

// Documents bounds uploads handled by the document service.
type Documents struct {
	MaxUploadBytes int64
}

// FromEnv builds a Config from environment variables. Every value has a
// development default; production deployments override via env.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            getEnv("RBI_PLATFORM_ADDR", ":8080"),
			RequestTimeout:  getDuration("REQUEST_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		JWT: JWT{
			// Default is for development only; override in production.
			SigningKey:      getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:          getEnv("JWT_ISSUER", "rbi-platform"),
			Audience:        getEnv("JWT_AUDIENCE", "rbi-platform-api"),
			AccessTokenTTL:  getDuration("ACCESS_TOKEN_TTL", 15*time.Minute),
			RefreshTokenTTL: getDuration("REFRESH_TOKEN_TTL", 30*24*time.Hour),
		},
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Postgres: Postgres{
			URL: os.Getenv("DATABASE_URL"),
		},
		Kafka: Kafka{
			Brokers:    getList("KAFKA_BROKERS"),
			AuditTopic: getEnv("KAFKA_AUDIT_TOPIC", "rbi-platform.audit"),
		},
		RateLimit: RateLimit{
			Disabled:        os.Getenv("RATE_LIMIT_DISABLED") == "true",
			PublicLimit:     getInt("RATE_LIMIT_PUBLIC", 100),
			PublicWindow:    getDuration("RATE_LIMIT_PUBLIC_WINDOW", time.Minute),
			AuthLimit:       getInt("RATE_LIMIT_AUTH", 10),
			AuthWindow:      getDuration("RATE_LIMIT_AUTH_WINDOW", time.Minute),
			LockoutAttempts: getInt("AUTH_LOCKOUT_ATTEMPTS", 5),
			LockoutWindow:   getDuration("AUTH_LOCKOUT_WINDOW", 15*time.Minute),
		},
		Documents: Documents{
			MaxUploadBytes: getInt64("DOCUMENT_MAX_UPLOAD_BYTES", 25<<20),
		},
		SeedDemo: os.Getenv("SEED_DEMO_DATA") == "true",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
