package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures process level configuration for the API server and CLI.
type Server struct {
	Addr      string
	LogLevel  string
	LogFormat string

	DatabaseURL string
	Redis       RedisConfig
	Kafka       KafkaConfig
	Auth        AuthConfig
	Blob        BlobConfig
	Search      SearchConfig
	Report      ReportConfig
	RateLimit   RateLimitConfig

	// ApprovalWorkflow starts new inspections and outreach visits as pending.
	ApprovalWorkflow bool
}

// RedisConfig is optional; an empty URL disables the search cache backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig is optional; no brokers means audit events stay local.
type KafkaConfig struct {
	Brokers    []string
	AuditTopic string
}

type AuthConfig struct {
	JWTSigningKey string
	Issuer        string
	Audience      string
	TokenTTL      time.Duration
}

type BlobConfig struct {
	Dir     string
	BaseURL string
}

type SearchConfig struct {
	Debounce time.Duration
	CacheTTL time.Duration
}

// RateLimitConfig caps exports per operator; a zero limit disables it.
type RateLimitConfig struct {
	ExportLimit  int
	ExportWindow time.Duration
}

type ReportConfig struct {
	Timezone string
	Brand    string
}

// Load reads an optional .env file and then the environment. Values already
// present in the environment win over the file.
func Load(files ...string) Server {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			_ = godotenv.Load(f)
		}
	}
	return FromEnv()
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:        getEnv("ADDR", ":8080"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFormat:   getEnv("LOG_FORMAT", "json"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 500*time.Millisecond),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 500*time.Millisecond),
		},
		Kafka: KafkaConfig{
			Brokers:    splitList(os.Getenv("KAFKA_BROKERS")),
			AuditTopic: getEnv("AUDIT_TOPIC", "agristack.audit"),
		},
		Auth: AuthConfig{
			// Development default; production deployments must override it.
			JWTSigningKey: getEnv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:        getEnv("JWT_ISSUER", "agristack"),
			Audience:      getEnv("JWT_AUDIENCE", "agristack-console"),
			TokenTTL:      getDuration("JWT_TOKEN_TTL", 12*time.Hour),
		},
		Blob: BlobConfig{
			Dir:     getEnv("BLOB_DIR", "./data/uploads"),
			BaseURL: getEnv("BLOB_BASE_URL", "/uploads"),
		},
		Search: SearchConfig{
			Debounce: getDuration("SEARCH_DEBOUNCE", 300*time.Millisecond),
			CacheTTL: getDuration("SEARCH_CACHE_TTL", 0),
		},
		Report: ReportConfig{
			Timezone: getEnv("REPORT_TIMEZONE", "Asia/Kolkata"),
			Brand:    getEnv("REPORT_BRAND", "Department of Agriculture"),
		},
		RateLimit: RateLimitConfig{
			ExportLimit:  getInt("EXPORT_RATE_LIMIT", 20),
			ExportWindow: getDuration("EXPORT_RATE_WINDOW", time.Minute),
		},
		ApprovalWorkflow: getBool("APPROVAL_WORKFLOW", false),
	}
}

// Location resolves the report timezone, falling back to UTC.
func (c ReportConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
