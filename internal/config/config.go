package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/tair/inventory-scanner/pkg/database"
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config is the scanner service configuration
type Config struct {
	ServiceName string
	Environment string
	LogLevel    string

	HTTPPort       string
	GRPCPort       string
	RequestTimeout time.Duration

	StoreDriver string
	Database    database.Config

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	KafkaBrokers []string
	KafkaGroupID string

	JWTSecret string
	JWTTTL    time.Duration

	TracingEnabled bool
	JaegerEndpoint string

	SessionLockTTL        time.Duration
	NotificationInboxSize int
	CaptureFrameBuffer    int

	LoginRateLimit  int
	LoginRateWindow time.Duration

	// Seeded on startup when AdminEmail is set and not registered yet
	AdminEmail          string
	AdminPassword       string
	AdminOrganizationID string
}

// IsDevelopment reports whether the service runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Load reads an optional .env file, then the process environment
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{
		ServiceName:    getEnv("OTEL_SERVICE_NAME", "scanner-service"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		HTTPPort:       getEnv("HTTP_PORT", "8084"),
		GRPCPort:       getEnv("GRPC_PORT", "9094"),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 30*time.Second),
		StoreDriver:    getEnv("STORE_DRIVER", StoreDriverPostgres),
		Database: database.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "scannerdb"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		RedisAddr:             getEnv("REDIS_ADDR", ""),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		RedisDB:               getInt("REDIS_DB", 0),
		KafkaBrokers:          getList("KAFKA_BROKERS"),
		KafkaGroupID:          getEnv("KAFKA_GROUP_ID", "scanner-reports"),
		JWTSecret:             getEnv("JWT_SECRET", ""),
		JWTTTL:                getDuration("JWT_TTL", 24*time.Hour),
		TracingEnabled:        getBool("TRACING_ENABLED", true),
		JaegerEndpoint:        getEnv("JAEGER_ENDPOINT", ""),
		SessionLockTTL:        getDuration("SESSION_LOCK_TTL", 10*time.Second),
		NotificationInboxSize: getInt("NOTIFICATION_INBOX_SIZE", 50),
		CaptureFrameBuffer:    getInt("CAPTURE_FRAME_BUFFER", 4),
		LoginRateLimit:        getInt("LOGIN_RATE_LIMIT", 10),
		LoginRateWindow:       getDuration("LOGIN_RATE_WINDOW", time.Minute),
		AdminEmail:            getEnv("ADMIN_EMAIL", ""),
		AdminPassword:         getEnv("ADMIN_PASSWORD", ""),
		AdminOrganizationID:   getEnv("ADMIN_ORGANIZATION_ID", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StoreDriver {
	case StoreDriverPostgres, StoreDriverMemory:
	default:
		return errors.New("STORE_DRIVER must be postgres or memory")
	}
	if c.JWTSecret == "" {
		if !c.IsDevelopment() {
			return errors.New("JWT_SECRET is required outside development")
		}
		c.JWTSecret = "development-secret"
	}
	if c.AdminEmail != "" && len(c.AdminPassword) < 8 {
		return errors.New("ADMIN_PASSWORD must be at least 8 characters when ADMIN_EMAIL is set")
	}
	if c.NotificationInboxSize <= 0 {
		c.NotificationInboxSize = 50
	}
	if c.CaptureFrameBuffer <= 0 {
		c.CaptureFrameBuffer = 1
	}
	if c.LoginRateWindow <= 0 {
		c.LoginRateWindow = time.Minute
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getList(key string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
