package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds live-scoring-service configuration.
type Config struct {
	AppEnv   string // APP_ENV
	AppHost  string // APP_HOST
	HTTPPort string // APP_PORT or HTTP_PORT
	LogLevel string // LOG_LEVEL

	// PostgreSQL
	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Database string
		SSLMode  string
	}

	// WebSocket
	WSReadBufferSize  int
	WSWriteBufferSize int
	WSSendBuffer      int

	// Broadcast liveness. Tied to typical hosting idle-connection timeouts;
	// tunable, not invariant.
	PingInterval   time.Duration
	StaleThreshold time.Duration

	// Attach tickets
	TicketSecret string
	TicketTTL    time.Duration

	// Stale-session sweep (independent of connection liveness)
	SessionSweepInterval time.Duration
	SessionMaxAge        time.Duration

	// WebSocket URL base returned in ticket responses (e.g. wss://live.example.com)
	WSBaseURL string
}

// Load loads config from environment (.env if present).
func Load() (*Config, error) {
	_ = godotenv.Load()

	readBuf, _ := strconv.Atoi(getEnv("WS_READ_BUFFER_SIZE", "4096"))
	writeBuf, _ := strconv.Atoi(getEnv("WS_WRITE_BUFFER_SIZE", "4096"))
	sendBuf, _ := strconv.Atoi(getEnv("WS_SEND_BUFFER", "64"))

	cfg := &Config{
		AppEnv:               getEnv("APP_ENV", "development"),
		AppHost:              getEnv("APP_HOST", "0.0.0.0"),
		HTTPPort:             firstEnv("APP_PORT", "HTTP_PORT", "8091"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		WSReadBufferSize:     readBuf,
		WSWriteBufferSize:    writeBuf,
		WSSendBuffer:         sendBuf,
		PingInterval:         durationEnv("BROADCAST_PING_INTERVAL", 30*time.Second),
		StaleThreshold:       durationEnv("BROADCAST_STALE_THRESHOLD", 120*time.Second),
		TicketSecret:         getEnv("TICKET_SECRET", "dev-ticket-secret"),
		TicketTTL:            durationEnv("TICKET_TTL", 30*time.Second),
		SessionSweepInterval: durationEnv("SESSION_SWEEP_INTERVAL", 10*time.Minute),
		SessionMaxAge:        durationEnv("SESSION_MAX_AGE", 8*time.Hour),
		WSBaseURL:            getEnv("WS_BASE_URL", ""),
	}
	cfg.DB.Host = getEnv("DB_HOST", "localhost")
	cfg.DB.Port = getEnv("DB_PORT", "5432")
	cfg.DB.User = getEnv("DB_USER", "postgres")
	cfg.DB.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.DB.Database = getEnv("DB_DATABASE", "live_scoring_service")
	cfg.DB.SSLMode = getEnv("DB_SSLMODE", "disable")
	return cfg, nil
}

// Validate checks required fields and production safety.
func (c *Config) Validate() error {
	if c.DB.Host == "" {
		return errors.New("config: DB_HOST is required")
	}
	if c.DB.User == "" {
		return errors.New("config: DB_USER is required")
	}
	if c.DB.Database == "" {
		return errors.New("config: DB_DATABASE is required")
	}
	if c.AppEnv == "production" {
		if c.DB.Password == "" {
			return errors.New("config: in production DB_PASSWORD is required")
		}
		if c.TicketSecret == "" || c.TicketSecret == "dev-ticket-secret" {
			return errors.New("config: in production TICKET_SECRET is required")
		}
	}
	if c.PingInterval <= 0 || c.StaleThreshold <= c.PingInterval {
		return errors.New("config: BROADCAST_STALE_THRESHOLD must exceed BROADCAST_PING_INTERVAL")
	}
	return nil
}

// DSN returns the PostgreSQL connection string for GORM.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

// DatabaseURL returns the postgres URL for golang-migrate.
func (c *Config) DatabaseURL() string {
	pass := url.QueryEscape(c.DB.Password)
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DB.User, pass, c.DB.Host, c.DB.Port, c.DB.Database, c.DB.SSLMode)
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return c.AppHost + ":" + c.HTTPPort
}

func durationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func firstEnv(keysAndDef ...string) string {
	if len(keysAndDef) == 0 {
		return ""
	}
	def := keysAndDef[len(keysAndDef)-1]
	keys := keysAndDef[:len(keysAndDef)-1]
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
