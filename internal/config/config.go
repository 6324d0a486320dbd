// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mildmongrel/thicket/internal/room"
	"github.com/sirupsen/logrus"
)

// Server holds the draft server settings read from the environment.
type Server struct {
	Port        string
	LogLevel    logrus.Level
	CatalogPath string

	// RedisAddr is empty when history publishing is disabled.
	RedisAddr  string
	RedisDB    int
	EventQueue string

	// DatabaseURL is empty when deck persistence is disabled.
	DatabaseURL string

	Timeouts room.Timeouts
	TokenTTL time.Duration
}

// Historian holds the historian settings.
type Historian struct {
	LogLevel    logrus.Level
	RedisAddr   string
	RedisDB     int
	EventQueue  string
	DatabaseURL string
	BatchSize   int
	FlushDelay  time.Duration
	Inactivity  time.Duration
}

const DefaultEventQueue = "thicket_draft_events"

// LoadServer reads the server configuration:
//   - PORT (default 8080), LOG_LEVEL (default debug)
//   - CATALOG_PATH (default catalog.json)
//   - REDIS_ADDR, REDIS_DB, DRAFT_EVENT_QUEUE
//   - DATABASE_URL, or POSTGRES_USER / POSTGRES_PASSWORD / PG_HOST / PG_PORT / PG_DATABASE
//   - ROOM_CREATED_EXPIRATION, ROOM_ABANDONED_EXPIRATION, ROOM_EMPTY_EXPIRATION
//   - TOKEN_EXPIRE_TIME (0 disables expiry)
func LoadServer() Server {
	defaults := room.DefaultTimeouts()
	return Server{
		Port:        getEnv("PORT", "8080"),
		LogLevel:    getEnvLevel("LOG_LEVEL", logrus.DebugLevel),
		CatalogPath: getEnv("CATALOG_PATH", "catalog.json"),
		RedisAddr:   os.Getenv("REDIS_ADDR"),
		RedisDB:     getEnvInt("REDIS_DB", 0),
		EventQueue:  getEnv("DRAFT_EVENT_QUEUE", DefaultEventQueue),
		DatabaseURL: databaseURL(),
		Timeouts: room.Timeouts{
			Created:   getEnvDuration("ROOM_CREATED_EXPIRATION", defaults.Created),
			Abandoned: getEnvDuration("ROOM_ABANDONED_EXPIRATION", defaults.Abandoned),
			Empty:     getEnvDuration("ROOM_EMPTY_EXPIRATION", defaults.Empty),
			Tick:      defaults.Tick,
		},
		TokenTTL: getEnvDuration("TOKEN_EXPIRE_TIME", 24*time.Hour),
	}
}

// LoadHistorian reads the historian configuration. Redis and PostgreSQL are
// required, so their defaults point at localhost.
func LoadHistorian() Historian {
	dsn := databaseURL()
	if dsn == "" {
		dsn = "postgres://localhost:5432/thicket"
	}
	return Historian{
		LogLevel:    getEnvLevel("LOG_LEVEL", logrus.DebugLevel),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:     getEnvInt("REDIS_DB", 0),
		EventQueue:  getEnv("DRAFT_EVENT_QUEUE", DefaultEventQueue),
		DatabaseURL: dsn,
		BatchSize:   getEnvInt("HISTORIAN_BATCH_SIZE", 20),
		FlushDelay:  time.Duration(getEnvInt("HISTORIAN_FLUSH_MS", 500)) * time.Millisecond,
		Inactivity:  time.Duration(getEnvInt("DRAFT_INACTIVITY_TIMEOUT_SEC", 1800)) * time.Second,
	}
}

func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	if os.Getenv("PG_HOST") == "" {
		return ""
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("PG_HOST"),
		getEnv("PG_PORT", "5432"),
		os.Getenv("PG_DATABASE"),
	)
}

// getEnv reads an environment variable or returns a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt parses an environment variable as an integer, else the default.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// getEnvDuration accepts Go duration strings ("90s") or plain seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func getEnvLevel(key string, def logrus.Level) logrus.Level {
	lvl, err := logrus.ParseLevel(os.Getenv(key))
	if err != nil {
		return def
	}
	return lvl
}
