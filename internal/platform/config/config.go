package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the full process configuration, built from the environment so main stays lean.
type Config struct {
	Server     Server
	Database   Database
	Redis      Redis
	Kafka      Kafka
	Issuance   Issuance
	StatusList StatusList
	Issuer     Issuer
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr        string
	Environment string
	LogLevel    string
	AdminToken  string // plaintext token or its bcrypt hash
}

// Database configures the Postgres pool. An empty URL selects in-memory stores.
type Database struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	TxTimeout       time.Duration
}

// Redis configures the client used by the Redis status-list publisher.
type Redis struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Kafka configures the event relay. Empty brokers disable publishing.
type Kafka struct {
	Brokers      string
	EventsTopic  string
	Acks         string
	PollInterval time.Duration
}

// Issuance configures the polling state machine.
type Issuance struct {
	RetryLimit        int
	BatchSize         int
	Concurrency       int
	PollInterval      time.Duration
	LeaseDuration     time.Duration
	BackoffInitial    time.Duration
	BackoffMax        time.Duration
	BackoffMultiplier float64
	DeliveryTimeout   time.Duration
}

// StatusList configures bitstring allocation and publication.
type StatusList struct {
	BitstringSize int
	Validity      time.Duration
	Publisher     string // "local" or "redis"
	BaseURL       string
}

// Issuer seeds the participant directory with the issuing tenant.
// SigningKeyPEM holds a PEM encoded P-256 private key; when empty an
// ephemeral key is generated at startup.
type Issuer struct {
	ParticipantContextID string
	DID                  string
	KeyID                string
	SigningKeyPEM        string
}

// FromEnv builds a Config from environment variables with development defaults.
func FromEnv() Config {
	addr := getString("ISSUER_ADDR", ":8080")
	return Config{
		Server: Server{
			Addr:        addr,
			Environment: getString("ENVIRONMENT", "development"),
			LogLevel:    getString("LOG_LEVEL", "info"),
			AdminToken:  os.Getenv("ADMIN_TOKEN"),
		},
		Database: Database{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
			TxTimeout:       getDuration("DATABASE_TX_TIMEOUT", 5*time.Second),
		},
		Redis: Redis{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: Kafka{
			Brokers:      os.Getenv("KAFKA_BROKERS"),
			EventsTopic:  getString("KAFKA_EVENTS_TOPIC", "vcissuer.events"),
			Acks:         getString("KAFKA_ACKS", "all"),
			PollInterval: getDuration("OUTBOX_POLL_INTERVAL", 250*time.Millisecond),
		},
		Issuance: Issuance{
			RetryLimit:        getInt("ISSUANCE_RETRY_LIMIT", 3),
			BatchSize:         getInt("ISSUANCE_BATCH_SIZE", 5),
			Concurrency:       getInt("ISSUANCE_CONCURRENCY", 4),
			PollInterval:      getDuration("ISSUANCE_POLL_INTERVAL", time.Second),
			LeaseDuration:     getDuration("ISSUANCE_LEASE_DURATION", time.Minute),
			BackoffInitial:    getDuration("ISSUANCE_BACKOFF_INITIAL", time.Second),
			BackoffMax:        getDuration("ISSUANCE_BACKOFF_MAX", 5*time.Minute),
			BackoffMultiplier: getFloat("ISSUANCE_BACKOFF_MULTIPLIER", 2),
			DeliveryTimeout:   getDuration("ISSUANCE_DELIVERY_TIMEOUT", 10*time.Second),
		},
		StatusList: StatusList{
			BitstringSize: getInt("STATUSLIST_BITSTRING_SIZE", 16*1024),
			Validity:      getDuration("STATUSLIST_VALIDITY", 365*24*time.Hour),
			Publisher:     strings.ToLower(getString("STATUSLIST_PUBLISHER", "local")),
			BaseURL:       strings.TrimRight(getString("STATUSLIST_BASE_URL", "http://localhost"+addr), "/"),
		},
		Issuer: Issuer{
			ParticipantContextID: getString("ISSUER_PARTICIPANT_ID", "issuer"),
			DID:                  getString("ISSUER_DID", "did:web:localhost"),
			KeyID:                getString("ISSUER_KEY_ID", "key-1"),
			SigningKeyPEM:        os.Getenv("ISSUER_SIGNING_KEY"),
		},
	}
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
