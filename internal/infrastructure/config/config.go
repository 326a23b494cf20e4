package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/bibbank/lenderledger/pkg/kafka"
	"github.com/bibbank/lenderledger/pkg/postgres"
)

// Store backends.
const (
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

type DatabaseConfig struct {
	Host             string
	Port             int
	User             string
	Password         string
	Name             string
	SSLMode          string
	MaxConns         int
	ConnectTimeout   time.Duration
	StatementTimeout time.Duration
}

// Postgres converts the settings into a pool config.
func (d DatabaseConfig) Postgres(appName string) postgres.Config {
	return postgres.Config{
		Host:     d.Host,
		Port:     d.Port,
		User:     d.User,
		Password: d.Password,
		Database: d.Name,
		SSLMode:  d.SSLMode,
		AppName:  appName,
		MaxConns: int32(d.MaxConns),

		ConnectTimeout:   d.ConnectTimeout,
		StatementTimeout: d.StatementTimeout,
	}
}

type KafkaConfig struct {
	Brokers       []string
	EventsTopic   string
	ProviderTopic string
	ConsumerGroup string
	TLS           bool
	// SASLMechanism is PLAIN, SCRAM-SHA-256 or SCRAM-SHA-512; empty disables SASL.
	SASLMechanism string
	SASLUsername  string
	SASLPassword  string
}

// Client converts the settings into the shared client config.
func (k KafkaConfig) Client() kafka.Config {
	return kafka.Config{
		Brokers:       k.Brokers,
		ConsumerGroup: k.ConsumerGroup,
		TLS:           k.TLS,
		SASLEnabled:   k.SASLMechanism != "",
		SASLMechanism: k.SASLMechanism,
		SASLUsername:  k.SASLUsername,
		SASLPassword:  k.SASLPassword,
	}
}

// Enabled reports whether any broker is configured.
func (k KafkaConfig) Enabled() bool { return len(k.Brokers) > 0 }

type AccrualConfig struct {
	// Schedule is a five-field cron spec; empty disables the in-process job.
	Schedule string
	Timezone string
	LockTTL  time.Duration
}

type AuthConfig struct {
	JWTSecret    string
	JWTPublicKey string
	Issuer       string
}

// GRPCConfig holds optional transport settings of the gRPC server. TLS is
// enabled when both files are set.
type GRPCConfig struct {
	TLSCertFile string
	TLSKeyFile  string
	Reflection  bool
}

type Config struct {
	GRPCPort           int
	HTTPPort           int
	GRPC               GRPCConfig
	Store              string
	DB                 DatabaseConfig
	Kafka              KafkaConfig
	RedisAddr          string
	Accrual            AccrualConfig
	Auth               AuthConfig
	OTLPEndpoint       string
	LogLevel           string
	LogFormat          string
	OutboxPollInterval time.Duration
	CORSOrigins        []string
	ServiceName        string
}

// Validate reports settings the selected store or transport cannot run
// without.
func (c Config) Validate() error {
	var errs []error
	switch c.Store {
	case StorePostgres:
		if c.DB.Password == "" {
			errs = append(errs, errors.New("DB_PASSWORD environment variable is required"))
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE must be %q or %q, got %q", StorePostgres, StoreMemory, c.Store))
	}
	if c.Auth.JWTSecret == "" && c.Auth.JWTPublicKey == "" {
		errs = append(errs, errors.New("one of JWT_SECRET or JWT_PUBLIC_KEY is required"))
	}
	if _, err := time.LoadLocation(c.Accrual.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("ACCRUAL_TIMEZONE: %w", err))
	}
	return errors.Join(errs...)
}

// Load reads the configuration from the environment, after loading an
// optional .env file from the working directory.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		GRPCPort: getEnvInt("GRPC_PORT", 9090),
		HTTPPort: getEnvInt("HTTP_PORT", 8080),
		Store:    strings.ToLower(getEnv("STORE", StorePostgres)),
		GRPC: GRPCConfig{
			TLSCertFile: getEnv("GRPC_TLS_CERT_FILE", ""),
			TLSKeyFile:  getEnv("GRPC_TLS_KEY_FILE", ""),
			Reflection:  getEnv("GRPC_REFLECTION", "") == "true",
		},
		DB: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "lenderledger"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "lenderledger"),
			SSLMode:  getEnv("DB_SSLMODE", "require"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 10),

			ConnectTimeout:   getEnvDuration("DB_CONNECT_TIMEOUT", 5*time.Second),
			StatementTimeout: getEnvDuration("DB_STATEMENT_TIMEOUT", 30*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:       getEnvList("KAFKA_BROKERS"),
			EventsTopic:   getEnv("KAFKA_EVENTS_TOPIC", "lending-ledger-events"),
			ProviderTopic: getEnv("KAFKA_PROVIDER_TOPIC", "payment-provider-events"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "lenderledger"),
			TLS:           getEnv("KAFKA_TLS", "") == "true",
			SASLMechanism: strings.ToUpper(getEnv("KAFKA_SASL_MECHANISM", "")),
			SASLUsername:  getEnv("KAFKA_SASL_USERNAME", ""),
			SASLPassword:  getEnv("KAFKA_SASL_PASSWORD", ""),
		},
		RedisAddr: getEnv("REDIS_ADDR", ""),
		Accrual: AccrualConfig{
			Schedule: getEnv("ACCRUAL_SCHEDULE", "5 0 * * *"),
			Timezone: getEnv("ACCRUAL_TIMEZONE", "America/Sao_Paulo"),
			LockTTL:  getEnvDuration("ACCRUAL_LOCK_TTL", 10*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret:    getEnv("JWT_SECRET", ""),
			JWTPublicKey: getEnv("JWT_PUBLIC_KEY", ""),
			Issuer:       getEnv("JWT_ISSUER", ""),
		},
		OTLPEndpoint:       getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		LogFormat:          getEnv("LOG_FORMAT", "json"),
		OutboxPollInterval: getEnvDuration("OUTBOX_POLL_INTERVAL", 2*time.Second),
		CORSOrigins:        getEnvList("CORS_ALLOWED_ORIGINS"),
		ServiceName:        "lenderledger",
	}
}

func (c Config) GRPCAddr() string {
	return fmt.Sprintf(":%d", c.GRPCPort)
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// getEnvList splits a comma-separated variable, dropping empty items.
func getEnvList(key string) []string {
	var out []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
