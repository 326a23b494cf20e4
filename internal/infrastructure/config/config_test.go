package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/lenderledger/internal/infrastructure/config"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STORE", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("GRPC_PORT", "")

	cfg := config.Load()
	assert.Equal(t, config.StorePostgres, cfg.Store)
	assert.Equal(t, ":9090", cfg.GRPCAddr())
	assert.False(t, cfg.Kafka.Enabled())
	assert.Equal(t, 2*time.Second, cfg.OutboxPollInterval)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE", "Memory")
	t.Setenv("HTTP_PORT", "18080")
	t.Setenv("KAFKA_BROKERS", "k1:9092, ,k2:9092")
	t.Setenv("OUTBOX_POLL_INTERVAL", "500ms")
	t.Setenv("DB_PORT", "not-a-number")

	cfg := config.Load()
	assert.Equal(t, config.StoreMemory, cfg.Store)
	assert.Equal(t, ":18080", cfg.HTTPAddr())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 500*time.Millisecond, cfg.OutboxPollInterval)
	assert.Equal(t, 5432, cfg.DB.Port)
}

func TestDatabaseConfig_Postgres(t *testing.T) {
	t.Setenv("DB_STATEMENT_TIMEOUT", "45s")
	t.Setenv("DB_CONNECT_TIMEOUT", "")

	pg := config.Load().DB.Postgres("lenderledger")
	assert.Equal(t, "lenderledger", pg.AppName)
	assert.Equal(t, 45*time.Second, pg.StatementTimeout)
	assert.Equal(t, 5*time.Second, pg.ConnectTimeout)
	assert.Equal(t, int32(10), pg.MaxConns)
}

func TestValidate(t *testing.T) {
	base := config.Config{
		Store:   config.StorePostgres,
		DB:      config.DatabaseConfig{Password: "pw"},
		Auth:    config.AuthConfig{JWTSecret: "s"},
		Accrual: config.AccrualConfig{Timezone: "UTC"},
	}
	require.NoError(t, base.Validate())

	noPassword := base
	noPassword.DB.Password = ""
	assert.ErrorContains(t, noPassword.Validate(), "DB_PASSWORD")

	memory := noPassword
	memory.Store = config.StoreMemory
	assert.NoError(t, memory.Validate())

	unknown := base
	unknown.Store = "sqlite"
	assert.ErrorContains(t, unknown.Validate(), "STORE")

	noAuth := base
	noAuth.Auth = config.AuthConfig{}
	assert.ErrorContains(t, noAuth.Validate(), "JWT_SECRET")

	badZone := base
	badZone.Accrual.Timezone = "Mars/Olympus"
	assert.ErrorContains(t, badZone.Validate(), "ACCRUAL_TIMEZONE")
}

func TestKafkaClient(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "k1:9092")
	t.Setenv("KAFKA_TLS", "true")
	t.Setenv("KAFKA_SASL_MECHANISM", "scram-sha-512")
	t.Setenv("KAFKA_SASL_USERNAME", "ledger")
	t.Setenv("KAFKA_SASL_PASSWORD", "pw")

	client := config.Load().Kafka.Client()
	assert.Equal(t, []string{"k1:9092"}, client.Brokers)
	assert.Equal(t, "lenderledger", client.ConsumerGroup)
	assert.True(t, client.TLS)
	assert.True(t, client.SASLEnabled)
	assert.Equal(t, "SCRAM-SHA-512", client.SASLMechanism)

	plain := config.KafkaConfig{Brokers: []string{"k1:9092"}}.Client()
	assert.False(t, plain.SASLEnabled)
	assert.False(t, plain.TLS)
}
