package app

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"

	BrokerNone     = "none"
	BrokerKafka    = "kafka"
	BrokerRabbitMQ = "rabbitmq"
)

const (
	EnvHTTPAddr                    = "RMS_HTTP_ADDR"
	EnvGRPCAddr                    = "RMS_GRPC_ADDR"
	EnvMetricsAddr                 = "RMS_METRICS_ADDR"
	EnvStorageDriver               = "RMS_STORAGE_DRIVER"
	EnvPostgresDSN                 = "RMS_POSTGRES_DSN"
	EnvPostgresAutoMigrate         = "RMS_POSTGRES_AUTO_MIGRATE"
	EnvJWTSecret                   = "RMS_JWT_SECRET"
	EnvJWTTTL                      = "RMS_JWT_TTL"
	EnvStoreTimezone               = "RMS_STORE_TIMEZONE"
	EnvRedisAddr                   = "RMS_REDIS_ADDR"
	EnvCatalogCacheTTL             = "RMS_CATALOG_CACHE_TTL"
	EnvOutboxBroker                = "RMS_OUTBOX_BROKER"
	EnvKafkaBrokers                = "RMS_KAFKA_BROKERS"
	EnvKafkaTopic                  = "RMS_KAFKA_TOPIC"
	EnvRabbitMQURL                 = "RMS_RABBITMQ_URL"
	EnvRabbitMQExchange            = "RMS_RABBITMQ_EXCHANGE"
	EnvOutboxPollInterval          = "RMS_OUTBOX_POLL_INTERVAL"
	EnvOutboxBatchSize             = "RMS_OUTBOX_BATCH_SIZE"
	EnvOutboxMaxAttempts           = "RMS_OUTBOX_MAX_ATTEMPTS"
	EnvOutboxRetryDelay            = "RMS_OUTBOX_RETRY_DELAY"
	EnvIdempotencyTTL              = "RMS_IDEMPOTENCY_TTL"
	EnvIdempotencyCleanupInterval  = "RMS_IDEMPOTENCY_CLEANUP_INTERVAL"
	EnvIdempotencyCleanupBatchSize = "RMS_IDEMPOTENCY_CLEANUP_BATCH_SIZE"
	EnvMercadoPagoToken            = "RMS_MP_ACCESS_TOKEN"
	EnvAdminEmail                  = "RMS_ADMIN_EMAIL"
	EnvAdminPassword               = "RMS_ADMIN_PASSWORD"
	EnvCORSOrigins                 = "RMS_CORS_ORIGINS"
)

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr    string
	GRPCAddr    string
	MetricsAddr string

	StorageDriver       string
	PostgresDSN         string
	PostgresAutoMigrate bool

	JWTSecret     string
	JWTTTL        time.Duration
	StoreTimezone string

	RedisAddr       string
	CatalogCacheTTL time.Duration

	OutboxBroker       string
	KafkaBrokers       []string
	KafkaTopic         string
	RabbitMQURL        string
	RabbitMQExchange   string
	OutboxPollInterval time.Duration
	OutboxBatchSize    int
	OutboxMaxAttempts  int
	OutboxRetryDelay   time.Duration

	IdempotencyTTL              time.Duration
	IdempotencyCleanupInterval  time.Duration
	IdempotencyCleanupBatchSize int

	MercadoPagoToken string
	AdminEmail       string
	AdminPassword    string
	CORSOrigins      []string
}

// DefaultConfig возвращает конфигурацию для локального запуска без внешних зависимостей.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:    ":8080",
		GRPCAddr:    ":50051",
		MetricsAddr: ":9090",

		StorageDriver:       StorageDriverMemory,
		PostgresAutoMigrate: true,

		JWTSecret:     "dev-secret-change-me",
		JWTTTL:        24 * time.Hour,
		StoreTimezone: "America/Sao_Paulo",

		CatalogCacheTTL: 5 * time.Minute,

		OutboxBroker:       BrokerNone,
		KafkaTopic:         "rms.order.events",
		RabbitMQExchange:   "rms.order.events",
		OutboxPollInterval: time.Second,
		OutboxBatchSize:    100,
		OutboxMaxAttempts:  5,
		OutboxRetryDelay:   500 * time.Millisecond,

		IdempotencyTTL:              24 * time.Hour,
		IdempotencyCleanupInterval:  10 * time.Minute,
		IdempotencyCleanupBatchSize: 500,
	}
}

// Validate проверяет сочетания параметров, которые нельзя исправить подстановкой значения по умолчанию.
func (c Config) Validate() error {
	var errs []error
	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if c.PostgresDSN == "" {
			errs = append(errs, fmt.Errorf("%s is required for postgres storage", EnvPostgresDSN))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported storage driver %q", c.StorageDriver))
	}
	switch c.OutboxBroker {
	case BrokerNone:
	case BrokerKafka:
		if len(c.KafkaBrokers) == 0 {
			errs = append(errs, fmt.Errorf("%s is required for kafka broker", EnvKafkaBrokers))
		}
	case BrokerRabbitMQ:
		if c.RabbitMQURL == "" {
			errs = append(errs, fmt.Errorf("%s is required for rabbitmq broker", EnvRabbitMQURL))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported outbox broker %q", c.OutboxBroker))
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		errs = append(errs, fmt.Errorf("%s must not be empty", EnvJWTSecret))
	}
	return errors.Join(errs...)
}

// EnvLookup — сигнатура os.LookupEnv; в тестах подменяется map.
type EnvLookup func(key string) (string, bool)

// LoadConfigFromEnv накладывает RMS_* переменные на DefaultConfig.
// Некорректные значения не роняют запуск: остаётся значение по умолчанию, а в warnings
// попадает описание проблемы.
func LoadConfigFromEnv(lookup EnvLookup) (Config, []string) {
	cfg := DefaultConfig()
	var warnings []string

	str := func(key string, target *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*target = strings.TrimSpace(v)
		}
	}
	lower := func(key string, target *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*target = strings.ToLower(strings.TrimSpace(v))
		}
	}
	list := func(key string, target *[]string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*target = splitList(v)
		}
	}
	boolean := func(key string, target *bool) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		parsed, err := parseBool(v)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", key, err))
			return
		}
		*target = parsed
	}
	positiveInt := func(key string, target *int) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		parsed, err := parseInt(v, func(n int) bool { return n > 0 }, "must be > 0")
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", key, err))
			return
		}
		*target = parsed
	}
	duration := func(key string, target *time.Duration, allowZero bool) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		valid, rule := func(d time.Duration) bool { return d > 0 }, "must be > 0"
		if allowZero {
			valid, rule = func(d time.Duration) bool { return d >= 0 }, "must be >= 0"
		}
		parsed, err := parseDuration(v, valid, rule)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", key, err))
			return
		}
		*target = parsed
	}

	str(EnvHTTPAddr, &cfg.HTTPAddr)
	str(EnvGRPCAddr, &cfg.GRPCAddr)
	str(EnvMetricsAddr, &cfg.MetricsAddr)
	lower(EnvStorageDriver, &cfg.StorageDriver)
	str(EnvPostgresDSN, &cfg.PostgresDSN)
	boolean(EnvPostgresAutoMigrate, &cfg.PostgresAutoMigrate)
	str(EnvJWTSecret, &cfg.JWTSecret)
	duration(EnvJWTTTL, &cfg.JWTTTL, false)
	str(EnvStoreTimezone, &cfg.StoreTimezone)
	str(EnvRedisAddr, &cfg.RedisAddr)
	duration(EnvCatalogCacheTTL, &cfg.CatalogCacheTTL, false)
	lower(EnvOutboxBroker, &cfg.OutboxBroker)
	list(EnvKafkaBrokers, &cfg.KafkaBrokers)
	str(EnvKafkaTopic, &cfg.KafkaTopic)
	str(EnvRabbitMQURL, &cfg.RabbitMQURL)
	str(EnvRabbitMQExchange, &cfg.RabbitMQExchange)
	duration(EnvOutboxPollInterval, &cfg.OutboxPollInterval, false)
	positiveInt(EnvOutboxBatchSize, &cfg.OutboxBatchSize)
	positiveInt(EnvOutboxMaxAttempts, &cfg.OutboxMaxAttempts)
	duration(EnvOutboxRetryDelay, &cfg.OutboxRetryDelay, true)
	duration(EnvIdempotencyTTL, &cfg.IdempotencyTTL, false)
	duration(EnvIdempotencyCleanupInterval, &cfg.IdempotencyCleanupInterval, false)
	positiveInt(EnvIdempotencyCleanupBatchSize, &cfg.IdempotencyCleanupBatchSize)
	str(EnvMercadoPagoToken, &cfg.MercadoPagoToken)
	str(EnvAdminEmail, &cfg.AdminEmail)
	if v, ok := lookup(EnvAdminPassword); ok {
		cfg.AdminPassword = v
	}
	list(EnvCORSOrigins, &cfg.CORSOrigins)

	return cfg, warnings
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

func parseBool(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "y", "on":
		return true, nil
	case "0", "false", "no", "n", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid bool value %q", raw)
	}
}

func parseInt(raw string, valid func(int) bool, rule string) (int, error) {
	value, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid int value %q: %w", raw, err)
	}
	if !valid(value) {
		return 0, fmt.Errorf("invalid int value %q: %s", raw, rule)
	}
	return value, nil
}

func parseDuration(raw string, valid func(time.Duration) bool, rule string) (time.Duration, error) {
	value, err := time.ParseDuration(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid duration value %q: %w", raw, err)
	}
	if !valid(value) {
		return 0, fmt.Errorf("invalid duration value %q: %s", raw, rule)
	}
	return value, nil
}
