package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backends soportados para el registro de facturas ya sincronizadas.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendPebble   = "pebble"
)

type Config struct {
	// --- Origen (RICS) ---
	RICSAPIKey    string
	RICSAPIURL    string
	RICSStoreCode string
	RICSPageSize  int

	// --- Destino (Klaviyo) ---
	KlaviyoAPIKey string
	KlaviyoListID string
	KlaviyoURL    string

	// --- Sincronización ---
	LookbackDays         int
	HTTPTimeout          time.Duration
	PurchaseProfileEmail string

	// --- Idempotencia ---
	IdempotencyBackend    string
	IdempotencyFile       string
	IdempotencyMaxRecords int
	SQLitePath            string
	DatabaseURL           string
	RedisAddr             string
	PebbleDir             string

	// --- Observabilidad (opcional) ---
	KafkaBrokers   []string
	KafkaTopic     string
	ClickHouseAddr string
	ClickHouseDB   string
	PushgatewayURL string

	LogLevel string
	Region   string
	HTTPPort string
}

// LoadConfig lee la configuración del entorno. Si faltan variables obligatorias
// el error las enumera todas a la vez.
func LoadConfig() (*Config, error) {
	var missing []string
	var invalid []string

	getEnv := func(key, fallback string) string {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v
		}
		return fallback
	}
	required := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	getInt := func(key string, fallback int) int {
		raw := getEnv(key, "")
		if raw == "" {
			return fallback
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			invalid = append(invalid, key)
			return fallback
		}
		return n
	}

	cfg := &Config{
		RICSAPIKey:    required("RICS_API_KEY"),
		RICSAPIURL:    required("RICS_API_URL"),
		RICSStoreCode: required("RICS_STORE_CODE"),
		RICSPageSize:  getInt("RICS_PAGE_SIZE", 100),

		KlaviyoAPIKey: required("KLAVIYO_API_KEY"),
		KlaviyoListID: required("KLAVIYO_LIST_ID"),
		KlaviyoURL:    getEnv("KLAVIYO_API_URL", "https://a.klaviyo.com/api"),

		LookbackDays:         getInt("LOOKBACK_DAYS", 7),
		HTTPTimeout:          time.Duration(getInt("HTTP_TIMEOUT_SECONDS", 30)) * time.Second,
		PurchaseProfileEmail: getEnv("PURCHASE_PROFILE_EMAIL", "admin@store.com"),

		IdempotencyBackend:    strings.ToLower(getEnv("IDEMPOTENCY_BACKEND", BackendFile)),
		IdempotencyFile:       getEnv("IDEMPOTENCY_FILE", "synced_invoices.json"),
		IdempotencyMaxRecords: getInt("IDEMPOTENCY_MAX_RECORDS", 10000),
		SQLitePath:            getEnv("SQLITE_PATH", "./possync.db"),
		DatabaseURL:           getEnv("DATABASE_URL", ""),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		PebbleDir:             getEnv("PEBBLE_DIR", "./possync-pebble"),

		KafkaBrokers:   splitList(getEnv("KAFKA_BROKERS", "")),
		KafkaTopic:     getEnv("KAFKA_TOPIC", "possync-runs"),
		ClickHouseAddr: getEnv("CLICKHOUSE_ADDR", ""),
		ClickHouseDB:   getEnv("CLICKHOUSE_DB", "default"),
		PushgatewayURL: getEnv("PUSHGATEWAY_URL", ""),

		LogLevel: getEnv("LOG_LEVEL", "INFO"),
		Region:   getEnv("AWS_REGION", "us-east-1"),
		HTTPPort: getEnv("HTTP_PORT", "8080"),
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if _, err := strconv.Atoi(cfg.RICSStoreCode); err != nil {
		invalid = append(invalid, "RICS_STORE_CODE")
	}
	switch cfg.IdempotencyBackend {
	case BackendFile, BackendSQLite, BackendRedis, BackendPebble:
	case BackendPostgres:
		if cfg.DatabaseURL == "" {
			invalid = append(invalid, "DATABASE_URL")
		}
	default:
		invalid = append(invalid, "IDEMPOTENCY_BACKEND")
	}
	if cfg.RICSPageSize == 0 {
		invalid = append(invalid, "RICS_PAGE_SIZE")
	}

	if len(invalid) > 0 {
		return nil, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
