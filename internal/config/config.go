package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	ServiceName string
	// Ledger storage: "sqlite" (default), "postgres" or "memory"
	DBDriver   string
	SQLitePath string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	// Token configuration (RS256). The private key is only needed by the identity service.
	PublicKeyPath   string
	PrivateKeyPath  string
	TokenTTLMinutes int
	// Peer services
	StoreServiceURL     string
	ProductServiceURL   string
	InventoryServiceURL string
	IdentityServiceURL  string
	DirectoryTimeoutMs  int
	// Identity and gateway listeners
	IdentityPort string
	GatewayPort  string
	// Redis Configuration (optional - idempotency store)
	UseRedis              bool
	RedisHost             string
	RedisPort             string
	RedisPassword         string
	RedisDB               int
	IdempotencyTTLSeconds int
	// Kafka Configuration (optional - ledger events)
	UseKafka            bool
	KafkaBrokers        []string
	KafkaTopicInventory string
	KafkaTopicMovements string
	KafkaClientID       string
	KafkaAcks           string
	KafkaRetries        int
	// Tracing
	OTelEnabled  bool
	OTelEndpoint string
	// Reporting
	ReportCronSchedule string
	CORSAllowedOrigins []string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:        getEnv("PORT", "8081"),
		Environment: getEnv("ENVIRONMENT", "development"),
		ServiceName: getEnv("SERVICE_NAME", "inventory-service"),
		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
		SQLitePath:  getEnv("SQLITE_PATH", "./inventory.db"),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", "postgres"),
		DBName:      getEnv("DB_NAME", "inventory_db"),
		// Token configuration
		PublicKeyPath:   getEnv("PUBLIC_KEY_PATH", "./keys/public.pem"),
		PrivateKeyPath:  getEnv("PRIVATE_KEY_PATH", ""),
		TokenTTLMinutes: getEnvAsInt("TOKEN_TTL_MINUTES", 60),
		// Peer services
		StoreServiceURL:     getEnv("STORE_SERVICE_URL", "http://localhost:8083"),
		ProductServiceURL:   getEnv("PRODUCT_SERVICE_URL", "http://localhost:8082"),
		InventoryServiceURL: getEnv("INVENTORY_SERVICE_URL", "http://localhost:8081"),
		IdentityServiceURL:  getEnv("IDENTITY_SERVICE_URL", "http://localhost:8080"),
		DirectoryTimeoutMs:  getEnvAsInt("DIRECTORY_TIMEOUT_MS", 3000),
		IdentityPort:        getEnv("IDENTITY_PORT", "8080"),
		GatewayPort:         getEnv("GATEWAY_PORT", "8000"),
		// Redis Configuration (optional)
		UseRedis:              getEnvAsBool("USE_REDIS", false),
		RedisHost:             getEnv("REDIS_HOST", "localhost"),
		RedisPort:             getEnv("REDIS_PORT", "6379"),
		RedisPassword:         getEnv("REDIS_PASSWORD", ""),
		RedisDB:               getEnvAsInt("REDIS_DB", 0),
		IdempotencyTTLSeconds: getEnvAsInt("IDEMPOTENCY_TTL_SECONDS", 300),
		// Kafka Configuration (optional)
		UseKafka:            getEnvAsBool("USE_KAFKA", false),
		KafkaBrokers:        getEnvAsList("KAFKA_BROKERS", "localhost:9093"),
		KafkaTopicInventory: getEnv("KAFKA_TOPIC_INVENTORY", "inventory.records"),
		KafkaTopicMovements: getEnv("KAFKA_TOPIC_MOVEMENTS", "inventory.movements"),
		KafkaClientID:       getEnv("KAFKA_CLIENT_ID", "inventory-service"),
		KafkaAcks:           getEnv("KAFKA_ACKS", "all"),
		KafkaRetries:        getEnvAsInt("KAFKA_RETRIES", 3),
		// Tracing
		OTelEnabled:  getEnvAsBool("OTEL_ENABLED", false),
		OTelEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4318"),
		// Reporting
		ReportCronSchedule: getEnv("REPORT_CRON_SCHEDULE", "0 * * * *"),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS", "*"),
	}
}

// PostgresDSN builds the connection string used when DB_DRIVER is postgres.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// TokenTTL returns the configured token lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

// DirectoryTimeout returns the bounded wait for each peer lookup.
func (c *Config) DirectoryTimeout() time.Duration {
	return time.Duration(c.DirectoryTimeoutMs) * time.Millisecond
}

// IdempotencyTTL returns how long successful write responses are replayable.
func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempotencyTTLSeconds) * time.Second
}

func getEnvAsList(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	return values
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return strings.ToLower(value) == "true" || value == "1"
}

func getEnvAsInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return result
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
