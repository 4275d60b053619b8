package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Environment string
	DatabaseURL string
	RedisAddr   string
	RedisPwd    string
	WebOrigin   string
	AdminEmails []string

	SessionSecret string
	SessionTTL    time.Duration

	// Online borrows must present a transaction younger than this.
	TransactionFreshness time.Duration
	PaymentSecret        string

	KafkaBrokers     []string
	KafkaTopicPrefix string
	KafkaClientID    string
	OutboxInterval   time.Duration
	OutboxBatch      int

	ReviewCacheTTL time.Duration
}

// LoadEnv loads .env when present; real environment variables win.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
}

func Load() Config {
	cfg := Config{
		Port:        getEnv("PORT", "3001"),
		Environment: getEnv("ENVIRONMENT", "development"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		RedisAddr:   getEnv("REDIS_ADDR", "127.0.0.1:6379"),
		RedisPwd:    os.Getenv("REDIS_PASSWORD"),
		WebOrigin:   getEnv("WEB_ORIGIN", "http://localhost:5173"),
		AdminEmails: splitCSV(strings.ToLower(os.Getenv("ADMIN_EMAILS"))),

		SessionSecret: getEnv("SESSION_SECRET", ""),
		SessionTTL:    time.Duration(getEnvAsInt("SESSION_TTL_SECONDS", 86400)) * time.Second,

		TransactionFreshness: getEnvAsDuration("TRANSACTION_FRESHNESS", 15*time.Minute),
		PaymentSecret:        os.Getenv("PAYMENT_WEBHOOK_SECRET"),

		KafkaBrokers:     splitCSV(os.Getenv("KAFKA_BROKERS")),
		KafkaTopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", "neighborly"),
		KafkaClientID:    getEnv("KAFKA_CLIENT_ID", "neighborly-api"),
		OutboxInterval:   getEnvAsDuration("OUTBOX_INTERVAL", 2*time.Second),
		OutboxBatch:      getEnvAsInt("OUTBOX_BATCH", 100),

		ReviewCacheTTL: getEnvAsDuration("REVIEW_CACHE_TTL", 5*time.Minute),
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = fmt.Sprintf(
			"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			getEnv("DB_HOST", "127.0.0.1"),
			getEnv("DB_USER", "postgres"),
			getEnv("DB_PASSWORD", "postgres"),
			getEnv("DB_NAME", "neighborly"),
			getEnv("DB_PORT", "5432"),
		)
	}
	return cfg
}

// Validate rejects configurations that must not reach production.
func (c Config) Validate() error {
	if c.Environment == "production" && len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 characters in production")
	}
	if c.TransactionFreshness <= 0 {
		return fmt.Errorf("TRANSACTION_FRESHNESS must be positive")
	}
	return nil
}

func (c Config) IsProduction() bool { return c.Environment == "production" }

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return d
}

func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
