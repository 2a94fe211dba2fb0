package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultPhonePeURL = "https://api-preprod.phonepe.com/apis/pg-sandbox"

type PhonePeConfig struct {
	MerchantID     string
	SaltKey        string
	SaltIndex      string
	BaseURL        string
	VerifyCallback bool
}

type SMTPConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	From     string
}

type Config struct {
	AppEnv      string
	AppPort     string
	AppBaseURL  string
	FrontendURL string

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBSSLMode  string

	JWTSecret         string
	InternalSecretKey string

	PhonePe PhonePeConfig
	SMTP    SMTPConfig

	RedisAddr     string
	RedisPassword string

	KafkaBrokers     []string
	KafkaOrdersTopic string

	ReconcileInterval time.Duration
	ReconcileAfter    time.Duration
}

// Load reads the environment (and .env when present) into a Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		AppPort:     getEnv("APP_PORT", "8080"),
		AppBaseURL:  strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:8080"), "/"),
		FrontendURL: strings.TrimRight(getEnv("FRONTEND_URL", "http://localhost:3000"), "/"),

		DBHost:     os.Getenv("DB_HOST"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:         os.Getenv("JWT_SECRET"),
		InternalSecretKey: os.Getenv("INTERNAL_SECRET_KEY"),

		PhonePe: PhonePeConfig{
			MerchantID:     os.Getenv("PHONEPE_MERCHANT_ID"),
			SaltKey:        os.Getenv("PHONEPE_SALT_KEY"),
			SaltIndex:      getEnv("PHONEPE_SALT_INDEX", "1"),
			BaseURL:        strings.TrimRight(getEnv("PHONEPE_BASE_URL", defaultPhonePeURL), "/"),
			VerifyCallback: getBool("PHONEPE_VERIFY_CALLBACK", true),
		},

		SMTP: SMTPConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     getEnv("SMTP_PORT", "587"),
			User:     os.Getenv("SMTP_USER"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getEnv("MAIL_FROM", "no-reply@storefront.local"),
		},

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		KafkaBrokers:     splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaOrdersTopic: getEnv("KAFKA_TOPIC_ORDERS", "storefront.orders"),

		ReconcileInterval: getDuration("RECONCILE_INTERVAL", 5*time.Minute),
		ReconcileAfter:    getDuration("RECONCILE_AFTER", 15*time.Minute),
	}

	if cfg.DBHost == "" || cfg.DBName == "" {
		return nil, errors.New("database environment variables not set")
	}

	return cfg, nil
}

// LoadConfig is Load for process entry points: a bad environment is fatal.
func LoadConfig() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("Environment variables not loaded properly: %v", err)
	}
	return cfg
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getBool(key string, def bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return def
	}
	return v
}

func getDuration(key string, def time.Duration) time.Duration {
	v, err := time.ParseDuration(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
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
