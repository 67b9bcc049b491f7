package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	LogLevel string

	HTTPPort string
	GRPCPort string

	MongoURI    string
	MongoDBName string

	RedisAddr     string
	RedisPassword string

	KafkaBrokers       []string
	NotificationsTopic string

	JWTSecret string
	JWTTTL    time.Duration

	// HostName prefixes relative product image names.
	HostName string

	ShippingFirstKgRate      float64
	ShippingAdditionalKgRate float64

	AdminEmailSender string

	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
}

const defaultJWTSecret = "change-me"

var ErrInsecureJWTSecret = errors.New("JWT_SECRET must be set outside the dev environment")

// Load reads an optional .env file and then the environment. Malformed
// shipping rates and the placeholder JWT secret outside dev are errors.
func Load() (*Config, error) {
	_ = godotenv.Load()

	firstKg, err := getEnvRate("SHIPPING_FIRST_KG_RATE", 2500)
	if err != nil {
		return nil, err
	}
	additionalKg, err := getEnvRate("SHIPPING_ADDITIONAL_KG_RATE", 1000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		AppEnv:   getEnv("APP_ENV", "dev"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		HTTPPort: getEnv("HTTP_PORT", "8080"),
		GRPCPort: getEnv("GRPC_PORT", "50051"),

		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		MongoDBName: getEnv("MONGO_DB_NAME", "aapiden"),

		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),

		KafkaBrokers:       getEnvList("KAFKA_BROKERS", []string{"localhost:9092"}),
		NotificationsTopic: getEnv("NOTIFICATIONS_TOPIC", "storefront-notifications"),

		JWTSecret: getEnv("JWT_SECRET", defaultJWTSecret),
		JWTTTL:    getEnvDuration("JWT_TTL", 30*24*time.Hour),

		HostName: getEnv("HOST_NAME", "http://localhost:8080"),

		ShippingFirstKgRate:      firstKg,
		ShippingAdditionalKgRate: additionalKg,

		AdminEmailSender: getEnv("ADMIN_EMAIL_SENDER", "no-reply@aapiden.cr"),

		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}

	if cfg.JWTSecret == defaultJWTSecret && cfg.AppEnv != "dev" {
		return nil, ErrInsecureJWTSecret
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvRate parses a money rate. Unlike the other getters it never falls
// back on a bad value.
func getEnvRate(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", key, v)
	}
	if f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%s: %q must be a finite non-negative number", key, v)
	}
	return f, nil
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
