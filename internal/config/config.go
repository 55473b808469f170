package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds environment-driven configuration.
type Config struct {
	Addr     string
	Env      string
	LogLevel string

	DatabaseURL     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	JWTSecret         string
	RoleLookupTimeout time.Duration

	// StorageBackend selects where carts, consent flags and revoked sessions live:
	// "memory", "redis" or "postgres".
	StorageBackend string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	KafkaBrokers []string

	EmailAPIURL   string
	EmailAPIKey   string
	EmailFrom     string
	OperatorEmail string

	Currency         string
	PaymentStubDelay time.Duration

	CORSOrigins string
}

// Load reads configuration from environment variables.
func Load() Config {
	cfg := Config{
		Addr:     ":" + getEnv("PORT", "8080"),
		Env:      getEnv("APP_ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseURL:     os.Getenv("DATABASE_URL"),
		MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 5),
		ConnMaxLifetime: getDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),

		JWTSecret:         os.Getenv("JWT_SECRET"),
		RoleLookupTimeout: getDuration("ROLE_LOOKUP_TIMEOUT", 3*time.Second),

		StorageBackend: os.Getenv("STORAGE_BACKEND"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getInt("REDIS_DB", 0),

		KafkaBrokers: splitList(os.Getenv("KAFKA_BROKERS")),

		EmailAPIURL:   getEnv("EMAIL_API_URL", "https://api.resend.com/emails"),
		EmailAPIKey:   os.Getenv("EMAIL_API_KEY"),
		EmailFrom:     getEnv("EMAIL_FROM", "Café Sierra <pedidos@cafesierra.co>"),
		OperatorEmail: getEnv("OPERATOR_EMAIL", "pedidos@cafesierra.co"),

		Currency:         getEnv("CURRENCY", "USD"),
		PaymentStubDelay: getDuration("PAYMENT_STUB_DELAY", 1500*time.Millisecond),

		CORSOrigins: getEnv("CORS_ORIGINS", "*"),
	}

	if cfg.StorageBackend == "" {
		if cfg.DatabaseURL != "" {
			cfg.StorageBackend = "postgres"
		} else {
			cfg.StorageBackend = "memory"
		}
	}
	return cfg
}

// IsProduction reports whether the service runs with production defaults.
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
