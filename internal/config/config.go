package config

import (
	"context"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

type Config struct {
	Env         string
	Port        int
	DBURL       string
	DBMaxConns  int
	StoreDriver string

	JWTSecret           string
	JWTAccessTTLMinutes int
	BcryptCost          int

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ModelDirs              []string
	PredictCacheTTLSeconds int

	CORSOrigins  []string
	MaxBodyBytes int64

	OTelEnabled     bool
	OTelEndpoint    string
	OTelSampleRatio float64

	SeedUserEmail    string
	SeedUserPassword string
}

func Load() Config {
	// a missing .env is fine, real env vars win either way
	_ = godotenv.Load()

	return Config{
		Env:         getEnv("APP_ENV", "dev"),
		Port:        getEnvInt("PORT", 8000),
		DBURL:       buildDBURL(),
		DBMaxConns:  getEnvInt("DB_MAX_CONNS", 5),
		StoreDriver: getEnv("STORE_DRIVER", StorePostgres),

		JWTSecret:           getEnv("JWT_SECRET", "change-me-in-prod"),
		JWTAccessTTLMinutes: getEnvInt("JWT_ACCESS_TTL_MINUTES", 30),
		BcryptCost:          getEnvInt("BCRYPT_COST", 10),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		ModelDirs:              getEnvList("MODEL_DIRS", []string{"models", "."}),
		PredictCacheTTLSeconds: getEnvInt("PREDICT_CACHE_TTL_SECONDS", 300),

		CORSOrigins:  getEnvList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		MaxBodyBytes: int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		OTelEnabled:     getEnv("OTEL_ENABLED", "false") == "true",
		OTelEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		OTelSampleRatio: getEnvFloat("OTEL_SAMPLE_RATIO", 1),

		SeedUserEmail:    getEnv("SEED_USER_EMAIL", ""),
		SeedUserPassword: getEnv("SEED_USER_PASSWORD", ""),
	}
}

func (c Config) AccessTTL() time.Duration {
	return time.Duration(c.JWTAccessTTLMinutes) * time.Minute
}

func (c Config) PredictCacheTTL() time.Duration {
	return time.Duration(c.PredictCacheTTLSeconds) * time.Second
}

func buildDBURL() string {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		return v
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "authhub")
	pass := getEnv("DB_PASSWORD", "authhub")
	name := getEnv("DB_NAME", "authhub")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer env var, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.ParseFloat(v, 64)

		if err != nil {
			slog.Warn("invalid float env var, using default", "key", key, "value", v, "default", fallback)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)

	if v == "" {
		return fallback
	}

	var out []string

	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}

	if len(out) == 0 {
		return fallback
	}

	return out
}
