package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort    string
	DatabaseDSN string
	RedisAddr   string
	RedisPass   string
	RedisDB     int
	AMQPURL     string
	ResetSecret string // signs password reset link tokens
	CORSOrigins string
	BPOMBaseURL string

	SessionIdleSeconds int // idle timeout before forced logout
	SessionLifeSeconds int // absolute session lifetime in the backend
}

func Load() *Config {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		DatabaseDSN:        getEnv("DATABASE_DSN", "host=localhost user=postgres password=postgres dbname=pos port=5432 sslmode=disable"),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPass:          getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		AMQPURL:            getEnv("RABBITMQ_URL", ""),
		ResetSecret:        getEnv("RESET_TOKEN_SECRET", ""),
		CORSOrigins:        getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		BPOMBaseURL:        getEnv("BPOM_BASE_URL", "https://cekbpom.pom.go.id"),
		SessionIdleSeconds: getEnvInt("SESSION_IDLE_SECONDS", 1800),
		SessionLifeSeconds: getEnvInt("SESSION_LIFE_SECONDS", 86400),
	}

	if cfg.ResetSecret == "" {
		log.Fatal("[FATAL] RESET_TOKEN_SECRET is not set, refusing to start")
	}
	if len(cfg.ResetSecret) < 32 {
		log.Fatal("[FATAL] RESET_TOKEN_SECRET must be at least 32 characters")
	}
	if cfg.RedisAddr == "" {
		log.Println("[WARN] REDIS_ADDR not set, sessions are kept in process memory and will not survive a restart")
	}
	if cfg.AMQPURL == "" {
		log.Println("[WARN] RABBITMQ_URL not set, notification events will not be published")
	}

	return cfg
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("[WARN] %s is not a number, using default %d", key, def)
	}
	return def
}
