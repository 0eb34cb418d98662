package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	HTTPPort  string
	LogLevel  string
	JWTSecret string

	// Persisted conversation slot
	StoreBackend string // memory, sqlite, bolt, redis
	DatabaseURL  string
	BoltPath     string
	RedisURL     string
	StoreTTL     time.Duration

	// Upstream collaborators
	SearchURL              string
	GeneratorURL           string
	LLMProvider            string // gemini, openai
	LLMModel               string
	GeminiAPIKey           string
	OpenAIAPIKey           string
	HTTPClientTimeout      time.Duration
	DescriptionConcurrency int
	SessionCacheSize       int

	// NATS transport
	NatsURL         string
	NatsSendSubject string
	NatsTimeout     time.Duration
}

var AppConfig Config

func LoadConfig() {
	err := godotenv.Load() // Load .env file if it exists
	if err != nil {
		log.Debug().Msg("No .env file found, relying on environment variables")
	}

	AppConfig = Config{
		HTTPPort:  getEnv("HTTP_PORT", "8080"),
		LogLevel:  getEnv("LOG_LEVEL", "INFO"),
		JWTSecret: getEnv("JWT_SECRET", ""),

		StoreBackend: getEnv("STORE_BACKEND", "sqlite"),
		DatabaseURL:  getEnv("DATABASE_URL", "wishlist.db"),
		BoltPath:     getEnv("BOLT_PATH", "wishlist.bolt"),
		RedisURL:     getEnv("REDIS_URL", "redis://localhost:6379/0"),
		StoreTTL:     getEnvAsDuration("STORE_TTL", 0),

		SearchURL:              getEnv("SEARCH_URL", "http://localhost:5001/search"),
		GeneratorURL:           getEnv("GENERATOR_URL", ""),
		LLMProvider:            getEnv("LLM_PROVIDER", "gemini"),
		LLMModel:               getEnv("LLM_MODEL", ""),
		GeminiAPIKey:           getEnv("GEMINI_API_KEY", ""),
		OpenAIAPIKey:           getEnv("OPENAI_API_KEY", ""),
		HTTPClientTimeout:      getEnvAsDuration("HTTP_CLIENT_TIMEOUT", 30*time.Second),
		DescriptionConcurrency: getEnvAsInt("DESCRIPTION_CONCURRENCY", 8),
		SessionCacheSize:       getEnvAsInt("SESSION_CACHE_SIZE", 1024),

		NatsURL:         getEnv("NATS_URL", "nats://localhost:4222"),
		NatsSendSubject: getEnv("NATS_SEND_SUBJECT", "wishlist.send"),
		NatsTimeout:     getEnvAsDuration("NATS_TIMEOUT", 60*time.Second),
	}
}

func getEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := getEnv(key, ""); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
