package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	Environment    string
	AllowedOrigins []string
	Redis          RedisConfig
	STUNServer     string
	RelayURL       string
}

// RedisConfig configures the optional presence mirror. An empty Addr
// disables mirroring entirely.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func Load() *Config {
	// godotenv.Load does not overwrite existing env vars
	_ = godotenv.Load()

	// Parse allowed origins (comma-separated)
	originsStr := getEnv("ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")
	origins := strings.Split(originsStr, ",")

	return &Config{
		Port:           getEnv("PORT", "3000"),
		Environment:    getEnv("ENVIRONMENT", "development"),
		AllowedOrigins: origins,
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       0,
		},
		STUNServer: getEnv("STUN_SERVER", "stun:stun.l.google.com:19302"),
		RelayURL:   getEnv("RELAY_URL", "ws://localhost:3000/ws/signal"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
