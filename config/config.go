package config

import (
	"os"
)

type Config struct {
	Environment   string
	ServerPort    string
	DBPath        string
	JWTSecret     string
	AdminPassword string
}

func Load() (*Config, error) {
	return &Config{
		Environment:   getEnv("ENVIRONMENT", "development"),
		ServerPort:    getEnv("PORT", "8080"),
		DBPath:        getEnv("DB_PATH", "kidsclub.db"),
		JWTSecret:     getEnv("JWT_SECRET", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
