package config

import (
	"fmt"
	"os"
)

type Config struct {
	Port       string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPass     string
	DBName     string
	RedisAddr  string
	KafkaTopic string
	JWTSecret  string
}

// Load reads the configuration from the environment with local defaults.
func Load() Config {
	return Config{
		Port:       getenv("PORT", "8080"),
		DBHost:     getenv("DB_HOST", "127.0.0.1"),
		DBPort:     getenv("DB_PORT", "3306"),
		DBUser:     getenv("DB_USER", "root"),
		DBPass:     getenv("DB_PASS", ""),
		DBName:     getenv("DB_NAME", "store-catalog-db"),
		RedisAddr:  getenv("REDIS_ADDR", "localhost:6379"),
		KafkaTopic: getenv("KAFKA_TOPIC", "catalog-topic"),
		JWTSecret:  getenv("JWT_SECRET", "secret"),
	}
}

// DSN builds the mysql connection string.
func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s", c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
