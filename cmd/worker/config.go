package main

import (
	"log"
	"os"
)

// Config is the worker's own slice of configuration. The worker only
// talks to Redis and the SMTP relay, never to postgres or MinIO.
type Config struct {
	Environment   string
	RedisAddr     string
	RedisPassword string
	SMTPHost      string
	SMTPPort      string
	EmailFrom     string
}

func loadConfig() *Config {
	cfg := &Config{
		Environment:   getEnv("APP_ENV", "development"),
		RedisAddr:     getEnv("REDIS_HOST", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		SMTPHost:      getEnv("SMTP_HOST", "localhost"),
		SMTPPort:      getEnv("SMTP_PORT", "1025"),
		EmailFrom:     getEnv("EMAIL_FROM", "noreply@bookshelf.dev"),
	}

	log.Printf("[Config] Redis: %s, SMTP: %s:%s", cfg.RedisAddr, cfg.SMTPHost, cfg.SMTPPort)

	return cfg
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
