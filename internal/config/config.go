package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port          string
	FrontendURL   string
	DatabaseURL   string
	JWTSecret     string
	LogFile       string
	MigrationsDir string
	Email         EmailConfig
}

type EmailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Secure   bool
}

func (e EmailConfig) Enabled() bool {
	return e.Host != "" && e.Port != 0 && e.From != ""
}

func Load() (Config, error) {
	clean := func(val string) string {
		return strings.Trim(val, "\"' \t\r\n")
	}

	rawPort := clean(getenvDefault("EMAIL_SERVER_PORT", "587"))
	emailPort, err := strconv.Atoi(rawPort)
	if err != nil {
		emailPort = 587
	}

	cfg := Config{
		Port:          getenvDefault("PORT", "5000"),
		FrontendURL:   getenvDefault("FRONTEND_URL", "http://localhost:5173"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		LogFile:       getenvDefault("LOG_FILE", "logs/server.log"),
		MigrationsDir: getenvDefault("MIGRATIONS_DIR", "./migrations"),
		Email: EmailConfig{
			Host:     clean(os.Getenv("EMAIL_SERVER_HOST")),
			Port:     emailPort,
			Username: clean(os.Getenv("EMAIL_SERVER_USER")),
			Password: clean(os.Getenv("EMAIL_SERVER_PASSWORD")),
			From:     clean(os.Getenv("EMAIL_FROM")),
			Secure:   parseBool(os.Getenv("EMAIL_SERVER_SECURE")),
		},
	}

	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func parseBool(val string) bool {
	if val == "" {
		return false
	}
	val = strings.ToLower(strings.Trim(val, "\"' "))
	return val == "1" || val == "true" || val == "yes"
}
