package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the server settings read from the environment.
type Config struct {
	Port        string
	DBDriver    string
	DBDSN       string
	AutoMigrate bool
	JWTSecret   []byte
	TokenTTL    time.Duration
	CORSOrigins []string
}

const devJWTSecret = "dev-insecure-secret-change"

// Load reads the configuration from environment variables. Call
// godotenv.Load first to pick up a local .env file.
func Load() Config {
	cfg := Config{
		Port:        getenv("PORT", "8080"),
		DBDriver:    strings.ToLower(getenv("DB_DRIVER", "postgres")),
		DBDSN:       os.Getenv("DB_DSN"),
		AutoMigrate: parseBool(os.Getenv("DB_AUTO_MIGRATE"), true),
		JWTSecret:   []byte(os.Getenv("JWT_SECRET")),
		TokenTTL:    24 * time.Hour,
		CORSOrigins: splitList(getenv("CORS_ORIGINS", "http://localhost:3000")),
	}

	if len(cfg.JWTSecret) == 0 {
		log.Println("JWT_SECRET not set, using development secret")
		cfg.JWTSecret = []byte(devJWTSecret)
	}
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.TokenTTL = d
		} else {
			log.Printf("ignoring invalid TOKEN_TTL %q", v)
		}
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseBool(v string, fallback bool) bool {
	if v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "false", "0", "no":
		return false
	}
	if b, err := strconv.ParseBool(v); err == nil {
		return b
	}
	return true
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
