package config

import (
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable. Secrets stay as strings; switches are parsed to
// bool at load time so handlers never touch the environment directly.
type Config struct {
	Env         string // application environment ("dev" or "prod")
	Port        string // HTTP port to listen on
	DBUser      string // database username
	DBPass      string // database password (optional)
	DBHost      string // database host address
	DBPort      string // database port number
	DBName      string // database name
	JWTSecret   string // secret used to sign session tokens
	SessionTTLH int    // session token time-to-live in hours

	// LoginPassword is the shared secret checked by POST /api/login.
	// AdminPassword guards cancel-pay. Either may instead be supplied as a
	// bcrypt hash via the *_HASH variables, which take precedence.
	LoginPassword     string
	LoginPasswordHash string
	AdminPassword     string
	AdminPasswordHash string

	RequireAuth bool   // when true, registrar mutations require the login token
	AMQPURL     string // RabbitMQ URL for the mutation event stream (optional)
	LogLevel    string // zap level: debug|info|warn|error
	SentryDSN   string // optional error reporting DSN
}

// Load reads configuration from environment variables. Required variables
// are enforced by must() and missing values cause the program to exit.
func Load() Config {
	return Config{
		Env:         getenv("APP_ENV", "dev"),
		Port:        getenv("APP_PORT", "3000"),
		DBUser:      must("DB_USER"),
		DBPass:      os.Getenv("DB_PASS"),
		DBHost:      must("DB_HOST"),
		DBPort:      must("DB_PORT"),
		DBName:      must("DB_NAME"),
		JWTSecret:   must("JWT_SECRET"),
		SessionTTLH: atoiDefault(os.Getenv("SESSION_TTL_HOURS"), 24),

		LoginPassword:     os.Getenv("LOGIN_PASSWORD"),
		LoginPasswordHash: os.Getenv("LOGIN_PASSWORD_HASH"),
		AdminPassword:     os.Getenv("ADMIN_PASSWORD"),
		AdminPasswordHash: os.Getenv("ADMIN_PASSWORD_HASH"),

		RequireAuth: parseBool(getenv("REQUIRE_AUTH", "false")),
		AMQPURL:     os.Getenv("RABBITMQ_URL"),
		LogLevel:    getenv("LOG_LEVEL", "info"),
		SentryDSN:   os.Getenv("SENTRY_DSN"),
	}
}

// must retrieves the value of a required environment variable. If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoiDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int value %q", s)
	}
	return n
}

func parseBool(s string) bool {
	return strings.EqualFold(s, "true") || s == "1"
}
