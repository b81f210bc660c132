package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

const (
	defaultPort             = "5000"
	defaultHost             = "0.0.0.0"
	defaultMongoURI         = "mongodb://localhost:27017/taskmanager"
	defaultDBConnectTimeout = 10 * time.Second
	defaultStaticDir        = "public"
	defaultTokenTTL         = 30 * time.Minute
	defaultCORSOrigins      = "*"
	defaultLogLevel         = "info"
	defaultLogFormat        = "text"
	defaultEnvFile          = ".env"
)

type Config struct {
	Port             string
	Host             string
	MongoURI         string
	DatabaseURL      string
	DBConnectTimeout time.Duration
	StaticDir        string
	JWTSecret        string
	TokenTTL         time.Duration
	CORSOrigins      []string
	LogLevel         string
	LogFormat        string
}

// Load reads .env (if present) and then the process environment.
func Load() (*Config, error) {
	if err := loadEnvFile(defaultEnvFile); err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", defaultPort),
		Host:        getEnvOrDefault("HOST", defaultHost),
		MongoURI:    getEnvOrDefault("MONGODB_URI", defaultMongoURI),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		StaticDir:   getEnvOrDefault("STATIC_DIR", defaultStaticDir),
		JWTSecret:   os.Getenv("JWT_SECRET"),
		CORSOrigins: splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", defaultCORSOrigins)),
		LogLevel:    strings.ToLower(getEnvOrDefault("LOG_LEVEL", defaultLogLevel)),
		LogFormat:   strings.ToLower(getEnvOrDefault("LOG_FORMAT", defaultLogFormat)),
	}

	var err error
	if cfg.DBConnectTimeout, err = getEnvDurationOrDefault("DB_CONNECT_TIMEOUT", defaultDBConnectTimeout); err != nil {
		return nil, err
	}
	if cfg.TokenTTL, err = getEnvDurationOrDefault("TOKEN_TTL", defaultTokenTTL); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("environment variable PORT must be a port number between 1 and 65535, got %q", c.Port)
	}
	if c.DBConnectTimeout <= 0 {
		return fmt.Errorf("environment variable DB_CONNECT_TIMEOUT must be positive")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("environment variable TOKEN_TTL must be positive")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("environment variable LOG_LEVEL: %w", err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("environment variable LOG_FORMAT must be text or json, got %q", c.LogFormat)
	}
	return nil
}

func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// DatabaseURI prefers DATABASE_URL over MONGODB_URI.
func (c *Config) DatabaseURI() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return c.MongoURI
}

func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

func (c *Config) ConfigureLogger(logger *log.Logger) error {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	if c.LogFormat == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}

// loadEnvFile never overrides variables already set in the environment.
func loadEnvFile(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("environment variable %s must be a valid duration: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
