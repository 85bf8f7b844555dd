package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
// It is the single source of truth for runtime parameters.
type Config struct {
	Port      string
	Env       string
	JWTSecret string
	JWTTTL    time.Duration

	// CORSAllowedHosts are the browser origins (host only) allowed to call the API.
	CORSAllowedHosts []string

	DB          DatabaseConfig
	Redis       RedisConfig
	Marketplace MarketplaceConfig
	Geocode     GeocodeConfig
	Product     ProductConfig
	Moderation  ModerationConfig
	Worker      WorkerConfig
	Bootstrap   BootstrapConfig
}

// DatabaseConfig contains PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// RedisConfig contains Redis connection parameters.
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// MarketplaceConfig points at the marketplace REST API.
type MarketplaceConfig struct {
	BaseURL      string
	ServiceToken string
	Timeout      time.Duration
}

// GeocodeConfig contains Google Geocoding credentials.
type GeocodeConfig struct {
	APIKey  string
	BaseURL string
}

// ProductConfig tunes the product form and its Redis state.
type ProductConfig struct {
	FormVariant   string
	MaxImages     int
	MaxImageBytes int64
	DraftTTL      time.Duration
	SubmitLockTTL time.Duration
	ListViewTTL   time.Duration
}

// ModerationConfig controls image screening with AWS Rekognition.
type ModerationConfig struct {
	Enabled       bool
	Region        string
	MinConfidence float64
}

// WorkerConfig contains interval configuration for background workers.
type WorkerConfig struct {
	AuditRetention     time.Duration
	AuditPruneInterval time.Duration
}

// BootstrapConfig seeds the first admin account.
type BootstrapConfig struct {
	AdminEmail    string
	AdminPassword string
	AdminName     string
}

// Load reads configuration from environment variables. If a .env file exists
// in the working directory, it will be loaded first. It returns a populated
// Config or an error with a human-friendly message.
func Load() (*Config, error) {
	// Load .env if present; ignore error if file is missing so that production
	// environments relying solely on real environment variables keep working.
	_ = godotenv.Load()

	cfg := &Config{}
	var err error

	// Server
	cfg.Port = getEnv("PORT", "8080")
	cfg.Env = getEnv("ENV", "development")
	cfg.JWTSecret = getEnv("JWT_SECRET", "")
	if cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", "12h"); err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	cfg.CORSAllowedHosts = splitList(getEnv("CORS_ALLOWED_HOSTS", "localhost,127.0.0.1"))

	// Database
	cfg.DB = DatabaseConfig{
		Host:     getEnv("DB_HOST", ""),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", ""),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", ""),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Redis
	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", "redis"),
		Port:     getEnv("REDIS_PORT", "6379"),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvInt("REDIS_DB", 0),
	}

	// Marketplace API
	cfg.Marketplace = MarketplaceConfig{
		BaseURL:      getEnv("MARKETPLACE_BASE_URL", ""),
		ServiceToken: getEnv("MARKETPLACE_SERVICE_TOKEN", ""),
	}
	if cfg.Marketplace.Timeout, err = parseDurationEnv("MARKETPLACE_TIMEOUT", "10s"); err != nil {
		return nil, fmt.Errorf("invalid MARKETPLACE_TIMEOUT: %w", err)
	}

	// Google Geocoding
	cfg.Geocode = GeocodeConfig{
		APIKey:  getEnv("GEOCODE_API_KEY", ""),
		BaseURL: getEnv("GEOCODE_BASE_URL", "https://maps.googleapis.com/maps/api"),
	}

	// Product form
	cfg.Product = ProductConfig{
		FormVariant:   getEnv("PRODUCT_FORM_VARIANT", "address_book"),
		MaxImages:     getEnvInt("PRODUCT_MAX_IMAGES", 10),
		MaxImageBytes: int64(getEnvInt("PRODUCT_MAX_IMAGE_BYTES", 5<<20)),
	}
	if cfg.Product.DraftTTL, err = parseDurationEnv("DRAFT_TTL", "72h"); err != nil {
		return nil, fmt.Errorf("invalid DRAFT_TTL: %w", err)
	}
	if cfg.Product.SubmitLockTTL, err = parseDurationEnv("SUBMIT_LOCK_TTL", "30s"); err != nil {
		return nil, fmt.Errorf("invalid SUBMIT_LOCK_TTL: %w", err)
	}
	if cfg.Product.ListViewTTL, err = parseDurationEnv("LIST_VIEW_TTL", "720h"); err != nil {
		return nil, fmt.Errorf("invalid LIST_VIEW_TTL: %w", err)
	}

	// AWS Rekognition (image moderation)
	cfg.Moderation = ModerationConfig{
		Enabled:       getEnvBool("MODERATION_ENABLED", false),
		Region:        getEnv("AWS_REKOGNITION_REGION", "ap-southeast-1"),
		MinConfidence: getEnvFloat("MODERATION_MIN_CONFIDENCE", 80),
	}

	// Workers (durations)
	if cfg.Worker.AuditRetention, err = parseDurationEnv("AUDIT_RETENTION", "2160h"); err != nil {
		return nil, fmt.Errorf("invalid AUDIT_RETENTION: %w", err)
	}
	if cfg.Worker.AuditPruneInterval, err = parseDurationEnv("AUDIT_PRUNE_INTERVAL", "1h"); err != nil {
		return nil, fmt.Errorf("invalid AUDIT_PRUNE_INTERVAL: %w", err)
	}

	cfg.Bootstrap = BootstrapConfig{
		AdminEmail:    getEnv("ADMIN_BOOTSTRAP_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_BOOTSTRAP_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_BOOTSTRAP_NAME", "Administrator"),
	}

	// Required settings
	if cfg.DB.Host == "" || cfg.DB.User == "" || cfg.DB.Name == "" {
		return nil, errors.New("database configuration incomplete: ensure DB_HOST, DB_USER, and DB_NAME are set")
	}

	// Validate JWT_SECRET
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET must be set for authentication")
	}

	if cfg.Marketplace.BaseURL == "" {
		return nil, errors.New("MARKETPLACE_BASE_URL must be set")
	}
	if cfg.Product.MaxImages <= 0 {
		return nil, errors.New("PRODUCT_MAX_IMAGES must be positive")
	}

	return cfg, nil
}

// getEnv returns the value of an environment variable or a default if empty.
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getEnvInt returns the value of an environment variable as an integer or a default if empty/invalid.
func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

// parseDurationEnv reads an environment variable and parses it as time.Duration.
// If the variable is empty, it falls back to the provided default value.
func parseDurationEnv(key, def string) (time.Duration, error) {
	raw := getEnv(key, def)
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("duration must be >= 0")
	}
	return d, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
