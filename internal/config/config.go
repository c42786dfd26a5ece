package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	DriverFile     = "file"
	DriverPostgres = "postgres"

	defaultBanner = "https://i.ibb.co/7Wc3JXF/default-giveaway.jpg"
)

// Config holds all application configuration
type Config struct {
	BotToken      string
	OwnerID       int64
	Storage       string
	DataFile      string
	Database      DatabaseConfig
	Loop          LoopConfig
	SaveTimeout   time.Duration
	Retention     time.Duration
	DefaultBanner string
	Locale        string
	MetricsAddr   string
	Debug         bool
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
}

// LoopConfig holds the reconciliation cadences
type LoopConfig struct {
	PollInterval    time.Duration
	RefreshInterval time.Duration
	RefreshPacing   time.Duration
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if not exists)
	_ = godotenv.Load()

	cfg := &Config{
		BotToken: os.Getenv("BOT_TOKEN"),
		Storage:  getEnv("STORAGE_DRIVER", DriverFile),
		DataFile: getEnv("DATA_FILE", "giveaway_data.json"),
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "giveaway"),
			User:     getEnv("DB_USER", "giveaway"),
			Password: os.Getenv("DB_PASSWORD"),
		},
		DefaultBanner: getEnv("DEFAULT_BANNER", defaultBanner),
		Locale:        getEnv("LOCALE", "en"),
		MetricsAddr:   os.Getenv("METRICS_ADDR"),
	}

	// Validate required fields
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN is required")
	}

	ownerRaw := os.Getenv("OWNER_ID")
	if ownerRaw == "" {
		return nil, fmt.Errorf("OWNER_ID is required")
	}
	owner, err := strconv.ParseInt(ownerRaw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("OWNER_ID must be an integer: %w", err)
	}
	cfg.OwnerID = owner

	switch cfg.Storage {
	case DriverFile:
	case DriverPostgres:
		if cfg.Database.Password == "" {
			return nil, fmt.Errorf("DB_PASSWORD is required for the postgres driver")
		}
	default:
		return nil, fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", DriverFile, DriverPostgres, cfg.Storage)
	}

	durations := []struct {
		key  string
		def  string
		dst  *time.Duration
		zero bool
	}{
		{key: "POLL_INTERVAL", def: "10s", dst: &cfg.Loop.PollInterval},
		{key: "REFRESH_INTERVAL", def: "60s", dst: &cfg.Loop.RefreshInterval},
		{key: "REFRESH_PACING", def: "500ms", dst: &cfg.Loop.RefreshPacing, zero: true},
		{key: "SAVE_TIMEOUT", def: "5s", dst: &cfg.SaveTimeout},
		{key: "RETENTION", def: "0s", dst: &cfg.Retention, zero: true},
	}
	for _, d := range durations {
		v, err := time.ParseDuration(getEnv(d.key, d.def))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", d.key, err)
		}
		if v < 0 || (v == 0 && !d.zero) {
			return nil, fmt.Errorf("%s must be positive", d.key)
		}
		*d.dst = v
	}

	if cfg.Loop.PollInterval > cfg.Loop.RefreshInterval {
		return nil, fmt.Errorf("POLL_INTERVAL must not exceed REFRESH_INTERVAL")
	}

	cfg.Debug, err = strconv.ParseBool(getEnv("DEBUG", "false"))
	if err != nil {
		return nil, fmt.Errorf("DEBUG: %w", err)
	}

	return cfg, nil
}

// DSN returns PostgreSQL connection string
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
