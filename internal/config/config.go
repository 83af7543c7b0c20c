package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Cleanup   CleanupConfig   `mapstructure:"cleanup"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// DatabaseConfig holds the optional persistent store settings.
// When Enabled is false the service runs cache-only and the
// cleanup service stays inactive.
type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	DSN     string `mapstructure:"dsn"`
}

// ScraperConfig holds settings shared by all platform scrapers
type ScraperConfig struct {
	Timeout   string `mapstructure:"timeout"`    // per-request HTTP timeout
	UserAgent string `mapstructure:"user_agent"` // sent to vendors that require a browser UA
}

// TimeoutDuration parses the scraper timeout, falling back to 20s
func (s ScraperConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(s.Timeout)
	if err != nil || d <= 0 {
		return 20 * time.Second
	}
	return d
}

// CacheConfig holds aggregation cache settings
type CacheConfig struct {
	TTL string `mapstructure:"ttl"` // snapshot max age before a refresh is attempted
}

// TTLDuration parses the cache TTL, falling back to 6h
func (c CacheConfig) TTLDuration() time.Duration {
	d, err := time.ParseDuration(c.TTL)
	if err != nil || d <= 0 {
		return 6 * time.Hour
	}
	return d
}

// SchedulerConfig holds cron cadences
type SchedulerConfig struct {
	ScrapeCron  string `mapstructure:"scrape_cron"`
	CleanupCron string `mapstructure:"cleanup_cron"`
}

// CleanupConfig holds retention settings for the persistent variant
type CleanupConfig struct {
	RetentionDays int `mapstructure:"retention_days"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout or file path
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Load .env file if present (ignore errors if not found)
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Look for config in current directory and configs folder
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		// Also check user's home directory
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".contest-notifier"))
		}
	}

	// Environment variables
	v.SetEnvPrefix("CONTEST")
	v.AutomaticEnv()

	// Explicit bindings for nested keys (Viper doesn't auto-bind underscored nested keys)
	v.BindEnv("server.port", "CONTEST_SERVER_PORT", "PORT")
	v.BindEnv("database.enabled", "CONTEST_DATABASE_ENABLED")
	v.BindEnv("database.dsn", "CONTEST_DATABASE_DSN")
	v.BindEnv("cache.ttl", "CONTEST_CACHE_TTL")
	v.BindEnv("scheduler.scrape_cron", "CONTEST_SCHEDULER_SCRAPE_CRON")
	v.BindEnv("scheduler.cleanup_cron", "CONTEST_SCHEDULER_CLEANUP_CRON")
	v.BindEnv("logging.level", "CONTEST_LOGGING_LEVEL")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 10000)
	v.SetDefault("server.cors_origins", []string{
		"chrome-extension://enhbabinmkfdkfhjhaboaicppalngemm",
		"http://localhost:5173",
	})

	// Database defaults - cache-only unless explicitly enabled
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.dsn", "./data/contests.db")

	// Scraper defaults
	v.SetDefault("scraper.timeout", "20s")
	v.SetDefault("scraper.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")

	// Cache defaults
	v.SetDefault("cache.ttl", "6h")

	// Scheduler defaults
	v.SetDefault("scheduler.scrape_cron", "*/30 * * * *") // Every 30 minutes
	v.SetDefault("scheduler.cleanup_cron", "0 2 * * *")   // Daily at 2:00 AM

	// Cleanup defaults
	v.SetDefault("cleanup.retention_days", 30)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Database.Enabled && c.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required when database.enabled is true")
	}
	return nil
}
