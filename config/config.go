package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Matching  MatchingConfig  `mapstructure:"matching"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig holds catalog database configuration
type DatabaseConfig struct {
	Driver      string        `mapstructure:"driver"` // "postgres" or "sqlite"
	DSN         string        `mapstructure:"dsn"`
	Table       string        `mapstructure:"table"`
	LoadTimeout time.Duration `mapstructure:"load_timeout"`
}

// MatchingConfig holds matcher tuning
type MatchingConfig struct {
	MinConfidence         float64       `mapstructure:"min_confidence"`
	MaxAlternatives       int           `mapstructure:"max_alternatives"`
	AttributeThreshold    float64       `mapstructure:"attribute_threshold"`
	UseBrandExtraction    bool          `mapstructure:"use_brand_extraction"`
	UseNicotineExtraction bool          `mapstructure:"use_nicotine_extraction"`
	FoldAccents           bool          `mapstructure:"fold_accents"`
	Workers               int           `mapstructure:"workers"`
	Brands                []string      `mapstructure:"brands"`
	RefreshInterval       time.Duration `mapstructure:"refresh_interval"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory", "redis" or "none"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute, 0 disables
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile loads configuration like Load, reading path instead of searching for config.yaml when path is set
func LoadFile(path string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("/etc/catalogmatch/")
	}

	// CATALOGMATCH_SERVER_PORT overrides server.port
	v.SetEnvPrefix("CATALOGMATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional; env vars and defaults are enough
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	normalize(&config)

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads a .env file from the working directory if one exists.
// Variables already set in the environment win.
func loadEnvFile() error {
	if _, err := os.Stat(".env"); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(".env")
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	// Database defaults
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.table", "products")
	v.SetDefault("database.load_timeout", "10s")

	// Matching defaults
	v.SetDefault("matching.min_confidence", 0.50)
	v.SetDefault("matching.max_alternatives", 4)
	v.SetDefault("matching.attribute_threshold", 0.85)
	v.SetDefault("matching.use_brand_extraction", true)
	v.SetDefault("matching.use_nicotine_extraction", true)
	v.SetDefault("matching.fold_accents", false)
	v.SetDefault("matching.workers", runtime.NumCPU())
	v.SetDefault("matching.brands", []string{})
	v.SetDefault("matching.refresh_interval", "0s")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "1h")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 120)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// normalize lowercases enum-like fields and drops blank list entries
func normalize(config *Config) {
	config.Database.Driver = strings.ToLower(strings.TrimSpace(config.Database.Driver))
	config.Cache.Type = strings.ToLower(strings.TrimSpace(config.Cache.Type))
	config.Log.Format = strings.ToLower(strings.TrimSpace(config.Log.Format))

	brands := config.Matching.Brands[:0]
	for _, b := range config.Matching.Brands {
		if b = strings.TrimSpace(b); b != "" {
			brands = append(brands, b)
		}
	}
	config.Matching.Brands = brands
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Database.Driver != "postgres" && config.Database.Driver != "sqlite" {
		return fmt.Errorf("database driver must be 'postgres' or 'sqlite', got: %s", config.Database.Driver)
	}

	if config.Matching.MinConfidence < 0 || config.Matching.MinConfidence > 1 {
		return fmt.Errorf("matching min_confidence must be within [0,1], got: %v", config.Matching.MinConfidence)
	}

	if config.Matching.AttributeThreshold < 0 || config.Matching.AttributeThreshold > 1 {
		return fmt.Errorf("matching attribute_threshold must be within [0,1], got: %v", config.Matching.AttributeThreshold)
	}

	if config.Matching.MaxAlternatives < 0 || config.Matching.MaxAlternatives > 4 {
		return fmt.Errorf("matching max_alternatives must be within [0,4], got: %d", config.Matching.MaxAlternatives)
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" && config.Cache.Type != "none" {
		return fmt.Errorf("cache type must be 'memory', 'redis' or 'none', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.RateLimit.PerIP < 0 {
		return fmt.Errorf("ratelimit per_ip must not be negative, got: %d", config.RateLimit.PerIP)
	}

	return nil
}
