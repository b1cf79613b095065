package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Store drivers
const (
	DriverBolt     = "bolt"
	DriverPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Env string `default:"production"`

	// Server configuration
	Server ServerConfig `envconfig:"SERVER"`

	// Persistence backend selection
	Store StoreConfig `envconfig:"STORE"`

	// Database configuration
	Database DatabaseConfig `envconfig:"DB"`

	// Local key-value store
	Bolt BoltConfig `envconfig:"BOLT"`

	// Read-through cache
	Redis RedisConfig `envconfig:"REDIS"`

	// Import configuration
	Import ImportConfig `envconfig:"IMPORT"`

	// Export and snapshot configuration
	Export ExportConfig `envconfig:"EXPORT"`

	// Protected routes
	Auth AuthConfig `envconfig:"AUTH"`

	// Initial content
	Seed SeedConfig `envconfig:"SEED"`

	// Logging configuration
	Log LogConfig `envconfig:"LOG"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port            string        `default:"8080"`
	ReadTimeout     time.Duration `split_words:"true" default:"30s"`
	WriteTimeout    time.Duration `split_words:"true" default:"60s"`
	ShutdownTimeout time.Duration `split_words:"true" default:"30s"`
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Driver string `default:"bolt"`
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host           string        `default:"localhost"`
	Port           string        `default:"5432"`
	User           string        `default:"postgres"`
	Password       string        `default:"postgres"`
	Name           string        `default:"editorial_cms"`
	SSLMode        string        `envconfig:"SSLMODE" default:"disable"`
	MaxOpenConns   int           `split_words:"true" default:"25"`
	MaxIdleConns   int           `split_words:"true" default:"5"`
	MaxLifetime    time.Duration `split_words:"true" default:"5m"`
	MigrationsPath string        `split_words:"true" default:"./migrations"`
	AutoMigrate    bool          `split_words:"true" default:"true"`
}

// BoltConfig holds settings for the embedded store
type BoltConfig struct {
	File    string        `default:"./data/posts.db"`
	Timeout time.Duration `default:"1s"`
}

// RedisConfig holds cache settings. An empty address disables the cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int           `default:"0"`
	TTL      time.Duration `default:"10m"`
}

// Enabled reports whether a cache address is configured
func (c RedisConfig) Enabled() bool {
	return c.Addr != ""
}

// ImportConfig holds import settings
type ImportConfig struct {
	MaxUploadSize int64         `split_words:"true" default:"10485760"` // 10MB
	WatchDir      string        `split_words:"true"`
	SettleDelay   time.Duration `split_words:"true" default:"500ms"`
}

// ExportConfig holds snapshot settings. An empty bucket disables snapshots.
type ExportConfig struct {
	Schedule    string
	S3Bucket    string `envconfig:"S3_BUCKET"`
	S3Prefix    string `envconfig:"S3_PREFIX" default:"snapshots/"`
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY"`
	S3SecretKey string `envconfig:"S3_SECRET_KEY"`
}

// SnapshotsEnabled reports whether a bucket is configured
func (c ExportConfig) SnapshotsEnabled() bool {
	return c.S3Bucket != ""
}

// AuthConfig holds the API key for protected routes. An empty key disables the check.
type AuthConfig struct {
	APIKey string `envconfig:"API_KEY"`
}

// SeedConfig points at a YAML file of initial posts
type SeedConfig struct {
	File string
}

// LogConfig holds logging settings
type LogConfig struct {
	Level  string `default:"info"`
	Format string `default:"json"` // "json" or "pretty"
}

// Load reads configuration from the environment, after loading .env when present
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverBolt:
		if c.Bolt.File == "" {
			return errors.New("BOLT_FILE is required for the bolt store")
		}
	case DriverPostgres:
		if c.Database.Host == "" {
			return errors.New("DB_HOST is required")
		}
		if c.Database.Name == "" {
			return errors.New("DB_NAME is required")
		}
	default:
		return fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverBolt, DriverPostgres, c.Store.Driver)
	}

	if c.Export.S3Bucket != "" && (c.Export.S3AccessKey == "") != (c.Export.S3SecretKey == "") {
		return errors.New("EXPORT_S3_ACCESS_KEY and EXPORT_S3_SECRET_KEY must be set together")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}
