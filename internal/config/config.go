package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported database drivers.
const (
	DriverValkey = "valkey"
	DriverRedis  = "redis"
	DriverBadger = "badger"
	DriverSQLite = "sqlite"
)

// Supported image storage drivers. An empty driver disables uploads.
const (
	ImagesLocal = "local"
	ImagesS3    = "s3"
)

// Config holds the campusnav API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Search   SearchConfig   `yaml:"search"`
	Storage  StorageConfig  `yaml:"storage"`
	Images   ImagesConfig   `yaml:"images"`
	Seed     SeedConfig     `yaml:"seed"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int      `yaml:"port"`
	ReadTimeoutSec  int      `yaml:"read_timeout_sec"`
	WriteTimeoutSec int      `yaml:"write_timeout_sec"`
	ShutdownSec     int      `yaml:"shutdown_timeout_sec"`
	CORSOrigins     []string `yaml:"cors_origins"` // default: ["*"]
}

// DatabaseConfig holds building store settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, badger, sqlite (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	Path             string   `yaml:"path"` // badger directory or sqlite DSN
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SearchConfig holds search and listing limits.
type SearchConfig struct {
	DefaultPageSize int `yaml:"default_page_size"`
	MaxPageSize     int `yaml:"max_page_size"`
}

// StorageConfig holds key-value storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// ImagesConfig holds building image settings.
type ImagesConfig struct {
	Driver          string   `yaml:"driver"` // local, s3, or empty to disable
	LocalDir        string   `yaml:"local_dir"`
	BaseURL         string   `yaml:"base_url"`
	MaxBytes        int64    `yaml:"max_bytes"`
	MaxDimension    int      `yaml:"max_dimension"`
	ThumbnailWidth  int      `yaml:"thumbnail_width"`
	ThumbnailHeight int      `yaml:"thumbnail_height"`
	JPEGQuality     int      `yaml:"jpeg_quality"`
	S3              S3Config `yaml:"s3"`
}

// S3Config holds S3/MinIO settings.
type S3Config struct {
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
	PublicURL       string `yaml:"public_url"`
}

// SeedConfig controls loading the building dataset at startup.
type SeedConfig struct {
	Enabled bool   `yaml:"enabled"`
	Mode    string `yaml:"mode"` // replace, missing (default: missing)
	File    string `yaml:"file"` // empty = embedded dataset
	Workers int    `yaml:"workers"`
}

// Load reads configuration from a YAML file by environment name (development, testing, production).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse expands env variables, decodes, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "development".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "development"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if len(c.HTTP.CORSOrigins) == 0 {
		c.HTTP.CORSOrigins = []string{"*"}
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverValkey
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Search.DefaultPageSize <= 0 {
		c.Search.DefaultPageSize = 20
	}
	if c.Search.MaxPageSize <= 0 {
		c.Search.MaxPageSize = 100
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "campusnav:"
	}
	if c.Images.BaseURL == "" && c.Images.Driver == ImagesLocal {
		c.Images.BaseURL = "/images"
	}
	if c.Images.MaxBytes <= 0 {
		c.Images.MaxBytes = 10 << 20
	}
	if c.Seed.Mode == "" {
		c.Seed.Mode = "missing"
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case DriverBadger, DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("database.driver must be one of valkey, redis, badger, sqlite, got %q", c.Database.Driver)
	}

	if c.Search.DefaultPageSize > c.Search.MaxPageSize {
		return fmt.Errorf("search.default_page_size (%d) exceeds search.max_page_size (%d)",
			c.Search.DefaultPageSize, c.Search.MaxPageSize)
	}

	switch c.Images.Driver {
	case "":
	case ImagesLocal:
		if c.Images.LocalDir == "" {
			return fmt.Errorf("images.local_dir is required for driver %q", ImagesLocal)
		}
	case ImagesS3:
		if c.Images.S3.Bucket == "" {
			return fmt.Errorf("images.s3.bucket is required for driver %q", ImagesS3)
		}
	default:
		return fmt.Errorf("images.driver must be \"local\", \"s3\" or empty, got %q", c.Images.Driver)
	}

	if !slices.Contains([]string{"replace", "missing"}, c.Seed.Mode) {
		return fmt.Errorf("seed.mode must be \"replace\" or \"missing\", got %q", c.Seed.Mode)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
