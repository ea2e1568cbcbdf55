package shared

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Storage  StorageConfig  `toml:"storage"`
	Fetcher  FetcherConfig  `toml:"fetcher"`
	Database DatabaseConfig `toml:"database"`
	History  HistoryConfig  `toml:"history"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host              string  `toml:"host"`
	Port              int     `toml:"port"`
	AuthToken         string  `toml:"auth_token"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

// StorageConfig selects and configures the cache store backend.
//
// Backend is either "local" (disk cache of transcoded MP3s) or "blob"
// (S3-compatible object store serving signed URLs).
type StorageConfig struct {
	Backend       string     `toml:"backend"`
	Directory     string     `toml:"directory"`
	TempDirectory string     `toml:"temp_directory"`
	MaxCacheMB    int64      `toml:"max_cache_mb"`
	Blob          BlobConfig `toml:"blob"`
}

// BlobConfig contains object store connection settings for the blob backend.
type BlobConfig struct {
	Endpoint  string `toml:"endpoint"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	Bucket    string `toml:"bucket"`
	UseSSL    bool   `toml:"use_ssl"`
}

// FetcherConfig contains external tool settings for audio extraction.
type FetcherConfig struct {
	YTDLPPath           string `toml:"ytdlp_path"`
	FFmpegPath          string `toml:"ffmpeg_path"`
	FetchTimeoutSeconds int    `toml:"fetch_timeout_seconds"`
	PollRetries         int    `toml:"poll_retries"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// HistoryConfig contains play history recorder settings.
//
// When RedisAddr is empty the in-memory recorder is used.
type HistoryConfig struct {
	RedisAddr string `toml:"redis_addr"`
	RedisDB   int    `toml:"redis_db"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, ErrInvalidConfig)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks cross-field constraints that TOML parsing cannot express.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "local", "blob":
	case "":
		return fmt.Errorf("%w: storage backend is required", ErrInvalidConfig)
	default:
		return fmt.Errorf("%w: unknown storage backend %q", ErrInvalidConfig, c.Storage.Backend)
	}

	if c.Storage.Backend == "local" && c.Storage.Directory == "" {
		return fmt.Errorf("%w: storage directory is required for the local backend", ErrInvalidConfig)
	}

	if c.Storage.Backend == "blob" {
		if c.Storage.Blob.Endpoint == "" || c.Storage.Blob.Bucket == "" {
			return fmt.Errorf("%w: blob endpoint and bucket are required for the blob backend", ErrInvalidConfig)
		}
	}

	if c.Storage.MaxCacheMB < 0 {
		return fmt.Errorf("%w: max_cache_mb must be non-negative", ErrInvalidConfig)
	}

	return nil
}

// FetchTimeout returns the overall fetch budget, defaulting to 60 seconds.
func (c *FetcherConfig) FetchTimeout() int {
	if c.FetchTimeoutSeconds <= 0 {
		return 60
	}
	return c.FetchTimeoutSeconds
}
