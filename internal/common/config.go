package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Supported market data vendors
const (
	SourceFMP    = "fmp"
	SourceEODHD  = "eodhd"
	SourceTiingo = "tiingo"
)

// Supported cache backends
const (
	BackendSQLite    = "sqlite"
	BackendSurrealDB = "surrealdb"
	BackendNone      = "none"
)

// Config holds all configuration for stockview
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Warm        WarmConfig    `toml:"warm"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig selects and configures the market cache backend.
type StorageConfig struct {
	Backend      string          `toml:"backend"` // sqlite | surrealdb | none
	WriteWorkers int             `toml:"write_workers"`
	SQLite       SQLiteConfig    `toml:"sqlite"`
	SurrealDB    SurrealDBConfig `toml:"surrealdb"`
}

// SQLiteConfig holds the local cache database path.
type SQLiteConfig struct {
	Path string `toml:"path"`
}

// SurrealDBConfig holds hosted store connection settings.
type SurrealDBConfig struct {
	Address   string `toml:"address"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
}

// ClientsConfig holds API client configurations. Source names the vendor
// variant used for normalization. HistoryDays bounds the price request;
// zero leaves the range to the vendor.
type ClientsConfig struct {
	Source      string       `toml:"source"`
	HistoryDays int          `toml:"history_days"`
	FMP         VendorConfig `toml:"fmp"`
	EODHD       VendorConfig `toml:"eodhd"`
	Tiingo      VendorConfig `toml:"tiingo"`
}

// VendorConfig holds a single market data API configuration
type VendorConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *VendorConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// Vendor returns the configuration block for the named source.
func (c *ClientsConfig) Vendor(name string) (*VendorConfig, bool) {
	switch strings.ToLower(name) {
	case SourceFMP:
		return &c.FMP, true
	case SourceEODHD:
		return &c.EODHD, true
	case SourceTiingo:
		return &c.Tiingo, true
	}
	return nil, false
}

// WarmConfig lists symbols refreshed on a schedule.
type WarmConfig struct {
	Symbols  []string `toml:"symbols"`
	Schedule string   `toml:"schedule"` // cron spec with seconds field
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level    string   `toml:"level"`
	Outputs  []string `toml:"outputs"`
	FilePath string   `toml:"file_path"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Backend:      BackendSQLite,
			WriteWorkers: 4,
			SQLite:       SQLiteConfig{Path: "data/market_cache.db"},
			SurrealDB: SurrealDBConfig{
				Address:   "ws://localhost:8000/rpc",
				Username:  "root",
				Password:  "root",
				Namespace: "stockview",
				Database:  "market",
			},
		},
		Clients: ClientsConfig{
			Source:      SourceFMP,
			HistoryDays: 5 * 365,
			FMP: VendorConfig{
				BaseURL:   "https://financialmodelingprep.com/api/v3",
				RateLimit: 5,
				Timeout:   "30s",
			},
			EODHD: VendorConfig{
				BaseURL:   "https://eodhd.com/api",
				RateLimit: 10,
				Timeout:   "30s",
			},
			Tiingo: VendorConfig{
				BaseURL:   "https://api.tiingo.com",
				RateLimit: 5,
				Timeout:   "30s",
			},
		},
		Warm: WarmConfig{
			Schedule: "0 0 */6 * * *",
		},
		Logging: LoggingConfig{
			Level:    "info",
			Outputs:  []string{"console"},
			FilePath: "./logs/stockview.log",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("STOCKVIEW_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("STOCKVIEW_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("STOCKVIEW_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("STOCKVIEW_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if src := os.Getenv("STOCKVIEW_SOURCE"); src != "" {
		config.Clients.Source = strings.ToLower(src)
	}

	if backend := os.Getenv("STOCKVIEW_STORAGE_BACKEND"); backend != "" {
		config.Storage.Backend = strings.ToLower(backend)
	}

	if path := os.Getenv("STOCKVIEW_SQLITE_PATH"); path != "" {
		config.Storage.SQLite.Path = path
	}

	if addr := os.Getenv("STOCKVIEW_SURREAL_ADDRESS"); addr != "" {
		config.Storage.SurrealDB.Address = addr
	}

	config.Clients.FMP.APIKey = ResolveAPIKey("fmp_api_key", config.Clients.FMP.APIKey)
	config.Clients.EODHD.APIKey = ResolveAPIKey("eodhd_api_key", config.Clients.EODHD.APIKey)
	config.Clients.Tiingo.APIKey = ResolveAPIKey("tiingo_api_key", config.Clients.Tiingo.APIKey)
}

// Validate rejects unknown source and backend names.
func (c *Config) Validate() error {
	if _, ok := c.Clients.Vendor(c.Clients.Source); !ok {
		return fmt.Errorf("unknown clients.source %q (want fmp, eodhd or tiingo)", c.Clients.Source)
	}
	switch c.Storage.Backend {
	case BackendSQLite, BackendSurrealDB, BackendNone:
	default:
		return fmt.Errorf("unknown storage.backend %q (want sqlite, surrealdb or none)", c.Storage.Backend)
	}
	if c.Clients.HistoryDays < 0 {
		return fmt.Errorf("clients.history_days must not be negative (got %d)", c.Clients.HistoryDays)
	}
	if c.Storage.WriteWorkers <= 0 {
		c.Storage.WriteWorkers = 1
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}

// ResolveAPIKey resolves an API key from the environment, falling back to
// the configured value.
func ResolveAPIKey(name string, fallback string) string {
	keyToEnvMapping := map[string][]string{
		"fmp_api_key":    {"FMP_API_KEY", "STOCKVIEW_FMP_API_KEY"},
		"eodhd_api_key":  {"EODHD_API_KEY", "STOCKVIEW_EODHD_API_KEY"},
		"tiingo_api_key": {"TIINGO_API_KEY", "STOCKVIEW_TIINGO_API_KEY"},
	}

	if envVarNames, ok := keyToEnvMapping[name]; ok {
		for _, envVarName := range envVarNames {
			if envValue := os.Getenv(envVarName); envValue != "" {
				return envValue
			}
		}
	}

	return fallback
}
