package main

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/tokenvault/ledger/errors"
)

// Config is the runtime configuration of the daemon.
type Config struct {
	// DataDir is the directory holding the state database.
	DataDir  string `toml:"data_dir"`
	LogLevel string `toml:"log_level"`

	Store  StoreConfig  `toml:"store"`
	API    APIConfig    `toml:"api"`
	Ticker TickerConfig `toml:"ticker"`
}

type StoreConfig struct {
	ReadCacheMB   int `toml:"read_cache_mb"`
	WriteBufferMB int `toml:"write_buffer_mb"`
}

type APIConfig struct {
	Addr string `toml:"addr"`
	// CORS is a comma separated list of allowed origins.
	CORS       string `toml:"cors"`
	EnableLogs bool   `toml:"enable_logs"`
	// Events enables the websocket event stream.
	Events bool `toml:"events"`
	// Metrics enables the prometheus endpoint.
	Metrics bool `toml:"metrics"`
}

type TickerConfig struct {
	// Interval between two runs of the ticker. Zero disables it.
	Interval time.Duration `toml:"interval"`
}

// Defaults returns the configuration used for any value not set by the
// configuration file or the environment.
func Defaults() Config {
	return Config{
		DataDir:  defaultDataDir(),
		LogLevel: "info",
		Store: StoreConfig{
			ReadCacheMB:   16,
			WriteBufferMB: 4,
		},
		API: APIConfig{
			Addr:    "localhost:8680",
			Events:  true,
			Metrics: true,
		},
		Ticker: TickerConfig{
			Interval: 5 * time.Second,
		},
	}
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".ledgerd")
	}
	return ".ledgerd"
}

// LoadConfig reads the TOML file at path on top of the defaults and applies
// the LEDGERD_* environment overrides. An empty path skips the file. A .env
// file in the working directory is loaded if present.
func LoadConfig(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, errors.Wrapf(errors.ErrInvalidInput, "config %q: %s", path, err)
		}
	}

	// Missing .env is not an error.
	_ = godotenv.Load()

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	setStr(&cfg.DataDir, "LEDGERD_DATA_DIR")
	setStr(&cfg.LogLevel, "LEDGERD_LOG_LEVEL")
	setStr(&cfg.API.Addr, "LEDGERD_API_ADDR")
	setStr(&cfg.API.CORS, "LEDGERD_API_CORS")

	return errors.Append(
		setInt(&cfg.Store.ReadCacheMB, "LEDGERD_STORE_READ_CACHE_MB"),
		setInt(&cfg.Store.WriteBufferMB, "LEDGERD_STORE_WRITE_BUFFER_MB"),
		setBool(&cfg.API.EnableLogs, "LEDGERD_API_ENABLE_LOGS"),
		setBool(&cfg.API.Events, "LEDGERD_API_EVENTS"),
		setBool(&cfg.API.Metrics, "LEDGERD_API_METRICS"),
		setDuration(&cfg.Ticker.Interval, "LEDGERD_TICKER_INTERVAL"),
	)
}

// Validate returns an error if the configuration cannot be used.
func (c *Config) Validate() error {
	var errs error
	if c.DataDir == "" {
		errs = errors.AppendField(errs, "data_dir", errors.ErrEmpty)
	}
	switch c.LogLevel {
	case "debug", "info", "error", "none":
	default:
		errs = errors.AppendField(errs, "log_level", errors.ErrInvalidInput)
	}
	if c.API.Addr == "" {
		errs = errors.AppendField(errs, "api.addr", errors.ErrEmpty)
	}
	if c.Ticker.Interval < 0 {
		errs = errors.AppendField(errs, "ticker.interval", errors.ErrInvalidInput)
	}
	if c.Store.ReadCacheMB < 0 {
		errs = errors.AppendField(errs, "store.read_cache_mb", errors.ErrInvalidInput)
	}
	if c.Store.WriteBufferMB < 0 {
		errs = errors.AppendField(errs, "store.write_buffer_mb", errors.ErrInvalidInput)
	}
	return errs
}

func setStr(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "%s: %s", key, err)
	}
	*dst = n
	return nil
}

func setBool(dst *bool, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "%s: %s", key, err)
	}
	*dst = b
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return errors.Wrapf(errors.ErrInvalidInput, "%s: %s", key, err)
	}
	*dst = d
	return nil
}
