package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/newthinker/swingbot/internal/backtest"
	"github.com/newthinker/swingbot/internal/broker"
	"github.com/newthinker/swingbot/internal/core"
	"github.com/newthinker/swingbot/internal/storage/archive"
)

type Config struct {
	Backtest   BacktestConfig            `mapstructure:"backtest"`
	Data       DataConfig                `mapstructure:"data"`
	Strategies map[string]StrategyConfig `mapstructure:"strategies"`
	Archive    ArchiveConfig             `mapstructure:"archive"`
	Server     ServerConfig              `mapstructure:"server"`
	Metrics    MetricsConfig             `mapstructure:"metrics"`
}

// BacktestConfig holds the simulation settings shared by every run
type BacktestConfig struct {
	InitialCapital float64 `mapstructure:"initial_capital"`
	FillMode       string  `mapstructure:"fill_mode"`   // "close" or "next_open"
	CashPolicy     string  `mapstructure:"cash_policy"` // "allow" or "reject"
	TradingDays    int     `mapstructure:"trading_days"`
	Concurrency    int     `mapstructure:"concurrency"`
}

// DataConfig selects the bar source
type DataConfig struct {
	Source         string `mapstructure:"source"` // "csv", "yahoo" or "binance"
	Dir            string `mapstructure:"dir"`
	YahooBaseURL   string `mapstructure:"yahoo_base_url"`
	BinanceBaseURL string `mapstructure:"binance_base_url"`
}

type StrategyConfig struct {
	Params map[string]any `mapstructure:"params"`
}

type ArchiveConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Type    string   `mapstructure:"type"` // "localfs" or "s3"
	Path    string   `mapstructure:"path"` // For localfs
	S3      S3Config `mapstructure:"s3"`   // For S3
}

type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

type ServerConfig struct {
	Host        string `mapstructure:"host"`
	Port        int    `mapstructure:"port"`
	APIKey      string `mapstructure:"api_key"`
	JobTTLHours int    `mapstructure:"job_ttl_hours"`
	MaxJobs     int    `mapstructure:"max_jobs"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file over the defaults
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Support environment variable overrides
	v.SetEnvPrefix("SWINGBOT")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("reading config: %w", err))
	}

	// Expand ${VAR} references in string values
	for _, key := range v.AllKeys() {
		val, ok := v.Get(key).(string)
		if ok && strings.Contains(val, "${") {
			v.Set(key, os.Expand(val, os.Getenv))
		}
	}

	cfg := Defaults()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unmarshaling config: %w", err))
	}

	return cfg, nil
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Backtest: BacktestConfig{
			InitialCapital: 100000,
			FillMode:       string(backtest.FillClose),
			CashPolicy:     string(broker.CashPolicyAllow),
			TradingDays:    backtest.DefaultTradingDays,
			Concurrency:    4,
		},
		Data: DataConfig{
			Source: "csv",
			Dir:    "./data/raw",
		},
		Strategies: map[string]StrategyConfig{},
		Archive: ArchiveConfig{
			Type: "localfs",
			Path: "./runs",
		},
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			JobTTLHours: 1,
			MaxJobs:     100,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, err := c.BacktestOptions(); err != nil {
		return err
	}
	if c.Backtest.Concurrency < 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("concurrency must be at least 1, got %d", c.Backtest.Concurrency))
	}

	switch c.Data.Source {
	case "csv":
		if c.Data.Dir == "" {
			return core.WrapError(core.ErrConfigMissing, fmt.Errorf("data.dir required for the csv source"))
		}
	case "yahoo", "binance":
	default:
		return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown data source %q", c.Data.Source))
	}

	if c.Archive.Enabled {
		switch c.Archive.Type {
		case "localfs":
			if c.Archive.Path == "" {
				return core.WrapError(core.ErrConfigMissing, fmt.Errorf("archive.path required for localfs"))
			}
		case "s3":
			if c.Archive.S3.Bucket == "" {
				return core.WrapError(core.ErrConfigMissing, fmt.Errorf("archive.s3.bucket required for s3"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown archive type %q", c.Archive.Type))
		}
	}

	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.JobTTLHours < 0 || c.Server.MaxJobs < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("job_ttl_hours and max_jobs cannot be negative"))
	}

	return nil
}

// BacktestOptions converts the backtest section to simulation options
func (c *Config) BacktestOptions() (backtest.Options, error) {
	fill, err := backtest.ParseFillMode(c.Backtest.FillMode)
	if err != nil {
		return backtest.Options{}, err
	}
	policy, err := broker.ParseCashPolicy(c.Backtest.CashPolicy)
	if err != nil {
		return backtest.Options{}, err
	}
	opts := backtest.Options{
		InitialCapital: c.Backtest.InitialCapital,
		FillMode:       fill,
		CashPolicy:     policy,
		TradingDays:    c.Backtest.TradingDays,
	}
	return opts, opts.Validate()
}

// StrategyParams returns the configured parameters of a strategy merged
// with overrides. The result is a fresh map.
func (c *Config) StrategyParams(name string, overrides map[string]any) map[string]any {
	out := make(map[string]any)
	for k, v := range c.Strategies[name].Params {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}

// StorageConfig converts the archive section to a backend config
func (a ArchiveConfig) StorageConfig() archive.Config {
	return archive.Config{
		Type: a.Type,
		Path: a.Path,
		S3: archive.S3Config{
			Bucket:    a.S3.Bucket,
			Endpoint:  a.S3.Endpoint,
			Region:    a.S3.Region,
			AccessKey: a.S3.AccessKey,
			SecretKey: a.S3.SecretKey,
			Prefix:    a.S3.Prefix,
		},
	}
}
