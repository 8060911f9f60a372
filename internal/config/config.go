// Package config loads poolview settings from flags, environment and an
// optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. POOLVIEW_RPC_ENDPOINT.
const EnvPrefix = "POOLVIEW"

// Defaults.
const (
	DefaultRPCEndpoint       = "https://api.mainnet-beta.solana.com"
	DefaultProgramID         = "whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc"
	DefaultPool              = "Czfq3xZZDmsdGdUyrNLtRhGc47cXcZtLG4crryfu44zE"
	DefaultListenAddr        = ":8080"
	DefaultRefreshInterval   = 10 * time.Second
	DefaultCommitDebounce    = 200 * time.Millisecond
	DefaultUserRangePct      = 0.10
	DefaultChartMarginPct    = 0.10
	DefaultMaxRetries        = 3
	DefaultRetryDelay        = time.Second
	DefaultDecimalsCacheSize = 256
	DefaultLogLevel          = "info"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCEndpoint       string
	WSEndpoint        string
	Pool              string
	ProgramID         string
	ListenAddr        string
	RefreshInterval   time.Duration
	CommitDebounce    time.Duration
	UserRangePct      decimal.Decimal
	ChartMarginPct    decimal.Decimal
	MaxRetries        int
	RetryDelay        time.Duration
	DecodeWorkers     int
	DecimalsCacheSize int
	LogLevel          string
}

// RegisterFlags adds every config key to flags with its default.
func RegisterFlags(flags *pflag.FlagSet) {
	flags.String("rpc-endpoint", DefaultRPCEndpoint, "Solana RPC HTTP endpoint")
	flags.String("ws-endpoint", "", "Solana WebSocket endpoint (empty disables account subscription)")
	flags.String("pool", DefaultPool, "Whirlpool account address")
	flags.String("program-id", DefaultProgramID, "Whirlpool program ID")
	flags.String("listen-addr", DefaultListenAddr, "HTTP listen address")
	flags.Duration("refresh-interval", DefaultRefreshInterval, "pool refresh interval")
	flags.Duration("commit-debounce", DefaultCommitDebounce, "quiet period before a dragged range is committed")
	flags.Float64("user-range-pct", DefaultUserRangePct, "initial user range as a fraction of price on each side")
	flags.Float64("chart-margin-pct", DefaultChartMarginPct, "chart margin beyond the user range on each side")
	flags.Int("max-retries", DefaultMaxRetries, "maximum RPC retry attempts")
	flags.Duration("retry-delay", DefaultRetryDelay, "initial RPC retry delay")
	flags.Int("decode-workers", 0, "tick decode workers (0 means GOMAXPROCS)")
	flags.Int("decimals-cache-size", DefaultDecimalsCacheSize, "token decimals cache entries")
	flags.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("rpc-endpoint", DefaultRPCEndpoint)
	v.SetDefault("pool", DefaultPool)
	v.SetDefault("program-id", DefaultProgramID)
	v.SetDefault("listen-addr", DefaultListenAddr)
	v.SetDefault("refresh-interval", DefaultRefreshInterval)
	v.SetDefault("commit-debounce", DefaultCommitDebounce)
	v.SetDefault("user-range-pct", DefaultUserRangePct)
	v.SetDefault("chart-margin-pct", DefaultChartMarginPct)
	v.SetDefault("max-retries", DefaultMaxRetries)
	v.SetDefault("retry-delay", DefaultRetryDelay)
	v.SetDefault("decimals-cache-size", DefaultDecimalsCacheSize)
	v.SetDefault("log-level", DefaultLogLevel)

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	} else {
		v.SetConfigName("poolview")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := Config{
		RPCEndpoint:       v.GetString("rpc-endpoint"),
		WSEndpoint:        v.GetString("ws-endpoint"),
		Pool:              v.GetString("pool"),
		ProgramID:         v.GetString("program-id"),
		ListenAddr:        v.GetString("listen-addr"),
		RefreshInterval:   v.GetDuration("refresh-interval"),
		CommitDebounce:    v.GetDuration("commit-debounce"),
		UserRangePct:      decimal.NewFromFloat(v.GetFloat64("user-range-pct")),
		ChartMarginPct:    decimal.NewFromFloat(v.GetFloat64("chart-margin-pct")),
		MaxRetries:        v.GetInt("max-retries"),
		RetryDelay:        v.GetDuration("retry-delay"),
		DecodeWorkers:     v.GetInt("decode-workers"),
		DecimalsCacheSize: v.GetInt("decimals-cache-size"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, cfg.Validate()
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.RPCEndpoint == "" {
		return errors.New("rpc-endpoint is required")
	}
	if c.Pool == "" {
		return errors.New("pool is required")
	}
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("refresh-interval must be positive, got %s", c.RefreshInterval)
	}
	one := decimal.NewFromInt(1)
	if !c.UserRangePct.IsPositive() || c.UserRangePct.GreaterThanOrEqual(one) {
		return fmt.Errorf("user-range-pct must be in (0, 1), got %s", c.UserRangePct)
	}
	if c.ChartMarginPct.IsNegative() || c.ChartMarginPct.GreaterThanOrEqual(one) {
		return fmt.Errorf("chart-margin-pct must be in [0, 1), got %s", c.ChartMarginPct)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max-retries must be at least 1, got %d", c.MaxRetries)
	}
	return nil
}
