// Package config handles configuration loading for VietVal.
// It supports YAML config files with environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the complete application configuration.
type Config struct {
	Provider  ProviderConfig  `mapstructure:"provider"  yaml:"provider"`
	Valuation ValuationConfig `mapstructure:"valuation" yaml:"valuation"`
	API       APIConfig       `mapstructure:"api"       yaml:"api"`
	Report    ReportConfig    `mapstructure:"report"    yaml:"report"`
	Logging   LoggingConfig   `mapstructure:"logging"   yaml:"logging"`
}

// ProviderConfig holds the fundamentals-provider connection settings.
type ProviderConfig struct {
	BaseURL         string   `mapstructure:"base_url"         yaml:"base_url"`
	TimeoutSec      int      `mapstructure:"timeout_sec"      yaml:"timeout_sec"`
	CacheTTLSec     int      `mapstructure:"cache_ttl_sec"    yaml:"cache_ttl_sec"`
	RatePerSec      int      `mapstructure:"rate_per_sec"     yaml:"rate_per_sec"`
	Watchlist       []string `mapstructure:"watchlist"        yaml:"watchlist"`
	RefreshSchedule string   `mapstructure:"refresh_schedule" yaml:"refresh_schedule"` // cron spec
}

// ValuationConfig holds engine defaults and policy settings.
type ValuationConfig struct {
	RevenueGrowth   float64 `mapstructure:"revenue_growth"   yaml:"revenue_growth"`  // %
	TerminalGrowth  float64 `mapstructure:"terminal_growth"  yaml:"terminal_growth"` // %
	WACC            float64 `mapstructure:"wacc"             yaml:"wacc"`            // %
	RequiredReturn  float64 `mapstructure:"required_return"  yaml:"required_return"` // %
	TaxRate         float64 `mapstructure:"tax_rate"         yaml:"tax_rate"`        // %
	ProjectionYears int     `mapstructure:"projection_years" yaml:"projection_years"`

	Graham GrahamConfig `mapstructure:"graham" yaml:"graham"`

	// Sector multiples used when the provider has no medians.
	FallbackPE float64 `mapstructure:"fallback_pe" yaml:"fallback_pe"`
	FallbackPB float64 `mapstructure:"fallback_pb" yaml:"fallback_pb"`
}

// GrahamConfig holds the Graham formula policy: the formula's constant
// and the bank-exclusion default are configuration, not code.
type GrahamConfig struct {
	Multiplier   float64 `mapstructure:"multiplier"    yaml:"multiplier"`
	ExcludeBanks bool    `mapstructure:"exclude_banks" yaml:"exclude_banks"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host        string   `mapstructure:"host"         yaml:"host"`
	Port        int      `mapstructure:"port"         yaml:"port"`
	CORSOrigins []string `mapstructure:"cors_origins" yaml:"cors_origins"`
}

// ReportConfig holds export settings.
type ReportConfig struct {
	OutputDir string `mapstructure:"output_dir" yaml:"output_dir"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.vietval/config.yaml (home directory)
//  3. /etc/vietval/config.yaml (system)
//
// Environment variables override config file values.
// Format: VIETVAL_<SECTION>_<KEY>, e.g., VIETVAL_PROVIDER_BASE_URL
func Load() (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".vietval"))
	v.AddConfigPath("/etc/vietval")

	v.SetEnvPrefix("VIETVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetEnvPrefix("VIETVAL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// Provider defaults
	v.SetDefault("provider.base_url", "http://localhost:5000/api")
	v.SetDefault("provider.timeout_sec", 30)
	v.SetDefault("provider.cache_ttl_sec", 300) // 5 minutes
	v.SetDefault("provider.rate_per_sec", 5)
	v.SetDefault("provider.refresh_schedule", "@every 15m")

	// Valuation defaults for the Vietnamese market
	v.SetDefault("valuation.revenue_growth", 8.0)
	v.SetDefault("valuation.terminal_growth", 3.0)
	v.SetDefault("valuation.wacc", 10.5)
	v.SetDefault("valuation.required_return", 12.0)
	v.SetDefault("valuation.tax_rate", 20.0)
	v.SetDefault("valuation.projection_years", 5)
	v.SetDefault("valuation.graham.multiplier", 22.5)
	v.SetDefault("valuation.graham.exclude_banks", true)
	v.SetDefault("valuation.fallback_pe", 15.0)
	v.SetDefault("valuation.fallback_pb", 1.5)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)

	// Report defaults
	v.SetDefault("report.output_dir", "./reports")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
