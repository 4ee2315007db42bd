package config

import (
	"time"

	"github.com/mjgerace/pnpm/internal/core/domain"
	"github.com/spf13/viper"
)

// Settings mirrors the keys accepted in .pnpmrc.yaml and PNPM_* variables.
type Settings struct {
	Registry           string        `mapstructure:"registry"`
	StoreDir           string        `mapstructure:"store_dir"`
	NetworkConcurrency int           `mapstructure:"network_concurrency"`
	FetchRetries       int           `mapstructure:"fetch_retries"`
	FetchRetryDelay    time.Duration `mapstructure:"fetch_retry_delay"`
	MaxDepth           int           `mapstructure:"max_depth"`
	JSONLogs           bool          `mapstructure:"json_logs"`
}

// Default returns the settings used when nothing is configured.
func Default() *Settings {
	return &Settings{
		Registry:           domain.DefaultRegistry,
		NetworkConcurrency: 16,
		FetchRetries:       3,
		FetchRetryDelay:    time.Second,
		MaxDepth:           1000,
	}
}

// SetDefaults registers every key on v. AutomaticEnv only sees keys viper already knows.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("registry", d.Registry)
	v.SetDefault("store_dir", d.StoreDir)
	v.SetDefault("network_concurrency", d.NetworkConcurrency)
	v.SetDefault("fetch_retries", d.FetchRetries)
	v.SetDefault("fetch_retry_delay", d.FetchRetryDelay)
	v.SetDefault("max_depth", d.MaxDepth)
	v.SetDefault("json_logs", d.JSONLogs)
}
