// Package config resolves tool settings from defaults and environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime settings for the tool.
type Config struct {
	// CacheDir is the root directory for the part/pin caches.
	CacheDir string `mapstructure:"cache_dir"`
	// CacheTTL is how long a cache entry stays valid.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	// SearchURL is the catalog search endpoint.
	SearchURL string `mapstructure:"search_url"`
	// DetailURL is the catalog part-detail endpoint.
	DetailURL string `mapstructure:"detail_url"`
	// SymbolURL is the EasyEDA component endpoint (format string, id inserted).
	SymbolURL string `mapstructure:"symbol_url"`
	// HTTPTimeout bounds every network call.
	HTTPTimeout time.Duration `mapstructure:"http_timeout"`
	// FetchConcurrency limits concurrent part lookups in batch operations.
	FetchConcurrency int `mapstructure:"fetch_concurrency"`
}

const (
	defaultSearchURL = "https://jlcpcb.com/api/overseas-pcb-order/v1/shoppingCart/smtGood/selectSmtComponentList/v2"
	defaultDetailURL = "https://cart.jlcpcb.com/shoppingCart/smtGood/getComponentDetail"
	defaultSymbolURL = "https://easyeda.com/api/products/%s/components"
)

// Load builds the configuration from defaults and PCB_JLCPCB_* environment
// variables. No config file is required; env overrides win.
func Load() (*Config, error) {
	v := viper.New()

	v.SetDefault("cache_dir", defaultCacheDir())
	v.SetDefault("cache_ttl", 24*time.Hour)
	v.SetDefault("search_url", defaultSearchURL)
	v.SetDefault("detail_url", defaultDetailURL)
	v.SetDefault("symbol_url", defaultSymbolURL)
	v.SetDefault("http_timeout", 30*time.Second)
	v.SetDefault("fetch_concurrency", 4)

	v.SetEnvPrefix("PCB_JLCPCB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	if cfg.FetchConcurrency < 1 {
		cfg.FetchConcurrency = 1
	}
	if cfg.CacheTTL <= 0 {
		return nil, fmt.Errorf("config: cache_ttl must be positive, got %s", cfg.CacheTTL)
	}

	return &cfg, nil
}

func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".pcb", "jlcpcb")
	}
	return filepath.Join(home, ".pcb", "jlcpcb")
}
