package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/matzehuels/depresolve/pkg/cache"
)

const (
	configName = ".depresolve"
	configType = "yaml"
	envPrefix  = "DEPRESOLVE"
)

// Defaults.
const (
	DefaultTimeout   = 5 * time.Minute
	DefaultRetries   = 3
	DefaultBackoff   = 500 * time.Millisecond
	DefaultListen    = "127.0.0.1:8377"
	DefaultCacheTTL  = 24 * time.Hour
	DefaultCacheSize = cache.DefaultMemorySize
)

// Load reads configuration. A non-empty path names the config file
// explicitly; otherwise .depresolve.yaml is looked up in the current
// directory and then $HOME. A missing file is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	applyDefaults(v)

	v.SetConfigType(configType)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("resolution.allow_dynamic", false)
	v.SetDefault("resolution.prefer_dynamic_graph", false)
	v.SetDefault("resolution.timeout", DefaultTimeout)
	v.SetDefault("resolution.concurrency", runtime.GOMAXPROCS(0))

	v.SetDefault("resolver.transport", TransportExec)
	v.SetDefault("resolver.command", "")
	v.SetDefault("resolver.url", "")
	v.SetDefault("resolver.retries", DefaultRetries)
	v.SetDefault("resolver.backoff", DefaultBackoff)

	v.SetDefault("worker.listen", DefaultListen)
	v.SetDefault("worker.tool_timeout", DefaultTimeout)

	v.SetDefault("cache.backend", cache.BackendFile)
	v.SetDefault("cache.dir", DefaultCacheDir())
	v.SetDefault("cache.ttl", DefaultCacheTTL)
	v.SetDefault("cache.size", DefaultCacheSize)
	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.prefix", "")

	v.SetDefault("scan.exclude", []string{})
}

// DefaultCacheDir follows XDG: $XDG_CACHE_HOME/depresolve, else
// ~/.cache/depresolve.
func DefaultCacheDir() string {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, "depresolve")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "depresolve")
	}
	return filepath.Join(home, ".cache", "depresolve")
}
