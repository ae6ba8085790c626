// Package config loads depresolve settings from a YAML file, environment
// variables prefixed DEPRESOLVE_, and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/matzehuels/depresolve/pkg/cache"
	"github.com/matzehuels/depresolve/pkg/deps"
	"github.com/matzehuels/depresolve/pkg/deps/matcher"
	derrors "github.com/matzehuels/depresolve/pkg/errors"
	"github.com/matzehuels/depresolve/pkg/worker"
)

// Transports accepted by resolver.transport.
const (
	TransportExec = "exec"
	TransportHTTP = "http"
)

// Validation errors.
var (
	ErrInvalidConcurrency = errors.New("resolution.concurrency must not be negative")
	ErrInvalidTimeout     = errors.New("resolution.timeout must not be negative")
	ErrInvalidTransport   = errors.New("resolver.transport must be exec or http")
	ErrMissingCommand     = errors.New("resolver.command is required for the exec transport")
	ErrMissingURL         = errors.New("resolver.url is required for the http transport")
	ErrInvalidURL         = errors.New("invalid resolver.url")
	ErrInvalidRetries     = errors.New("resolver.retries must not be negative")
	ErrInvalidBackend     = errors.New("cache.backend must be file, memory, redis or none")
	ErrMissingRedisAddr   = errors.New("cache.redis_addr is required for the redis backend")
	ErrInvalidExclude     = errors.New("invalid scan.exclude pattern")
	ErrInvalidMatcher     = errors.New("invalid matcher")
	ErrInvalidTool        = errors.New("invalid worker tool")
)

// Config is the top-level configuration.
type Config struct {
	Resolution ResolutionConfig `mapstructure:"resolution"`
	Resolver   ResolverConfig   `mapstructure:"resolver"`
	Worker     WorkerConfig     `mapstructure:"worker"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Scan       ScanConfig       `mapstructure:"scan"`
	Matchers   []MatcherConfig  `mapstructure:"matchers"`
}

// ResolutionConfig is the dispatch policy.
type ResolutionConfig struct {
	AllowDynamic       bool          `mapstructure:"allow_dynamic"`
	PreferDynamicGraph bool          `mapstructure:"prefer_dynamic_graph"`
	Timeout            time.Duration `mapstructure:"timeout"`
	Concurrency        int           `mapstructure:"concurrency"`
}

// ResolverConfig tells the scanner how to reach a worker.
type ResolverConfig struct {
	Transport string        `mapstructure:"transport"`
	Command   string        `mapstructure:"command"`
	Args      []string      `mapstructure:"args"`
	URL       string        `mapstructure:"url"`
	Retries   int           `mapstructure:"retries"`
	Backoff   time.Duration `mapstructure:"backoff"`
}

// WorkerConfig configures `depresolve worker`.
type WorkerConfig struct {
	Listen      string        `mapstructure:"listen"`
	ToolTimeout time.Duration `mapstructure:"tool_timeout"`
	// Tools overrides or extends the built-in tools, keyed by manifest kind.
	Tools map[string]ToolConfig `mapstructure:"tools"`
}

// ToolConfig is one package manager invocation.
type ToolConfig struct {
	Command  string   `mapstructure:"command"`
	Args     []string `mapstructure:"args"`
	Output   string   `mapstructure:"output"`
	Lockfile string   `mapstructure:"lockfile"`
}

// CacheConfig selects the worker's cache backend.
type CacheConfig struct {
	Backend   string        `mapstructure:"backend"`
	Dir       string        `mapstructure:"dir"`
	TTL       time.Duration `mapstructure:"ttl"`
	Size      int           `mapstructure:"size"`
	RedisAddr string        `mapstructure:"redis_addr"`
	Prefix    string        `mapstructure:"prefix"`
}

// ScanConfig controls candidate enumeration.
type ScanConfig struct {
	Exclude []string `mapstructure:"exclude"`
}

// MatcherConfig declares an extra glob lockfile matcher, appended after the
// built-in registry.
type MatcherConfig struct {
	Patterns []string `mapstructure:"patterns"`
	Manifest string   `mapstructure:"manifest"`
	Lockfile string   `mapstructure:"lockfile_kind"`
	Kind     string   `mapstructure:"manifest_kind"`
}

// Validate checks every section and returns the first problem.
func (c *Config) Validate() error {
	if c.Resolution.Concurrency < 0 {
		return ErrInvalidConcurrency
	}
	if c.Resolution.Timeout < 0 {
		return ErrInvalidTimeout
	}
	if err := c.validateResolver(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	for _, p := range c.Scan.Exclude {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("%w: %q", ErrInvalidExclude, p)
		}
	}
	if _, err := c.ExtraMatchers(); err != nil {
		return err
	}
	_, err := c.Tools()
	return err
}

func (c *Config) validateResolver() error {
	if c.Resolver.Retries < 0 {
		return ErrInvalidRetries
	}
	switch c.Resolver.Transport {
	case TransportExec:
		if c.Resolution.AllowDynamic && c.Resolver.Command == "" {
			return ErrMissingCommand
		}
	case TransportHTTP:
		if c.Resolver.URL == "" {
			if c.Resolution.AllowDynamic {
				return ErrMissingURL
			}
			return nil
		}
		if err := derrors.ValidateURL(c.Resolver.URL); err != nil {
			return fmt.Errorf("%w: %s", ErrInvalidURL, derrors.UserMessage(err))
		}
	default:
		return ErrInvalidTransport
	}
	return nil
}

func (c *Config) validateCache() error {
	switch c.Cache.Backend {
	case cache.BackendFile, cache.BackendMemory, cache.BackendNone:
		return nil
	case cache.BackendRedis:
		if c.Cache.RedisAddr == "" {
			return ErrMissingRedisAddr
		}
		return nil
	}
	return ErrInvalidBackend
}

// ExtraMatchers builds the configured pattern matchers.
func (c *Config) ExtraMatchers() ([]matcher.Matcher, error) {
	var out []matcher.Matcher
	for i, mc := range c.Matchers {
		if mc.Manifest != "" {
			if err := derrors.ValidateManifestFilename(mc.Manifest); err != nil {
				return nil, fmt.Errorf("%w %d: %s", ErrInvalidMatcher, i, derrors.UserMessage(err))
			}
		}
		m, err := matcher.NewPatternLockfile(mc.Patterns, mc.Manifest, deps.LockfileKind(mc.Lockfile), deps.ManifestKind(mc.Kind))
		if err != nil {
			return nil, fmt.Errorf("%w %d: %v", ErrInvalidMatcher, i, err)
		}
		out = append(out, m)
	}
	return out, nil
}

// AllMatchers returns the built-in registry followed by the configured
// extras.
func (c *Config) AllMatchers() ([]matcher.Matcher, error) {
	extra, err := c.ExtraMatchers()
	if err != nil {
		return nil, err
	}
	return matcher.WithExtra(matcher.Matchers, extra...), nil
}

// Tools returns worker.DefaultTools with the configured tools applied on
// top.
func (c *Config) Tools() (map[deps.ManifestKind]worker.Tool, error) {
	tools := make(map[deps.ManifestKind]worker.Tool, len(worker.DefaultTools)+len(c.Worker.Tools))
	for k, t := range worker.DefaultTools {
		tools[k] = t
	}
	for name, tc := range c.Worker.Tools {
		kind := deps.ManifestKind(name)
		if !kind.Valid() {
			return nil, fmt.Errorf("%w: unknown manifest kind %q", ErrInvalidTool, name)
		}
		lk := deps.LockfileKind(tc.Lockfile)
		if !lk.Valid() {
			return nil, fmt.Errorf("%w %s: unknown lockfile kind %q", ErrInvalidTool, name, tc.Lockfile)
		}
		if tc.Command == "" || tc.Output == "" {
			return nil, fmt.Errorf("%w %s: command and output are required", ErrInvalidTool, name)
		}
		if err := derrors.ValidateManifestFilename(tc.Output); err != nil {
			return nil, fmt.Errorf("%w %s: output: %s", ErrInvalidTool, name, derrors.UserMessage(err))
		}
		tools[kind] = worker.Tool{Command: tc.Command, Args: tc.Args, Output: tc.Output, Lockfile: lk}
	}
	return tools, nil
}
