// Package config provides configuration loading and structs for multisense.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/multisense/internal/fnvhash"
)

// Config holds all configuration for the application.
type Config struct {
	Debug    bool                  `yaml:"debug"`
	Server   ServerConfig          `yaml:"server"`
	Model    ModelConfig           `yaml:"model"`
	Analysis AnalysisConfig        `yaml:"analysis"`
	Hash     fnvhash.SubwordConfig `yaml:"hash"`
	Clean    CleanConfig           `yaml:"clean"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns host:port.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ModelConfig locates the prototype vector files.
type ModelConfig struct {
	// Basename B resolves prototype 1 to B.vec and prototype N to BN.vec.
	Basename string `yaml:"basename"`
	Format   string `yaml:"format"`
	// PrototypePaths overrides the file of individual prototypes.
	PrototypePaths map[int]string `yaml:"prototype_paths"`
}

// AnalysisConfig holds prototype analysis settings.
type AnalysisConfig struct {
	TopN    int `yaml:"top_n"`
	MaxTopN int `yaml:"max_top_n"`
	// DistinctThreshold and CacheSize are pointers so that an explicit 0 is kept.
	DistinctThreshold *float64 `yaml:"distinct_threshold"`
	CacheSize         *int     `yaml:"cache_size"`
}

// ThresholdOrDefault returns the distinct threshold; 0.5 when unset.
func (a *AnalysisConfig) ThresholdOrDefault() float64 {
	if a.DistinctThreshold != nil {
		return *a.DistinctThreshold
	}
	return DefaultDistinctThreshold
}

// CacheSizeOrDefault returns the report cache size; 1024 when unset. Zero disables the cache.
func (a *AnalysisConfig) CacheSizeOrDefault() int {
	if a.CacheSize != nil {
		return *a.CacheSize
	}
	return DefaultCacheSize
}

// CleanConfig holds corpus cleaning and watch settings.
type CleanConfig struct {
	OutputDir        string   `yaml:"output_dir"`
	LedgerPath       string   `yaml:"ledger_path"`
	Stemmer          string   `yaml:"stemmer"`
	ProgressEvery    int      `yaml:"progress_every"`
	Extensions       []string `yaml:"extensions"`
	WatchDirectories []string `yaml:"watch_directories"`
	Recursive        *bool    `yaml:"recursive"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to true when unset.
func (c *CleanConfig) RecursiveOrDefault() bool {
	if c.Recursive != nil {
		return *c.Recursive
	}
	return true
}

// Default returns a config with every default applied and paths left relative to the working directory.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads and parses the config file at path, applies defaults, and expands paths.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Model.Basename = expandPath(cfg.Model.Basename, configDir)
	for id, p := range cfg.Model.PrototypePaths {
		cfg.Model.PrototypePaths[id] = expandPath(p, configDir)
	}
	cfg.Clean.OutputDir = expandPath(cfg.Clean.OutputDir, configDir)
	cfg.Clean.LedgerPath = expandPath(cfg.Clean.LedgerPath, configDir)
	for i := range cfg.Clean.WatchDirectories {
		cfg.Clean.WatchDirectories[i] = expandPath(cfg.Clean.WatchDirectories[i], configDir)
	}

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	if c.Model.Format != "vec" {
		return fmt.Errorf("model format %q is not supported (want vec)", c.Model.Format)
	}
	if c.Analysis.TopN <= 0 {
		return fmt.Errorf("analysis top_n must be positive, got %d", c.Analysis.TopN)
	}
	if c.Analysis.MaxTopN < c.Analysis.TopN {
		return fmt.Errorf("analysis max_top_n %d is below top_n %d", c.Analysis.MaxTopN, c.Analysis.TopN)
	}
	if c.Analysis.CacheSize != nil && *c.Analysis.CacheSize < 0 {
		return fmt.Errorf("analysis cache_size must not be negative, got %d", *c.Analysis.CacheSize)
	}
	if err := c.Hash.Validate(); err != nil {
		return err
	}
	switch c.Clean.Stemmer {
	case "snowball", "porter", "none":
	default:
		return fmt.Errorf("clean stemmer %q is not supported (want snowball, porter or none)", c.Clean.Stemmer)
	}
	return nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
