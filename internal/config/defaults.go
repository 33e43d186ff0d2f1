package config

import "github.com/hyperjump/multisense/internal/fnvhash"

// Analysis defaults used when the config leaves a value unset.
const (
	DefaultDistinctThreshold = 0.5
	DefaultCacheSize         = 1024
)

// DefaultPath is where the config is looked up when --config is not given.
const DefaultPath = "/usr/local/etc/multisense/config.yaml"

// ApplyDefaults sets default values for any zero values in cfg. Pointer fields
// stay nil; their OrDefault accessors supply the default.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Model.Basename == "" {
		cfg.Model.Basename = "./model"
	}
	if cfg.Model.Format == "" {
		cfg.Model.Format = "vec"
	}
	if cfg.Model.PrototypePaths == nil {
		cfg.Model.PrototypePaths = map[int]string{}
	}
	if cfg.Analysis.TopN == 0 {
		cfg.Analysis.TopN = 10
	}
	if cfg.Analysis.MaxTopN == 0 {
		cfg.Analysis.MaxTopN = 100
	}
	def := fnvhash.DefaultSubwordConfig()
	if cfg.Hash.MinN == 0 {
		cfg.Hash.MinN = def.MinN
	}
	if cfg.Hash.MaxN == 0 {
		cfg.Hash.MaxN = def.MaxN
	}
	if cfg.Hash.Bucket == 0 {
		cfg.Hash.Bucket = def.Bucket
	}
	if cfg.Clean.OutputDir == "" {
		cfg.Clean.OutputDir = "./cleaned"
	}
	if cfg.Clean.LedgerPath == "" {
		cfg.Clean.LedgerPath = "./data/ledger.db"
	}
	if cfg.Clean.Stemmer == "" {
		cfg.Clean.Stemmer = "snowball"
	}
	if cfg.Clean.ProgressEvery == 0 {
		cfg.Clean.ProgressEvery = 10000
	}
	if cfg.Clean.Extensions == nil {
		cfg.Clean.Extensions = []string{".txt", ".md", ".rst", ".pdf", ".docx", ".xlsx", ".pptx", ".odp", ".ods", ".odt"}
	}
	// Recursive defaults to true when unset (nil).
	if len(cfg.Clean.WatchDirectories) > 0 && cfg.Clean.Recursive == nil {
		t := true
		cfg.Clean.Recursive = &t
	}
}
