// Package main is the multisense CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/multisense/internal/analyzer"
	"github.com/hyperjump/multisense/internal/config"
	"github.com/hyperjump/multisense/internal/embedding"
	"github.com/hyperjump/multisense/pkg/utils"
)

var version = "dev"

// app carries the state shared by every subcommand once the root flags are parsed.
type app struct {
	configPath string
	debug      bool

	cfg     *config.Config
	cfgPath string
	logger  *zap.Logger
}

// loadConfig loads config from path. When path is the default, ./config.yaml wins
// if it exists (for development), and built-in defaults are used when neither file exists.
// Returns the config and the path that was actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == config.DefaultPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
		if _, statErr := os.Stat(path); errors.Is(statErr, os.ErrNotExist) {
			return config.Default(), "", nil
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "multisense",
		Short:         "Analyze multi-prototype word embeddings and prepare their training corpus",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultPath, "config file path")
	root.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newAnalyzeCmd(a),
		newNeighborsCmd(a),
		newHashCmd(a),
		newCleanCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
		newLedgerCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init() error {
	cfg, path, err := loadConfig(a.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if a.debug {
		cfg.Debug = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	a.cfg, a.cfgPath, a.logger = cfg, path, logger
	a.logger.Debug("config loaded", zap.String("config_path", path), zap.Bool("debug", cfg.Debug))
	return nil
}

// loadAnalyzer reads prototypes 1 and 2 of the configured model.
func (a *app) loadAnalyzer() (*analyzer.Analyzer, error) {
	m := a.cfg.Model
	loader := embedding.NewLoader(embedding.WithLoaderLogger(a.logger))
	store, err := loader.LoadBasename(m.Basename, m.PrototypePaths, 1, 2)
	if err != nil {
		return nil, err
	}
	return analyzer.New(store,
		analyzer.WithTopN(a.cfg.Analysis.TopN),
		analyzer.WithThreshold(a.cfg.Analysis.ThresholdOrDefault()),
		analyzer.WithCacheSize(a.cfg.Analysis.CacheSizeOrDefault()),
		analyzer.WithLogger(a.logger),
	)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// notFound turns a missing-word error into the message users see.
func notFound(word string, err error) error {
	if errors.Is(err, analyzer.ErrWordNotFound) {
		return fmt.Errorf("'%s' not found in the vocabulary", word)
	}
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "multisense version %s\n", version)
			return err
		},
	}
}
