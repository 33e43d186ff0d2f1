package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/multisense/internal/cleaner"
	"github.com/hyperjump/multisense/internal/cli"
	"github.com/hyperjump/multisense/internal/corpus"
	"github.com/hyperjump/multisense/internal/models"
	"github.com/hyperjump/multisense/internal/storage"
	"github.com/hyperjump/multisense/internal/watcher"
)

// openPipeline builds the cleaning pipeline from config. The ledger is opened
// unless useLedger is false; the returned close func releases it.
func (a *app) openPipeline(useLedger bool) (*corpus.Pipeline, storage.Ledger, func(), error) {
	c, err := cleaner.New(a.cfg.Clean.Stemmer,
		cleaner.WithLogger(a.logger),
		cleaner.WithProgressEvery(a.cfg.Clean.ProgressEvery),
	)
	if err != nil {
		return nil, nil, nil, err
	}
	opts := []corpus.Option{
		corpus.WithOutputDir(a.cfg.Clean.OutputDir),
		corpus.WithLogger(a.logger),
	}
	closeFn := func() {}
	var ledger storage.Ledger
	if useLedger {
		l, err := storage.NewSQLiteLedger(a.cfg.Clean.LedgerPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to open ledger: %w", err)
		}
		ledger = l
		opts = append(opts, corpus.WithLedger(l))
		closeFn = func() { _ = l.Close() }
	}
	return corpus.New(c, opts...), ledger, closeFn, nil
}

func newCleanCmd(a *app) *cobra.Command {
	var (
		output   string
		noLedger bool
	)
	cmd := &cobra.Command{
		Use:   "clean <input...>",
		Short: "Clean corpus files into one normalized token line per input line",
		Long: "Clean corpus files: lowercase, strip punctuation and digits, drop English stop words\n" +
			"and stem every token. With a single input, --output may name the output file;\n" +
			"otherwise it names a directory (default clean.output_dir from config).",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, closeFn, err := a.openPipeline(!noLedger)
			if err != nil {
				return err
			}
			defer closeFn()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			records, err := p.CleanPaths(ctx, args, output)
			printCleanSummary(cmd.OutOrStdout(), records)
			return err
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (single input) or directory")
	cmd.Flags().BoolVar(&noLedger, "no-ledger", false, "do not record runs in the cleaning ledger")
	return cmd
}

func printCleanSummary(w io.Writer, records []*models.CleanRecord) {
	for _, r := range records {
		if r == nil {
			continue
		}
		if r.Status == models.CleanStatusOK {
			fmt.Fprintf(w, "Cleaning complete. %d lines processed and saved to: %s\n", r.Lines, r.OutputPath)
		} else {
			fmt.Fprintf(w, "Cleaning failed for %s: %s\n", r.SourcePath, r.Error)
		}
	}
}

func newWatchCmd(a *app) *cobra.Command {
	var noSync bool
	cmd := &cobra.Command{
		Use:   "watch [directory...]",
		Short: "Keep cleaned output in sync with watched corpus directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs := args
			if len(dirs) == 0 {
				dirs = a.cfg.Clean.WatchDirectories
			}
			if len(dirs) == 0 {
				return fmt.Errorf("no directories to watch: pass them as arguments or set clean.watch_directories")
			}
			p, _, closeFn, err := a.openPipeline(true)
			if err != nil {
				return err
			}
			defer closeFn()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			w := a.newCorpusWatcher(ctx, p, dirs)
			if err := w.Start(ctx); err != nil {
				return fmt.Errorf("failed to start watcher: %w", err)
			}
			defer w.Stop()
			if !noSync {
				w.SyncExistingFiles()
			}
			a.logger.Info("watching corpus", zap.Strings("directories", w.Directories()))
			<-ctx.Done()
			a.logger.Info("Shutting down...")
			return nil
		},
	}
	cmd.Flags().BoolVar(&noSync, "no-sync", false, "do not clean files already present on start")
	return cmd
}

// newCorpusWatcher wires watcher events to the pipeline. The output directory
// is ignored so the watcher never reacts to its own writes.
func (a *app) newCorpusWatcher(ctx context.Context, p *corpus.Pipeline, dirs []string) *watcher.Watcher {
	logger := a.logger
	return watcher.NewWatcher(
		dirs,
		a.cfg.Clean.Extensions,
		a.cfg.Clean.RecursiveOrDefault(),
		func(path string) {
			if _, skipped, err := p.Sync(ctx, path); err != nil {
				logger.Warn("watch clean failed", zap.String("path", path), zap.Error(err))
			} else if skipped {
				logger.Debug("watch clean skipped", zap.String("path", path))
			}
		},
		func(path string) {
			if err := p.Remove(ctx, path); err != nil {
				logger.Warn("watch remove failed", zap.String("path", path), zap.Error(err))
			}
		},
		watcher.WithLogger(logger),
		watcher.WithIgnore(a.cfg.Clean.OutputDir),
	)
}

func newLedgerCmd(a *app) *cobra.Command {
	var (
		offset int
		limit  int
		output string
	)
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "List cleaned corpus files",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			l, err := storage.NewSQLiteLedger(a.cfg.Clean.LedgerPath)
			if err != nil {
				return fmt.Errorf("failed to open ledger: %w", err)
			}
			defer l.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			records, err := l.List(ctx, offset, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if err := cli.WriteLedger(out, records, format); err != nil {
				return err
			}
			if format == cli.OutputJSON {
				return nil
			}
			total, err := l.Count(ctx)
			if err != nil {
				return err
			}
			usage, err := storage.DiskUsage(a.cfg.Clean.OutputDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d of %d records shown. %s holds %d files, %d bytes.\n",
				len(records), total, a.cfg.Clean.OutputDir, usage.Files, usage.Bytes)
			return nil
		},
	}
	cmd.Flags().IntVar(&offset, "offset", 0, "records to skip")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "records to list")
	cmd.Flags().StringVarP(&output, "output", "o", "text", "output format: text or json")
	return cmd
}
