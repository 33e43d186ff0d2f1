package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/multisense/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		host string
		port int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the analysis API over HTTP",
		Long: "Serve the analysis API over HTTP. Directories in clean.watch_directories, and\n" +
			"those added through /api/v1/watch/directories, are kept cleaned while the server runs.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("host") {
				a.cfg.Server.Host = host
			}
			if cmd.Flags().Changed("port") {
				a.cfg.Server.Port = port
			}
			an, err := a.loadAnalyzer()
			if err != nil {
				return fmt.Errorf("failed to load model: %w", err)
			}
			a.logger.Info("model loaded", zap.Any("model", an.Info()))

			p, ledger, closeFn, err := a.openPipeline(true)
			if err != nil {
				return err
			}
			defer closeFn()

			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			w := a.newCorpusWatcher(ctx, p, a.cfg.Clean.WatchDirectories)
			if err := w.Start(ctx); err != nil {
				return fmt.Errorf("failed to start watcher: %w", err)
			}
			defer w.Stop()
			go w.SyncExistingFiles()

			srv := server.NewServer(an, ledger, w, a.cfg, a.cfgPath, a.logger)
			errCh := make(chan error, 1)
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
				close(errCh)
			}()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}
			a.logger.Info("Shutting down...")
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer shutdownCancel()
			return srv.Stop(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "listen host (default from config)")
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default from config)")
	return cmd
}
