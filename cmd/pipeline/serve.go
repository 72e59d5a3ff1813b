package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"github.com/vikashrahii/pipeline"
	"github.com/vikashrahii/pipeline/internal/adapters/file"
	httpadapter "github.com/vikashrahii/pipeline/pkg/adapters/http"
	"github.com/vikashrahii/pipeline/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the editor HTTP API",
	Long: `Serves the pipeline editor over HTTP: text node editing, edges, submission,
an SSE event stream on /events and Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Server.Addr = addr
		}
		ctx := cmd.Context()

		storeOpts, closeStore, err := storeOptions(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer closeStore()

		metrics := observability.NewMetrics()
		streams := httpadapter.NewStreamManager(logger)
		hooks := observability.LoggingHooks(logger).Merge(metrics.Hooks()).Merge(streams.Hooks())

		opts := append(storeOpts,
			pipeline.WithValidatorEndpoint(cfg.Validator.Endpoint),
			pipeline.WithLifecycleHooks(hooks),
			pipeline.WithLogger(logger),
		)
		editor := pipeline.New(opts...)

		if seed, _ := cmd.Flags().GetString("load"); seed != "" {
			g, err := file.LoadGraph(seed)
			if err != nil {
				return err
			}
			if err := editor.Load(ctx, g); err != nil {
				return fmt.Errorf("failed to load %s: %w", seed, err)
			}
		}

		handler, err := httpadapter.NewHandler(editor,
			httpadapter.WithStreams(streams),
			httpadapter.WithMetrics(metrics.Handler()),
			httpadapter.WithAllowedOrigins(cfg.Server.AllowedOrigins...),
			httpadapter.WithLogger(logger),
		)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting pipeline server", "addr", srv.Addr, "validator", cfg.Validator.Endpoint)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)
		case <-ctx.Done():
			logger.Info("Shutdown signal received")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("Pipeline server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address; overrides the config file")
	serveCmd.Flags().String("load", "", "Seed the editor from a pipeline graph file")
}
