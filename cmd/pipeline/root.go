package main

import (
	"context"
	"fmt"
	"log/slog"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/vikashrahii/pipeline"
	redisadapter "github.com/vikashrahii/pipeline/pkg/adapters/redis"
	"github.com/vikashrahii/pipeline/internal/config"
	"github.com/vikashrahii/pipeline/internal/logging"
	"golang.org/x/term"
)

var rootCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Pipeline is a template text node editor for visual AI pipelines",
	Long: `Pipeline edits text nodes whose {{variable}} references become input ports,
sizes them for the canvas, and submits the composed graph to a validator that
reports node count, edge count and whether the graph is a DAG.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// Interrupts cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", config.DefaultPath, "Path to the YAML or JSON config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug, info, warn, error); overrides the config file")
	rootCmd.PersistentFlags().String("endpoint", "", "Validator endpoint; overrides the config file")
}

// setup loads the config and builds the logger for a command.
func setup(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, nil, err
	}

	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if endpoint, _ := cmd.Flags().GetString("endpoint"); endpoint != "" {
		cfg.Validator.Endpoint = endpoint
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return cfg, nil, err
	}
	logger := logging.New(level)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// storeOptions returns the editor options for the configured graph store.
// The returned func releases the backend connection.
func storeOptions(ctx context.Context, cfg config.Config, logger *slog.Logger) ([]pipeline.Option, func(), error) {
	if cfg.Store.Backend != config.BackendRedis {
		return nil, func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Store.Redis.Addr,
		Password: cfg.Store.Redis.Password,
		DB:       cfg.Store.Redis.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Store.Redis.Addr, err)
	}
	logger.Info("Using redis graph store", "addr", cfg.Store.Redis.Addr, "prefix", cfg.Store.Redis.Prefix)

	opts := []pipeline.Option{
		pipeline.WithStore(redisadapter.NewFromClient(client, redisadapter.WithPrefix(cfg.Store.Redis.Prefix))),
		pipeline.WithLocker(redisadapter.NewLocker(client, cfg.Store.Redis.Prefix)),
	}
	return opts, func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close redis client", "err", err)
		}
	}, nil
}

// isTerminal reports whether the command writes to a terminal.
func isTerminal(cmd *cobra.Command) bool {
	return writerIsTerminal(cmd.OutOrStdout())
}

func writerIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
