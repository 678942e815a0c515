package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-command/pkg/config"
	"github.com/ekaya-inc/ekaya-command/pkg/handlers"
	"github.com/ekaya-inc/ekaya-command/pkg/lexicon"
	"github.com/ekaya-inc/ekaya-command/pkg/mcp"
	"github.com/ekaya-inc/ekaya-command/pkg/middleware"
)

// Version is set at build time via ldflags
var Version = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:           "ekaya-command",
		Short:         "Interpret free-text records commands into structured directives",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), opts)
		},
	}
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", os.Getenv("CONFIG_PATH"),
		"config file path (default: ./config.yaml; env CONFIG_PATH)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP and MCP server with periodic lexicon refresh",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context(), opts)
			},
		},
		&cobra.Command{
			Use:   "interpret <command text>",
			Short: "Refresh the lexicon once and print the interpretation of one command as JSON",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runInterpret(cmd.Context(), opts, strings.Join(args, " "), cmd.OutOrStdout())
			},
		},
		&cobra.Command{
			Use:   "lexicon",
			Short: "Refresh the lexicon once and print a summary as JSON",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runLexicon(cmd.Context(), opts, cmd.OutOrStdout())
			},
		},
	)

	return root
}

// setup loads configuration and builds the logger.
func setup(opts *rootOptions) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(opts.configPath, Version)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.Env == "local" {
		zapCfg = zap.NewDevelopmentConfig()
	}
	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log_level %q: %w", cfg.LogLevel, err)
	}
	zapCfg.Level = level
	return zapCfg.Build()
}

func runServe(ctx context.Context, opts *rootOptions) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Configuration loaded",
		zap.String("version", cfg.Version),
		zap.String("env", cfg.Env),
		zap.String("store_type", cfg.Store.Type),
		zap.String("nlp_engine", cfg.NLP.Engine),
		zap.Duration("refresh_interval", cfg.Lexicon.RefreshInterval),
		zap.Bool("embeddings", cfg.Embedding.IsAvailable()),
		zap.Bool("mcp", cfg.MCP.Enabled))

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	// Requests are not accepted until the first refresh has been attempted.
	if err := a.initialRefresh(ctx); err != nil {
		logger.Error("Initial lexicon refresh failed; serving with an empty lexicon until the next refresh",
			zap.Error(err))
	}
	a.cache.RunScheduler(ctx, cfg.Lexicon.RefreshInterval)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, a.cache, logger).RegisterRoutes(mux)
	handlers.NewCommandHandler(a.engine, logger).RegisterRoutes(mux)
	handlers.NewLexiconHandler(a.cache, logger).RegisterRoutes(mux)
	mux.Handle("GET /metrics", a.metrics.Handler())

	if cfg.MCP.Enabled {
		audit := mcp.NewAuditLogger(logger)
		mcpServer := mcp.NewServer("ekaya-command", cfg.Version, audit.Hooks(), logger)
		mcpServer.RegisterInterpretTool(a.engine)
		mcpServer.RegisterLexiconTool(a.cache)
		mcpServer.RegisterHealthTool(cfg.Version)
		mux.Handle("/mcp", middleware.MCPRequestLogger(logger)(mcpServer.NewStreamableHTTPServer()))
	}

	var handler http.Handler = mux
	handler = middleware.Timeout(cfg.RequestTimeout)(handler)
	handler = middleware.RequestLogger(logger)(handler)

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting ekaya-command", zap.String("addr", srv.Addr), zap.String("version", cfg.Version))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func runInterpret(ctx context.Context, opts *rootOptions, text string, out io.Writer) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.initialRefresh(ctx); err != nil {
		return err
	}

	result, err := a.engine.Interpret(ctx, text)
	if err != nil {
		return err
	}
	return writeJSON(out, result)
}

type lexiconSummary struct {
	Snapshot lexicon.Stats    `json:"snapshot"`
	Modules  []lexicon.Module `json:"modules"`
}

func runLexicon(ctx context.Context, opts *rootOptions, out io.Writer) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.initialRefresh(ctx); err != nil {
		return err
	}

	snap := a.cache.Current()
	return writeJSON(out, lexiconSummary{Snapshot: snap.Stats(), Modules: snap.Modules()})
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
