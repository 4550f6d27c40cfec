package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/hpn/hpn-sampler/internal/config"
	"github.com/hpn/hpn-sampler/internal/handler"
	"github.com/hpn/hpn-sampler/internal/ui"
)

type serveOptions struct {
	*rootOptions
	port          int
	sampleTimeout time.Duration
}

func newServeCmd(root *rootOptions) *cobra.Command {
	opts := &serveOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP sampling gateway",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts)
		},
	}

	cmd.Flags().IntVarP(&opts.port, "port", "p", 0, "override server.port")
	cmd.Flags().DurationVar(&opts.sampleTimeout, "sample-timeout", 0, "bound each sample call, retries included (0 waits forever)")

	return cmd
}

func runServe(ctx context.Context, opts *serveOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// =========================================================================
	// 1. Load configuration (Singleton)
	// =========================================================================
	cfg, err := loadConfig(opts.configPath)
	if err != nil {
		stderrLogger().Error("failed to load configuration", slog.String("error", err.Error()))
		return err
	}
	if opts.port > 0 {
		cfg.Server.Port = opts.port
	}

	// =========================================================================
	// 2. Setup structured logger (redacted)
	// =========================================================================
	logger := setupLogger(cfg.Logging, os.Stdout)
	slog.SetDefault(logger)

	ui.PrintBanner()

	logger.Info("configuration loaded",
		slog.String("host", cfg.Server.Host),
		slog.Int("port", cfg.Server.Port),
		slog.Int("max_attempts", cfg.Retry.MaxAttempts),
	)
	for _, key := range cfg.MissingKeys() {
		logger.Warn("vendor key not set; calls will be rejected", slog.String("env", key))
	}

	// =========================================================================
	// 3. Build samplers and HTTP handler
	// =========================================================================
	registry, err := buildRegistry(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build samplers", slog.String("error", err.Error()))
		return err
	}

	sampleHandler := handler.NewSampleHandler(registry,
		handler.WithLogger(logger),
		handler.WithSampleTimeout(opts.sampleTimeout),
	)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := handler.NewRouter(sampleHandler, logger)

	// =========================================================================
	// 4. Start HTTP server with graceful shutdown
	// =========================================================================
	srv := newHTTPServer(cfg.Server, router)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", slog.String("address", srv.Addr))
		ui.PrintStartupInfo(cfg.Server.Host, cfg.Server.Port, registry.Names())

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err, ok := <-errCh:
		if ok {
			logger.Error("server error", slog.String("error", err.Error()))
			return err
		}
		return nil
	case <-sigCtx.Done():
	}

	logger.Info("shutdown signal received")
	ui.PrintShutdown()

	shutdownTimeout := time.Duration(cfg.Server.ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("server stopped gracefully")
	ui.PrintGoodbye()
	return nil
}

func newHTTPServer(cfg config.ServerConfig, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      h,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
	}
}
