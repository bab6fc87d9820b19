// cmd/service/main.go
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

	"repo-intel/internal/agent"
	"repo-intel/internal/api"
	"repo-intel/internal/config"
	"repo-intel/internal/github"
	"repo-intel/internal/intel"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Application startup error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Initialize structured logger
	logLevel := new(slog.LevelVar)
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(handler)
	slog.SetDefault(logger)

	// 2. Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	setLogLevel(cfg.LogLevel, logLevel)
	logger.Info("Configuration loaded successfully", "port", cfg.Port, "authenticated", cfg.GithubToken != "", "payments", cfg.PaymentRequired)

	// 3. Setup context for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 4. Initialize application components
	router, err := newRouter(cfg, nil, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 5. Serve until a shutdown signal arrives
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info("Shutdown signal received. Draining connections.")
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	logger.Info("Server stopped")

	return nil
}

// newRouter wires the upstream client, the operations and the HTTP surface.
// httpClient may be nil to use the default transport.
func newRouter(cfg *config.Config, httpClient *http.Client, logger *slog.Logger) (http.Handler, error) {
	ghClient, err := github.NewClient(github.Options{
		Token:      cfg.GithubToken,
		BaseURL:    cfg.GithubAPIURL,
		UserAgent:  cfg.UserAgent,
		HTTPClient: httpClient,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitHub client: %w", err)
	}

	svc := intel.NewService(ghClient, logger)

	validator := agent.NewValidator()
	if err := intel.RegisterValidations(validator); err != nil {
		return nil, fmt.Errorf("failed to register validations: %w", err)
	}
	registry, err := agent.NewRegistry(validator, svc.Operations()...)
	if err != nil {
		return nil, fmt.Errorf("failed to register operations: %w", err)
	}

	var paywall agent.Paywall = agent.OpenPaywall{}
	if cfg.PaymentRequired {
		paywall = agent.HeaderPaywall{}
	}

	return api.NewRouter(registry, paywall, api.Options{
		BaseURL:        agent.BaseURL(cfg.PublicHostname),
		IconPath:       cfg.IconPath,
		AllowedOrigins: cfg.AllowedOrigins(),
		Identity: agent.Identity{
			Name:        intel.ServiceName,
			Description: intel.ServiceDescription,
			Version:     intel.ServiceVersion,
		},
	}, logger), nil
}

func setLogLevel(level string, v *slog.LevelVar) {
	switch level {
	case "debug":
		v.Set(slog.LevelDebug)
	case "warn":
		v.Set(slog.LevelWarn)
	case "error":
		v.Set(slog.LevelError)
	default:
		v.Set(slog.LevelInfo)
	}
}
