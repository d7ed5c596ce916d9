package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nomnoms/nomnoms/internal/agent"
	"github.com/nomnoms/nomnoms/internal/api"
	"github.com/nomnoms/nomnoms/internal/catalog"
	"github.com/nomnoms/nomnoms/internal/config"
	"github.com/nomnoms/nomnoms/internal/doordash"
	"github.com/nomnoms/nomnoms/internal/log"
	"github.com/nomnoms/nomnoms/internal/ordering"
)

// Server timeout configuration.
const (
	readHeaderTimeout = 10 * time.Second
	readTimeout       = 30 * time.Second
	writeTimeout      = 2 * time.Minute // agent turns can run several model calls
	idleTimeout       = 2 * time.Minute
	shutdownTimeout   = 30 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err = cfg.ValidateServe(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	logger := log.New(log.Config{JSON: cfg.LogJSON})
	logger.Info("starting HTTP API server", "version", AppVersion)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client, err := catalog.Connect(ctx, cfg.Mongo.URI)
	if err != nil {
		return fmt.Errorf("connecting to MongoDB: %w", err)
	}
	defer func() {
		disconnectCtx, disconnectCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer disconnectCancel()
		if dErr := client.Disconnect(disconnectCtx); dErr != nil {
			logger.Warn("mongodb disconnect", "error", dErr)
		}
	}()

	store := catalog.NewStore(client.Database(cfg.Mongo.Database), logger)
	orderingSvc := ordering.NewService(store, cfg.TaxRate, logger)
	deliveryClient := doordash.NewClient(doordash.Config{
		DeveloperID:   cfg.DoorDash.DeveloperID,
		KeyID:         cfg.DoorDash.KeyID,
		SigningSecret: cfg.DoorDash.SigningSecret,
	}, logger)

	// The agent is optional: without a model API key the REST surface
	// still works and /api/agent/chat reports a configuration error.
	var chatSvc api.ChatService
	if cfg.AI.APIKey != "" {
		model, mErr := agent.NewGeminiClient(ctx, agent.GeminiConfig{
			APIKey:      cfg.AI.APIKey,
			Model:       cfg.AI.Model,
			Temperature: float32(cfg.AI.Temperature),
			MaxTokens:   int32(cfg.AI.MaxTokens),
		})
		if mErr != nil {
			return fmt.Errorf("creating model client: %w", mErr)
		}

		dispatcher := agent.NewDispatcher(orderingSvc, deliveryClient, agent.NewResolver(store), logger)
		threads := agent.NewThreadStore(cfg.Agent.HistoryWindow)
		chatSvc = agent.NewOrchestrator(model, dispatcher, threads, cfg.Agent.MaxIterations, logger)
	} else {
		logger.Warn("GEMINI_API_KEY not set, agent endpoint disabled")
	}

	apiServer, err := api.NewServer(api.ServerConfig{
		Logger:      logger,
		Ordering:    orderingSvc,
		Delivery:    deliveryClient,
		Chat:        chatSvc,
		CORSOrigins: cfg.CORSOrigins,
	})
	if err != nil {
		return fmt.Errorf("creating API server: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           apiServer.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}

	logger.Info("HTTP server ready", "addr", cfg.ServerAddr, "api", "/api/*", "health", "/health")

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutting down HTTP server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down server: %w", err)
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}
}
