package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/mikey/bec-analyzer/internal/config"
	"github.com/mikey/bec-analyzer/internal/di"
	"github.com/mikey/bec-analyzer/internal/ports"
	"github.com/mikey/bec-analyzer/internal/server"
)

func main() {
	// Build the dependency injection container
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	// Run the application
	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

// run is the main application function that gets all dependencies injected
func run(
	cfg *config.Config,
	logger *zap.Logger,
	emailFilter ports.EmailFilter,
	httpServer *server.Server,
	store ports.VerdictStore,
) error {
	defer logger.Sync()

	// Start the HTTP API
	if err := httpServer.Start(); err != nil {
		logger.Fatal("Failed to start HTTP server", zap.Error(err))
		return err
	}

	// Start the Postfix content filter when enabled
	filterEnabled := cfg.GetServer().FilterEnabled
	if filterEnabled {
		if err := emailFilter.Start(); err != nil {
			logger.Fatal("Failed to start filter", zap.Error(err))
			return err
		}
	}

	// Handle graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	if filterEnabled {
		if err := emailFilter.Stop(); err != nil {
			logger.Error("Failed to stop filter", zap.Error(err))
		}
	}

	if err := httpServer.Stop(); err != nil {
		logger.Error("Failed to stop HTTP server", zap.Error(err))
	}

	store.Stop()

	logger.Info("Shutdown complete")
	return nil
}
