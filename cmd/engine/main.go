// Command engine runs the knowledge integration engine's backbone: it loads
// configuration, establishes the verified Firestore connection and serves
// the operational HTTP surface until terminated.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/thom899g/autonomous-cross-domain-knowledge-integration-engine/internal/di"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := di.NewContainer(ctx)
	if err != nil {
		// The container could not come up, so there is no structured logger
		// to report through.
		log.Fatalf("failed to initialize: %v", err)
	}

	logger := container.Logger

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Ops server listening", zap.String("addr", container.Server.Addr))
		serverErr <- container.Server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serverErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Ops server failed", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), container.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := container.Server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Ops server shutdown failed", zap.Error(err))
	}
	if err := container.Shutdown(shutdownCtx); err != nil {
		logger.Error("Container shutdown failed", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("Engine stopped")
}
