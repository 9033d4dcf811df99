package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// run starts the job engine and the HTTP server, then blocks until the
// context is canceled or the server fails. Shutdown is graceful:
// in-flight requests get ten seconds to drain before cleanup.
func (app *application) run(ctx context.Context) error {
	app.engine.Start(ctx)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: app.setupRouter(),
	}

	serverCtx, cancelServer := context.WithCancel(ctx)
	defer cancelServer()

	errCh := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			cancelServer()
		}
	}()

	var serveErr error
	select {
	case serveErr = <-errCh:
		app.logger.Error("server failed", "error", serveErr)
	case <-serverCtx.Done():
		app.logger.Info("shutting down server")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown failed", "error", err)
		app.cleanup()
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	app.cleanup()

	app.logger.Info("server shutdown completed")
	return serveErr
}
