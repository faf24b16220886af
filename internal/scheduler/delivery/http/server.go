package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"golang-insider-scanner/pkg/logger"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Serve runs the echo server on addr until ctx is cancelled.
func Serve(ctx context.Context, addr string, handler *ExecutionHistoryHandler, log *logger.Logger) error {
	e := NewEcho(handler)

	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", logger.StringField("address", addr))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

// NewEcho builds the router.
func NewEcho(handler *ExecutionHistoryHandler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	handler.RegisterRoutes(e)
	return e
}
