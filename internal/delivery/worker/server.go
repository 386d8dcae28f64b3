// Package worker is the notification worker's HTTP transport: it receives
// Pub/Sub push deliveries and hands each event to the push fan-out.
package worker

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"foodbridge/config"
	"foodbridge/internal/delivery"
	"foodbridge/internal/delivery/middleware"
	"foodbridge/internal/delivery/worker/handler"
	"foodbridge/internal/errors"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
)

type workerServer struct {
	addr            string
	shutdownTimeout time.Duration
	logger          *slog.Logger
	echo            *echo.Echo
}

// ServerParams holds dependencies for the worker server
type ServerParams struct {
	fx.In

	Lc          fx.Lifecycle
	Cfg         *config.Config
	Logger      *slog.Logger
	PushHandler *handler.PushHandler
}

// NewEcho builds the worker's router: health, and the push endpoint at the
// configured path.
func NewEcho(cfg *config.Config, logger *slog.Logger, pushHandler *handler.PushHandler) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadHeaderTimeout = cfg.HTTP.Timeouts.ReadHeaderTimeout

	e.Use(echomiddleware.Recover())
	e.Use(middleware.NewRequestIDMiddleware(logger).Process)
	e.Use(middleware.NewLoggerMiddleware(logger, cfg).Handle)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.POST(cfg.Worker.PushPath, pushHandler.HandlePush, echomiddleware.BodyLimit(cfg.Worker.MaxMessageSize))

	return e
}

// NewServer creates the HTTP server that receives Pub/Sub pushes
func NewServer(params ServerParams) (delivery.Delivery, error) {
	srv := &workerServer{
		addr:            net.JoinHostPort("0.0.0.0", strconv.Itoa(params.Cfg.Worker.Port)),
		shutdownTimeout: params.Cfg.Lifecycle.ShutdownTimeout,
		logger:          params.Logger,
		echo:            NewEcho(params.Cfg, params.Logger, params.PushHandler),
	}

	params.Lc.Append(fx.Hook{
		OnStop: srv.stop,
	})

	return srv, nil
}

func (s *workerServer) Serve(context.Context) error {
	s.logger.Info("Starting notification worker", slog.String("host_port", s.addr))

	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.WithStack(err)
	}

	return nil
}

func (s *workerServer) stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.shutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down notification worker")

	return errors.WithStack(s.echo.Shutdown(shutdownCtx))
}
