package api

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"

	"foodbridge/config"
	"foodbridge/internal/delivery"
	apimiddleware "foodbridge/internal/delivery/api/middleware"
	"foodbridge/internal/delivery/api/router"
	"foodbridge/internal/delivery/api/validator"
	"foodbridge/internal/delivery/middleware"
	"foodbridge/internal/errors"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/fx"
	"golang.org/x/net/http2"
)

type apiServer struct {
	cfg    *config.Config
	logger *slog.Logger
	server *echo.Echo
}

// ServerParams holds dependencies for HTTP server, injected by Fx.
type ServerParams struct {
	fx.In

	Lc           fx.Lifecycle
	Cfg          *config.Config
	Logger       *slog.Logger
	RouterParams router.RouterParams
}

// NewEcho builds the echo instance with the middleware chain and every route.
// Recovery runs outermost; the request id is assigned before the access log
// reads it.
func NewEcho(cfg *config.Config, logger *slog.Logger, routerParams router.RouterParams) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	applyTimeouts(e.Server, cfg)

	e.HTTPErrorHandler = apimiddleware.NewErrorMiddleware(logger).HandleHTTPError
	e.Validator = validator.New()

	e.Use(
		echomiddleware.Recover(),
		middleware.NewRequestIDMiddleware(logger).Process,
		middleware.NewLoggerMiddleware(logger, cfg).Handle,
		// Session cookies travel cross-origin from the web client.
		echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOriginFunc:  func(string) (bool, error) { return true, nil },
			AllowCredentials: true,
		}),
		echomiddleware.BodyLimit(cfg.HTTP.MaxRequestBodySize),
	)

	r := router.NewRouter(routerParams)
	r.RegisterRoutes(e)
	r.RegisterDebugRoutes(e)

	return e
}

func applyTimeouts(server *http.Server, cfg *config.Config) {
	server.ReadTimeout = cfg.HTTP.Timeouts.ReadTimeout
	server.ReadHeaderTimeout = cfg.HTTP.Timeouts.ReadHeaderTimeout
	server.WriteTimeout = cfg.HTTP.Timeouts.WriteTimeout
	server.IdleTimeout = cfg.HTTP.Timeouts.IdleTimeout
}

// NewServer wires the API server into the fx lifecycle. It serves h2c so
// clients behind a plaintext proxy can still multiplex.
func NewServer(params ServerParams) (delivery.Delivery, error) {
	srv := &apiServer{
		cfg:    params.Cfg,
		logger: params.Logger,
		server: NewEcho(params.Cfg, params.Logger, params.RouterParams),
	}

	params.Lc.Append(fx.Hook{
		OnStop: srv.stop,
	})

	return srv, nil
}

func (s *apiServer) Serve(context.Context) error {
	addr := net.JoinHostPort("0.0.0.0", strconv.Itoa(s.cfg.HTTP.Port))
	s.logger.Info("Starting API HTTP server", slog.String("host_port", addr))

	h2 := &http2.Server{IdleTimeout: s.cfg.HTTP.Timeouts.IdleTimeout}
	if err := s.server.StartH2CServer(addr, h2); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.WithStack(err)
	}

	return nil
}

func (s *apiServer) stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.Lifecycle.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Shutting down API HTTP server")

	return errors.WithStack(s.server.Shutdown(shutdownCtx))
}
