package middleware

import (
	"log/slog"

	"foodbridge/config"

	"github.com/labstack/echo/v4"
	slogecho "github.com/samber/slog-echo"
)

// LoggerMiddleware writes one access log line per request through slog-echo.
type LoggerMiddleware struct {
	handler echo.MiddlewareFunc
}

// NewLoggerMiddleware creates a new logger middleware. Outside debug mode
// health probes are not logged.
func NewLoggerMiddleware(logger *slog.Logger, cfg *config.Config) *LoggerMiddleware {
	logConfig := slogecho.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
		WithUserAgent:    true,
		WithRequestID:    true,
	}

	if cfg.Env.Debug {
		logConfig.WithRequestHeader = true
		logConfig.WithResponseHeader = true
	} else {
		logConfig.Filters = []slogecho.Filter{slogecho.IgnorePath("/health")}
	}

	return &LoggerMiddleware{
		handler: slogecho.NewWithConfig(logger, logConfig),
	}
}

// Handle processes request logging
func (m *LoggerMiddleware) Handle(next echo.HandlerFunc) echo.HandlerFunc {
	return m.handler(next)
}
