// Package logs builds the process logger: JSON lines in deployed
// environments, text when env.log.pretty is set.
package logs

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"foodbridge/config"
	"foodbridge/internal/errors"

	"go.uber.org/fx"
)

type Params struct {
	fx.In

	Config *config.Config
}

func New(params Params) (*slog.Logger, error) {
	return build(os.Stdout, params.Config)
}

func build(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	level, err := parseLogLevel(cfg.Env.Log.Level)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.Env.Debug}
	handler := slog.Handler(slog.NewJSONHandler(w, opts))
	if cfg.Env.Log.Pretty {
		handler = slog.NewTextHandler(w, opts)
	}

	var attrs []slog.Attr
	if cfg.Env.ServiceName != "" {
		attrs = append(attrs, slog.String("service", cfg.Env.ServiceName))
	}
	if cfg.Env.Env != "" {
		attrs = append(attrs, slog.String("env", cfg.Env.Env))
	}

	return slog.New(handler.WithAttrs(attrs)), nil
}

// parseLogLevel accepts slog's level names, plus "warning". Empty means info.
func parseLogLevel(level string) (slog.Level, error) {
	level = strings.TrimSpace(level)
	switch strings.ToLower(level) {
	case "":
		return slog.LevelInfo, nil
	case "warning":
		return slog.LevelWarn, nil
	}

	var parsed slog.Level
	if err := parsed.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo, errors.Errorf("unknown log level: %s", level)
	}

	return parsed, nil
}
