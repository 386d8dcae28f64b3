package delivery

import (
	"context"
	"log/slog"
	"os"

	"go.uber.org/fx"
)

// RunParams collects every delivery provided into the "deliveries" group.
type RunParams struct {
	fx.In

	Lc         fx.Lifecycle
	Shutdowner fx.Shutdowner
	Ctx        context.Context
	Logger     *slog.Logger
	Deliveries []Delivery `group:"deliveries"`
}

// Run serves every delivery once all start hooks have run. The first
// delivery to fail shuts the app down so the others stop cleanly.
func Run(params RunParams) {
	params.Lc.Append(fx.StartHook(func() {
		for _, d := range params.Deliveries {
			go serve(params, d)
		}
	}))
}

func serve(params RunParams, d Delivery) {
	err := d.Serve(params.Ctx)
	if err == nil {
		return
	}

	params.Logger.Error("Delivery stopped", slog.Any("error", err))
	if shutdownErr := params.Shutdowner.Shutdown(fx.ExitCode(1)); shutdownErr != nil {
		params.Logger.Error("Failed to shut down", slog.Any("error", shutdownErr))
		os.Exit(1)
	}
}
