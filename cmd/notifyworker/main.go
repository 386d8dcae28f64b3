// Command notifyworker receives notification events pushed by Pub/Sub and
// fans them out to the recipient's devices and mailbox.
package main

import (
	"context"
	"log/slog"

	"foodbridge/config"
	"foodbridge/internal/delivery"
	"foodbridge/internal/delivery/worker"
	"foodbridge/internal/delivery/worker/handler"
	"foodbridge/internal/domain/service"
	"foodbridge/internal/errors"
	logs "foodbridge/internal/infra/log"
	"foodbridge/internal/infra/notification"
	"foodbridge/internal/infra/persistence/kv"
	"foodbridge/internal/usecase/impl"
	"foodbridge/internal/util"

	"go.uber.org/fx"
)

func main() {
	fx.New(
		fx.Module("infra",
			fx.Provide(
				config.New,
				logs.New,
				context.Background,
				util.SystemClock,
				kv.NewStore,
				kv.NewSession,
			),
		),
		// Devices are read from the API's store; with the memory backend
		// the worker sees none of them.
		fx.Module("repository",
			fx.Provide(
				kv.NewUserRepository,
				kv.NewDeviceRepository,
			),
		),
		fx.Module("push",
			fx.Provide(
				newPushSender,
				notification.NewMailer,
				impl.NewPushService,
				handler.NewPushHandler,
			),
		),
		fx.Provide(
			fx.Annotate(
				worker.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
		fx.Invoke(delivery.Run),
	).Run()
}

// newPushSender talks to FCM when firebase.credentialsPath is set and only
// logs otherwise.
func newPushSender(ctx context.Context, cfg *config.Config, logger *slog.Logger) (service.PushSender, error) {
	if cfg.Firebase == nil || cfg.Firebase.CredentialsPath == "" {
		logger.Warn("Firebase not configured, push notifications are logged only")

		return notification.NewLogOnlySender(logger), nil
	}

	sender, err := notification.NewFirebaseSender(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsPath)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create Firebase sender")
	}

	return sender, nil
}
