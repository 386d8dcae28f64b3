// Command foodbridge serves the donation API, the form actions and the
// expiry sweeper.
package main

import (
	"context"

	"foodbridge/config"
	"foodbridge/internal/delivery"
	"foodbridge/internal/delivery/api"
	"foodbridge/internal/delivery/api/middleware"
	"foodbridge/internal/delivery/api/router/handler"
	"foodbridge/internal/delivery/scheduler"
	"foodbridge/internal/infra/auth"
	"foodbridge/internal/infra/freshness"
	"foodbridge/internal/infra/geocoding"
	"foodbridge/internal/infra/imagestore"
	logs "foodbridge/internal/infra/log"
	"foodbridge/internal/infra/persistence/kv"
	"foodbridge/internal/infra/persistence/memory"
	"foodbridge/internal/infra/pubsub"
	"foodbridge/internal/infra/qrcode"
	"foodbridge/internal/usecase"
	"foodbridge/internal/usecase/impl"
	"foodbridge/internal/util"

	"go.uber.org/fx"
)

func main() {
	fx.New(
		injectInfra(),
		injectRepo(),
		injectService(),
		injectUsecase(),
		injectDelivery(),
		injectMiddleware(),
		injectHandler(),
		fx.Invoke(
			kv.RegisterSeed,
			ensureAdmin,
			delivery.Run,
		),
	).Run()
}

func injectInfra() fx.Option {
	return fx.Provide(
		config.New,
		logs.New,
		context.Background,
		util.SystemClock,
		kv.NewStore,
		kv.NewSession,
	)
}

func injectRepo() fx.Option {
	return fx.Options(
		fx.Provide(
			kv.NewTransactionManager,
			kv.NewUserRepository,
			kv.NewDonationRepository,
			kv.NewCollectionRepository,
			kv.NewImageRepository,
			kv.NewDeviceRepository,
			memory.NewNotificationRepository,
		),
	)
}

func injectService() fx.Option {
	return fx.Options(
		fx.Provide(
			auth.NewBcryptHasher,
			auth.NewJWTService,
			auth.NewCookieCodec,
			qrcode.NewQRCodeServiceFromConfig,
			geocoding.NewGeocoder,
			freshness.NewChain,
			imagestore.NewBlobStorage,
			imagestore.NewProcessor,
			pubsub.NewEventPublisher,
		),
	)
}

func injectUsecase() fx.Option {
	return fx.Options(
		fx.Provide(
			impl.NewAuthService,
			impl.NewAdminService,
			impl.NewNotificationService,
			impl.NewDonationService,
			impl.NewImageService,
			impl.NewCollectionService,
			impl.NewDashboardService,
			impl.NewDeviceService,
			impl.NewLocationService,
		),
	)
}

func injectMiddleware() fx.Option {
	return fx.Options(
		fx.Provide(
			middleware.NewAuthMiddleware,
		),
	)
}

func injectHandler() fx.Option {
	return fx.Options(
		fx.Provide(
			handler.NewSessionCookies,
			handler.NewAuthHandler,
			handler.NewActionHandler,
			handler.NewAdminHandler,
			handler.NewDonationHandler,
			handler.NewCollectionHandler,
			handler.NewImageHandler,
			handler.NewNotificationHandler,
			handler.NewDeviceHandler,
			handler.NewLocationHandler,
			handler.NewDashboardHandler,
			handler.NewDebugHandler,
		),
	)
}

func injectDelivery() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				api.NewServer,
				fx.ResultTags(`group:"deliveries"`),
			),
			fx.Annotate(
				scheduler.NewExpirySweeper,
				fx.ResultTags(`group:"deliveries"`),
			),
		),
	)
}

// ensureAdmin creates the configured admin account once the store is up.
func ensureAdmin(lc fx.Lifecycle, authUC usecase.AuthUsecase) {
	lc.Append(fx.Hook{
		OnStart: authUC.EnsureAdmin,
	})
}
