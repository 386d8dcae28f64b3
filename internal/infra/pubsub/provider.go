package pubsub

import (
	"context"
	"log/slog"

	"foodbridge/config"
	"foodbridge/internal/domain/constants"
	"foodbridge/internal/domain/service"
	"foodbridge/internal/errors"

	"go.uber.org/fx"
)

// PublisherParams holds dependencies for EventPublisher, injected by Fx
type PublisherParams struct {
	fx.In

	Lc     fx.Lifecycle
	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

type publisherFactory func(ctx context.Context, cfg *config.PubSubConfig, logger *slog.Logger) (service.EventPublisher, error)

//nolint:gochecknoglobals
var publisherFactories = map[string]publisherFactory{
	constants.PubSubProviderLocal: func(_ context.Context, cfg *config.PubSubConfig, logger *slog.Logger) (service.EventPublisher, error) {
		if cfg.LocalEndpoint == "" {
			return nil, errors.New("pubsub: localEndpoint is required for the local provider")
		}

		return NewLocalHTTPPublisher(cfg.LocalEndpoint, logger), nil
	},
	constants.PubSubProviderGoogle: func(ctx context.Context, cfg *config.PubSubConfig, logger *slog.Logger) (service.EventPublisher, error) {
		if cfg.ProjectID == "" || cfg.TopicID == "" {
			return nil, errors.New("pubsub: projectId and topicId are required for the google provider")
		}

		return NewGooglePubSubPublisher(ctx, cfg.ProjectID, cfg.TopicID, logger)
	},
}

// NewEventPublisher selects the notification event transport named by
// pubsub.provider. An empty or "noop" provider keeps notifications in the
// in-app feed only.
func NewEventPublisher(params PublisherParams) (service.EventPublisher, error) {
	cfg := params.Config.PubSub
	logger := params.Logger.With(slog.String("component", "pubsub"))

	if cfg == nil || cfg.Provider == "" || cfg.Provider == constants.PubSubProviderNoop {
		logger.Info("Event publishing disabled")

		return NewNoopPublisher(logger), nil
	}

	factory, ok := publisherFactories[cfg.Provider]
	if !ok {
		return nil, errors.Errorf("pubsub: unknown provider %q", cfg.Provider)
	}

	publisher, err := factory(params.Ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("Event publisher ready", slog.String("provider", cfg.Provider))

	params.Lc.Append(fx.StopHook(publisher.Close))

	return publisher, nil
}

// noopPublisher drops events.
type noopPublisher struct {
	logger *slog.Logger
}

func NewNoopPublisher(logger *slog.Logger) service.EventPublisher {
	return &noopPublisher{logger: logger}
}

func (p *noopPublisher) PublishNotificationEvent(_ context.Context, event *service.NotificationEvent) error {
	p.logger.Debug("Event dropped", slog.String("notification_id", event.NotificationID))

	return nil
}

func (p *noopPublisher) Close() error { return nil }
