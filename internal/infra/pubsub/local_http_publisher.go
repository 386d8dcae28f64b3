package pubsub

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	deliverycontext "foodbridge/internal/delivery/context"
	"foodbridge/internal/domain/service"
	"foodbridge/internal/errors"
)

const (
	localSubscription = "projects/local/subscriptions/foodbridge-notifications"
	localPostTimeout  = 30 * time.Second
)

// localHTTPPublisher stands in for the broker during development: it posts
// the push envelope a Pub/Sub push subscription would send straight to the
// worker.
type localHTTPPublisher struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
	now      func() time.Time
}

func NewLocalHTTPPublisher(endpoint string, logger *slog.Logger) service.EventPublisher {
	return &localHTTPPublisher{
		endpoint: endpoint,
		client:   &http.Client{Timeout: localPostTimeout},
		logger:   logger,
		now:      time.Now,
	}
}

func (p *localHTTPPublisher) PublishNotificationEvent(ctx context.Context, event *service.NotificationEvent) error {
	msg, err := newPushMessage(event, localSubscription, p.now())
	if err != nil {
		return err
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return errors.WithStack(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if event.RequestID != "" {
		req.Header.Set(deliverycontext.HeaderXRequestID, event.RequestID)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "pubsub: post to worker")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return errors.Errorf("pubsub: worker answered %d", resp.StatusCode)
	}

	p.logger.Debug("Event pushed to worker",
		slog.String("notification_id", event.NotificationID),
		slog.String("type", event.Type),
	)

	return nil
}

func (p *localHTTPPublisher) Close() error {
	p.client.CloseIdleConnections()

	return nil
}
