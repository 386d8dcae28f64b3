package handler

import (
	"cmp"
	"context"
	"io"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"foodbridge/config"
	deliverycontext "foodbridge/internal/delivery/context"
	"foodbridge/internal/domain/constants"
	"foodbridge/internal/domain/service"
	"foodbridge/internal/errors"
	"foodbridge/internal/infra/pubsub"
	"foodbridge/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"google.golang.org/api/idtoken"
)

var googleIssuers = []string{"accounts.google.com", "https://accounts.google.com"}

// TokenValidator checks a Google-signed OIDC token for the given audience.
type TokenValidator func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// PushHandler turns Pub/Sub push deliveries into PushUsecase calls.
type PushHandler struct {
	verifyPushAuth bool
	validateToken  TokenValidator
	logger         *slog.Logger
	pushUC         usecase.PushUsecase
}

type PushHandlerParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
	PushUC usecase.PushUsecase
}

// NewPushHandler requires a Google OIDC token on every push unless the
// publisher is local or the app runs in the develop environment.
func NewPushHandler(params PushHandlerParams) *PushHandler {
	google := params.Config.PubSub != nil && params.Config.PubSub.Provider == constants.PubSubProviderGoogle

	return &PushHandler{
		verifyPushAuth: google && params.Config.Env.Env != constants.EnvDevelop,
		validateToken:  idtoken.Validate,
		logger:         params.Logger.With(slog.String("component", "push_handler")),
		pushUC:         params.PushUC,
	}
}

// HandlePush answers 503 for retryable failures so Pub/Sub redelivers the
// message. Permanent failures are acknowledged with 200.
func (h *PushHandler) HandlePush(c echo.Context) error {
	req := c.Request()

	if h.verifyPushAuth {
		if err := h.authenticate(req); err != nil {
			h.logger.Warn("Rejected push request", slog.Any("error", err))

			return c.NoContent(http.StatusUnauthorized)
		}
	}

	event, msg, err := readPushMessage(req.Body)
	if err != nil {
		h.logger.Error("Unreadable push message", slog.Any("error", err))

		return c.NoContent(http.StatusBadRequest)
	}

	requestID := requestIDFor(req.Context(), msg, event)
	logger := h.logger.With(
		slog.String("request_id", requestID),
		slog.String("notification_id", event.NotificationID),
	)
	ctx := deliverycontext.WithLogger(deliverycontext.WithRequestID(req.Context(), requestID), logger)

	logger.Info("Delivering notification event", slog.String("user_id", event.UserID), slog.String("type", event.Type))

	result, err := h.pushUC.Deliver(ctx, event)
	if err != nil {
		var retryable *usecase.RetryableError
		if errors.As(err, &retryable) {
			logger.Error("Notification delivery failed, asking for redelivery", slog.Any("error", err))

			return c.NoContent(http.StatusServiceUnavailable)
		}
		logger.Error("Notification delivery failed permanently", slog.Any("error", err))

		return c.NoContent(http.StatusOK)
	}

	logger.Info("Notification delivered",
		slog.Int("devices", result.Devices),
		slog.Int("sent", result.Sent),
		slog.Int("failed", result.Failed),
		slog.Int("invalid_tokens", result.InvalidTokens),
		slog.Bool("mailed", result.Mailed),
	)

	return c.NoContent(http.StatusOK)
}

func readPushMessage(body io.Reader) (*service.NotificationEvent, *pubsub.PushMessage, error) {
	raw, err := io.ReadAll(body)
	if err != nil {
		return nil, nil, errors.Wrap(err, "read body")
	}

	return pubsub.DecodePushMessage(raw)
}

// requestIDFor prefers the message attribute, then the event payload, then
// the X-Request-Id header of the push request.
func requestIDFor(ctx context.Context, msg *pubsub.PushMessage, event *service.NotificationEvent) string {
	return cmp.Or(
		msg.Message.Attributes["request_id"],
		event.RequestID,
		deliverycontext.GetRequestIDFromContext(ctx),
		uuid.NewString(),
	)
}

// authenticate validates the bearer token Google attaches to authenticated
// push subscriptions. The expected audience is this endpoint's URL.
func (h *PushHandler) authenticate(req *http.Request) error {
	token, ok := strings.CutPrefix(req.Header.Get(echo.HeaderAuthorization), "Bearer ")
	if !ok || token == "" {
		return errors.New("missing bearer token")
	}

	payload, err := h.validateToken(req.Context(), token, pushAudience(req))
	if err != nil {
		return errors.Wrap(err, "validate token")
	}
	if !slices.Contains(googleIssuers, payload.Issuer) {
		return errors.Errorf("unexpected issuer %q", payload.Issuer)
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return errors.New("service account email not verified")
	}

	return nil
}

func pushAudience(req *http.Request) string {
	scheme := "https"
	if req.TLS == nil {
		scheme = "http"
	}

	return scheme + "://" + req.Host + req.URL.Path
}
