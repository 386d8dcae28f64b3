package pubsub

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"foodbridge/config"
	"foodbridge/internal/domain/constants"
	"foodbridge/internal/domain/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx/fxtest"
)

func testEvent() *service.NotificationEvent {
	return &service.NotificationEvent{
		RequestID:      "req-1",
		NotificationID: "notif_1",
		UserID:         "user_1",
		Type:           "new_donation",
		Title:          "New donation available",
		Message:        "Donation #abc12345 is ready for pickup",
		Data:           map[string]string{"donationId": "don_1"},
		CreatedAt:      time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestLocalHTTPPublisher_PostsDecodablePushMessage(t *testing.T) {
	var (
		received []byte
		reqID    string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received, _ = io.ReadAll(r.Body)
		reqID = r.Header.Get("X-Request-Id")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	pub := NewLocalHTTPPublisher(srv.URL, slog.New(slog.DiscardHandler))
	require.NoError(t, pub.PublishNotificationEvent(context.Background(), testEvent()))

	assert.Equal(t, "req-1", reqID)

	event, msg, err := DecodePushMessage(received)
	require.NoError(t, err)
	assert.Equal(t, localSubscription, msg.Subscription)
	assert.Equal(t, "user_1", msg.Message.Attributes["user_id"])
	assert.Equal(t, testEvent(), event)
}

func TestLocalHTTPPublisher_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	pub := NewLocalHTTPPublisher(srv.URL, slog.New(slog.DiscardHandler))
	err := pub.PublishNotificationEvent(context.Background(), testEvent())
	assert.ErrorContains(t, err, "503")
}

func TestDecodePushMessage_Errors(t *testing.T) {
	_, _, err := DecodePushMessage([]byte("{"))
	assert.Error(t, err)

	bad := PushMessage{}
	bad.Message.Data = "%%%"
	body, _ := json.Marshal(bad)
	_, _, err = DecodePushMessage(body)
	assert.ErrorContains(t, err, "base64")

	noUser := PushMessage{}
	noUser.Message.Data = base64.StdEncoding.EncodeToString([]byte(`{"notification_id":"n1"}`))
	body, _ = json.Marshal(noUser)
	_, _, err = DecodePushMessage(body)
	assert.ErrorContains(t, err, "no user")
}

func TestDecodePushMessage_RequestIDFromAttributes(t *testing.T) {
	event := testEvent()
	event.RequestID = ""
	data, attrs, err := encodeEvent(event)
	require.NoError(t, err)

	msg := PushMessage{}
	msg.Message.Data = base64.StdEncoding.EncodeToString(data)
	msg.Message.Attributes = attrs
	msg.Message.Attributes["request_id"] = "from-attr"
	body, _ := json.Marshal(msg)

	decoded, _, err := DecodePushMessage(body)
	require.NoError(t, err)
	assert.Equal(t, "from-attr", decoded.RequestID)
}

func TestNoopPublisher(t *testing.T) {
	pub := NewNoopPublisher(slog.New(slog.DiscardHandler))
	assert.NoError(t, pub.PublishNotificationEvent(context.Background(), testEvent()))
	assert.NoError(t, pub.Close())
}

func TestNewEventPublisher_SelectsProvider(t *testing.T) {
	newParams := func(pubsubCfg *config.PubSubConfig) PublisherParams {
		return PublisherParams{
			Lc:     fxtest.NewLifecycle(t),
			Ctx:    context.Background(),
			Config: &config.Config{PubSub: pubsubCfg},
			Logger: slog.New(slog.DiscardHandler),
		}
	}

	pub, err := NewEventPublisher(newParams(nil))
	require.NoError(t, err)
	assert.IsType(t, &noopPublisher{}, pub)

	pub, err = NewEventPublisher(newParams(&config.PubSubConfig{
		Provider:      constants.PubSubProviderLocal,
		LocalEndpoint: "http://localhost:8081/push",
	}))
	require.NoError(t, err)
	assert.IsType(t, &localHTTPPublisher{}, pub)

	_, err = NewEventPublisher(newParams(&config.PubSubConfig{Provider: constants.PubSubProviderLocal}))
	assert.ErrorContains(t, err, "localEndpoint")

	_, err = NewEventPublisher(newParams(&config.PubSubConfig{Provider: constants.PubSubProviderGoogle, ProjectID: "p"}))
	assert.ErrorContains(t, err, "topicId")

	_, err = NewEventPublisher(newParams(&config.PubSubConfig{Provider: "kafka"}))
	assert.ErrorContains(t, err, "unknown provider")
}
