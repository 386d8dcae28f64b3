package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	deliverycontext "foodbridge/internal/delivery/context"
	"foodbridge/internal/domain/service"
	"foodbridge/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

type recordingPushUsecase struct {
	events    []*service.NotificationEvent
	requestID string
	err       error
}

func (u *recordingPushUsecase) Deliver(ctx context.Context, event *service.NotificationEvent) (*usecase.PushResult, error) {
	u.events = append(u.events, event)
	u.requestID = deliverycontext.GetRequestIDFromContext(ctx)
	if u.err != nil {
		return nil, u.err
	}

	return &usecase.PushResult{Devices: 1, Sent: 1}, nil
}

func newTestPushHandler(pushUC usecase.PushUsecase) *PushHandler {
	return &PushHandler{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		pushUC: pushUC,
	}
}

func pushBody(t *testing.T, event service.NotificationEvent, attributes map[string]string) string {
	t.Helper()

	data, err := json.Marshal(event)
	require.NoError(t, err)

	var msg struct {
		Message struct {
			Data       string            `json:"data"`
			Attributes map[string]string `json:"attributes,omitempty"`
			MessageID  string            `json:"messageId"`
		} `json:"message"`
	}
	msg.Message.Data = base64.StdEncoding.EncodeToString(data)
	msg.Message.Attributes = attributes
	msg.Message.MessageID = "msg-1"

	body, err := json.Marshal(msg)
	require.NoError(t, err)

	return string(body)
}

func servePush(h *PushHandler, body string, header http.Header) *httptest.ResponseRecorder {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/push", strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	_ = h.HandlePush(e.NewContext(req, rec))

	return rec
}

func TestHandlePush_DeliversEvent(t *testing.T) {
	pushUC := &recordingPushUsecase{}
	h := newTestPushHandler(pushUC)

	event := service.NotificationEvent{NotificationID: "n-1", UserID: "u-1", Type: "collection_requested", Title: "Pickup requested"}
	rec := servePush(h, pushBody(t, event, map[string]string{"request_id": "req-77"}), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, pushUC.events, 1)
	assert.Equal(t, "u-1", pushUC.events[0].UserID)
	assert.Equal(t, "req-77", pushUC.requestID)
}

func TestHandlePush_MalformedBody(t *testing.T) {
	pushUC := &recordingPushUsecase{}
	h := newTestPushHandler(pushUC)

	rec := servePush(h, `{"message":{"data":"%%%"}}`, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, pushUC.events)
}

func TestHandlePush_RetryableFailureAsksForRedelivery(t *testing.T) {
	event := service.NotificationEvent{NotificationID: "n-1", UserID: "u-1"}

	retryable := newTestPushHandler(&recordingPushUsecase{err: &usecase.RetryableError{Err: assert.AnError}})
	assert.Equal(t, http.StatusServiceUnavailable, servePush(retryable, pushBody(t, event, nil), nil).Code)

	permanent := newTestPushHandler(&recordingPushUsecase{err: assert.AnError})
	assert.Equal(t, http.StatusOK, servePush(permanent, pushBody(t, event, nil), nil).Code)
}

func TestHandlePush_VerifiesGoogleToken(t *testing.T) {
	pushUC := &recordingPushUsecase{}
	h := newTestPushHandler(pushUC)
	h.verifyPushAuth = true

	var audience string
	h.validateToken = func(_ context.Context, token, aud string) (*idtoken.Payload, error) {
		audience = aud
		if token != "good-token" {
			return nil, assert.AnError
		}

		return &idtoken.Payload{Issuer: "https://accounts.google.com", Claims: map[string]any{"email_verified": true}}, nil
	}

	body := pushBody(t, service.NotificationEvent{NotificationID: "n-1", UserID: "u-1"}, nil)

	rec := servePush(h, body, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = servePush(h, body, http.Header{"Authorization": {"Bearer bad-token"}})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = servePush(h, body, http.Header{"Authorization": {"Bearer good-token"}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://example.com/push", audience)
	assert.Len(t, pushUC.events, 1)
}

func TestHandlePush_RejectsForeignIssuer(t *testing.T) {
	pushUC := &recordingPushUsecase{}
	h := newTestPushHandler(pushUC)
	h.verifyPushAuth = true
	h.validateToken = func(context.Context, string, string) (*idtoken.Payload, error) {
		return &idtoken.Payload{Issuer: "https://evil.example.com"}, nil
	}

	body := pushBody(t, service.NotificationEvent{NotificationID: "n-1", UserID: "u-1"}, nil)
	rec := servePush(h, body, http.Header{"Authorization": {"Bearer token"}})

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, pushUC.events)
}
