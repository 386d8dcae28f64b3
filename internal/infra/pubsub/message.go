package pubsub

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"foodbridge/internal/domain/service"
	"foodbridge/internal/errors"
)

// PushMessage is the body Pub/Sub posts to push subscriptions.
// The local publisher produces the same shape so the worker handles both.
type PushMessage struct {
	Message struct {
		Data        string            `json:"data"`
		Attributes  map[string]string `json:"attributes,omitempty"`
		MessageID   string            `json:"messageId"`
		PublishTime string            `json:"publishTime"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// encodeEvent serialises an event and derives the attributes used for filtering and tracing.
func encodeEvent(event *service.NotificationEvent) ([]byte, map[string]string, error) {
	if event == nil {
		return nil, nil, errors.New("notification event is nil")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}

	attributes := map[string]string{
		"notification_id": event.NotificationID,
		"user_id":         event.UserID,
		"type":            event.Type,
	}
	if event.RequestID != "" {
		attributes["request_id"] = event.RequestID
	}

	return data, attributes, nil
}

func newPushMessage(event *service.NotificationEvent, subscription string, publishedAt time.Time) (*PushMessage, error) {
	data, attributes, err := encodeEvent(event)
	if err != nil {
		return nil, err
	}

	msg := &PushMessage{Subscription: subscription}
	msg.Message.Data = base64.StdEncoding.EncodeToString(data)
	msg.Message.Attributes = attributes
	msg.Message.MessageID = event.NotificationID
	msg.Message.PublishTime = publishedAt.UTC().Format(time.RFC3339)

	return msg, nil
}

// DecodePushMessage extracts the notification event from a push body.
func DecodePushMessage(body []byte) (*service.NotificationEvent, *PushMessage, error) {
	var msg PushMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, nil, errors.Wrap(err, "invalid push message")
	}

	data, err := base64.StdEncoding.DecodeString(msg.Message.Data)
	if err != nil {
		return nil, &msg, errors.Wrap(err, "invalid base64 payload")
	}

	var event service.NotificationEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return nil, &msg, errors.Wrap(err, "invalid notification event")
	}
	if event.UserID == "" {
		return nil, &msg, errors.New("notification event has no user")
	}
	if event.RequestID == "" {
		event.RequestID = msg.Message.Attributes["request_id"]
	}

	return &event, &msg, nil
}
