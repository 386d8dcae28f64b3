package notification

import (
	"context"
	"log/slog"
	"slices"

	"foodbridge/internal/domain/service"
	"foodbridge/internal/errors"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// maxMulticastTokens is the FCM limit per multicast request.
const maxMulticastTokens = 500

type multicastClient interface {
	SendEachForMulticast(ctx context.Context, message *messaging.MulticastMessage) (*messaging.BatchResponse, error)
}

type firebaseSender struct {
	client multicastClient
}

// NewFirebaseSender connects to FCM with the service account at
// credentialsPath, or application default credentials when it is empty.
func NewFirebaseSender(ctx context.Context, projectID, credentialsPath string) (service.PushSender, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	var fbConfig *firebase.Config
	if projectID != "" {
		fbConfig = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "firebase: init app")
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "firebase: messaging client")
	}

	return &firebaseSender{client: client}, nil
}

// Push sends msg to tokens in multicast chunks. A transport error aborts the
// remaining chunks; per-token failures only count.
func (s *firebaseSender) Push(ctx context.Context, tokens []string, msg service.PushMessage) (*service.PushReport, error) {
	report := &service.PushReport{}

	for chunk := range slices.Chunk(tokens, maxMulticastTokens) {
		resp, err := s.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens:       chunk,
			Notification: &messaging.Notification{Title: msg.Title, Body: msg.Body},
			Data:         msg.Data,
		})
		if err != nil {
			return report, errors.Wrap(err, "firebase: multicast")
		}

		report.Sent += resp.SuccessCount
		report.Failed += resp.FailureCount
		for i, r := range resp.Responses {
			if r.Error != nil && (messaging.IsInvalidArgument(r.Error) || messaging.IsUnregistered(r.Error)) {
				report.InvalidTokens = append(report.InvalidTokens, chunk[i])
			}
		}
	}

	return report, nil
}

// logOnlySender stands in for FCM when no Firebase project is configured.
type logOnlySender struct {
	logger *slog.Logger
}

func NewLogOnlySender(logger *slog.Logger) service.PushSender {
	return &logOnlySender{logger: logger}
}

func (s *logOnlySender) Push(ctx context.Context, tokens []string, msg service.PushMessage) (*service.PushReport, error) {
	s.logger.InfoContext(ctx, "Push skipped, firebase disabled",
		slog.Int("tokens", len(tokens)),
		slog.String("title", msg.Title))

	return &service.PushReport{}, nil
}
