package notification

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"foodbridge/config"
	"foodbridge/internal/domain/service"

	"firebase.google.com/go/v4/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeMulticast struct {
	batches [][]string
	failAt  map[string]error
}

func (f *fakeMulticast) SendEachForMulticast(_ context.Context, msg *messaging.MulticastMessage) (*messaging.BatchResponse, error) {
	f.batches = append(f.batches, msg.Tokens)

	resp := &messaging.BatchResponse{}
	for _, tok := range msg.Tokens {
		if err, ok := f.failAt[tok]; ok {
			resp.FailureCount++
			resp.Responses = append(resp.Responses, &messaging.SendResponse{Error: err})

			continue
		}
		resp.SuccessCount++
		resp.Responses = append(resp.Responses, &messaging.SendResponse{Success: true})
	}

	return resp, nil
}

func TestFirebaseSender_PushChunks(t *testing.T) {
	tokens := make([]string, 0, 1201)
	for i := range 1201 {
		tokens = append(tokens, fmt.Sprintf("tok-%d", i))
	}

	client := &fakeMulticast{failAt: map[string]error{"tok-7": errors.New("transient")}}
	sender := &firebaseSender{client: client}

	report, err := sender.Push(context.Background(), tokens, service.PushMessage{Title: "t", Body: "b"})
	require.NoError(t, err)
	assert.Len(t, client.batches, 3)
	assert.Len(t, client.batches[2], 201)
	assert.Equal(t, 1200, report.Sent)
	assert.Equal(t, 1, report.Failed)
	assert.Empty(t, report.InvalidTokens, "only invalid or unregistered tokens are reported")
}

func TestFirebaseSender_EmptyTokens(t *testing.T) {
	client := &fakeMulticast{}
	sender := &firebaseSender{client: client}

	report, err := sender.Push(context.Background(), nil, service.PushMessage{Title: "t"})
	require.NoError(t, err)
	assert.Equal(t, &service.PushReport{}, report)
	assert.Empty(t, client.batches)
}

func TestLogOnlySender(t *testing.T) {
	var logs strings.Builder
	sender := NewLogOnlySender(slog.New(slog.NewTextHandler(&logs, nil)))

	report, err := sender.Push(context.Background(), []string{"a", "b"}, service.PushMessage{Title: "Pickup"})
	require.NoError(t, err)
	assert.Zero(t, report.Sent)
	assert.Contains(t, logs.String(), "tokens=2")
}

type recordingDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *recordingDialer) DialAndSend(m ...*gomail.Message) error {
	d.sent = append(d.sent, m...)

	return d.err
}

func TestSMTPMailer_Send(t *testing.T) {
	d := &recordingDialer{}
	mailer := &smtpMailer{from: "noreply@foodbridge.local", dialer: d}

	require.NoError(t, mailer.Send(context.Background(), "ngo@example.org", "New donation", "Donation #12345678"))
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"ngo@example.org"}, d.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"New donation"}, d.sent[0].GetHeader("Subject"))

	var sb strings.Builder
	_, err := d.sent[0].WriteTo(&sb)
	require.NoError(t, err)
	assert.Contains(t, sb.String(), "Donation #12345678")

	d.err = errors.New("connection refused")
	assert.ErrorContains(t, mailer.Send(context.Background(), "x@y.z", "s", "b"), "connection refused")
}

func TestNewMailer_WithoutHostLogsOnly(t *testing.T) {
	mailer := NewMailer(&config.Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	_, ok := mailer.(*logMailer)
	assert.True(t, ok)
	assert.NoError(t, mailer.Send(context.Background(), "a@b.c", "s", "b"))
}
