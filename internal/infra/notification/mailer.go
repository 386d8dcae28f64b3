package notification

import (
	"context"
	"log/slog"

	"foodbridge/config"
	"foodbridge/internal/domain/service"

	"github.com/pkg/errors"
	"gopkg.in/gomail.v2"
)

type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// smtpMailer sends notification copies over SMTP.
type smtpMailer struct {
	from   string
	dialer dialer
}

// NewMailer returns an SMTP mailer, or a logging mailer when no host is configured.
func NewMailer(cfg *config.Config, logger *slog.Logger) service.Mailer {
	mc := cfg.Mail
	if mc == nil || mc.Host == "" {
		return &logMailer{logger: logger}
	}

	port := mc.Port
	if port == 0 {
		port = 587
	}

	return &smtpMailer{
		from:   mc.From,
		dialer: gomail.NewDialer(mc.Host, port, mc.Username, mc.Password),
	}
}

func (m *smtpMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	if err := m.dialer.DialAndSend(msg); err != nil {
		return errors.Wrapf(err, "send mail to %s", to)
	}

	return nil
}

type logMailer struct {
	logger *slog.Logger
}

func (m *logMailer) Send(ctx context.Context, to, subject, _ string) error {
	m.logger.DebugContext(ctx, "mail skipped, smtp disabled",
		slog.String("to", to),
		slog.String("subject", subject),
	)

	return nil
}
