// Package mailer sends transactional email. Delivery failure is returned to the
// caller; nothing here retries.
package mailer

import (
	"context"
	"fmt"
	"strings"

	"cookmate/internal/platform/logger"
)

type Message struct {
	To      string
	Name    string
	Subject string
	Text    string
	HTML    string
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

type Config struct {
	Provider  string
	SendGrid  SendGridConfig
	FromEmail string
	FromName  string
}

// New picks the delivery backend named by cfg.Provider.
func New(log *logger.Logger, cfg Config) (Mailer, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "sendgrid":
		sg := cfg.SendGrid
		if sg.FromEmail == "" {
			sg.FromEmail = cfg.FromEmail
		}
		if sg.FromName == "" {
			sg.FromName = cfg.FromName
		}
		return NewSendGrid(log, sg)
	case "", "log":
		return NewLogMailer(log), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}

// LogMailer writes messages to the log instead of delivering them.
type LogMailer struct {
	log *logger.Logger
}

func NewLogMailer(log *logger.Logger) *LogMailer {
	return &LogMailer{log: log.With("client", "LogMailer")}
}

func (m *LogMailer) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return fmt.Errorf("mailer: recipient required")
	}
	m.log.Info("email not delivered (log provider)", "to", msg.To, "subject", msg.Subject, "body", msg.Text)
	return nil
}
