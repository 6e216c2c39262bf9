// AngelaMos | 2026
// mailgun.go

package mailer

import (
	"context"
	"errors"
	"fmt"

	mg "github.com/mailgun/mailgun-go/v4"
)

type MailgunSender struct {
	client  mg.Mailgun
	from    string
	subject string
}

func NewMailgunSender(domain, apiKey, from, subject string) (*MailgunSender, error) {
	if domain == "" || apiKey == "" {
		return nil, errors.New("mailgun domain and api key are required")
	}
	if from == "" {
		return nil, errors.New("mail sender address is required")
	}
	return &MailgunSender{
		client:  mg.NewMailgun(domain, apiKey),
		from:    from,
		subject: subject,
	}, nil
}

func (s *MailgunSender) Send(ctx context.Context, to, code string) error {
	msg := s.client.NewMessage(s.from, s.subject, Body(code), to)

	if _, _, err := s.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("mailgun send: %w", err)
	}
	return nil
}
