// AngelaMos | 2026
// resend.go

package mailer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/resend/resend-go/v2"
)

type ResendSender struct {
	client  *resend.Client
	from    string
	subject string
}

func NewResendSender(apiKey, from, subject string) (*ResendSender, error) {
	if apiKey == "" {
		return nil, errors.New("resend api key is required")
	}
	if from == "" {
		return nil, errors.New("mail sender address is required")
	}
	return &ResendSender{
		client:  resend.NewClient(apiKey),
		from:    from,
		subject: subject,
	}, nil
}

// Send passes an idempotency key derived from the recipient and code, so
// notifier retries of one delivery are collapsed by Resend.
func (s *ResendSender) Send(ctx context.Context, to, code string) error {
	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: s.subject,
		Text:    Body(code),
	}
	options := &resend.SendEmailOptions{
		IdempotencyKey: idempotencyKey(to, code),
	}

	if _, err := s.client.Emails.SendWithOptions(ctx, params, options); err != nil {
		return fmt.Errorf("resend send: %w", err)
	}
	return nil
}

func idempotencyKey(to, code string) string {
	sum := sha256.Sum256([]byte(to + "\x00" + code))
	return "activation-" + hex.EncodeToString(sum[:16])
}
