// AngelaMos | 2026
// mailer.go

package mailer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/carterperez-dev/templates/registration-api/internal/config"
)

const DefaultSubject = "Your activation code"

type Sender interface {
	Send(ctx context.Context, to, code string) error
}

func Body(code string) string {
	return "Your activation code: " + code
}

// New builds the Sender selected by cfg.Provider.
func New(cfg config.MailConfig, logger *slog.Logger) (Sender, error) {
	subject := cfg.Subject
	if subject == "" {
		subject = DefaultSubject
	}

	switch cfg.Provider {
	case config.MailProviderHTTP, "":
		return NewHTTPSender(cfg.BaseURL, subject, &http.Client{}), nil
	case config.MailProviderMailgun:
		return NewMailgunSender(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.From, subject)
	case config.MailProviderResend:
		return NewResendSender(cfg.ResendAPIKey, cfg.From, subject)
	case config.MailProviderLog:
		return NewLogSender(logger), nil
	default:
		return nil, fmt.Errorf("unknown mail provider %q", cfg.Provider)
	}
}
