// AngelaMos | 2026
// log.go

package mailer

import (
	"context"
	"log/slog"
)

// LogSender writes deliveries to the log instead of sending them. For
// local development only: the code appears in plaintext.
type LogSender struct {
	logger *slog.Logger
}

func NewLogSender(logger *slog.Logger) *LogSender {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, to, code string) error {
	s.logger.InfoContext(ctx, "activation mail",
		"to", to,
		"body", Body(code),
	)
	return nil
}
