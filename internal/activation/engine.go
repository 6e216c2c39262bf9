// AngelaMos | 2026
// engine.go

package activation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/carterperez-dev/templates/registration-api/internal/core"
)

const DefaultTTL = 60 * time.Second

// Callers only ever see these two. Every other failure reason (no code,
// superseded, consumed, wrong digits) collapses into ErrInvalidCode.
var (
	ErrInvalidCode = errors.New("invalid activation code")
	ErrCodeExpired = errors.New("activation code expired")
)

var (
	errCodeUsed     = errors.New("code already used")
	errCodeMismatch = errors.New("code mismatch")
)

type Config struct {
	TTL        time.Duration
	SaltLength int
}

type Engine struct {
	repo     Repository
	ttl      time.Duration
	saltLen  int
	now      func() time.Time
	generate func() (string, error)
	logger   *slog.Logger
	tracer   trace.Tracer
}

func NewEngine(repo Repository, cfg Config, logger *slog.Logger) *Engine {
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	if cfg.SaltLength <= 0 {
		cfg.SaltLength = DefaultSaltLength
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Engine{
		repo:     repo,
		ttl:      cfg.TTL,
		saltLen:  cfg.SaltLength,
		now:      time.Now,
		generate: GenerateCode,
		logger:   logger,
		tracer:   otel.Tracer("registration-api/activation"),
	}
}

func (e *Engine) TTL() time.Duration {
	return e.ttl
}

// Issue creates a fresh code for userID and returns the plaintext. The
// plaintext is never persisted or logged; the previous code, if any, is
// superseded by this one.
func (e *Engine) Issue(ctx context.Context, userID string) (string, error) {
	ctx, span := e.tracer.Start(ctx, "activation.issue",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	code, err := e.generate()
	if err != nil {
		core.SetSpanError(ctx, err)
		return "", fmt.Errorf("issue activation code: %w", err)
	}

	salt, err := GenerateSalt(e.saltLen)
	if err != nil {
		core.SetSpanError(ctx, err)
		return "", fmt.Errorf("issue activation code: %w", err)
	}

	id, err := uuid.NewV7()
	if err != nil {
		core.SetSpanError(ctx, err)
		return "", fmt.Errorf("issue activation code: %w", err)
	}

	record := &ActivationCode{
		ID:        id.String(),
		UserID:    userID,
		CodeHash:  HashCode(salt, code),
		Salt:      salt,
		CreatedAt: e.now().UTC(),
	}

	if err := e.repo.Create(ctx, record); err != nil {
		core.SetSpanError(ctx, err)
		return "", fmt.Errorf("issue activation code: %w", err)
	}

	return code, nil
}

// Redeem consumes the newest code for userID if candidate matches and the
// code is neither used nor expired. On success the user is activated in
// the same transaction. Expiry is checked before the hash comparison.
func (e *Engine) Redeem(ctx context.Context, userID, candidate string) error {
	ctx, span := e.tracer.Start(ctx, "activation.redeem",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	err := e.repo.Consume(ctx, userID, func(code *ActivationCode) error {
		switch {
		case code.Used:
			return errCodeUsed
		case code.IsExpired(e.now(), e.ttl):
			return ErrCodeExpired
		case !code.Matches(candidate):
			return errCodeMismatch
		}
		return nil
	})

	if err == nil {
		core.AddSpanEvent(ctx, "activation.redeemed")
		return nil
	}

	reason := rejectReason(err)
	if reason == "" {
		core.SetSpanError(ctx, err)
		return fmt.Errorf("redeem activation code: %w", err)
	}

	e.logger.InfoContext(ctx, "activation rejected",
		"user_id", userID,
		"reason", reason,
	)
	span.SetAttributes(attribute.String("activation.reject_reason", reason))

	if errors.Is(err, ErrCodeExpired) {
		return ErrCodeExpired
	}
	return ErrInvalidCode
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrCodeExpired):
		return "expired"
	case errors.Is(err, ErrNotIssued):
		return "no_code"
	case errors.Is(err, errCodeUsed):
		return "used"
	case errors.Is(err, ErrCodeConsumed):
		return "lost_race"
	case errors.Is(err, errCodeMismatch):
		return "mismatch"
	default:
		return ""
	}
}
