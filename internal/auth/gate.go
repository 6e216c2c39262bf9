// AngelaMos | 2026
// gate.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/carterperez-dev/templates/registration-api/internal/core"
	"github.com/carterperez-dev/templates/registration-api/internal/user"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type UserLookup interface {
	FindByEmail(ctx context.Context, email string) (*user.User, error)
}

// Gate checks an email/password pair. Unknown email and wrong password
// are indistinguishable to the caller, in both result and timing.
type Gate struct {
	users  UserLookup
	hasher *core.PasswordHasher
	logger *slog.Logger
}

func NewGate(
	users UserLookup,
	hasher *core.PasswordHasher,
	logger *slog.Logger,
) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		users:  users,
		hasher: hasher,
		logger: logger,
	}
}

func (g *Gate) Authenticate(
	ctx context.Context,
	email, password string,
) (*user.User, error) {
	u, err := g.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			g.hasher.VerifyDummy(password)
			g.logger.WarnContext(ctx, "authentication failed",
				"reason", "unknown_email",
			)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("authenticate: %w", err)
	}

	if !g.hasher.Verify(password, u.PasswordHash) {
		g.logger.WarnContext(ctx, "authentication failed",
			"user_id", u.ID,
			"reason", "wrong_password",
		)
		return nil, ErrInvalidCredentials
	}

	if core.NeedsRehash(u.PasswordHash, g.hasher.Cost()) {
		g.logger.DebugContext(ctx, "password hash uses outdated cost",
			"user_id", u.ID,
			"target_cost", g.hasher.Cost(),
		)
	}

	return u, nil
}
