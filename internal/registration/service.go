// AngelaMos | 2026
// service.go

package registration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/carterperez-dev/templates/registration-api/internal/user"
)

var ErrAlreadyActive = errors.New("account already active")

type PasswordHasher interface {
	Hash(password string) (string, error)
}

type UserCreator interface {
	Create(ctx context.Context, email, passwordHash string) (*user.User, error)
}

type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*user.User, error)
}

type CodeEngine interface {
	Issue(ctx context.Context, userID string) (string, error)
	Redeem(ctx context.Context, userID, code string) error
}

// Registration carries the plaintext code back to the caller so it can be
// handed to the notifier. It must never be rendered in a response.
type Registration struct {
	User *user.User
	Code string
}

type Service struct {
	hasher PasswordHasher
	users  UserCreator
	auth   Authenticator
	codes  CodeEngine
	logger *slog.Logger
}

func NewService(
	hasher PasswordHasher,
	users UserCreator,
	auth Authenticator,
	codes CodeEngine,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		hasher: hasher,
		users:  users,
		auth:   auth,
		codes:  codes,
		logger: logger,
	}
}

// Register creates an inactive account and issues its first code. When
// issuing fails after the user row exists the account is left in place
// and the error returned.
func (s *Service) Register(
	ctx context.Context,
	email, password string,
) (*Registration, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	u, err := s.users.Create(ctx, email, hash)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	code, err := s.codes.Issue(ctx, u.ID)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	s.logger.InfoContext(ctx, "user registered", "user_id", u.ID)

	return &Registration{User: u, Code: code}, nil
}

func (s *Service) Activate(
	ctx context.Context,
	email, password, code string,
) error {
	u, err := s.auth.Authenticate(ctx, email, password)
	if err != nil {
		return fmt.Errorf("activate: %w", err)
	}

	if u.IsActive() {
		return fmt.Errorf("activate: %w", ErrAlreadyActive)
	}

	if err := s.codes.Redeem(ctx, u.ID, code); err != nil {
		return fmt.Errorf("activate: %w", err)
	}

	s.logger.InfoContext(ctx, "account activated", "user_id", u.ID)

	return nil
}
