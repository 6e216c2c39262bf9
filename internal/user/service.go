// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/registration-api/internal/core"
)

var ErrEmailAlreadyUsed = errors.New("email already used")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create inserts a new inactive user. Uniqueness is decided by the
// database index, so two concurrent calls for one email yield exactly one
// ErrEmailAlreadyUsed.
func (s *Service) Create(
	ctx context.Context,
	email, passwordHash string,
) (*User, error) {
	user := &User{
		ID:           uuid.New().String(),
		Email:        NormalizeEmail(email),
		PasswordHash: passwordHash,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, fmt.Errorf("create user: %w", ErrEmailAlreadyUsed)
		}
		return nil, err
	}

	return user, nil
}

func (s *Service) FindByEmail(
	ctx context.Context,
	email string,
) (*User, error) {
	return s.repo.GetByEmail(ctx, NormalizeEmail(email))
}

// NormalizeEmail is applied before every write and lookup so that the
// unique index compares case-folded addresses.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
