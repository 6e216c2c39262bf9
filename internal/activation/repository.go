// AngelaMos | 2026
// repository.go

package activation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/carterperez-dev/templates/registration-api/internal/core"
)

var (
	ErrNotIssued    = errors.New("no activation code issued")
	ErrCodeConsumed = errors.New("activation code already consumed")
)

// UserActivator marks the owning user active using the transaction that
// consumes the code.
type UserActivator func(ctx context.Context, q core.DBTX, userID string) error

type Repository interface {
	Create(ctx context.Context, code *ActivationCode) error
	// Consume locks the newest code for userID and hands it to check. When
	// check returns nil the code is marked used and the user activated in
	// the same transaction; any error rolls both back.
	Consume(
		ctx context.Context,
		userID string,
		check func(code *ActivationCode) error,
	) error
}

type repository struct {
	db       *sqlx.DB
	activate UserActivator
}

func NewRepository(db *sqlx.DB, activate UserActivator) Repository {
	return &repository{db: db, activate: activate}
}

func (r *repository) Create(ctx context.Context, code *ActivationCode) error {
	query := `
		INSERT INTO activation_codes (id, user_id, code_hash, salt, created_at, used)
		VALUES ($1, $2, $3, $4, $5, FALSE)`

	_, err := r.db.ExecContext(ctx, query,
		code.ID,
		code.UserID,
		code.CodeHash,
		code.Salt,
		code.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create activation code: %w", err)
	}

	return nil
}

func (r *repository) Consume(
	ctx context.Context,
	userID string,
	check func(code *ActivationCode) error,
) error {
	selectQuery := `
		SELECT id, user_id, code_hash, salt, created_at, used
		FROM activation_codes
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1
		FOR UPDATE`

	markUsedQuery := `
		UPDATE activation_codes
		SET used = TRUE
		WHERE id = $1 AND used = FALSE`

	return core.InTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var code ActivationCode
		err := tx.GetContext(ctx, &code, selectQuery, userID)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("consume activation code: %w", ErrNotIssued)
		}
		if err != nil {
			return fmt.Errorf("consume activation code: %w", err)
		}

		if err := check(&code); err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, markUsedQuery, code.ID)
		if err != nil {
			return fmt.Errorf("mark activation code used: %w", err)
		}

		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("mark activation code used: %w", err)
		}

		if rows == 0 {
			return fmt.Errorf("mark activation code used: %w", ErrCodeConsumed)
		}

		if err := r.activate(ctx, tx, userID); err != nil {
			return fmt.Errorf("activate user: %w", err)
		}

		return nil
	})
}
