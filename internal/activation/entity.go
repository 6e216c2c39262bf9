// AngelaMos | 2026
// entity.go

package activation

import (
	"crypto/subtle"
	"time"
)

// ActivationCode is one issuance. Only the newest row per user is ever
// redeemable; older rows are superseded, never deleted.
type ActivationCode struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	CodeHash  []byte    `db:"code_hash"`
	Salt      []byte    `db:"salt"`
	CreatedAt time.Time `db:"created_at"`
	Used      bool      `db:"used"`
}

// IsExpired is derived, never stored: an expired row keeps used=false.
func (c *ActivationCode) IsExpired(now time.Time, ttl time.Duration) bool {
	return now.Sub(c.CreatedAt) > ttl
}

func (c *ActivationCode) Matches(candidate string) bool {
	return subtle.ConstantTimeCompare(HashCode(c.Salt, candidate), c.CodeHash) == 1
}
