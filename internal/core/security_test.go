// AngelaMos | 2026
// security_test.go

package core

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestHasher(t *testing.T) *PasswordHasher {
	t.Helper()
	h, err := NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := newTestHasher(t)

	hash, err := h.Hash("password123")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$2a$"))
	assert.True(t, h.Verify("password123", hash))
	assert.False(t, h.Verify("password124", hash))
}

func TestPasswordHasher_SaltedOutput(t *testing.T) {
	h := newTestHasher(t)

	first, err := h.Hash("password123")
	require.NoError(t, err)
	second, err := h.Hash("password123")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestPasswordHasher_MalformedHash(t *testing.T) {
	h := newTestHasher(t)

	assert.False(t, h.Verify("password123", ""))
	assert.False(t, h.Verify("password123", "not-a-bcrypt-hash"))
	assert.NotPanics(t, func() { h.VerifyDummy("password123") })
}

func TestPasswordHasher_LongPassword(t *testing.T) {
	h := newTestHasher(t)

	long := strings.Repeat("a", 100)
	hash, err := h.Hash(long)
	require.NoError(t, err)

	assert.True(t, h.Verify(long, hash))
	assert.False(t, h.Verify(strings.Repeat("a", 99)+"b", hash))
}

func TestPasswordHasher_CostRange(t *testing.T) {
	_, err := NewPasswordHasher(bcrypt.MinCost - 1)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewPasswordHasher(bcrypt.MaxCost + 1)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestNeedsRehash(t *testing.T) {
	h := newTestHasher(t)

	hash, err := h.Hash("password123")
	require.NoError(t, err)

	assert.False(t, NeedsRehash(hash, bcrypt.MinCost))
	assert.True(t, NeedsRehash(hash, 12))
	assert.True(t, NeedsRehash("garbage", 12))
}
