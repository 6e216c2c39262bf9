// AngelaMos | 2026
// code.go

package activation

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"math/big"
)

const (
	CodeDigits        = 4
	DefaultSaltLength = 16
)

var codeSpace = big.NewInt(10_000)

// GenerateCode draws uniformly from 0000-9999 using crypto/rand.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return formatCode(n.Int64()), nil
}

func GenerateSalt(length int) ([]byte, error) {
	salt := make([]byte, length)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("generate salt: %w", err)
	}
	return salt, nil
}

// HashCode returns SHA-256(salt || code).
func HashCode(salt []byte, code string) []byte {
	h := sha256.New()
	h.Write(salt)
	h.Write([]byte(code))
	return h.Sum(nil)
}

func formatCode(n int64) string {
	return fmt.Sprintf("%0*d", CodeDigits, n)
}
