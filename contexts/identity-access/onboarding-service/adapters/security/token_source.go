package security

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
)

// RandomTokenSource issues 32-byte url-safe verification tokens.
type RandomTokenSource struct{}

func (RandomTokenSource) NewToken() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("read random token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
