package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fanvault/contexts/identity-access/authorization-service/ports"
)

const minSecretLength = 32

// HMACSigner implements HS256 session tokens. The secret stays at adapter
// level so the application layer is crypto-library agnostic.
type HMACSigner struct {
	issuer string
	secret []byte
	now    func() time.Time
}

func NewHMACSigner(issuer string, secret string) (*HMACSigner, error) {
	if len(secret) < minSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes", minSecretLength)
	}
	if issuer == "" {
		issuer = "fanvault"
	}
	return &HMACSigner{issuer: issuer, secret: []byte(secret), now: time.Now}, nil
}

// NewEphemeralHMACSigner creates a random secret for local/dev use.
func NewEphemeralHMACSigner(issuer string) (*HMACSigner, error) {
	buf := make([]byte, minSecretLength)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return NewHMACSigner(issuer, base64.RawURLEncoding.EncodeToString(buf))
}

type sessionJWTClaims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

func (s *HMACSigner) Sign(claims ports.SessionClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, sessionJWTClaims{
		Role: claims.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   claims.UserID,
			IssuedAt:  jwt.NewNumericDate(claims.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(claims.ExpiresAt),
		},
	})
	return token.SignedString(s.secret)
}

func (s *HMACSigner) Parse(raw string) (ports.SessionClaims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &sessionJWTClaims{}, func(token *jwt.Token) (any, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", token.Method.Alg())
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return ports.SessionClaims{}, err
	}
	claims, ok := parsed.Claims.(*sessionJWTClaims)
	if !ok || !parsed.Valid || claims.Subject == "" {
		return ports.SessionClaims{}, errors.New("invalid token claims")
	}
	out := ports.SessionClaims{
		UserID:    claims.Subject,
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time.UTC()
	}
	return out, nil
}

// RandomSecrets produces 32-byte URL-safe CSRF values.
type RandomSecrets struct{}

func (RandomSecrets) NewSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
