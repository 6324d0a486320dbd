// internal/auth/session.go
package auth

import (
	"crypto/ed25519"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ErrInvalidToken is returned for tokens that fail verification.
var ErrInvalidToken = errors.New("invalid login token")

// TokenIssuer signs login tokens that let a reconnecting client reclaim the
// name it logged in with.
type TokenIssuer struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	ttl        time.Duration // 0 => tokens never expire
	now        func() time.Time
}

// NewTokenIssuer generates a fresh ed25519 key pair.
func NewTokenIssuer(ttl time.Duration) (*TokenIssuer, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate ed25519 key pair: %w", err)
	}
	return &TokenIssuer{privateKey: priv, publicKey: pub, ttl: ttl, now: time.Now}, nil
}

// Issue returns a signed token with "sub" = name and a unique session id.
func (ti *TokenIssuer) Issue(name string) (string, error) {
	claims := jwt.MapClaims{
		"sub": name,
		"sid": uuid.NewString(),
		"iat": ti.now().Unix(),
	}
	if ti.ttl > 0 {
		claims["exp"] = ti.now().Add(ti.ttl).Unix()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(ti.privateKey)
}

// Verify checks a token and returns the name it was issued for.
func (ti *TokenIssuer) Verify(tokenString string) (string, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ti.publicKey, nil
	}, jwt.WithTimeFunc(ti.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !t.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: unexpected claims", ErrInvalidToken)
	}
	name, ok := claims["sub"].(string)
	if !ok || name == "" {
		return "", fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	return name, nil
}
