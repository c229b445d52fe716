// internal/auth/auth.go
package auth

import (
	"crypto/ed25519"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Keys signs and verifies the ephemeral session tokens the hub hands out
// during the WebSocket handshake. A fresh ed25519 key pair is generated per
// process, so tokens never outlive the server that issued them.
type Keys struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey
	expire  time.Duration
}

// NewKeys generates a runtime key pair. expire <= 0 means tokens without an
// expiration claim.
func NewKeys(expire time.Duration) (*Keys, error) {
	public, private, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key pair: %w", err)
	}
	return &Keys{private: private, public: public, expire: expire}, nil
}

// NewSessionToken mints a token with a fresh uuid subject. The subject tags
// log lines for a connection's lifetime; it carries no lobby semantics.
func (k *Keys) NewSessionToken() (string, error) {
	return k.createToken(uuid.NewString())
}

func (k *Keys) createToken(subject string) (string, error) {
	claims := jwt.MapClaims{
		"sub": subject,
	}
	if k.expire > 0 {
		claims["exp"] = time.Now().Add(k.expire).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(k.private)
}

// Verify checks a presented token and returns its subject.
func (k *Keys) Verify(tokenString string) (string, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return k.public, nil
	})
	if err != nil {
		return "", fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return "", fmt.Errorf("invalid token")
	}
	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("invalid jwt claims")
	}
	subject, ok := claims["sub"].(string)
	if !ok {
		return "", fmt.Errorf("missing sub in jwt")
	}
	return subject, nil
}
