// Package auth issues and verifies the signed player tokens used by the
// HTTP API and the socket gateway.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coder/quartz"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken indicates the token is definitively invalid: bad
	// signature, expired, or missing its subject.
	ErrInvalidToken = errors.New("auth: invalid token")

	// ErrUnavailable indicates the authority cannot verify tokens at all,
	// such as when no signing secret is configured.
	ErrUnavailable = errors.New("auth: unavailable")
)

// Identity represents an authenticated player.
type Identity struct {
	Username string `json:"username"`
}

// Validator validates authentication tokens.
type Validator interface {
	// Validate checks if a token is valid and returns the player identity.
	// Returns:
	//   - (*Identity, nil) if token is valid
	//   - (nil, ErrInvalidToken) if token is definitively invalid
	//   - (nil, ErrUnavailable) if tokens cannot be verified at all
	Validate(ctx context.Context, token string) (*Identity, error)
}

// Authority signs and verifies HS256 tokens. The username travels in the
// standard subject claim so any JWT client can read it back.
type Authority struct {
	secret []byte
	ttl    time.Duration
	clock  quartz.Clock
}

// New creates an authority signing with secret. Tokens expire after ttl.
// A nil clock uses real time.
func New(secret []byte, ttl time.Duration, clock quartz.Clock) *Authority {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Authority{secret: secret, ttl: ttl, clock: clock}
}

// Issue signs a token for username.
func (a *Authority) Issue(username string) (string, error) {
	if len(a.secret) == 0 {
		return "", ErrUnavailable
	}
	now := a.clock.Now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Validate implements Validator.
func (a *Authority) Validate(ctx context.Context, token string) (*Identity, error) {
	if len(a.secret) == 0 {
		return nil, ErrUnavailable
	}
	if token == "" {
		return nil, ErrInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (any, error) { return a.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return a.clock.Now() }),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}

	return &Identity{Username: claims.Subject}, nil
}

// StaticValidator maps fixed tokens to usernames. Useful in tests and local
// development where no authority is running.
type StaticValidator map[string]string

func (v StaticValidator) Validate(ctx context.Context, token string) (*Identity, error) {
	username, ok := v[token]
	if !ok {
		return nil, ErrInvalidToken
	}
	return &Identity{Username: username}, nil
}
