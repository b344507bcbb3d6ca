// Package auth verifies the bearer credential a client presents when it opens
// a signaling connection.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/mossy-p/callrelay/internal/models"
)

var (
	ErrTokenRequired = errors.New("authentication token required")
	ErrInvalidToken  = errors.New("invalid authentication token")
)

// Claims is the payload of a CRM-issued access token.
type Claims struct {
	ID   models.Identity `json:"id"`
	Role string          `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator verifies signed tokens against a shared secret.
type Authenticator struct {
	secret    []byte
	algorithm string
	now       func() time.Time
}

type Option func(*Authenticator)

// WithClock overrides the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(a *Authenticator) { a.now = now }
}

func New(secret, algorithm string, opts ...Option) *Authenticator {
	if algorithm == "" {
		algorithm = jwt.SigningMethodHS256.Alg()
	}
	a := &Authenticator{
		secret:    []byte(secret),
		algorithm: algorithm,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Authenticate returns the principal carried by token. All failures wrap
// ErrTokenRequired or ErrInvalidToken.
func (a *Authenticator) Authenticate(token string) (models.Principal, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.Principal{}, ErrTokenRequired
	}
	if strings.Count(token, ".") != 2 {
		return models.Principal{}, fmt.Errorf("%w: malformed token", ErrInvalidToken)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{a.algorithm}),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return models.Principal{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return models.Principal{}, ErrInvalidToken
	}
	if claims.ID.IsZero() {
		return models.Principal{}, fmt.Errorf("%w: missing id claim", ErrInvalidToken)
	}

	return models.Principal{ID: claims.ID, Role: claims.Role}, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" value.
func BearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return strings.TrimSpace(token), true
}
