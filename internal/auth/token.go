package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/redmonkez12/bookings-api/internal/apperror"
	"github.com/redmonkez12/bookings-api/internal/config"
)

// Verification failures. All are Authentication-kind so handlers answer 401.
var (
	ErrMalformedToken   = apperror.Authentication("malformed token")
	ErrInvalidSignature = apperror.Authentication("invalid token signature")
	ErrExpiredToken     = apperror.Authentication("token has expired")
	ErrNoCredential     = apperror.Authentication("no credential presented")
)

var errEmptySecret = errors.New("token secret must not be empty")

// TokenClaims is what a verified token says about its bearer.
type TokenClaims struct {
	UserID    uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService issues and verifies session tokens.
// Implementations: JWTService (HS256) and PasetoService (v4.local).
type TokenService interface {
	Issue(userID uuid.UUID) (string, error)
	Verify(token string) (*TokenClaims, error)
}

// NewTokenService builds the service selected by cfg.TokenFormat.
func NewTokenService(cfg config.AuthConfig, opts ...TokenOption) (TokenService, error) {
	switch cfg.TokenFormat {
	case config.TokenFormatPaseto:
		svc, err := NewPasetoService(cfg.Secret, cfg.TokenLifetime, opts...)
		if err != nil {
			return nil, err
		}
		return svc, nil
	case config.TokenFormatJWT, "":
		svc, err := NewJWTService(cfg.Secret, cfg.TokenLifetime, opts...)
		if err != nil {
			return nil, err
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("unknown token format %q", cfg.TokenFormat)
	}
}

// TokenOption configures a token service.
type TokenOption func(*tokenOptions)

type tokenOptions struct {
	now func() time.Time
}

// WithClock replaces time.Now, for tests and tooling.
func WithClock(now func() time.Time) TokenOption {
	return func(o *tokenOptions) {
		o.now = now
	}
}

func applyTokenOptions(opts []TokenOption) tokenOptions {
	o := tokenOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// FailureReason names err for logs: no_credential, malformed,
// invalid_signature, expired, or unknown.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrNoCredential):
		return "no_credential"
	case errors.Is(err, ErrMalformedToken):
		return "malformed"
	case errors.Is(err, ErrInvalidSignature):
		return "invalid_signature"
	case errors.Is(err, ErrExpiredToken):
		return "expired"
	default:
		return "unknown"
	}
}
