package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type jwtClaims struct {
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// JWTService signs HS256 JSON Web Tokens carrying the user id.
type JWTService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

func NewJWTService(secret []byte, ttl time.Duration, opts ...TokenOption) (*JWTService, error) {
	if len(secret) == 0 {
		return nil, errEmptySecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", ttl)
	}

	o := applyTokenOptions(opts)
	return &JWTService{
		secret: secret,
		ttl:    ttl,
		now:    o.now,
		// Expiry is checked in Verify against s.now so that a token is still
		// valid at exactly its exp, matching PasetoService.
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithStrictDecoding(),
			jwt.WithoutClaimsValidation(),
		),
	}, nil
}

// Issue signs a token for userID that expires after the configured lifetime.
func (s *JWTService) Issue(userID uuid.UUID) (string, error) {
	now := s.now()
	claims := jwtClaims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry. Non-canonical base64 is rejected. The error is one of ErrMalformedToken,
// ErrInvalidSignature or ErrExpiredToken.
func (s *JWTService) Verify(tokenStr string) (*TokenClaims, error) {
	var claims jwtClaims
	_, err := s.parser.ParseWithClaims(tokenStr, &claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, classifyJWTError(err)
	}

	if claims.ExpiresAt == nil {
		return nil, ErrMalformedToken.WithCause(jwt.ErrTokenRequiredClaimMissing)
	}
	if s.now().After(claims.ExpiresAt.Time) {
		return nil, ErrExpiredToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrMalformedToken.WithCause(err)
	}

	out := &TokenClaims{
		UserID:    userID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

func classifyJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		return ErrMalformedToken.WithCause(err)
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredToken.WithCause(err)
	default:
		// bad signature, disallowed alg, unverifiable
		return ErrInvalidSignature.WithCause(err)
	}
}
