package auth

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

const (
	v4LocalHeader = "v4.local."
	// nonce (32) + authentication tag (32)
	v4LocalMinBody = 64
)

// PasetoService handles PASETO token creation and validation
// Uses v4.local (symmetric encryption with XChaCha20-Poly1305)
type PasetoService struct {
	symmetricKey paseto.V4SymmetricKey
	ttl          time.Duration
	now          func() time.Time
}

// NewPasetoService derives the 32-byte v4 key from secret with SHA-256, so
// the same JWT_SECRET serves either token format.
func NewPasetoService(secret []byte, ttl time.Duration, opts ...TokenOption) (*PasetoService, error) {
	if len(secret) == 0 {
		return nil, errEmptySecret
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("token lifetime must be positive, got %s", ttl)
	}

	sum := sha256.Sum256(secret)
	key, err := paseto.V4SymmetricKeyFromBytes(sum[:])
	if err != nil {
		return nil, fmt.Errorf("failed to create symmetric key: %w", err)
	}

	o := applyTokenOptions(opts)
	return &PasetoService{
		symmetricKey: key,
		ttl:          ttl,
		now:          o.now,
	}, nil
}

// Issue generates a new PASETO v4.local token for userID
func (s *PasetoService) Issue(userID uuid.UUID) (string, error) {
	now := s.now()

	token := paseto.NewToken()
	token.SetIssuedAt(now)
	token.SetExpiration(now.Add(s.ttl))
	token.SetSubject(userID.String())
	token.SetString("id", userID.String())

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// Verify decrypts a v4.local token and checks its expiry against the
// service clock.
func (s *PasetoService) Verify(tokenStr string) (*TokenClaims, error) {
	if err := checkV4LocalShape(tokenStr); err != nil {
		return nil, err
	}

	// Expiry is checked below so it uses s.now and maps to ErrExpiredToken.
	parser := paseto.NewParserWithoutExpiryCheck()
	token, err := parser.ParseV4Local(s.symmetricKey, tokenStr, nil)
	if err != nil {
		return nil, ErrInvalidSignature.WithCause(err)
	}

	rawID, err := token.GetString("id")
	if err != nil {
		return nil, ErrMalformedToken.WithCause(err)
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return nil, ErrMalformedToken.WithCause(err)
	}

	expiresAt, err := token.GetExpiration()
	if err != nil {
		return nil, ErrMalformedToken.WithCause(err)
	}
	if s.now().After(expiresAt) {
		return nil, ErrExpiredToken
	}

	issuedAt, err := token.GetIssuedAt()
	if err != nil {
		return nil, ErrMalformedToken.WithCause(err)
	}

	return &TokenClaims{
		UserID:    userID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

// checkV4LocalShape rejects strings that cannot be a v4.local token at all,
// so they report as malformed rather than as a failed decryption.
func checkV4LocalShape(tokenStr string) error {
	rest, ok := strings.CutPrefix(tokenStr, v4LocalHeader)
	if !ok {
		return ErrMalformedToken
	}

	body, _, _ := strings.Cut(rest, ".")
	decoded, err := base64.RawURLEncoding.Strict().DecodeString(body)
	if err != nil {
		return ErrMalformedToken.WithCause(err)
	}
	if len(decoded) < v4LocalMinBody {
		return ErrMalformedToken
	}
	return nil
}
