package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/bookings-api/internal/config"
)

const testTTL = time.Hour

func newTokenServices(t *testing.T, clock *testClock) map[string]TokenService {
	t.Helper()

	jwtSvc, err := NewJWTService(testSecret, testTTL, WithClock(clock.Now))
	require.NoError(t, err)
	pasetoSvc, err := NewPasetoService(testSecret, testTTL, WithClock(clock.Now))
	require.NoError(t, err)

	return map[string]TokenService{"jwt": jwtSvc, "paseto": pasetoSvc}
}

const base64URLAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

// tamperedTokens returns every single-character substitution of the
// authenticated part of token: the signature segment for JWT, the encrypted
// body for PASETO. The first entry changes the segment's first character.
func tamperedTokens(token string) []string {
	start := strings.LastIndex(token, ".") + 1
	var out []string
	for i := start; i < len(token); i++ {
		for _, c := range []byte(base64URLAlphabet) {
			if c == token[i] {
				continue
			}
			out = append(out, token[:i]+string(c)+token[i+1:])
		}
	}
	return out
}

func TestToken_IssueVerifyRoundTrip(t *testing.T) {
	for name, svc := range newTokenServices(t, newTestClock()) {
		t.Run(name, func(t *testing.T) {
			userID := uuid.New()

			token, err := svc.Issue(userID)
			require.NoError(t, err)

			claims, err := svc.Verify(token)
			require.NoError(t, err)
			assert.Equal(t, userID, claims.UserID)
			assert.True(t, claims.IssuedAt.Equal(testNow))
			assert.True(t, claims.ExpiresAt.Equal(testNow.Add(testTTL)))
		})
	}
}

func TestToken_Expiry(t *testing.T) {
	clock := newTestClock()
	for name, svc := range newTokenServices(t, clock) {
		t.Run(name, func(t *testing.T) {
			clock.t = testNow
			token, err := svc.Issue(uuid.New())
			require.NoError(t, err)

			clock.Advance(testTTL - time.Second)
			_, err = svc.Verify(token)
			assert.NoError(t, err, "valid just before expiry")

			clock.Advance(time.Second)
			_, err = svc.Verify(token)
			assert.NoError(t, err, "still valid at exactly exp")

			clock.Advance(time.Millisecond)
			_, err = svc.Verify(token)
			assert.ErrorIs(t, err, ErrExpiredToken)

			clock.Advance(time.Second)
			_, err = svc.Verify(token)
			assert.ErrorIs(t, err, ErrExpiredToken)
			assert.Equal(t, "expired", FailureReason(err))
		})
	}
}

func TestToken_TamperedIsInvalidSignature(t *testing.T) {
	for name, svc := range newTokenServices(t, newTestClock()) {
		t.Run(name, func(t *testing.T) {
			token, err := svc.Issue(uuid.New())
			require.NoError(t, err)

			_, err = svc.Verify(tamperedTokens(token)[0])
			assert.ErrorIs(t, err, ErrInvalidSignature)
			assert.Equal(t, "invalid_signature", FailureReason(err))
		})
	}
}

func TestToken_EverySingleCharTamperIsRejected(t *testing.T) {
	for name, svc := range newTokenServices(t, newTestClock()) {
		t.Run(name, func(t *testing.T) {
			token, err := svc.Issue(uuid.New())
			require.NoError(t, err)

			variants := tamperedTokens(token)
			require.NotEmpty(t, variants)
			for _, bad := range variants {
				claims, err := svc.Verify(bad)
				require.Nilf(t, claims, "accepted %q", bad)
				require.Truef(t,
					errors.Is(err, ErrInvalidSignature) || errors.Is(err, ErrMalformedToken),
					"%q: unexpected error %v", bad, err)
			}
		})
	}
}

func TestToken_OtherSecretIsInvalidSignature(t *testing.T) {
	clock := newTestClock()
	services := newTokenServices(t, clock)

	otherJWT, err := NewJWTService([]byte("another-secret"), testTTL, WithClock(clock.Now))
	require.NoError(t, err)
	otherPaseto, err := NewPasetoService([]byte("another-secret"), testTTL, WithClock(clock.Now))
	require.NoError(t, err)
	others := map[string]TokenService{"jwt": otherJWT, "paseto": otherPaseto}

	for name, svc := range services {
		t.Run(name, func(t *testing.T) {
			token, err := others[name].Issue(uuid.New())
			require.NoError(t, err)

			_, err = svc.Verify(token)
			assert.ErrorIs(t, err, ErrInvalidSignature)
		})
	}
}

func TestToken_Malformed(t *testing.T) {
	inputs := []string{
		"",
		"garbage",
		"a.b",
		"not.a.token",
		"v4.local.",
		"v4.local.c2hvcnQ",
		"v4.local.!!!not-base64!!!",
	}

	for name, svc := range newTokenServices(t, newTestClock()) {
		for _, in := range inputs {
			t.Run(name+"/"+in, func(t *testing.T) {
				_, err := svc.Verify(in)
				assert.ErrorIs(t, err, ErrMalformedToken)
				assert.Equal(t, "malformed", FailureReason(err))
			})
		}
	}
}

func TestToken_CrossFormatIsMalformed(t *testing.T) {
	services := newTokenServices(t, newTestClock())

	jwtToken, err := services["jwt"].Issue(uuid.New())
	require.NoError(t, err)
	pasetoToken, err := services["paseto"].Issue(uuid.New())
	require.NoError(t, err)

	_, err = services["paseto"].Verify(jwtToken)
	assert.ErrorIs(t, err, ErrMalformedToken)

	_, err = services["jwt"].Verify(pasetoToken)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestJWT_RejectsNoneAlgorithm(t *testing.T) {
	clock := newTestClock()
	svc, err := NewJWTService(testSecret, testTTL, WithClock(clock.Now))
	require.NoError(t, err)

	claims := jwtClaims{
		UserID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = svc.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestJWT_ClaimProblemsAreMalformed(t *testing.T) {
	clock := newTestClock()
	svc, err := NewJWTService(testSecret, testTTL, WithClock(clock.Now))
	require.NoError(t, err)

	sign := func(c jwtClaims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(testSecret)
		require.NoError(t, err)
		return s
	}

	noExpiry := sign(jwtClaims{UserID: uuid.NewString()})
	_, err = svc.Verify(noExpiry)
	assert.ErrorIs(t, err, ErrMalformedToken)

	badID := sign(jwtClaims{
		UserID:           "not-a-uuid",
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(testNow.Add(time.Hour))},
	})
	_, err = svc.Verify(badID)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestNewTokenService_RequiresSecret(t *testing.T) {
	_, err := NewJWTService(nil, testTTL)
	assert.Error(t, err)

	_, err = NewPasetoService([]byte{}, testTTL)
	assert.Error(t, err)

	_, err = NewJWTService(testSecret, 0)
	assert.Error(t, err)
}

func TestNewTokenService_SelectsFormat(t *testing.T) {
	cfg := config.AuthConfig{Secret: testSecret, TokenLifetime: testTTL}

	cfg.TokenFormat = config.TokenFormatJWT
	svc, err := NewTokenService(cfg)
	require.NoError(t, err)
	assert.IsType(t, &JWTService{}, svc)

	cfg.TokenFormat = config.TokenFormatPaseto
	svc, err = NewTokenService(cfg)
	require.NoError(t, err)
	assert.IsType(t, &PasetoService{}, svc)

	token, err := svc.Issue(uuid.New())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, v4LocalHeader))

	cfg.TokenFormat = "saml"
	svc, err = NewTokenService(cfg)
	assert.Error(t, err)
	assert.Nil(t, svc)

	cfg.TokenFormat = config.TokenFormatPaseto
	cfg.Secret = nil
	svc, err = NewTokenService(cfg)
	assert.Error(t, err)
	assert.Nil(t, svc)
}

func TestFailureReason_Unknown(t *testing.T) {
	assert.Equal(t, "no_credential", FailureReason(ErrNoCredential))
	assert.Equal(t, "unknown", FailureReason(assert.AnError))
}
