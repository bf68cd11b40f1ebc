package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/bookings-api/internal/auth"
	"github.com/redmonkez12/bookings-api/internal/cors"
)

func TestCheckOrigin(t *testing.T) {
	list := cors.ParseAllowList("CORS_ORIGIN=https://bookings.example")

	var out bytes.Buffer
	assert.NoError(t, checkOrigin(&out, list, "https://bookings.example"))
	assert.Contains(t, out.String(), "exact match")

	out.Reset()
	assert.ErrorIs(t, checkOrigin(&out, list, "https://evil.example"), errOriginDenied)
	assert.Contains(t, out.String(), "denied")

	out.Reset()
	assert.NoError(t, checkOrigin(&out, list, ""))
	assert.Contains(t, out.String(), "no Origin")

	out.Reset()
	assert.NoError(t, checkOrigin(&out, cors.ParseAllowList("*"), "https://any.example"))
	assert.Contains(t, out.String(), "echoes https://any.example")
}

func TestVerifyToken(t *testing.T) {
	svc, err := auth.NewJWTService([]byte("cli-secret"), time.Hour)
	require.NoError(t, err)
	userID := uuid.New()
	token, err := svc.Issue(userID)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, verifyToken(&out, svc, token))
	assert.Contains(t, out.String(), userID.String())

	out.Reset()
	err = verifyToken(&out, svc, "garbage")
	assert.ErrorIs(t, err, auth.ErrMalformedToken)
	assert.Contains(t, out.String(), "malformed")
}

func TestTokenIssueCommandRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"token", "issue", uuid.NewString()})

	assert.Error(t, cmd.Execute())
}

func TestTokenIssueCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("TOKEN_FORMAT", "paseto")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"token", "issue", uuid.NewString()})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "v4.local.")
}

func TestPingHealth_WakesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := pingHealth(context.Background(), &out, srv.Client(), srv.URL+"/", 5, time.Millisecond)

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.Contains(t, out.String(), "is up")
}

func TestPingHealth_GivesUp(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	var out bytes.Buffer
	err := pingHealth(context.Background(), &out, srv.Client(), srv.URL, 2, time.Millisecond)

	assert.ErrorContains(t, err, "after 2 attempts")
}
