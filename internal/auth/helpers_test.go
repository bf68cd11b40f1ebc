package auth

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/redmonkez12/bookings-api/internal/database"
	"github.com/redmonkez12/bookings-api/internal/logging"
	"github.com/redmonkez12/bookings-api/internal/user"
)

var (
	testSecret = []byte("test-secret-for-session-tokens")
	testNow    = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	fastArgon2 = Argon2Params{Time: 1, Memory: 1024, Threads: 1, KeyLen: 32, SaltLen: 16}
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock { return &testClock{t: testNow} }

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeMailer struct {
	mu   sync.Mutex
	err  error
	to   []string
	urls []string
}

func (m *fakeMailer) SendPasswordResetEmail(_ context.Context, toEmail, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.to = append(m.to, toEmail)
	m.urls = append(m.urls, resetURL)
	return nil
}

func (m *fakeMailer) lastURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.urls) == 0 {
		return ""
	}
	return m.urls[len(m.urls)-1]
}

type serviceFixture struct {
	svc    *Service
	repo   *user.Repository
	tokens *JWTService
	mailer *fakeMailer
	clock  *testClock
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	ctx := context.Background()

	db, err := database.OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	_, err = database.Migrate(ctx, db)
	require.NoError(t, err)

	clock := newTestClock()
	tokens, err := NewJWTService(testSecret, time.Hour, WithClock(clock.Now))
	require.NoError(t, err)

	repo := user.NewRepository(db)
	mailer := &fakeMailer{}
	svc := NewService(repo, tokens, NewPasswordHasher(fastArgon2), mailer, logging.Discard(), 10*time.Minute)
	svc.now = clock.Now

	return &serviceFixture{svc: svc, repo: repo, tokens: tokens, mailer: mailer, clock: clock}
}
