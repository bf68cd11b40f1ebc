package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/redmonkez12/bookings-api/internal/apperror"
	"github.com/redmonkez12/bookings-api/internal/logging"
	"github.com/redmonkez12/bookings-api/internal/user"
)

const (
	maxNameLength     = 50
	maxEmailLength    = 254
	minPasswordLength = 6
	resetTokenBytes   = 32
)

var (
	ErrNameRequired       = apperror.Validation("please add a name")
	ErrNameTooLong        = apperror.Validation("name can not be more than 50 characters")
	ErrInvalidEmailFormat = apperror.Validation("please add a valid email")
	ErrPasswordTooShort   = apperror.Validation("password must be at least 6 characters")
	ErrMissingCredentials = apperror.Validation("please provide an email and password")
	ErrNothingToUpdate    = apperror.Validation("please provide a name or email to update")
	ErrInvalidResetToken  = apperror.Validation("invalid token")
	ErrInvalidCredentials = apperror.Authentication("invalid credentials")
	ErrIncorrectPassword  = apperror.Authentication("password is incorrect")
	ErrNoUserWithEmail    = apperror.NotFound("there is no user with that email")
	ErrEmailNotSent       = apperror.External("email could not be sent", nil)
)

// UserStore is the part of the credential store the service needs.
// *user.Repository implements it.
type UserStore interface {
	Create(ctx context.Context, name, email, passwordHash string) (*user.User, error)
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	GetByResetToken(ctx context.Context, tokenHash string) (*user.User, error)
	UpdateDetails(ctx context.Context, id uuid.UUID, name, email string) (*user.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error
	ClearResetToken(ctx context.Context, id uuid.UUID) error
}

// Mailer delivers password reset links.
type Mailer interface {
	SendPasswordResetEmail(ctx context.Context, toEmail, resetURL string) error
}

// Session is a freshly issued token and the user it belongs to.
type Session struct {
	Token string
	User  *user.User
}

// Service handles authentication business logic
type Service struct {
	users    UserStore
	tokens   TokenService
	hasher   *PasswordHasher
	mailer   Mailer
	logger   *logging.Logger
	resetTTL time.Duration
	now      func() time.Time
}

func NewService(
	users UserStore,
	tokens TokenService,
	hasher *PasswordHasher,
	mailer Mailer,
	logger *logging.Logger,
	resetTTL time.Duration,
) *Service {
	return &Service{
		users:    users,
		tokens:   tokens,
		hasher:   hasher,
		mailer:   mailer,
		logger:   logger,
		resetTTL: resetTTL,
		now:      time.Now,
	}
}

// Register creates a new account and signs it in.
func (s *Service) Register(ctx context.Context, name, email, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)

	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := s.users.Create(ctx, name, email, passwordHash)
	if err != nil {
		return nil, err
	}

	return s.newSession(newUser)
}

// Login checks credentials. Unknown email and wrong password fail the same way.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(existingUser.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return s.newSession(existingUser)
}

// CurrentUser returns the user a verified token belongs to.
func (s *Service) CurrentUser(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return s.users.GetByID(ctx, id)
}

// UpdateDetails changes name and/or email. Empty arguments keep the current
// value; at least one must be given.
func (s *Service) UpdateDetails(ctx context.Context, id uuid.UUID, name, email string) (*user.User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" && email == "" {
		return nil, ErrNothingToUpdate
	}

	current, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name == "" {
		name = current.Name
	}
	if email == "" {
		email = current.Email
	}

	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	return s.users.UpdateDetails(ctx, id, name, email)
}

// UpdatePassword replaces the password after checking the current one and
// returns a new session.
func (s *Service) UpdatePassword(ctx context.Context, id uuid.UUID, currentPassword, newPassword string) (*Session, error) {
	if err := validatePassword(newPassword); err != nil {
		return nil, err
	}

	existingUser, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !s.hasher.Verify(existingUser.PasswordHash, currentPassword) {
		return nil, ErrIncorrectPassword
	}

	if err := s.setPassword(ctx, existingUser, newPassword); err != nil {
		return nil, err
	}

	return s.newSession(existingUser)
}

// ForgotPassword stores a hashed single-use reset token and mails the raw
// token as resetURLBase/<token>. If the mail cannot be sent the token is
// withdrawn again.
func (s *Service) ForgotPassword(ctx context.Context, email, resetURLBase string) error {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return err
	}

	existingUser, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return ErrNoUserWithEmail
		}
		return err
	}

	rawToken, err := generateResetToken()
	if err != nil {
		return fmt.Errorf("failed to generate reset token: %w", err)
	}

	expiresAt := s.now().Add(s.resetTTL)
	if err := s.users.SetResetToken(ctx, existingUser.ID, hashResetToken(rawToken), expiresAt); err != nil {
		return err
	}

	resetURL := strings.TrimRight(resetURLBase, "/") + "/" + rawToken
	if err := s.mailer.SendPasswordResetEmail(ctx, existingUser.Email, resetURL); err != nil {
		if clearErr := s.users.ClearResetToken(ctx, existingUser.ID); clearErr != nil {
			s.logger.Error("failed to clear reset token after mail failure",
				"user_id", existingUser.ID.String(), "error", clearErr.Error())
		}
		return ErrEmailNotSent.WithCause(err)
	}

	return nil
}

// ResetPassword consumes a reset token and sets a new password.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) (*Session, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return nil, ErrInvalidResetToken
	}
	if err := validatePassword(newPassword); err != nil {
		return nil, err
	}

	existingUser, err := s.users.GetByResetToken(ctx, hashResetToken(rawToken))
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, ErrInvalidResetToken
		}
		return nil, err
	}

	if !existingUser.ResetTokenValid(s.now()) {
		return nil, ErrInvalidResetToken
	}

	if err := s.setPassword(ctx, existingUser, newPassword); err != nil {
		return nil, err
	}

	return s.newSession(existingUser)
}

func (s *Service) setPassword(ctx context.Context, u *user.User, password string) error {
	passwordHash, err := s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, u.ID, passwordHash); err != nil {
		return err
	}
	u.PasswordHash = passwordHash
	u.ResetPasswordToken = nil
	u.ResetPasswordExpire = nil
	return nil
}

func (s *Service) newSession(u *user.User) (*Session, error) {
	token, err := s.tokens.Issue(u.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &Session{Token: token, User: u}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateName(name string) error {
	if name == "" {
		return ErrNameRequired
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return ErrNameTooLong
	}
	return nil
}

func validateEmail(email string) error {
	if email == "" || len(email) > maxEmailLength {
		return ErrInvalidEmailFormat
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmailFormat
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// generateResetToken returns 32 random bytes, hex encoded for use in a URL path.
func generateResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// hashResetToken is what the store keeps; the raw token only travels by mail.
func hashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
