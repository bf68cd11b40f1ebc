package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/redmonkez12/bookings-api/internal/apperror"
	"github.com/redmonkez12/bookings-api/internal/database"
)

var (
	ErrNotFound       = apperror.NotFound("user not found")
	ErrDuplicateEmail = apperror.Duplicate("email already registered")
	// ErrStore wraps unexpected database failures.
	ErrStore = apperror.External("server error", nil)
)

// Repository handles user data persistence
type Repository struct {
	db  *bun.DB
	now func() time.Time
}

func NewRepository(db *bun.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Create inserts a new user. A concurrent or earlier registration with the
// same email fails with ErrDuplicateEmail via the unique index.
func (r *Repository) Create(ctx context.Context, name, email, passwordHash string) (*User, error) {
	now := r.now().UTC()
	dbUser := &database.User{
		ID:           uuid.New(),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := r.db.NewInsert().
		Model(dbUser).
		Exec(ctx)

	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, ErrStore.WithCause(fmt.Errorf("failed to create user: %w", err))
	}

	return mapDBUserToModel(dbUser), nil
}

// GetByEmail retrieves a user by email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	return r.getOne(ctx, "email = ?", email)
}

// GetByID retrieves a user by ID
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return r.getOne(ctx, "id = ?", id)
}

// GetByResetToken retrieves the user holding the given hashed reset token.
// Expiry is checked by the caller.
func (r *Repository) GetByResetToken(ctx context.Context, tokenHash string) (*User, error) {
	return r.getOne(ctx, "reset_password_token = ?", tokenHash)
}

func (r *Repository) getOne(ctx context.Context, where string, arg any) (*User, error) {
	dbUser := new(database.User)
	err := r.db.NewSelect().
		Model(dbUser).
		Where(where, arg).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, ErrStore.WithCause(fmt.Errorf("failed to get user (%s): %w", where, err))
	}

	return mapDBUserToModel(dbUser), nil
}

// UpdateDetails sets name and email and returns the updated user.
func (r *Repository) UpdateDetails(ctx context.Context, id uuid.UUID, name, email string) (*User, error) {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("name = ?", name).
		Set("email = ?", email).
		Set("updated_at = ?", r.now().UTC()).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, ErrStore.WithCause(fmt.Errorf("failed to update user details: %w", err))
	}

	if err := checkAffected(result); err != nil {
		return nil, err
	}

	return r.GetByID(ctx, id)
}

// UpdatePassword updates a user's password hash and clears any reset token.
func (r *Repository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("password_hash = ?", passwordHash).
		Set("reset_password_token = NULL").
		Set("reset_password_expire = NULL").
		Set("updated_at = ?", r.now().UTC()).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return ErrStore.WithCause(fmt.Errorf("failed to update password: %w", err))
	}

	return checkAffected(result)
}

// SetResetToken stores a hashed reset token and its expiry.
func (r *Repository) SetResetToken(ctx context.Context, id uuid.UUID, tokenHash string, expiresAt time.Time) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("reset_password_token = ?", tokenHash).
		Set("reset_password_expire = ?", expiresAt.UTC()).
		Set("updated_at = ?", r.now().UTC()).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return ErrStore.WithCause(fmt.Errorf("failed to set reset token: %w", err))
	}

	return checkAffected(result)
}

// ClearResetToken removes any reset token from the user.
func (r *Repository) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.NewUpdate().
		Model((*database.User)(nil)).
		Set("reset_password_token = NULL").
		Set("reset_password_expire = NULL").
		Set("updated_at = ?", r.now().UTC()).
		Where("id = ?", id).
		Exec(ctx)

	if err != nil {
		return ErrStore.WithCause(fmt.Errorf("failed to clear reset token: %w", err))
	}

	return checkAffected(result)
}

func checkAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return ErrStore.WithCause(fmt.Errorf("failed to get rows affected: %w", err))
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// mapDBUserToModel converts database model to domain model
func mapDBUserToModel(dbu *database.User) *User {
	return &User{
		ID:                  dbu.ID,
		Name:                dbu.Name,
		Email:               dbu.Email,
		PasswordHash:        dbu.PasswordHash,
		ResetPasswordToken:  dbu.ResetPasswordToken,
		ResetPasswordExpire: dbu.ResetPasswordExpire,
		CreatedAt:           dbu.CreatedAt,
		UpdatedAt:           dbu.UpdatedAt,
	}
}
