package user

import (
	"time"

	"github.com/google/uuid"
)

// User is an account holder. PasswordHash and the reset fields never leave
// the server.
type User struct {
	ID                  uuid.UUID  `json:"id"`
	Name                string     `json:"name"`
	Email               string     `json:"email"`
	PasswordHash        string     `json:"-"` // Never expose password hash in JSON
	ResetPasswordToken  *string    `json:"-"`
	ResetPasswordExpire *time.Time `json:"-"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}

// ResetTokenValid reports whether the user holds an unexpired reset token.
func (u *User) ResetTokenValid(now time.Time) bool {
	return u.ResetPasswordToken != nil && u.ResetPasswordExpire != nil && now.Before(*u.ResetPasswordExpire)
}
