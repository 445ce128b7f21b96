package domain

import "time"

// User roles. The check constraint on users.role mirrors these.
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

type User struct {
	ID                int64     `json:"id" db:"id"`
	Name              string    `json:"name" db:"name"`
	Email             string    `json:"email" db:"email"`
	PasswordHash      string    `json:"-" db:"hashed_password"`
	Role              string    `json:"role" db:"role"`
	ProfilePictureURL *string   `json:"profile_picture_url" db:"profile_picture_url"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`
}

// CreateUserRequest is the registration submission payload.
type CreateUserRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=student teacher"`
}

// PendingRegistration is the ephemeral payload parked in the cache between
// registration submission and email confirmation. Password is carried as
// submitted; it is hashed only at promotion time.
type PendingRegistration struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Password  string    `json:"password"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired reports whether the pending registration is past its deadline.
// Checked explicitly at confirmation time; the cache TTL is the backstop.
func (p PendingRegistration) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
