package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash []byte    `db:"password_hash" json:"-"`
	PasswordSalt []byte    `db:"password_salt" json:"-"`
	ProfilePic   *string   `db:"profile_pic" json:"profilePic,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// Sanitized returns a copy safe to embed in API responses.
func (u *User) Sanitized() User {
	clone := *u
	clone.PasswordHash = nil
	clone.PasswordSalt = nil
	return clone
}
