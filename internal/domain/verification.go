package domain

import "time"

// Verification is the outstanding one-time code for an email address. The
// code itself is never stored, only its salted hash. At most one row exists
// per email; issuing a new code replaces the previous row.
type Verification struct {
	ID        int64     `db:"id" json:"id"`
	Email     string    `db:"email" json:"email"`
	CodeHash  []byte    `db:"code_hash" json:"-"`
	CodeSalt  []byte    `db:"code_salt" json:"-"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	ExpiresAt time.Time `db:"expires_at" json:"expiresAt"`
}
