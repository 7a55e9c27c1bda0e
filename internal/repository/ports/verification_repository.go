package ports

import (
	"context"
	"time"

	"github.com/bitshare/bitshare-api/internal/domain"
)

type VerificationRepository interface {
	// Replace discards any existing verification for the email and stores a
	// new one, so at most one row per email ever survives.
	Replace(ctx context.Context, email string, codeHash, codeSalt []byte, expiresAt time.Time) (*domain.Verification, error)
	FindActive(ctx context.Context, email string, now time.Time) (*domain.Verification, error)
	Delete(ctx context.Context, id int64) error
}
