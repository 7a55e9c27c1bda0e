package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/bitshare/bitshare-api/internal/domain"
)

type VerificationRepository struct {
	db *sqlx.DB
}

func NewVerificationRepo(db *sqlx.DB) *VerificationRepository {
	return &VerificationRepository{db: db}
}

// Replace runs the delete and insert in one transaction so two concurrent
// issues for the same email serialize on the unique email index and exactly
// one row survives.
func (r *VerificationRepository) Replace(ctx context.Context, email string, codeHash, codeSalt []byte, expiresAt time.Time) (*domain.Verification, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM verification WHERE email = $1`, email); err != nil {
		return nil, err
	}

	const query = `
        INSERT INTO verification (email, code_hash, code_salt, expires_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id, email, code_hash, code_salt, created_at, expires_at
    `
	row := tx.QueryRowxContext(ctx, query, email, codeHash, codeSalt, expiresAt)
	var verification domain.Verification
	if err := row.StructScan(&verification); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &verification, nil
}

func (r *VerificationRepository) FindActive(ctx context.Context, email string, now time.Time) (*domain.Verification, error) {
	const query = `
        SELECT id, email, code_hash, code_salt, created_at, expires_at
        FROM verification
        WHERE email = $1 AND expires_at >= $2
    `
	var verification domain.Verification
	if err := r.db.GetContext(ctx, &verification, query, email, now); err != nil {
		return nil, err
	}
	return &verification, nil
}

func (r *VerificationRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM verification WHERE id = $1`, id)
	return err
}
