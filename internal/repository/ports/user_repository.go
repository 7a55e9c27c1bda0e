package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/bitshare/bitshare-api/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, name, email string, passwordHash, passwordSalt []byte, profilePic *string) (*domain.User, error)
	UpsertGoogleUser(ctx context.Context, email, name string, profilePic *string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash, passwordSalt []byte) error
	UpdateProfilePic(ctx context.Context, id uuid.UUID, key string) error
}
