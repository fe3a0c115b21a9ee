package store

import (
	"context"

	"github.com/google/uuid"

	"carebook/internal/domain"
)

// DirectoryRepository holds the provider and requester records referenced
// by appointments.
type DirectoryRepository interface {
	CreateProvider(ctx context.Context, p domain.Provider) (domain.Provider, error)
	GetProvider(ctx context.Context, id uuid.UUID) (domain.Provider, error)
	FindProviderByEmail(ctx context.Context, email string) (domain.Provider, error)
	ListProviders(ctx context.Context) ([]domain.Provider, error)
	DeleteProvider(ctx context.Context, id uuid.UUID) error

	CreateRequester(ctx context.Context, r domain.Requester) (domain.Requester, error)
	GetRequester(ctx context.Context, id uuid.UUID) (domain.Requester, error)
}
