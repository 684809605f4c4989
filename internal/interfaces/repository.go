package interfaces

import (
	"context"

	"presto-bot/internal/domain"
)

// UserRepository is the user directory: one row per stable chat identity.
type UserRepository interface {
	Upsert(ctx context.Context, user domain.User) error
	Find(ctx context.Context, identityKey int64) (*domain.User, error)
}

// CatalogRepository backs the legacy inline-browsing path; read-only.
type CatalogRepository interface {
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListProducts(ctx context.Context, categoryID int) ([]domain.Product, error)
	FindProduct(ctx context.Context, productID int) (*domain.Product, error)
}
