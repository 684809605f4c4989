package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"presto-bot/internal/domain"
	"presto-bot/internal/interfaces"
)

type catalogRepository struct {
	db DB
}

func NewCatalogRepository(db DB) interfaces.CatalogRepository {
	return &catalogRepository{db: db}
}

func (r *catalogRepository) ListCategories(ctx context.Context) ([]domain.Category, error) {
	query := `SELECT id, name FROM categories ORDER BY id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *catalogRepository) ListProducts(ctx context.Context, categoryID int) ([]domain.Product, error) {
	query := `
		SELECT id, category_id, name, price
		FROM products
		WHERE category_id = $1
		ORDER BY id
	`

	rows, err := r.db.Query(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.CategoryID, &p.Name, &p.Price); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *catalogRepository) FindProduct(ctx context.Context, productID int) (*domain.Product, error) {
	query := `
		SELECT id, category_id, name, price
		FROM products
		WHERE id = $1
	`

	var p domain.Product
	err := r.db.QueryRow(ctx, query, productID).Scan(&p.ID, &p.CategoryID, &p.Name, &p.Price)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find product: %w", err)
	}
	return &p, nil
}
