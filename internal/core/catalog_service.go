package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CatalogService manages product identity and price policy. A product is the
// unique normalized (brand, model) pair; re-adding the same pair updates the
// name and wholesale price in place.
type CatalogService interface {
	AddOrUpdateProduct(ctx context.Context, brand, model, name string, wholesale decimal.Decimal) (*Product, error)
	// FindProduct reports presence with the second return value: a missing
	// product is an expected condition, not an error.
	FindProduct(ctx context.Context, brand, model string) (*Product, bool, error)
	ListProducts(ctx context.Context) ([]Product, error)
}

type catalogService struct {
	pool *pgxpool.Pool
}

func NewCatalogService(pool *pgxpool.Pool) CatalogService {
	return &catalogService{pool: pool}
}

func (s *catalogService) AddOrUpdateProduct(ctx context.Context, brand, model, name string, wholesale decimal.Decimal) (*Product, error) {
	brand = NormalizeKey(brand)
	model = NormalizeKey(model)
	if brand == "" || model == "" {
		return nil, invalidInputf("brand and model must be non-empty")
	}
	if !wholesale.IsPositive() {
		return nil, invalidInputf("wholesale price must be > 0, got %s", wholesale)
	}

	var p Product
	err := s.pool.QueryRow(ctx, `
		INSERT INTO products (brand, model, name, wholesale_price)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (brand, model) DO UPDATE
		SET name = EXCLUDED.name, wholesale_price = EXCLUDED.wholesale_price, updated_at = NOW()
		RETURNING id, brand, model, name, wholesale_price, created_at, updated_at
	`, brand, model, name, wholesale).Scan(
		&p.ID, &p.Brand, &p.Model, &p.Name, &p.Wholesale, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, storagef(err, "failed to upsert product %s %s", brand, model)
	}
	return &p, nil
}

func (s *catalogService) FindProduct(ctx context.Context, brand, model string) (*Product, bool, error) {
	return findProductQ(ctx, s.pool, brand, model)
}

// findProductQ resolves a product by normalized key against a pool or tx.
func findProductQ(ctx context.Context, q pgxQuerier, brand, model string) (*Product, bool, error) {
	brand = NormalizeKey(brand)
	model = NormalizeKey(model)

	var p Product
	err := q.QueryRow(ctx, `
		SELECT id, brand, model, name, wholesale_price, created_at, updated_at
		FROM products
		WHERE brand = $1 AND model = $2
	`, brand, model).Scan(&p.ID, &p.Brand, &p.Model, &p.Name, &p.Wholesale, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, storagef(err, "failed to fetch product %s %s", brand, model)
	}
	return &p, true, nil
}

func (s *catalogService) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, brand, model, name, wholesale_price, created_at, updated_at
		FROM products
		ORDER BY brand, model
	`)
	if err != nil {
		return nil, storagef(err, "failed to query products")
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Brand, &p.Model, &p.Name, &p.Wholesale, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, storagef(err, "failed to scan product")
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storagef(err, "error iterating products")
	}
	return products, nil
}
