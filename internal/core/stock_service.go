package core

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// StockService owns per-warehouse quantity state. Quantities never go below
// zero, and a transfer's decrement and increment are one all-or-nothing unit.
type StockService interface {
	// Receive increments a warehouse entry. qty must be > 0; no upper bound.
	Receive(ctx context.Context, warehouse, brand, model string, qty decimal.Decimal) error
	// Transfer atomically moves qty of one product between two warehouses.
	// On InsufficientStock no mutation occurs.
	Transfer(ctx context.Context, src, dst, brand, model string, qty decimal.Decimal) error
	// TransferAll moves every positive quantity at src to dst, one product at
	// a time. Each product's move is independently atomic; the returned count
	// says how many product lines landed before any failure.
	TransferAll(ctx context.Context, src, dst string) (int, error)
	// Snapshot lists (warehouse, product, qty) rows with qty > 0, ordered by
	// warehouse, brand, model. Pass nil to cover all warehouses.
	Snapshot(ctx context.Context, warehouse *string) ([]StockRow, error)
}

type stockService struct {
	pool       *pgxpool.Pool
	warehouses Warehouses
}

func NewStockService(pool *pgxpool.Pool, warehouses Warehouses) StockService {
	return &stockService{pool: pool, warehouses: warehouses}
}

func (s *stockService) Receive(ctx context.Context, warehouse, brand, model string, qty decimal.Decimal) error {
	if !s.warehouses.Valid(warehouse) {
		return invalidInputf("unknown warehouse %s", warehouse)
	}
	if !qty.IsPositive() {
		return invalidInputf("receive quantity must be > 0, got %s", qty)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storagef(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	prod, ok, err := findProductQ(ctx, tx, brand, model)
	if err != nil {
		return err
	}
	if !ok {
		return notFoundf("product %s %s not found", NormalizeKey(brand), NormalizeKey(model))
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO stock (warehouse, product_id, qty)
		VALUES ($1, $2, $3)
		ON CONFLICT (warehouse, product_id)
		DO UPDATE SET qty = stock.qty + EXCLUDED.qty, updated_at = NOW()
	`, warehouse, prod.ID, qty)
	if err != nil {
		return storagef(err, "failed to receive stock at %s", warehouse)
	}

	if err := tx.Commit(ctx); err != nil {
		return storagef(err, "failed to commit stock receipt")
	}
	return nil
}

func (s *stockService) Transfer(ctx context.Context, src, dst, brand, model string, qty decimal.Decimal) error {
	if err := s.checkTransferArgs(src, dst, qty); err != nil {
		return err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storagef(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	prod, ok, err := findProductQ(ctx, tx, brand, model)
	if err != nil {
		return err
	}
	if !ok {
		return notFoundf("product %s %s not found", NormalizeKey(brand), NormalizeKey(model))
	}

	if err := transferTx(ctx, tx, src, dst, prod, qty); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return storagef(err, "failed to commit transfer")
	}
	return nil
}

func (s *stockService) checkTransferArgs(src, dst string, qty decimal.Decimal) error {
	if !s.warehouses.Valid(src) {
		return invalidInputf("unknown source warehouse %s", src)
	}
	if !s.warehouses.Valid(dst) {
		return invalidInputf("unknown destination warehouse %s", dst)
	}
	if src == dst {
		return invalidInputf("source and destination are both %s", src)
	}
	if !qty.IsPositive() {
		return invalidInputf("transfer quantity must be > 0, got %s", qty)
	}
	return nil
}

// transferTx moves qty of prod from src to dst inside the caller's tx. Both
// stock rows are locked FOR UPDATE in warehouse-code order so concurrent
// transfers on the same pair cannot deadlock.
func transferTx(ctx context.Context, tx pgx.Tx, src, dst string, prod *Product, qty decimal.Decimal) error {
	first, second := src, dst
	if dst < src {
		first, second = dst, src
	}

	qtys := make(map[string]decimal.Decimal, 2)
	for _, wh := range []string{first, second} {
		q, err := lockStockRow(ctx, tx, wh, prod.ID)
		if err != nil {
			return err
		}
		qtys[wh] = q
	}

	if qtys[src].LessThan(qty) {
		return &InsufficientStockError{
			Warehouse: src,
			Brand:     prod.Brand,
			Model:     prod.Model,
			Available: qtys[src],
			Requested: qty,
		}
	}

	if _, err := tx.Exec(ctx,
		"UPDATE stock SET qty = qty - $1, updated_at = NOW() WHERE warehouse = $2 AND product_id = $3",
		qty, src, prod.ID,
	); err != nil {
		return storagef(err, "failed to decrement stock at %s", src)
	}
	if _, err := tx.Exec(ctx,
		"UPDATE stock SET qty = qty + $1, updated_at = NOW() WHERE warehouse = $2 AND product_id = $3",
		qty, dst, prod.ID,
	); err != nil {
		return storagef(err, "failed to increment stock at %s", dst)
	}
	return nil
}

// lockStockRow upserts the (warehouse, product) entry at qty 0 if missing,
// then locks it and returns the current quantity.
func lockStockRow(ctx context.Context, tx pgx.Tx, warehouse string, productID int) (decimal.Decimal, error) {
	if _, err := tx.Exec(ctx, `
		INSERT INTO stock (warehouse, product_id, qty)
		VALUES ($1, $2, 0)
		ON CONFLICT (warehouse, product_id) DO NOTHING
	`, warehouse, productID); err != nil {
		return decimal.Zero, storagef(err, "failed to upsert stock row at %s", warehouse)
	}

	var qty decimal.Decimal
	if err := tx.QueryRow(ctx,
		"SELECT qty FROM stock WHERE warehouse = $1 AND product_id = $2 FOR UPDATE",
		warehouse, productID,
	).Scan(&qty); err != nil {
		return decimal.Zero, storagef(err, "failed to lock stock row at %s", warehouse)
	}
	return qty, nil
}

func (s *stockService) TransferAll(ctx context.Context, src, dst string) (int, error) {
	if !s.warehouses.Valid(src) {
		return 0, invalidInputf("unknown source warehouse %s", src)
	}
	if !s.warehouses.Valid(dst) {
		return 0, invalidInputf("unknown destination warehouse %s", dst)
	}
	if src == dst {
		return 0, invalidInputf("source and destination are both %s", src)
	}

	// Snapshot the product list first; each product then moves in its own
	// transaction so a failure partway leaves earlier moves committed and is
	// reported with the count of completed lines.
	rows, err := s.pool.Query(ctx,
		"SELECT product_id FROM stock WHERE warehouse = $1 AND qty > 0 ORDER BY product_id",
		src,
	)
	if err != nil {
		return 0, storagef(err, "failed to list stock at %s", src)
	}
	var productIDs []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, storagef(err, "failed to scan stock row")
		}
		productIDs = append(productIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, storagef(err, "error iterating stock rows")
	}

	moved := 0
	for _, pid := range productIDs {
		if err := s.moveWholeLine(ctx, src, dst, pid); err != nil {
			return moved, err
		}
		moved++
	}
	return moved, nil
}

// moveWholeLine moves the full current quantity of one product from src to
// dst, zeroing the source row, in a single transaction.
func (s *stockService) moveWholeLine(ctx context.Context, src, dst string, productID int) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return storagef(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	var prod Product
	err = tx.QueryRow(ctx,
		"SELECT id, brand, model, name, wholesale_price, created_at, updated_at FROM products WHERE id = $1",
		productID,
	).Scan(&prod.ID, &prod.Brand, &prod.Model, &prod.Name, &prod.Wholesale, &prod.CreatedAt, &prod.UpdatedAt)
	if err != nil {
		return storagef(err, "failed to fetch product %d", productID)
	}

	// Re-read the quantity under lock; it may have changed since the listing.
	first, second := src, dst
	if dst < src {
		first, second = dst, src
	}
	qtys := make(map[string]decimal.Decimal, 2)
	for _, wh := range []string{first, second} {
		q, err := lockStockRow(ctx, tx, wh, productID)
		if err != nil {
			return err
		}
		qtys[wh] = q
	}
	if !qtys[src].IsPositive() {
		// Already drained by a concurrent move; nothing to do.
		return tx.Commit(ctx)
	}

	if err := transferTx(ctx, tx, src, dst, &prod, qtys[src]); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return storagef(err, "failed to commit transfer of product %d", productID)
	}
	return nil
}

func (s *stockService) Snapshot(ctx context.Context, warehouse *string) ([]StockRow, error) {
	if warehouse != nil && !s.warehouses.Valid(*warehouse) {
		return nil, invalidInputf("unknown warehouse %s", *warehouse)
	}

	query := `
		SELECT s.warehouse, p.brand, p.model, p.name, s.qty
		FROM stock s
		JOIN products p ON p.id = s.product_id
		WHERE s.qty > 0
	`
	args := []any{}
	if warehouse != nil {
		query += " AND s.warehouse = $1"
		args = append(args, *warehouse)
	}
	query += " ORDER BY s.warehouse, p.brand, p.model"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storagef(err, "failed to query stock")
	}
	defer rows.Close()

	var out []StockRow
	for rows.Next() {
		var r StockRow
		if err := rows.Scan(&r.Warehouse, &r.Brand, &r.Model, &r.Name, &r.Qty); err != nil {
			return nil, storagef(err, "failed to scan stock row")
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, storagef(err, "error iterating stock rows")
	}
	return out, nil
}
