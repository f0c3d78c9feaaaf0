package core

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// OrderService converts an open cart into an immutable invoice while
// deducting stock, as one failure-atomic step. It is the only writer of
// invoices, invoice items, and invoice-type ledger entries.
type OrderService interface {
	// Commit runs the whole protocol in a single transaction: availability is
	// validated under the same row locks as the deduction, the next invoice
	// number is drawn from a transactionally incremented counter, the invoice
	// and its ledger entry are written, and the cart is closed. Any failure
	// leaves stock, invoices, and the ledger exactly as they were.
	Commit(ctx context.Context, clientName, warehouse string) (*Invoice, error)
	GetInvoice(ctx context.Context, number int64) (*Invoice, error)
}

type orderService struct {
	pool       *pgxpool.Pool
	warehouses Warehouses
	currency   string
	decimals   int32
}

func NewOrderService(pool *pgxpool.Pool, warehouses Warehouses, currency string, decimals int32) OrderService {
	return &orderService{pool: pool, warehouses: warehouses, currency: currency, decimals: decimals}
}

func (s *orderService) Commit(ctx context.Context, clientName, warehouse string) (*Invoice, error) {
	if !s.warehouses.Valid(warehouse) {
		return nil, invalidInputf("unknown warehouse %s", warehouse)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, storagef(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	client, cartID, err := lockOpenCart(ctx, tx, clientName)
	if err != nil {
		return nil, err
	}

	items, err := fetchCartItemsQ(ctx, tx, cartID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, invalidInputf("cart for %s is empty", client.Name)
	}

	// Aggregate required quantities per product and lock stock rows in
	// product-id order, so concurrent commits against the same warehouse
	// cannot deadlock. Validation happens under the same locks as the
	// deduction: an earlier unlocked read would leave a race window.
	required := make(map[int]decimal.Decimal)
	byProduct := make(map[int]CartItem)
	for _, it := range items {
		required[it.ProductID] = required[it.ProductID].Add(it.Qty)
		byProduct[it.ProductID] = it
	}
	productIDs := make([]int, 0, len(required))
	for pid := range required {
		productIDs = append(productIDs, pid)
	}
	sort.Ints(productIDs)

	for _, pid := range productIDs {
		available, err := lockStockRow(ctx, tx, warehouse, pid)
		if err != nil {
			return nil, err
		}
		if available.LessThan(required[pid]) {
			it := byProduct[pid]
			return nil, &InsufficientStockError{
				Warehouse: warehouse,
				Brand:     it.Brand,
				Model:     it.Model,
				Available: available,
				Requested: required[pid],
			}
		}
	}

	for _, pid := range productIDs {
		if _, err := tx.Exec(ctx,
			"UPDATE stock SET qty = qty - $1, updated_at = NOW() WHERE warehouse = $2 AND product_id = $3",
			required[pid], warehouse, pid,
		); err != nil {
			return nil, storagef(err, "failed to deduct stock at %s", warehouse)
		}
	}

	// Serialized numbering: the row lock on the counter makes concurrent
	// commits draw distinct, strictly increasing numbers.
	var number int64
	if err := tx.QueryRow(ctx,
		"UPDATE invoice_sequences SET last_number = last_number + 1 WHERE id = 1 RETURNING last_number",
	).Scan(&number); err != nil {
		return nil, storagef(err, "failed to assign invoice number")
	}

	total := decimal.Zero
	lineTotals := make([]decimal.Decimal, len(items))
	for i, it := range items {
		lineTotals[i] = it.Qty.Mul(it.UnitPrice).Round(s.decimals)
		total = total.Add(lineTotals[i])
	}
	total = total.Round(s.decimals)

	inv := &Invoice{
		Number:     number,
		ClientID:   client.ID,
		ClientName: client.Name,
		Warehouse:  warehouse,
		Currency:   s.currency,
		Total:      total,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO invoices (number, client_id, warehouse, currency, total)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`, number, client.ID, warehouse, s.currency, total).Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		return nil, storagef(err, "failed to insert invoice %d", number)
	}

	for i, it := range items {
		item := InvoiceItem{
			InvoiceID: inv.ID,
			ProductID: it.ProductID,
			Brand:     it.Brand,
			Model:     it.Model,
			Name:      it.Name,
			Qty:       it.Qty,
			UnitPrice: it.UnitPrice,
			LineTotal: lineTotals[i],
		}
		err = tx.QueryRow(ctx, `
			INSERT INTO invoice_items (invoice_id, product_id, brand, model, name, qty, unit_price, line_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id
		`, item.InvoiceID, item.ProductID, item.Brand, item.Model, item.Name, item.Qty, item.UnitPrice, item.LineTotal).Scan(&item.ID)
		if err != nil {
			return nil, storagef(err, "failed to insert invoice item for %s %s", it.Brand, it.Model)
		}
		inv.Items = append(inv.Items, item)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO ledger (client_id, entry_type, amount, invoice_id, note)
		VALUES ($1, 'invoice', $2, $3, $4)
	`, client.ID, total, inv.ID, fmt.Sprintf("invoice#%d", number)); err != nil {
		return nil, storagef(err, "failed to append invoice ledger entry")
	}

	if _, err := tx.Exec(ctx, `
		UPDATE carts SET status = 'CLOSED', closed_at = NOW() WHERE id = $1
	`, cartID); err != nil {
		return nil, storagef(err, "failed to close cart %d", cartID)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storagef(err, "failed to commit invoice %d", number)
	}
	return inv, nil
}

func (s *orderService) GetInvoice(ctx context.Context, number int64) (*Invoice, error) {
	var inv Invoice
	err := s.pool.QueryRow(ctx, `
		SELECT i.id, i.number, i.client_id, c.name, i.warehouse, i.currency, i.total, i.created_at
		FROM invoices i
		JOIN clients c ON c.id = i.client_id
		WHERE i.number = $1
	`, number).Scan(&inv.ID, &inv.Number, &inv.ClientID, &inv.ClientName,
		&inv.Warehouse, &inv.Currency, &inv.Total, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("invoice %d not found", number)
		}
		return nil, storagef(err, "failed to fetch invoice %d", number)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, invoice_id, product_id, brand, model, name, qty, unit_price, line_total
		FROM invoice_items
		WHERE invoice_id = $1
		ORDER BY id
	`, inv.ID)
	if err != nil {
		return nil, storagef(err, "failed to query invoice items")
	}
	defer rows.Close()

	for rows.Next() {
		var it InvoiceItem
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.ProductID, &it.Brand, &it.Model, &it.Name,
			&it.Qty, &it.UnitPrice, &it.LineTotal); err != nil {
			return nil, storagef(err, "failed to scan invoice item")
		}
		inv.Items = append(inv.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, storagef(err, "error iterating invoice items")
	}
	return &inv, nil
}
