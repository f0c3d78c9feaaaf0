package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CartService manages the per-client staging area for a prospective sale.
// Cart state lives in the store keyed by client identity, so concurrent
// operator sessions cannot clobber each other's cart.
type CartService interface {
	// Start closes any open cart for the client and opens a new empty one.
	Start(ctx context.Context, clientName string) (*Cart, error)
	// AddItem appends a line, resolving and freezing the unit price now.
	// customPrice is required (and must be > 0) only for PriceCustom.
	AddItem(ctx context.Context, clientName, brand, model string, qty decimal.Decimal, mode PriceMode, customPrice *decimal.Decimal) (*Cart, error)
	// RemoveItem deletes every line matching (brand, model). Matching by
	// product rather than by single row is the contract: brand+model+mode is
	// not a unique key within a cart.
	RemoveItem(ctx context.Context, clientName, brand, model string) (*Cart, error)
	// Show returns the open cart's lines and running total. An empty cart is
	// a valid state, not an error.
	Show(ctx context.Context, clientName string) (*Cart, error)
}

type cartService struct {
	pool       *pgxpool.Pool
	decimals   int32
	autoCreate bool
}

// NewCartService builds a CartService. When autoCreate is set, starting a
// cart for an unknown client creates the client; otherwise it is NotFound.
func NewCartService(pool *pgxpool.Pool, decimals int32, autoCreate bool) CartService {
	return &cartService{pool: pool, decimals: decimals, autoCreate: autoCreate}
}

func (s *cartService) Start(ctx context.Context, clientName string) (*Cart, error) {
	clientName = NormalizeClientName(clientName)
	if clientName == "" {
		return nil, invalidInputf("client name must be non-empty")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, storagef(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	client, ok, err := findClientQ(ctx, tx, clientName)
	if err != nil {
		return nil, err
	}
	if !ok {
		if !s.autoCreate {
			return nil, notFoundf("client %s not found", clientName)
		}
		client, err = upsertClientQ(ctx, tx, clientName)
		if err != nil {
			return nil, err
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE carts SET status = 'CLOSED', closed_at = NOW()
		WHERE client_id = $1 AND status = 'OPEN'
	`, client.ID); err != nil {
		return nil, storagef(err, "failed to close prior cart for %s", client.Name)
	}

	var cart Cart
	err = tx.QueryRow(ctx, `
		INSERT INTO carts (client_id, status)
		VALUES ($1, 'OPEN')
		RETURNING id, client_id, status, created_at
	`, client.ID).Scan(&cart.ID, &cart.ClientID, &cart.Status, &cart.CreatedAt)
	if err != nil {
		return nil, storagef(err, "failed to open cart for %s", client.Name)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storagef(err, "failed to commit cart start")
	}

	cart.ClientName = client.Name
	cart.Total = decimal.Zero
	return &cart, nil
}

func (s *cartService) AddItem(ctx context.Context, clientName, brand, model string, qty decimal.Decimal, mode PriceMode, customPrice *decimal.Decimal) (*Cart, error) {
	if !qty.IsPositive() {
		return nil, invalidInputf("quantity must be > 0, got %s", qty)
	}
	switch mode {
	case PriceWholesale, PriceWholesale10:
		if customPrice != nil {
			return nil, invalidInputf("custom price is only valid with price mode %s", PriceCustom)
		}
	case PriceCustom:
		if customPrice == nil {
			return nil, invalidInputf("price mode %s requires a custom price", PriceCustom)
		}
		if !customPrice.IsPositive() {
			return nil, invalidInputf("custom price must be > 0, got %s", customPrice)
		}
	default:
		return nil, invalidInputf("unknown price mode %q", mode)
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

	prod, ok, err := findProductQ(ctx, tx, brand, model)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFoundf("product %s %s not found", NormalizeKey(brand), NormalizeKey(model))
	}

	// Price is resolved here and frozen: later wholesale-price changes do not
	// retroactively reprice the line.
	var unitPrice decimal.Decimal
	switch mode {
	case PriceWholesale:
		unitPrice = prod.Wholesale
	case PriceWholesale10:
		unitPrice = prod.WholesalePlus10(s.decimals)
	case PriceCustom:
		unitPrice = *customPrice
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO cart_items (cart_id, position, product_id, qty, price_mode, unit_price)
		SELECT $1, COALESCE(MAX(position), 0) + 1, $2, $3, $4, $5
		FROM cart_items WHERE cart_id = $1
	`, cartID, prod.ID, qty, string(mode), unitPrice); err != nil {
		return nil, storagef(err, "failed to add cart item")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storagef(err, "failed to commit cart item")
	}

	return s.Show(ctx, client.Name)
}

func (s *cartService) RemoveItem(ctx context.Context, clientName, brand, model string) (*Cart, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, storagef(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	client, cartID, err := lockOpenCart(ctx, tx, clientName)
	if err != nil {
		return nil, err
	}

	prod, ok, err := findProductQ(ctx, tx, brand, model)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFoundf("product %s %s not found", NormalizeKey(brand), NormalizeKey(model))
	}

	tag, err := tx.Exec(ctx,
		"DELETE FROM cart_items WHERE cart_id = $1 AND product_id = $2",
		cartID, prod.ID,
	)
	if err != nil {
		return nil, storagef(err, "failed to remove cart items")
	}
	if tag.RowsAffected() == 0 {
		return nil, notFoundf("cart for %s has no %s %s lines", client.Name, prod.Brand, prod.Model)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storagef(err, "failed to commit cart item removal")
	}

	return s.Show(ctx, client.Name)
}

func (s *cartService) Show(ctx context.Context, clientName string) (*Cart, error) {
	client, ok, err := findClientQ(ctx, s.pool, clientName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFoundf("client %s not found", NormalizeClientName(clientName))
	}

	var cart Cart
	err = s.pool.QueryRow(ctx, `
		SELECT id, client_id, status, created_at
		FROM carts
		WHERE client_id = $1 AND status = 'OPEN'
	`, client.ID).Scan(&cart.ID, &cart.ClientID, &cart.Status, &cart.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, notFoundf("no open cart for client %s", client.Name)
		}
		return nil, storagef(err, "failed to fetch open cart for %s", client.Name)
	}

	cart.ClientName = client.Name
	cart.Items, err = fetchCartItemsQ(ctx, s.pool, cart.ID)
	if err != nil {
		return nil, err
	}

	cart.Total = decimal.Zero
	for _, it := range cart.Items {
		cart.Total = cart.Total.Add(it.Qty.Mul(it.UnitPrice).Round(s.decimals))
	}
	return &cart, nil
}

// lockOpenCart resolves the client and locks their open cart row FOR UPDATE,
// serializing concurrent mutations of the same cart.
func lockOpenCart(ctx context.Context, tx pgx.Tx, clientName string) (*Client, int, error) {
	client, ok, err := findClientQ(ctx, tx, clientName)
	if err != nil {
		return nil, 0, err
	}
	if !ok {
		return nil, 0, notFoundf("client %s not found", NormalizeClientName(clientName))
	}

	var cartID int
	err = tx.QueryRow(ctx,
		"SELECT id FROM carts WHERE client_id = $1 AND status = 'OPEN' FOR UPDATE",
		client.ID,
	).Scan(&cartID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, notFoundf("no open cart for client %s", client.Name)
		}
		return nil, 0, storagef(err, "failed to lock open cart for %s", client.Name)
	}
	return client, cartID, nil
}

func fetchCartItemsQ(ctx context.Context, q pgxRowQuerier, cartID int) ([]CartItem, error) {
	rows, err := q.Query(ctx, `
		SELECT ci.id, ci.position, p.id, p.brand, p.model, p.name,
		       ci.qty, ci.price_mode, ci.unit_price
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.position
	`, cartID)
	if err != nil {
		return nil, storagef(err, "failed to query cart items")
	}
	defer rows.Close()

	var items []CartItem
	for rows.Next() {
		var it CartItem
		if err := rows.Scan(&it.ID, &it.Position, &it.ProductID, &it.Brand, &it.Model, &it.Name,
			&it.Qty, &it.PriceMode, &it.UnitPrice); err != nil {
			return nil, storagef(err, "failed to scan cart item")
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, storagef(err, "error iterating cart items")
	}
	return items, nil
}
