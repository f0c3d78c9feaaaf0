package core_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"

	"stock-ledger/internal/core"
)

// orderFixture wires the services a commit test needs against a fresh DB.
type orderFixture struct {
	pool   *pgxpool.Pool
	carts  core.CartService
	orders core.OrderService
	stock  core.StockService
	ledger core.LedgerService
}

func setupOrderTest(t *testing.T) *orderFixture {
	t.Helper()
	pool := setupTestDB(t)
	return &orderFixture{
		pool:   pool,
		carts:  core.NewCartService(pool, testDecimals, false),
		orders: core.NewOrderService(pool, testWarehouses, "USD", testDecimals),
		stock:  core.NewStockService(pool, testWarehouses),
		ledger: core.NewLedgerService(pool, testDecimals),
	}
}

func TestOrder_CommitHappyPath(t *testing.T) {
	f := setupOrderTest(t)
	ctx := context.Background()

	seedClient(t, f.pool, "Ali")
	a := seedProduct(t, f.pool, "alpha", "a1", "2.00")
	b := seedProduct(t, f.pool, "beta", "b1", "9.99")

	if err := f.stock.Receive(ctx, "SHOP", "alpha", "a1", mustDecimal(t, "10")); err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if err := f.stock.Receive(ctx, "SHOP", "beta", "b1", mustDecimal(t, "10")); err != nil {
		t.Fatalf("Receive failed: %v", err)
	}

	if _, err := f.carts.Start(ctx, "Ali"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	// 5 x 2.00 wholesale = 10.00, plus 3 x 15.00 custom = 45.00.
	if _, err := f.carts.AddItem(ctx, "Ali", "alpha", "a1", mustDecimal(t, "5"), core.PriceWholesale, nil); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if _, err := f.carts.AddItem(ctx, "Ali", "beta", "b1", mustDecimal(t, "3"), core.PriceCustom, decimalPtr(mustDecimal(t, "15.00"))); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	inv, err := f.orders.Commit(ctx, "Ali", "SHOP")
	if err != nil {
		t.Fatalf("Commit failed: %v", err)
	}

	if inv.Number != 1 {
		t.Errorf("Expected first invoice number 1, got %d", inv.Number)
	}
	if !inv.Total.Equal(mustDecimal(t, "55.00")) {
		t.Errorf("Expected total 55.00, got %s", inv.Total)
	}
	if inv.Currency != "USD" || inv.Warehouse != "SHOP" || inv.ClientName != "Ali" {
		t.Errorf("Unexpected invoice header: %+v", inv)
	}
	if len(inv.Items) != 2 {
		t.Fatalf("Expected 2 invoice items, got %d", len(inv.Items))
	}
	if !inv.Items[0].LineTotal.Equal(mustDecimal(t, "10.00")) || !inv.Items[1].LineTotal.Equal(mustDecimal(t, "45.00")) {
		t.Errorf("Unexpected line totals: %s, %s", inv.Items[0].LineTotal, inv.Items[1].LineTotal)
	}

	// Stock deducted from the sale warehouse.
	if got := stockQty(t, f.pool, "SHOP", a.ID); !got.Equal(mustDecimal(t, "5")) {
		t.Errorf("Expected SHOP alpha qty 5 after commit, got %s", got)
	}
	if got := stockQty(t, f.pool, "SHOP", b.ID); !got.Equal(mustDecimal(t, "7")) {
		t.Errorf("Expected SHOP beta qty 7 after commit, got %s", got)
	}

	// Debt grew by the invoice total.
	debt, err := f.ledger.Debt(ctx, "Ali")
	if err != nil {
		t.Fatalf("Debt failed: %v", err)
	}
	if !debt.Equal(mustDecimal(t, "55.00")) {
		t.Errorf("Expected debt 55.00 after commit, got %s", debt)
	}

	// The cart is closed; a new sale needs a new cart.
	if _, err := f.carts.Show(ctx, "Ali"); !core.IsNotFound(err) {
		t.Errorf("Expected no open cart after commit, got %v", err)
	}

	// The invoice is readable back, with items.
	got, err := f.orders.GetInvoice(ctx, inv.Number)
	if err != nil {
		t.Fatalf("GetInvoice failed: %v", err)
	}
	if !got.Total.Equal(inv.Total) || len(got.Items) != 2 {
		t.Errorf("GetInvoice mismatch: %+v", got)
	}
}

func TestOrder_CommitShortStockAbortsEverything(t *testing.T) {
	f := setupOrderTest(t)
	ctx := context.Background()

	seedClient(t, f.pool, "Ali")
	a := seedProduct(t, f.pool, "alpha", "a1", "2.00")
	b := seedProduct(t, f.pool, "beta", "b1", "9.99")

	if err := f.stock.Receive(ctx, "SHOP", "alpha", "a1", mustDecimal(t, "10")); err != nil {
		t.Fatalf("Receive failed: %v", err)
	}
	if err := f.stock.Receive(ctx, "SHOP", "beta", "b1", mustDecimal(t, "2")); err != nil {
		t.Fatalf("Receive failed: %v", err)
	}

	if _, err := f.carts.Start(ctx, "Ali"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := f.carts.AddItem(ctx, "Ali", "alpha", "a1", mustDecimal(t, "5"), core.PriceWholesale, nil); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if _, err := f.carts.AddItem(ctx, "Ali", "beta", "b1", mustDecimal(t, "3"), core.PriceWholesale, nil); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	_, err := f.orders.Commit(ctx, "Ali", "SHOP")
	var short *core.InsufficientStockError
	if !errors.As(err, &short) {
		t.Fatalf("Expected InsufficientStockError, got %v", err)
	}
	if short.Brand != "beta" || !short.Available.Equal(mustDecimal(t, "2")) || !short.Requested.Equal(mustDecimal(t, "3")) {
		t.Errorf("Unexpected shortage detail: %+v", short)
	}

	// Nothing moved: not even the line that had enough stock.
	if got := stockQty(t, f.pool, "SHOP", a.ID); !got.Equal(mustDecimal(t, "10")) {
		t.Errorf("Aborted commit deducted alpha: got %s, want 10", got)
	}
	if got := stockQty(t, f.pool, "SHOP", b.ID); !got.Equal(mustDecimal(t, "2")) {
		t.Errorf("Aborted commit deducted beta: got %s, want 2", got)
	}

	// No invoice, no debt, cart still open with both lines.
	if _, err := f.orders.GetInvoice(ctx, 1); !core.IsNotFound(err) {
		t.Errorf("Expected no invoice after aborted commit, got %v", err)
	}
	debt, err := f.ledger.Debt(ctx, "Ali")
	if err != nil {
		t.Fatalf("Debt failed: %v", err)
	}
	if !debt.IsZero() {
		t.Errorf("Expected zero debt after aborted commit, got %s", debt)
	}
	cart, err := f.carts.Show(ctx, "Ali")
	if err != nil {
		t.Fatalf("Show failed: %v", err)
	}
	if len(cart.Items) != 2 {
		t.Errorf("Expected cart untouched with 2 lines, got %d", len(cart.Items))
	}
}

func TestOrder_CommitValidation(t *testing.T) {
	f := setupOrderTest(t)
	ctx := context.Background()

	seedClient(t, f.pool, "Ali")

	if _, err := f.orders.Commit(ctx, "Ali", "ATTIC"); !core.IsInvalidInput(err) {
		t.Errorf("Expected InvalidInput for unknown warehouse, got %v", err)
	}
	if _, err := f.orders.Commit(ctx, "Ali", "SHOP"); !core.IsNotFound(err) {
		t.Errorf("Expected NotFound without an open cart, got %v", err)
	}

	if _, err := f.carts.Start(ctx, "Ali"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if _, err := f.orders.Commit(ctx, "Ali", "SHOP"); !core.IsInvalidInput(err) {
		t.Errorf("Expected InvalidInput for empty cart, got %v", err)
	}
}

func TestOrder_InvoiceNumbersAreSequential(t *testing.T) {
	f := setupOrderTest(t)
	ctx := context.Background()

	seedClient(t, f.pool, "Ali")
	seedProduct(t, f.pool, "alpha", "a1", "2.00")
	if err := f.stock.Receive(ctx, "SHOP", "alpha", "a1", mustDecimal(t, "100")); err != nil {
		t.Fatalf("Receive failed: %v", err)
	}

	for want := int64(1); want <= 3; want++ {
		if _, err := f.carts.Start(ctx, "Ali"); err != nil {
			t.Fatalf("Start failed: %v", err)
		}
		if _, err := f.carts.AddItem(ctx, "Ali", "alpha", "a1", mustDecimal(t, "1"), core.PriceWholesale, nil); err != nil {
			t.Fatalf("AddItem failed: %v", err)
		}
		inv, err := f.orders.Commit(ctx, "Ali", "SHOP")
		if err != nil {
			t.Fatalf("Commit %d failed: %v", want, err)
		}
		if inv.Number != want {
			t.Errorf("Expected invoice number %d, got %d", want, inv.Number)
		}
	}
}

func TestOrder_CommitAggregatesDuplicateProductLines(t *testing.T) {
	f := setupOrderTest(t)
	ctx := context.Background()

	seedClient(t, f.pool, "Ali")
	a := seedProduct(t, f.pool, "alpha", "a1", "2.00")
	if err := f.stock.Receive(ctx, "SHOP", "alpha", "a1", mustDecimal(t, "5")); err != nil {
		t.Fatalf("Receive failed: %v", err)
	}

	if _, err := f.carts.Start(ctx, "Ali"); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	// Two lines on the same product that only exceed stock combined.
	if _, err := f.carts.AddItem(ctx, "Ali", "alpha", "a1", mustDecimal(t, "3"), core.PriceWholesale, nil); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}
	if _, err := f.carts.AddItem(ctx, "Ali", "alpha", "a1", mustDecimal(t, "3"), core.PriceCustom, decimalPtr(mustDecimal(t, "4.00"))); err != nil {
		t.Fatalf("AddItem failed: %v", err)
	}

	_, err := f.orders.Commit(ctx, "Ali", "SHOP")
	var short *core.InsufficientStockError
	if !errors.As(err, &short) {
		t.Fatalf("Expected InsufficientStockError for aggregated demand, got %v", err)
	}
	if !short.Requested.Equal(mustDecimal(t, "6")) {
		t.Errorf("Expected aggregated requested 6, got %s", short.Requested)
	}
	if got := stockQty(t, f.pool, "SHOP", a.ID); !got.Equal(mustDecimal(t, "5")) {
		t.Errorf("Aborted commit mutated stock: got %s, want 5", got)
	}
}
