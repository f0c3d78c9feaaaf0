package core_test

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"

	"stock-ledger/internal/core"
)

// testWarehouses is the closed warehouse set used across integration tests.
var testWarehouses = core.Warehouses{"DEPOT", "TRANSIT", "SHOP"}

const testDecimals = int32(2)

// setupTestDB connects to the dedicated test database and truncates all
// tables. Provision the schema once with `go run ./cmd/apply-schema` against
// TEST_DATABASE_URL before running these tests.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	_ = godotenv.Load("../../.env")

	// Use a dedicated TEST database to avoid wiping the live app database.
	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set — skipping integration test to protect live database")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `
		TRUNCATE TABLE ledger, invoice_items, invoices, cart_items, carts, stock, clients, products CASCADE;
		UPDATE invoice_sequences SET last_number = 0 WHERE id = 1;
		INSERT INTO invoice_sequences (id, last_number) VALUES (1, 0) ON CONFLICT (id) DO NOTHING;
	`)
	if err != nil {
		t.Fatalf("Failed to reset test database: %v", err)
	}

	return pool
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal literal %q: %v", s, err)
	}
	return d
}

func TestCatalog_UpsertUpdatesInPlace(t *testing.T) {
	pool := setupTestDB(t)
	catalog := core.NewCatalogService(pool)
	ctx := context.Background()

	p1, err := catalog.AddOrUpdateProduct(ctx, "Sonifer", "SF-8040", "Blender", mustDecimal(t, "10.00"))
	if err != nil {
		t.Fatalf("AddOrUpdateProduct failed: %v", err)
	}
	if p1.Brand != "sonifer" || p1.Model != "sf-8040" {
		t.Errorf("Expected normalized key sonifer/sf-8040, got %s/%s", p1.Brand, p1.Model)
	}

	// Re-adding the same pair (different case) must update, not duplicate.
	p2, err := catalog.AddOrUpdateProduct(ctx, "SONIFER", "sf-8040", "Blender v2", mustDecimal(t, "12.00"))
	if err != nil {
		t.Fatalf("Second AddOrUpdateProduct failed: %v", err)
	}
	if p2.ID != p1.ID {
		t.Errorf("Expected same product ID on upsert, got %d then %d", p1.ID, p2.ID)
	}
	if p2.Name != "Blender v2" || !p2.Wholesale.Equal(mustDecimal(t, "12.00")) {
		t.Errorf("Expected updated name/price, got %s / %s", p2.Name, p2.Wholesale)
	}

	products, err := catalog.ListProducts(ctx)
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	if len(products) != 1 {
		t.Fatalf("Expected exactly one product after upsert, got %d", len(products))
	}
}

func TestCatalog_FindMissingIsNotAnError(t *testing.T) {
	pool := setupTestDB(t)
	catalog := core.NewCatalogService(pool)
	ctx := context.Background()

	p, ok, err := catalog.FindProduct(ctx, "nope", "missing")
	if err != nil {
		t.Fatalf("FindProduct returned error for missing product: %v", err)
	}
	if ok || p != nil {
		t.Error("Expected not-found result for missing product")
	}
}

func TestCatalog_InvalidInput(t *testing.T) {
	pool := setupTestDB(t)
	catalog := core.NewCatalogService(pool)
	ctx := context.Background()

	cases := []struct {
		name      string
		brand     string
		model     string
		wholesale string
	}{
		{"zero price", "a", "b", "0"},
		{"negative price", "a", "b", "-5"},
		{"empty brand", "   ", "b", "10"},
		{"empty model", "a", "", "10"},
	}
	for _, tc := range cases {
		_, err := catalog.AddOrUpdateProduct(ctx, tc.brand, tc.model, "x", mustDecimal(t, tc.wholesale))
		if !core.IsInvalidInput(err) {
			t.Errorf("%s: expected InvalidInput, got %v", tc.name, err)
		}
	}
}

func TestCatalog_ListOrdering(t *testing.T) {
	pool := setupTestDB(t)
	catalog := core.NewCatalogService(pool)
	ctx := context.Background()

	for _, p := range [][2]string{{"beta", "m2"}, {"alpha", "m9"}, {"beta", "m1"}} {
		if _, err := catalog.AddOrUpdateProduct(ctx, p[0], p[1], "x", mustDecimal(t, "1.00")); err != nil {
			t.Fatalf("AddOrUpdateProduct failed: %v", err)
		}
	}

	products, err := catalog.ListProducts(ctx)
	if err != nil {
		t.Fatalf("ListProducts failed: %v", err)
	}
	var got [][2]string
	for _, p := range products {
		got = append(got, [2]string{p.Brand, p.Model})
	}
	want := [][2]string{{"alpha", "m9"}, {"beta", "m1"}, {"beta", "m2"}}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected order %v, got %v", want, got)
		}
	}
}
