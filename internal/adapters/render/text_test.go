package render

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"stock-ledger/internal/core"
)

func TestTextRenderer_WritesInvoiceFile(t *testing.T) {
	dir := t.TempDir()
	r := NewTextRenderer(dir, 2)

	inv := &core.Invoice{
		Number:     7,
		ClientName: "Ali",
		Warehouse:  "SHOP",
		Currency:   "USD",
		Total:      decimal.RequireFromString("55.00"),
		CreatedAt:  time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC),
		Items: []core.InvoiceItem{
			{Brand: "alpha", Model: "a1", Name: "Widget", Qty: decimal.NewFromInt(5),
				UnitPrice: decimal.RequireFromString("2.00"), LineTotal: decimal.RequireFromString("10.00")},
			{Brand: "beta", Model: "b1", Name: "Gadget", Qty: decimal.NewFromInt(3),
				UnitPrice: decimal.RequireFromString("15.00"), LineTotal: decimal.RequireFromString("45.00")},
		},
	}

	path, err := r.Render(context.Background(), inv)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if filepath.Base(path) != "invoice_000007.txt" {
		t.Errorf("Unexpected file name %s", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read rendered invoice: %v", err)
	}
	text := string(data)
	for _, want := range []string{
		"INVOICE #7",
		"Client:    Ali",
		"Warehouse: SHOP",
		"alpha a1 (Widget)  5 x 2.00 = 10.00",
		"beta b1 (Gadget)  3 x 15.00 = 45.00",
		"TOTAL: 55.00 USD",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Rendered invoice missing %q:\n%s", want, text)
		}
	}
}
