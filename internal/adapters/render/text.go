// Package render holds the document-rendering collaborator used after a
// cart commit. The core only passes the returned path through; swapping in a
// PDF service means implementing app.InvoiceRenderer elsewhere.
package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"stock-ledger/internal/core"
)

// TextRenderer writes a committed invoice as a plain-text file under Dir and
// returns the file path.
type TextRenderer struct {
	Dir      string
	Decimals int32
}

func NewTextRenderer(dir string, decimals int32) *TextRenderer {
	return &TextRenderer{Dir: dir, Decimals: decimals}
}

func (r *TextRenderer) Render(_ context.Context, inv *core.Invoice) (string, error) {
	if err := os.MkdirAll(r.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create invoice dir %s: %w", r.Dir, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INVOICE #%d\n", inv.Number)
	fmt.Fprintf(&b, "Date:      %s\n", inv.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Client:    %s\n", inv.ClientName)
	fmt.Fprintf(&b, "Warehouse: %s\n", inv.Warehouse)
	b.WriteString("\n")
	for _, it := range inv.Items {
		fmt.Fprintf(&b, "  %s %s (%s)  %s x %s = %s\n",
			it.Brand, it.Model, it.Name,
			it.Qty.String(),
			it.UnitPrice.StringFixed(r.Decimals),
			it.LineTotal.StringFixed(r.Decimals))
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "TOTAL: %s %s\n", inv.Total.StringFixed(r.Decimals), inv.Currency)

	path := filepath.Join(r.Dir, fmt.Sprintf("invoice_%06d.txt", inv.Number))
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("failed to write invoice file: %w", err)
	}
	return path, nil
}
