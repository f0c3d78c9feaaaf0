package cli

import (
	"fmt"

	"stock-ledger/internal/app"
	"stock-ledger/internal/core"
)

func printProducts(products []core.Product, decimals int32) {
	if len(products) == 0 {
		fmt.Println("(no products)")
		return
	}
	for _, p := range products {
		fmt.Printf("%s %s — %s | wh %s | wh10 %s\n",
			p.Brand, p.Model, p.Name,
			p.Wholesale.StringFixed(decimals),
			p.WholesalePlus10(decimals).StringFixed(decimals))
	}
}

func printStock(rows []core.StockRow, decimals int32) {
	if len(rows) == 0 {
		fmt.Println("(empty)")
		return
	}
	current := ""
	for _, r := range rows {
		if r.Warehouse != current {
			current = r.Warehouse
			fmt.Printf("%s:\n", current)
		}
		fmt.Printf("  %s %s — %s | %s\n", r.Brand, r.Model, r.Name, r.Qty.StringFixed(decimals))
	}
}

func printCart(cart *core.Cart, decimals int32) {
	fmt.Printf("Cart for %s:\n", cart.ClientName)
	if len(cart.Items) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for _, it := range cart.Items {
		fmt.Printf("  %d. %s %s × %s @ %s (%s)\n",
			it.Position, it.Brand, it.Model,
			it.Qty.String(), it.UnitPrice.StringFixed(decimals), it.PriceMode)
	}
	fmt.Printf("Total: %s\n", cart.Total.StringFixed(decimals))
}

func printInvoice(inv *core.Invoice, decimals int32) {
	fmt.Printf("Invoice #%d for %s (from %s):\n", inv.Number, inv.ClientName, inv.Warehouse)
	for _, it := range inv.Items {
		fmt.Printf("  %s %s × %s @ %s = %s\n",
			it.Brand, it.Model, it.Qty.String(),
			it.UnitPrice.StringFixed(decimals), it.LineTotal.StringFixed(decimals))
	}
	fmt.Printf("Total: %s %s\n", inv.Total.StringFixed(decimals), inv.Currency)
}

func printStatement(st *app.StatementResult, decimals int32) {
	fmt.Printf("Statement for %s:\n", st.Client)
	for _, e := range st.Entries {
		sign := "+"
		if e.Type == core.EntryPayment {
			sign = "-"
		}
		fmt.Printf("  %s  %s%s  %s\n",
			e.CreatedAt.Format("2006-01-02 15:04"), sign, e.Amount.StringFixed(decimals), e.Note)
	}
	fmt.Printf("Debt: %s\n", st.Debt.StringFixed(decimals))
}
