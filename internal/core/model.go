package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PriceMode selects how a cart line's unit price is resolved at add time.
type PriceMode string

const (
	PriceWholesale   PriceMode = "wh"
	PriceWholesale10 PriceMode = "wh10"
	PriceCustom      PriceMode = "custom"
)

func ParsePriceMode(s string) (PriceMode, bool) {
	switch PriceMode(strings.ToLower(strings.TrimSpace(s))) {
	case PriceWholesale:
		return PriceWholesale, true
	case PriceWholesale10:
		return PriceWholesale10, true
	case PriceCustom:
		return PriceCustom, true
	}
	return "", false
}

// Warehouses is the closed set of warehouse codes, fixed at startup.
type Warehouses []string

func (w Warehouses) Valid(code string) bool {
	for _, c := range w {
		if c == code {
			return true
		}
	}
	return false
}

// wholesaleMarkup is the factor for the derived "wholesale+10%" price.
var wholesaleMarkup = decimal.NewFromFloat(1.10)

// Product is identified by the normalized (brand, model) pair.
type Product struct {
	ID        int             `json:"id"`
	Brand     string          `json:"brand"`
	Model     string          `json:"model"`
	Name      string          `json:"name"`
	Wholesale decimal.Decimal `json:"wholesale_price"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// WholesalePlus10 derives the wholesale+10% price at read time. It is never
// persisted: storing it alongside the wholesale price invites drift when the
// wholesale price changes.
func (p Product) WholesalePlus10(decimals int32) decimal.Decimal {
	return p.Wholesale.Mul(wholesaleMarkup).Round(decimals)
}

// NormalizeKey canonicalizes a product brand or model for lookup and storage.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// NormalizeClientName trims and collapses whitespace; client identity is
// case-insensitive but the stored spelling is preserved.
func NormalizeClientName(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

type Client struct {
	ID        int       `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// StockRow is one (warehouse, product, qty) tuple from a stock snapshot.
type StockRow struct {
	Warehouse string          `json:"warehouse"`
	Brand     string          `json:"brand"`
	Model     string          `json:"model"`
	Name      string          `json:"name"`
	Qty       decimal.Decimal `json:"qty"`
}

type CartStatus string

const (
	CartOpen   CartStatus = "OPEN"
	CartClosed CartStatus = "CLOSED"
)

type Cart struct {
	ID         int        `json:"id"`
	ClientID   int        `json:"client_id"`
	ClientName string     `json:"client_name"`
	Status     CartStatus `json:"status"`
	Items      []CartItem `json:"items"`
	Total      decimal.Decimal `json:"total"`
	CreatedAt  time.Time  `json:"created_at"`
}

// CartItem freezes its unit price when added; later wholesale-price changes
// on the product do not affect it.
type CartItem struct {
	ID        int             `json:"id"`
	Position  int             `json:"position"`
	ProductID int             `json:"product_id"`
	Brand     string          `json:"brand"`
	Model     string          `json:"model"`
	Name      string          `json:"name"`
	Qty       decimal.Decimal `json:"qty"`
	PriceMode PriceMode       `json:"price_mode"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Invoice and its items are immutable after creation.
type Invoice struct {
	ID         int             `json:"id"`
	Number     int64           `json:"number"`
	ClientID   int             `json:"client_id"`
	ClientName string          `json:"client_name"`
	Warehouse  string          `json:"warehouse"`
	Currency   string          `json:"currency"`
	Total      decimal.Decimal `json:"total"`
	CreatedAt  time.Time       `json:"created_at"`
	Items      []InvoiceItem   `json:"items"`
}

type InvoiceItem struct {
	ID        int             `json:"id"`
	InvoiceID int             `json:"invoice_id"`
	ProductID int             `json:"product_id"`
	Brand     string          `json:"brand"`
	Model     string          `json:"model"`
	Name      string          `json:"name"`
	Qty       decimal.Decimal `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

type LedgerEntryType string

const (
	EntryInvoice LedgerEntryType = "invoice"
	EntryPayment LedgerEntryType = "payment"
)

// LedgerEntry is an append-only record; client debt is always derived as
// sum(invoice amounts) - sum(payment amounts), never stored.
type LedgerEntry struct {
	ID        int             `json:"id"`
	ClientID  int             `json:"client_id"`
	Type      LedgerEntryType `json:"entry_type"`
	Amount    decimal.Decimal `json:"amount"`
	InvoiceID *int            `json:"invoice_id,omitempty"`
	Note      string          `json:"note"`
	CreatedAt time.Time       `json:"created_at"`
}
