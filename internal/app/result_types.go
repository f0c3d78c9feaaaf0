package app

import (
	"github.com/shopspring/decimal"

	"stock-ledger/internal/core"
)

// ProductResult is returned by AddProduct. Wholesale10 is derived from the
// wholesale price at read time.
type ProductResult struct {
	Product     *core.Product
	Wholesale10 decimal.Decimal
}

// ProductListResult is returned by ListProducts.
type ProductListResult struct {
	Products []core.Product
}

// ClientResult is returned by AddClient.
type ClientResult struct {
	Client *core.Client
}

// ClientListResult is returned by ListClients.
type ClientListResult struct {
	Clients []core.Client
}

// StockResult is returned by ListStock.
type StockResult struct {
	Rows []core.StockRow
}

// MoveAllResult reports how many product lines were moved. When Moved is
// returned alongside an error, that many lines had already landed before the
// failing one.
type MoveAllResult struct {
	Moved int
}

// CartResult is returned by the cart operations.
type CartResult struct {
	Cart *core.Cart
}

// InvoiceResult is returned by CommitCart. RenderedPath is the opaque file
// path produced by the rendering collaborator, empty when none is configured.
type InvoiceResult struct {
	Invoice      *core.Invoice
	RenderedPath string
}

// DebtResult is returned by RecordPayment and GetDebt.
type DebtResult struct {
	Client   string
	Debt     decimal.Decimal
	Currency string
}

// StatementResult is returned by ClientStatement.
type StatementResult struct {
	Client  string
	Entries []core.LedgerEntry
	Debt    decimal.Decimal
}
