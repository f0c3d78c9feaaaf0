package app

import (
	"context"

	"stock-ledger/internal/core"
)

// InvoiceRenderer turns a committed invoice into a printable file and
// returns its path. The core never interprets the output beyond passing the
// path through to the caller.
type InvoiceRenderer interface {
	Render(ctx context.Context, inv *core.Invoice) (string, error)
}

// ApplicationService is the single interface all front-ends (messaging
// interface, CLI, web surface) call. Implementations contain no display
// logic; errors cross this boundary as core error kinds, never as text meant
// for users.
type ApplicationService interface {
	// Catalog
	AddProduct(ctx context.Context, req AddProductRequest) (*ProductResult, error)
	ListProducts(ctx context.Context) (*ProductListResult, error)

	// Clients
	AddClient(ctx context.Context, name string) (*ClientResult, error)
	ListClients(ctx context.Context) (*ClientListResult, error)

	// Stock
	ReceiveStock(ctx context.Context, req ReceiveStockRequest) error
	MoveStock(ctx context.Context, req MoveStockRequest) error
	MoveAllStock(ctx context.Context, req MoveAllStockRequest) (*MoveAllResult, error)
	// ListStock lists positive stock rows, optionally for one warehouse.
	ListStock(ctx context.Context, warehouse *string) (*StockResult, error)

	// Cart
	CartStart(ctx context.Context, client string) (*CartResult, error)
	CartAddItem(ctx context.Context, req CartAddItemRequest) (*CartResult, error)
	CartRemoveItem(ctx context.Context, req CartRemoveItemRequest) (*CartResult, error)
	CartShow(ctx context.Context, client string) (*CartResult, error)

	// Commit + debt
	CommitCart(ctx context.Context, req CommitCartRequest) (*InvoiceResult, error)
	RecordPayment(ctx context.Context, req RecordPaymentRequest) (*DebtResult, error)
	GetDebt(ctx context.Context, client string) (*DebtResult, error)
	ClientStatement(ctx context.Context, client string) (*StatementResult, error)
}
