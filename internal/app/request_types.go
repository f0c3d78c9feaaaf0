package app

import "github.com/shopspring/decimal"

// AddProductRequest upserts a product by its (brand, model) key.
type AddProductRequest struct {
	Brand     string          `validate:"required"`
	Model     string          `validate:"required"`
	Name      string          `validate:"required"`
	Wholesale decimal.Decimal `validate:"required"`
}

// ReceiveStockRequest records incoming goods at a warehouse.
type ReceiveStockRequest struct {
	Warehouse string          `validate:"required"`
	Brand     string          `validate:"required"`
	Model     string          `validate:"required"`
	Qty       decimal.Decimal `validate:"required"`
}

// MoveStockRequest transfers one product between two warehouses.
type MoveStockRequest struct {
	From  string          `validate:"required"`
	To    string          `validate:"required,nefield=From"`
	Brand string          `validate:"required"`
	Model string          `validate:"required"`
	Qty   decimal.Decimal `validate:"required"`
}

// MoveAllStockRequest drains every product line from one warehouse into another.
type MoveAllStockRequest struct {
	From string `validate:"required"`
	To   string `validate:"required,nefield=From"`
}

// CartAddItemRequest appends a priced line to the client's open cart.
// CustomPrice is required only when PriceMode is "custom".
type CartAddItemRequest struct {
	Client      string `validate:"required"`
	Brand       string `validate:"required"`
	Model       string `validate:"required"`
	Qty         decimal.Decimal
	PriceMode   string `validate:"required"`
	CustomPrice *decimal.Decimal
}

// CartRemoveItemRequest removes all lines matching (brand, model).
type CartRemoveItemRequest struct {
	Client string `validate:"required"`
	Brand  string `validate:"required"`
	Model  string `validate:"required"`
}

// CommitCartRequest converts the client's open cart into an invoice
// fulfilled from the named warehouse.
type CommitCartRequest struct {
	Client    string `validate:"required"`
	Warehouse string `validate:"required"`
}

// RecordPaymentRequest appends a payment against the client's debt.
type RecordPaymentRequest struct {
	Client string          `validate:"required"`
	Amount decimal.Decimal `validate:"required"`
}
