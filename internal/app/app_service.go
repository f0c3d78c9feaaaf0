package app

import (
	"context"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"stock-ledger/internal/core"
)

var validate = validator.New()

type appService struct {
	catalog  core.CatalogService
	clients  core.ClientService
	stock    core.StockService
	carts    core.CartService
	orders   core.OrderService
	ledger   core.LedgerService
	renderer InvoiceRenderer
	currency string
	decimals int32
	log      *zap.Logger
}

// NewAppService wires the core services behind the ApplicationService
// facade. renderer may be nil when no document rendering is configured.
func NewAppService(
	catalog core.CatalogService,
	clients core.ClientService,
	stock core.StockService,
	carts core.CartService,
	orders core.OrderService,
	ledger core.LedgerService,
	renderer InvoiceRenderer,
	currency string,
	decimals int32,
	log *zap.Logger,
) ApplicationService {
	if log == nil {
		log = zap.NewNop()
	}
	return &appService{
		catalog:  catalog,
		clients:  clients,
		stock:    stock,
		carts:    carts,
		orders:   orders,
		ledger:   ledger,
		renderer: renderer,
		currency: currency,
		decimals: decimals,
		log:      log,
	}
}

// checkRequest maps struct-tag validation failures onto the core's
// InvalidInput kind so front-ends see one taxonomy.
func checkRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}
	if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
		return core.InvalidInputf("invalid request: field %s failed %q", verrs[0].Field(), verrs[0].Tag())
	}
	return core.InvalidInputf("invalid request: %v", err)
}

// ── Catalog ──────────────────────────────────────────────────────────────────

func (s *appService) AddProduct(ctx context.Context, req AddProductRequest) (*ProductResult, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	p, err := s.catalog.AddOrUpdateProduct(ctx, req.Brand, req.Model, req.Name, req.Wholesale)
	if err != nil {
		return nil, err
	}
	s.log.Info("product upserted",
		zap.String("brand", p.Brand), zap.String("model", p.Model),
		zap.String("wholesale", p.Wholesale.String()))
	return &ProductResult{Product: p, Wholesale10: p.WholesalePlus10(s.decimals)}, nil
}

func (s *appService) ListProducts(ctx context.Context) (*ProductListResult, error) {
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	return &ProductListResult{Products: products}, nil
}

// ── Clients ──────────────────────────────────────────────────────────────────

func (s *appService) AddClient(ctx context.Context, name string) (*ClientResult, error) {
	c, err := s.clients.AddClient(ctx, name)
	if err != nil {
		return nil, err
	}
	return &ClientResult{Client: c}, nil
}

func (s *appService) ListClients(ctx context.Context) (*ClientListResult, error) {
	clients, err := s.clients.ListClients(ctx)
	if err != nil {
		return nil, err
	}
	return &ClientListResult{Clients: clients}, nil
}

// ── Stock ────────────────────────────────────────────────────────────────────

func (s *appService) ReceiveStock(ctx context.Context, req ReceiveStockRequest) error {
	if err := checkRequest(req); err != nil {
		return err
	}
	if err := s.stock.Receive(ctx, req.Warehouse, req.Brand, req.Model, req.Qty); err != nil {
		return err
	}
	s.log.Info("stock received",
		zap.String("warehouse", req.Warehouse),
		zap.String("brand", req.Brand), zap.String("model", req.Model),
		zap.String("qty", req.Qty.String()))
	return nil
}

func (s *appService) MoveStock(ctx context.Context, req MoveStockRequest) error {
	if err := checkRequest(req); err != nil {
		return err
	}
	if err := s.stock.Transfer(ctx, req.From, req.To, req.Brand, req.Model, req.Qty); err != nil {
		return err
	}
	s.log.Info("stock moved",
		zap.String("from", req.From), zap.String("to", req.To),
		zap.String("brand", req.Brand), zap.String("model", req.Model),
		zap.String("qty", req.Qty.String()))
	return nil
}

func (s *appService) MoveAllStock(ctx context.Context, req MoveAllStockRequest) (*MoveAllResult, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	moved, err := s.stock.TransferAll(ctx, req.From, req.To)
	if err != nil {
		// Some lines may have landed before the failure; report the count
		// together with the error rather than hiding it.
		s.log.Warn("move-all stopped early",
			zap.String("from", req.From), zap.String("to", req.To),
			zap.Int("moved", moved), zap.Error(err))
		return &MoveAllResult{Moved: moved}, err
	}
	s.log.Info("all stock moved",
		zap.String("from", req.From), zap.String("to", req.To), zap.Int("moved", moved))
	return &MoveAllResult{Moved: moved}, nil
}

func (s *appService) ListStock(ctx context.Context, warehouse *string) (*StockResult, error) {
	rows, err := s.stock.Snapshot(ctx, warehouse)
	if err != nil {
		return nil, err
	}
	return &StockResult{Rows: rows}, nil
}

// ── Cart ─────────────────────────────────────────────────────────────────────

func (s *appService) CartStart(ctx context.Context, client string) (*CartResult, error) {
	cart, err := s.carts.Start(ctx, client)
	if err != nil {
		return nil, err
	}
	return &CartResult{Cart: cart}, nil
}

func (s *appService) CartAddItem(ctx context.Context, req CartAddItemRequest) (*CartResult, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	mode, ok := core.ParsePriceMode(req.PriceMode)
	if !ok {
		return nil, core.InvalidInputf("unknown price mode %q (want wh, wh10 or custom)", req.PriceMode)
	}
	cart, err := s.carts.AddItem(ctx, req.Client, req.Brand, req.Model, req.Qty, mode, req.CustomPrice)
	if err != nil {
		return nil, err
	}
	return &CartResult{Cart: cart}, nil
}

func (s *appService) CartRemoveItem(ctx context.Context, req CartRemoveItemRequest) (*CartResult, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	cart, err := s.carts.RemoveItem(ctx, req.Client, req.Brand, req.Model)
	if err != nil {
		return nil, err
	}
	return &CartResult{Cart: cart}, nil
}

func (s *appService) CartShow(ctx context.Context, client string) (*CartResult, error) {
	cart, err := s.carts.Show(ctx, client)
	if err != nil {
		return nil, err
	}
	return &CartResult{Cart: cart}, nil
}

// ── Commit + debt ────────────────────────────────────────────────────────────

func (s *appService) CommitCart(ctx context.Context, req CommitCartRequest) (*InvoiceResult, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	inv, err := s.orders.Commit(ctx, req.Client, req.Warehouse)
	if err != nil {
		return nil, err
	}
	s.log.Info("cart committed",
		zap.Int64("invoice", inv.Number),
		zap.String("client", inv.ClientName),
		zap.String("warehouse", inv.Warehouse),
		zap.String("total", inv.Total.String()))

	result := &InvoiceResult{Invoice: inv}
	if s.renderer != nil {
		// Rendering happens after the commit is durable; a rendering failure
		// must not undo the invoice, so it is logged and the result returned
		// without a path.
		path, err := s.renderer.Render(ctx, inv)
		if err != nil {
			s.log.Warn("invoice rendering failed", zap.Int64("invoice", inv.Number), zap.Error(err))
		} else {
			result.RenderedPath = path
		}
	}
	return result, nil
}

func (s *appService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*DebtResult, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}
	debt, err := s.ledger.RecordPayment(ctx, req.Client, req.Amount)
	if err != nil {
		return nil, err
	}
	s.log.Info("payment recorded",
		zap.String("client", req.Client),
		zap.String("amount", req.Amount.String()),
		zap.String("debt", debt.String()))
	return &DebtResult{Client: req.Client, Debt: debt, Currency: s.currency}, nil
}

func (s *appService) GetDebt(ctx context.Context, client string) (*DebtResult, error) {
	debt, err := s.ledger.Debt(ctx, client)
	if err != nil {
		return nil, err
	}
	return &DebtResult{Client: client, Debt: debt, Currency: s.currency}, nil
}

func (s *appService) ClientStatement(ctx context.Context, client string) (*StatementResult, error) {
	entries, err := s.ledger.Entries(ctx, client)
	if err != nil {
		return nil, err
	}
	debt, err := s.ledger.Debt(ctx, client)
	if err != nil {
		return nil, err
	}
	return &StatementResult{Client: client, Entries: entries, Debt: debt}, nil
}
