package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"stock-ledger/internal/adapters/cli"
	"stock-ledger/internal/adapters/render"
	"stock-ledger/internal/app"
	"stock-ledger/internal/config"
	"stock-ledger/internal/core"
	"stock-ledger/internal/db"
)

func main() {
	_ = godotenv.Load()

	settings, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	pool, err := db.NewPool(ctx, settings.DatabaseURL)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer pool.Close()

	warehouses := core.Warehouses(settings.Warehouses)
	catalog := core.NewCatalogService(pool)
	clients := core.NewClientService(pool)
	stock := core.NewStockService(pool, warehouses)
	carts := core.NewCartService(pool, settings.Decimals, settings.AutoCreateClients)
	orders := core.NewOrderService(pool, warehouses, settings.Currency, settings.Decimals)
	ledger := core.NewLedgerService(pool, settings.Decimals)
	renderer := render.NewTextRenderer(settings.InvoiceDir, settings.Decimals)

	svc := app.NewAppService(catalog, clients, stock, carts, orders, ledger,
		renderer, settings.Currency, settings.Decimals, logger)

	cli.Run(ctx, svc, settings.Decimals, os.Args[1:])
}
