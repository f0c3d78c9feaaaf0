package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Settings holds all runtime configuration, read once at startup.
// Warehouses are part of configuration: the set is closed and known up front,
// warehouses are never created at runtime.
type Settings struct {
	DatabaseURL       string
	Currency          string
	Decimals          int32
	Warehouses        []string
	AutoCreateClients bool
	InvoiceDir        string
}

const (
	defaultCurrency   = "USD"
	defaultDecimals   = 2
	defaultWarehouses = "DEPOT,TRANSIT,SHOP"
	defaultInvoiceDir = "invoices"
)

// Load reads settings from the environment. Call godotenv.Load first if a
// .env file should be honoured.
func Load() (*Settings, error) {
	s := &Settings{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		Currency:    getEnv("CURRENCY", defaultCurrency),
		InvoiceDir:  getEnv("INVOICE_DIR", defaultInvoiceDir),
	}

	decimals := getEnv("DECIMALS", "")
	if decimals == "" {
		s.Decimals = defaultDecimals
	} else {
		n, err := strconv.ParseInt(decimals, 10, 32)
		if err != nil || n < 0 || n > 8 {
			return nil, fmt.Errorf("invalid DECIMALS value %q", decimals)
		}
		s.Decimals = int32(n)
	}

	for _, code := range strings.Split(getEnv("WAREHOUSES", defaultWarehouses), ",") {
		code = strings.TrimSpace(strings.ToUpper(code))
		if code == "" {
			continue
		}
		s.Warehouses = append(s.Warehouses, code)
	}
	if len(s.Warehouses) < 2 {
		return nil, fmt.Errorf("WAREHOUSES must name at least two warehouse codes, got %q", os.Getenv("WAREHOUSES"))
	}

	s.AutoCreateClients = getEnv("AUTO_CREATE_CLIENTS", "false") == "true"

	return s, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
