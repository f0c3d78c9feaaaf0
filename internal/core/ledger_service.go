package core

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// LedgerService owns the append-only record of invoice charges and payments.
// Debt is always computed from the log on read; nothing keeps a running
// counter that could drift from the entries.
type LedgerService interface {
	// RecordPayment appends a payment entry and returns the client's new debt.
	RecordPayment(ctx context.Context, clientName string, amount decimal.Decimal) (decimal.Decimal, error)
	// Debt returns sum(invoice amounts) - sum(payment amounts). A client with
	// no history owes zero.
	Debt(ctx context.Context, clientName string) (decimal.Decimal, error)
	// Entries returns the client's statement in chronological order.
	Entries(ctx context.Context, clientName string) ([]LedgerEntry, error)
}

type ledgerService struct {
	pool     *pgxpool.Pool
	decimals int32
}

func NewLedgerService(pool *pgxpool.Pool, decimals int32) LedgerService {
	return &ledgerService{pool: pool, decimals: decimals}
}

func (s *ledgerService) RecordPayment(ctx context.Context, clientName string, amount decimal.Decimal) (decimal.Decimal, error) {
	if !amount.IsPositive() {
		return decimal.Zero, invalidInputf("payment amount must be > 0, got %s", amount)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return decimal.Zero, storagef(err, "failed to begin transaction")
	}
	defer tx.Rollback(ctx)

	client, ok, err := findClientQ(ctx, tx, clientName)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		return decimal.Zero, notFoundf("client %s not found", NormalizeClientName(clientName))
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO ledger (client_id, entry_type, amount, note)
		VALUES ($1, 'payment', $2, 'payment')
	`, client.ID, amount); err != nil {
		return decimal.Zero, storagef(err, "failed to append payment entry")
	}

	// Compute the new debt inside the same transaction so the returned value
	// reflects this payment exactly.
	debt, err := debtQ(ctx, tx, client.ID, s.decimals)
	if err != nil {
		return decimal.Zero, err
	}

	if err := tx.Commit(ctx); err != nil {
		return decimal.Zero, storagef(err, "failed to commit payment")
	}
	return debt, nil
}

func (s *ledgerService) Debt(ctx context.Context, clientName string) (decimal.Decimal, error) {
	client, ok, err := findClientQ(ctx, s.pool, clientName)
	if err != nil {
		return decimal.Zero, err
	}
	if !ok {
		// No history means no debt.
		return decimal.Zero, nil
	}
	return debtQ(ctx, s.pool, client.ID, s.decimals)
}

func debtQ(ctx context.Context, q pgxQuerier, clientID int, decimals int32) (decimal.Decimal, error) {
	var debt decimal.Decimal
	err := q.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE entry_type WHEN 'invoice' THEN amount ELSE -amount END), 0)
		FROM ledger
		WHERE client_id = $1
	`, clientID).Scan(&debt)
	if err != nil {
		return decimal.Zero, storagef(err, "failed to compute debt for client %d", clientID)
	}
	return debt.Round(decimals), nil
}

func (s *ledgerService) Entries(ctx context.Context, clientName string) ([]LedgerEntry, error) {
	client, ok, err := findClientQ(ctx, s.pool, clientName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFoundf("client %s not found", NormalizeClientName(clientName))
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, client_id, entry_type, amount, invoice_id, note, created_at
		FROM ledger
		WHERE client_id = $1
		ORDER BY created_at, id
	`, client.ID)
	if err != nil {
		return nil, storagef(err, "failed to query ledger entries")
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.ClientID, &e.Type, &e.Amount, &e.InvoiceID, &e.Note, &e.CreatedAt); err != nil {
			return nil, storagef(err, "failed to scan ledger entry")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storagef(err, "error iterating ledger entries")
	}
	return entries, nil
}
