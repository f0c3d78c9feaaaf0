package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ClientService manages client identity. Names are unique case-insensitively;
// the stored spelling is whatever was used first.
type ClientService interface {
	AddClient(ctx context.Context, name string) (*Client, error)
	FindClient(ctx context.Context, name string) (*Client, bool, error)
	ListClients(ctx context.Context) ([]Client, error)
}

type clientService struct {
	pool *pgxpool.Pool
}

func NewClientService(pool *pgxpool.Pool) ClientService {
	return &clientService{pool: pool}
}

func (s *clientService) AddClient(ctx context.Context, name string) (*Client, error) {
	name = NormalizeClientName(name)
	if name == "" {
		return nil, invalidInputf("client name must be non-empty")
	}
	c, err := upsertClientQ(ctx, s.pool, name)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// upsertClientQ inserts the client if absent and returns the existing row
// otherwise. Safe to call inside a larger transaction.
func upsertClientQ(ctx context.Context, q pgxQuerier, name string) (*Client, error) {
	var c Client
	err := q.QueryRow(ctx, `
		INSERT INTO clients (name)
		VALUES ($1)
		ON CONFLICT (LOWER(name)) DO UPDATE SET name = clients.name
		RETURNING id, name, created_at
	`, name).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		return nil, storagef(err, "failed to upsert client %s", name)
	}
	return &c, nil
}

func (s *clientService) FindClient(ctx context.Context, name string) (*Client, bool, error) {
	return findClientQ(ctx, s.pool, name)
}

func findClientQ(ctx context.Context, q pgxQuerier, name string) (*Client, bool, error) {
	name = NormalizeClientName(name)

	var c Client
	err := q.QueryRow(ctx, `
		SELECT id, name, created_at
		FROM clients
		WHERE LOWER(name) = LOWER($1)
	`, name).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, storagef(err, "failed to fetch client %s", name)
	}
	return &c, true, nil
}

func (s *clientService) ListClients(ctx context.Context) ([]Client, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, created_at
		FROM clients
		ORDER BY LOWER(name)
	`)
	if err != nil {
		return nil, storagef(err, "failed to query clients")
	}
	defer rows.Close()

	var clients []Client
	for rows.Next() {
		var c Client
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, storagef(err, "failed to scan client")
		}
		clients = append(clients, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storagef(err, "error iterating clients")
	}
	return clients, nil
}
