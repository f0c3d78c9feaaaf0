package core

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

// Kind classifies a failure so front-ends can branch without parsing messages.
// The core's contract is "no mutation on failure" plus one of these kinds.
type Kind string

const (
	// KindInvalidInput marks malformed caller input: bad quantity, price, name.
	KindInvalidInput Kind = "invalid_input"
	// KindNotFound marks an unknown product, client, or missing open cart.
	KindNotFound Kind = "not_found"
	// KindInsufficientStock marks a business-rule violation; no side effect occurred.
	KindInsufficientStock Kind = "insufficient_stock"
	// KindConflict marks a concurrent collision; the operation can be retried.
	KindConflict Kind = "conflict"
	// KindStorage marks an underlying store failure, surfaced verbatim.
	KindStorage Kind = "storage"
)

// Error is the typed error returned across the core's public boundary.
type Error struct {
	Kind Kind
	msg  string
	err  error
}

func (e *Error) Error() string {
	if e.err != nil {
		return e.msg + ": " + e.err.Error()
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.err }

func invalidInputf(format string, args ...any) error {
	return &Error{Kind: KindInvalidInput, msg: fmt.Sprintf(format, args...)}
}

// InvalidInputf builds an InvalidInput error. Adapters use it so request
// validation failures carry the same kind as the core's own checks.
func InvalidInputf(format string, args ...any) error {
	return invalidInputf(format, args...)
}

func notFoundf(format string, args ...any) error {
	return &Error{Kind: KindNotFound, msg: fmt.Sprintf(format, args...)}
}

func conflictf(format string, args ...any) error {
	return &Error{Kind: KindConflict, msg: fmt.Sprintf(format, args...)}
}

// storagef wraps an underlying store error. Serialization failures and unique
// violations come back as Conflict so callers know a retry can succeed.
func storagef(err error, format string, args ...any) error {
	kind := KindStorage
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "23505": // serialization, deadlock, unique violation
			kind = KindConflict
		}
	}
	return &Error{Kind: kind, msg: fmt.Sprintf(format, args...), err: err}
}

// InsufficientStockError reports available vs requested for the failing
// (warehouse, product) pair. The operation made no mutation.
type InsufficientStockError struct {
	Warehouse string
	Brand     string
	Model     string
	Available decimal.Decimal
	Requested decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock at %s for %s %s: available %s, requested %s",
		e.Warehouse, e.Brand, e.Model, e.Available.String(), e.Requested.String())
}

// KindOf returns the classification of err, or KindStorage for errors that
// escaped the taxonomy.
func KindOf(err error) Kind {
	var ie *InsufficientStockError
	if errors.As(err, &ie) {
		return KindInsufficientStock
	}
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindStorage
}

func IsInvalidInput(err error) bool { return KindOf(err) == KindInvalidInput }
func IsNotFound(err error) bool     { return KindOf(err) == KindNotFound }
func IsConflict(err error) bool     { return KindOf(err) == KindConflict }

func IsInsufficientStock(err error) bool {
	var ie *InsufficientStockError
	return errors.As(err, &ie)
}
