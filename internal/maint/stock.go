package maint

import (
	"errors"
	"fmt"

	"cmms-backend/internal/model"
)

var (
	ErrNonPositiveQty = errors.New("qty must be greater than zero")
	ErrUnknownTxnType = errors.New("txn_type must be IN or OUT")
)

// StockChange is the outcome of applying one ledger entry to a part.
type StockChange struct {
	Before  int
	After   int
	Applied int
}

// Clamped reports whether an OUT removed less than was requested.
func (c StockChange) Clamped(requested int) bool {
	return c.Applied < requested
}

// ApplyStock computes the new stock level. IN adds qty; OUT subtracts it but
// never below zero.
func ApplyStock(current int, txnType model.TxnType, qty int) (StockChange, error) {
	if qty <= 0 {
		return StockChange{}, ErrNonPositiveQty
	}
	if current < 0 {
		current = 0
	}

	switch txnType {
	case model.TxnIn:
		return StockChange{Before: current, After: current + qty, Applied: qty}, nil
	case model.TxnOut:
		after := current - qty
		if after < 0 {
			after = 0
		}
		return StockChange{Before: current, After: after, Applied: current - after}, nil
	default:
		return StockChange{}, fmt.Errorf("%w: got %q", ErrUnknownTxnType, txnType)
	}
}
