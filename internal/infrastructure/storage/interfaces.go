// Package storage keeps processed receipts for the lifetime of a split
// session.
//
// Two implementations are provided: an in-process map (the default) and a
// SQLite database, useful when several API processes share a file.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/eshaffer321/ticketsplit-backend/internal/domain/receipt"
)

// ErrNotFound is returned when no receipt has the requested id.
var ErrNotFound = errors.New("receipt not found")

// Repository defines the complete storage interface.
// This interface allows swapping implementations (memory, SQLite)
// and makes testing with mocks straightforward.
type Repository interface {
	ReceiptRepository
	Close() error
}

// ReceiptRepository handles receipt persistence
type ReceiptRepository interface {
	// SaveReceipt stores a fully built receipt. Receipts are never updated.
	SaveReceipt(ctx context.Context, r *receipt.Receipt) error

	// GetReceipt retrieves a receipt by id, or ErrNotFound
	GetReceipt(ctx context.Context, id string) (*receipt.Receipt, error)

	// DeleteOlderThan removes receipts uploaded before cutoff and returns how many were removed
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	// Count returns the number of stored receipts
	Count(ctx context.Context) (int, error)
}
