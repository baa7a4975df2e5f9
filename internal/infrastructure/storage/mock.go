package storage

import (
	"context"
	"time"

	"github.com/eshaffer321/ticketsplit-backend/internal/domain/receipt"
)

// MockRepository is an in-memory implementation of Repository for testing.
// It wraps MemoryRepository and records calls for assertions.
type MockRepository struct {
	*MemoryRepository

	// Hooks for test assertions
	SaveReceiptCalled bool
	LastSavedReceipt  *receipt.Receipt
	GetReceiptCalled  bool
	LastCutoff        time.Time

	// Error injection for testing error paths
	SaveReceiptErr     error
	GetReceiptErr      error
	DeleteOlderThanErr error
}

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{MemoryRepository: NewMemoryRepository()}
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

func (m *MockRepository) SaveReceipt(ctx context.Context, r *receipt.Receipt) error {
	m.SaveReceiptCalled = true
	m.LastSavedReceipt = r
	if m.SaveReceiptErr != nil {
		return m.SaveReceiptErr
	}
	return m.MemoryRepository.SaveReceipt(ctx, r)
}

func (m *MockRepository) GetReceipt(ctx context.Context, id string) (*receipt.Receipt, error) {
	m.GetReceiptCalled = true
	if m.GetReceiptErr != nil {
		return nil, m.GetReceiptErr
	}
	return m.MemoryRepository.GetReceipt(ctx, id)
}

func (m *MockRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	m.LastCutoff = cutoff
	if m.DeleteOlderThanErr != nil {
		return 0, m.DeleteOlderThanErr
	}
	return m.MemoryRepository.DeleteOlderThan(ctx, cutoff)
}
