package storage

import (
	"context"
	"sync"
	"time"

	"github.com/eshaffer321/ticketsplit-backend/internal/domain/receipt"
)

// MemoryRepository keeps receipts in a map guarded by a RWMutex.
// Receipts are copied on the way in and out so callers never share state
// with the store.
type MemoryRepository struct {
	mu       sync.RWMutex
	receipts map[string]receipt.Receipt
}

// Compile-time check that MemoryRepository implements Repository
var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty in-memory store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		receipts: make(map[string]receipt.Receipt),
	}
}

// SaveReceipt stores a copy of r
func (m *MemoryRepository) SaveReceipt(_ context.Context, r *receipt.Receipt) error {
	stored := cloneReceipt(r)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.receipts[r.ID] = stored
	return nil
}

// GetReceipt returns a copy of the stored receipt
func (m *MemoryRepository) GetReceipt(_ context.Context, id string) (*receipt.Receipt, error) {
	m.mu.RLock()
	stored, ok := m.receipts[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	out := cloneReceipt(&stored)
	return &out, nil
}

// DeleteOlderThan drops receipts uploaded before cutoff
func (m *MemoryRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for id, r := range m.receipts {
		if r.UploadedAt.Before(cutoff) {
			delete(m.receipts, id)
			removed++
		}
	}
	return removed, nil
}

// Count returns the number of stored receipts
func (m *MemoryRepository) Count(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.receipts), nil
}

// Close is a no-op
func (m *MemoryRepository) Close() error {
	return nil
}

func cloneReceipt(r *receipt.Receipt) receipt.Receipt {
	out := *r
	out.Items = append([]receipt.Item(nil), r.Items...)
	out.Subtotal = cloneFloat(r.Subtotal)
	out.Tax = cloneFloat(r.Tax)
	out.Total = cloneFloat(r.Total)
	return out
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
