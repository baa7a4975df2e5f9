package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/eshaffer321/ticketsplit-backend/internal/domain/receipt"
)

// Storage provides SQLite database access for receipts.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// itemRecord is the JSON shape of an item in items_json
type itemRecord struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

// NewStorage opens (or creates) the SQLite database at dbPath and applies
// migrations. ":memory:" gives a private, process-local database.
func NewStorage(ctx context.Context, dbPath string, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// A :memory: database lives in a single connection; one writer also
	// avoids SQLITE_BUSY on file databases.
	db.SetMaxOpenConns(1)

	if err := runMigrations(ctx, db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Storage{db: db}, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveReceipt inserts a receipt in a single statement
func (s *Storage) SaveReceipt(ctx context.Context, r *receipt.Receipt) error {
	items := make([]itemRecord, len(r.Items))
	for i, it := range r.Items {
		items[i] = itemRecord{
			ID:        it.ID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		}
	}
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal items: %w", err)
	}

	query := `
	INSERT OR REPLACE INTO receipts
	(id, filename, uploaded_at, subtotal, tax, total, raw_text,
	 is_ticket, error_message, detected_content, items_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		r.ID,
		r.Filename,
		r.UploadedAt.UTC(),
		nullFloat(r.Subtotal),
		nullFloat(r.Tax),
		nullFloat(r.Total),
		r.RawText,
		r.IsTicket,
		r.ErrorMessage,
		r.DetectedContent,
		string(itemsJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save receipt %s: %w", r.ID, err)
	}
	return nil
}

// GetReceipt retrieves a receipt by id
func (s *Storage) GetReceipt(ctx context.Context, id string) (*receipt.Receipt, error) {
	query := `
	SELECT id, filename, uploaded_at, subtotal, tax, total, raw_text,
	       is_ticket, error_message, detected_content, items_json
	FROM receipts WHERE id = ?
	`

	r := &receipt.Receipt{}
	var subtotal, tax, total sql.NullFloat64
	var itemsJSON string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&r.ID,
		&r.Filename,
		&r.UploadedAt,
		&subtotal,
		&tax,
		&total,
		&r.RawText,
		&r.IsTicket,
		&r.ErrorMessage,
		&r.DetectedContent,
		&itemsJSON,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load receipt %s: %w", id, err)
	}

	var items []itemRecord
	if err := json.Unmarshal([]byte(itemsJSON), &items); err != nil {
		return nil, fmt.Errorf("failed to decode items of receipt %s: %w", id, err)
	}
	for _, it := range items {
		r.Items = append(r.Items, receipt.Item{
			ID:        it.ID,
			Name:      it.Name,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: it.LineTotal,
		})
	}

	r.Subtotal = fromNullFloat(subtotal)
	r.Tax = fromNullFloat(tax)
	r.Total = fromNullFloat(total)
	r.UploadedAt = r.UploadedAt.UTC()

	return r, nil
}

// DeleteOlderThan removes receipts uploaded before cutoff
func (s *Storage) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM receipts WHERE uploaded_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired receipts: %w", err)
	}
	return res.RowsAffected()
}

// Count returns the number of stored receipts
func (s *Storage) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM receipts`).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func fromNullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
