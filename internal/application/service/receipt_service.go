package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/eshaffer321/ticketsplit-backend/internal/adapters/ocr"
	"github.com/eshaffer321/ticketsplit-backend/internal/adapters/parser"
	"github.com/eshaffer321/ticketsplit-backend/internal/domain/assignment"
	"github.com/eshaffer321/ticketsplit-backend/internal/domain/receipt"
	"github.com/eshaffer321/ticketsplit-backend/internal/domain/splitter"
	"github.com/eshaffer321/ticketsplit-backend/internal/infrastructure/metrics"
	"github.com/eshaffer321/ticketsplit-backend/internal/infrastructure/storage"
)

var (
	// ErrNotAnImage is returned when an upload's content type is not image/*.
	ErrNotAnImage = errors.New("file must be an image")

	// ErrReceiptNotFound is returned when no receipt has the requested id.
	ErrReceiptNotFound = errors.New("receipt not found")

	// ErrNoItems is returned when splitting a receipt that has no items.
	ErrNoItems = errors.New("receipt has no items to split")

	// ErrNoAssignments is returned when a split request names no users.
	ErrNoAssignments = errors.New("no user assignments provided")

	// ErrExtraction wraps failures of the vision model call.
	ErrExtraction = errors.New("receipt extraction failed")
)

// UnknownItemError reports a bare item id that is not on the receipt.
type UnknownItemError struct {
	UserID string
	ItemID int
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("item %d assigned to %q not found in receipt", e.ItemID, e.UserID)
}

// Upload is one image posted by a client.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Config tunes the receipt service.
type Config struct {
	// Provider labels OCR metrics
	Provider          string
	MaxImageDimension int
}

// ReceiptService turns uploaded photos into stored receipts and splits them.
type ReceiptService struct {
	cfg       Config
	extractor ocr.Extractor
	parser    *parser.Parser
	store     storage.Repository
	metrics   *metrics.Metrics
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
}

// NewReceiptService creates a receipt service. metrics may be nil.
func NewReceiptService(
	cfg Config,
	extractor ocr.Extractor,
	store storage.Repository,
	m *metrics.Metrics,
	logger *slog.Logger,
) *ReceiptService {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxImageDimension <= 0 {
		cfg.MaxImageDimension = ocr.DefaultMaxDimension
	}
	if cfg.Provider == "" {
		cfg.Provider = ocr.ProviderAnthropic
	}
	return &ReceiptService{
		cfg:       cfg,
		extractor: extractor,
		parser:    parser.NewParser(logger),
		store:     store,
		metrics:   m,
		logger:    logger,
		now:       time.Now,
		newID:     func() string { return uuid.New().String() },
	}
}

// Process reads an uploaded image and stores the resulting receipt.
// A photo that is not a receipt is stored with IsTicket=false and no items.
func (s *ReceiptService) Process(ctx context.Context, up Upload) (*receipt.Receipt, error) {
	if !strings.HasPrefix(up.ContentType, "image/") {
		return nil, ErrNotAnImage
	}

	prepared, err := ocr.PrepareImage(up.Data, s.cfg.MaxImageDimension)
	if err != nil {
		s.metrics.ObserveReceipt(metrics.OutcomeError, 0)
		return nil, err
	}

	start := time.Now()
	text, err := s.extractor.Extract(ctx, prepared, ocr.PreparedMediaType)
	s.metrics.ObserveOCR(s.cfg.Provider, time.Since(start), err)
	if err != nil {
		s.metrics.ObserveReceipt(metrics.OutcomeError, 0)
		s.logger.Error("Receipt extraction failed",
			"filename", up.Filename,
			"provider", s.cfg.Provider,
			"error", err)
		return nil, fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	ext := s.parser.Parse(text)
	r := &receipt.Receipt{
		ID:              s.newID(),
		Filename:        up.Filename,
		UploadedAt:      s.now().UTC(),
		Items:           ext.Items,
		Subtotal:        ext.Subtotal,
		Tax:             ext.Tax,
		Total:           ext.Total,
		RawText:         ext.RawText,
		IsTicket:        ext.IsTicket,
		ErrorMessage:    ext.ErrorMessage,
		DetectedContent: ext.DetectedContent,
	}

	if err := s.store.SaveReceipt(ctx, r); err != nil {
		s.metrics.ObserveReceipt(metrics.OutcomeError, 0)
		return nil, fmt.Errorf("failed to save receipt: %w", err)
	}

	outcome := metrics.OutcomeTicket
	switch {
	case !r.IsTicket:
		outcome = metrics.OutcomeNotTicket
	case len(r.Items) == 0:
		outcome = metrics.OutcomeEmpty
	}
	s.metrics.ObserveReceipt(outcome, len(r.Items))
	if count, err := s.store.Count(ctx); err == nil {
		s.metrics.SetStored(count)
	}

	s.logger.Info("Processed receipt",
		"receipt_id", r.ID,
		"filename", r.Filename,
		"is_ticket", r.IsTicket,
		"items", len(r.Items))
	return r, nil
}

// Get returns a stored receipt.
func (s *ReceiptService) Get(ctx context.Context, id string) (*receipt.Receipt, error) {
	r, err := s.store.GetReceipt(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrReceiptNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load receipt: %w", err)
	}
	return r, nil
}

// Split divides a stored receipt between users. Soft anomalies in the
// assignments come back as warnings on the result, never as errors.
func (s *ReceiptService) Split(ctx context.Context, id string, assignments assignment.Assignments) (*splitter.Result, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		s.metrics.ObserveSplit("rejected", nil)
		return nil, err
	}
	if len(r.Items) == 0 {
		s.metrics.ObserveSplit("rejected", nil)
		return nil, ErrNoItems
	}
	if len(assignments) == 0 {
		s.metrics.ObserveSplit("rejected", nil)
		return nil, ErrNoAssignments
	}
	if userID, itemID, found := assignment.FirstUnknownLegacyID(assignments, r); found {
		s.metrics.ObserveSplit("rejected", nil)
		return nil, &UnknownItemError{UserID: userID, ItemID: itemID}
	}

	users, warnings := assignment.NormalizeAll(assignments, r)
	result := splitter.Split(r, users)
	result.Warnings = append(warnings, result.Warnings...)

	kinds := make([]string, len(result.Warnings))
	for i, w := range result.Warnings {
		kinds[i] = string(w.Kind)
		s.logger.Warn("Split anomaly",
			"receipt_id", r.ID,
			"kind", w.Kind,
			"user_id", w.UserID,
			"item_id", w.ItemID,
			"requested", w.Requested,
			"granted", w.Granted)
	}
	s.metrics.ObserveSplit("ok", kinds)

	s.logger.Info("Split receipt",
		"receipt_id", r.ID,
		"users", len(result.Shares),
		"total_calculated", result.TotalCalculated,
		"tax_excluded", result.Tax.TaxExcluded,
		"warnings", len(result.Warnings))
	return result, nil
}
