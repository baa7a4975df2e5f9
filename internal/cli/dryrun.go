package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/eshaffer321/ticketsplit-backend/internal/adapters/parser"
	"github.com/eshaffer321/ticketsplit-backend/internal/domain/assignment"
	"github.com/eshaffer321/ticketsplit-backend/internal/domain/receipt"
	"github.com/eshaffer321/ticketsplit-backend/internal/domain/splitter"
)

var errMissingInputs = errors.New("both -extraction and -assignments are required")

// DryRun is a split computed offline from files.
type DryRun struct {
	Receipt *receipt.Receipt
	Result  *splitter.Result
}

// RunDryRun parses an OCR extraction and an assignments file and splits the
// receipt without touching any store or model.
func RunDryRun(flags *DryRunFlags, logger *slog.Logger) (*DryRun, error) {
	if logger == nil {
		logger = slog.Default()
	}

	raw, err := os.ReadFile(flags.ExtractionPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read extraction: %w", err)
	}

	body, err := os.ReadFile(flags.AssignmentsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read assignments: %w", err)
	}
	var assignments assignment.Assignments
	if err := json.Unmarshal(body, &assignments); err != nil {
		return nil, fmt.Errorf("failed to parse assignments: %w", err)
	}

	ext := parser.NewParser(logger).Parse(string(raw))
	r := &receipt.Receipt{
		ID:              "dry-run",
		Filename:        flags.ExtractionPath,
		UploadedAt:      time.Now().UTC(),
		Items:           ext.Items,
		Subtotal:        ext.Subtotal,
		Tax:             ext.Tax,
		Total:           ext.Total,
		RawText:         ext.RawText,
		IsTicket:        ext.IsTicket,
		ErrorMessage:    ext.ErrorMessage,
		DetectedContent: ext.DetectedContent,
	}

	users, warnings := assignment.NormalizeAll(assignments, r)
	result := splitter.Split(r, users)
	result.Warnings = append(warnings, result.Warnings...)

	for _, w := range result.Warnings {
		logger.Warn("Split anomaly", "kind", w.Kind, "user_id", w.UserID, "item_id", w.ItemID)
	}

	return &DryRun{Receipt: r, Result: result}, nil
}
