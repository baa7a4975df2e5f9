package dto

import (
	"time"

	"github.com/eshaffer321/ticketsplit-backend/internal/domain/receipt"
	"github.com/eshaffer321/ticketsplit-backend/internal/domain/splitter"
)

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// NewHealthResponse creates a health response with current timestamp.
func NewHealthResponse() HealthResponse {
	return HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// ItemResponse is a receipt line in API responses.
type ItemResponse struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	Price      float64 `json:"price"`
	TotalPrice float64 `json:"total_price"`
}

// ReceiptResponse represents a processed receipt.
type ReceiptResponse struct {
	ReceiptID       string         `json:"receipt_id"`
	Filename        string         `json:"filename"`
	UploadTimestamp string         `json:"upload_timestamp"`
	Items           []ItemResponse `json:"items"`
	Subtotal        *float64       `json:"subtotal"`
	Tax             *float64       `json:"tax"`
	Total           *float64       `json:"total"`
	RawText         string         `json:"raw_text"`
	IsTicket        bool           `json:"is_ticket"`
	ErrorMessage    *string        `json:"error_message"`
	DetectedContent *string        `json:"detected_content"`
}

// ShareResponse is one user's part of a split.
type ShareResponse struct {
	UserID      string         `json:"user_id"`
	AmountDue   float64        `json:"amount_due"`
	Items       []ItemResponse `json:"items"`
	SharedItems []ItemResponse `json:"shared_items"`
}

// WarningResponse describes a claim that was dropped or clamped.
type WarningResponse struct {
	Kind      string   `json:"kind"`
	UserID    string   `json:"user_id"`
	ItemID    int      `json:"item_id"`
	Requested *float64 `json:"requested,omitempty"`
	Granted   *float64 `json:"granted,omitempty"`
	Message   string   `json:"message"`
}

// SplitResponse is the result of splitting a receipt.
type SplitResponse struct {
	TotalCalculated float64           `json:"total_calculated"`
	Shares          []ShareResponse   `json:"shares"`
	Warnings        []WarningResponse `json:"warnings"`
}

// ToItemResponses converts items preserving catalog order.
func ToItemResponses(items []receipt.Item) []ItemResponse {
	out := make([]ItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, ItemResponse{
			ID:         it.ID,
			Name:       it.Name,
			Quantity:   it.Quantity,
			Price:      it.UnitPrice,
			TotalPrice: it.LineTotal,
		})
	}
	return out
}

// ToReceiptResponse converts a stored receipt.
func ToReceiptResponse(r *receipt.Receipt) ReceiptResponse {
	return ReceiptResponse{
		ReceiptID:       r.ID,
		Filename:        r.Filename,
		UploadTimestamp: r.UploadedAt.UTC().Format(time.RFC3339Nano),
		Items:           ToItemResponses(r.Items),
		Subtotal:        r.Subtotal,
		Tax:             r.Tax,
		Total:           r.Total,
		RawText:         r.RawText,
		IsTicket:        r.IsTicket,
		ErrorMessage:    optionalString(r.ErrorMessage),
		DetectedContent: optionalString(r.DetectedContent),
	}
}

// ToSplitResponse copies the engine output into the wire shape.
// User order and item order are kept as computed.
func ToSplitResponse(res *splitter.Result) SplitResponse {
	out := SplitResponse{
		TotalCalculated: res.TotalCalculated,
		Shares:          make([]ShareResponse, 0, len(res.Shares)),
		Warnings:        make([]WarningResponse, 0, len(res.Warnings)),
	}

	for _, share := range res.Shares {
		out.Shares = append(out.Shares, ShareResponse{
			UserID:      share.UserID,
			AmountDue:   share.AmountDue,
			Items:       ToItemResponses(share.Items),
			SharedItems: ToItemResponses(share.SharedItems),
		})
	}

	for _, w := range res.Warnings {
		wr := WarningResponse{
			Kind:    string(w.Kind),
			UserID:  w.UserID,
			ItemID:  w.ItemID,
			Message: w.String(),
		}
		switch w.Kind {
		case receipt.WarnOverClaim:
			wr.Requested = receipt.Float(w.Requested)
			wr.Granted = receipt.Float(w.Granted)
		case receipt.WarnItemExhausted:
			wr.Requested = receipt.Float(w.Requested)
		}
		out.Warnings = append(out.Warnings, wr)
	}

	return out
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
