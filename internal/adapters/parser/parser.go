// Package parser turns the JSON a vision model returns for a receipt photo
// into a priced item catalog.
//
// The model is asked for:
//
//	{
//	  "is_ticket": true,
//	  "items": [{"description": "Café", "quantity": 1, "unit_price": 2.50}],
//	  "subtotal": 8.50, "tax": 0.85, "total": 9.35
//	}
//
// or, when the photo is not a receipt:
//
//	{"is_ticket": false, "error_message": "...", "detected_content": "..."}
//
// Answers that are not JSON at all are read as a plain-text transcription
// of the receipt, line by line. Models are sloppy with both forms, so
// parsing never fails: anything it cannot read is dropped.
package parser

import (
	"encoding/json"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/eshaffer321/ticketsplit-backend/internal/domain/receipt"
)

// NoItemsMessage is set on extractions that yield neither items nor a total.
const NoItemsMessage = "no items or total found in extraction"

// totalsTolerance is how close the item sum must be to subtotal+tax for the
// printed figures to be trusted when back-filling the total.
const totalsTolerance = 0.05

// Extraction is the parsed catalog and the figures printed on the receipt.
type Extraction struct {
	Items           []receipt.Item
	Subtotal        *float64
	Tax             *float64
	Total           *float64
	RawText         string
	IsTicket        bool
	ErrorMessage    string
	DetectedContent string
}

// Parser converts model output into an Extraction.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a parser. A nil logger uses slog.Default().
func NewParser(logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Parser{logger: logger}
}

type rawItem struct {
	Description json.RawMessage `json:"description"`
	Quantity    json.RawMessage `json:"quantity"`
	UnitPrice   json.RawMessage `json:"unit_price"`
}

type rawExtraction struct {
	IsTicket        *bool           `json:"is_ticket"`
	ErrorMessage    string          `json:"error_message"`
	DetectedContent string          `json:"detected_content"`
	Items           []rawItem       `json:"items"`
	Subtotal        json.RawMessage `json:"subtotal"`
	Tax             json.RawMessage `json:"tax"`
	Total           json.RawMessage `json:"total"`
}

// Parse reads model output, optionally wrapped in ``` fences. Item ids are
// assigned from 1 on every call.
func (p *Parser) Parse(raw string) *Extraction {
	out := &Extraction{RawText: raw, IsTicket: true}

	cleaned := CleanResponse(raw)
	if !looksLikeJSON(cleaned) {
		p.parseText(cleaned, out)
		return p.finish(out)
	}

	var data rawExtraction
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		p.logger.Warn("extraction is not valid JSON",
			slog.String("error", err.Error()),
			slog.Int("length", len(raw)))
		return out
	}

	if data.IsTicket != nil && !*data.IsTicket {
		out.IsTicket = false
		out.ErrorMessage = data.ErrorMessage
		out.DetectedContent = data.DetectedContent
		p.logger.Info("image is not a receipt", slog.String("detected_content", data.DetectedContent))
		return out
	}

	nextID := 1
	for i, it := range data.Items {
		var name string
		if err := json.Unmarshal(it.Description, &name); err != nil || strings.TrimSpace(name) == "" {
			p.logger.Debug("skipping item without description", slog.Int("index", i))
			continue
		}
		name = strings.TrimSpace(name)

		price, ok := parseAmount(it.UnitPrice)
		if !ok {
			p.logger.Debug("skipping item without unit price",
				slog.Int("index", i),
				slog.String("description", name))
			continue
		}
		quantity, ok := parseAmount(it.Quantity)
		if !ok || quantity <= 0 {
			quantity = 1
		}

		out.Items = append(out.Items, receipt.NewItem(nextID, name, quantity, price))
		nextID++
	}

	out.Subtotal = optionalAmount(data.Subtotal)
	out.Tax = optionalAmount(data.Tax)
	out.Total = optionalAmount(data.Total)

	return p.finish(out)
}

func (p *Parser) finish(out *Extraction) *Extraction {
	backfillTotals(out)

	if len(out.Items) == 0 && out.Total == nil {
		out.ErrorMessage = NoItemsMessage
		p.logger.Info("extraction has no items or total", slog.Int("length", len(out.RawText)))
	}
	return out
}

// looksLikeJSON reports whether the model attempted a JSON answer. Broken
// JSON is not retried as plain text.
func looksLikeJSON(s string) bool {
	return strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[")
}

// backfillTotals derives a missing total and subtotal from the other figures.
// Tax is never derived.
func backfillTotals(e *Extraction) {
	var itemsSum float64
	for _, item := range e.Items {
		itemsSum += item.LineTotal
	}

	if e.Total == nil && len(e.Items) > 0 {
		if e.Subtotal != nil && e.Tax != nil && math.Abs(itemsSum-(*e.Subtotal+*e.Tax)) < totalsTolerance {
			e.Total = receipt.Float(receipt.RoundToCents(*e.Subtotal + *e.Tax))
		} else {
			e.Total = receipt.Float(receipt.RoundToCents(itemsSum))
		}
	}

	if e.Subtotal == nil {
		switch {
		case e.Total != nil && e.Tax != nil:
			e.Subtotal = receipt.Float(receipt.RoundToCents(*e.Total - *e.Tax))
		case len(e.Items) > 0:
			e.Subtotal = receipt.Float(receipt.RoundToCents(itemsSum))
		}
	}
}

func optionalAmount(raw json.RawMessage) *float64 {
	v, ok := parseAmount(raw)
	if !ok {
		return nil
	}
	return &v
}

// parseAmount reads a JSON number or a numeric string such as "2,50",
// "2.50 €" or "1.234,56". Null, missing and unreadable values report false.
func parseAmount(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}

	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		if string(raw) == "null" {
			return 0, false
		}
		return n, true
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	return parseAmountString(s)
}

func parseAmountString(s string) (float64, bool) {
	cleaned := strings.TrimSpace(s)
	cleaned = strings.TrimSuffix(cleaned, "€")
	cleaned = strings.TrimPrefix(cleaned, "€")
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return 0, false
	}

	// With both separators the last one is the decimal point
	if strings.Contains(cleaned, ",") && strings.Contains(cleaned, ".") {
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
		} else {
			cleaned = strings.ReplaceAll(cleaned, ",", "")
		}
	}
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// CleanResponse strips the markdown code fence models like to wrap JSON in.
func CleanResponse(text string) string {
	cleaned := strings.TrimSpace(text)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}

	if start := strings.Index(cleaned, "{"); start != -1 {
		cleaned = cleaned[start:]
	} else {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
	}
	if strings.HasSuffix(cleaned, "```") {
		if end := strings.LastIndex(cleaned, "}"); end != -1 {
			cleaned = cleaned[:end+1]
		} else {
			cleaned = strings.TrimSuffix(cleaned, "```")
		}
	}
	return strings.TrimSpace(cleaned)
}
