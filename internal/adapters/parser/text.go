package parser

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/eshaffer321/ticketsplit-backend/internal/domain/receipt"
)

// Plain-text receipts put a dot leader or a run of spaces between the
// description and the amounts:
//
//	2 KG PLATANO CANARIAS      3.50
//	CERVEZA ESPECIAL ...... 2 x 1.20 ...... 2.40
//	TOTAL: 8.58
const (
	namePattern   = `([\p{L}0-9\s\-/&'.+]+?)`
	leader        = `\s*(?:\.{2,}|\s{2,})\s*`
	pricePattern  = `(\d+[.,]\d{1,2})\s*€?`
	numberPattern = `(\d+(?:[.,]\d+)?)`
	unitPattern   = `(?:uds?|unidades|unidad|und|kg|gr|ml|l|u\.)`
)

var (
	// NAME .... QTY x UNIT_PRICE .... LINE_TOTAL
	multipliedLine = regexp.MustCompile(`(?i)^` + namePattern + leader +
		numberPattern + `\s*x\s*` + pricePattern + leader + pricePattern + `$`)

	// [QTY [UNIT]] NAME .... LINE_TOTAL
	pricedLine = regexp.MustCompile(`(?i)^(?:` + numberPattern + `\s*` + unitPattern + `?\s+)?` +
		namePattern + leader + pricePattern + `$`)

	totalsLine = regexp.MustCompile(`(?i)^(SUBTOTAL|TOTAL|SUMA|IVA|IMPUESTOS|DESCUENTO|DTO|PROPINA|SERVICIO)\b.*\s` + pricePattern + `$`)
)

// parseText reads a receipt transcribed as plain text, one line at a time.
// The first SUBTOTAL, TOTAL and IVA/IMPUESTOS lines win; other summary lines
// are skipped so they are never taken for items.
func (p *Parser) parseText(raw string, out *Extraction) {
	nextID := 1
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if m := totalsLine.FindStringSubmatch(line); m != nil {
			value, ok := parseAmountString(m[2])
			if !ok {
				continue
			}
			switch strings.ToUpper(m[1]) {
			case "TOTAL":
				if out.Total == nil {
					out.Total = receipt.Float(value)
				}
			case "SUBTOTAL":
				if out.Subtotal == nil {
					out.Subtotal = receipt.Float(value)
				}
			case "IVA", "IMPUESTOS":
				if out.Tax == nil {
					out.Tax = receipt.Float(value)
				}
			}
			continue
		}

		if m := multipliedLine.FindStringSubmatch(line); m != nil {
			quantity := textQuantity(m[2])
			price, ok := parseAmountString(m[3])
			name := strings.TrimSpace(m[1])
			if ok && price > 0 && name != "" {
				out.Items = append(out.Items, receipt.NewItem(nextID, name, quantity, price))
				nextID++
			}
			continue
		}

		if m := pricedLine.FindStringSubmatch(line); m != nil {
			quantity := textQuantity(m[1])
			lineTotal, ok := parseAmountString(m[3])
			name := strings.TrimSpace(m[2])
			if ok && lineTotal > 0 && name != "" {
				// The printed amount is the line total
				out.Items = append(out.Items, receipt.NewItem(nextID, name, quantity, lineTotal/quantity))
				nextID++
			}
			continue
		}

		p.logger.Debug("unparsed receipt line", slog.String("line", line))
	}
}

func textQuantity(s string) float64 {
	if s == "" {
		return 1
	}
	q, ok := parseAmountString(s)
	if !ok || q <= 0 {
		return 1
	}
	return q
}
