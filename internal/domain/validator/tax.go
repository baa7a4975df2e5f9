// Package validator decides how a receipt's tax line relates to its totals.
//
// Receipts print either prices that already include tax (total == subtotal)
// or prices with tax added on top (total == subtotal + tax). The split has to
// know which one it is looking at before distributing tax to users.
package validator

import (
	"fmt"
	"math"
)

// Tolerance is how far subtotal+tax may drift from total and still be read as
// tax-excluded pricing. The comparison is strict.
const Tolerance = 0.02

// TaxPolicy contains the resolved totals and the classification.
type TaxPolicy struct {
	// Subtotal is the receipt subtotal, or the item sum when none was printed
	Subtotal float64

	// Tax is the receipt tax, or 0 when none was printed
	Tax float64

	// Total is the receipt total, or Subtotal+Tax when none was printed
	Total float64

	// Difference is subtotal+tax-total
	Difference float64

	// TaxExcluded is true when tax must be added on top of item prices
	TaxExcluded bool

	// Reason describes the classification
	Reason string
}

// ClassifyTax resolves missing totals and classifies the receipt.
//
// Missing values fall back as:
//
//	subtotal = itemsSum
//	tax      = 0
//	total    = subtotal + tax
//
// Tax is excluded iff |subtotal + tax - total| < Tolerance and tax > 0.
func ClassifyTax(subtotal, tax, total *float64, itemsSum float64) *TaxPolicy {
	p := &TaxPolicy{Subtotal: itemsSum}
	if subtotal != nil {
		p.Subtotal = *subtotal
	}
	if tax != nil {
		p.Tax = *tax
	}
	if total != nil {
		p.Total = *total
	} else {
		p.Total = p.Subtotal + p.Tax
	}

	p.Difference = p.Subtotal + p.Tax - p.Total

	switch {
	case p.Tax <= 0:
		p.Reason = "no tax on receipt"
	case math.Abs(p.Difference) < Tolerance:
		p.TaxExcluded = true
		p.Reason = fmt.Sprintf("subtotal ($%.2f) + tax ($%.2f) matches total ($%.2f), tax is added on top",
			p.Subtotal, p.Tax, p.Total)
	default:
		p.Reason = fmt.Sprintf("subtotal ($%.2f) + tax ($%.2f) differs from total ($%.2f) by $%.2f, tax is included in prices",
			p.Subtotal, p.Tax, p.Total, math.Abs(p.Difference))
	}

	return p
}
