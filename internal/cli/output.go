package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/eshaffer321/ticketsplit-backend/internal/domain/receipt"
	"github.com/eshaffer321/ticketsplit-backend/internal/domain/splitter"
)

// PrintHeader prints the application header
func PrintHeader(w io.Writer, r *receipt.Receipt) {
	fmt.Fprintf(w, "ticketsplit: %s (DRY-RUN mode)\n", r.Filename)
	if !r.IsTicket {
		fmt.Fprintf(w, "Not a receipt: %s\n", r.ErrorMessage)
	}
	fmt.Fprintf(w, "Items: %d | Subtotal: %s | Tax: %s | Total: %s\n\n",
		len(r.Items), money(r.Subtotal), money(r.Tax), money(r.Total))
}

// PrintItems prints the receipt catalog
func PrintItems(w io.Writer, r *receipt.Receipt) {
	for _, it := range r.Items {
		fmt.Fprintf(w, "  #%-3d %-28s %7.3f x %8.2f = %8.2f\n",
			it.ID, truncate(it.Name, 28), it.Quantity, it.UnitPrice, it.LineTotal)
	}
	fmt.Fprintln(w)
}

// PrintSplitSummary prints every user's share and the warnings
func PrintSplitSummary(w io.Writer, res *splitter.Result) {
	fmt.Fprintln(w, strings.Repeat("-", 60))
	for _, share := range res.Shares {
		fmt.Fprintf(w, "%-20s %10.2f\n", share.UserID, share.AmountDue)
		for _, it := range share.Items {
			fmt.Fprintf(w, "    %-28s %7.3f %8.2f\n", truncate(it.Name, 28), it.Quantity, it.LineTotal)
		}
		for _, it := range share.SharedItems {
			fmt.Fprintf(w, "    %-28s %7.3f %8.2f (shared)\n", truncate(it.Name, 28), it.Quantity, it.LineTotal)
		}
	}
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "%-20s %10.2f\n", "Total", res.TotalCalculated)

	if res.Tax != nil {
		fmt.Fprintf(w, "Tax: %s\n", res.Tax.Reason)
	}

	if len(res.Warnings) > 0 {
		fmt.Fprintln(w, "\nWarnings:")
		for _, warn := range res.Warnings {
			fmt.Fprintf(w, "  - %s\n", warn)
		}
	}
}

func money(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%.2f", *v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
