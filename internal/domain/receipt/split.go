package receipt

import "fmt"

// Claim is a user's request for some quantity of a catalog item.
type Claim struct {
	ItemID   int
	Quantity float64
}

// UserClaims are the claims of one user, in request order.
type UserClaims struct {
	UserID string
	Claims []Claim
}

// UserShare is the computed result for one user.
type UserShare struct {
	UserID      string
	Items       []Item
	SharedItems []Item
	AmountDue   float64
}

// SplitResult is the outcome of splitting a receipt between users.
type SplitResult struct {
	TotalCalculated float64
	Shares          []UserShare
}

// WarningKind classifies a degraded-but-successful path.
type WarningKind string

const (
	WarnUnknownItem    WarningKind = "unknown_item"
	WarnOverClaim      WarningKind = "over_claim"
	WarnItemExhausted  WarningKind = "item_exhausted"
	WarnMalformedEntry WarningKind = "malformed_entry"
	WarnFormatMismatch WarningKind = "format_mismatch"
)

// Warning records a claim that was dropped or clamped.
// Requested and Granted are only meaningful for over_claim and item_exhausted.
type Warning struct {
	Kind      WarningKind
	UserID    string
	ItemID    int
	Requested float64
	Granted   float64
}

func (w Warning) String() string {
	switch w.Kind {
	case WarnOverClaim:
		return fmt.Sprintf("%s: user %q requested %.3f of item %d, granted %.3f", w.Kind, w.UserID, w.Requested, w.ItemID, w.Granted)
	case WarnItemExhausted:
		return fmt.Sprintf("%s: user %q requested %.3f of item %d, nothing left", w.Kind, w.UserID, w.Requested, w.ItemID)
	default:
		return fmt.Sprintf("%s: user %q item %d", w.Kind, w.UserID, w.ItemID)
	}
}
