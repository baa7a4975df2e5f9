package assignment

import (
	"github.com/eshaffer321/ticketsplit-backend/internal/domain/receipt"
)

// DetectFormat returns the shape of a user's list, taken from its first
// readable entry. Lists with no readable entries report EntryMalformed.
func DetectFormat(entries []Entry) EntryKind {
	for _, e := range entries {
		if e.Kind != EntryMalformed {
			return e.Kind
		}
	}
	return EntryMalformed
}

// Normalize converts one user's entries into claims against the catalog.
//
// Legacy bare ids claim the item's full original quantity; ids missing from
// the catalog are dropped. Explicit entries are kept when item_id is non-zero
// and quantity is positive; unknown ids are left for the engine to report.
// Nothing here fails: every dropped entry yields a warning.
func Normalize(userID string, entries []Entry, catalog map[int]receipt.Item) ([]receipt.Claim, []receipt.Warning) {
	claims := make([]receipt.Claim, 0, len(entries))
	var warnings []receipt.Warning

	format := DetectFormat(entries)
	for _, e := range entries {
		if e.Kind == EntryMalformed {
			warnings = append(warnings, receipt.Warning{Kind: receipt.WarnMalformedEntry, UserID: userID})
			continue
		}
		if e.Kind != format {
			warnings = append(warnings, receipt.Warning{Kind: receipt.WarnFormatMismatch, UserID: userID, ItemID: e.ItemID})
			continue
		}

		switch e.Kind {
		case EntryLegacyID:
			item, ok := catalog[e.ItemID]
			if !ok {
				warnings = append(warnings, receipt.Warning{Kind: receipt.WarnUnknownItem, UserID: userID, ItemID: e.ItemID})
				continue
			}
			claims = append(claims, receipt.Claim{ItemID: item.ID, Quantity: item.Quantity})

		case EntryExplicit:
			if e.ItemID == 0 || !(e.Quantity > 0) {
				warnings = append(warnings, receipt.Warning{
					Kind:      receipt.WarnMalformedEntry,
					UserID:    userID,
					ItemID:    e.ItemID,
					Requested: e.Quantity,
				})
				continue
			}
			claims = append(claims, receipt.Claim{ItemID: e.ItemID, Quantity: e.Quantity})
		}
	}

	return claims, warnings
}

// NormalizeAll normalizes every user's entries, keeping request order.
func NormalizeAll(assignments Assignments, r *receipt.Receipt) ([]receipt.UserClaims, []receipt.Warning) {
	catalog := r.Index()
	users := make([]receipt.UserClaims, 0, len(assignments))
	var warnings []receipt.Warning

	for _, ua := range assignments {
		claims, w := Normalize(ua.UserID, ua.Entries, catalog)
		users = append(users, receipt.UserClaims{UserID: ua.UserID, Claims: claims})
		warnings = append(warnings, w...)
	}

	return users, warnings
}

// FirstUnknownLegacyID reports the first bare item id, in request order, that
// is not in the catalog. Callers use it to reject legacy requests outright.
func FirstUnknownLegacyID(assignments Assignments, r *receipt.Receipt) (userID string, itemID int, found bool) {
	catalog := r.Index()
	for _, ua := range assignments {
		if DetectFormat(ua.Entries) != EntryLegacyID {
			continue
		}
		for _, e := range ua.Entries {
			if e.Kind != EntryLegacyID {
				continue
			}
			if _, ok := catalog[e.ItemID]; !ok {
				return ua.UserID, e.ItemID, true
			}
		}
	}
	return "", 0, false
}
