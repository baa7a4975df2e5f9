// Package splitter allocates a receipt's items and tax between users.
//
// Users are processed in request order and each user's claims in the order
// given. Claims draw from a per-call assigned-quantity counter, so earlier
// claimants win when an item is over-claimed. Whatever quantity nobody
// claimed is shared equally between all users. Tax is added pro rata only
// when the receipt prints it on top of item prices.
package splitter

import (
	"github.com/eshaffer321/ticketsplit-backend/internal/domain/allocator"
	"github.com/eshaffer321/ticketsplit-backend/internal/domain/receipt"
	"github.com/eshaffer321/ticketsplit-backend/internal/domain/validator"
)

// quantityEpsilon absorbs float drift when fractional claims are summed.
const quantityEpsilon = 1e-9

// Result is the split plus every claim that was dropped or clamped.
type Result struct {
	receipt.SplitResult
	Warnings []receipt.Warning
	Tax      *validator.TaxPolicy
}

// Split allocates r between users. The receipt is only read.
func Split(r *receipt.Receipt, users []receipt.UserClaims) *Result {
	if len(users) == 0 {
		return &Result{SplitResult: receipt.SplitResult{Shares: []receipt.UserShare{}}}
	}

	assigned := make(map[int]float64, len(r.Items))
	var warnings []receipt.Warning

	shares := make([]receipt.UserShare, len(users))
	userTotals := make([]float64, len(users))

	// Direct claims
	for u, user := range users {
		share := receipt.UserShare{UserID: user.UserID, Items: []receipt.Item{}}

		for _, claim := range user.Claims {
			item, ok := r.ItemByID(claim.ItemID)
			if !ok {
				warnings = append(warnings, receipt.Warning{
					Kind:      receipt.WarnUnknownItem,
					UserID:    user.UserID,
					ItemID:    claim.ItemID,
					Requested: claim.Quantity,
				})
				continue
			}

			remaining := item.Quantity - assigned[item.ID]
			if remaining <= quantityEpsilon {
				warnings = append(warnings, receipt.Warning{
					Kind:      receipt.WarnItemExhausted,
					UserID:    user.UserID,
					ItemID:    item.ID,
					Requested: claim.Quantity,
				})
				continue
			}

			effective := claim.Quantity
			if effective > remaining+quantityEpsilon {
				effective = remaining
				warnings = append(warnings, receipt.Warning{
					Kind:      receipt.WarnOverClaim,
					UserID:    user.UserID,
					ItemID:    item.ID,
					Requested: claim.Quantity,
					Granted:   effective,
				})
			}
			assigned[item.ID] += effective

			lineTotal := receipt.RoundToCents(effective / item.Quantity * item.LineTotal)
			share.Items = append(share.Items, item.Partial(effective, lineTotal))
			userTotals[u] += lineTotal
		}

		shares[u] = share
	}

	// Unclaimed remainders, split equally
	n := float64(len(users))
	var shared []receipt.Item
	var sharedCostPerUser float64
	for _, item := range r.Items {
		unassigned := item.Quantity - assigned[item.ID]
		if unassigned <= quantityEpsilon {
			continue
		}
		cost := unassigned / item.Quantity * item.LineTotal / n
		shared = append(shared, item.Partial(receipt.RoundTo(unassigned/n, 3), receipt.RoundToCents(cost)))
		sharedCostPerUser += cost
	}
	for u := range shares {
		shares[u].SharedItems = append([]receipt.Item{}, shared...)
		userTotals[u] += sharedCostPerUser
	}

	policy := validator.ClassifyTax(r.Subtotal, r.Tax, r.Total, r.ItemsTotal())
	taxShares := distributeTax(policy, users, userTotals)

	var total float64
	for u := range shares {
		shares[u].AmountDue = receipt.RoundToCents(userTotals[u] + taxShares[u])
		total += shares[u].AmountDue
	}

	return &Result{
		SplitResult: receipt.SplitResult{
			TotalCalculated: receipt.RoundToCents(total),
			Shares:          shares,
		},
		Warnings: warnings,
		Tax:      policy,
	}
}

// distributeTax returns each user's unrounded tax share, or zeros when the
// receipt's tax is already inside item prices.
func distributeTax(policy *validator.TaxPolicy, users []receipt.UserClaims, userTotals []float64) []float64 {
	taxShares := make([]float64, len(users))
	if !policy.TaxExcluded {
		return taxShares
	}

	var sum float64
	weights := make([]allocator.Share, len(users))
	for u, user := range users {
		weights[u] = allocator.Share{Key: user.UserID, Weight: userTotals[u]}
		sum += userTotals[u]
	}
	if sum <= 0 {
		return taxShares
	}

	result, err := allocator.Allocate(weights, policy.Tax)
	if err != nil {
		return taxShares
	}
	for u, a := range result.Allocations {
		taxShares[u] = a.Allocated
	}
	return taxShares
}
