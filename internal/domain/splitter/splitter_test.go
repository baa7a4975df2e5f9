package splitter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eshaffer321/ticketsplit-backend/internal/domain/receipt"
)

func pizzaReceipt() *receipt.Receipt {
	return &receipt.Receipt{Items: []receipt.Item{
		receipt.NewItem(1, "Pizza", 1, 15.00),
		receipt.NewItem(2, "Cola", 2, 2.00),
		receipt.NewItem(3, "Water", 1, 1.00),
	}}
}

func tostadaReceipt() *receipt.Receipt {
	return &receipt.Receipt{Items: []receipt.Item{
		receipt.NewItem(2, "Tostada", 2, 3.00),
	}}
}

func claims(userID string, c ...receipt.Claim) receipt.UserClaims {
	return receipt.UserClaims{UserID: userID, Claims: c}
}

func TestSplit_NoUsers(t *testing.T) {
	result := Split(pizzaReceipt(), nil)

	assert.Equal(t, 0.0, result.TotalCalculated)
	assert.Empty(t, result.Shares)
	assert.NotNil(t, result.Shares)
	assert.Empty(t, result.Warnings)
}

func TestSplit_DirectClaimsNoTax(t *testing.T) {
	result := Split(pizzaReceipt(), []receipt.UserClaims{
		claims("Alice", receipt.Claim{ItemID: 1, Quantity: 1}),
		claims("Bob", receipt.Claim{ItemID: 2, Quantity: 2}, receipt.Claim{ItemID: 3, Quantity: 1}),
	})

	require.Len(t, result.Shares, 2)
	assert.Equal(t, "Alice", result.Shares[0].UserID)
	assert.Equal(t, 15.00, result.Shares[0].AmountDue)
	assert.Equal(t, "Bob", result.Shares[1].UserID)
	assert.Equal(t, 5.00, result.Shares[1].AmountDue)
	assert.Equal(t, 20.00, result.TotalCalculated)

	assert.Empty(t, result.Shares[0].SharedItems)
	assert.Len(t, result.Shares[1].Items, 2)
	assert.Empty(t, result.Warnings)
}

func TestSplit_UnclaimedItemIsShared(t *testing.T) {
	result := Split(pizzaReceipt(), []receipt.UserClaims{
		claims("Alice", receipt.Claim{ItemID: 2, Quantity: 2}),
		claims("Bob", receipt.Claim{ItemID: 3, Quantity: 1}),
	})

	require.Len(t, result.Shares, 2)
	// Cola claimed in full (4.00) plus half the pizza
	assert.Equal(t, 11.50, result.Shares[0].AmountDue)
	assert.Equal(t, 8.50, result.Shares[1].AmountDue)
	assert.Equal(t, 20.00, result.TotalCalculated)

	for _, share := range result.Shares {
		require.Len(t, share.SharedItems, 1)
		pizza := share.SharedItems[0]
		assert.Equal(t, 1, pizza.ID)
		assert.Equal(t, "Pizza", pizza.Name)
		assert.Equal(t, 0.5, pizza.Quantity)
		assert.Equal(t, 7.50, pizza.LineTotal)
		assert.Equal(t, 15.00, pizza.UnitPrice)
	}
}

func TestSplit_SharedListsAreIndependent(t *testing.T) {
	result := Split(pizzaReceipt(), []receipt.UserClaims{claims("Alice"), claims("Bob")})

	result.Shares[0].SharedItems[0].Name = "changed"
	assert.Equal(t, "Pizza", result.Shares[1].SharedItems[0].Name)
}

func TestSplit_PartialQuantityClaims(t *testing.T) {
	result := Split(tostadaReceipt(), []receipt.UserClaims{
		claims("Alice", receipt.Claim{ItemID: 2, Quantity: 1}),
		claims("Bob", receipt.Claim{ItemID: 2, Quantity: 1}),
	})

	for _, share := range result.Shares {
		require.Len(t, share.Items, 1)
		assert.Equal(t, 1.0, share.Items[0].Quantity)
		assert.Equal(t, 3.00, share.Items[0].LineTotal)
		assert.Empty(t, share.SharedItems)
		assert.Equal(t, 3.00, share.AmountDue)
	}
	assert.Empty(t, result.Warnings)
}

func TestSplit_OverClaimClampsAndStarvesLaterUsers(t *testing.T) {
	result := Split(tostadaReceipt(), []receipt.UserClaims{
		claims("Alice", receipt.Claim{ItemID: 2, Quantity: 3}),
		claims("Bob", receipt.Claim{ItemID: 2, Quantity: 1}),
	})

	alice := result.Shares[0]
	require.Len(t, alice.Items, 1)
	assert.Equal(t, 2.0, alice.Items[0].Quantity)
	assert.Equal(t, 6.00, alice.Items[0].LineTotal)
	assert.Equal(t, 6.00, alice.AmountDue)

	bob := result.Shares[1]
	assert.Empty(t, bob.Items)
	assert.Equal(t, 0.0, bob.AmountDue)

	require.Len(t, result.Warnings, 2)
	assert.Equal(t, receipt.WarnOverClaim, result.Warnings[0].Kind)
	assert.Equal(t, "Alice", result.Warnings[0].UserID)
	assert.Equal(t, 3.0, result.Warnings[0].Requested)
	assert.Equal(t, 2.0, result.Warnings[0].Granted)
	assert.Equal(t, receipt.WarnItemExhausted, result.Warnings[1].Kind)
	assert.Equal(t, "Bob", result.Warnings[1].UserID)
}

func TestSplit_FractionalClaimsDoNotDrift(t *testing.T) {
	t.Run("exact fractional claims are granted in full", func(t *testing.T) {
		r := &receipt.Receipt{Items: []receipt.Item{receipt.NewItem(1, "Queso", 0.3, 10.00)}}

		result := Split(r, []receipt.UserClaims{
			claims("a", receipt.Claim{ItemID: 1, Quantity: 0.1}),
			claims("b", receipt.Claim{ItemID: 1, Quantity: 0.1}),
			claims("c", receipt.Claim{ItemID: 1, Quantity: 0.1}),
		})

		assert.Empty(t, result.Warnings)
		for _, share := range result.Shares {
			require.Len(t, share.Items, 1)
			assert.Equal(t, 0.1, share.Items[0].Quantity)
			assert.Equal(t, 1.00, share.AmountDue)
			assert.Empty(t, share.SharedItems)
		}
		assert.Equal(t, 3.00, result.TotalCalculated)
	})

	t.Run("fully claimed item is not shared", func(t *testing.T) {
		r := &receipt.Receipt{Items: []receipt.Item{receipt.NewItem(1, "Pan", 1, 2.00)}}

		var tenths []receipt.Claim
		for i := 0; i < 10; i++ {
			tenths = append(tenths, receipt.Claim{ItemID: 1, Quantity: 0.1})
		}
		result := Split(r, []receipt.UserClaims{claims("a", tenths...), claims("b")})

		assert.Empty(t, result.Warnings)
		assert.Len(t, result.Shares[0].Items, 10)
		assert.Equal(t, 2.00, result.Shares[0].AmountDue)
		for _, share := range result.Shares {
			assert.Empty(t, share.SharedItems)
		}
		assert.Equal(t, 0.0, result.Shares[1].AmountDue)
	})
}

func TestSplit_UnknownItemSkipped(t *testing.T) {
	result := Split(tostadaReceipt(), []receipt.UserClaims{
		claims("Alice", receipt.Claim{ItemID: 999, Quantity: 1}, receipt.Claim{ItemID: 2, Quantity: 2}),
	})

	assert.Equal(t, 6.00, result.Shares[0].AmountDue)
	require.Len(t, result.Warnings, 1)
	assert.Equal(t, receipt.WarnUnknownItem, result.Warnings[0].Kind)
	assert.Equal(t, 999, result.Warnings[0].ItemID)
}

func TestSplit_TaxExcludedDistributedProRata(t *testing.T) {
	r := &receipt.Receipt{
		Items: []receipt.Item{
			receipt.NewItem(1, "Café", 1, 2.50),
			receipt.NewItem(2, "Tostada", 1, 6.00),
		},
		Subtotal: receipt.Float(8.50),
		Tax:      receipt.Float(0.85),
		Total:    receipt.Float(9.35),
	}

	result := Split(r, []receipt.UserClaims{
		claims("Alice", receipt.Claim{ItemID: 1, Quantity: 1}),
		claims("Bob", receipt.Claim{ItemID: 2, Quantity: 1}),
	})

	require.NotNil(t, result.Tax)
	assert.True(t, result.Tax.TaxExcluded)
	assert.Equal(t, 2.75, result.Shares[0].AmountDue)
	assert.Equal(t, 6.60, result.Shares[1].AmountDue)
	assert.Equal(t, 9.35, result.TotalCalculated)
}

func TestSplit_TaxIncludedAddsNothing(t *testing.T) {
	r := &receipt.Receipt{
		Items: []receipt.Item{
			receipt.NewItem(1, "Café", 1, 2.50),
			receipt.NewItem(2, "Zumo", 1, 3.00),
		},
		Subtotal: receipt.Float(5.50),
		Tax:      receipt.Float(0),
		Total:    receipt.Float(5.50),
	}

	result := Split(r, []receipt.UserClaims{
		claims("Alice", receipt.Claim{ItemID: 1, Quantity: 1}),
		claims("Bob", receipt.Claim{ItemID: 2, Quantity: 1}),
	})

	assert.False(t, result.Tax.TaxExcluded)
	assert.Equal(t, 2.50, result.Shares[0].AmountDue)
	assert.Equal(t, 3.00, result.Shares[1].AmountDue)
	assert.Equal(t, 5.50, result.TotalCalculated)
}

func TestSplit_TaxInsidePricesIsNotAddedAgain(t *testing.T) {
	// IVA printed but already in the total
	r := &receipt.Receipt{
		Items:    []receipt.Item{receipt.NewItem(1, "Menú", 1, 12.10)},
		Subtotal: receipt.Float(12.10),
		Tax:      receipt.Float(2.10),
		Total:    receipt.Float(12.10),
	}

	result := Split(r, []receipt.UserClaims{claims("Alice", receipt.Claim{ItemID: 1, Quantity: 1})})

	assert.Equal(t, 12.10, result.Shares[0].AmountDue)
}

func TestSplit_DoesNotMutateReceipt(t *testing.T) {
	r := tostadaReceipt()
	before := r.Items[0]

	Split(r, []receipt.UserClaims{claims("Alice", receipt.Claim{ItemID: 2, Quantity: 1})})

	assert.Equal(t, before, r.Items[0])
}

func TestSplit_Invariants(t *testing.T) {
	r := &receipt.Receipt{
		Items: []receipt.Item{
			receipt.NewItem(1, "Pan", 3, 1.10),
			receipt.NewItem(2, "Queso", 1, 7.35),
			receipt.NewItem(3, "Vino", 1, 12.99),
			receipt.NewItem(4, "Olivas", 2, 2.45),
		},
		Subtotal: receipt.Float(28.54),
		Tax:      receipt.Float(2.85),
		Total:    receipt.Float(31.39),
	}
	users := []receipt.UserClaims{
		claims("Ana", receipt.Claim{ItemID: 1, Quantity: 1}, receipt.Claim{ItemID: 4, Quantity: 5}),
		claims("Luis", receipt.Claim{ItemID: 1, Quantity: 1.5}, receipt.Claim{ItemID: 3, Quantity: 1}),
		claims("Eva"),
	}

	result := Split(r, users)

	t.Run("amount due sums to total", func(t *testing.T) {
		var sum float64
		for _, s := range result.Shares {
			sum += s.AmountDue
		}
		assert.Equal(t, receipt.RoundToCents(sum), result.TotalCalculated)
	})

	t.Run("quantities are conserved", func(t *testing.T) {
		for _, item := range r.Items {
			var claimed, shared float64
			for _, s := range result.Shares {
				for _, it := range s.Items {
					if it.ID == item.ID {
						claimed += it.Quantity
					}
				}
				for _, it := range s.SharedItems {
					if it.ID == item.ID {
						shared += it.Quantity
					}
				}
			}
			assert.InDelta(t, item.Quantity, claimed+shared, 0.01, "item %d", item.ID)
			assert.LessOrEqual(t, claimed, item.Quantity)
		}
	})

	t.Run("tax only when excluded", func(t *testing.T) {
		assert.True(t, result.Tax.TaxExcluded)
		assert.InDelta(t, 31.39, result.TotalCalculated, 0.02)
	})
}
