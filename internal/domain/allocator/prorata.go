// Package allocator distributes an amount across weighted shares.
//
// The pro-rata allocator is used for tax: each user's share is proportional
// to what they owe before tax.
//
//	multiplier = amount / sum(weights)
//	share      = weight * multiplier
package allocator

import (
	"errors"
)

// Share is one participant's weight.
type Share struct {
	Key    string
	Weight float64
}

// Allocation is the amount assigned to one participant.
type Allocation struct {
	Key       string
	Weight    float64
	Allocated float64
}

// Result contains the allocation results.
type Result struct {
	Multiplier     float64
	Allocations    []Allocation
	TotalAllocated float64
}

// Allocate distributes amount across shares proportionally to their weights.
//
// Allocations are left unrounded; callers round once when they add the
// allocation to the participant's own total. A zero weight sum allocates
// nothing.
func Allocate(shares []Share, amount float64) (*Result, error) {
	if len(shares) == 0 {
		return nil, errors.New("no shares to allocate")
	}

	var totalWeight float64
	for _, s := range shares {
		totalWeight += s.Weight
	}

	allocations := make([]Allocation, len(shares))
	if totalWeight == 0 {
		for i, s := range shares {
			allocations[i] = Allocation{Key: s.Key, Weight: s.Weight}
		}
		return &Result{Allocations: allocations}, nil
	}

	multiplier := amount / totalWeight

	var totalAllocated float64
	for i, s := range shares {
		allocated := s.Weight * multiplier
		allocations[i] = Allocation{
			Key:       s.Key,
			Weight:    s.Weight,
			Allocated: allocated,
		}
		totalAllocated += allocated
	}

	return &Result{
		Multiplier:     multiplier,
		Allocations:    allocations,
		TotalAllocated: totalAllocated,
	}, nil
}
