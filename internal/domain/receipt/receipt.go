// Package receipt holds the item catalog of a processed receipt.
//
// Items are immutable once built: a partial view of an item (a user's share of
// its quantity) is a new Item carrying the same ID, Name and UnitPrice with a
// recomputed Quantity and LineTotal.
package receipt

import (
	"math"
	"time"
)

// Item is one priced line from a receipt.
type Item struct {
	ID        int
	Name      string
	Quantity  float64
	UnitPrice float64
	LineTotal float64
}

// NewItem builds an item and caches its line total as round(quantity*unitPrice, 2).
func NewItem(id int, name string, quantity, unitPrice float64) Item {
	return Item{
		ID:        id,
		Name:      name,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		LineTotal: RoundToCents(quantity * unitPrice),
	}
}

// Partial returns a view of the item covering quantity units that cost lineTotal.
// The receiver is left untouched.
func (i Item) Partial(quantity, lineTotal float64) Item {
	return Item{
		ID:        i.ID,
		Name:      i.Name,
		Quantity:  quantity,
		UnitPrice: i.UnitPrice,
		LineTotal: lineTotal,
	}
}

// Receipt is a catalog plus its aggregate figures. Subtotal, Tax and Total are
// nil when the extraction could not determine them.
type Receipt struct {
	ID              string
	Filename        string
	UploadedAt      time.Time
	Items           []Item
	Subtotal        *float64
	Tax             *float64
	Total           *float64
	RawText         string
	IsTicket        bool
	ErrorMessage    string
	DetectedContent string
}

// ItemByID returns the catalog item with the given id.
func (r *Receipt) ItemByID(id int) (Item, bool) {
	for _, item := range r.Items {
		if item.ID == id {
			return item, true
		}
	}
	return Item{}, false
}

// Index maps item ids to catalog items.
func (r *Receipt) Index() map[int]Item {
	index := make(map[int]Item, len(r.Items))
	for _, item := range r.Items {
		index[item.ID] = item
	}
	return index
}

// ItemsTotal sums the line totals of every catalog item.
func (r *Receipt) ItemsTotal() float64 {
	var sum float64
	for _, item := range r.Items {
		sum += item.LineTotal
	}
	return sum
}

// Float returns a pointer to v, for optional receipt figures.
func Float(v float64) *float64 {
	return &v
}

// RoundToCents rounds a float to 2 decimal places.
func RoundToCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// RoundTo rounds a float to the given number of decimal places.
func RoundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
