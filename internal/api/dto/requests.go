package dto

import "github.com/eshaffer321/ticketsplit-backend/internal/domain/assignment"

// SplitRequest is the body of POST /receipts/{id}/split.
//
// Each user maps to a list of bare item ids or {item_id, quantity} objects:
//
//	{"user_item_assignments": {"alice": [1, 2], "bob": [{"item_id": 3, "quantity": 0.5}]}}
type SplitRequest struct {
	UserItemAssignments assignment.Assignments `json:"user_item_assignments"`
}
