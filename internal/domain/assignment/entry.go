// Package assignment turns the user→items assignment payload of a split
// request into uniform per-user claims.
//
// Two wire shapes are accepted for each entry:
//
//	[1, 2, 3]                                   // legacy: bare item ids
//	[{"item_id": 2, "quantity": 1.5}, ...]      // explicit quantities
//
// The shape is detected per user from the first entry.
package assignment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// EntryKind tags the wire shape of one assignment entry.
type EntryKind int

const (
	// EntryMalformed is anything that is neither an integer nor an object.
	EntryMalformed EntryKind = iota
	// EntryLegacyID is a bare item id: claim the whole item.
	EntryLegacyID
	// EntryExplicit is an {item_id, quantity} pair.
	EntryExplicit
)

// Entry is one element of a user's assignment list.
type Entry struct {
	Kind     EntryKind
	ItemID   int
	Quantity float64
}

// LegacyID builds a bare-id entry.
func LegacyID(itemID int) Entry {
	return Entry{Kind: EntryLegacyID, ItemID: itemID}
}

// Explicit builds an {item_id, quantity} entry.
func Explicit(itemID int, quantity float64) Entry {
	return Entry{Kind: EntryExplicit, ItemID: itemID, Quantity: quantity}
}

// UnmarshalJSON never fails: entries it cannot read become EntryMalformed and
// are dropped later with a warning.
func (e *Entry) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	*e = Entry{Kind: EntryMalformed}
	if len(data) == 0 {
		return nil
	}

	if data[0] == '{' {
		var obj struct {
			ItemID   json.RawMessage `json:"item_id"`
			Quantity json.RawMessage `json:"quantity"`
		}
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil
		}
		id, _ := integer(obj.ItemID)
		qty, _ := number(obj.Quantity)
		*e = Explicit(id, qty)
		return nil
	}

	if id, ok := integer(data); ok {
		*e = LegacyID(id)
	}
	return nil
}

// MarshalJSON writes the entry back in its wire shape.
func (e Entry) MarshalJSON() ([]byte, error) {
	switch e.Kind {
	case EntryLegacyID:
		return json.Marshal(e.ItemID)
	case EntryExplicit:
		return json.Marshal(struct {
			ItemID   int     `json:"item_id"`
			Quantity float64 `json:"quantity"`
		}{e.ItemID, e.Quantity})
	default:
		return []byte("null"), nil
	}
}

func number(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}

func integer(raw json.RawMessage) (int, bool) {
	v, ok := number(raw)
	if !ok || v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, false
	}
	return int(v), true
}

// UserAssignment is one user's entries.
type UserAssignment struct {
	UserID  string
	Entries []Entry
}

// Assignments keeps users in the order they appear in the request body.
type Assignments []UserAssignment

// ErrNotAnObject is returned when the assignment payload is not a JSON object.
var ErrNotAnObject = errors.New("assignments must be a JSON object of user to item list")

// UnmarshalJSON decodes a JSON object while preserving key order. A repeated
// user keeps its first position and its last value.
func (a *Assignments) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ErrNotAnObject
	}

	result := Assignments{}
	positions := make(map[string]int)
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		userID, ok := keyTok.(string)
		if !ok {
			return ErrNotAnObject
		}

		var entries []Entry
		if err := dec.Decode(&entries); err != nil {
			return fmt.Errorf("assignments for %q must be a list: %w", userID, err)
		}

		if pos, seen := positions[userID]; seen {
			result[pos].Entries = entries
			continue
		}
		positions[userID] = len(result)
		result = append(result, UserAssignment{UserID: userID, Entries: entries})
	}

	if _, err := dec.Token(); err != nil {
		return err
	}

	*a = result
	return nil
}

// MarshalJSON writes the assignments as a JSON object in user order.
func (a Assignments) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, ua := range a {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(ua.UserID)
		if err != nil {
			return nil, err
		}
		entries := ua.Entries
		if entries == nil {
			entries = []Entry{}
		}
		value, err := json.Marshal(entries)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
