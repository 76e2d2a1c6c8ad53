// internal/estimator/tables.go
package estimator

import (
	"encoding/json"
	"fmt"
	"math"
)

// Multiplier table categories.
const (
	CategoryLocation      = "location"
	CategoryPropertyAge   = "propertyAge"
	CategoryPropertyType  = "propertyType"
	CategoryCondition     = "condition"
	CategoryAccess        = "access"
	CategoryUrgency       = "urgency"
	CategoryRoomType      = "roomType"
	CategoryFloorFinish   = "floorFinish"
	CategoryWallFinish    = "wallFinish"
	CategoryFurniture     = "furniture"
	CategoryCeilingHeight = "ceilingHeight"
)

// Categories lists every axis a rate card must define, in display order.
var Categories = []string{
	CategoryLocation,
	CategoryPropertyAge,
	CategoryPropertyType,
	CategoryCondition,
	CategoryAccess,
	CategoryUrgency,
	CategoryRoomType,
	CategoryFloorFinish,
	CategoryWallFinish,
	CategoryFurniture,
	CategoryCeilingHeight,
}

type Entry struct {
	Label      string  `json:"label"`
	Multiplier float64 `json:"multiplier"`
}

// MultiplierTable is an ordered, read-only label to multiplier mapping.
type MultiplierTable struct {
	category string
	entries  []Entry
	index    map[string]float64
}

// NewMultiplierTable copies entries into a new table. Labels must be unique
// and every multiplier must be a finite number greater than zero.
func NewMultiplierTable(category string, entries []Entry) (MultiplierTable, error) {
	if category == "" {
		return MultiplierTable{}, fmt.Errorf("multiplier table: category is required")
	}
	if len(entries) == 0 {
		return MultiplierTable{}, fmt.Errorf("multiplier table %s: no entries", category)
	}

	t := MultiplierTable{
		category: category,
		entries:  make([]Entry, 0, len(entries)),
		index:    make(map[string]float64, len(entries)),
	}
	for _, e := range entries {
		if e.Label == "" {
			return MultiplierTable{}, fmt.Errorf("multiplier table %s: empty label", category)
		}
		if _, dup := t.index[e.Label]; dup {
			return MultiplierTable{}, fmt.Errorf("multiplier table %s: duplicate label %q", category, e.Label)
		}
		if !(e.Multiplier > 0) || math.IsInf(e.Multiplier, 0) {
			return MultiplierTable{}, fmt.Errorf("multiplier table %s: label %q has invalid multiplier %v", category, e.Label, e.Multiplier)
		}
		t.entries = append(t.entries, e)
		t.index[e.Label] = e.Multiplier
	}
	return t, nil
}

func mustTable(category string, entries ...Entry) MultiplierTable {
	t, err := NewMultiplierTable(category, entries)
	if err != nil {
		panic(err)
	}
	return t
}

func (t MultiplierTable) Category() string {
	return t.category
}

// Resolve returns the multiplier for an exact, case-sensitive label match.
func (t MultiplierTable) Resolve(label string) (float64, error) {
	m, ok := t.index[label]
	if !ok {
		return 0, &ConfigurationError{Category: t.category, Label: label}
	}
	return m, nil
}

func (t MultiplierTable) Has(label string) bool {
	_, ok := t.index[label]
	return ok
}

// Entries returns a copy of the table in its configured order.
func (t MultiplierTable) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

func (t MultiplierTable) Labels() []string {
	out := make([]string, len(t.entries))
	for i, e := range t.entries {
		out[i] = e.Label
	}
	return out
}

func (t MultiplierTable) Len() int {
	return len(t.entries)
}

func (t MultiplierTable) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.entries)
}
