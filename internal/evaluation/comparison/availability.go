package comparison

import (
	"sort"
	"strings"

	"github.com/godilite/wellness-eval/internal/catalog"
)

// Availability is the state of one (entity, offering) pair.
type Availability string

const (
	AvailableSignature Availability = "signature"
	AvailablePlain     Availability = "available"
	Unavailable        Availability = "unavailable"
	// AvailabilityPadding fills columns past the last compared entity.
	AvailabilityPadding Availability = "padding"
)

// OfferingSet is one entity's offerings as fed to the matrix.
type OfferingSet struct {
	EntityID  string                      `json:"entityId"`
	Offerings []catalog.AttributeOffering `json:"offerings"`
}

// MatrixRow is one offering of the union. Signature is true when any entity
// marks the offering signature.
type MatrixRow struct {
	Key       string         `json:"key"`
	Label     string         `json:"label"`
	Signature bool           `json:"signature"`
	Cells     []Availability `json:"cells"`
}

// Matrix is the sorted union of offerings against the compared entities.
type Matrix struct {
	EntityIDs []string    `json:"entityIds"`
	Rows      []MatrixRow `json:"rows"`
}

// BuildAvailabilityMatrix unions offerings by key across sets and sorts
// signature rows first, then by label, then by key.
func BuildAvailabilityMatrix(sets []OfferingSet) Matrix {
	m := Matrix{
		EntityIDs: make([]string, 0, len(sets)),
		Rows:      []MatrixRow{},
	}

	type cellKey struct {
		col int
		key string
	}
	index := make(map[string]int)
	held := make(map[cellKey]Availability)

	for col, set := range sets {
		m.EntityIDs = append(m.EntityIDs, set.EntityID)
		for _, o := range set.Offerings {
			i, ok := index[o.Key]
			if !ok {
				i = len(m.Rows)
				index[o.Key] = i
				m.Rows = append(m.Rows, MatrixRow{Key: o.Key, Label: o.DisplayLabel()})
			}
			if o.Signature {
				m.Rows[i].Signature = true
			}

			ck := cellKey{col: col, key: o.Key}
			if o.Signature {
				held[ck] = AvailableSignature
			} else if held[ck] != AvailableSignature {
				held[ck] = AvailablePlain
			}
		}
	}

	for i := range m.Rows {
		cells := make([]Availability, len(sets))
		for col := range sets {
			a, ok := held[cellKey{col: col, key: m.Rows[i].Key}]
			if !ok {
				a = Unavailable
			}
			cells[col] = a
		}
		m.Rows[i].Cells = cells
	}

	sort.SliceStable(m.Rows, func(i, j int) bool {
		a, b := m.Rows[i], m.Rows[j]
		if a.Signature != b.Signature {
			return a.Signature
		}
		la, lb := strings.ToLower(a.Label), strings.ToLower(b.Label)
		if la != lb {
			return la < lb
		}
		return a.Key < b.Key
	})
	return m
}

// Padded returns a copy with every row widened to width columns.
func (m Matrix) Padded(width int) Matrix {
	out := Matrix{
		EntityIDs: append([]string(nil), m.EntityIDs...),
		Rows:      make([]MatrixRow, len(m.Rows)),
	}
	for i, r := range m.Rows {
		cells := append([]Availability(nil), r.Cells...)
		for len(cells) < width {
			cells = append(cells, AvailabilityPadding)
		}
		r.Cells = cells
		out.Rows[i] = r
	}
	return out
}

// MatrixView is the slice of a matrix presented to the reader.
type MatrixView struct {
	EntityIDs []string    `json:"entityIds"`
	Rows      []MatrixRow `json:"rows"`
	Total     int         `json:"total"`
	Hidden    int         `json:"hidden"`
	Expanded  bool        `json:"expanded"`
}

// View caps the rows at limit unless showAll is set. The union and its order
// are untouched; only the presented slice changes. A limit of zero or less
// means no cap.
func (m Matrix) View(limit int, showAll bool) MatrixView {
	v := MatrixView{
		EntityIDs: m.EntityIDs,
		Rows:      m.Rows,
		Total:     len(m.Rows),
		Expanded:  true,
	}
	if showAll || limit <= 0 || len(m.Rows) <= limit {
		return v
	}
	v.Rows = m.Rows[:limit]
	v.Hidden = len(m.Rows) - limit
	v.Expanded = false
	return v
}
