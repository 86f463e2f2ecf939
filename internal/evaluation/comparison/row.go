package comparison

import (
	"fmt"
	"strings"

	"github.com/godilite/wellness-eval/internal/catalog"
)

// HighlightMode selects which numeric extreme of a row is marked.
type HighlightMode string

const (
	HighlightHighest HighlightMode = "highest"
	HighlightLowest  HighlightMode = "lowest"
	HighlightNone    HighlightMode = "none"
)

// ParseHighlightMode treats an empty string as none.
func ParseHighlightMode(s string) (HighlightMode, error) {
	switch m := HighlightMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", HighlightNone:
		return HighlightNone, nil
	case HighlightHighest, HighlightLowest:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown highlight mode %q", catalog.ErrMalformedInput, s)
	}
}

const (
	DefaultPlaceholder = "—"
	DefaultListLimit   = 3

	PresentMark = "✓"
	AbsentMark  = "✗"
)

// Cell is one rendered slot of a row.
type Cell struct {
	Display     string   `json:"display"`
	Kind        Kind     `json:"kind"`
	Highlighted bool     `json:"highlighted"`
	Placeholder bool     `json:"placeholder"`
	Padding     bool     `json:"padding,omitempty"`
	Present     *bool    `json:"present,omitempty"`
	Items       []string `json:"items,omitempty"`
	Overflow    int      `json:"overflow,omitempty"`
}

// Row is a labelled run of cells, one per compared entity plus padding.
type Row struct {
	Label       string        `json:"label"`
	Mode        HighlightMode `json:"mode"`
	Cells       []Cell        `json:"cells"`
	Highlighted []int         `json:"highlighted"`
}

type rowConfig struct {
	pad         int
	listLimit   int
	placeholder string
}

// RowOption tunes BuildRow.
type RowOption func(*rowConfig)

// WithPad appends n placeholder slots after the values.
func WithPad(n int) RowOption {
	return func(c *rowConfig) {
		if n > 0 {
			c.pad = n
		}
	}
}

// WithListLimit caps how many list items are shown before the "+N" counter.
func WithListLimit(n int) RowOption {
	return func(c *rowConfig) {
		if n > 0 {
			c.listLimit = n
		}
	}
}

func WithPlaceholder(s string) RowOption {
	return func(c *rowConfig) { c.placeholder = s }
}

// BuildRow renders values and marks every index holding the row's maximum
// (or minimum) number. Ties are all highlighted. Non-numeric and empty values
// never take part, and a row without numbers highlights nothing. In a
// highest or lowest row those values render as the placeholder; text, bool
// and list rendering only applies to rows without a highlight mode.
func BuildRow(label string, values []Value, mode HighlightMode, opts ...RowOption) Row {
	cfg := rowConfig{listLimit: DefaultListLimit, placeholder: DefaultPlaceholder}
	for _, opt := range opts {
		opt(&cfg)
	}
	if mode != HighlightHighest && mode != HighlightLowest {
		mode = HighlightNone
	}

	row := Row{
		Label:       label,
		Mode:        mode,
		Cells:       make([]Cell, 0, len(values)+cfg.pad),
		Highlighted: []int{},
	}
	for _, v := range values {
		if _, isNum := v.Numeric(); mode != HighlightNone && !isNum {
			v = Empty()
		}
		row.Cells = append(row.Cells, renderCell(v, cfg))
	}
	for i := 0; i < cfg.pad; i++ {
		row.Cells = append(row.Cells, Cell{
			Display:     cfg.placeholder,
			Kind:        KindEmpty,
			Placeholder: true,
			Padding:     true,
		})
	}

	if mode == HighlightNone {
		return row
	}
	target, ok := extreme(values, mode)
	if !ok {
		return row
	}
	for i, v := range values {
		if n, isNum := v.Numeric(); isNum && n == target {
			row.Cells[i].Highlighted = true
			row.Highlighted = append(row.Highlighted, i)
		}
	}
	return row
}

func extreme(values []Value, mode HighlightMode) (float64, bool) {
	var (
		target float64
		found  bool
	)
	for _, v := range values {
		n, ok := v.Numeric()
		if !ok {
			continue
		}
		switch {
		case !found:
			target, found = n, true
		case mode == HighlightHighest && n > target:
			target = n
		case mode == HighlightLowest && n < target:
			target = n
		}
	}
	return target, found
}

func renderCell(v Value, cfg rowConfig) Cell {
	c := Cell{Kind: v.Kind()}
	switch v.Kind() {
	case KindBool:
		present := v.flag
		c.Present = &present
		c.Display = AbsentMark
		if present {
			c.Display = PresentMark
		}
	case KindList:
		if len(v.items) == 0 {
			c.Display = cfg.placeholder
			c.Placeholder = true
			return c
		}
		shown := v.items
		if len(shown) > cfg.listLimit {
			shown = shown[:cfg.listLimit]
			c.Overflow = len(v.items) - cfg.listLimit
		}
		c.Items = append([]string(nil), shown...)
		c.Display = strings.Join(shown, ", ")
		if c.Overflow > 0 {
			c.Display += fmt.Sprintf(" +%d", c.Overflow)
		}
	case KindNumber, KindText:
		c.Display = v.String()
	default:
		c.Display = cfg.placeholder
		c.Placeholder = true
	}
	return c
}
