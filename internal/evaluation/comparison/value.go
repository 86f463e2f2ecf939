// Package comparison builds the side-by-side comparison view: per-row
// highlighting of the best or worst numeric value, the union offering
// availability matrix, and the size-bounded comparison set. Nothing in here
// keeps state between calls.
package comparison

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
)

var ErrUnsupportedValue = errors.New("unsupported comparison value")

// Kind tags which variant a Value holds.
type Kind string

const (
	KindEmpty  Kind = "empty"
	KindNumber Kind = "number"
	KindBool   Kind = "bool"
	KindList   Kind = "list"
	KindText   Kind = "text"
)

// Value is one comparable cell value. The zero Value is Empty.
type Value struct {
	kind  Kind
	num   float64
	flag  bool
	items []string
	text  string
}

func Empty() Value { return Value{kind: KindEmpty} }

// Number wraps v. NaN and infinities carry no usable data and become Empty.
func Number(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Empty()
	}
	return Value{kind: KindNumber, num: v}
}

// NumberPtr is Number for optional scores; nil becomes Empty.
func NumberPtr(v *float64) Value {
	if v == nil {
		return Empty()
	}
	return Number(*v)
}

func Bool(v bool) Value { return Value{kind: KindBool, flag: v} }

func Text(s string) Value { return Value{kind: KindText, text: s} }

func List(items ...string) Value {
	return Value{kind: KindList, items: append([]string(nil), items...)}
}

// Kind reports the variant. The zero Value reports KindEmpty.
func (v Value) Kind() Kind {
	if v.kind == "" {
		return KindEmpty
	}
	return v.kind
}

// Numeric returns the number held by v. Only KindNumber takes part in
// highlighting; a numeric-looking Text does not.
func (v Value) Numeric() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

func (v Value) Items() []string { return append([]string(nil), v.items...) }

// String is the plain string conversion used for Number and Text cells.
func (v Value) String() string {
	switch v.Kind() {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.flag)
	case KindText:
		return v.text
	case KindList:
		return fmt.Sprint(v.items)
	default:
		return ""
	}
}

// FromAny converts a decoded JSON or YAML value into a Value.
func FromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return Empty(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return Text(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int32:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case uint:
		return Number(float64(t)), nil
	case uint32:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q", ErrUnsupportedValue, t.String())
		}
		return Number(f), nil
	case *float64:
		return NumberPtr(t), nil
	case []string:
		return List(t...), nil
	case []any:
		items := make([]string, 0, len(t))
		for i, item := range t {
			s, ok := item.(string)
			if !ok {
				return Value{}, fmt.Errorf("%w: list item %d is %T", ErrUnsupportedValue, i, item)
			}
			items = append(items, s)
		}
		return List(items...), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValue, raw)
	}
}

// MarshalJSON writes the value back in its natural JSON form.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind() {
	case KindNumber:
		return json.Marshal(v.num)
	case KindBool:
		return json.Marshal(v.flag)
	case KindText:
		return json.Marshal(v.text)
	case KindList:
		if v.items == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.items)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts any shape FromAny does.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
