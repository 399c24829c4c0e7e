package feature

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind discriminates the raw value variants a payload can carry.
type Kind uint8

// Value kinds.
const (
	KindAbsent Kind = iota
	KindNumber
	KindText
	KindBoolean
)

func (k Kind) String() string {
	switch k {
	case KindAbsent:
		return "absent"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindBoolean:
		return "boolean"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a closed variant over {Number, Text, Boolean, Absent}.
// The zero Value is Absent.
type Value struct {
	kind Kind
	num  float64
	text string
	b    bool
}

// Absent returns the absent value.
func Absent() Value { return Value{} }

// Number wraps a float.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Text wraps a string.
func Text(s string) Value { return Value{kind: KindText, text: s} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBoolean, b: b} }

// FromAny converts a decoded JSON/YAML scalar into a Value.
// Unsupported types (maps, slices) become Text of their fmt representation.
func FromAny(v any) Value {
	switch t := v.(type) {
	case nil:
		return Absent()
	case Value:
		return t
	case bool:
		return Bool(t)
	case string:
		return Text(t)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int8:
		return Number(float64(t))
	case int16:
		return Number(float64(t))
	case int32:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case uint:
		return Number(float64(t))
	case uint8:
		return Number(float64(t))
	case uint16:
		return Number(float64(t))
	case uint32:
		return Number(float64(t))
	case uint64:
		return Number(float64(t))
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Text(t.String())
		}
		return Number(f)
	default:
		return Text(fmt.Sprint(t))
	}
}

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

// IsAbsent reports whether the value is absent.
func (v Value) IsAbsent() bool { return v.kind == KindAbsent }

// IsBlank reports whether the value is absent or whitespace-only text.
func (v Value) IsBlank() bool {
	switch v.kind {
	case KindAbsent:
		return true
	case KindText:
		return strings.TrimSpace(v.text) == ""
	default:
		return false
	}
}

// Float returns the number payload. ok is false for non-Number values.
func (v Value) Float() (float64, bool) { return v.num, v.kind == KindNumber }

// Str returns the text payload. ok is false for non-Text values.
func (v Value) Str() (string, bool) { return v.text, v.kind == KindText }

// Boolean returns the boolean payload. ok is false for non-Boolean values.
func (v Value) Boolean() (bool, bool) { return v.b, v.kind == KindBoolean }

// AsFloat parses the value as a finite float.
// Booleans count as 1/0, text is trimmed before parsing.
func (v Value) AsFloat() (float64, bool) {
	var f float64
	switch v.kind {
	case KindNumber:
		f = v.num
	case KindBoolean:
		if v.b {
			f = 1
		}
	case KindText:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.text), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	case KindAbsent:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Truthy casts the value to a boolean: non-zero numbers, non-empty text, true.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNumber:
		return v.num != 0
	case KindText:
		return v.text != ""
	case KindBoolean:
		return v.b
	default:
		return false
	}
}

// String returns the text form of the value. Absent is the empty string.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindText:
		return v.text
	case KindBoolean:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Canonical returns the trimmed, lower-cased text form.
func (v Value) Canonical() string {
	return strings.ToLower(strings.TrimSpace(v.String()))
}

// Any unwraps the value for generic encoders. Absent becomes nil.
func (v Value) Any() any {
	switch v.kind {
	case KindNumber:
		return v.num
	case KindText:
		return v.text
	case KindBoolean:
		return v.b
	default:
		return nil
	}
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNumber:
		return v.num == o.num
	case KindText:
		return v.text == o.text
	case KindBoolean:
		return v.b == o.b
	default:
		return true
	}
}

// MarshalJSON encodes the value as its natural JSON scalar.
func (v Value) MarshalJSON() ([]byte, error) {
	b, err := json.Marshal(v.Any())
	if err != nil {
		return nil, fmt.Errorf("marshal %s value: %w", v.kind, err)
	}
	return b, nil
}

// UnmarshalJSON decodes any JSON scalar. Objects and arrays are rejected.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	switch raw.(type) {
	case map[string]any, []any:
		return fmt.Errorf("feature value must be a scalar, got %s", string(data))
	}
	*v = FromAny(raw)
	return nil
}
