package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ValueKind discriminates the variants of a metadata Value.
type ValueKind int

const (
	KindNull ValueKind = iota
	KindString
	KindNumber
	KindBool
	KindDate
)

// Value is a tagged-union metadata value. Coercion and formula evaluation
// branch on Kind instead of relying on dynamic type tests.
type Value struct {
	Kind ValueKind
	Str  string
	Num  float64
	Bool bool
	Time time.Time
}

// Null returns the null value.
func Null() Value { return Value{Kind: KindNull} }

// String returns a string value.
func String(s string) Value { return Value{Kind: KindString, Str: s} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Boolean returns a boolean value.
func Boolean(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Date returns a date value.
func Date(t time.Time) Value { return Value{Kind: KindDate, Time: t} }

// FromAny converts an arbitrary Go value (e.g., a formula result or a
// decoded JSON value) into a Value. Unknown types are stringified.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case string:
		return String(x)
	case bool:
		return Boolean(x)
	case float64:
		return Number(x)
	case float32:
		return Number(float64(x))
	case int:
		return Number(float64(x))
	case int32:
		return Number(float64(x))
	case int64:
		return Number(float64(x))
	case uint:
		return Number(float64(x))
	case uint64:
		return Number(float64(x))
	case time.Time:
		return Date(x)
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return Number(f)
		}
		return String(x.String())
	default:
		return String(fmt.Sprintf("%v", x))
	}
}

// Interface returns the native Go representation of the value.
// Dates are rendered as ISO-8601 strings so that formulas and JSON
// serialization see the same shape.
func (v Value) Interface() any {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		return v.Num
	case KindBool:
		return v.Bool
	case KindDate:
		return v.Time.UTC().Format(time.RFC3339)
	default:
		return nil
	}
}

// IsNull reports whether the value is null.
func (v Value) IsNull() bool { return v.Kind == KindNull }

// IsBlank reports whether the value is null or an empty/whitespace string.
func (v Value) IsBlank() bool {
	if v.Kind == KindNull {
		return true
	}
	if v.Kind == KindString {
		return strings.TrimSpace(v.Str) == ""
	}
	return false
}

// Display renders the value for human consumption.
func (v Value) Display() string {
	switch v.Kind {
	case KindString:
		return v.Str
	case KindNumber:
		if v.Num == math.Trunc(v.Num) && !math.IsInf(v.Num, 0) {
			return strconv.FormatFloat(v.Num, 'f', 0, 64)
		}
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindDate:
		return v.Time.UTC().Format(time.RFC3339)
	default:
		return ""
	}
}

// MarshalJSON writes the bare JSON form of the value.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON reads a bare JSON value, inferring the kind. ISO date
// strings deserialize as strings; callers that need a date re-coerce
// through the row mapper.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}

// Record is a metadata record: field id -> value, plus computed
// relationship outputs keyed by relationship id.
type Record map[string]Value

// Env returns the record as a plain map for formula evaluation.
func (r Record) Env() map[string]any {
	env := make(map[string]any, len(r))
	for k, v := range r {
		env[k] = v.Interface()
	}
	return env
}
