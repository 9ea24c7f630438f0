package contracts

import (
	"encoding/json"
	"math"
	"strconv"
)

// Metric is a real number that may be undefined.
// Undefined is a distinct state: it is never coerced to zero.
// The zero value is undefined.
type Metric struct {
	value   float64
	defined bool
}

// Defined returns a defined metric. NaN and ±Inf are treated as undefined.
func Defined(v float64) Metric {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Metric{}
	}
	return Metric{value: v, defined: true}
}

// Undefined returns an undefined metric
func Undefined() Metric {
	return Metric{}
}

// MetricFromPtr converts a nullable column value
func MetricFromPtr(p *float64) Metric {
	if p == nil {
		return Metric{}
	}
	return Defined(*p)
}

// Get returns the value and whether it is defined
func (m Metric) Get() (float64, bool) {
	return m.value, m.defined
}

// IsDefined reports whether the metric holds a value
func (m Metric) IsDefined() bool {
	return m.defined
}

// ValueOr returns the value, or fallback when undefined
func (m Metric) ValueOr(fallback float64) float64 {
	if !m.defined {
		return fallback
	}
	return m.value
}

// Ptr returns nil for undefined metrics (for nullable DB columns)
func (m Metric) Ptr() *float64 {
	if !m.defined {
		return nil
	}
	v := m.value
	return &v
}

// String renders "n/a" for undefined metrics
func (m Metric) String() string {
	if !m.defined {
		return "n/a"
	}
	return strconv.FormatFloat(m.value, 'g', -1, 64)
}

// MarshalJSON encodes undefined as null
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.defined {
		return []byte("null"), nil
	}
	return json.Marshal(m.value)
}

// UnmarshalJSON decodes null as undefined
func (m *Metric) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*m = Metric{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Defined(v)
	return nil
}

// Flag is a tri-state boolean: true, false or unknown.
// The zero value is FlagUnknown.
type Flag int8

const (
	FlagUnknown Flag = iota
	FlagFalse
	FlagTrue
)

// FlagOf converts a plain bool
func FlagOf(b bool) Flag {
	if b {
		return FlagTrue
	}
	return FlagFalse
}

// IsTrue reports a known true value; unknown is not true
func (f Flag) IsTrue() bool {
	return f == FlagTrue
}

// IsKnown reports whether the flag was computed
func (f Flag) IsKnown() bool {
	return f != FlagUnknown
}

func (f Flag) String() string {
	switch f {
	case FlagTrue:
		return "true"
	case FlagFalse:
		return "false"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes unknown as null
func (f Flag) MarshalJSON() ([]byte, error) {
	switch f {
	case FlagTrue:
		return []byte("true"), nil
	case FlagFalse:
		return []byte("false"), nil
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes null as unknown
func (f *Flag) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "true":
		*f = FlagTrue
	case "false":
		*f = FlagFalse
	case "null":
		*f = FlagUnknown
	default:
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*f = FlagOf(b)
	}
	return nil
}

// Ptr returns nil for unknown flags (for nullable DB columns)
func (f Flag) Ptr() *bool {
	if f == FlagUnknown {
		return nil
	}
	b := f == FlagTrue
	return &b
}
