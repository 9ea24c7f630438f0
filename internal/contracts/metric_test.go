package contracts

import (
	"encoding/json"
	"math"
	"testing"
)

func TestMetric_Defined(t *testing.T) {
	tests := []struct {
		name    string
		metric  Metric
		defined bool
		value   float64
	}{
		{name: "zero value is undefined", metric: Metric{}, defined: false},
		{name: "explicit undefined", metric: Undefined(), defined: false},
		{name: "defined zero", metric: Defined(0), defined: true, value: 0},
		{name: "defined negative", metric: Defined(-1.5), defined: true, value: -1.5},
		{name: "NaN is undefined", metric: Defined(math.NaN()), defined: false},
		{name: "+Inf is undefined", metric: Defined(math.Inf(1)), defined: false},
		{name: "-Inf is undefined", metric: Defined(math.Inf(-1)), defined: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := tt.metric.Get()
			if ok != tt.defined {
				t.Errorf("Get() defined = %v, want %v", ok, tt.defined)
			}
			if ok && v != tt.value {
				t.Errorf("Get() value = %v, want %v", v, tt.value)
			}
		})
	}
}

func TestMetric_ValueOrAndPtr(t *testing.T) {
	if got := Undefined().ValueOr(7); got != 7 {
		t.Errorf("ValueOr() = %v, want 7", got)
	}
	if got := Defined(0).ValueOr(7); got != 0 {
		t.Errorf("ValueOr() = %v, want 0", got)
	}
	if Undefined().Ptr() != nil {
		t.Error("Ptr() of undefined should be nil")
	}

	v := 3.5
	m := MetricFromPtr(&v)
	if p := m.Ptr(); p == nil || *p != 3.5 {
		t.Errorf("Ptr() round trip failed: %v", p)
	}
	if MetricFromPtr(nil).IsDefined() {
		t.Error("MetricFromPtr(nil) should be undefined")
	}
}

func TestMetric_JSON(t *testing.T) {
	type row struct {
		A Metric `json:"a"`
		B Metric `json:"b"`
	}

	data, err := json.Marshal(row{A: Defined(0.25)})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != `{"a":0.25,"b":null}` {
		t.Errorf("Marshal = %s", data)
	}

	var decoded row
	if err := json.Unmarshal([]byte(`{"a":null,"b":0}`), &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if decoded.A.IsDefined() {
		t.Error("null should decode as undefined")
	}
	if v, ok := decoded.B.Get(); !ok || v != 0 {
		t.Errorf("0 should decode as defined zero, got %v", decoded.B)
	}
}

func TestFlag(t *testing.T) {
	tests := []struct {
		flag  Flag
		known bool
		isTrue bool
		json  string
	}{
		{FlagUnknown, false, false, "null"},
		{FlagFalse, true, false, "false"},
		{FlagTrue, true, true, "true"},
	}

	for _, tt := range tests {
		t.Run(tt.flag.String(), func(t *testing.T) {
			if tt.flag.IsKnown() != tt.known {
				t.Errorf("IsKnown() = %v, want %v", tt.flag.IsKnown(), tt.known)
			}
			if tt.flag.IsTrue() != tt.isTrue {
				t.Errorf("IsTrue() = %v, want %v", tt.flag.IsTrue(), tt.isTrue)
			}
			data, err := json.Marshal(tt.flag)
			if err != nil {
				t.Fatalf("Marshal failed: %v", err)
			}
			if string(data) != tt.json {
				t.Errorf("Marshal = %s, want %s", data, tt.json)
			}

			var decoded Flag
			if err := json.Unmarshal(data, &decoded); err != nil {
				t.Fatalf("Unmarshal failed: %v", err)
			}
			if decoded != tt.flag {
				t.Errorf("round trip = %v, want %v", decoded, tt.flag)
			}
		})
	}

	if FlagOf(true) != FlagTrue || FlagOf(false) != FlagFalse {
		t.Error("FlagOf mismatch")
	}
}
