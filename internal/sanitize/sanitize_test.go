package sanitize

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValue_Scalars(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want interface{}
	}{
		{"finite float", 50.25, 50.25},
		{"nan", math.NaN(), nil},
		{"+inf", math.Inf(1), nil},
		{"-inf", math.Inf(-1), nil},
		{"float32 nan", float32(math.NaN()), nil},
		{"float32 finite", float32(1.5), float32(1.5)},
		{"int", 42, 42},
		{"int64", int64(7), int64(7)},
		{"string", "NASDAQ:AAPL", "NASDAQ:AAPL"},
		{"bool", true, true},
		{"nil", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Value(tt.in))
		})
	}
}

func TestValue_Nested(t *testing.T) {
	in := map[string]interface{}{
		"RSI":    math.NaN(),
		"close":  50.25,
		"volume": 1_200_000,
		"label":  "ok",
		"bands": map[string]interface{}{
			"upper": math.Inf(1),
			"lower": 48.0,
			"hist":  []interface{}{1.0, math.NaN(), "x", []interface{}{math.Inf(-1)}},
		},
		"series": []float64{1, math.NaN()},
	}

	got := Value(in)

	want := map[string]interface{}{
		"RSI":    nil,
		"close":  50.25,
		"volume": 1_200_000,
		"label":  "ok",
		"bands": map[string]interface{}{
			"upper": nil,
			"lower": 48.0,
			"hist":  []interface{}{1.0, nil, "x", []interface{}{nil}},
		},
		"series": []interface{}{1.0, nil},
	}
	assert.Equal(t, want, got)

	// input untouched
	assert.True(t, math.IsNaN(in["RSI"].(float64)))

	// idempotent
	assert.Equal(t, got, Value(got))

	// serializable
	_, err := json.Marshal(got)
	require.NoError(t, err)
}

type indicatorSet map[string]interface{}

type price float64

func TestValue_OtherContainerShapes(t *testing.T) {
	in := map[string]interface{}{
		"list_of_maps": []map[string]interface{}{{"x": math.NaN(), "y": 2.0}},
		"named_map":    indicatorSet{"y": math.Inf(1), "z": "ok"},
		"float_map":    map[string]float32{"k": float32(math.Inf(-1))},
		"array":        [2]float64{1, math.NaN()},
		"named_float":  price(math.NaN()),
		"nested":       [][]float64{{math.Inf(1), 3}},
		"raw":          []byte("abc"),
		"int_keys":     map[int]string{1: "a"},
	}

	got := Value(in)

	want := map[string]interface{}{
		"list_of_maps": []interface{}{map[string]interface{}{"x": nil, "y": 2.0}},
		"named_map":    map[string]interface{}{"y": nil, "z": "ok"},
		"float_map":    map[string]interface{}{"k": nil},
		"array":        []interface{}{1.0, nil},
		"named_float":  nil,
		"nested":       []interface{}{[]interface{}{nil, 3.0}},
		"raw":          []byte("abc"),
		"int_keys":     map[int]string{1: "a"},
	}
	assert.Equal(t, want, got)

	assert.Equal(t, got, Value(got))

	_, err := json.Marshal(got)
	require.NoError(t, err)
}

func TestValue_NilContainers(t *testing.T) {
	var maps []map[string]interface{}
	var named indicatorSet

	assert.Equal(t, []interface{}(nil), Value(maps))
	assert.Equal(t, map[string]interface{}(nil), Value(named))
}

func TestMap_Nil(t *testing.T) {
	assert.Nil(t, Map(nil))
	assert.Equal(t, map[string]interface{}{}, Map(map[string]interface{}{}))
}

func TestFinite(t *testing.T) {
	assert.True(t, Finite(0))
	assert.False(t, Finite(math.NaN()))
	assert.False(t, Finite(math.Inf(1)))
}
