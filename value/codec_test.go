package value_test

import (
	"testing"

	"github.com/kkloberdanz/moose/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		v    value.Value
	}{
		{"unit", value.UnitValue{}},
		{"ring64", value.Ring64(42)},
		{"ring128", value.Ring128{Hi: 1, Lo: 2}},
		{"float32", value.Float32Value(1.5)},
		{"float64", value.Float64Value(-2.25)},
		{"string", value.StringValue("hello")},
		{"bool", value.BoolValue(true)},
		{"shape", value.Shape{Dims: []int64{1, 2, 3}}},
		{"seed", value.NewBytes(value.SeedTy, make([]byte, 16))},
		{"float64tensor", value.NewTensor(value.Float64TensorTy, []int64{2}, []float64{1, 2})},
		{"ring64tensor", value.NewTensor(value.Ring64TensorTy, []int64{2}, []uint64{10, 20})},
		{
			"ring128tensor",
			value.NewTensor(value.Ring128TensorTy, []int64{2}, []value.Ring128{{Hi: 1, Lo: 2}, {Hi: 3, Lo: 4}}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := value.Encode(tt.v)
			require.NoError(t, err)

			decoded, err := value.Decode(encoded)
			require.NoError(t, err)

			assert.True(t, tt.v.Equal(decoded), "expected %v, got %v", tt.v, decoded)
		})
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := value.Decode([]byte{0xff, 0x00, 0x01})
	assert.Error(t, err)
}
