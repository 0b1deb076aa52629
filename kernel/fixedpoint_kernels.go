package kernel

import (
	"context"
	"math"

	"github.com/kkloberdanz/moose/operator"
	"github.com/kkloberdanz/moose/placement"
	"github.com/kkloberdanz/moose/value"
)

// RegisterFixedpointKernels wires the fixedpoint<->ring encoding kernels:
// a float is scaled by 2^precision, rounded, and reinterpreted as a ring
// element (two's-complement style via uint64 wraparound), the standard
// representation for fixedpoint arithmetic over a secret-shared ring.
func RegisterFixedpointKernels(r *Registry) {
	r.MustRegister(operator.FixedpointEncode, placement.HostKind, []value.Ty{value.Float64TensorTy}, value.Float64TensorTy, Concrete, fixedpointEncodeKernel)
	r.MustRegister(operator.FixedpointDecode, placement.HostKind, []value.Ty{value.Float64TensorTy}, value.Float64TensorTy, Concrete, fixedpointDecodeKernel)
	r.MustRegister(operator.FixedpointRingEncode, placement.HostKind, []value.Ty{value.Float64TensorTy}, value.Ring64TensorTy, Concrete, fixedpointRingEncodeKernel)
	r.MustRegister(operator.FixedpointRingDecode, placement.HostKind, []value.Ty{value.Ring64TensorTy}, value.Float64TensorTy, Concrete, fixedpointRingDecodeKernel)
	r.MustRegister(operator.FixedpointRingMean, placement.HostKind, []value.Ty{value.Ring64TensorTy}, value.Ring64TensorTy, Concrete, fixedpointRingMeanKernel)
}

func scaleOf(op operator.Operator) float64 {
	precision := op.IntOr("precision", 16)
	return math.Pow(2, float64(precision))
}

func fixedpointEncodeKernel(_ context.Context, op operator.Operator, inputs []value.Value) (value.Value, error) {
	t, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	scale := scaleOf(op)
	out := make([]float64, len(t.Floats))
	for i, v := range t.Floats {
		out[i] = math.Round(v * scale)
	}
	return value.NewTensor(t.Ty(), t.Shape, out), nil
}

func fixedpointDecodeKernel(_ context.Context, op operator.Operator, inputs []value.Value) (value.Value, error) {
	t, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	scale := scaleOf(op)
	out := make([]float64, len(t.Floats))
	for i, v := range t.Floats {
		out[i] = v / scale
	}
	return value.NewTensor(t.Ty(), t.Shape, out), nil
}

func fixedpointRingEncodeKernel(_ context.Context, op operator.Operator, inputs []value.Value) (value.Value, error) {
	t, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	scale := scaleOf(op)
	out := make([]uint64, len(t.Floats))
	for i, v := range t.Floats {
		out[i] = uint64(int64(math.Round(v * scale)))
	}
	return value.NewTensor(value.Ring64TensorTy, t.Shape, out), nil
}

func fixedpointRingDecodeKernel(_ context.Context, op operator.Operator, inputs []value.Value) (value.Value, error) {
	t, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	scale := scaleOf(op)
	out := make([]float64, len(t.Ring64))
	for i, v := range t.Ring64 {
		out[i] = float64(int64(v)) / scale
	}
	return value.NewTensor(value.Float64TensorTy, t.Shape, out), nil
}

func fixedpointRingMeanKernel(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
	t, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	var sum int64
	for _, v := range t.Ring64 {
		sum += int64(v)
	}
	n := int64(len(t.Ring64))
	if n == 0 {
		n = 1
	}
	return value.NewTensor(t.Ty(), []int64{1}, []uint64{uint64(sum / n)}), nil
}
