package kernel

import (
	"context"
	"crypto/rand"

	"github.com/kkloberdanz/moose/internal/mooseerr"
	"github.com/kkloberdanz/moose/operator"
	"github.com/kkloberdanz/moose/placement"
	"github.com/kkloberdanz/moose/value"
)

// RegisterBitKernels wires the Host-placement bit-tensor kernels used by
// the replicated/additive boolean-share conversions (Ring64Tensor's
// least-significant bits packed one-per-element into Ints, mirroring how
// Tensor already overloads Ints for the ElemBit family).
func RegisterBitKernels(r *Registry) {
	r.MustRegister(operator.BitExtract, placement.HostKind, []value.Ty{value.Ring64TensorTy}, value.BitTensorTy, Concrete, bitExtractKernel)
	r.MustRegister(operator.BitSample, placement.HostKind, []value.Ty{value.ShapeTy}, value.BitTensorTy, Concrete, bitSampleKernel)
	r.MustRegister(operator.BitFill, placement.HostKind, []value.Ty{value.ShapeTy}, value.BitTensorTy, Concrete, bitFillKernel)
	r.MustRegister(operator.BitXor, placement.HostKind, []value.Ty{value.BitTensorTy, value.BitTensorTy}, value.BitTensorTy, Concrete, bitXorKernel)
	r.MustRegister(operator.BitAnd, placement.HostKind, []value.Ty{value.BitTensorTy, value.BitTensorTy}, value.BitTensorTy, Concrete, bitAndKernel)
}

func bitExtractKernel(_ context.Context, op operator.Operator, inputs []value.Value) (value.Value, error) {
	t, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	bitIndex := uint(op.IntOr("bit_index", 0))
	out := make([]int64, len(t.Ring64))
	for i, v := range t.Ring64 {
		out[i] = int64((v >> bitIndex) & 1)
	}
	return value.NewTensor(value.BitTensorTy, t.Shape, out), nil
}

func bitSampleKernel(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
	shape, ok := inputs[0].(value.Shape)
	if !ok {
		return nil, mooseerr.New(mooseerr.TypeMismatch, "expected Shape, got %T", inputs[0])
	}
	n := int64(1)
	for _, d := range shape.Dims {
		n *= d
	}
	raw := make([]byte, n)
	if _, err := rand.Read(raw); err != nil {
		return nil, mooseerr.Wrap(mooseerr.Internal, err, "bit sample")
	}
	out := make([]int64, n)
	for i, b := range raw {
		out[i] = int64(b & 1)
	}
	return value.NewTensor(value.BitTensorTy, shape.Dims, out), nil
}

func bitFillKernel(_ context.Context, op operator.Operator, inputs []value.Value) (value.Value, error) {
	shape, ok := inputs[0].(value.Shape)
	if !ok {
		return nil, mooseerr.New(mooseerr.TypeMismatch, "expected Shape, got %T", inputs[0])
	}
	bit := op.IntOr("value", 0) & 1
	n := int64(1)
	for _, d := range shape.Dims {
		n *= d
	}
	out := make([]int64, n)
	for i := range out {
		out[i] = bit
	}
	return value.NewTensor(value.BitTensorTy, shape.Dims, out), nil
}

func bitXorKernel(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
	return elementwiseBit(inputs[0], inputs[1], func(a, b int64) int64 { return a ^ b })
}

func bitAndKernel(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
	return elementwiseBit(inputs[0], inputs[1], func(a, b int64) int64 { return a & b })
}

func elementwiseBit(a, b value.Value, f func(x, y int64) int64) (value.Value, error) {
	ta, err := asTensor(a)
	if err != nil {
		return nil, err
	}
	tb, err := asTensor(b)
	if err != nil {
		return nil, err
	}
	if len(ta.Ints) != len(tb.Ints) {
		return nil, mooseerr.New(mooseerr.TypeMismatch, "shape mismatch: %v vs %v", ta.Shape, tb.Shape)
	}
	out := make([]int64, len(ta.Ints))
	for i := range out {
		out[i] = f(ta.Ints[i], tb.Ints[i])
	}
	return value.NewTensor(ta.Ty(), ta.Shape, out), nil
}
