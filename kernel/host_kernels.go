package kernel

import (
	"context"

	"github.com/kkloberdanz/moose/internal/mooseerr"
	"github.com/kkloberdanz/moose/operator"
	"github.com/kkloberdanz/moose/placement"
	"github.com/kkloberdanz/moose/value"
)

// RegisterHostKernels wires the reference Host-placement kernel set: the
// numeric bodies are deliberately simple (the numeric
// content of the cryptographic kernels is out of scope; these are the
// plaintext arithmetic kernels, which ARE in scope and must be real,
// callable dispatch-table entries, not stubs).
func RegisterHostKernels(r *Registry) {
	r.MustRegister(operator.Constant, placement.HostKind, nil, value.Float64TensorTy, Concrete, constantKernel)
	r.MustRegister(operator.Constant, placement.HostKind, nil, value.Float32TensorTy, Concrete, constantKernel)
	r.MustRegister(operator.Constant, placement.HostKind, nil, value.Ring64TensorTy, Concrete, constantKernel)
	r.MustRegister(operator.Constant, placement.HostKind, nil, value.Float64Ty, Concrete, constantKernel)
	r.MustRegister(operator.Constant, placement.HostKind, nil, value.StringTy, Concrete, constantKernel)

	r.MustRegister(operator.Identity, placement.HostKind, []value.Ty{value.Float64TensorTy}, value.Float64TensorTy, Concrete, identityKernel)
	r.MustRegister(operator.Identity, placement.HostKind, []value.Ty{value.Float32TensorTy}, value.Float32TensorTy, Concrete, identityKernel)
	r.MustRegister(operator.Identity, placement.HostKind, []value.Ty{value.Ring64TensorTy}, value.Ring64TensorTy, Concrete, identityKernel)

	registerBinaryFloat(r, operator.StdAdd, func(a, b float64) float64 { return a + b })
	registerBinaryFloat(r, operator.StdSub, func(a, b float64) float64 { return a - b })
	registerBinaryFloat(r, operator.StdMul, func(a, b float64) float64 { return a * b })

	r.MustRegister(operator.StdSum, placement.HostKind, []value.Ty{value.Float64TensorTy}, value.Float64TensorTy, Concrete, stdSumKernel)
	r.MustRegister(operator.StdMean, placement.HostKind, []value.Ty{value.Float64TensorTy}, value.Float64TensorTy, Concrete, stdMeanKernel)
	r.MustRegister(operator.StdShape, placement.HostKind, []value.Ty{value.Float64TensorTy}, value.ShapeTy, Concrete, stdShapeKernel)
	r.MustRegister(operator.StdReshape, placement.HostKind, []value.Ty{value.Float64TensorTy, value.ShapeTy}, value.Float64TensorTy, Concrete, stdReshapeKernel)
	r.MustRegister(operator.StdOnes, placement.HostKind, []value.Ty{value.ShapeTy}, value.Float64TensorTy, Concrete, stdOnesKernel)
	r.MustRegister(operator.StdTranspose, placement.HostKind, []value.Ty{value.Float64TensorTy}, value.Float64TensorTy, Concrete, stdTransposeKernel)
	r.MustRegister(operator.StdExpandDims, placement.HostKind, []value.Ty{value.Float64TensorTy}, value.Float64TensorTy, Concrete, stdExpandDimsKernel)
	r.MustRegister(operator.StdAtLeast2D, placement.HostKind, []value.Ty{value.Float64TensorTy}, value.Float64TensorTy, Concrete, stdAtLeast2DKernel)
	r.MustRegister(operator.StdSlice, placement.HostKind, []value.Ty{value.Float64TensorTy}, value.Float64TensorTy, Concrete, stdSliceKernel)
	r.MustRegister(operator.StdConcatenate, placement.HostKind, []value.Ty{value.Float64TensorTy, value.Float64TensorTy}, value.Float64TensorTy, Concrete, stdConcatenateKernel)

	registerBinaryRing(r, operator.RingAdd, func(a, b uint64) uint64 { return a + b })
	registerBinaryRing(r, operator.RingSub, func(a, b uint64) uint64 { return a - b })
	registerBinaryRing(r, operator.RingMul, func(a, b uint64) uint64 { return a * b })
	r.MustRegister(operator.RingSum, placement.HostKind, []value.Ty{value.Ring64TensorTy}, value.Ring64TensorTy, Concrete, ringSumKernel)
	r.MustRegister(operator.RingShape, placement.HostKind, []value.Ty{value.Ring64TensorTy}, value.ShapeTy, Concrete, ringShapeKernel)
	r.MustRegister(operator.RingFill, placement.HostKind, []value.Ty{value.ShapeTy}, value.Ring64TensorTy, Concrete, ringFillKernel)
	r.MustRegister(operator.RingShl, placement.HostKind, []value.Ty{value.Ring64TensorTy}, value.Ring64TensorTy, Concrete, ringShlKernel)
	r.MustRegister(operator.RingShr, placement.HostKind, []value.Ty{value.Ring64TensorTy}, value.Ring64TensorTy, Concrete, ringShrKernel)
	r.MustRegister(operator.RingDot, placement.HostKind, []value.Ty{value.Ring64TensorTy, value.Ring64TensorTy}, value.Ring64TensorTy, Concrete, ringDotKernel)

	r.MustRegister(operator.Cast, placement.HostKind, []value.Ty{value.Float64TensorTy}, value.Ring64TensorTy, Concrete, castFloatToRingKernel)
	r.MustRegister(operator.Cast, placement.HostKind, []value.Ty{value.Ring64TensorTy}, value.Float64TensorTy, Concrete, castRingToFloatKernel)
}

func constantKernel(_ context.Context, op operator.Operator, _ []value.Value) (value.Value, error) {
	return op.ValueLiteral("value").Clone(), nil
}

func identityKernel(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
	return inputs[0].Clone(), nil
}

// registerBinaryFloat registers an elementwise kernel for both float
// tensor widths; Tensor backs Float32 and Float64 with the same Floats
// slice, so one body serves both signatures.
func registerBinaryFloat(r *Registry, kind operator.OpKind, f func(a, b float64) float64) {
	for _, ty := range []value.Ty{value.Float32TensorTy, value.Float64TensorTy} {
		r.MustRegister(kind, placement.HostKind, []value.Ty{ty, ty}, ty, Concrete,
			func(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
				return elementwiseFloat(inputs[0], inputs[1], f)
			})
	}
}

func registerBinaryRing(r *Registry, kind operator.OpKind, f func(a, b uint64) uint64) {
	r.MustRegister(kind, placement.HostKind, []value.Ty{value.Ring64TensorTy, value.Ring64TensorTy}, value.Ring64TensorTy, Concrete,
		func(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
			return elementwiseRing(inputs[0], inputs[1], f)
		})
}

func asTensor(v value.Value) (value.Tensor, error) {
	t, ok := v.(value.Tensor)
	if !ok {
		return value.Tensor{}, mooseerr.New(mooseerr.TypeMismatch, "expected tensor, got %T", v)
	}
	return t, nil
}

func elementwiseFloat(a, b value.Value, f func(x, y float64) float64) (value.Value, error) {
	ta, err := asTensor(a)
	if err != nil {
		return nil, err
	}
	tb, err := asTensor(b)
	if err != nil {
		return nil, err
	}
	if len(ta.Floats) != len(tb.Floats) {
		return nil, mooseerr.New(mooseerr.TypeMismatch, "shape mismatch: %v vs %v", ta.Shape, tb.Shape)
	}
	out := make([]float64, len(ta.Floats))
	for i := range out {
		out[i] = f(ta.Floats[i], tb.Floats[i])
	}
	return value.NewTensor(ta.Ty(), ta.Shape, out), nil
}

func elementwiseRing(a, b value.Value, f func(x, y uint64) uint64) (value.Value, error) {
	ta, err := asTensor(a)
	if err != nil {
		return nil, err
	}
	tb, err := asTensor(b)
	if err != nil {
		return nil, err
	}
	if len(ta.Ring64) != len(tb.Ring64) {
		return nil, mooseerr.New(mooseerr.TypeMismatch, "shape mismatch: %v vs %v", ta.Shape, tb.Shape)
	}
	out := make([]uint64, len(ta.Ring64))
	for i := range out {
		out[i] = f(ta.Ring64[i], tb.Ring64[i])
	}
	return value.NewTensor(ta.Ty(), ta.Shape, out), nil
}

func stdSumKernel(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
	t, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	sum := 0.0
	for _, v := range t.Floats {
		sum += v
	}
	return value.NewTensor(t.Ty(), []int64{1}, []float64{sum}), nil
}

func stdMeanKernel(ctx context.Context, op operator.Operator, inputs []value.Value) (value.Value, error) {
	t, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	sumV, err := stdSumKernel(ctx, op, inputs)
	if err != nil {
		return nil, err
	}
	sum := sumV.(value.Tensor).Floats[0]
	n := float64(len(t.Floats))
	if n == 0 {
		return nil, mooseerr.New(mooseerr.Internal, "mean of empty tensor")
	}
	return value.NewTensor(t.Ty(), []int64{1}, []float64{sum / n}), nil
}

func stdShapeKernel(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
	t, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	return value.Shape{Dims: append([]int64(nil), t.Shape...)}, nil
}

func stdReshapeKernel(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
	t, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	shape, ok := inputs[1].(value.Shape)
	if !ok {
		return nil, mooseerr.New(mooseerr.TypeMismatch, "expected Shape, got %T", inputs[1])
	}
	n := int64(1)
	for _, d := range shape.Dims {
		n *= d
	}
	if n != int64(len(t.Floats)) {
		return nil, mooseerr.New(mooseerr.TypeMismatch, "reshape: %d elements into shape %v", len(t.Floats), shape.Dims)
	}
	return value.NewTensor(t.Ty(), shape.Dims, append([]float64(nil), t.Floats...)), nil
}

func stdOnesKernel(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
	shape, ok := inputs[0].(value.Shape)
	if !ok {
		return nil, mooseerr.New(mooseerr.TypeMismatch, "expected Shape, got %T", inputs[0])
	}
	n := int64(1)
	for _, d := range shape.Dims {
		n *= d
	}
	data := make([]float64, n)
	for i := range data {
		data[i] = 1.0
	}
	return value.NewTensor(value.Float64TensorTy, shape.Dims, data), nil
}

func stdTransposeKernel(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
	t, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	if len(t.Shape) != 2 {
		return nil, mooseerr.New(mooseerr.Internal, "transpose requires a 2-D tensor, got shape %v", t.Shape)
	}
	rows, cols := t.Shape[0], t.Shape[1]
	out := make([]float64, len(t.Floats))
	for r := int64(0); r < rows; r++ {
		for c := int64(0); c < cols; c++ {
			out[c*rows+r] = t.Floats[r*cols+c]
		}
	}
	return value.NewTensor(t.Ty(), []int64{cols, rows}, out), nil
}

func stdExpandDimsKernel(_ context.Context, op operator.Operator, inputs []value.Value) (value.Value, error) {
	t, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	axis := op.IntOr("axis", 0)
	shape := append([]int64(nil), t.Shape...)
	if axis < 0 || axis > int64(len(shape)) {
		return nil, mooseerr.New(mooseerr.Internal, "expand_dims axis %d out of range for shape %v", axis, shape)
	}
	shape = append(shape[:axis], append([]int64{1}, shape[axis:]...)...)
	return value.NewTensor(t.Ty(), shape, append([]float64(nil), t.Floats...)), nil
}

func stdAtLeast2DKernel(_ context.Context, op operator.Operator, inputs []value.Value) (value.Value, error) {
	t, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	if len(t.Shape) >= 2 {
		return t.Clone(), nil
	}
	toColumn := op.BoolOr("to_column_vector", false)
	n := int64(len(t.Floats))
	shape := []int64{1, n}
	if toColumn {
		shape = []int64{n, 1}
	}
	return value.NewTensor(t.Ty(), shape, append([]float64(nil), t.Floats...)), nil
}

func stdSliceKernel(_ context.Context, op operator.Operator, inputs []value.Value) (value.Value, error) {
	t, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	start := op.IntOr("start", 0)
	end := op.IntOr("end", int64(len(t.Floats)))
	if start < 0 || end > int64(len(t.Floats)) || start > end {
		return nil, mooseerr.New(mooseerr.Internal, "slice [%d:%d] out of range for length %d", start, end, len(t.Floats))
	}
	data := append([]float64(nil), t.Floats[start:end]...)
	return value.NewTensor(t.Ty(), []int64{int64(len(data))}, data), nil
}

func stdConcatenateKernel(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
	ta, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	tb, err := asTensor(inputs[1])
	if err != nil {
		return nil, err
	}
	data := append(append([]float64(nil), ta.Floats...), tb.Floats...)
	return value.NewTensor(ta.Ty(), []int64{int64(len(data))}, data), nil
}

func ringSumKernel(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
	t, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	var sum uint64
	for _, v := range t.Ring64 {
		sum += v
	}
	return value.NewTensor(t.Ty(), []int64{1}, []uint64{sum}), nil
}

func ringShapeKernel(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
	t, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	return value.Shape{Dims: append([]int64(nil), t.Shape...)}, nil
}

func ringFillKernel(_ context.Context, op operator.Operator, inputs []value.Value) (value.Value, error) {
	shape, ok := inputs[0].(value.Shape)
	if !ok {
		return nil, mooseerr.New(mooseerr.TypeMismatch, "expected Shape, got %T", inputs[0])
	}
	fillValue := uint64(op.IntOr("value", 0))
	n := int64(1)
	for _, d := range shape.Dims {
		n *= d
	}
	data := make([]uint64, n)
	for i := range data {
		data[i] = fillValue
	}
	return value.NewTensor(value.Ring64TensorTy, shape.Dims, data), nil
}

func ringShlKernel(_ context.Context, op operator.Operator, inputs []value.Value) (value.Value, error) {
	t, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	amount := uint(op.IntOr("amount", 0))
	out := make([]uint64, len(t.Ring64))
	for i, v := range t.Ring64 {
		out[i] = v << amount
	}
	return value.NewTensor(t.Ty(), t.Shape, out), nil
}

func ringShrKernel(_ context.Context, op operator.Operator, inputs []value.Value) (value.Value, error) {
	t, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	amount := uint(op.IntOr("amount", 0))
	out := make([]uint64, len(t.Ring64))
	for i, v := range t.Ring64 {
		out[i] = v >> amount
	}
	return value.NewTensor(t.Ty(), t.Shape, out), nil
}

func ringDotKernel(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
	ta, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	tb, err := asTensor(inputs[1])
	if err != nil {
		return nil, err
	}
	if len(ta.Ring64) != len(tb.Ring64) {
		return nil, mooseerr.New(mooseerr.TypeMismatch, "dot: length mismatch %d vs %d", len(ta.Ring64), len(tb.Ring64))
	}
	var sum uint64
	for i := range ta.Ring64 {
		sum += ta.Ring64[i] * tb.Ring64[i]
	}
	return value.NewTensor(ta.Ty(), []int64{1}, []uint64{sum}), nil
}

func castFloatToRingKernel(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
	t, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	out := make([]uint64, len(t.Floats))
	for i, v := range t.Floats {
		out[i] = uint64(int64(v))
	}
	return value.NewTensor(value.Ring64TensorTy, t.Shape, out), nil
}

func castRingToFloatKernel(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
	t, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(t.Ring64))
	for i, v := range t.Ring64 {
		out[i] = float64(int64(v))
	}
	return value.NewTensor(value.Float64TensorTy, t.Shape, out), nil
}
