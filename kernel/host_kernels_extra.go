package kernel

import (
	"context"

	"github.com/kkloberdanz/moose/internal/mooseerr"
	"github.com/kkloberdanz/moose/operator"
	"github.com/kkloberdanz/moose/placement"
	"github.com/kkloberdanz/moose/value"
)

// RegisterHostKernelsExtra wires the remaining Host kernels that need
// richer bodies than the elementwise/shape helpers in host_kernels.go:
// randomness sampling, ring injection from a smaller ring, and the two
// linear-algebra ops: StdDot (2-D matrices, or two 1-D vectors) and
// StdInverse (2-D matrices).
func RegisterHostKernelsExtra(r *Registry) {
	r.MustRegister(operator.RingSample, placement.HostKind, []value.Ty{value.ShapeTy}, value.Ring64TensorTy, Concrete, ringSampleKernel)
	r.MustRegister(operator.RingInject, placement.HostKind, []value.Ty{value.BitTensorTy}, value.Ring64TensorTy, Concrete, ringInjectKernel)
	r.MustRegister(operator.StdDot, placement.HostKind, []value.Ty{value.Float64TensorTy, value.Float64TensorTy}, value.Float64TensorTy, Concrete, stdDotKernel)
	r.MustRegister(operator.StdInverse, placement.HostKind, []value.Ty{value.Float64TensorTy}, value.Float64TensorTy, Concrete, stdInverseKernel)
}

func ringSampleKernel(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
	shape, ok := inputs[0].(value.Shape)
	if !ok {
		return nil, mooseerr.New(mooseerr.TypeMismatch, "expected Shape, got %T", inputs[0])
	}
	n := int64(1)
	for _, d := range shape.Dims {
		n *= d
	}
	return value.NewTensor(value.Ring64TensorTy, shape.Dims, randomRing64(int(n))), nil
}

func ringInjectKernel(_ context.Context, op operator.Operator, inputs []value.Value) (value.Value, error) {
	t, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	bitIndex := uint(op.IntOr("bit_index", 0))
	out := make([]uint64, len(t.Ints))
	for i, bit := range t.Ints {
		out[i] = uint64(bit&1) << bitIndex
	}
	return value.NewTensor(value.Ring64TensorTy, t.Shape, out), nil
}

// stdDotKernel computes matrix-matrix product for 2-D tensors, or a dot
// product reduction when both inputs are 1-D.
func stdDotKernel(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
	a, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	b, err := asTensor(inputs[1])
	if err != nil {
		return nil, err
	}
	if len(a.Shape) == 1 && len(b.Shape) == 1 {
		if len(a.Floats) != len(b.Floats) {
			return nil, mooseerr.New(mooseerr.TypeMismatch, "dot: length mismatch %d vs %d", len(a.Floats), len(b.Floats))
		}
		var sum float64
		for i := range a.Floats {
			sum += a.Floats[i] * b.Floats[i]
		}
		return value.NewTensor(a.Ty(), []int64{1}, []float64{sum}), nil
	}
	if len(a.Shape) != 2 || len(b.Shape) != 2 || a.Shape[1] != b.Shape[0] {
		return nil, mooseerr.New(mooseerr.TypeMismatch, "dot: incompatible shapes %v and %v", a.Shape, b.Shape)
	}
	m, k, n := a.Shape[0], a.Shape[1], b.Shape[1]
	out := make([]float64, m*n)
	for i := int64(0); i < m; i++ {
		for j := int64(0); j < n; j++ {
			var sum float64
			for p := int64(0); p < k; p++ {
				sum += a.Floats[i*k+p] * b.Floats[p*n+j]
			}
			out[i*n+j] = sum
		}
	}
	return value.NewTensor(a.Ty(), []int64{m, n}, out), nil
}

// stdInverseKernel inverts a square 2-D tensor via Gauss-Jordan
// elimination with partial pivoting.
func stdInverseKernel(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
	t, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	if len(t.Shape) != 2 || t.Shape[0] != t.Shape[1] {
		return nil, mooseerr.New(mooseerr.TypeMismatch, "inverse requires a square 2-D tensor, got shape %v", t.Shape)
	}
	n := int(t.Shape[0])
	aug := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, 2*n)
		copy(row[:n], t.Floats[i*n:i*n+n])
		row[n+i] = 1
		aug[i] = row
	}
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if abs(aug[r][col]) > abs(aug[pivot][col]) {
				pivot = r
			}
		}
		if aug[pivot][col] == 0 {
			return nil, mooseerr.New(mooseerr.Internal, "matrix is singular")
		}
		aug[col], aug[pivot] = aug[pivot], aug[col]
		pv := aug[col][col]
		for c := 0; c < 2*n; c++ {
			aug[col][c] /= pv
		}
		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			factor := aug[r][col]
			for c := 0; c < 2*n; c++ {
				aug[r][c] -= factor * aug[col][c]
			}
		}
	}
	out := make([]float64, n*n)
	for i := 0; i < n; i++ {
		copy(out[i*n:i*n+n], aug[i][n:])
	}
	return value.NewTensor(t.Ty(), t.Shape, out), nil
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
