package value

import (
	"fmt"
	"strings"
)

// ElemKind is the scalar family backing a Tensor's Data slice.
type ElemKind int

const (
	ElemFloat32 ElemKind = iota
	ElemFloat64
	ElemRing64
	ElemRing128
	ElemInt8
	ElemInt16
	ElemInt32
	ElemInt64
	ElemUint8
	ElemUint16
	ElemUint32
	ElemUint64
	ElemBit
)

// elemKindForTy maps a (possibly placement-qualified) tensor Ty to the
// scalar family it is built from, so kernels can share one Tensor type
// across Host/Replicated/Additive/Mirrored3 placements instead of N
// near-identical tensor structs.
func elemKindForTy(ty Ty) (ElemKind, bool) {
	switch ty {
	case Float32TensorTy, HostFloat32TensorTy, Mirrored3Float32Ty:
		return ElemFloat32, true
	case Float64TensorTy, HostFloat64TensorTy, Mirrored3Float64Ty:
		return ElemFloat64, true
	case Ring64TensorTy, HostRing64TensorTy, ReplicatedRing64TensorTy,
		AdditiveRing64TensorTy, Mirrored3Ring64TensorTy,
		ReplicatedFixed64TensorTy:
		return ElemRing64, true
	case Ring128TensorTy, HostRing128TensorTy, ReplicatedRing128TensorTy,
		AdditiveRing128TensorTy, Mirrored3Ring128TensorTy,
		ReplicatedFixed128TensorTy:
		return ElemRing128, true
	case Int8TensorTy:
		return ElemInt8, true
	case Int16TensorTy:
		return ElemInt16, true
	case Int32TensorTy:
		return ElemInt32, true
	case Int64TensorTy:
		return ElemInt64, true
	case Uint8TensorTy:
		return ElemUint8, true
	case Uint16TensorTy:
		return ElemUint16, true
	case Uint32TensorTy:
		return ElemUint32, true
	case Uint64TensorTy:
		return ElemUint64, true
	case BitTensorTy, HostBitTensorTy, ReplicatedBitTensorTy, AdditiveBitTensorTy, AesTensorTy:
		return ElemBit, true
	default:
		return 0, false
	}
}

// Tensor is an N-D, row-major tensor with a placement-qualified Ty tag.
// Exactly one of Floats/Ring64s/Ring128s/Ints is populated, selected by
// elemKindForTy(Ty); this keeps the dozens of placement-qualified tensor Tys as
// one Go type instead of one struct per Ty.
type Tensor struct {
	ty     Ty
	Shape  []int64
	Floats []float64 // ElemFloat32 / ElemFloat64
	Ints   []int64   // ElemInt*/ElemUint*/ElemBit (ring64 stored low bits here too when small)
	Ring64 []uint64  // ElemRing64
	Ring128 []Ring128 // ElemRing128
}

// NewTensor constructs a Tensor, validating that shape's product matches
// the supplied element count for whichever slice is non-nil.
func NewTensor(ty Ty, shape []int64, data interface{}) Tensor {
	kind, ok := elemKindForTy(ty)
	if !ok {
		panic(fmt.Sprintf("value: %s is not a tensor type", ty))
	}
	t := Tensor{ty: ty, Shape: append([]int64(nil), shape...)}
	n := int64(1)
	for _, d := range shape {
		n *= d
	}
	switch kind {
	case ElemFloat32, ElemFloat64:
		vals := data.([]float64)
		mustLen(int64(len(vals)), n)
		t.Floats = append([]float64(nil), vals...)
	case ElemRing64:
		vals := data.([]uint64)
		mustLen(int64(len(vals)), n)
		t.Ring64 = append([]uint64(nil), vals...)
	case ElemRing128:
		vals := data.([]Ring128)
		mustLen(int64(len(vals)), n)
		t.Ring128 = append([]Ring128(nil), vals...)
	default:
		vals := data.([]int64)
		mustLen(int64(len(vals)), n)
		t.Ints = append([]int64(nil), vals...)
	}
	return t
}

func mustLen(got, want int64) {
	if got != want {
		panic(fmt.Sprintf("value: tensor data length %d does not match shape product %d", got, want))
	}
}

func (t Tensor) Ty() Ty       { return t.ty }
func (t Tensor) Kind() ElemKind {
	k, _ := elemKindForTy(t.ty)
	return k
}

func (t Tensor) Clone() Value {
	cp := Tensor{ty: t.ty, Shape: append([]int64(nil), t.Shape...)}
	cp.Floats = append([]float64(nil), t.Floats...)
	cp.Ints = append([]int64(nil), t.Ints...)
	cp.Ring64 = append([]uint64(nil), t.Ring64...)
	cp.Ring128 = append([]Ring128(nil), t.Ring128...)
	return cp
}

func (t Tensor) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s(shape=%v, ", t.ty, t.Shape)
	switch t.Kind() {
	case ElemFloat32, ElemFloat64:
		fmt.Fprintf(&b, "%v", t.Floats)
	case ElemRing64:
		fmt.Fprintf(&b, "%v", t.Ring64)
	case ElemRing128:
		fmt.Fprintf(&b, "%v", t.Ring128)
	default:
		fmt.Fprintf(&b, "%v", t.Ints)
	}
	b.WriteByte(')')
	return b.String()
}

func (t Tensor) Equal(o Value) bool {
	other, ok := o.(Tensor)
	if !ok || other.ty != t.ty || len(other.Shape) != len(t.Shape) {
		return false
	}
	for i := range t.Shape {
		if t.Shape[i] != other.Shape[i] {
			return false
		}
	}
	switch t.Kind() {
	case ElemFloat32, ElemFloat64:
		return equalFloats(t.Floats, other.Floats)
	case ElemRing64:
		return equalUint64s(t.Ring64, other.Ring64)
	case ElemRing128:
		if len(t.Ring128) != len(other.Ring128) {
			return false
		}
		for i := range t.Ring128 {
			if t.Ring128[i] != other.Ring128[i] {
				return false
			}
		}
		return true
	default:
		return equalInt64s(t.Ints, other.Ints)
	}
}

// NumElements returns the product of Shape, i.e. len of whichever data
// slice backs this tensor.
func (t Tensor) NumElements() int64 {
	n := int64(1)
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

func equalFloats(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalUint64s(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalInt64s(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
