package value

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// wireValue is the cbor-serializable envelope for a Value: a type tag
// plus only the fields that tag's constructor needs. This is the payload
// the binary computation format
// and the TCP networking transport both encode.
type wireValue struct {
	Ty      Ty
	U64     uint64   `cbor:",omitempty"`
	Hi, Lo  uint64   `cbor:",omitempty"`
	F64     float64  `cbor:",omitempty"`
	Str     string   `cbor:",omitempty"`
	Bool    bool     `cbor:",omitempty"`
	Dims    []int64  `cbor:",omitempty"`
	Bytes   []byte   `cbor:",omitempty"`
	Floats  []float64 `cbor:",omitempty"`
	Ints    []int64  `cbor:",omitempty"`
	Ring64s []uint64 `cbor:",omitempty"`
	Ring128His []uint64 `cbor:",omitempty"`
	Ring128Los []uint64 `cbor:",omitempty"`
}

// Encode serializes a Value to its canonical binary representation.
func Encode(v Value) ([]byte, error) {
	w, err := toWire(v)
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(w)
}

// Decode deserializes a Value previously produced by Encode.
func Decode(data []byte) (Value, error) {
	var w wireValue
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("value: decode: %w", err)
	}
	return fromWire(w)
}

func toWire(v Value) (wireValue, error) {
	switch x := v.(type) {
	case UnitValue:
		return wireValue{Ty: Unit}, nil
	case Ring64:
		return wireValue{Ty: Ring64Ty, U64: uint64(x)}, nil
	case Ring128:
		return wireValue{Ty: Ring128Ty, Hi: x.Hi, Lo: x.Lo}, nil
	case Float32Value:
		return wireValue{Ty: Float32Ty, F64: float64(x)}, nil
	case Float64Value:
		return wireValue{Ty: Float64Ty, F64: float64(x)}, nil
	case StringValue:
		return wireValue{Ty: StringTy, Str: string(x)}, nil
	case BoolValue:
		return wireValue{Ty: BoolTy, Bool: bool(x)}, nil
	case Shape:
		return wireValue{Ty: ShapeTy, Dims: x.Dims}, nil
	case Bytes:
		return wireValue{Ty: x.Ty(), Bytes: x.Bytes()}, nil
	case Tensor:
		w := wireValue{Ty: x.Ty(), Dims: x.Shape}
		switch x.Kind() {
		case ElemFloat32, ElemFloat64:
			w.Floats = x.Floats
		case ElemRing64:
			w.Ring64s = x.Ring64
		case ElemRing128:
			his := make([]uint64, len(x.Ring128))
			los := make([]uint64, len(x.Ring128))
			for i, r := range x.Ring128 {
				his[i], los[i] = r.Hi, r.Lo
			}
			w.Ring128His, w.Ring128Los = his, los
		default:
			w.Ints = x.Ints
		}
		return w, nil
	default:
		return wireValue{}, fmt.Errorf("value: encode: unsupported value type %T", v)
	}
}

func fromWire(w wireValue) (Value, error) {
	switch w.Ty {
	case Unit:
		return UnitValue{}, nil
	case Ring64Ty:
		return Ring64(w.U64), nil
	case Ring128Ty:
		return Ring128{Hi: w.Hi, Lo: w.Lo}, nil
	case Float32Ty:
		return Float32Value(w.F64), nil
	case Float64Ty:
		return Float64Value(w.F64), nil
	case StringTy:
		return StringValue(w.Str), nil
	case BoolTy:
		return BoolValue(w.Bool), nil
	case ShapeTy:
		return Shape{Dims: w.Dims}, nil
	case SeedTy, PrfKeyTy, NonceTy, AesKey128Ty, AesKey256Ty, BitArray64Ty, BitArray128Ty, BitArray224Ty:
		return NewBytes(w.Ty, w.Bytes), nil
	default:
		kind, ok := elemKindForTy(w.Ty)
		if !ok {
			return nil, fmt.Errorf("value: decode: unknown type tag %d", w.Ty)
		}
		switch kind {
		case ElemFloat32, ElemFloat64:
			return NewTensor(w.Ty, w.Dims, w.Floats), nil
		case ElemRing64:
			return NewTensor(w.Ty, w.Dims, w.Ring64s), nil
		case ElemRing128:
			rs := make([]Ring128, len(w.Ring128His))
			for i := range rs {
				rs[i] = Ring128{Hi: w.Ring128His[i], Lo: w.Ring128Los[i]}
			}
			return NewTensor(w.Ty, w.Dims, rs), nil
		default:
			return NewTensor(w.Ty, w.Dims, w.Ints), nil
		}
	}
}
