package ir

import (
	"strconv"

	"github.com/kkloberdanz/moose/internal/mooseerr"
	"github.com/kkloberdanz/moose/value"
)

// parseValueLiteral parses `TyName '(' payload ')'`, where payload
// depends on TyName: a bare scalar, a hex literal for the fixed-length
// byte types, an int list for Shape,
// or an arbitrarily-nested numeric array for tensor types.
func (p *parser) parseValueLiteral() (value.Value, error) {
	tyName := p.tok.text
	ty, ok := value.ParseTy(tyName)
	if !ok {
		if suggestion, ok := fuzzyTyMatch(tyName); ok {
			return nil, mooseerr.New(mooseerr.UnknownType, "unknown type %q, did you mean %q?", tyName, suggestion)
		}
		return nil, mooseerr.New(mooseerr.UnknownType, "unknown type %q", tyName)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	if err := p.expectSymbol("("); err != nil {
		return nil, err
	}

	v, err := p.parsePayload(ty)
	if err != nil {
		return nil, err
	}
	return v, p.expectSymbol(")")
}

func (p *parser) parsePayload(ty value.Ty) (value.Value, error) {
	switch ty {
	case value.Unit:
		return value.UnitValue{}, nil

	case value.Ring64Ty:
		n, err := p.parseUintLiteral()
		if err != nil {
			return nil, err
		}
		return value.Ring64(n), nil

	case value.Float32Ty:
		f, err := p.parseFloatLiteral()
		if err != nil {
			return nil, err
		}
		return value.Float32Value(f), nil

	case value.Float64Ty:
		f, err := p.parseFloatLiteral()
		if err != nil {
			return nil, err
		}
		return value.Float64Value(f), nil

	case value.StringTy:
		if p.tok.kind != tokString {
			return nil, mooseerr.New(mooseerr.ParseError, "expected string literal, found %s", p.tok.describe())
		}
		s := p.tok.text
		return value.StringValue(s), p.advance()

	case value.BoolTy:
		if p.tok.kind != tokIdent || (p.tok.text != "true" && p.tok.text != "false") {
			return nil, mooseerr.New(mooseerr.ParseError, "expected true/false, found %s", p.tok.describe())
		}
		b := p.tok.text == "true"
		return value.BoolValue(b), p.advance()

	case value.ShapeTy:
		dims, err := p.parseIntList()
		if err != nil {
			return nil, err
		}
		return value.Shape{Dims: dims}, nil

	case value.SeedTy, value.PrfKeyTy, value.NonceTy, value.AesKey128Ty, value.AesKey256Ty,
		value.BitArray64Ty, value.BitArray128Ty, value.BitArray224Ty:
		if p.tok.kind != tokHex {
			return nil, mooseerr.New(mooseerr.ParseError, "expected hex literal for %s, found %s", ty, p.tok.describe())
		}
		data, err := decodeHex(p.tok.text)
		if err != nil {
			return nil, err
		}
		if want := byteLenFor(ty); len(data) != want {
			return nil, mooseerr.New(mooseerr.ParseError, "%s requires a %d-byte hex literal, got %d bytes", ty, want, len(data))
		}
		if err := p.advance(); err != nil {
			return nil, err
		}
		return value.NewBytes(ty, data), nil

	default:
		return p.parseTensorPayload(ty)
	}
}

// byteLenFor mirrors value.NewBytes's own length requirement (hex
// literal length is fixed by the target type) so a malformed literal
// is rejected as a ParseError here rather than reaching NewBytes's panic,
// which is reserved for programmer error, not untrusted parser input.
func byteLenFor(ty value.Ty) int {
	switch ty {
	case value.SeedTy, value.PrfKeyTy, value.NonceTy, value.AesKey128Ty:
		return 16
	case value.AesKey256Ty:
		return 32
	case value.BitArray64Ty:
		return 8
	case value.BitArray128Ty:
		return 16
	case value.BitArray224Ty:
		return 28
	default:
		return 0
	}
}

func (p *parser) parseUintLiteral() (uint64, error) {
	if p.tok.kind != tokNumber {
		return 0, mooseerr.New(mooseerr.ParseError, "expected integer literal, found %s", p.tok.describe())
	}
	n, err := strconv.ParseUint(p.tok.text, 10, 64)
	if err != nil {
		return 0, mooseerr.New(mooseerr.ParseError, "invalid unsigned integer literal %q", p.tok.text)
	}
	return n, p.advance()
}

func (p *parser) parseFloatLiteral() (float64, error) {
	if p.tok.kind != tokNumber {
		return 0, mooseerr.New(mooseerr.ParseError, "expected number literal, found %s", p.tok.describe())
	}
	f, err := strconv.ParseFloat(p.tok.text, 64)
	if err != nil {
		return 0, mooseerr.New(mooseerr.ParseError, "invalid number literal %q", p.tok.text)
	}
	return f, p.advance()
}

// tensorElemClass groups a tensor Ty by the Go slice NewTensor expects,
// mirroring value.Tensor's internal element-kind split.
type tensorElemClass int

const (
	classFloat tensorElemClass = iota
	classRing64
	classRing128
	classInt
	classBit
	classUnsupported
)

func classify(ty value.Ty) tensorElemClass {
	switch ty {
	case value.Float32TensorTy, value.HostFloat32TensorTy, value.Mirrored3Float32Ty,
		value.Float64TensorTy, value.HostFloat64TensorTy, value.Mirrored3Float64Ty:
		return classFloat
	case value.Ring64TensorTy, value.HostRing64TensorTy, value.ReplicatedRing64TensorTy,
		value.AdditiveRing64TensorTy, value.Mirrored3Ring64TensorTy, value.ReplicatedFixed64TensorTy:
		return classRing64
	case value.Ring128TensorTy, value.HostRing128TensorTy, value.ReplicatedRing128TensorTy,
		value.AdditiveRing128TensorTy, value.Mirrored3Ring128TensorTy, value.ReplicatedFixed128TensorTy:
		return classRing128
	case value.Int8TensorTy, value.Int16TensorTy, value.Int32TensorTy, value.Int64TensorTy,
		value.Uint8TensorTy, value.Uint16TensorTy, value.Uint32TensorTy, value.Uint64TensorTy:
		return classInt
	case value.BitTensorTy, value.HostBitTensorTy, value.ReplicatedBitTensorTy,
		value.AdditiveBitTensorTy, value.AesTensorTy:
		return classBit
	default:
		return classUnsupported
	}
}

// parseTensorPayload parses a (possibly nested) bracketed numeric array
// literal, e.g. [[1.0, 2.0], [3.0, 4.0]], inferring its shape from the
// nesting depth and element counts at each level (every sibling array
// at a given depth must agree in length).
func (p *parser) parseTensorPayload(ty value.Ty) (value.Value, error) {
	class := classify(ty)
	if class == classUnsupported || class == classRing128 {
		return nil, mooseerr.New(mooseerr.ParseError, "%s does not support a textual value literal", ty)
	}

	tree, err := p.parseNestedArray()
	if err != nil {
		return nil, err
	}
	shape, flat, err := flatten(tree)
	if err != nil {
		return nil, err
	}

	// The element grammar follows the outer tag: integer grammar for
	// ring/int/bit classes (a float64 detour would round values above
	// 2^53), float grammar otherwise.
	switch class {
	case classFloat:
		out := make([]float64, len(flat))
		for i, lit := range flat {
			f, err := strconv.ParseFloat(lit, 64)
			if err != nil {
				return nil, mooseerr.New(mooseerr.ParseError, "invalid number literal %q", lit)
			}
			out[i] = f
		}
		return value.NewTensor(ty, shape, out), nil
	case classRing64:
		ring := make([]uint64, len(flat))
		for i, lit := range flat {
			n, err := strconv.ParseUint(lit, 10, 64)
			if err != nil {
				return nil, mooseerr.New(mooseerr.ParseError, "invalid ring element literal %q", lit)
			}
			ring[i] = n
		}
		return value.NewTensor(ty, shape, ring), nil
	default: // classInt, classBit
		ints := make([]int64, len(flat))
		for i, lit := range flat {
			n, err := strconv.ParseInt(lit, 10, 64)
			if err != nil {
				return nil, mooseerr.New(mooseerr.ParseError, "invalid integer literal %q", lit)
			}
			ints[i] = n
		}
		return value.NewTensor(ty, shape, ints), nil
	}
}

func (p *parser) parseNestedArray() (interface{}, error) {
	if p.atSymbol("[") {
		if err := p.advance(); err != nil {
			return nil, err
		}
		var elems []interface{}
		for !p.atSymbol("]") {
			if len(elems) > 0 {
				if err := p.expectSymbol(","); err != nil {
					return nil, err
				}
			}
			e, err := p.parseNestedArray()
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		return elems, p.expectSymbol("]")
	}
	if p.tok.kind != tokNumber {
		return nil, mooseerr.New(mooseerr.ParseError, "expected number or '[', found %s", p.tok.describe())
	}
	lit := p.tok.text
	return lit, p.advance()
}

// flatten walks a parseNestedArray result, validating uniform shape at
// each nesting level and returning the row-major flattened element
// literals, still as source text so the caller picks the grammar.
func flatten(tree interface{}) ([]int64, []string, error) {
	switch v := tree.(type) {
	case string:
		return nil, []string{v}, nil
	case []interface{}:
		if len(v) == 0 {
			return []int64{0}, nil, nil
		}
		var shape []int64
		var flat []string
		for i, e := range v {
			s, f, err := flatten(e)
			if err != nil {
				return nil, nil, err
			}
			if i == 0 {
				shape = s
			} else if !equalInt64Slice(shape, s) {
				return nil, nil, mooseerr.New(mooseerr.ParseError, "ragged tensor literal: inconsistent shape among siblings")
			}
			flat = append(flat, f...)
		}
		return append([]int64{int64(len(v))}, shape...), flat, nil
	default:
		return nil, nil, mooseerr.New(mooseerr.Internal, "unreachable: unexpected nested array element type")
	}
}

func equalInt64Slice(a, b []int64) bool {
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
