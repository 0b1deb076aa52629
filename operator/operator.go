// Package operator implements the Operator Catalog: the closed
// enumeration of operator kinds, their attribute records, and the
// per-kind metadata (attribute JSON Schema, printable name) the textual
// IR and kernel dispatch both key off of.
package operator

import "github.com/kkloberdanz/moose/value"

// OpKind tags an Operator variant.
type OpKind string

const (
	Constant OpKind = "Constant"
	Load     OpKind = "Load"
	Save     OpKind = "Save"
	Send     OpKind = "Send"
	Receive  OpKind = "Receive"
	Input    OpKind = "Input"
	Output   OpKind = "Output"
	Identity OpKind = "Identity"

	RingAdd    OpKind = "RingAdd"
	RingSub    OpKind = "RingSub"
	RingMul    OpKind = "RingMul"
	RingDot    OpKind = "RingDot"
	RingSum    OpKind = "RingSum"
	RingShape  OpKind = "RingShape"
	RingSample OpKind = "RingSample"
	RingFill   OpKind = "RingFill"
	RingShl    OpKind = "RingShl"
	RingShr    OpKind = "RingShr"
	RingInject OpKind = "RingInject"

	StdAdd         OpKind = "StdAdd"
	StdSub         OpKind = "StdSub"
	StdMul         OpKind = "StdMul"
	StdDot         OpKind = "StdDot"
	StdTranspose   OpKind = "StdTranspose"
	StdInverse     OpKind = "StdInverse"
	StdSlice       OpKind = "StdSlice"
	StdConcatenate OpKind = "StdConcatenate"
	StdExpandDims  OpKind = "StdExpandDims"
	StdAtLeast2D   OpKind = "StdAtLeast2D"
	StdMean        OpKind = "StdMean"
	StdSum         OpKind = "StdSum"
	StdOnes        OpKind = "StdOnes"
	StdReshape     OpKind = "StdReshape"
	StdShape       OpKind = "StdShape"

	BitExtract OpKind = "BitExtract"
	BitSample  OpKind = "BitSample"
	BitFill    OpKind = "BitFill"
	BitXor     OpKind = "BitXor"
	BitAnd     OpKind = "BitAnd"

	PrimDeriveSeed OpKind = "PrimDeriveSeed"
	PrimGenPrfKey  OpKind = "PrimGenPrfKey"

	FixedpointEncode     OpKind = "FixedpointEncode"
	FixedpointDecode     OpKind = "FixedpointDecode"
	FixedpointRingEncode OpKind = "FixedpointRingEncode"
	FixedpointRingDecode OpKind = "FixedpointRingDecode"
	FixedpointRingMean   OpKind = "FixedpointRingMean"

	Cast OpKind = "Cast"

	Share     OpKind = "Share"
	Reveal    OpKind = "Reveal"
	Mirror    OpKind = "Mirror"
	Demirror  OpKind = "Demirror"
	RepToAdt  OpKind = "RepToAdt"
	AdtToRep  OpKind = "AdtToRep"
	AesDecrypt OpKind = "AesDecrypt"
)

// Signature is the (input Tys) -> output Ty pair an operation carries,
// parsed explicitly from the textual IR's `: (...) -> ...` clause. The
// parser never fills it in when the clause is omitted; the session then
// infers only the output Ty for operators whose result type follows
// trivially from their inputs (e.g. Identity) and leaves Sig nil.
type Signature struct {
	Inputs []value.Ty
	Output value.Ty
}

// Attrs holds an operator's attribute record: scalars and/or
// input/output type tags. It is a generic map rather than one Go
// struct per OpKind because the grammar itself treats attrs
// as an order-insensitive name/value set; Operator methods below give
// typed, panic-on-wrong-kind accessors for the attribute names each
// OpKind actually uses.
type Attrs map[string]AttrValue

// AttrKind tags the payload carried by an AttrValue.
type AttrKind int

const (
	AttrInt AttrKind = iota
	AttrBool
	AttrString
	AttrInts
	AttrBytes
	AttrValueLiteral
)

// AttrValue is one attribute's value, e.g. `axis = 1` or
// `value = Float32Tensor([1.0])`.
type AttrValue struct {
	Kind  AttrKind
	Int   int64
	Bool  bool
	Str   string
	Ints  []int64
	Bytes []byte
	Value value.Value
}

// Operator is the (kind, attrs) pair that, together with an Operation's
// inputs and placement, fully determines what the engine must do.
type Operator struct {
	Kind  OpKind
	Attrs Attrs
	Sig   *Signature // explicit ": (Tys) -> Ty" clause, nil if omitted
}

func (o Operator) attr(name string) (AttrValue, bool) {
	v, ok := o.Attrs[name]
	return v, ok
}

// Str returns a string-valued attribute, panicking if absent or of the
// wrong kind. ir.ParseStrict checks the attrs of Send/Receive/Load/Save/
// Input against their catalog schemas, so an Operator it produced carries
// the attrs those kinds need; ir.Parse does not check attrs.
func (o Operator) Str(name string) string {
	v, ok := o.attr(name)
	if !ok || v.Kind != AttrString {
		panic("operator: missing or wrong-kind string attr " + name)
	}
	return v.Str
}

func (o Operator) StrOr(name, def string) string {
	v, ok := o.attr(name)
	if !ok || v.Kind != AttrString {
		return def
	}
	return v.Str
}

func (o Operator) Int(name string) int64 {
	v, ok := o.attr(name)
	if !ok || v.Kind != AttrInt {
		panic("operator: missing or wrong-kind int attr " + name)
	}
	return v.Int
}

func (o Operator) IntOr(name string, def int64) int64 {
	v, ok := o.attr(name)
	if !ok || v.Kind != AttrInt {
		return def
	}
	return v.Int
}

func (o Operator) Ints(name string) []int64 {
	v, ok := o.attr(name)
	if !ok || v.Kind != AttrInts {
		panic("operator: missing or wrong-kind ints attr " + name)
	}
	return v.Ints
}

func (o Operator) Bytes(name string) []byte {
	v, ok := o.attr(name)
	if !ok || v.Kind != AttrBytes {
		panic("operator: missing or wrong-kind bytes attr " + name)
	}
	return v.Bytes
}

func (o Operator) BoolOr(name string, def bool) bool {
	v, ok := o.attr(name)
	if !ok || v.Kind != AttrBool {
		return def
	}
	return v.Bool
}

// ValueLiteral returns the Constant operator's embedded value literal.
func (o Operator) ValueLiteral(name string) value.Value {
	v, ok := o.attr(name)
	if !ok || v.Kind != AttrValueLiteral {
		panic("operator: missing or wrong-kind value-literal attr " + name)
	}
	return v.Value
}
