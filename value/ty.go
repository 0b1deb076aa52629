// Package value implements the Value & Type model: a tagged value
// union whose tag matches a closed Ty enumeration, plus the
// tensor/scalar containers every kernel operates on.
package value

// Ty tags a Value's shape. It carries no data of its own; it is the key
// the kernel dispatch table matches operator signatures against.
type Ty int

const (
	InvalidTy Ty = iota

	Unit

	// Scalars
	Ring64Ty
	Ring128Ty
	Float32Ty
	Float64Ty
	StringTy
	BoolTy
	ShapeTy

	// Fixed-size byte values
	SeedTy
	PrfKeyTy
	NonceTy
	AesKey128Ty
	AesKey256Ty
	BitArray64Ty
	BitArray128Ty
	BitArray224Ty

	// Plain (unplaced) tensors
	Float32TensorTy
	Float64TensorTy
	Ring64TensorTy
	Ring128TensorTy
	Int8TensorTy
	Int16TensorTy
	Int32TensorTy
	Int64TensorTy
	Uint8TensorTy
	Uint16TensorTy
	Uint32TensorTy
	Uint64TensorTy
	BitTensorTy
	AesTensorTy

	// Placement-qualified tensors
	HostRing64TensorTy
	HostRing128TensorTy
	HostFloat32TensorTy
	HostFloat64TensorTy
	HostBitTensorTy
	ReplicatedRing64TensorTy
	ReplicatedRing128TensorTy
	ReplicatedBitTensorTy
	ReplicatedFixed64TensorTy
	ReplicatedFixed128TensorTy
	AdditiveRing64TensorTy
	AdditiveRing128TensorTy
	AdditiveBitTensorTy
	Mirrored3Float32Ty
	Mirrored3Float64Ty
	Mirrored3Ring64TensorTy
	Mirrored3Ring128TensorTy
)

var tyNames = map[Ty]string{
	InvalidTy:                 "Invalid",
	Unit:                      "Unit",
	Ring64Ty:                  "Ring64",
	Ring128Ty:                 "Ring128",
	Float32Ty:                 "Float32",
	Float64Ty:                 "Float64",
	StringTy:                  "String",
	BoolTy:                    "Bool",
	ShapeTy:                   "Shape",
	SeedTy:                    "Seed",
	PrfKeyTy:                  "PrfKey",
	NonceTy:                   "Nonce",
	AesKey128Ty:               "AesKey128",
	AesKey256Ty:               "AesKey256",
	BitArray64Ty:              "BitArray64",
	BitArray128Ty:             "BitArray128",
	BitArray224Ty:             "BitArray224",
	Float32TensorTy:           "Float32Tensor",
	Float64TensorTy:           "Float64Tensor",
	Ring64TensorTy:            "Ring64Tensor",
	Ring128TensorTy:           "Ring128Tensor",
	Int8TensorTy:              "Int8Tensor",
	Int16TensorTy:             "Int16Tensor",
	Int32TensorTy:             "Int32Tensor",
	Int64TensorTy:             "Int64Tensor",
	Uint8TensorTy:             "Uint8Tensor",
	Uint16TensorTy:            "Uint16Tensor",
	Uint32TensorTy:            "Uint32Tensor",
	Uint64TensorTy:            "Uint64Tensor",
	BitTensorTy:                "BitTensor",
	AesTensorTy:                "AesTensor",
	HostRing64TensorTy:         "HostRing64Tensor",
	HostRing128TensorTy:        "HostRing128Tensor",
	HostFloat32TensorTy:        "HostFloat32Tensor",
	HostFloat64TensorTy:        "HostFloat64Tensor",
	HostBitTensorTy:            "HostBitTensor",
	ReplicatedRing64TensorTy:   "ReplicatedRing64Tensor",
	ReplicatedRing128TensorTy:  "ReplicatedRing128Tensor",
	ReplicatedBitTensorTy:      "ReplicatedBitTensor",
	ReplicatedFixed64TensorTy:  "ReplicatedFixed64Tensor",
	ReplicatedFixed128TensorTy: "ReplicatedFixed128Tensor",
	AdditiveRing64TensorTy:     "AdditiveRing64Tensor",
	AdditiveRing128TensorTy:    "AdditiveRing128Tensor",
	AdditiveBitTensorTy:        "AdditiveBitTensor",
	Mirrored3Float32Ty:         "Mirrored3Float32",
	Mirrored3Float64Ty:         "Mirrored3Float64",
	Mirrored3Ring64TensorTy:    "Mirrored3Ring64Tensor",
	Mirrored3Ring128TensorTy:   "Mirrored3Ring128Tensor",
}

var namesToTy = func() map[string]Ty {
	m := make(map[string]Ty, len(tyNames))
	for ty, name := range tyNames {
		m[name] = ty
	}
	return m
}()

func (t Ty) String() string {
	if name, ok := tyNames[t]; ok {
		return name
	}
	return "Unknown"
}

// ParseTy resolves a type name exactly as it appears in the textual IR
// (e.g. "Float32Tensor") to its Ty tag.
func ParseTy(name string) (Ty, bool) {
	ty, ok := namesToTy[name]
	return ty, ok
}

// AllTyNames returns every registered type name, used for "unknown type"
// suggestion lookups (fuzzysearch) in the IR parser.
func AllTyNames() []string {
	names := make([]string, 0, len(tyNames))
	for _, name := range tyNames {
		names = append(names, name)
	}
	return names
}
