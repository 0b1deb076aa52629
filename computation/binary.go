package computation

import (
	"fmt"
	"sort"

	"github.com/fxamacker/cbor/v2"
	"github.com/kkloberdanz/moose/operator"
	"github.com/kkloberdanz/moose/placement"
	"github.com/kkloberdanz/moose/value"
	"github.com/zeebo/blake3"
)

// The binary format is a cbor
// encoding of a plain wire struct, since Computation's own types
// (placement.Placement is an interface, operator.Attrs embeds
// value.Value) aren't directly cbor-serializable.

type wireOp struct {
	Name      string
	Kind      operator.OpKind
	Attrs     []wireAttr
	SigIn     []value.Ty `cbor:",omitempty"`
	SigOut    value.Ty   `cbor:",omitempty"`
	HasSig    bool
	Inputs    []string
	PlaceKind placement.Kind
	Owners    []string
}

type wireAttr struct {
	Name  string
	Kind  operator.AttrKind
	Int   int64           `cbor:",omitempty"`
	Bool  bool            `cbor:",omitempty"`
	Str   string          `cbor:",omitempty"`
	Ints  []int64         `cbor:",omitempty"`
	Bytes []byte          `cbor:",omitempty"`
	Value []byte          `cbor:",omitempty"` // value.Encode of a literal
}

type wireComputation struct {
	Operations []wireOp
}

// EncodeBinary serializes a Computation to the canonical binary format.
func EncodeBinary(c *Computation) ([]byte, error) {
	wc := wireComputation{Operations: make([]wireOp, 0, len(c.Operations))}
	for _, op := range c.Operations {
		wo, err := toWireOp(op)
		if err != nil {
			return nil, err
		}
		wc.Operations = append(wc.Operations, wo)
	}
	return cbor.Marshal(wc)
}

// DecodeBinary deserializes a Computation previously produced by
// EncodeBinary.
func DecodeBinary(data []byte) (*Computation, error) {
	var wc wireComputation
	if err := cbor.Unmarshal(data, &wc); err != nil {
		return nil, fmt.Errorf("computation: decode: %w", err)
	}
	c := &Computation{Operations: make([]Operation, 0, len(wc.Operations))}
	for _, wo := range wc.Operations {
		op, err := fromWireOp(wo)
		if err != nil {
			return nil, err
		}
		c.Operations = append(c.Operations, op)
	}
	return c, nil
}

func toWireOp(op Operation) (wireOp, error) {
	wo := wireOp{Name: op.Name, Kind: op.Op.Kind, Inputs: op.Inputs}
	if op.Op.Sig != nil {
		wo.HasSig = true
		wo.SigIn = op.Op.Sig.Inputs
		wo.SigOut = op.Op.Sig.Output
	}
	names := make([]string, 0, len(op.Op.Attrs))
	for name := range op.Op.Attrs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		v := op.Op.Attrs[name]
		wa := wireAttr{Name: name, Kind: v.Kind, Int: v.Int, Bool: v.Bool, Str: v.Str, Ints: v.Ints, Bytes: v.Bytes}
		if v.Kind == operator.AttrValueLiteral {
			enc, err := value.Encode(v.Value)
			if err != nil {
				return wireOp{}, fmt.Errorf("computation: encode attr %q on %q: %w", name, op.Name, err)
			}
			wa.Value = enc
		}
		wo.Attrs = append(wo.Attrs, wa)
	}
	wo.PlaceKind = op.Placement.Kind()
	wo.Owners = rolesToStrings(op.Placement.Participants())
	return wo, nil
}

func fromWireOp(wo wireOp) (Operation, error) {
	attrs := make(operator.Attrs, len(wo.Attrs))
	for _, wa := range wo.Attrs {
		av := operator.AttrValue{Kind: wa.Kind, Int: wa.Int, Bool: wa.Bool, Str: wa.Str, Ints: wa.Ints, Bytes: wa.Bytes}
		if wa.Kind == operator.AttrValueLiteral {
			v, err := value.Decode(wa.Value)
			if err != nil {
				return Operation{}, fmt.Errorf("computation: decode attr %q on %q: %w", wa.Name, wo.Name, err)
			}
			av.Value = v
		}
		attrs[wa.Name] = av
	}

	op := operator.Operator{Kind: wo.Kind, Attrs: attrs}
	if wo.HasSig {
		op.Sig = &operator.Signature{Inputs: wo.SigIn, Output: wo.SigOut}
	}

	p, err := placementFromWire(wo.PlaceKind, wo.Owners)
	if err != nil {
		return Operation{}, err
	}

	return Operation{Name: wo.Name, Op: op, Inputs: wo.Inputs, Placement: p}, nil
}

func rolesToStrings(roles []placement.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

func placementFromWire(kind placement.Kind, owners []string) (placement.Placement, error) {
	switch kind {
	case placement.HostKind:
		if len(owners) != 1 {
			return nil, fmt.Errorf("computation: Host placement needs 1 owner, got %d", len(owners))
		}
		return placement.Host{Owner: placement.Role(owners[0])}, nil
	case placement.ReplicatedKind:
		if len(owners) != 3 {
			return nil, fmt.Errorf("computation: Replicated placement needs 3 owners, got %d", len(owners))
		}
		return placement.Replicated{Owners: [3]placement.Role{placement.Role(owners[0]), placement.Role(owners[1]), placement.Role(owners[2])}}, nil
	case placement.Mirrored3Kind:
		if len(owners) != 3 {
			return nil, fmt.Errorf("computation: Mirrored3 placement needs 3 owners, got %d", len(owners))
		}
		return placement.Mirrored3{Owners: [3]placement.Role{placement.Role(owners[0]), placement.Role(owners[1]), placement.Role(owners[2])}}, nil
	case placement.AdditiveKind:
		roles := make([]placement.Role, len(owners))
		for i, o := range owners {
			roles[i] = placement.Role(o)
		}
		return placement.Additive{Owners: roles}, nil
	default:
		return nil, fmt.Errorf("computation: unknown placement kind %d", kind)
	}
}

// Fingerprint returns a blake3 content hash of the computation's binary
// encoding, used to check that every party was handed the same
// computation.
func Fingerprint(c *Computation) ([32]byte, error) {
	enc, err := EncodeBinary(c)
	if err != nil {
		return [32]byte{}, err
	}
	return blake3.Sum256(enc), nil
}
