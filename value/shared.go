package value

import "fmt"

// Shared is the in-process stand-in for a secret-shared tensor living on
// a Replicated or Additive placement: instead of modeling the three (or
// n) separate per-party wire values this single-process executor holds
// all shares together, tagged by the placement-qualified Ty they were
// shared into. Kernels that move a value across placements (Share,
// Reveal, RepToAdt, AdtToRep, Mirror, Demirror) are the only code that
// ever looks inside Shares; every other kernel treats values opaquely.
type Shared struct {
	ty     Ty
	Shares []Tensor
}

// NewShared wraps shares under ty.
func NewShared(ty Ty, shares []Tensor) Shared {
	return Shared{ty: ty, Shares: append([]Tensor(nil), shares...)}
}

func (s Shared) Ty() Ty { return s.ty }

func (s Shared) Clone() Value {
	shares := make([]Tensor, len(s.Shares))
	for i, t := range s.Shares {
		shares[i] = t.Clone().(Tensor)
	}
	return Shared{ty: s.ty, Shares: shares}
}

func (s Shared) String() string {
	return fmt.Sprintf("%s(%d shares)", s.ty, len(s.Shares))
}

func (s Shared) Equal(o Value) bool {
	other, ok := o.(Shared)
	if !ok || other.ty != s.ty || len(other.Shares) != len(s.Shares) {
		return false
	}
	for i := range s.Shares {
		if !s.Shares[i].Equal(other.Shares[i]) {
			return false
		}
	}
	return true
}
