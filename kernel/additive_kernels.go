package kernel

import (
	"context"

	"github.com/kkloberdanz/moose/internal/mooseerr"
	"github.com/kkloberdanz/moose/operator"
	"github.com/kkloberdanz/moose/placement"
	"github.com/kkloberdanz/moose/value"
)

// RegisterAdditiveKernels wires RepToAdt and AdtToRep, the conversions
// between 3-of-3 replicated and n-of-n additive sharings. Both sharings
// already store their shares as a flat sum, so the conversion only needs
// to re-share at the new party count rather than run a full protocol:
// RepToAdt sums the three replicated shares pairwise into two additive
// shares, AdtToRep reconstructs the additive value and re-shares it into
// three (the correlated-randomness machinery that would avoid this
// reconstruct-and-reshare round trip is out of scope).
func RegisterAdditiveKernels(r *Registry) {
	r.MustRegister(operator.RepToAdt, placement.AdditiveKind, []value.Ty{value.ReplicatedRing64TensorTy}, value.AdditiveRing64TensorTy, Concrete, repToAdtKernel)
	r.MustRegister(operator.AdtToRep, placement.ReplicatedKind, []value.Ty{value.AdditiveRing64TensorTy}, value.ReplicatedRing64TensorTy, Concrete, adtToRepKernel)
}

func repToAdtKernel(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
	shared, ok := inputs[0].(value.Shared)
	if !ok || len(shared.Shares) != 3 {
		return nil, mooseerr.New(mooseerr.TypeMismatch, "repToAdt: expected a 3-share Replicated value, got %T", inputs[0])
	}
	shape := shared.Shares[0].Shape
	n := len(shared.Shares[0].Ring64)
	share0 := make([]uint64, n)
	share1 := make([]uint64, n)
	for i := 0; i < n; i++ {
		share0[i] = shared.Shares[0].Ring64[i] + shared.Shares[1].Ring64[i]
		share1[i] = shared.Shares[2].Ring64[i]
	}
	shares := []value.Tensor{
		value.NewTensor(value.AdditiveRing64TensorTy, shape, share0),
		value.NewTensor(value.AdditiveRing64TensorTy, shape, share1),
	}
	return value.NewShared(value.AdditiveRing64TensorTy, shares), nil
}

func adtToRepKernel(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
	shared, ok := inputs[0].(value.Shared)
	if !ok || len(shared.Shares) == 0 {
		return nil, mooseerr.New(mooseerr.TypeMismatch, "adtToRep: expected an Additive value, got %T", inputs[0])
	}
	shape := shared.Shares[0].Shape
	n := len(shared.Shares[0].Ring64)
	total := make([]uint64, n)
	for _, s := range shared.Shares {
		for i, v := range s.Ring64 {
			total[i] += v
		}
	}
	share0 := randomRing64(n)
	share1 := randomRing64(n)
	share2 := make([]uint64, n)
	for i := range share2 {
		share2[i] = total[i] - share0[i] - share1[i]
	}
	shares := []value.Tensor{
		value.NewTensor(value.ReplicatedRing64TensorTy, shape, share0),
		value.NewTensor(value.ReplicatedRing64TensorTy, shape, share1),
		value.NewTensor(value.ReplicatedRing64TensorTy, shape, share2),
	}
	return value.NewShared(value.ReplicatedRing64TensorTy, shares), nil
}
