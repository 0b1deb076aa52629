package kernel

import (
	"context"
	"crypto/rand"
	"encoding/binary"

	"github.com/kkloberdanz/moose/internal/mooseerr"
	"github.com/kkloberdanz/moose/operator"
	"github.com/kkloberdanz/moose/placement"
	"github.com/kkloberdanz/moose/value"
)

// RegisterReplicatedKernels wires Share and Reveal, the boundary between
// plaintext Host values and 3-of-3 additively shared Replicated values.
// Correlated randomness setup and malicious-security MACs are out of
// scope; what is implemented here is the share/reconstruct arithmetic
// and the dispatch
// path an executor actually drives.
func RegisterReplicatedKernels(r *Registry) {
	r.MustRegister(operator.Share, placement.ReplicatedKind, []value.Ty{value.Ring64TensorTy}, value.ReplicatedRing64TensorTy, Concrete, shareKernel)
	r.MustRegister(operator.Reveal, placement.HostKind, []value.Ty{value.ReplicatedRing64TensorTy}, value.Ring64TensorTy, Concrete, revealKernel)
}

func shareKernel(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
	t, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	n := len(t.Ring64)
	share0 := randomRing64(n)
	share1 := randomRing64(n)
	share2 := make([]uint64, n)
	for i := range share2 {
		share2[i] = t.Ring64[i] - share0[i] - share1[i]
	}
	shares := []value.Tensor{
		value.NewTensor(value.ReplicatedRing64TensorTy, t.Shape, share0),
		value.NewTensor(value.ReplicatedRing64TensorTy, t.Shape, share1),
		value.NewTensor(value.ReplicatedRing64TensorTy, t.Shape, share2),
	}
	return value.NewShared(value.ReplicatedRing64TensorTy, shares), nil
}

func revealKernel(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
	shared, ok := inputs[0].(value.Shared)
	if !ok {
		return nil, mooseerr.New(mooseerr.TypeMismatch, "expected Shared, got %T", inputs[0])
	}
	if len(shared.Shares) == 0 {
		return nil, mooseerr.New(mooseerr.Internal, "reveal: no shares present")
	}
	n := len(shared.Shares[0].Ring64)
	sum := make([]uint64, n)
	for _, s := range shared.Shares {
		for i, v := range s.Ring64 {
			sum[i] += v
		}
	}
	return value.NewTensor(value.Ring64TensorTy, shared.Shares[0].Shape, sum), nil
}

func randomRing64(n int) []uint64 {
	out := make([]uint64, n)
	buf := make([]byte, 8*n)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	for i := range out {
		out[i] = binary.LittleEndian.Uint64(buf[i*8 : i*8+8])
	}
	return out
}
