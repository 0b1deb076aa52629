package kernel

import (
	"context"

	"github.com/kkloberdanz/moose/internal/mooseerr"
	"github.com/kkloberdanz/moose/operator"
	"github.com/kkloberdanz/moose/placement"
	"github.com/kkloberdanz/moose/value"
)

// RegisterMirroredKernels wires Mirror and Demirror: a Mirrored3 value is
// a public (unshared) value redundantly held by three hosts, so Mirror
// just replicates the Host tensor three times and Demirror reads back
// the first replica; neither this kernel nor the session executor
// checks that the three replicas agree.
func RegisterMirroredKernels(r *Registry) {
	r.MustRegister(operator.Mirror, placement.Mirrored3Kind, []value.Ty{value.Ring64TensorTy}, value.Mirrored3Ring64TensorTy, Concrete, mirrorKernel)
	r.MustRegister(operator.Demirror, placement.HostKind, []value.Ty{value.Mirrored3Ring64TensorTy}, value.Ring64TensorTy, Concrete, demirrorKernel)
}

func mirrorKernel(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
	t, err := asTensor(inputs[0])
	if err != nil {
		return nil, err
	}
	replica := value.NewTensor(value.Mirrored3Ring64TensorTy, t.Shape, append([]uint64(nil), t.Ring64...))
	shares := []value.Tensor{replica, replica, replica}
	return value.NewShared(value.Mirrored3Ring64TensorTy, shares), nil
}

func demirrorKernel(_ context.Context, _ operator.Operator, inputs []value.Value) (value.Value, error) {
	shared, ok := inputs[0].(value.Shared)
	if !ok || len(shared.Shares) == 0 {
		return nil, mooseerr.New(mooseerr.TypeMismatch, "demirror: expected a Mirrored3 value, got %T", inputs[0])
	}
	t := shared.Shares[0]
	return value.NewTensor(value.Ring64TensorTy, t.Shape, append([]uint64(nil), t.Ring64...)), nil
}
