package kernel_test

import (
	"context"
	"testing"

	"github.com/kkloberdanz/moose/internal/mooseerr"
	"github.com/kkloberdanz/moose/kernel"
	"github.com/kkloberdanz/moose/operator"
	"github.com/kkloberdanz/moose/placement"
	"github.com/kkloberdanz/moose/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistryBuildsWithoutDuplicateRegistrations(t *testing.T) {
	assert.NotPanics(t, func() {
		kernel.Default()
	})
}

func TestRegisterRejectsDuplicateSignature(t *testing.T) {
	r := kernel.NewRegistry()
	noop := func(_ context.Context, _ operator.Operator, _ []value.Value) (value.Value, error) {
		return value.UnitValue{}, nil
	}
	require.NoError(t, r.Register(operator.StdAdd, placement.HostKind, []value.Ty{value.Float64TensorTy, value.Float64TensorTy}, value.Float64TensorTy, kernel.Concrete, noop))

	err := r.Register(operator.StdAdd, placement.HostKind, []value.Ty{value.Float64TensorTy, value.Float64TensorTy}, value.Float64TensorTy, kernel.Concrete, noop)
	assert.Error(t, err)
}

func TestLookupMissReturnsKernelNotFound(t *testing.T) {
	r := kernel.NewRegistry()
	_, _, err := r.Lookup(operator.StdAdd, placement.HostKind, []value.Ty{value.Float64TensorTy}, value.Float64TensorTy)
	require.Error(t, err)
	assert.True(t, mooseerr.Is(err, mooseerr.KernelNotFound))
}

func TestStdAddKernelDispatchAndInvoke(t *testing.T) {
	r := kernel.Default()
	fn, mode, err := r.Lookup(operator.StdAdd, placement.HostKind,
		[]value.Ty{value.Float64TensorTy, value.Float64TensorTy}, value.Float64TensorTy)
	require.NoError(t, err)
	assert.Equal(t, kernel.Concrete, mode)

	a := value.NewTensor(value.Float64TensorTy, []int64{2}, []float64{1, 2})
	b := value.NewTensor(value.Float64TensorTy, []int64{2}, []float64{10, 20})

	result, err := fn(context.Background(), operator.Operator{Kind: operator.StdAdd}, []value.Value{a, b})
	require.NoError(t, err)

	tensor, ok := result.(value.Tensor)
	require.True(t, ok)
	assert.Equal(t, []float64{11, 22}, tensor.Floats)
}

func TestBitXorKernelDispatchAndInvoke(t *testing.T) {
	r := kernel.Default()
	fn, _, err := r.Lookup(operator.BitXor, placement.HostKind,
		[]value.Ty{value.BitTensorTy, value.BitTensorTy}, value.BitTensorTy)
	require.NoError(t, err)

	a := value.NewTensor(value.BitTensorTy, []int64{2}, []int64{1, 0})
	b := value.NewTensor(value.BitTensorTy, []int64{2}, []int64{1, 1})

	result, err := fn(context.Background(), operator.Operator{Kind: operator.BitXor}, []value.Value{a, b})
	require.NoError(t, err)

	tensor, ok := result.(value.Tensor)
	require.True(t, ok)
	assert.Equal(t, []int64{0, 1}, tensor.Ints)
}

func TestRingAddKernelWrapsModulo2to64(t *testing.T) {
	r := kernel.Default()
	fn, _, err := r.Lookup(operator.RingAdd, placement.HostKind,
		[]value.Ty{value.Ring64TensorTy, value.Ring64TensorTy}, value.Ring64TensorTy)
	require.NoError(t, err)

	maxUint64 := ^uint64(0)
	a := value.NewTensor(value.Ring64TensorTy, []int64{1}, []uint64{maxUint64})
	b := value.NewTensor(value.Ring64TensorTy, []int64{1}, []uint64{1})

	result, err := fn(context.Background(), operator.Operator{Kind: operator.RingAdd}, []value.Value{a, b})
	require.NoError(t, err)

	tensor := result.(value.Tensor)
	assert.Equal(t, []uint64{0}, tensor.Ring64)
}

func TestPrimDeriveSeedIsDeterministicPerKeyAndNonce(t *testing.T) {
	r := kernel.Default()
	fn, _, err := r.Lookup(operator.PrimDeriveSeed, placement.HostKind,
		[]value.Ty{value.PrfKeyTy}, value.SeedTy)
	require.NoError(t, err)

	key := value.NewBytes(value.PrfKeyTy, []byte("0123456789abcdef"))
	op := operator.Operator{
		Kind:  operator.PrimDeriveSeed,
		Attrs: operator.Attrs{"nonce": {Kind: operator.AttrInts, Ints: []int64{1, 2, 3}}},
	}

	first, err := fn(context.Background(), op, []value.Value{key})
	require.NoError(t, err)
	second, err := fn(context.Background(), op, []value.Value{key})
	require.NoError(t, err)

	assert.Equal(t, value.SeedTy, first.Ty())
	assert.True(t, first.Equal(second))

	otherNonce := operator.Operator{
		Kind:  operator.PrimDeriveSeed,
		Attrs: operator.Attrs{"nonce": {Kind: operator.AttrInts, Ints: []int64{4, 5, 6}}},
	}
	third, err := fn(context.Background(), otherNonce, []value.Value{key})
	require.NoError(t, err)
	assert.False(t, first.Equal(third))
}

func TestShareRevealRoundTrip(t *testing.T) {
	r := kernel.Default()
	share, _, err := r.Lookup(operator.Share, placement.ReplicatedKind,
		[]value.Ty{value.Ring64TensorTy}, value.ReplicatedRing64TensorTy)
	require.NoError(t, err)
	reveal, _, err := r.Lookup(operator.Reveal, placement.HostKind,
		[]value.Ty{value.ReplicatedRing64TensorTy}, value.Ring64TensorTy)
	require.NoError(t, err)

	secret := value.NewTensor(value.Ring64TensorTy, []int64{3}, []uint64{7, 0, ^uint64(0)})
	shared, err := share(context.Background(), operator.Operator{Kind: operator.Share}, []value.Value{secret})
	require.NoError(t, err)

	revealed, err := reveal(context.Background(), operator.Operator{Kind: operator.Reveal}, []value.Value{shared})
	require.NoError(t, err)
	assert.True(t, secret.Equal(revealed))
}

func TestConstantKernelReturnsItsLiteral(t *testing.T) {
	r := kernel.Default()
	fn, _, err := r.Lookup(operator.Constant, placement.HostKind, nil, value.Float32TensorTy)
	require.NoError(t, err)

	lit := value.NewTensor(value.Float32TensorTy, []int64{1}, []float64{1})
	op := operator.Operator{
		Kind:  operator.Constant,
		Attrs: operator.Attrs{"value": {Kind: operator.AttrValueLiteral, Value: lit}},
	}
	got, err := fn(context.Background(), op, nil)
	require.NoError(t, err)
	assert.True(t, lit.Equal(got))
}
