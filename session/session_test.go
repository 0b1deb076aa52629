package session_test

import (
	"context"
	"testing"

	"github.com/kkloberdanz/moose/computation"
	"github.com/kkloberdanz/moose/internal/mooseerr"
	"github.com/kkloberdanz/moose/ir"
	"github.com/kkloberdanz/moose/kernel"
	"github.com/kkloberdanz/moose/networking"
	"github.com/kkloberdanz/moose/placement"
	"github.com/kkloberdanz/moose/session"
	"github.com/kkloberdanz/moose/storage"
	"github.com/kkloberdanz/moose/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionRunsAdditionOnOneHost(t *testing.T) {
	src := `
x = Input{arg_name = "x"} @Host(alice)
y = Input{arg_name = "y"} @Host(alice)
z = StdAdd(x, y): (Float64Tensor, Float64Tensor) -> Float64Tensor @Host(alice)
out = Output(z) @Host(alice)
`
	c, err := ir.Parse(src)
	require.NoError(t, err)

	roles := map[placement.Role]string{"alice": "worker-1"}
	args := map[string]value.Value{
		"x": value.NewTensor(value.Float64TensorTy, []int64{2}, []float64{1, 2}),
		"y": value.NewTensor(value.Float64TensorTy, []int64{2}, []float64{10, 20}),
	}

	s := session.New("sid-test", c, "worker-1", roles, kernel.Default(), networking.NewLocal(), storage.NewMemory(), args, session.Config{})
	outputs, err := s.Run(context.Background())
	require.NoError(t, err)

	out, ok := outputs["out"]
	require.True(t, ok)
	tensor, ok := out.(value.Tensor)
	require.True(t, ok)
	assert.Equal(t, []float64{11, 22}, tensor.Floats)
}

func TestSessionSendReceiveAcrossParties(t *testing.T) {
	src := `
x = Input{arg_name = "x"} @Host(alice)
s = Send{rendezvous_key = "k", receiver = "bob"}(x) @Host(alice)
r = Receive{rendezvous_key = "k", sender = "alice"}: (Unit) -> Float64Tensor @Host(bob)
out = Output(r) @Host(bob)
`
	c, err := ir.Parse(src)
	require.NoError(t, err)

	roles := map[placement.Role]string{"alice": "worker-alice", "bob": "worker-bob"}
	net := networking.NewLocal()

	aliceArgs := map[string]value.Value{
		"x": value.NewTensor(value.Float64TensorTy, []int64{1}, []float64{42}),
	}
	aliceSession := session.New("sid-test", c, "worker-alice", roles, kernel.Default(), net, storage.NewMemory(), aliceArgs, session.Config{})
	bobSession := session.New("sid-test", c, "worker-bob", roles, kernel.Default(), net, storage.NewMemory(), nil, session.Config{})

	errCh := make(chan error, 1)
	go func() {
		_, err := aliceSession.Run(context.Background())
		errCh <- err
	}()

	outputs, err := bobSession.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, <-errCh)

	out, ok := outputs["out"].(value.Tensor)
	require.True(t, ok)
	assert.Equal(t, []float64{42}, out.Floats)
}

func TestSessionMissingInputFails(t *testing.T) {
	src := `
x = Input{arg_name = "x"} @Host(alice)
out = Output(x) @Host(alice)
`
	c, err := ir.Parse(src)
	require.NoError(t, err)

	roles := map[placement.Role]string{"alice": "worker-1"}
	s := session.New("sid-test", c, "worker-1", roles, kernel.Default(), networking.NewLocal(), storage.NewMemory(), nil, session.Config{})
	_, err = s.Run(context.Background())
	require.Error(t, err)
	assert.True(t, mooseerr.Is(err, mooseerr.MissingInput))
}

func TestSessionRunsConstantAddition(t *testing.T) {
	src := `
x = Constant{value = Float32Tensor([1.0])} @Host(alice)
y = Constant{value = Float32Tensor([2.0])}: () -> Float32Tensor @Host(alice)
z = StdAdd: (Float32Tensor, Float32Tensor) -> Float32Tensor (x, y) @Host(alice)
o = Output: (Float32Tensor) -> Float32Tensor (z) @Host(alice)
`
	c, err := ir.Parse(src)
	require.NoError(t, err)

	roles := map[placement.Role]string{"alice": "worker-1"}
	s := session.New("sid-test", c, "worker-1", roles, kernel.Default(), networking.NewLocal(), storage.NewMemory(), nil, session.Config{})
	outputs, err := s.Run(context.Background())
	require.NoError(t, err)

	out, ok := outputs["o"].(value.Tensor)
	require.True(t, ok)
	assert.Equal(t, []float64{3}, out.Floats)
}

func TestSessionEmptyComputationYieldsEmptyOutputs(t *testing.T) {
	c := &computation.Computation{}
	s := session.New("sid-test", c, "worker-1", nil, kernel.Default(), networking.NewLocal(), storage.NewMemory(), nil, session.Config{})
	outputs, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, outputs)
}

func TestSessionSkipsNonParticipantOperations(t *testing.T) {
	src := `
x = Constant{value = Float64Tensor([1.0])} @Host(bob)
o = Output: (Float64Tensor) -> Float64Tensor (x) @Host(bob)
`
	c, err := ir.Parse(src)
	require.NoError(t, err)

	roles := map[placement.Role]string{"alice": "worker-alice", "bob": "worker-bob"}
	s := session.New("sid-test", c, "worker-alice", roles, kernel.Default(), networking.NewLocal(), storage.NewMemory(), nil, session.Config{})
	outputs, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, outputs)
}

func TestSessionSaveThenLoadRoundTripsThroughStorage(t *testing.T) {
	saveSrc := `
x = Constant{value = Float64Tensor([5.0])} @Host(alice)
s = Save{key = "weights"}(x) @Host(alice)
`
	loadSrc := `
l = Load{key = "weights"}: () -> Float64Tensor @Host(alice)
o = Output: (Float64Tensor) -> Float64Tensor (l) @Host(alice)
`
	store := storage.NewMemory()
	roles := map[placement.Role]string{"alice": "worker-1"}

	saveC, err := ir.Parse(saveSrc)
	require.NoError(t, err)
	saver := session.New("sid-save", saveC, "worker-1", roles, kernel.Default(), networking.NewLocal(), store, nil, session.Config{})
	_, err = saver.Run(context.Background())
	require.NoError(t, err)

	loadC, err := ir.Parse(loadSrc)
	require.NoError(t, err)
	loader := session.New("sid-load", loadC, "worker-1", roles, kernel.Default(), networking.NewLocal(), store, nil, session.Config{})
	outputs, err := loader.Run(context.Background())
	require.NoError(t, err)

	out, ok := outputs["o"].(value.Tensor)
	require.True(t, ok)
	assert.Equal(t, []float64{5}, out.Floats)
}
