package computation_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kkloberdanz/moose/computation"
	"github.com/kkloberdanz/moose/ir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeBinaryRoundTrip(t *testing.T) {
	src := `
x = Input{arg_name = "x"} @Host(alice)
y = Input{arg_name = "y"} @Host(alice)
z = StdAdd(x, y) @Host(alice)
s = Share(z) @Replicated(alice, bob, carol)
r = Reveal(s) @Host(alice)
out = Output(r) @Host(alice)
`
	c, err := ir.Parse(src)
	require.NoError(t, err)

	encoded, err := computation.EncodeBinary(c)
	require.NoError(t, err)

	decoded, err := computation.DecodeBinary(encoded)
	require.NoError(t, err)

	if diff := cmp.Diff(c, decoded); diff != "" {
		t.Errorf("binary round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeDecodeBinaryRoundTripWithAttrsAndLiterals(t *testing.T) {
	src := `
c = Constant{value = Float64Tensor([[1.0, 2.0], [3.0, 4.0]])} @Host(alice)
r = StdExpandDims{axis = 1, keep_dims = true}(c) @Host(alice)
out = Output(r) @Host(alice)
`
	c, err := ir.Parse(src)
	require.NoError(t, err)

	encoded, err := computation.EncodeBinary(c)
	require.NoError(t, err)

	decoded, err := computation.DecodeBinary(encoded)
	require.NoError(t, err)

	if diff := cmp.Diff(c, decoded); diff != "" {
		t.Errorf("binary round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestFingerprintIsDeterministicAndSensitiveToContent(t *testing.T) {
	c1, err := ir.Parse(`x = Input{arg_name = "x"} @Host(alice)
out = Output(x) @Host(alice)`)
	require.NoError(t, err)

	c2, err := ir.Parse(`y = Input{arg_name = "y"} @Host(alice)
out = Output(y) @Host(alice)`)
	require.NoError(t, err)

	f1a, err := computation.Fingerprint(c1)
	require.NoError(t, err)
	f1b, err := computation.Fingerprint(c1)
	require.NoError(t, err)
	assert.Equal(t, f1a, f1b)

	f2, err := computation.Fingerprint(c2)
	require.NoError(t, err)
	assert.NotEqual(t, f1a, f2)
}

func TestDecodeBinaryRejectsGarbage(t *testing.T) {
	_, err := computation.DecodeBinary([]byte{0xff, 0xff, 0xff})
	assert.Error(t, err)
}
