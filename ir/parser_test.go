package ir_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/kkloberdanz/moose/internal/mooseerr"
	"github.com/kkloberdanz/moose/ir"
	"github.com/kkloberdanz/moose/operator"
	"github.com/kkloberdanz/moose/placement"
	"github.com/kkloberdanz/moose/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBasicComputation(t *testing.T) {
	src := `
x = Input{arg_name = "x"} @Host(alice)
y = Input{arg_name = "y"} @Host(alice)
z = StdAdd(x, y): (Float64Tensor, Float64Tensor) -> Float64Tensor @Host(alice)
out = Output(z) @Host(alice)
`
	c, err := ir.Parse(src)
	require.NoError(t, err)
	require.Len(t, c.Operations, 4)

	assert.Equal(t, "x", c.Operations[0].Name)
	assert.Equal(t, operator.Input, c.Operations[0].Op.Kind)
	assert.Equal(t, "x", c.Operations[0].Op.Str("arg_name"))

	assert.Equal(t, operator.StdAdd, c.Operations[2].Op.Kind)
	require.NotNil(t, c.Operations[2].Op.Sig)
	assert.Equal(t, value.Float64TensorTy, c.Operations[2].Op.Sig.Output)
	assert.Equal(t, []string{"x", "y"}, c.Operations[2].Inputs)

	host, ok := c.Operations[0].Placement.(placement.Host)
	require.True(t, ok)
	assert.Equal(t, placement.Role("alice"), host.Owner)
}

func TestParsePlacements(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind placement.Kind
	}{
		{"host", `x = Identity(y) @Host(alice)`, placement.HostKind},
		{"replicated", `x = Identity(y) @Replicated(alice, bob, carol)`, placement.ReplicatedKind},
		{"mirrored3", `x = Identity(y) @Mirrored3(alice, bob, carol)`, placement.Mirrored3Kind},
		{"additive", `x = Identity(y) @Additive(alice, bob)`, placement.AdditiveKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// y is a dangling reference on its own, so wrap it in a
			// defining operation first.
			src := `y = Input{arg_name = "y"} @Host(alice)` + "\n" + tt.src
			c, err := ir.Parse(src)
			require.NoError(t, err)
			require.Len(t, c.Operations, 2)
			assert.Equal(t, tt.kind, c.Operations[1].Placement.Kind())
		})
	}
}

func TestParseUnknownOperatorSuggestsClosest(t *testing.T) {
	_, err := ir.Parse(`x = StdAd(y) @Host(alice)`)
	require.Error(t, err)
	assert.True(t, mooseerr.Is(err, mooseerr.UnknownOperator))
	assert.Contains(t, err.Error(), "StdAdd")
}

func TestParseDanglingReference(t *testing.T) {
	_, err := ir.Parse(`x = Identity(missing) @Host(alice)`)
	require.Error(t, err)
	assert.True(t, mooseerr.Is(err, mooseerr.DanglingReference))
}

func TestParseValueLiterals(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"float64tensor", `c = Constant{value = Float64Tensor([[1.0, 2.0], [3.0, 4.0]])} @Host(alice)`},
		{"ring64tensor", `c = Constant{value = Ring64Tensor([1, 2, 3])} @Host(alice)`},
		{"bool", `c = Constant{value = Bool(true)} @Host(alice)`},
		{"string", `c = Constant{value = String("hello")} @Host(alice)`},
		{"shape", `c = Constant{value = Shape([2, 3])} @Host(alice)`},
		{"seed", `c = Constant{value = Seed(0x00112233445566778899aabbccddeeff)} @Host(alice)`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := ir.Parse(tt.src)
			require.NoError(t, err)
			require.Len(t, c.Operations, 1)
			v := c.Operations[0].Op.ValueLiteral("value")
			assert.NotNil(t, v)
		})
	}
}

func TestParseRaggedTensorLiteralFails(t *testing.T) {
	_, err := ir.Parse(`c = Constant{value = Float64Tensor([[1.0, 2.0], [3.0]])} @Host(alice)`)
	require.Error(t, err)
	assert.True(t, mooseerr.Is(err, mooseerr.ParseError))
}

func TestParseBadSeedLengthFails(t *testing.T) {
	_, err := ir.Parse(`c = Constant{value = Seed(0x00)} @Host(alice)`)
	require.Error(t, err)
	assert.True(t, mooseerr.Is(err, mooseerr.ParseError))
}

func TestPrintParseRoundTrip(t *testing.T) {
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

	printed := ir.Print(c)
	reparsed, err := ir.Parse(printed)
	require.NoError(t, err)

	if diff := cmp.Diff(c, reparsed); diff != "" {
		t.Errorf("print/parse round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestPrintParseRoundTripWithAttrsAndLiterals(t *testing.T) {
	src := `
c = Constant{value = Float64Tensor([[1.0, 2.0], [3.0, 4.0]])} @Host(alice)
r = StdExpandDims{axis = 1, keep_dims = true}(c) @Host(alice)
out = Output(r) @Host(alice)
`
	c, err := ir.Parse(src)
	require.NoError(t, err)

	printed := ir.Print(c)
	reparsed, err := ir.Parse(printed)
	require.NoError(t, err)

	if diff := cmp.Diff(c, reparsed); diff != "" {
		t.Errorf("print/parse round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestParseStrictRejectsMissingRequiredAttr(t *testing.T) {
	_, err := ir.ParseStrict(`
x = Input{arg_name = "x"} @Host(alice)
s = Send{rendezvous_key = "k"}(x) @Host(alice)
`)
	require.Error(t, err)
	assert.True(t, mooseerr.Is(err, mooseerr.ParseError))
}

func TestParseAcceptsSignatureBeforeOrAfterArgs(t *testing.T) {
	sigFirst := `
x = Input{arg_name = "x"} @Host(alice)
z = Identity: (Float64Tensor) -> Float64Tensor (x) @Host(alice)
`
	argsFirst := `
x = Input{arg_name = "x"} @Host(alice)
z = Identity(x): (Float64Tensor) -> Float64Tensor @Host(alice)
`
	a, err := ir.Parse(sigFirst)
	require.NoError(t, err)
	b, err := ir.Parse(argsFirst)
	require.NoError(t, err)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("signature position should not change the parse (-sig-first +args-first):\n%s", diff)
	}
}

func TestPrintParseRoundTripKeepsLargeRingElementsExact(t *testing.T) {
	src := `c = Constant{value = Ring64Tensor([18446744073709551615, 9007199254740993, 7])} @Host(alice)`
	c, err := ir.Parse(src)
	require.NoError(t, err)

	lit := c.Operations[0].Op.ValueLiteral("value").(value.Tensor)
	require.Equal(t, []uint64{18446744073709551615, 9007199254740993, 7}, lit.Ring64)

	printed := ir.Print(c)
	reparsed, err := ir.Parse(printed)
	require.NoError(t, err)

	relit := reparsed.Operations[0].Op.ValueLiteral("value").(value.Tensor)
	assert.True(t, lit.Equal(relit))
}
