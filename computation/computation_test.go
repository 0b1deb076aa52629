package computation_test

import (
	"testing"

	"github.com/kkloberdanz/moose/computation"
	"github.com/kkloberdanz/moose/internal/mooseerr"
	"github.com/kkloberdanz/moose/operator"
	"github.com/kkloberdanz/moose/placement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func opInput(name, argName string) computation.Operation {
	return computation.Operation{
		Name:      name,
		Op:        operator.Operator{Kind: operator.Input, Attrs: operator.Attrs{"arg_name": {Kind: operator.AttrString, Str: argName}}},
		Placement: placement.Host{Owner: "alice"},
	}
}

func opOutput(name string, in string) computation.Operation {
	return computation.Operation{
		Name:      name,
		Op:        operator.Operator{Kind: operator.Output},
		Inputs:    []string{in},
		Placement: placement.Host{Owner: "alice"},
	}
}

func TestValidateDetectsDuplicateName(t *testing.T) {
	c := &computation.Computation{Operations: []computation.Operation{
		opInput("x", "x"),
		opInput("x", "y"),
	}}
	err := c.Validate()
	require.Error(t, err)
}

func TestValidateDetectsDanglingReference(t *testing.T) {
	c := &computation.Computation{Operations: []computation.Operation{
		opOutput("out", "missing"),
	}}
	err := c.Validate()
	require.Error(t, err)
	assert.True(t, mooseerr.Is(err, mooseerr.DanglingReference))
}

func TestValidateAcceptsWellFormedComputation(t *testing.T) {
	c := &computation.Computation{Operations: []computation.Operation{
		opInput("x", "x"),
		opOutput("out", "x"),
	}}
	assert.NoError(t, c.Validate())
}

func TestTopologicalOrderOrdersInputsBeforeDependents(t *testing.T) {
	c := &computation.Computation{Operations: []computation.Operation{
		opOutput("out", "x"),
		opInput("x", "x"),
	}}
	order, err := c.TopologicalOrder()
	require.NoError(t, err)
	require.Len(t, order, 2)
	assert.Equal(t, "x", order[0].Name)
	assert.Equal(t, "out", order[1].Name)
}

func TestTopologicalOrderDetectsCycle(t *testing.T) {
	c := &computation.Computation{Operations: []computation.Operation{
		{Name: "a", Op: operator.Operator{Kind: operator.Identity}, Inputs: []string{"b"}, Placement: placement.Host{Owner: "alice"}},
		{Name: "b", Op: operator.Operator{Kind: operator.Identity}, Inputs: []string{"a"}, Placement: placement.Host{Owner: "alice"}},
	}}
	_, err := c.TopologicalOrder()
	require.Error(t, err)
	assert.True(t, mooseerr.Is(err, mooseerr.CycleDetected))
}

func TestTopologicalOrderDetectsDanglingReference(t *testing.T) {
	c := &computation.Computation{Operations: []computation.Operation{
		opOutput("out", "missing"),
	}}
	_, err := c.TopologicalOrder()
	require.Error(t, err)
	assert.True(t, mooseerr.Is(err, mooseerr.DanglingReference))
}

func TestOutputsListsOutputOperationsInOrder(t *testing.T) {
	c := &computation.Computation{Operations: []computation.Operation{
		opInput("x", "x"),
		opOutput("out1", "x"),
		opOutput("out2", "x"),
	}}
	assert.Equal(t, []string{"out1", "out2"}, c.Outputs())
}

func TestByNameIndexesEveryOperation(t *testing.T) {
	c := &computation.Computation{Operations: []computation.Operation{
		opInput("x", "x"),
		opOutput("out", "x"),
	}}
	byName := c.ByName()
	require.Len(t, byName, 2)
	assert.Equal(t, "x", byName["x"].Name)
}
