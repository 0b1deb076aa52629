// Package computation implements the Computation/Operation data model:
// an ordered sequence of Operations forming a DAG via
// name references, plus topological ordering and a binary codec.
package computation

import (
	"github.com/kkloberdanz/moose/internal/mooseerr"
	"github.com/kkloberdanz/moose/operator"
	"github.com/kkloberdanz/moose/placement"
)

// Operation is one named step of a Computation.
type Operation struct {
	Name      string
	Op        operator.Operator
	Inputs    []string
	Placement placement.Placement
}

// Computation is an ordered sequence of Operations. Ordering is the
// textual/serialized order; it need not be a topological order.
type Computation struct {
	Operations []Operation
}

// ByName indexes operations by name for O(1) lookup during execution
// and validation.
func (c *Computation) ByName() map[string]*Operation {
	out := make(map[string]*Operation, len(c.Operations))
	for i := range c.Operations {
		out[c.Operations[i].Name] = &c.Operations[i]
	}
	return out
}

// Validate checks the name-uniqueness and input-reference invariants
// without computing a full topological order.
func (c *Computation) Validate() error {
	seen := make(map[string]struct{}, len(c.Operations))
	for _, op := range c.Operations {
		if _, dup := seen[op.Name]; dup {
			return mooseerr.New(mooseerr.ParseError, "duplicate operation name %q", op.Name)
		}
		seen[op.Name] = struct{}{}
	}
	for _, op := range c.Operations {
		for _, in := range op.Inputs {
			if _, ok := seen[in]; !ok {
				return mooseerr.New(mooseerr.DanglingReference, "operation %q references unknown input %q", op.Name, in)
			}
		}
	}
	return nil
}

// TopologicalOrder returns an order in which every operation appears
// after all operations named in its Inputs. Fails with
// CycleDetected if the graph is not a DAG or DanglingReference on
// unresolved input names.
func (c *Computation) TopologicalOrder() ([]Operation, error) {
	byName := c.ByName()
	for _, op := range c.Operations {
		for _, in := range op.Inputs {
			if _, ok := byName[in]; !ok {
				return nil, mooseerr.New(mooseerr.DanglingReference, "operation %q references unknown input %q", op.Name, in)
			}
		}
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(c.Operations))
	order := make([]Operation, 0, len(c.Operations))

	var visit func(name string) error
	visit = func(name string) error {
		switch color[name] {
		case black:
			return nil
		case gray:
			return mooseerr.New(mooseerr.CycleDetected, "cycle detected at operation %q", name)
		}
		color[name] = gray
		op := byName[name]
		for _, in := range op.Inputs {
			if err := visit(in); err != nil {
				return err
			}
		}
		color[name] = black
		order = append(order, *op)
		return nil
	}

	for _, op := range c.Operations {
		if err := visit(op.Name); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// Outputs returns the names of every Output operation, in textual order.
func (c *Computation) Outputs() []string {
	var out []string
	for _, op := range c.Operations {
		if op.Op.Kind == operator.Output {
			out = append(out, op.Name)
		}
	}
	return out
}
