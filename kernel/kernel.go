// Package kernel implements kernel dispatch: a three-level
// lookup table mapping (operator kind, placement kind, input Tys, output
// Ty) to a concrete kernel function, with collision-checked
// registration and closed-world lookup.
package kernel

import (
	"context"
	"fmt"
	"sync"

	"github.com/kkloberdanz/moose/internal/invariant"
	"github.com/kkloberdanz/moose/internal/mooseerr"
	"github.com/kkloberdanz/moose/operator"
	"github.com/kkloberdanz/moose/placement"
	"github.com/kkloberdanz/moose/value"
)

// Mode documents how a kernel is authored: concrete kernels
// just transform already-resolved Values; hybrid kernels additionally
// make concrete calls to other kernels of the same session; runtime
// kernels may issue further operations through the session. The dispatch
// contract (Fn below) is identical in all three cases — Mode is metadata
// for kernel authors and test fixtures, not something dispatch branches
// on.
type Mode int

const (
	Concrete Mode = iota
	Hybrid
	Runtime
)

// Fn is the erased kernel call: given already-resolved inputs (and the
// Operator for its attributes), produce a Value or fail. Kernels must be
// deterministic given their inputs and any PRF/seed inputs.
type Fn func(ctx context.Context, op operator.Operator, inputs []value.Value) (value.Value, error)

// Signature is the three-level dispatch key: operator kind,
// placement variant, input Tys (order-sensitive, positional), output Ty.
type Signature struct {
	Op        operator.OpKind
	Placement placement.Kind
	Inputs    string // Tys joined, see signatureKey
	Output    value.Ty
}

func signatureKey(op operator.OpKind, pk placement.Kind, inputs []value.Ty, output value.Ty) Signature {
	return Signature{Op: op, Placement: pk, Inputs: tysKey(inputs), Output: output}
}

func tysKey(tys []value.Ty) string {
	s := ""
	for i, t := range tys {
		if i > 0 {
			s += ","
		}
		s += t.String()
	}
	return s
}

type entry struct {
	mode Mode
	fn   Fn
}

// Registry is the kernel dispatch table. The zero value is not usable;
// construct with NewRegistry.
type Registry struct {
	mu    sync.RWMutex
	table map[Signature]entry
}

func NewRegistry() *Registry {
	return &Registry{table: make(map[Signature]entry)}
}

// Register adds a kernel for the given signature. It returns an error on
// a duplicate registration rather than panicking immediately, so callers
// building a registry from data (e.g. plugins) can react; MustRegister
// below is the init()-time convenience that turns that error into the
// invariant-violation panic (registration collision
// is a programmer error, detected at startup).
func (r *Registry) Register(op operator.OpKind, pk placement.Kind, inputs []value.Ty, output value.Ty, mode Mode, fn Fn) error {
	key := signatureKey(op, pk, inputs, output)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.table[key]; dup {
		return fmt.Errorf("kernel: duplicate registration for %s/%s(%s)->%s", op, pk, key.Inputs, output)
	}
	r.table[key] = entry{mode: mode, fn: fn}
	return nil
}

// MustRegister is Register, panicking via invariant on collision. Use
// from package-level init() where a collision can only be an authoring
// bug in this codebase, never a consequence of runtime input.
func (r *Registry) MustRegister(op operator.OpKind, pk placement.Kind, inputs []value.Ty, output value.Ty, mode Mode, fn Fn) {
	err := r.Register(op, pk, inputs, output, mode, fn)
	invariant.ExpectNoError(err)
}

// Lookup resolves a dispatch key to its kernel. Returns KernelNotFound
// if no exact match is registered — dispatch never falls back
// to a "closest" signature.
func (r *Registry) Lookup(op operator.OpKind, pk placement.Kind, inputs []value.Ty, output value.Ty) (Fn, Mode, error) {
	key := signatureKey(op, pk, inputs, output)
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.table[key]
	if !ok {
		return nil, 0, mooseerr.New(mooseerr.KernelNotFound, "no kernel for %s/%s(%s)->%s", op, pk, key.Inputs, output)
	}
	return e.fn, e.mode, nil
}
