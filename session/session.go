// Package session implements the Session Executor: given a Computation,
// a role assignment, and this party's identity, it drives
// every locally-placed Operation to completion, dispatching through the
// kernel registry and blocking on Send/Receive, Load/Save against the
// Networking and Storage interfaces.
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/kkloberdanz/moose/computation"
	"github.com/kkloberdanz/moose/internal/invariant"
	"github.com/kkloberdanz/moose/internal/mooseerr"
	"github.com/kkloberdanz/moose/internal/onceval"
	"github.com/kkloberdanz/moose/kernel"
	"github.com/kkloberdanz/moose/networking"
	"github.com/kkloberdanz/moose/operator"
	"github.com/kkloberdanz/moose/placement"
	"github.com/kkloberdanz/moose/storage"
	"github.com/kkloberdanz/moose/value"
)

// DebugLevel controls how much per-operation tracing a Session emits.
type DebugLevel int

const (
	DebugOff DebugLevel = iota
	DebugErrors
	DebugVerbose
)

// TelemetryLevel is carried in Config for callers; the Session does not
// read it and records no per-operation timing at any level.
type TelemetryLevel int

const (
	TelemetryOff TelemetryLevel = iota
	TelemetryBasic
)

// Config carries the ambient, non-functional knobs of a Session: logging
// verbosity (the per-operation trace goes to Logf only at DebugVerbose)
// and a telemetry level that the Session does not act on.
type Config struct {
	Debug     DebugLevel
	Telemetry TelemetryLevel
	Logf      func(format string, args ...interface{}) // nil means silent
}

func (c Config) logf(format string, args ...interface{}) {
	if c.Logf != nil && c.Debug >= DebugVerbose {
		c.Logf(format, args...)
	}
}

// Session is one party's execution of a single Computation run. The
// SessionID scopes every networking rendezvous so concurrent runs of
// the same computation never cross wires.
type Session struct {
	SessionID      string
	Computation    *computation.Computation
	Identity       string
	RoleAssignment map[placement.Role]string
	Kernels        *kernel.Registry
	Net            networking.Networking
	Store          storage.Storage
	Arguments      map[string]value.Value
	Cfg            Config

	mu      sync.Mutex
	handles map[string]*onceval.Cell[value.Value]
}

// New constructs a Session ready to Run once.
func New(sessionID string, c *computation.Computation, identity string, roles map[placement.Role]string, kernels *kernel.Registry, net networking.Networking, store storage.Storage, args map[string]value.Value, cfg Config) *Session {
	invariant.NotNil(c, "computation")
	invariant.NotNil(kernels, "kernel registry")
	return &Session{
		SessionID:      sessionID,
		Computation:    c,
		Identity:       identity,
		RoleAssignment: roles,
		Kernels:        kernels,
		Net:            net,
		Store:          store,
		Arguments:      args,
		Cfg:            cfg,
		handles:        make(map[string]*onceval.Cell[value.Value]),
	}
}

func (s *Session) handleFor(name string) *onceval.Cell[value.Value] {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.handles[name]
	if !ok {
		h = onceval.New[value.Value]()
		s.handles[name] = h
	}
	return h
}

// Run drives every locally-placed Operation to completion and returns the
// values bound to this party's Output operations. A failing operation
// resolves its own handle with its error; every operation awaiting that
// handle fails with UpstreamFailed wrapping it. Run returns the first
// error once every local goroutine has settled.
func (s *Session) Run(ctx context.Context) (map[string]value.Value, error) {
	order, err := s.Computation.TopologicalOrder()
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var firstErrMu sync.Mutex
	var firstErr error

	recordErr := func(err error) {
		firstErrMu.Lock()
		if firstErr == nil {
			firstErr = err
		}
		firstErrMu.Unlock()
		cancel()
	}

	for _, op := range order {
		if !placement.IsLocal(op.Placement, s.Identity, s.RoleAssignment) {
			continue
		}
		op := op
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.runOne(runCtx, op); err != nil {
				s.handleFor(op.Name).Resolve(nil, err)
				recordErr(err)
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	outputs := make(map[string]value.Value)
	byName := s.Computation.ByName()
	for _, name := range s.Computation.Outputs() {
		op := byName[name]
		if !placement.IsLocal(op.Placement, s.Identity, s.RoleAssignment) {
			continue
		}
		v, err := s.handleFor(name).Await(ctx)
		if err != nil {
			return nil, err
		}
		outputs[name] = v
	}
	return outputs, nil
}

// runOne resolves a single local operation's handle, awaiting its inputs
// first. Send/Receive/Load/Save/Input are handled directly since they
// talk to Networking/Storage/the caller's arguments rather than the
// kernel dispatch table.
func (s *Session) runOne(ctx context.Context, op computation.Operation) error {
	s.Cfg.logf("session: evaluating %s (%s)", op.Name, op.Op.Kind)

	switch op.Op.Kind {
	case operator.Input:
		argName := op.Op.Str("arg_name")
		v, ok := s.Arguments[argName]
		if !ok {
			return mooseerr.New(mooseerr.MissingInput, "no argument bound for %q", argName)
		}
		s.handleFor(op.Name).Resolve(v.Clone(), nil)
		return nil

	case operator.Output:
		v, err := s.awaitInput(ctx, op.Inputs[0])
		if err != nil {
			return err
		}
		s.handleFor(op.Name).Resolve(v, nil)
		return nil

	case operator.Load:
		if s.Store == nil {
			return mooseerr.New(mooseerr.StorageFailure, "no storage backend configured")
		}
		hint := value.InvalidTy
		if op.Op.Sig != nil {
			hint = op.Op.Sig.Output
		}
		v, err := s.Store.Load(ctx, op.Op.Str("key"), hint)
		if err != nil {
			return err
		}
		if hint != value.InvalidTy && v.Ty() != hint {
			return mooseerr.New(mooseerr.TypeMismatch, "load %q expected %s, got %s", op.Name, hint, v.Ty())
		}
		s.handleFor(op.Name).Resolve(v, nil)
		return nil

	case operator.Save:
		v, err := s.awaitInput(ctx, op.Inputs[0])
		if err != nil {
			return err
		}
		if s.Store == nil {
			return mooseerr.New(mooseerr.StorageFailure, "no storage backend configured")
		}
		if err := s.Store.Save(ctx, op.Op.Str("key"), v); err != nil {
			return err
		}
		s.handleFor(op.Name).Resolve(value.UnitValue{}, nil)
		return nil

	case operator.Send:
		v, err := s.awaitInput(ctx, op.Inputs[0])
		if err != nil {
			return err
		}
		if s.Net == nil {
			return mooseerr.New(mooseerr.NetworkingFailure, "no networking backend configured")
		}
		encoded, err := value.Encode(v)
		if err != nil {
			return mooseerr.Wrap(mooseerr.NetworkingFailure, err, "encode value for send %q", op.Name)
		}
		receiver := s.identityFor(op.Op.Str("receiver"))
		if err := s.Net.Send(ctx, encoded, receiver, op.Op.Str("rendezvous_key"), s.SessionID); err != nil {
			return err
		}
		s.handleFor(op.Name).Resolve(value.UnitValue{}, nil)
		return nil

	case operator.Receive:
		if s.Net == nil {
			return mooseerr.New(mooseerr.NetworkingFailure, "no networking backend configured")
		}
		sender := s.identityFor(op.Op.Str("sender"))
		data, err := s.Net.Receive(ctx, sender, op.Op.Str("rendezvous_key"), s.SessionID)
		if err != nil {
			return err
		}
		v, err := value.Decode(data)
		if err != nil {
			return mooseerr.Wrap(mooseerr.NetworkingFailure, err, "decode value for receive %q", op.Name)
		}
		if op.Op.Sig != nil && v.Ty() != op.Op.Sig.Output {
			return mooseerr.New(mooseerr.TypeMismatch, "receive %q expected %s, got %s", op.Name, op.Op.Sig.Output, v.Ty())
		}
		s.handleFor(op.Name).Resolve(v, nil)
		return nil

	default:
		return s.runKernel(ctx, op)
	}
}

func (s *Session) runKernel(ctx context.Context, op computation.Operation) error {
	inputs := make([]value.Value, len(op.Inputs))
	inputTys := make([]value.Ty, len(op.Inputs))
	for i, name := range op.Inputs {
		v, err := s.awaitInput(ctx, name)
		if err != nil {
			return err
		}
		inputs[i] = v
		inputTys[i] = v.Ty()
	}

	var outputTy value.Ty
	if op.Op.Sig != nil {
		outputTy = op.Op.Sig.Output
	} else {
		outputTy = inferOutputTy(op.Op, inputTys)
	}

	fn, _, err := s.Kernels.Lookup(op.Op.Kind, op.Placement.Kind(), inputTys, outputTy)
	if err != nil {
		return err
	}

	result, err := fn(ctx, op.Op, inputs)
	if err != nil {
		return err
	}
	s.handleFor(op.Name).Resolve(result, nil)
	return nil
}

// inferOutputTy handles operators whose result type follows trivially
// from their attributes or inputs, so the textual IR need not carry an
// explicit signature clause for every operation.
func inferOutputTy(op operator.Operator, inputs []value.Ty) value.Ty {
	switch {
	case op.Kind == operator.Identity && len(inputs) == 1:
		return inputs[0]
	case op.Kind == operator.Constant:
		if v, ok := op.Attrs["value"]; ok && v.Kind == operator.AttrValueLiteral {
			return v.Value.Ty()
		}
	}
	return value.InvalidTy
}

// awaitInput blocks on an upstream operation's handle. The upstream's
// own error stays on its own handle; the awaiting operation fails with
// UpstreamFailed naming the operation it was waiting on.
func (s *Session) awaitInput(ctx context.Context, name string) (value.Value, error) {
	v, err := s.handleFor(name).Await(ctx)
	if err == nil {
		return v, nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, mooseerr.Wrap(mooseerr.Cancelled, err, "awaiting %q", name)
	}
	return nil, mooseerr.Wrap(mooseerr.UpstreamFailed, err, "operation %q failed upstream", name)
}

// identityFor maps a role named in a Send/Receive attribute to the bound
// worker identity. An endpoint not present in the role assignment is
// taken to already be an identity, so descriptors may address workers
// directly.
func (s *Session) identityFor(role string) string {
	if id, ok := s.RoleAssignment[placement.Role(role)]; ok {
		return id
	}
	return role
}
