package operator

import (
	"sort"
	"strings"
	"sync"

	"github.com/kkloberdanz/moose/internal/invariant"
	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Info is the catalog entry for one OpKind: its canonical name plus an
// optional attribute JSON Schema used by the textual IR parser's strict
// mode.
type Info struct {
	Kind   OpKind
	Schema *jsonschema.Schema // nil if the op takes no attrs worth validating
}

var (
	catalogMu sync.RWMutex
	catalog   = map[OpKind]Info{}
	names     []string
)

// register adds kind to the closed catalog. Called only from this
// package's init(); a second registration of the same kind is a
// programmer error.
func register(kind OpKind, schema *jsonschema.Schema) {
	catalogMu.Lock()
	defer catalogMu.Unlock()
	invariant.Invariant(!has(kind), "duplicate operator registration: %s", kind)
	catalog[kind] = Info{Kind: kind, Schema: schema}
	names = append(names, string(kind))
}

func has(kind OpKind) bool {
	_, ok := catalog[kind]
	return ok
}

// Lookup resolves a textual operator name (e.g. "StdAdd") to its OpKind.
// The catalog is closed: unknown names fail parsing.
func Lookup(name string) (OpKind, bool) {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	kind := OpKind(name)
	_, ok := catalog[kind]
	if !ok {
		return "", false
	}
	return kind, true
}

// SchemaFor returns the registered attribute schema for kind, if any.
func SchemaFor(kind OpKind) (*jsonschema.Schema, bool) {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	info, ok := catalog[kind]
	if !ok || info.Schema == nil {
		return nil, false
	}
	return info.Schema, true
}

// Names returns every registered operator name, sorted, for diagnostics.
func Names() []string {
	catalogMu.RLock()
	defer catalogMu.RUnlock()
	out := append([]string(nil), names...)
	sort.Strings(out)
	return out
}

// Suggest returns the closest registered operator name to an unknown
// name typed in the textual IR, for "unknown operator, did you mean X?"
// parse errors (fuzzy ranking rather than plain prefix matching, so
// transposed-letter typos still land on the intended name).
func Suggest(unknown string) (string, bool) {
	ranks := fuzzy.RankFindFold(unknown, Names())
	if len(ranks) == 0 {
		return "", false
	}
	sort.Sort(ranks)
	return ranks[0].Target, true
}

func init() {
	for _, kind := range []OpKind{
		Constant, Load, Save, Send, Receive, Input, Output, Identity,
		RingAdd, RingSub, RingMul, RingDot, RingSum, RingShape, RingSample, RingFill, RingShl, RingShr, RingInject,
		StdAdd, StdSub, StdMul, StdDot, StdTranspose, StdInverse, StdSlice, StdConcatenate, StdExpandDims, StdAtLeast2D, StdMean, StdSum, StdOnes, StdReshape, StdShape,
		BitExtract, BitSample, BitFill, BitXor, BitAnd,
		PrimDeriveSeed, PrimGenPrfKey,
		FixedpointEncode, FixedpointDecode, FixedpointRingEncode, FixedpointRingDecode, FixedpointRingMean,
		Cast,
		Share, Reveal, Mirror, Demirror, RepToAdt, AdtToRep, AesDecrypt,
	} {
		register(kind, nil)
	}

	// A couple of representative attribute schemas, enough to exercise
	// jsonschema-based strict validation without
	// hand-writing one for every op: Send/Receive/Load/Save/Input/Output
	// are the operators whose attrs the executor itself depends on, so
	// they are the ones worth guarding against a malformed computation.
	mustRegisterSchema(Send, `{
		"type": "object",
		"required": ["rendezvous_key", "receiver"],
		"properties": {
			"rendezvous_key": {"type": "string", "minLength": 1},
			"receiver": {"type": "string", "minLength": 1}
		}
	}`)
	mustRegisterSchema(Receive, `{
		"type": "object",
		"required": ["rendezvous_key", "sender"],
		"properties": {
			"rendezvous_key": {"type": "string", "minLength": 1},
			"sender": {"type": "string", "minLength": 1}
		}
	}`)
	mustRegisterSchema(Load, `{
		"type": "object",
		"required": ["key"],
		"properties": {"key": {"type": "string", "minLength": 1}}
	}`)
	mustRegisterSchema(Save, `{
		"type": "object",
		"required": ["key"],
		"properties": {"key": {"type": "string", "minLength": 1}}
	}`)
	mustRegisterSchema(Input, `{
		"type": "object",
		"required": ["arg_name"],
		"properties": {"arg_name": {"type": "string", "minLength": 1}}
	}`)
}

func mustRegisterSchema(kind OpKind, schemaJSON string) {
	compiler := jsonschema.NewCompiler()
	url := "mem://" + string(kind) + ".json"
	if err := compiler.AddResource(url, strings.NewReader(schemaJSON)); err != nil {
		panic(err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		panic(err)
	}

	catalogMu.Lock()
	info := catalog[kind]
	info.Schema = schema
	catalog[kind] = info
	catalogMu.Unlock()
}
