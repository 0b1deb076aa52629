package kernel

import (
	"context"
	"crypto/rand"
	"hash"
	"io"

	"github.com/kkloberdanz/moose/internal/mooseerr"
	"github.com/kkloberdanz/moose/operator"
	"github.com/kkloberdanz/moose/placement"
	"github.com/kkloberdanz/moose/value"
	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/hkdf"
)

func newBlake2b256() hash.Hash {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(err)
	}
	return h
}

// RegisterPrimKernels wires the PRF/seed primitives that the replicated
// protocols use to derive per-party correlated randomness. Only the
// key-derivation plumbing lives here, not a full PRF expansion.
func RegisterPrimKernels(r *Registry) {
	r.MustRegister(operator.PrimDeriveSeed, placement.HostKind, []value.Ty{value.PrfKeyTy}, value.SeedTy, Concrete, primDeriveSeedKernel)
	r.MustRegister(operator.PrimGenPrfKey, placement.HostKind, nil, value.PrfKeyTy, Concrete, primGenPrfKeyKernel)
}

// primDeriveSeedKernel derives a Seed from a PrfKey and the operator's
// nonce attribute via HKDF-Expand keyed by BLAKE2b-256. Deterministic:
// the same key and nonce yield the same seed on every party.
func primDeriveSeedKernel(_ context.Context, op operator.Operator, inputs []value.Value) (value.Value, error) {
	key, ok := inputs[0].(value.Bytes)
	if !ok || key.Ty() != value.PrfKeyTy {
		return nil, mooseerr.New(mooseerr.TypeMismatch, "expected PrfKey, got %T", inputs[0])
	}
	nonce := nonceBytes(op)
	kdf := hkdf.New(newBlake2b256, key.Bytes(), nil, nonce)
	out := make([]byte, 16)
	if _, err := io.ReadFull(kdf, out); err != nil {
		return nil, mooseerr.Wrap(mooseerr.Internal, err, "derive seed")
	}
	return value.NewBytes(value.SeedTy, out), nil
}

// nonceBytes flattens the nonce attribute (an int list in the textual
// IR) into the byte string fed to the KDF.
func nonceBytes(op operator.Operator) []byte {
	v, ok := op.Attrs["nonce"]
	if !ok {
		return nil
	}
	switch v.Kind {
	case operator.AttrInts:
		out := make([]byte, len(v.Ints))
		for i, n := range v.Ints {
			out[i] = byte(n)
		}
		return out
	case operator.AttrBytes:
		return v.Bytes
	default:
		return nil
	}
}

func primGenPrfKeyKernel(_ context.Context, _ operator.Operator, _ []value.Value) (value.Value, error) {
	out := make([]byte, 16)
	if _, err := rand.Read(out); err != nil {
		return nil, mooseerr.Wrap(mooseerr.Internal, err, "generate PRF key")
	}
	return value.NewBytes(value.PrfKeyTy, out), nil
}
