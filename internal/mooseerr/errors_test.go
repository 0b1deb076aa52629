package mooseerr_test

import (
	"errors"
	"testing"

	"github.com/kkloberdanz/moose/internal/mooseerr"
	"github.com/stretchr/testify/assert"
)

func TestNewCarriesKind(t *testing.T) {
	err := mooseerr.New(mooseerr.ParseError, "bad token %q", "+")
	assert.True(t, mooseerr.Is(err, mooseerr.ParseError))
	assert.Equal(t, mooseerr.ParseError, mooseerr.KindOf(err))
	assert.Contains(t, err.Error(), "bad token")
}

func TestWrapChainsCauseAndKeepsKind(t *testing.T) {
	cause := errors.New("disk full")
	err := mooseerr.Wrap(mooseerr.StorageFailure, cause, "save key %q", "x")

	assert.True(t, mooseerr.Is(err, mooseerr.StorageFailure))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "disk full")
}

func TestKindOfDefaultsToInternalForForeignErrors(t *testing.T) {
	err := errors.New("not ours")
	assert.Equal(t, mooseerr.Internal, mooseerr.KindOf(err))
	assert.False(t, mooseerr.Is(err, mooseerr.ParseError))
}

func TestIsDistinguishesKinds(t *testing.T) {
	err := mooseerr.New(mooseerr.KeyNotFound, "no value for %q", "k")
	assert.True(t, mooseerr.Is(err, mooseerr.KeyNotFound))
	assert.False(t, mooseerr.Is(err, mooseerr.TypeMismatch))
}
