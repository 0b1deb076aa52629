// Package storage implements the Storage Interface: a key/value store
// for values read by Load and written by Save.
package storage

import (
	"context"

	"github.com/kkloberdanz/moose/value"
)

// Storage is the key/value boundary driven by Load and Save operations.
// The hint passed to Load is advisory: a backend may use it to pick a
// deserializer, but callers must still verify the returned value's Ty.
// Passing value.InvalidTy means no hint.
type Storage interface {
	Load(ctx context.Context, key string, hint value.Ty) (value.Value, error)
	Save(ctx context.Context, key string, v value.Value) error
}
