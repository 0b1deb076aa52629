package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/kkloberdanz/moose/internal/mooseerr"
	"github.com/kkloberdanz/moose/value"
)

// File is a Storage backed by one cbor-encoded file per key under a root
// directory, so Load survives across runs of the same party.
type File struct {
	mu   sync.Mutex
	root string
}

func NewFile(root string) *File {
	return &File{root: root}
}

func (f *File) pathFor(key string) string {
	return filepath.Join(f.root, filepath.Base(key)+".moose-value")
}

func (f *File) Load(_ context.Context, key string, _ value.Ty) (value.Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(f.pathFor(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, mooseerr.New(mooseerr.KeyNotFound, "no value stored for key %q", key)
		}
		return nil, mooseerr.Wrap(mooseerr.StorageFailure, err, "read key %q", key)
	}
	v, err := value.Decode(data)
	if err != nil {
		return nil, mooseerr.Wrap(mooseerr.StorageFailure, err, "decode key %q", key)
	}
	return v, nil
}

func (f *File) Save(_ context.Context, key string, v value.Value) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := value.Encode(v)
	if err != nil {
		return mooseerr.Wrap(mooseerr.StorageFailure, err, "encode key %q", key)
	}
	if err := os.MkdirAll(f.root, 0o755); err != nil {
		return mooseerr.Wrap(mooseerr.StorageFailure, err, "create storage root %q", f.root)
	}
	if err := os.WriteFile(f.pathFor(key), data, 0o644); err != nil {
		return mooseerr.Wrap(mooseerr.StorageFailure, err, "write key %q", key)
	}
	return nil
}
