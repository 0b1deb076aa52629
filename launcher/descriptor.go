// Package launcher loads a session descriptor file and turns it into a
// runnable session.Session. It is deliberately a one-shot loader, not a
// filesystem-watching daemon; the watch loop is out of scope.
package launcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/kkloberdanz/moose/computation"
	"github.com/kkloberdanz/moose/internal/mooseerr"
	"github.com/kkloberdanz/moose/ir"
	"github.com/kkloberdanz/moose/kernel"
	"github.com/kkloberdanz/moose/networking"
	"github.com/kkloberdanz/moose/placement"
	"github.com/kkloberdanz/moose/session"
	"github.com/kkloberdanz/moose/storage"
	"github.com/kkloberdanz/moose/value"
	"gopkg.in/yaml.v3"
)

// Format names the serialization of a session's computation file.
type Format string

const (
	FormatBinary  Format = "binary"
	FormatTextual Format = "textual"
)

// RoleConfig binds one logical Role to a network-reachable identity
// string.
type RoleConfig struct {
	Name     string `yaml:"name"`
	Endpoint string `yaml:"endpoint"`
}

// ComputationConfig names the computation file a session descriptor
// points at and how to decode it.
type ComputationConfig struct {
	Path   string `yaml:"path"`
	Format Format `yaml:"format"`
}

// Descriptor is the parsed form of a `.session` file.
type Descriptor struct {
	Computation ComputationConfig `yaml:"computation"`
	Roles       []RoleConfig      `yaml:"roles"`

	// SessionID is the file-name stem (without extension), not a
	// descriptor field.
	SessionID string `yaml:"-"`
}

// ParseDescriptor decodes a session descriptor's YAML body.
func ParseDescriptor(data []byte) (Descriptor, error) {
	var d Descriptor
	if err := yaml.Unmarshal(data, &d); err != nil {
		return Descriptor{}, mooseerr.Wrap(mooseerr.ParseError, err, "parse session descriptor")
	}
	if d.Computation.Path == "" {
		return Descriptor{}, mooseerr.New(mooseerr.ParseError, "session descriptor missing computation.path")
	}
	switch d.Computation.Format {
	case FormatBinary, FormatTextual:
	default:
		return Descriptor{}, mooseerr.New(mooseerr.ParseError, "session descriptor has unknown computation.format %q", d.Computation.Format)
	}
	return d, nil
}

// Classification is the result of ClassifyPath: only files with a
// `session` extension are launched, `moose` extensions are ignored
// silently, and anything else warrants a logged warning.
type Classification int

const (
	ClassifyLaunch Classification = iota
	ClassifyIgnore
	ClassifyWarn
)

// ClassifyPath reports how the launcher should treat a path found in the
// sessions directory.
func ClassifyPath(path string) Classification {
	switch strings.TrimPrefix(filepath.Ext(path), ".") {
	case "session":
		return ClassifyLaunch
	case "moose":
		return ClassifyIgnore
	default:
		return ClassifyWarn
	}
}

// SessionIDFromPath returns the file-name stem used as the SessionId.
func SessionIDFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// LoadDescriptor reads and parses a `.session` file from disk, filling in
// SessionID from its filename.
func LoadDescriptor(path string) (Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Descriptor{}, mooseerr.Wrap(mooseerr.ParseError, err, "read session descriptor %q", path)
	}
	d, err := ParseDescriptor(data)
	if err != nil {
		return Descriptor{}, err
	}
	d.SessionID = SessionIDFromPath(path)
	return d, nil
}

// LoadComputation reads and decodes the computation file a descriptor
// points at, honoring its declared format.
func LoadComputation(d Descriptor) (*computation.Computation, error) {
	raw, err := os.ReadFile(d.Computation.Path)
	if err != nil {
		return nil, mooseerr.Wrap(mooseerr.ParseError, err, "read computation %q", d.Computation.Path)
	}
	switch d.Computation.Format {
	case FormatBinary:
		return computation.DecodeBinary(raw)
	case FormatTextual:
		return ir.Parse(string(raw))
	default:
		return nil, mooseerr.New(mooseerr.ParseError, "unknown computation.format %q", d.Computation.Format)
	}
}

// RoleAssignment turns a descriptor's roles[] list into the
// map[placement.Role]string the session executor keys identity
// participation on.
func RoleAssignment(d Descriptor) map[placement.Role]string {
	out := make(map[placement.Role]string, len(d.Roles))
	for _, rc := range d.Roles {
		out[placement.Role(rc.Name)] = rc.Endpoint
	}
	return out
}

// Build loads a session descriptor and its computation, then constructs a
// ready-to-Run session.Session for the given identity. The caller
// supplies the kernel registry, networking, and storage backends so
// tests can swap in in-process fakes without touching the descriptor
// format.
func Build(path, identity string, kernels *kernel.Registry, net networking.Networking, store storage.Storage, args map[string]value.Value, cfg session.Config) (*session.Session, error) {
	d, err := LoadDescriptor(path)
	if err != nil {
		return nil, err
	}
	c, err := LoadComputation(d)
	if err != nil {
		return nil, err
	}
	roles := RoleAssignment(d)
	return session.New(d.SessionID, c, identity, roles, kernels, net, store, args, cfg), nil
}

// Run is a convenience wrapper around Build+Session.Run for the `moose
// run` CLI subcommand.
func Run(ctx context.Context, path, identity string, kernels *kernel.Registry, net networking.Networking, store storage.Storage, args map[string]value.Value, cfg session.Config) (map[string]value.Value, error) {
	s, err := Build(path, identity, kernels, net, store, args, cfg)
	if err != nil {
		return nil, err
	}
	return s.Run(ctx)
}
