package launcher_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kkloberdanz/moose/ir"
	"github.com/kkloberdanz/moose/launcher"
	"github.com/kkloberdanz/moose/placement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyPath(t *testing.T) {
	tests := []struct {
		path string
		want launcher.Classification
	}{
		{"alice.session", launcher.ClassifyLaunch},
		{"/tmp/bob.session", launcher.ClassifyLaunch},
		{"scratch.moose", launcher.ClassifyIgnore},
		{"README.md", launcher.ClassifyWarn},
		{"noext", launcher.ClassifyWarn},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, launcher.ClassifyPath(tt.path))
		})
	}
}

func TestSessionIDFromPath(t *testing.T) {
	assert.Equal(t, "alice", launcher.SessionIDFromPath("/tmp/sessions/alice.session"))
	assert.Equal(t, "bob", launcher.SessionIDFromPath("bob.session"))
}

func TestParseDescriptor(t *testing.T) {
	data := []byte(`
computation:
  path: comp.moose
  format: textual
roles:
  - name: alice
    endpoint: 127.0.0.1:4000
  - name: bob
    endpoint: 127.0.0.1:4001
`)
	d, err := launcher.ParseDescriptor(data)
	require.NoError(t, err)
	assert.Equal(t, "comp.moose", d.Computation.Path)
	assert.Equal(t, launcher.FormatTextual, d.Computation.Format)
	require.Len(t, d.Roles, 2)
	assert.Equal(t, "alice", d.Roles[0].Name)
	assert.Equal(t, "127.0.0.1:4000", d.Roles[0].Endpoint)

	roles := launcher.RoleAssignment(d)
	assert.Equal(t, "127.0.0.1:4000", roles[placement.Role("alice")])
}

func TestParseDescriptorRejectsUnknownFormat(t *testing.T) {
	_, err := launcher.ParseDescriptor([]byte(`
computation:
  path: comp.moose
  format: json
roles: []
`))
	assert.Error(t, err)
}

func TestParseDescriptorRejectsMissingPath(t *testing.T) {
	_, err := launcher.ParseDescriptor([]byte(`
computation:
  format: textual
roles: []
`))
	assert.Error(t, err)
}

func TestLoadDescriptorAndComputation(t *testing.T) {
	dir := t.TempDir()

	compPath := filepath.Join(dir, "comp.moose")
	compSrc := `
x = Input{arg_name = "x"} @Host(alice)
out = Output(x) @Host(alice)
`
	require.NoError(t, os.WriteFile(compPath, []byte(compSrc), 0o644))

	sessionPath := filepath.Join(dir, "demo.session")
	sessionSrc := "computation:\n  path: " + compPath + "\n  format: textual\nroles:\n  - name: alice\n    endpoint: alice-host\n"
	require.NoError(t, os.WriteFile(sessionPath, []byte(sessionSrc), 0o644))

	d, err := launcher.LoadDescriptor(sessionPath)
	require.NoError(t, err)
	assert.Equal(t, "demo", d.SessionID)

	c, err := launcher.LoadComputation(d)
	require.NoError(t, err)

	want, err := ir.Parse(compSrc)
	require.NoError(t, err)
	assert.Equal(t, want, c)
}
