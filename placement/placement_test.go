package placement_test

import (
	"testing"

	"github.com/kkloberdanz/moose/placement"
	"github.com/stretchr/testify/assert"
)

func TestIsLocal(t *testing.T) {
	roles := map[placement.Role]string{
		"alice": "worker-alice",
		"bob":   "worker-bob",
	}

	tests := []struct {
		name     string
		p        placement.Placement
		identity string
		want     bool
	}{
		{"host participant", placement.Host{Owner: "alice"}, "worker-alice", true},
		{"host non-participant", placement.Host{Owner: "alice"}, "worker-bob", false},
		{
			"replicated participant",
			placement.Replicated{Owners: [3]placement.Role{"alice", "bob", "alice"}},
			"worker-bob",
			true,
		},
		{
			"additive non-participant",
			placement.Additive{Owners: []placement.Role{"alice", "bob"}},
			"worker-carol",
			false,
		},
		{
			"mirrored3 participant",
			placement.Mirrored3{Owners: [3]placement.Role{"alice", "alice", "alice"}},
			"worker-alice",
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, placement.IsLocal(tt.p, tt.identity, roles))
		})
	}
}

func TestKindAndParticipants(t *testing.T) {
	h := placement.Host{Owner: "alice"}
	assert.Equal(t, placement.HostKind, h.Kind())
	assert.Equal(t, []placement.Role{"alice"}, h.Participants())

	r := placement.Replicated{Owners: [3]placement.Role{"a", "b", "c"}}
	assert.Equal(t, placement.ReplicatedKind, r.Kind())
	assert.Equal(t, []placement.Role{"a", "b", "c"}, r.Participants())
}

func TestRolesCollectsAcrossPlacements(t *testing.T) {
	placements := []placement.Placement{
		placement.Host{Owner: "alice"},
		placement.Additive{Owners: []placement.Role{"bob", "carol"}},
	}
	roles := placement.Roles(placements)
	assert.Len(t, roles, 3)
	_, ok := roles["carol"]
	assert.True(t, ok)
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "Host", placement.HostKind.String())
	assert.Equal(t, "Replicated", placement.ReplicatedKind.String())
	assert.Equal(t, "Additive", placement.AdditiveKind.String())
	assert.Equal(t, "Mirrored3", placement.Mirrored3Kind.String())
}
