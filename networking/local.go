package networking

import (
	"context"
	"sync"

	"github.com/kkloberdanz/moose/internal/onceval"
)

// Local is an in-process Networking implementation for running every
// party's session inside a single process (tests, single-machine
// simulation): each (session, rendezvous key) pair maps to a single-slot
// Cell that the Send call resolves and the Receive call awaits,
// regardless of arrival order.
type Local struct {
	slots *rendezvousTable
}

func NewLocal() *Local {
	return &Local{slots: newRendezvousTable()}
}

func (l *Local) Send(ctx context.Context, data []byte, _ string, rendezvousKey string, sessionID string) error {
	cell := l.slots.cellFor(slotKey(sessionID, rendezvousKey))
	cp := append([]byte(nil), data...)
	cell.Resolve(cp, nil)
	return ctx.Err()
}

func (l *Local) Receive(ctx context.Context, _ string, rendezvousKey string, sessionID string) ([]byte, error) {
	cell := l.slots.cellFor(slotKey(sessionID, rendezvousKey))
	return cell.Await(ctx)
}

// slotKey scopes a rendezvous key to one session so two sessions reusing
// the same key never observe each other's values.
func slotKey(sessionID, rendezvousKey string) string {
	return sessionID + "\x00" + rendezvousKey
}

type rendezvousTable struct {
	mu    sync.Mutex
	cells map[string]*onceval.Cell[[]byte]
}

func newRendezvousTable() *rendezvousTable {
	return &rendezvousTable{cells: make(map[string]*onceval.Cell[[]byte])}
}

// cellFor returns the Cell for key, creating it on first reference by
// either the Send or the Receive side.
func (t *rendezvousTable) cellFor(key string) *onceval.Cell[[]byte] {
	t.mu.Lock()
	defer t.mu.Unlock()
	cell, ok := t.cells[key]
	if !ok {
		cell = onceval.New[[]byte]()
		t.cells[key] = cell
	}
	return cell
}
