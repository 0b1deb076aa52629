// Package networking implements the Networking Interface: a
// rendezvous-keyed channel between two named parties, used by Send and
// Receive operations to hand a Value across a placement boundary.
package networking

import "context"

// Networking is the boundary a Session drives for cross-party data
// movement. A rendezvous key scopes one Send/Receive pair within a
// session; Receive blocks until the matching Send arrives or ctx is
// cancelled. At most one Send and one matching Receive may be issued
// per (sender, receiver, session, key) over the session's lifetime.
type Networking interface {
	Send(ctx context.Context, data []byte, receiver string, rendezvousKey string, sessionID string) error
	Receive(ctx context.Context, sender string, rendezvousKey string, sessionID string) ([]byte, error)
}
