package networking

import (
	"bufio"
	"context"
	"encoding/binary"
	"io"
	"net"
	"sync"

	"github.com/kkloberdanz/moose/internal/mooseerr"
	"github.com/kkloberdanz/moose/internal/onceval"
)

// TCP is a Networking implementation over the reference wire format
//: each frame is an 8-byte little-endian length N followed by
// exactly N bytes of payload. A connection serves every rendezvous key
// exchanged with one peer, so the payload is itself a small fixed-layout
// header (session id and rendezvous key, each length-prefixed) followed
// by the value's own encoding — the demultiplexing a single shared
// connection needs, kept outside the length-prefixed frame format
// itself.
type TCP struct {
	conn  net.Conn
	w     *bufio.Writer
	wMu   sync.Mutex
	table *rendezvousTable
}

// DialTCP connects to a peer's listener and starts demultiplexing its
// inbound frames.
func DialTCP(ctx context.Context, addr string) (*TCP, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, mooseerr.Wrap(mooseerr.NetworkingFailure, err, "dial %s", addr)
	}
	return newTCP(conn), nil
}

// AcceptTCP wraps an already-accepted connection (from a net.Listener
// the launcher owns) as a Networking peer.
func AcceptTCP(conn net.Conn) *TCP {
	return newTCP(conn)
}

func newTCP(conn net.Conn) *TCP {
	t := &TCP{
		conn:  conn,
		w:     bufio.NewWriter(conn),
		table: newRendezvousTable(),
	}
	go t.readLoop()
	return t
}

func (t *TCP) readLoop() {
	r := bufio.NewReader(t.conn)
	for {
		var length uint64
		if err := binary.Read(r, binary.LittleEndian, &length); err != nil {
			if err == io.EOF {
				// Clean shutdown: not itself a framing error, but
				// any receive still waiting on this connection has nothing
				// left to wait for.
				t.failAll(mooseerr.New(mooseerr.NetworkingFailure, "connection closed"))
				return
			}
			t.failAll(mooseerr.Wrap(mooseerr.NetworkingFailure, err, "read frame length"))
			return
		}
		frame := make([]byte, length)
		if _, err := io.ReadFull(r, frame); err != nil {
			t.failAll(mooseerr.Wrap(mooseerr.NetworkingFailure, err, "read frame body"))
			return
		}
		sessionID, key, payload, err := splitFrame(frame)
		if err != nil {
			t.failAll(mooseerr.Wrap(mooseerr.NetworkingFailure, err, "framing mismatch"))
			return
		}
		t.table.cellFor(slotKey(sessionID, key)).Resolve(payload, nil)
	}
}

// failAll resolves every not-yet-resolved cell with err so pending
// Receive calls unblock instead of hanging forever once the connection
// is gone; already-resolved cells are untouched since Resolve fires
// only once.
func (t *TCP) failAll(err error) {
	t.table.mu.Lock()
	cells := make([]*onceval.Cell[[]byte], 0, len(t.table.cells))
	for _, c := range t.table.cells {
		cells = append(cells, c)
	}
	t.table.mu.Unlock()
	for _, c := range cells {
		c.Resolve(nil, err)
	}
}

// joinFrame / splitFrame lay the session id, rendezvous key and value
// payload out as two length-prefixed strings followed by the payload, so
// a single length-prefixed frame carries all three and the read loop can
// file the payload under its (session, key) slot.
func joinFrame(sessionID, key string, payload []byte) ([]byte, error) {
	if len(sessionID) > 0xFFFF {
		return nil, mooseerr.New(mooseerr.NetworkingFailure, "session id too long: %d bytes", len(sessionID))
	}
	if len(key) > 0xFFFF {
		return nil, mooseerr.New(mooseerr.NetworkingFailure, "rendezvous key too long: %d bytes", len(key))
	}
	buf := make([]byte, 0, 4+len(sessionID)+len(key)+len(payload))
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(sessionID)))
	buf = append(buf, sessionID...)
	buf = binary.LittleEndian.AppendUint16(buf, uint16(len(key)))
	buf = append(buf, key...)
	buf = append(buf, payload...)
	return buf, nil
}

func splitFrame(frame []byte) (sessionID, key string, payload []byte, err error) {
	sessionID, rest, err := takeString(frame)
	if err != nil {
		return "", "", nil, err
	}
	key, payload, err = takeString(rest)
	if err != nil {
		return "", "", nil, err
	}
	return sessionID, key, payload, nil
}

func takeString(b []byte) (string, []byte, error) {
	if len(b) < 2 {
		return "", nil, mooseerr.New(mooseerr.NetworkingFailure, "frame too short: %d bytes", len(b))
	}
	n := int(binary.LittleEndian.Uint16(b[:2]))
	if len(b) < 2+n {
		return "", nil, mooseerr.New(mooseerr.NetworkingFailure, "frame shorter than declared field length")
	}
	return string(b[2 : 2+n]), b[2+n:], nil
}

func (t *TCP) Send(ctx context.Context, data []byte, _ string, rendezvousKey string, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	frame, err := joinFrame(sessionID, rendezvousKey, data)
	if err != nil {
		return err
	}
	t.wMu.Lock()
	defer t.wMu.Unlock()
	if err := binary.Write(t.w, binary.LittleEndian, uint64(len(frame))); err != nil {
		return mooseerr.Wrap(mooseerr.NetworkingFailure, err, "write frame length for %q", rendezvousKey)
	}
	if _, err := t.w.Write(frame); err != nil {
		return mooseerr.Wrap(mooseerr.NetworkingFailure, err, "write frame body for %q", rendezvousKey)
	}
	if err := t.w.Flush(); err != nil {
		return mooseerr.Wrap(mooseerr.NetworkingFailure, err, "flush frame for %q", rendezvousKey)
	}
	return nil
}

func (t *TCP) Receive(ctx context.Context, _ string, rendezvousKey string, sessionID string) ([]byte, error) {
	cell := t.table.cellFor(slotKey(sessionID, rendezvousKey))
	return cell.Await(ctx)
}

func (t *TCP) Close() error {
	return t.conn.Close()
}
