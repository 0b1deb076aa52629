package networking_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/kkloberdanz/moose/networking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialedPair(t *testing.T) (*networking.TCP, *networking.TCP) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	serverCh := make(chan *networking.TCP, 1)
	go func() {
		conn, err := ln.Accept()
		require.NoError(t, err)
		serverCh <- networking.AcceptTCP(conn)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := networking.DialTCP(ctx, ln.Addr().String())
	require.NoError(t, err)

	server := <-serverCh
	t.Cleanup(func() { client.Close(); server.Close() })
	return client, server
}

func TestTCPSendReceiveRoundTrip(t *testing.T) {
	client, server := dialedPair(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	payload := []byte("hello, mpc")
	require.NoError(t, client.Send(ctx, payload, "server", "rendezvous-1", "sid-1"))

	got, err := server.Receive(ctx, "client", "rendezvous-1", "sid-1")
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestTCPMultiplexesDistinctRendezvousKeys(t *testing.T) {
	client, server := dialedPair(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.NoError(t, client.Send(ctx, []byte("A"), "server", "key-a", "sid-1"))
	require.NoError(t, client.Send(ctx, []byte("B"), "server", "key-b", "sid-1"))

	gotB, err := server.Receive(ctx, "client", "key-b", "sid-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("B"), gotB)

	gotA, err := server.Receive(ctx, "client", "key-a", "sid-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("A"), gotA)
}

func TestTCPCleanCloseUnblocksPendingReceive(t *testing.T) {
	client, server := dialedPair(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := server.Receive(ctx, "client", "never-sent", "sid-1")
		done <- err
	}()

	require.NoError(t, client.Close())

	select {
	case err := <-done:
		assert.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Receive did not unblock after peer closed the connection")
	}
}
