package networking_test

import (
	"context"
	"testing"
	"time"

	"github.com/kkloberdanz/moose/networking"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalSendReceiveRoundTrip(t *testing.T) {
	net := networking.NewLocal()
	ctx := context.Background()

	require.NoError(t, net.Send(ctx, []byte("payload"), "bob", "key", "sid-1"))

	got, err := net.Receive(ctx, "alice", "key", "sid-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)
}

func TestLocalReceiveBlocksUntilSend(t *testing.T) {
	net := networking.NewLocal()
	ctx := context.Background()

	done := make(chan []byte, 1)
	go func() {
		v, err := net.Receive(ctx, "alice", "late", "sid-1")
		require.NoError(t, err)
		done <- v
	}()

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, net.Send(ctx, []byte("arrived"), "bob", "late", "sid-1"))

	select {
	case v := <-done:
		assert.Equal(t, []byte("arrived"), v)
	case <-time.After(2 * time.Second):
		t.Fatal("Receive did not unblock after Send")
	}
}

func TestLocalReceiveRespectsContextCancellation(t *testing.T) {
	net := networking.NewLocal()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := net.Receive(ctx, "alice", "never-sent", "sid-1")
	assert.Error(t, err)
}

func TestLocalScopesRendezvousKeysPerSession(t *testing.T) {
	net := networking.NewLocal()
	ctx := context.Background()

	require.NoError(t, net.Send(ctx, []byte("first"), "bob", "shared", "sid-a"))
	require.NoError(t, net.Send(ctx, []byte("second"), "bob", "shared", "sid-b"))

	gotB, err := net.Receive(ctx, "alice", "shared", "sid-b")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), gotB)

	gotA, err := net.Receive(ctx, "alice", "shared", "sid-a")
	require.NoError(t, err)
	assert.Equal(t, []byte("first"), gotA)
}
