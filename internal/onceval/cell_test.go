package onceval_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kkloberdanz/moose/internal/onceval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveThenAwaitReturnsValue(t *testing.T) {
	c := onceval.New[int]()
	c.Resolve(42, nil)

	v, err := c.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestAwaitBlocksUntilResolved(t *testing.T) {
	c := onceval.New[string]()
	var wg sync.WaitGroup
	wg.Add(1)

	var got string
	go func() {
		defer wg.Done()
		v, err := c.Await(context.Background())
		require.NoError(t, err)
		got = v
	}()

	assert.False(t, c.Ready())
	time.Sleep(10 * time.Millisecond)
	c.Resolve("done", nil)
	wg.Wait()

	assert.Equal(t, "done", got)
	assert.True(t, c.Ready())
}

func TestSecondResolveIsIgnored(t *testing.T) {
	c := onceval.New[int]()
	c.Resolve(1, nil)
	c.Resolve(2, errors.New("too late"))

	v, err := c.Await(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, v)
}

func TestAwaitUnblocksOnContextCancel(t *testing.T) {
	c := onceval.New[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := c.Await(ctx)
	assert.Error(t, err)
}

func TestResolveWithErrorPropagates(t *testing.T) {
	c := onceval.New[int]()
	wantErr := errors.New("boom")
	c.Resolve(0, wantErr)

	_, err := c.Await(context.Background())
	assert.Equal(t, wantErr, err)
}
