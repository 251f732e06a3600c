package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianfx/marketgate/exchanges"
)

func newFakePool(n int) (*CredentialPool, []*exchanges.FakeDriver) {
	drivers := make([]exchanges.Driver, n)
	fakes := make([]*exchanges.FakeDriver, n)
	for i := 0; i < n; i++ {
		f := exchanges.NewFakeDriver()
		drivers[i] = f
		fakes[i] = f
	}
	return NewCredentialPool(drivers), fakes
}

func TestCredentialPoolRoundRobin(t *testing.T) {
	pool, fakes := newFakePool(3)
	ctx := context.Background()

	seen := make([]exchanges.Driver, 0, 3)
	for i := 0; i < 3; i++ {
		d, release, err := pool.Acquire(ctx)
		require.NoError(t, err)
		seen = append(seen, d)
		release()
	}

	assert.Same(t, fakes[0], seen[0])
	assert.Same(t, fakes[1], seen[1])
	assert.Same(t, fakes[2], seen[2])
}

func TestCredentialPoolBlocksUntilReleased(t *testing.T) {
	pool, _ := newFakePool(1)
	ctx := context.Background()

	_, release, err := pool.Acquire(ctx)
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		_, release2, err := pool.Acquire(ctx)
		require.NoError(t, err)
		close(acquired)
		release2()
	}()

	select {
	case <-acquired:
		t.Fatal("second acquire should have blocked while the only permit is held")
	case <-time.After(20 * time.Millisecond):
	}

	release()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatal("second acquire never unblocked after release")
	}
}

func TestCredentialPoolAcquireRespectsContextCancel(t *testing.T) {
	pool, _ := newFakePool(1)
	ctx := context.Background()
	_, _, err := pool.Acquire(ctx)
	require.NoError(t, err)

	cancelCtx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = pool.Acquire(cancelCtx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPublicPoolNotGated(t *testing.T) {
	f := exchanges.NewFakeDriver()
	pub := NewPublicPool(f)
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = pub.Driver().FetchOrderBook(context.Background(), "BTC/USDT", 10)
		}()
	}
	wg.Wait()
}
