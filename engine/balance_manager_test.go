package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianfx/marketgate/bus"
	"github.com/meridianfx/marketgate/event"
	"github.com/meridianfx/marketgate/exchanges"
)

func TestBalanceManagerFetchEmitsBalanceUpdate(t *testing.T) {
	lb := bus.NewLoopbackTransport(16)
	transmitter := newTestTransmitter(lb)
	driver := exchanges.NewFakeDriver()
	pool := NewCredentialPool([]exchanges.Driver{driver})
	gate := NewPriorityGate()

	m := NewBalanceManager(testIdentity(), transmitter, pool, gate, noopRecorder{}, BalanceFetch, []string{"BTC", "USDT"}, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		return len(lb.Drain(bus.Balance)) > 0
	}, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("balance manager did not stop after cancel")
	}
}

func TestBalanceManagerWaitsOnPriorityGate(t *testing.T) {
	lb := bus.NewLoopbackTransport(16)
	transmitter := newTestTransmitter(lb)
	driver := exchanges.NewFakeDriver()
	pool := NewCredentialPool([]exchanges.Driver{driver})
	gate := NewPriorityGate()
	gate.Close()

	m := NewBalanceManager(testIdentity(), transmitter, pool, gate, noopRecorder{}, BalanceFetch, []string{"BTC"}, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, lb.Drain(bus.Balance), "balance loop must not call the exchange while the gate is closed")

	gate.Open()
	require.Eventually(t, func() bool {
		return len(lb.Drain(bus.Balance)) > 0
	}, time.Second, time.Millisecond)

	cancel()
	<-done
}

func TestBalanceManagerWatchModeEmitsBalanceUpdate(t *testing.T) {
	lb := bus.NewLoopbackTransport(16)
	transmitter := newTestTransmitter(lb)
	driver := exchanges.NewFakeDriver()
	pool := NewCredentialPool([]exchanges.Driver{driver})
	gate := NewPriorityGate()

	m := NewBalanceManager(testIdentity(), transmitter, pool, gate, noopRecorder{}, BalanceWatch, nil, time.Hour)

	ctx := context.Background()
	// Directly invoke tick to deterministically observe one iteration's
	// outcome rather than racing the loop's timer.
	m.tick(ctx)

	balance := lb.Drain(bus.Balance)
	require.Len(t, balance, 1)
	env, err := event.Decode(balance[0])
	require.NoError(t, err)
	assert.Equal(t, event.ActionBalanceUpdate, env.Action)
}
