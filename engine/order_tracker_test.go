package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/meridianfx/marketgate/exchanges/order"
)

func TestOpenSetAddContainsRemove(t *testing.T) {
	s := NewOpenSet()
	key := order.Key{ClientOrderID: "cid-1", Symbol: "BTC/USDT"}

	assert.False(t, s.Contains(key))
	s.Add(key)
	assert.True(t, s.Contains(key))
	assert.Equal(t, 1, s.Len())

	s.Remove(key)
	assert.False(t, s.Contains(key))
	assert.Equal(t, 0, s.Len())
}

func TestOpenSetAddIsIdempotent(t *testing.T) {
	s := NewOpenSet()
	key := order.Key{ClientOrderID: "cid-1", Symbol: "BTC/USDT"}
	s.Add(key)
	s.Add(key)
	assert.Equal(t, 1, s.Len())
}

func TestOpenSetObserveStatusRemovesOnlyOnTerminal(t *testing.T) {
	s := NewOpenSet()
	key := order.Key{ClientOrderID: "cid-1", Symbol: "BTC/USDT"}
	s.Add(key)

	s.ObserveStatus(key, order.Open)
	assert.True(t, s.Contains(key))

	s.ObserveStatus(key, order.Closed)
	assert.False(t, s.Contains(key))
}

func TestOpenSetConcurrentAddRemove(t *testing.T) {
	s := NewOpenSet()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := order.Key{ClientOrderID: string(rune('a' + i%26)), Symbol: "BTC/USDT"}
			s.Add(key)
			s.Remove(key)
		}(i)
	}
	wg.Wait()
}

func TestOpenSetSnapshotIsCopy(t *testing.T) {
	s := NewOpenSet()
	key := order.Key{ClientOrderID: "cid-1", Symbol: "BTC/USDT"}
	s.Add(key)

	snap := s.Snapshot()
	require := assert.New(t)
	require.Len(snap, 1)

	s.Remove(key)
	require.Len(snap, 1)
}
