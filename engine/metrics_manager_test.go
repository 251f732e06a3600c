package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentilesInterpolatesOverSortedSamples(t *testing.T) {
	samples := []time.Duration{
		10 * time.Millisecond,
		20 * time.Millisecond,
		30 * time.Millisecond,
		40 * time.Millisecond,
		50 * time.Millisecond,
	}
	p := percentiles(samples)
	assert.Equal(t, 30*time.Millisecond, p.P50)
	assert.InDelta(t, float64(48*time.Millisecond), float64(p.P95), float64(time.Millisecond))
}

func TestPercentilesSingleSample(t *testing.T) {
	p := percentiles([]time.Duration{5 * time.Millisecond})
	assert.Equal(t, 5*time.Millisecond, p.P50)
	assert.Equal(t, 5*time.Millisecond, p.P99)
}

func TestMetricsManagerTickRequiresAtLeastTwoSamples(t *testing.T) {
	m := NewMetricsManager(testIdentity(), nil)
	m.RecordOrderBookLatency(10 * time.Millisecond)

	_, ok := m.tick()
	assert.False(t, ok)
}

func TestMetricsManagerTickResetsWindow(t *testing.T) {
	m := NewMetricsManager(testIdentity(), nil)
	m.RecordOrderBookLatency(10 * time.Millisecond)
	m.RecordOrderBookLatency(20 * time.Millisecond)
	m.IncrementOrderBookPublish(3)
	m.IncrementPrivateAPICall()

	payload, ok := m.tick()
	require.True(t, ok)
	assert.Equal(t, 3, payload.OrderBookPublishRate)
	assert.Equal(t, 1, payload.PrivateAPICallRate)

	_, ok = m.tick()
	assert.False(t, ok)
}

func TestMetricsManagerCumulativeBooksAccumulates(t *testing.T) {
	m := NewMetricsManager(testIdentity(), nil)
	m.IncrementOrderBooksReceived(2)
	m.IncrementOrderBooksReceived(3)
	assert.Equal(t, int64(5), m.cumulative())
}
