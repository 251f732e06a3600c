package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/meridianfx/marketgate/bus"
	"github.com/meridianfx/marketgate/event"
	golog "github.com/meridianfx/marketgate/log"
)

// Recorder is the narrow interface the order-book loop records latency
// samples through, kept separate from *MetricsManager so C7 never imports
// C9's concrete type — the same narrow-interface-between-managers style
// the teacher's engine package uses to avoid a dependency cycle between
// sibling manager files.
type Recorder interface {
	RecordOrderBookLatency(d time.Duration)
	IncrementOrderBookPublish(n int)
	IncrementPrivateAPICall()
	IncrementOrderBooksReceived(n int)
}

// MetricsManager accumulates a 1s window of order-book fetch latencies,
// publish counts, and private-API call counts, and emits METRICS/PING
// events on independent 1s tickers (spec §4.9).
type MetricsManager struct {
	mu                    sync.Mutex
	latencies             []time.Duration
	orderBookPublishCount int
	privateAPICallCount   int
	cumulativeBooks       int64

	identity    event.Identity
	transmitter *bus.Transmitter
}

// NewMetricsManager builds a MetricsManager that stamps emitted events
// with identity and offers them through transmitter.
func NewMetricsManager(identity event.Identity, transmitter *bus.Transmitter) *MetricsManager {
	return &MetricsManager{identity: identity, transmitter: transmitter}
}

// RecordOrderBookLatency appends one latency sample to the current window.
func (m *MetricsManager) RecordOrderBookLatency(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies = append(m.latencies, d)
}

// IncrementOrderBookPublish adds n to the current window's publish count.
func (m *MetricsManager) IncrementOrderBookPublish(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orderBookPublishCount += n
}

// IncrementPrivateAPICall adds one to the current window's private-API
// call count.
func (m *MetricsManager) IncrementPrivateAPICall() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.privateAPICallCount++
}

// IncrementOrderBooksReceived adds n to the liveness counter PING reports.
func (m *MetricsManager) IncrementOrderBooksReceived(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cumulativeBooks += int64(n)
}

type latencyPercentiles struct {
	P50, P95, P99 time.Duration
}

// percentiles computes p50/p95/p99 by linear interpolation over a sorted
// copy of samples (spec §4.9: "computes latency p50/p95/p99
// (interpolated)"). Volume is low enough that a histogram library buys
// nothing over an in-process sorted slice.
func percentiles(samples []time.Duration) latencyPercentiles {
	sorted := make([]time.Duration, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	interp := func(p float64) time.Duration {
		if len(sorted) == 1 {
			return sorted[0]
		}
		rank := p * float64(len(sorted)-1)
		lo := int(rank)
		hi := lo + 1
		if hi >= len(sorted) {
			return sorted[len(sorted)-1]
		}
		frac := rank - float64(lo)
		return sorted[lo] + time.Duration(frac*float64(sorted[hi]-sorted[lo]))
	}
	return latencyPercentiles{
		P50: interp(0.50),
		P95: interp(0.95),
		P99: interp(0.99),
	}
}

type metricsPayload struct {
	P50Us                int64 `json:"p50_us"`
	P95Us                int64 `json:"p95_us"`
	P99Us                int64 `json:"p99_us"`
	OrderBookPublishRate int   `json:"order_book_publish_rate"`
	PrivateAPICallRate   int   `json:"private_api_call_rate"`
}

// tick computes the current window's stats, resets it, and reports
// whether there were enough samples (>= 2, per spec §4.9) to emit METRICS.
func (m *MetricsManager) tick() (metricsPayload, bool) {
	m.mu.Lock()
	samples := m.latencies
	publishCount := m.orderBookPublishCount
	callCount := m.privateAPICallCount
	m.latencies = nil
	m.orderBookPublishCount = 0
	m.privateAPICallCount = 0
	m.mu.Unlock()

	if len(samples) < 2 {
		return metricsPayload{}, false
	}
	p := percentiles(samples)
	return metricsPayload{
		P50Us:                p.P50.Microseconds(),
		P95Us:                p.P95.Microseconds(),
		P99Us:                p.P99.Microseconds(),
		OrderBookPublishRate: publishCount,
		PrivateAPICallRate:   callCount,
	}, true
}

func (m *MetricsManager) cumulative() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cumulativeBooks
}

// Run drives the METRICS and PING tickers on independent 1s cadences
// until ctx is cancelled, matching spec §4.9's "separate PING event".
func (m *MetricsManager) Run(ctx context.Context) {
	metricsTicker := time.NewTicker(time.Second)
	pingTicker := time.NewTicker(time.Second)
	defer metricsTicker.Stop()
	defer pingTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-metricsTicker.C:
			m.emitMetrics(ctx)
		case <-pingTicker.C:
			m.emitPing(ctx)
		}
	}
}

func (m *MetricsManager) emitMetrics(ctx context.Context) {
	payload, ok := m.tick()
	if !ok {
		return
	}
	env := m.identity.New(event.TypeData, event.ActionMetrics, "", payload)
	if err := m.transmitter.Offer(ctx, bus.Logs, mustEncode(env)); err != nil {
		golog.Errorln(golog.MetricsMgr, err)
	}
}

func (m *MetricsManager) emitPing(ctx context.Context) {
	env := m.identity.New(event.TypeData, event.ActionPing, "", m.cumulative())
	if err := m.transmitter.Offer(ctx, bus.Logs, mustEncode(env)); err != nil {
		golog.Errorln(golog.MetricsMgr, err)
	}
}
