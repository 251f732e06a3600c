package engine

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/meridianfx/marketgate/bus"
	"github.com/meridianfx/marketgate/event"
	"github.com/meridianfx/marketgate/exchanges/orderbook"
	golog "github.com/meridianfx/marketgate/log"
)

// CollectionMethod selects how a subscription loop gathers updates.
type CollectionMethod string

// The two methods the configuration can select per stream (spec §6.3).
const (
	MethodWebSocket CollectionMethod = "websocket"
	MethodHTTP      CollectionMethod = "http"
)

// OrderBookManager runs the order-book subscription loop (spec §4.7,
// "order book loop"). It never gates on the priority latch — order-book
// polling is explicitly exempt — and it uses the single ungated public
// pool rather than the credential pool.
type OrderBookManager struct {
	identity    event.Identity
	transmitter *bus.Transmitter
	pool        *PublicPool
	metrics     Recorder

	method  CollectionMethod
	symbols []string
	depth   int
	delay   time.Duration
}

// NewOrderBookManager builds an OrderBookManager.
func NewOrderBookManager(identity event.Identity, transmitter *bus.Transmitter, pool *PublicPool, metrics Recorder, method CollectionMethod, symbols []string, depth int, delay time.Duration) *OrderBookManager {
	return &OrderBookManager{
		identity:    identity,
		transmitter: transmitter,
		pool:        pool,
		metrics:     metrics,
		method:      method,
		symbols:     symbols,
		depth:       depth,
		delay:       delay,
	}
}

// Run drives the configured collection method until ctx is cancelled. For
// websocket mode it launches one goroutine per symbol (spec §4.7: "one
// task per symbol"); for http mode a single goroutine batch-polls every
// configured symbol together.
func (m *OrderBookManager) Run(ctx context.Context) {
	if m.method == MethodWebSocket {
		var wg sync.WaitGroup
		for _, symbol := range m.symbols {
			wg.Add(1)
			go func(symbol string) {
				defer wg.Done()
				m.watchLoop(ctx, symbol)
			}(symbol)
		}
		wg.Wait()
		return
	}
	m.pollLoop(ctx)
}

func (m *OrderBookManager) watchLoop(ctx context.Context, symbol string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		book, err := m.pool.Driver().WatchOrderBook(ctx, symbol, m.depth)
		if err != nil {
			m.emitError(ctx, err)
			continue
		}
		m.emitBook(ctx, book)
	}
}

// pollLoop fetches every configured symbol's book in one batch, paced by
// a rate.Limiter wrapping the configured delay rather than a bare
// time.Sleep, so jitter in the fetch itself doesn't compound across
// iterations.
func (m *OrderBookManager) pollLoop(ctx context.Context) {
	limiter := rate.NewLimiter(rate.Every(m.delay), 1)
	for {
		if err := limiter.Wait(ctx); err != nil {
			return
		}

		start := time.Now()
		books, err := m.pool.Driver().FetchOrderBooks(ctx, m.symbols, m.depth)
		m.metrics.RecordOrderBookLatency(time.Since(start))
		if err != nil {
			m.emitError(ctx, err)
			continue
		}
		for _, book := range books {
			m.emitBook(ctx, book)
		}
		m.metrics.IncrementOrderBookPublish(len(books))
		m.metrics.IncrementOrderBooksReceived(len(books))
	}
}

func (m *OrderBookManager) emitBook(ctx context.Context, book orderbook.Book) {
	env := m.identity.New(event.TypeData, event.ActionOrderBookUpdate, "", book)
	emit(ctx, m.transmitter, bus.OrderBook, env)
}

func (m *OrderBookManager) emitError(ctx context.Context, err error) {
	golog.Errorln(golog.OrderBookMgr, err)
	env := m.identity.New(event.TypeError, event.ActionOrderBookUpdate, err.Error(), nil)
	emit(ctx, m.transmitter, bus.Core, env)
}
