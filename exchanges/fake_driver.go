package exchanges

import (
	"context"
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/meridianfx/marketgate/exchanges/account"
	"github.com/meridianfx/marketgate/exchanges/order"
	"github.com/meridianfx/marketgate/exchanges/orderbook"
)

// ErrOrderNotFound mirrors ccxt's OrderNotFound: cancelling an order the
// venue no longer knows about (already filled/cancelled upstream). The
// dispatcher special-cases this (spec §4.6, §7 kind 4).
var ErrOrderNotFound = errors.New("exchanges: order not found")

// ErrUnknownClientOrderID is returned by FetchOrder/CancelOrder when asked
// about a client order id the fake has never created.
var ErrUnknownClientOrderID = errors.New("exchanges: unknown client order id")

// FakeDriver is a minimal in-memory Driver used by the engine's tests. It
// plays the same role as the teacher's omfExchange in
// engine/order_manager_test.go: a stand-in that needs no live credentials
// or network access, with scripted hooks the test can override.
type FakeDriver struct {
	mu     sync.Mutex
	orders map[string]order.Detail // by exchange id
	byCID  map[string]string       // client_order_id -> exchange id

	// NextOrderID, when set, is returned as the exchange id for the next
	// CreateOrder call instead of an auto-incrementing one.
	NextOrderID func() string

	// OnCreateOrder, if set, lets a test script the resulting status
	// (e.g. immediately "closed" to simulate a market fill).
	OnCreateOrder func(order.CreateParams) order.Detail

	seq int
}

// NewFakeDriver returns an empty FakeDriver ready to create/fetch/cancel
// orders against.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{
		orders: make(map[string]order.Detail),
		byCID:  make(map[string]string),
	}
}

// FetchOrderBook returns a small synthetic, already-sorted book.
func (f *FakeDriver) FetchOrderBook(_ context.Context, symbol string, depth int) (orderbook.Book, error) {
	return syntheticBook(symbol, depth), nil
}

// WatchOrderBook returns one synthetic update, same shape as FetchOrderBook.
// Real streaming drivers block until the next update; the fake returns
// immediately since tests drive the loop explicitly.
func (f *FakeDriver) WatchOrderBook(ctx context.Context, symbol string, depth int) (orderbook.Book, error) {
	return f.FetchOrderBook(ctx, symbol, depth)
}

// FetchOrderBooks batches FetchOrderBook across symbols.
func (f *FakeDriver) FetchOrderBooks(ctx context.Context, symbols []string, depth int) ([]orderbook.Book, error) {
	books := make([]orderbook.Book, 0, len(symbols))
	for _, s := range symbols {
		b, err := f.FetchOrderBook(ctx, s, depth)
		if err != nil {
			return nil, err
		}
		books = append(books, b)
	}
	return books, nil
}

func syntheticBook(symbol string, depth int) orderbook.Book {
	if depth <= 0 {
		depth = 1
	}
	bids := make([]orderbook.Level, depth)
	asks := make([]orderbook.Level, depth)
	base := decimal.NewFromInt(100)
	for i := 0; i < depth; i++ {
		step := decimal.NewFromInt(int64(i))
		bids[i] = orderbook.Level{Price: base.Sub(step), Size: decimal.NewFromInt(1)}
		asks[i] = orderbook.Level{Price: base.Add(step).Add(decimal.NewFromInt(1)), Size: decimal.NewFromInt(1)}
	}
	return orderbook.Book{Symbol: symbol, Bids: bids, Asks: asks, TimestampUs: 0}
}

// FetchPartialBalance returns zero balances for every requested asset; the
// fake holds no balance state, so a test that needs non-zero balances
// overrides this via a wrapping type (mirrors the teacher's
// override-by-embedding pattern for fakes, e.g. omfExchange embedding
// exchange.IBotExchange).
func (f *FakeDriver) FetchPartialBalance(_ context.Context, assets []string) (account.Balance, error) {
	raw := map[string]account.Asset{}
	return FormatBalance(raw, assets, 0), nil
}

// WatchBalance returns an empty balance snapshot.
func (f *FakeDriver) WatchBalance(_ context.Context) (account.Balance, error) {
	return account.Balance{Assets: map[string]account.Asset{}}, nil
}

// WatchOrders returns every order currently tracked by the fake, letting a
// test simulate a streaming update by first mutating an order's status via
// SetOrderStatus and then calling WatchOrders.
func (f *FakeDriver) WatchOrders(_ context.Context) ([]order.Detail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]order.Detail, 0, len(f.orders))
	for _, o := range f.orders {
		out = append(out, o)
	}
	return out, nil
}

// FetchOrder looks an order up by its exchange order id (params.ID) when
// given, matching the real venue contract of spec §4.2's
// fetch_order({id, symbol}); it falls back to a client-order-id lookup
// when ID is empty, for callers that have not resolved one (e.g. this
// fake's own direct-call tests).
func (f *FakeDriver) FetchOrder(_ context.Context, params order.FetchParams) (order.Detail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	exID := params.ID
	if exID == "" {
		var ok bool
		exID, ok = f.byCID[params.ClientOrderID]
		if !ok {
			return order.Detail{}, ErrUnknownClientOrderID
		}
	}
	o, ok := f.orders[exID]
	if !ok {
		return order.Detail{}, ErrOrderNotFound
	}
	return o, nil
}

// FetchOpenOrders returns every order with status Open.
func (f *FakeDriver) FetchOpenOrders(_ context.Context, symbols []string) ([]order.Detail, error) {
	wanted := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		wanted[s] = true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []order.Detail
	for _, o := range f.orders {
		if o.Status == order.Open && (len(wanted) == 0 || wanted[o.Symbol]) {
			out = append(out, o)
		}
	}
	return out, nil
}

// CreateOrder places a new order, defaulting to status Open unless
// OnCreateOrder scripts a different outcome.
func (f *FakeDriver) CreateOrder(_ context.Context, params order.CreateParams) (order.Detail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var detail order.Detail
	if f.OnCreateOrder != nil {
		detail = f.OnCreateOrder(params)
	} else {
		detail = order.Detail{
			Status: order.Open,
			Symbol: params.Symbol,
			Type:   params.Type,
			Side:   params.Side,
			Price:  params.Price,
			Amount: params.Amount,
			Filled: decimal.Zero,
		}
	}
	if detail.ID == "" {
		detail.ID = f.nextID()
	}
	detail.ClientOrderID = params.ClientOrderID

	f.orders[detail.ID] = detail
	f.byCID[params.ClientOrderID] = detail.ID
	return detail, nil
}

func (f *FakeDriver) nextID() string {
	if f.NextOrderID != nil {
		return f.NextOrderID()
	}
	f.seq++
	return "fake-order-" + strconv.Itoa(f.seq)
}

// CancelOrder marks an order canceled by its exchange order id
// (params.ID), falling back to a client-order-id lookup when ID is empty,
// or returns ErrOrderNotFound if the venue has already dropped it
// (simulating a fill/expiry race).
func (f *FakeDriver) CancelOrder(_ context.Context, params order.FetchParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	exID := params.ID
	if exID == "" {
		var ok bool
		exID, ok = f.byCID[params.ClientOrderID]
		if !ok {
			return ErrUnknownClientOrderID
		}
	}
	o, ok := f.orders[exID]
	if !ok || order.IsTerminal(o.Status) {
		return ErrOrderNotFound
	}
	o.Status = order.Canceled
	f.orders[exID] = o
	return nil
}

// CancelAllOrders marks every open order for the given symbols as canceled.
func (f *FakeDriver) CancelAllOrders(_ context.Context, symbols []string) error {
	wanted := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		wanted[s] = true
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, o := range f.orders {
		if o.Status == order.Open && (len(wanted) == 0 || wanted[o.Symbol]) {
			o.Status = order.Canceled
			f.orders[id] = o
		}
	}
	return nil
}

// Close is a no-op for the fake.
func (f *FakeDriver) Close() error { return nil }

// SetOrderStatus lets a test simulate an exchange-side status transition
// ahead of the next WatchOrders/FetchOrder call.
func (f *FakeDriver) SetOrderStatus(clientOrderID string, status order.Status, filled decimal.Decimal) {
	f.mu.Lock()
	defer f.mu.Unlock()
	exID, ok := f.byCID[clientOrderID]
	if !ok {
		return
	}
	o := f.orders[exID]
	o.Status = status
	o.Filled = filled
	f.orders[exID] = o
}

var _ Driver = (*FakeDriver)(nil)
