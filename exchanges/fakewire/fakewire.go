// Package fakewire is a real-socket stand-in for the websocket half of a
// venue adapter (spec §4.2/§4.7 "websocket" collection method). Unlike
// exchanges.FakeDriver, which answers WatchOrderBook in-process with no
// I/O at all, fakewire.Driver dials an actual local websocket connection
// (github.com/gorilla/websocket, the teacher's own direct dependency for
// its exchange websocket feeds) so the order-book manager's websocket-mode
// loop can be exercised against real socket reads and real JSON framing —
// the shape any concrete venue adapter's WatchOrderBook would have to
// handle. The Driver dials once and does not reconnect; no read deadline
// is set, and WatchOrderBook returns before a frame arrives only when the
// caller's context ends.
package fakewire

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/meridianfx/marketgate/exchanges"
	"github.com/meridianfx/marketgate/exchanges/orderbook"
)

// ErrServerClosed is returned by Driver.WatchOrderBook once the backing
// Server has been shut down and no further ticks will arrive.
var ErrServerClosed = errors.New("fakewire: server closed")

var upgrader = gws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Server is a tiny websocket venue simulator: one connection, one symbol,
// pushing a fresh synthetic order book tick on a fixed interval until
// Close is called. It plays the role a real exchange's order-book feed
// plays against the adapter under test.
type Server struct {
	httpServer *httptest.Server
	symbol     string
	depth      int
	tick       time.Duration

	mu     sync.Mutex
	closed bool
}

// NewServer starts a Server bound to symbol, emitting depth-sized books
// every tick. The caller must Close it.
func NewServer(symbol string, depth int, tick time.Duration) *Server {
	s := &Server{symbol: symbol, depth: depth, tick: tick}
	s.httpServer = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// URL returns the ws:// endpoint to Dial.
func (s *Server) URL() string {
	return "ws" + strings.TrimPrefix(s.httpServer.URL, "http")
}

// Close stops accepting connections and tears down the HTTP listener.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.httpServer.Close()
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	seq := 0
	for range ticker.C {
		s.mu.Lock()
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return
		}
		seq++
		book := syntheticTick(s.symbol, s.depth, seq)
		if err := conn.WriteJSON(book); err != nil {
			return
		}
	}
}

func syntheticTick(symbol string, depth, seq int) orderbook.Book {
	if depth <= 0 {
		depth = 1
	}
	bids := make([]orderbook.Level, depth)
	asks := make([]orderbook.Level, depth)
	base := decimal.NewFromInt(100).Add(decimal.NewFromInt(int64(seq)))
	for i := 0; i < depth; i++ {
		step := decimal.NewFromInt(int64(i))
		bids[i] = orderbook.Level{Price: base.Sub(step), Size: decimal.NewFromInt(1)}
		asks[i] = orderbook.Level{Price: base.Add(step).Add(decimal.NewFromInt(1)), Size: decimal.NewFromInt(1)}
	}
	return orderbook.Book{Symbol: symbol, Bids: bids, Asks: asks, TimestampUs: 0}
}

// Driver embeds exchanges.FakeDriver for every non-order-book operation
// and overrides WatchOrderBook to read one real websocket frame per call,
// the way a concrete venue adapter's websocket feed would. It implements
// exchanges.Driver.
type Driver struct {
	*exchanges.FakeDriver

	mu   sync.Mutex
	conn *gws.Conn
	url  string
}

// NewDriver dials url (a Server's URL) once and returns a Driver ready to
// stream order book ticks from it.
func NewDriver(ctx context.Context, url string) (*Driver, error) {
	conn, _, err := gws.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "fakewire: dial")
	}
	return &Driver{
		FakeDriver: exchanges.NewFakeDriver(),
		conn:       conn,
		url:        url,
	}, nil
}

// WatchOrderBook blocks for the next websocket frame and decodes it as an
// orderbook.Book, matching the "single update; caller loops" contract
// spec §4.2 gives every Driver.WatchOrderBook implementation.
func (d *Driver) WatchOrderBook(ctx context.Context, _ string, _ int) (orderbook.Book, error) {
	d.mu.Lock()
	conn := d.conn
	d.mu.Unlock()
	if conn == nil {
		return orderbook.Book{}, ErrServerClosed
	}

	type result struct {
		book orderbook.Book
		err  error
	}
	done := make(chan result, 1)
	go func() {
		var book orderbook.Book
		_, raw, err := conn.ReadMessage()
		if err != nil {
			done <- result{err: errors.Wrap(err, "fakewire: read")}
			return
		}
		if err := json.Unmarshal(raw, &book); err != nil {
			done <- result{err: errors.Wrap(err, "fakewire: decode")}
			return
		}
		done <- result{book: book}
	}()

	select {
	case <-ctx.Done():
		return orderbook.Book{}, ctx.Err()
	case r := <-done:
		return r.book, r.err
	}
}

// Close closes the underlying websocket connection in addition to the
// embedded FakeDriver's no-op Close.
func (d *Driver) Close() error {
	d.mu.Lock()
	conn := d.conn
	d.conn = nil
	d.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

var _ exchanges.Driver = (*Driver)(nil)
