// Package exchanges defines the polymorphic surface the gateway drives one
// exchange through (spec §4.2, C2), plus the formatter functions that
// normalize a venue's raw response shapes into the gateway's own types.
//
// The concrete venue adapter is an external collaborator (spec §1): this
// package defines the interface and ships a FakeDriver used by the
// engine's tests, not a production adapter for any specific exchange.
package exchanges

import (
	"context"

	"github.com/meridianfx/marketgate/exchanges/account"
	"github.com/meridianfx/marketgate/exchanges/order"
	"github.com/meridianfx/marketgate/exchanges/orderbook"
)

// Driver is the uniform surface one exchange-specific adapter exposes.
// Every operation may block on network I/O and therefore takes a context.
type Driver interface {
	FetchOrderBook(ctx context.Context, symbol string, depth int) (orderbook.Book, error)
	WatchOrderBook(ctx context.Context, symbol string, depth int) (orderbook.Book, error)
	FetchOrderBooks(ctx context.Context, symbols []string, depth int) ([]orderbook.Book, error)

	FetchPartialBalance(ctx context.Context, assets []string) (account.Balance, error)
	WatchBalance(ctx context.Context) (account.Balance, error)
	WatchOrders(ctx context.Context) ([]order.Detail, error)

	// FetchOrder and CancelOrder address the venue by params.ID, the
	// exchange-assigned order id (spec §4.2: "fetch_order({id, symbol})",
	// "cancel_order({id, symbol})"). Callers resolve ID from
	// params.ClientOrderID via the correlator before calling; ClientOrderID
	// is carried along only so a Driver that prefers it (some venues accept
	// a client id directly) has it available too.
	FetchOrder(ctx context.Context, params order.FetchParams) (order.Detail, error)
	FetchOpenOrders(ctx context.Context, symbols []string) ([]order.Detail, error)
	CreateOrder(ctx context.Context, params order.CreateParams) (order.Detail, error)
	CancelOrder(ctx context.Context, params order.FetchParams) error
	CancelAllOrders(ctx context.Context, symbols []string) error

	Close() error
}
