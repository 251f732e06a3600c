// Package order holds the gateway's order types: the ten fields the exchange
// driver's formatter normalizes every raw order into (spec §3 "Order"), plus
// the two request shapes (CreateParams, FetchParams) the core ever sends.
package order

import (
	"github.com/shopspring/decimal"
)

// Side is the direction of an order.
type Side string

// Supported sides.
const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Type is the pricing mode of an order.
type Type string

// Supported order types.
const (
	Market Type = "market"
	Limit  Type = "limit"
)

// Status is the lifecycle state of an order as observed by the gateway.
type Status string

// All statuses the gateway can observe. Open is the only non-terminal,
// non-pending state; Pending is local-only (before create_order returns)
// and is never placed on the bus.
const (
	Pending  Status = "pending"
	Open     Status = "open"
	Closed   Status = "closed"
	Canceled Status = "canceled"
	Rejected Status = "rejected"
	Expired  Status = "expired"
)

// IsTerminal reports whether status is one of the sticky terminal states.
// Once true for a client order id, the open set never contains it again.
func IsTerminal(s Status) bool {
	switch s {
	case Closed, Canceled, Rejected, Expired:
		return true
	default:
		return false
	}
}

// Key identifies a live order the gateway is tracking: the pair the open
// set (§4.8) is a set of.
type Key struct {
	ClientOrderID string
	Symbol        string
}

// CreateParams is what the core sends to place an order (spec §3
// CreateOrderParams).
type CreateParams struct {
	ClientOrderID string          `json:"client_order_id"`
	Symbol        string          `json:"symbol"`
	Type          Type            `json:"type"`
	Side          Side            `json:"side"`
	Price         decimal.Decimal `json:"price"`
	Amount        decimal.Decimal `json:"amount"`
}

// FetchParams is what the core sends to fetch or cancel an order by its
// client-assigned id (spec §3 FetchOrderParams). The exchange order id
// never crosses the bus, so it is never populated by the codec; it is
// filled in here by the caller (the dispatcher/orders loop) after
// resolving ClientOrderID through the correlator, since spec §4.2 defines
// fetch_order/cancel_order as operating on the venue's own {id, symbol}.
type FetchParams struct {
	ID            string `json:"id,omitempty"`
	ClientOrderID string `json:"client_order_id"`
	Symbol        string `json:"symbol"`
}

// Detail is a fully normalized order as it travels to the core (spec §3
// Order). ID is exchange-assigned and is filled in by the driver;
// ClientOrderID is stitched in by the dispatcher/tracker after the fact
// since most exchange APIs do not echo it back verbatim.
type Detail struct {
	ID            string          `json:"id"`
	ClientOrderID string          `json:"client_order_id"`
	TimestampUs   int64           `json:"timestamp_us"`
	Status        Status          `json:"status"`
	Symbol        string          `json:"symbol"`
	Type          Type            `json:"type"`
	Side          Side            `json:"side"`
	Price         decimal.Decimal `json:"price"`
	Amount        decimal.Decimal `json:"amount"`
	Filled        decimal.Decimal `json:"filled"`
}
