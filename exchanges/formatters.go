package exchanges

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/meridianfx/marketgate/exchanges/account"
	"github.com/meridianfx/marketgate/exchanges/order"
	"github.com/meridianfx/marketgate/exchanges/orderbook"
)

// RawOrderBook is what a venue adapter hands the formatter before depth
// bounding and sort-order normalization: unsorted, possibly over-depth
// levels straight off the wire.
type RawOrderBook struct {
	Symbol      string
	Bids        []orderbook.Level
	Asks        []orderbook.Level
	TimestampMs int64
}

// FormatOrderBook normalizes a raw order book: sorts bids descending and
// asks ascending by price, truncates both sides to depth, and converts the
// venue's millisecond timestamp to microseconds (spec §4.2: "all
// millisecond timestamps are multiplied by 1000").
func FormatOrderBook(raw RawOrderBook, depth int) orderbook.Book {
	bids := append([]orderbook.Level(nil), raw.Bids...)
	asks := append([]orderbook.Level(nil), raw.Asks...)

	sort.Slice(bids, func(i, j int) bool { return bids[i].Price.GreaterThan(bids[j].Price) })
	sort.Slice(asks, func(i, j int) bool { return asks[i].Price.LessThan(asks[j].Price) })

	if depth > 0 {
		if len(bids) > depth {
			bids = bids[:depth]
		}
		if len(asks) > depth {
			asks = asks[:depth]
		}
	}

	return orderbook.Book{
		Symbol:      raw.Symbol,
		Bids:        bids,
		Asks:        asks,
		TimestampUs: raw.TimestampMs * 1000,
	}
}

// FormatBalance filters a venue's raw balance down to exactly the
// requested asset codes, substituting account.ZeroAsset for any asset the
// venue did not report (spec §4.2, R2: "missing asset -> {0,0,0}").
func FormatBalance(raw map[string]account.Asset, requested []string, timestampMs int64) account.Balance {
	assets := make(map[string]account.Asset, len(requested))
	for _, code := range requested {
		if a, ok := raw[code]; ok {
			assets[code] = a
		} else {
			assets[code] = account.ZeroAsset()
		}
	}
	return account.Balance{Assets: assets, TimestampUs: timestampMs * 1000}
}

// RawOrder is what a venue adapter hands the formatter before the gateway
// stitches in the caller's client_order_id.
type RawOrder struct {
	ID          string
	TimestampMs int64
	Status      order.Status
	Symbol      string
	Type        order.Type
	Side        order.Side
	Price       decimal.Decimal
	Amount      decimal.Decimal
	Filled      decimal.Decimal
}

// FormatOrder normalizes a raw order into the gateway's ten-field Detail,
// converting the venue's millisecond timestamp to microseconds.
// ClientOrderID is intentionally left blank — callers that know it
// (the dispatcher, which holds the original request param) set it
// themselves, since most venues do not echo it back.
func FormatOrder(raw RawOrder) order.Detail {
	return order.Detail{
		ID:          raw.ID,
		TimestampUs: raw.TimestampMs * 1000,
		Status:      raw.Status,
		Symbol:      raw.Symbol,
		Type:        raw.Type,
		Side:        raw.Side,
		Price:       raw.Price,
		Amount:      raw.Amount,
		Filled:      raw.Filled,
	}
}
