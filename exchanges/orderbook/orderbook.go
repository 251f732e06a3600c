// Package orderbook holds the gateway's normalized order book type (spec
// §3 "OrderBook").
package orderbook

import "github.com/shopspring/decimal"

// Level is one price/size pair on one side of the book.
type Level struct {
	Price decimal.Decimal `json:"price"`
	Size  decimal.Decimal `json:"size"`
}

// Book is a normalized, depth-bounded snapshot of one symbol's order book.
// Bids are sorted descending by price, asks ascending, exactly as
// received from the venue after formatting.
type Book struct {
	Symbol      string  `json:"symbol"`
	Bids        []Level `json:"bids"`
	Asks        []Level `json:"asks"`
	TimestampUs int64   `json:"timestamp_us"`
}
