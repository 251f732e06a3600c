// Package account holds the gateway's normalized balance type (spec §3
// "Balance").
package account

import "github.com/shopspring/decimal"

// Asset is one currency's balance breakdown. Free + Used is expected to
// equal Total; the gateway does not enforce this (spec §3).
type Asset struct {
	Free  decimal.Decimal `json:"free"`
	Used  decimal.Decimal `json:"used"`
	Total decimal.Decimal `json:"total"`
}

// ZeroAsset is substituted for any asset the exchange's raw balance does
// not mention, so that a partial-balance request always returns exactly
// the assets asked for (spec §4.2, R2).
func ZeroAsset() Asset {
	return Asset{
		Free:  decimal.Zero,
		Used:  decimal.Zero,
		Total: decimal.Zero,
	}
}

// Balance is a snapshot of a subset of the account's asset balances.
type Balance struct {
	Assets      map[string]Asset `json:"assets"`
	TimestampUs int64            `json:"timestamp_us"`
}
