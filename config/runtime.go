package config

import "time"

// AssetLabel maps the gateway's common asset name to the venue's own
// spelling of it (spec §6.3, Data.AssetsLabels).
type AssetLabel struct {
	Common string `json:"common"`
	Venue  string `json:"venue"`
}

// Market maps a common symbol to the venue's market identifier and
// trading rules (spec §6.3, Data.Markets).
type Market struct {
	CommonSymbol    string `json:"common_symbol"`
	VenueSymbol     string `json:"venue_symbol"`
	PricePrecision  int    `json:"price_precision"`
	AmountPrecision int    `json:"amount_precision"`
}

// ExchangeConfig identifies the venue and the credential set the
// credential pool should rotate through.
type ExchangeConfig struct {
	ExchangeID  string       `json:"exchange_id"`
	Credentials []Credential `json:"credentials"`
}

// Credential is one API key/secret pair available to the credential pool.
type Credential struct {
	APIKey     string `json:"api_key"`
	APISecret  string `json:"api_secret"`
	Passphrase string `json:"passphrase,omitempty"`
}

// RateLimits controls whether the driver applies its own client-side rate
// limiting and how long subscription setup is allowed to take.
type RateLimits struct {
	EnableCCXTRateLimiter bool          `json:"enable_ccxt_rate_limiter"`
	SubscribeTimeout      time.Duration `json:"subscribe_timeout"`
}

// GateSettings controls gateway-local behavior that isn't specific to any
// one subsystem. The three delay fields back the subscription loops'
// polling cadence (spec §4.7: "sleeping order_book_delay" /
// "balance_delay"); they are expressed in milliseconds on the wire.
// RateLimits.SubscribeTimeout is a time.Duration and so decodes from a
// nanosecond count instead.
type GateSettings struct {
	OrderBookDepth   int   `json:"order_book_depth"`
	OrderBookDelayMs int64 `json:"order_book_delay_ms"`
	BalanceDelayMs   int64 `json:"balance_delay_ms"`
	OrdersDelayMs    int64 `json:"orders_delay_ms"`
}

// OrderBookDelay returns the configured order-book HTTP poll interval.
func (g GateSettings) OrderBookDelay() time.Duration {
	return time.Duration(g.OrderBookDelayMs) * time.Millisecond
}

// BalanceDelay returns the configured balance-loop sleep interval.
func (g GateSettings) BalanceDelay() time.Duration {
	return time.Duration(g.BalanceDelayMs) * time.Millisecond
}

// OrdersDelay returns the configured orders-loop polling interval.
func (g GateSettings) OrdersDelay() time.Duration {
	return time.Duration(g.OrdersDelayMs) * time.Millisecond
}

// DataCollectionMethod selects streaming vs polling per data stream.
type DataCollectionMethod struct {
	OrderBook string `json:"order_book"`
	Balance   string `json:"balance"`
	Order     string `json:"order"`
}

// AeronEndpoints carries the bus channel/stream-id pairs for every
// publisher and the one subscriber (spec §6.2).
type AeronEndpoints struct {
	Publishers  map[string]StreamEndpoint `json:"publishers"`
	Subscribers StreamEndpoint            `json:"subscribers"`
}

// StreamEndpoint is one Aeron channel/stream-id pair.
type StreamEndpoint struct {
	Channel  string `json:"channel"`
	StreamID int32  `json:"stream_id"`
}

// Info identifies this running instance for event envelopes (spec §3).
type Info struct {
	Node     string `json:"node"`
	Exchange string `json:"exchange"`
	Instance string `json:"instance"`
}

// GateConfig groups the venue, rate-limit, gateway, and collection-method
// settings under the same path the runtime document uses.
type GateConfig struct {
	Exchange             ExchangeConfig       `json:"exchange"`
	RateLimits           RateLimits           `json:"rate_limits"`
	Gate                 GateSettings         `json:"gate"`
	DataCollectionMethod DataCollectionMethod `json:"data_collection_method"`
	Info                 Info                 `json:"info"`
	Aeron                AeronEndpoints       `json:"aeron"`
}

// Configs wraps GateConfig to mirror the runtime document's nesting.
type Configs struct {
	GateConfig GateConfig `json:"gate_config"`
}

// Account is an optional named sub-account the gateway may additionally
// watch balances for (spec §6.3, optional Accounts[]).
type Account struct {
	Label      string     `json:"label"`
	Credential Credential `json:"credential"`
}

// Data is the runtime document's top-level asset/market/config grouping.
type Data struct {
	AssetsLabels []AssetLabel `json:"assets_labels"`
	Markets      []Market     `json:"markets"`
	Configs      Configs      `json:"configs"`
}

// RuntimeConfig is the full JSON document fetched from the configurator
// (spec §6.3). cmd/gateway fetches it once at startup.
type RuntimeConfig struct {
	Algo     string    `json:"algo"`
	Data     Data      `json:"data"`
	Accounts []Account `json:"accounts,omitempty"`
}

// DefaultAssets returns the common asset names the gateway should use
// when fetch_partial_balance is called with an empty asset list (spec
// §9's resolved Open Question: fall back to the gateway's own configured
// set, not every asset the exchange knows about).
func (r RuntimeConfig) DefaultAssets() []string {
	assets := make([]string, 0, len(r.Data.AssetsLabels))
	for _, a := range r.Data.AssetsLabels {
		assets = append(assets, a.Common)
	}
	return assets
}

// Symbols returns every common symbol configured for this instance.
func (r RuntimeConfig) Symbols() []string {
	symbols := make([]string, 0, len(r.Data.Markets))
	for _, m := range r.Data.Markets {
		symbols = append(symbols, m.CommonSymbol)
	}
	return symbols
}
