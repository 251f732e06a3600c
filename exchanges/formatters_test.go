package exchanges

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/meridianfx/marketgate/exchanges/account"
	"github.com/meridianfx/marketgate/exchanges/orderbook"
)

func dec(f float64) decimal.Decimal { return decimal.NewFromFloat(f) }

func TestFormatOrderBookSortsAndBoundsDepth(t *testing.T) {
	t.Parallel()
	raw := RawOrderBook{
		Symbol: "BTC/USDT",
		Bids: []orderbook.Level{
			{Price: dec(99), Size: dec(1)},
			{Price: dec(101), Size: dec(1)},
			{Price: dec(100), Size: dec(1)},
		},
		Asks: []orderbook.Level{
			{Price: dec(103), Size: dec(1)},
			{Price: dec(101), Size: dec(1)},
			{Price: dec(102), Size: dec(1)},
		},
		TimestampMs: 1_700_000_000_000,
	}

	book := FormatOrderBook(raw, 2)

	assert.Len(t, book.Bids, 2)
	assert.Len(t, book.Asks, 2)
	assert.True(t, book.Bids[0].Price.Equal(dec(101)))
	assert.True(t, book.Bids[1].Price.Equal(dec(100)))
	assert.True(t, book.Asks[0].Price.Equal(dec(101)))
	assert.True(t, book.Asks[1].Price.Equal(dec(102)))
	assert.Equal(t, int64(1_700_000_000_000_000), book.TimestampUs)
}

func TestFormatBalanceFillsMissingWithZero(t *testing.T) {
	t.Parallel()
	raw := map[string]account.Asset{
		"BTC": {Free: dec(1), Used: dec(0), Total: dec(1)},
	}

	balance := FormatBalance(raw, []string{"BTC", "USDT"}, 1_000)

	assert.Len(t, balance.Assets, 2)
	assert.True(t, balance.Assets["BTC"].Total.Equal(dec(1)))
	assert.True(t, balance.Assets["USDT"].Total.IsZero())
	assert.True(t, balance.Assets["USDT"].Free.IsZero())
	assert.Equal(t, int64(1_000_000), balance.TimestampUs)
}

func TestFormatOrderConvertsMillisecondsToMicroseconds(t *testing.T) {
	t.Parallel()
	raw := RawOrder{ID: "X1", TimestampMs: 42, Price: dec(1), Amount: dec(1), Filled: dec(0)}
	detail := FormatOrder(raw)
	assert.Equal(t, int64(42_000), detail.TimestampUs)
	assert.Equal(t, "X1", detail.ID)
}
