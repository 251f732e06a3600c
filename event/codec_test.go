package event

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meridianfx/marketgate/exchanges/order"
)

var id = Identity{Exchange: "binance", Node: NodeGate, Instance: "i1", Algo: "algo1"}

func TestEncodeDecodeCreateOrdersRoundTrip(t *testing.T) {
	t.Parallel()

	params := CreateOrdersParams{
		{
			ClientOrderID: "cid-1",
			Symbol:        "BTC/USDT",
			Type:          order.Limit,
			Side:          order.Sell,
			Price:         decimal.NewFromFloat(100000),
			Amount:        decimal.NewFromFloat(0.00001),
		},
	}
	env := id.New(TypeCommand, ActionCreateOrders, "", params)

	raw, err := Encode(env)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"client_order_id":"cid-1"`)
	assert.Contains(t, string(raw), `"price":"100000"`)

	decoded, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, ActionCreateOrders, decoded.Action)
	assert.Equal(t, env.EventID, decoded.EventID)

	got, ok := decoded.Data.(CreateOrdersParams)
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, "cid-1", got[0].ClientOrderID)
	assert.True(t, got[0].Price.Equal(decimal.NewFromFloat(100000)))
}

func TestDecodeUnknownActionDoesNotError(t *testing.T) {
	t.Parallel()
	raw := []byte(`{"event_id":"e1","event":"command","action":"frobnicate","data":{"x":1}}`)
	env, err := Decode(raw)
	require.NoError(t, err)
	assert.Equal(t, ActionUnknown, env.Action)
	assert.Equal(t, "frobnicate", env.RawAction)
}

func TestDecodeMalformedJSONErrors(t *testing.T) {
	t.Parallel()
	_, err := Decode([]byte(`{not json`))
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDecodeEmptyBalanceRequestDefaultsToEmptyList(t *testing.T) {
	t.Parallel()
	raw := []byte(`{"event_id":"e1","event":"command","action":"get_balance","data":[]}`)
	env, err := Decode(raw)
	require.NoError(t, err)
	assets, ok := env.Data.([]string)
	require.True(t, ok)
	assert.Empty(t, assets)
}

func TestTimestampIsSixteenDigitMicroseconds(t *testing.T) {
	t.Parallel()
	env := id.New(TypeData, ActionPing, "", int64(3))
	digits := 0
	for v := env.TimestampUs; v > 0; v /= 10 {
		digits++
	}
	assert.Equal(t, 16, digits)
}

func TestWithEventIDPreservesCallerID(t *testing.T) {
	t.Parallel()
	env := id.WithEventID("original-id", TypeData, ActionGetOrders, "", nil)
	assert.Equal(t, "original-id", env.EventID)
}
