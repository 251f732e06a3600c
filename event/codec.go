package event

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/meridianfx/marketgate/common"
	"github.com/meridianfx/marketgate/exchanges/account"
	"github.com/meridianfx/marketgate/exchanges/order"
	"github.com/meridianfx/marketgate/exchanges/orderbook"
)

func newEventID() string {
	return common.MustNewUUID()
}

func nowMicro() int64 {
	return common.NowMicro()
}

// wireEnvelope is the on-the-wire JSON shape. Data stays as a raw message
// until Decode knows which Action it belongs to, since the payload variant
// depends on Action (spec §4.1 "data is decoded as the payload variant
// matched to action").
type wireEnvelope struct {
	EventID     string          `json:"event_id"`
	EventType   Type            `json:"event"`
	Action      Action          `json:"action"`
	Exchange    string          `json:"exchange"`
	Node        Node            `json:"node"`
	Instance    string          `json:"instance"`
	Algo        string          `json:"algo"`
	Message     string          `json:"message"`
	TimestampUs int64           `json:"timestamp"`
	Data        json.RawMessage `json:"data"`
}

// ErrDecode wraps every failure that can happen turning bus bytes into an
// Envelope: malformed JSON, or a payload that doesn't match its action.
var ErrDecode = errors.New("event: decode failed")

// Encode serializes an envelope to compact JSON, normalizing decimal
// fields to their canonical string form via decimal.Decimal's own
// MarshalJSON (shopspring/decimal emits normalized strings, matching
// spec §4.1's "decimal values are represented as normalized decimal
// strings where precision matters").
func Encode(e Envelope) ([]byte, error) {
	out := wireEnvelope{
		EventID:     e.EventID,
		EventType:   e.EventType,
		Action:      e.Action,
		Exchange:    e.Exchange,
		Node:        e.Node,
		Instance:    e.Instance,
		Algo:        e.Algo,
		Message:     e.Message,
		TimestampUs: e.TimestampUs,
	}
	if e.Data != nil {
		raw, err := json.Marshal(e.Data)
		if err != nil {
			return nil, errors.Wrap(err, "event: encode data")
		}
		out.Data = raw
	}
	b, err := json.Marshal(out)
	if err != nil {
		return nil, errors.Wrap(err, "event: encode envelope")
	}
	return b, nil
}

// Decode parses raw bus bytes into an Envelope. It is strict about
// structural JSON validity (bad JSON => ErrDecode) but lenient about
// unknown envelope-level keys (ignored by encoding/json already). An
// unrecognized Action does not error: it yields ActionUnknown with Data
// left nil so the caller (the dispatcher) can emit an ERROR reply instead
// of dropping the message silently.
func Decode(raw []byte) (Envelope, error) {
	var w wireEnvelope
	if err := json.Unmarshal(raw, &w); err != nil {
		return Envelope{}, errors.Wrapf(ErrDecode, "malformed envelope: %s", err)
	}

	data, err := decodePayload(w.EventType, w.Action, w.Data)
	if err != nil {
		return Envelope{}, errors.Wrapf(ErrDecode, "payload for action %q: %s", w.Action, err)
	}

	action := w.Action
	rawAction := ""
	if !validAction(action) {
		rawAction = string(w.Action)
		action = ActionUnknown
		data = nil
	}

	return Envelope{
		EventID:     w.EventID,
		EventType:   w.EventType,
		Action:      action,
		Exchange:    w.Exchange,
		Node:        w.Node,
		Instance:    w.Instance,
		Algo:        w.Algo,
		Message:     w.Message,
		TimestampUs: w.TimestampUs,
		Data:        data,
		RawAction:   rawAction,
	}, nil
}

func validAction(a Action) bool {
	switch a {
	case ActionGetBalance, ActionCreateOrders, ActionCancelOrders, ActionCancelAllOrders,
		ActionGetOrders, ActionOrderBookUpdate, ActionBalanceUpdate, ActionOrdersUpdate,
		ActionPing, ActionMetrics:
		return true
	default:
		return false
	}
}

func decodePayload(eventType Type, action Action, raw json.RawMessage) (any, error) {
	if len(raw) == 0 || string(raw) == "null" {
		switch action {
		case ActionGetBalance:
			return []string{}, nil
		default:
			return nil, nil
		}
	}

	// A DATA reply to create_orders/get_orders carries the resulting
	// orders, not the request params the command carried.
	if eventType == TypeData && (action == ActionCreateOrders || action == ActionGetOrders) {
		var v []order.Detail
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	}

	switch action {
	case ActionCreateOrders:
		var v CreateOrdersParams
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case ActionCancelOrders, ActionGetOrders:
		var v FetchOrdersParams
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case ActionCancelAllOrders:
		return nil, nil
	case ActionGetBalance:
		var v []string
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case ActionOrderBookUpdate:
		var v orderbook.Book
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case ActionBalanceUpdate:
		var v account.Balance
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case ActionOrdersUpdate:
		var v []order.Detail
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	case ActionPing:
		var v int64
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, err
		}
		return v, nil
	default:
		// Unknown action: stash the raw bytes so an ERROR reply can still
		// reference what arrived.
		return json.RawMessage(append([]byte(nil), raw...)), nil
	}
}
