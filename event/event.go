// Package event implements the gateway's canonical event envelope and its
// codec (spec §3 "Event (envelope)", §4.1, §6.1).
package event

import (
	"github.com/meridianfx/marketgate/exchanges/order"
)

// Type is the kind of envelope: a command from the core, a data reply, or
// an error reply.
type Type string

// Envelope types.
const (
	TypeCommand Type = "command"
	TypeData    Type = "data"
	TypeError   Type = "error"
)

// Node identifies which part of the system produced or is addressed by an
// envelope.
type Node string

// Nodes named in the wire schema.
const (
	NodeConfigurator Node = "configurator"
	NodeCore         Node = "core"
	NodeGate         Node = "gate"
	NodeAgent        Node = "agent"
)

// Action is the command or data kind an envelope carries.
type Action string

// All actions the wire schema defines (spec §6.1).
const (
	ActionGetBalance      Action = "get_balance"
	ActionCreateOrders    Action = "create_orders"
	ActionCancelOrders    Action = "cancel_orders"
	ActionCancelAllOrders Action = "cancel_all_orders"
	ActionGetOrders       Action = "get_orders"
	ActionOrderBookUpdate Action = "order_book_update"
	ActionBalanceUpdate   Action = "balance_update"
	ActionOrdersUpdate    Action = "orders_update"
	ActionPing            Action = "ping"
	ActionMetrics         Action = "metrics"

	// ActionUnknown is never sent on the wire; Decode returns it for any
	// action string it does not recognize, so the dispatcher can turn the
	// envelope into an ERROR reply instead of failing to decode outright.
	ActionUnknown Action = ""
)

// Envelope is the immutable wire record every bus message is (spec §6.1).
// Data holds the action-specific payload already decoded into its native
// Go type by Decode (CreateOrdersParams, []order.FetchParams, []string,
// orderbook.Book, account.Balance, []order.Detail, int64, or nil).
type Envelope struct {
	EventID     string `json:"event_id"`
	EventType   Type   `json:"event"`
	Action      Action `json:"action"`
	Exchange    string `json:"exchange"`
	Node        Node   `json:"node"`
	Instance    string `json:"instance"`
	Algo        string `json:"algo"`
	Message     string `json:"message"`
	TimestampUs int64  `json:"timestamp"`
	Data        any    `json:"data"`

	// RawAction carries the original action string when Decode collapses
	// an unrecognized Action to ActionUnknown, so a handler can still say
	// which action it rejected. Never put on the wire.
	RawAction string `json:"-"`
}

// CreateOrdersParams is the "data" payload shape for a CREATE_ORDERS command.
type CreateOrdersParams = []order.CreateParams

// FetchOrdersParams is the "data" payload shape for CANCEL_ORDERS/GET_ORDERS.
type FetchOrdersParams = []order.FetchParams

// Identity carries the fields every envelope a single gateway instance
// emits shares: exchange, node, instance, algo. The codec stamps these
// onto every envelope it builds so callers don't repeat them.
type Identity struct {
	Exchange string
	Node     Node
	Instance string
	Algo     string
}

// New builds an envelope with a fresh event id and the current timestamp,
// stamped with the gateway's identity.
func (id Identity) New(eventType Type, action Action, message string, data any) Envelope {
	return Envelope{
		EventID:     newEventID(),
		EventType:   eventType,
		Action:      action,
		Exchange:    id.Exchange,
		Node:        id.Node,
		Instance:    id.Instance,
		Algo:        id.Algo,
		Message:     message,
		TimestampUs: nowMicro(),
		Data:        data,
	}
}

// WithEventID is New but reuses a caller-supplied event id instead of
// minting one — used whenever a reply must correlate with the event id
// that triggered it (spec invariant 2, §8 P2).
func (id Identity) WithEventID(eventID string, eventType Type, action Action, message string, data any) Envelope {
	e := id.New(eventType, action, message, data)
	e.EventID = eventID
	return e
}
