package engine

import (
	"context"

	"github.com/meridianfx/marketgate/bus"
	"github.com/meridianfx/marketgate/event"
	golog "github.com/meridianfx/marketgate/log"
)

// emit offers env to dest and, unless dest is the high-rate order-book
// stream, mirrors it to LOGS too (spec §3 invariant 5: "every outbound
// event is additionally mirrored to LOGS except high-rate
// ORDER_BOOK_UPDATE"). Shared by the dispatcher and the subscription
// loops so the mirroring rule lives in exactly one place.
func emit(ctx context.Context, transmitter *bus.Transmitter, dest bus.Destination, env event.Envelope) {
	encoded := mustEncode(env)
	if err := transmitter.Offer(ctx, dest, encoded); err != nil {
		golog.Errorln(golog.Bus, "offer to", dest, "failed:", err)
	}
	if dest == bus.OrderBook {
		return
	}
	if err := transmitter.Offer(ctx, bus.Logs, encoded); err != nil {
		golog.Errorln(golog.Bus, "mirror to logs failed:", err)
	}
}
