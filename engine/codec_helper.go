package engine

import (
	"github.com/meridianfx/marketgate/event"
	golog "github.com/meridianfx/marketgate/log"
)

// mustEncode serializes env, logging and falling back to an empty payload
// on failure rather than panicking — a handler that cannot encode its own
// outcome must still not crash the gateway.
func mustEncode(env event.Envelope) []byte {
	b, err := event.Encode(env)
	if err != nil {
		golog.Errorln(golog.Global, "encode envelope:", err)
		return []byte(`{}`)
	}
	return b
}
