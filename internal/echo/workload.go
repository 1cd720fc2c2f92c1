// Package echo implements the trivial request/reply workload: a
// baseline exercising nothing but the shared runtime's init handshake
// and reply path.
package echo

import (
	"context"

	"github.com/jabolina/maelnode/internal/node"
)

// Register wires the echo handler onto rt. There is no workload state:
// every echo request is replied to independently.
func Register(rt *node.Runtime) {
	rt.RegisterHandler("echo", func(ctx context.Context, env node.Envelope) error {
		msgID, _ := env.Body.MsgID()
		text, _ := env.Body.Str("echo")
		return rt.Reply(env.Src, msgID, node.Body{
			"type": "echo_ok",
			"echo": text,
		})
	})
}
