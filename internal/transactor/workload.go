package transactor

import (
	"context"

	"github.com/jabolina/maelnode/internal/node"
)

// Register builds an Engine and wires the "txn" handler onto rt. The
// lin-kv replies (read_ok/write_ok/cas_ok/error) never reach a
// handler here — node.Runtime resolves them against the pending RPC
// promise before handler dispatch.
func Register(rt *node.Runtime) *Engine {
	e := NewEngine(rt)
	rt.RegisterHandler("txn", e.handleTxn)
	return e
}

func (e *Engine) handleTxn(ctx context.Context, env node.Envelope) error {
	msgID, _ := env.Body.MsgID()

	raw, _ := env.Body["txn"].([]interface{})
	ops, err := parseTxn(raw)
	if err != nil {
		return e.rt.Reply(env.Src, msgID, node.Body{
			"type": "error",
			"code": node.CodeAbort,
			"text": err.Error(),
		})
	}

	result, err := e.Transact(ctx, ops)
	if err != nil {
		pe, ok := node.AsPeerError(err)
		if !ok {
			pe = &node.PeerError{Code: node.CodeAbort, Text: err.Error()}
		}
		return e.rt.Reply(env.Src, msgID, node.Body{
			"type": "error",
			"code": pe.Code,
			"text": pe.Text,
		})
	}

	return e.rt.Reply(env.Src, msgID, node.Body{
		"type": "txn_ok",
		"txn":  encodeTxn(result),
	})
}
