// Package raftstub implements the single-node placeholder map: a
// mutex-guarded key/value store with read/write/cas. It is not a Raft
// implementation — it is the minimum surface a future replicated log
// could be layered underneath.
package raftstub

import (
	"context"
	"sync"

	"github.com/jabolina/maelnode/internal/node"
)

// Map is a single-process key/value store. The entire request path,
// reply included, is serialised under one mutex — there is no lock striping, since this
// stub is not meant to scale, only to present the surface.
type Map struct {
	rt *node.Runtime
	mu sync.Mutex
	kv map[string]interface{}
}

// Register wires the read/write/cas handlers onto rt.
func Register(rt *node.Runtime) *Map {
	m := &Map{rt: rt, kv: make(map[string]interface{})}
	rt.RegisterHandler("read", m.handleRead)
	rt.RegisterHandler("write", m.handleWrite)
	rt.RegisterHandler("cas", m.handleCas)
	return m
}

func (m *Map) handleRead(ctx context.Context, env node.Envelope) error {
	msgID, _ := env.Body.MsgID()
	key, _ := env.Body.Str("key")

	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.kv[key]

	if !ok {
		return m.rt.Reply(env.Src, msgID, node.Body{
			"type": "error",
			"code": node.CodeKeyNotFound,
			"text": "key does not exist",
		})
	}
	return m.rt.Reply(env.Src, msgID, node.Body{"type": "read_ok", "value": value})
}

func (m *Map) handleWrite(ctx context.Context, env node.Envelope) error {
	msgID, _ := env.Body.MsgID()
	key, _ := env.Body.Str("key")
	value := env.Body["value"]

	m.mu.Lock()
	defer m.mu.Unlock()
	m.kv[key] = value

	return m.rt.Reply(env.Src, msgID, node.Body{"type": "write_ok"})
}

func (m *Map) handleCas(ctx context.Context, env node.Envelope) error {
	msgID, _ := env.Body.MsgID()
	key, _ := env.Body.Str("key")
	from := env.Body["from"]
	to := env.Body["to"]
	createIfNotExists, _ := env.Body["create_if_not_exists"].(bool)

	m.mu.Lock()
	defer m.mu.Unlock()

	current, exists := m.kv[key]
	if !exists {
		if !createIfNotExists {
			return m.rt.Reply(env.Src, msgID, node.Body{
				"type": "error",
				"code": node.CodeKeyNotFound,
				"text": "key does not exist",
			})
		}
	} else if !equalJSON(current, from) {
		return m.rt.Reply(env.Src, msgID, node.Body{
			"type": "error",
			"code": node.CodePreconditionFailed,
			"text": "current value does not match \"from\"",
		})
	}

	m.kv[key] = to
	return m.rt.Reply(env.Src, msgID, node.Body{"type": "cas_ok"})
}

// equalJSON compares two decoded-JSON scalars/structures for equality,
// normalising the numeric representations AsInt also normalises, so a
// request built from json.Number compares equal to a value stored as a
// plain int.
func equalJSON(a, b interface{}) bool {
	if ai, ok := node.AsInt(a); ok {
		bi, ok := node.AsInt(b)
		return ok && ai == bi
	}
	as, aok := a.(string)
	bs, bok := b.(string)
	if aok || bok {
		return aok && bok && as == bs
	}
	return a == b
}
