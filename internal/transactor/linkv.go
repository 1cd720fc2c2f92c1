package transactor

import (
	"context"
	"time"

	"github.com/jabolina/maelnode/internal/node"
)

// linKV is the fixed destination node id for the external lin-kv
// service.
const linKV = "lin-kv"

// rpcTimeout bounds every read/write/cas against lin-kv.
const rpcTimeout = 25 * time.Millisecond

// LinKV is a thin RPC client over a node.Runtime, speaking the
// Maelstrom lin-kv protocol.
type LinKV struct {
	rt *node.Runtime
}

// NewLinKV wraps rt for RPCs against the lin-kv service.
func NewLinKV(rt *node.Runtime) *LinKV {
	return &LinKV{rt: rt}
}

// Read fetches the raw decoded "value" field for key, or the
// PeerError lin-kv replied with (node.CodeKeyNotFound on a missing key).
func (l *LinKV) Read(ctx context.Context, key string) (interface{}, error) {
	reply, err := l.rt.RPC(ctx, linKV, node.Body{"type": "read", "key": key}, rpcTimeout)
	if err != nil {
		return nil, err
	}
	return reply["value"], nil
}

// Write unconditionally stores value at key.
func (l *LinKV) Write(ctx context.Context, key string, value interface{}) error {
	_, err := l.rt.RPC(ctx, linKV, node.Body{"type": "write", "key": key, "value": value}, rpcTimeout)
	return err
}

// Cas performs a compare-and-set: key must currently hold from, and is
// set to to. createIfNotExists lets the CAS succeed even if the key has
// never been written; the transactor's root commit passes true.
func (l *LinKV) Cas(ctx context.Context, key string, from, to interface{}, createIfNotExists bool) error {
	_, err := l.rt.RPC(ctx, linKV, node.Body{
		"type":                 "cas",
		"key":                  key,
		"from":                 from,
		"to":                   to,
		"create_if_not_exists": createIfNotExists,
	}, rpcTimeout)
	return err
}
