package transactor

import (
	"fmt"

	"github.com/jabolina/maelnode/internal/node"
)

// OpKind is a micro-op kind from the txn wire form.
type OpKind string

const (
	OpRead   OpKind = "r"
	OpAppend OpKind = "append"
)

// Op is one micro-op of a txn array: ["r", key, value] or
// ["append", key, value]. Read is populated on the reply to an "r" op;
// Value carries the appended element for "append".
type Op struct {
	Kind  OpKind
	Key   int
	Value int
	Read  []int
}

// parseTxn decodes the wire "txn" array into Ops.
func parseTxn(raw []interface{}) ([]Op, error) {
	ops := make([]Op, 0, len(raw))
	for _, item := range raw {
		arr, ok := item.([]interface{})
		if !ok || len(arr) != 3 {
			return nil, fmt.Errorf("malformed micro-op %#v", item)
		}
		kind, _ := arr[0].(string)
		key, ok := node.AsInt(arr[1])
		if !ok {
			return nil, fmt.Errorf("micro-op key must be an integer: %#v", arr[1])
		}
		switch OpKind(kind) {
		case OpRead:
			ops = append(ops, Op{Kind: OpRead, Key: key})
		case OpAppend:
			v, ok := node.AsInt(arr[2])
			if !ok {
				return nil, fmt.Errorf("append value must be an integer: %#v", arr[2])
			}
			ops = append(ops, Op{Kind: OpAppend, Key: key, Value: v})
		default:
			return nil, fmt.Errorf("unknown micro-op kind %q", kind)
		}
	}
	return ops, nil
}

// encodeTxn renders Ops back into the wire "txn" reply array.
func encodeTxn(ops []Op) []interface{} {
	out := make([]interface{}, len(ops))
	for i, op := range ops {
		switch op.Kind {
		case OpRead:
			val := op.Read
			if val == nil {
				val = []int{}
			}
			out[i] = []interface{}{string(OpRead), op.Key, val}
		case OpAppend:
			out[i] = []interface{}{string(OpAppend), op.Key, op.Value}
		}
	}
	return out
}
