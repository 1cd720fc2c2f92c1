package transactor

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/jabolina/maelnode/internal/node"
)

// rootKey is the single linearizable key every transaction commits
// against.
const rootKey = "root"

// Engine runs the transact algorithm against lin-kv. One Engine serves
// every txn request on a node; concurrent transactions are isolated
// only by the final root CAS — optimistic concurrency, not locking.
type Engine struct {
	rt    *node.Runtime
	store *LinKV
	seq   int64
}

// NewEngine builds an Engine backed by rt's own lin-kv RPC client.
func NewEngine(rt *node.Runtime) *Engine {
	return &Engine{rt: rt, store: NewLinKV(rt)}
}

// nextThunkID allocates the next "{node_id}-{local_seq}" id.
func (e *Engine) nextThunkID() ThunkID {
	n := atomic.AddInt64(&e.seq, 1) - 1
	return ThunkID(fmt.Sprintf("%s-%d", e.rt.NodeID(), n))
}

// Transact runs one transaction end to end and returns the completed
// op list, or a *node.PeerError describing why it aborted.
func (e *Engine) Transact(ctx context.Context, ops []Op) ([]Op, error) {
	root0, err := e.loadOrInitRoot(ctx)
	if err != nil {
		return nil, err
	}

	map0, err := root0.Get(ctx, e.store)
	if err != nil {
		return nil, &node.PeerError{Code: node.CodeAbort, Text: fmt.Sprintf("read root map: %v", err)}
	}

	map1 := make(RootMap, len(map0))
	for k, id := range map0 {
		map1[k] = id
	}
	leaves := make(map[string]*LeafThunk, len(map0))

	changed := false
	out := make([]Op, len(ops))
	for i, op := range ops {
		key := strconv.Itoa(op.Key)
		leaf := resolveLeaf(leaves, map1, key)

		switch op.Kind {
		case OpRead:
			if leaf == nil {
				out[i] = Op{Kind: OpRead, Key: op.Key, Read: []int{}}
				continue
			}
			value, err := leaf.Get(ctx, e.store)
			if err != nil {
				return nil, &node.PeerError{Code: node.CodeAbort, Text: fmt.Sprintf("read key %d: %v", op.Key, err)}
			}
			out[i] = Op{Kind: OpRead, Key: op.Key, Read: append([]int{}, value...)}

		case OpAppend:
			var current LeafValue
			if leaf != nil {
				current, err = leaf.Get(ctx, e.store)
				if err != nil {
					return nil, &node.PeerError{Code: node.CodeAbort, Text: fmt.Sprintf("read key %d: %v", op.Key, err)}
				}
			}
			extended := append(append(LeafValue{}, current...), op.Value)
			fresh := newLeaf(e.nextThunkID(), extended)
			leaves[key] = fresh
			map1[key] = fresh.ID
			changed = true
			out[i] = Op{Kind: OpAppend, Key: op.Key, Value: op.Value}
		}
	}

	if !changed {
		return out, nil
	}

	root1 := newRoot(e.nextThunkID(), map1)
	if err := root1.Save(ctx, e.store, leaves); err != nil {
		return nil, &node.PeerError{Code: node.CodeAbort, Text: fmt.Sprintf("save root: %v", err)}
	}

	if err := e.store.Cas(ctx, rootKey, string(root0.ID), string(root1.ID), true); err != nil {
		if pe, ok := node.AsPeerError(err); ok && pe.Code == node.CodePreconditionFailed {
			return nil, &node.PeerError{Code: node.CodeCASConflict, Text: "root CAS lost to a concurrent transaction"}
		}
		return nil, &node.PeerError{Code: node.CodeAbort, Text: fmt.Sprintf("root CAS failed: %v", err)}
	}

	return out, nil
}

// resolveLeaf returns the (possibly already loaded or freshly written)
// leaf for key, caching lazy references in leaves so repeat ops on the
// same key within one transaction see each other's writes.
func resolveLeaf(leaves map[string]*LeafThunk, map1 RootMap, key string) *LeafThunk {
	if leaf, ok := leaves[key]; ok {
		return leaf
	}
	id, ok := map1[key]
	if !ok {
		return nil
	}
	leaf := leafRef(id)
	leaves[key] = leaf
	return leaf
}

// loadOrInitRoot loads the current root, bootstrapping a store that has
// never seen a "root" key: write a fresh empty root map, point "root"
// at it, and proceed as if it had always been there.
func (e *Engine) loadOrInitRoot(ctx context.Context) (*RootThunk, error) {
	raw, err := e.store.Read(ctx, rootKey)
	if err == nil {
		idStr, _ := raw.(string)
		return rootRef(ThunkID(idStr)), nil
	}

	pe, ok := node.AsPeerError(err)
	if !ok || pe.Code != node.CodeKeyNotFound {
		return nil, &node.PeerError{Code: node.CodeAbort, Text: fmt.Sprintf("read root: %v", err)}
	}

	newRootID := e.nextThunkID()
	if err := e.store.Write(ctx, string(newRootID), map[string]string{}); err != nil {
		return nil, &node.PeerError{Code: node.CodeAbort, Text: fmt.Sprintf("bootstrap empty root map: %v", err)}
	}
	if err := e.store.Write(ctx, rootKey, string(newRootID)); err != nil {
		return nil, &node.PeerError{Code: node.CodeAbort, Text: fmt.Sprintf("bootstrap root pointer: %v", err)}
	}

	root := newRoot(newRootID, RootMap{})
	root.saved = true
	return root, nil
}
