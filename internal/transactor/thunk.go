// Package transactor implements the Datomic-style serializable
// multi-key list-append transactor: a thunk-based persistent map over
// the external lin-kv service, committed with a top-level
// compare-and-set of the root.
package transactor

import (
	"context"

	"github.com/jabolina/maelnode/internal/node"
)

// ThunkID identifies an immutable, content-addressable value in the
// external store: "{node_id}-{local_seq}".
type ThunkID string

// LeafValue is a key's append-list.
type LeafValue []int

// RootMap is the root thunk's value: key -> leaf thunk id.
type RootMap map[string]ThunkID

// LeafThunk is the append-list thunk. loaded is an explicit flag in
// place of an is-empty-to-trigger-load heuristic (which cannot
// distinguish "not yet fetched" from "legitimately empty").
type LeafThunk struct {
	ID     ThunkID
	Value  LeafValue
	loaded bool
	saved  bool
}

// newLeaf builds a fresh, unsaved leaf already holding value in memory.
func newLeaf(id ThunkID, value LeafValue) *LeafThunk {
	return &LeafThunk{ID: id, Value: value, loaded: true, saved: false}
}

// leafRef builds a lazy reference to a leaf known only by id: presumed
// already persisted (saved = true), not yet fetched (loaded = false).
func leafRef(id ThunkID) *LeafThunk {
	return &LeafThunk{ID: id, loaded: false, saved: true}
}

// Get returns the leaf's value, fetching it from the store on first
// access. Leaf values are never pre-loaded; only the first op that
// reads or appends to a given key triggers a fetch.
func (t *LeafThunk) Get(ctx context.Context, store *LinKV) (LeafValue, error) {
	if t.loaded {
		return t.Value, nil
	}
	raw, err := store.Read(ctx, string(t.ID))
	if err != nil {
		return nil, err
	}
	t.Value = decodeLeafValue(raw)
	t.loaded = true
	return t.Value, nil
}

// Save persists the leaf if it has not already been written. Once a
// thunk id is written, its stored value is never mutated again — Save
// is a no-op on an already-saved leaf.
func (t *LeafThunk) Save(ctx context.Context, store *LinKV) error {
	if t.saved {
		return nil
	}
	if err := store.Write(ctx, string(t.ID), []int(t.Value)); err != nil {
		return err
	}
	t.saved = true
	return nil
}

// RootThunk is the root-map thunk.
type RootThunk struct {
	ID     ThunkID
	Value  RootMap
	loaded bool
	saved  bool
}

func newRoot(id ThunkID, value RootMap) *RootThunk {
	return &RootThunk{ID: id, Value: value, loaded: true, saved: false}
}

func rootRef(id ThunkID) *RootThunk {
	return &RootThunk{ID: id, loaded: false, saved: true}
}

// Get returns the root map (key -> leaf id), fetching it on first access.
func (t *RootThunk) Get(ctx context.Context, store *LinKV) (RootMap, error) {
	if t.loaded {
		return t.Value, nil
	}
	raw, err := store.Read(ctx, string(t.ID))
	if err != nil {
		return nil, err
	}
	t.Value = decodeRootMap(raw)
	t.loaded = true
	return t.Value, nil
}

// Save recursively persists the root: every unsaved leaf referenced by
// Value is written first, then the root map itself.
// leaves only needs to contain the leaves this transaction touched —
// leaves it never touched are already saved by construction (they came
// from a previously-committed root).
func (t *RootThunk) Save(ctx context.Context, store *LinKV, leaves map[string]*LeafThunk) error {
	if t.saved {
		return nil
	}
	for _, leaf := range leaves {
		if err := leaf.Save(ctx, store); err != nil {
			return err
		}
	}
	wire := make(map[string]string, len(t.Value))
	for k, id := range t.Value {
		wire[k] = string(id)
	}
	if err := store.Write(ctx, string(t.ID), wire); err != nil {
		return err
	}
	t.saved = true
	return nil
}

func decodeLeafValue(raw interface{}) LeafValue {
	arr, _ := raw.([]interface{})
	out := make(LeafValue, 0, len(arr))
	for _, v := range arr {
		if n, ok := node.AsInt(v); ok {
			out = append(out, n)
		}
	}
	return out
}

func decodeRootMap(raw interface{}) RootMap {
	obj, _ := raw.(map[string]interface{})
	out := make(RootMap, len(obj))
	for k, v := range obj {
		if s, ok := v.(string); ok {
			out[k] = ThunkID(s)
		}
	}
	return out
}
