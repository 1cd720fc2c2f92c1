// Package broadcast implements the gossip-based replicated integer set:
// at-least-once fan-out to neighbours with per-destination retry until
// acknowledgement, deduplicated by set-insertion.
package broadcast

import (
	"context"
	"sync"

	"github.com/jabolina/maelnode/internal/node"
)

// Workload holds the broadcast-specific state: msg_set, neighbours, and
// the retry_map.
type Workload struct {
	rt *node.Runtime

	mu          sync.RWMutex
	msgSet      map[int]struct{}
	neighbours  map[string]struct{}
	hasTopology bool

	retries *retryRegistry
}

// Register builds a broadcast Workload, wires its handlers onto rt, and
// returns it so the caller can hold a reference (tests inspect state
// directly; main.go does not need to).
func Register(rt *node.Runtime) *Workload {
	w := &Workload{
		rt:         rt,
		msgSet:     make(map[int]struct{}),
		neighbours: make(map[string]struct{}),
		retries:    newRetryRegistry(),
	}

	rt.RegisterHandler("topology", w.handleTopology)
	rt.RegisterHandler("read", w.handleRead)
	rt.RegisterHandler("broadcast", w.handleBroadcast)
	rt.RegisterHandler("broadcast_ok", w.handleBroadcastOk)

	return w
}

// handleTopology adopts this node's entry from the topology map as its
// neighbour set.
func (w *Workload) handleTopology(ctx context.Context, env node.Envelope) error {
	msgID, _ := env.Body.MsgID()

	raw, _ := env.Body["topology"].(map[string]interface{})
	mine := raw[w.rt.NodeID()]

	neighbours := make(map[string]struct{})
	if arr, ok := mine.([]interface{}); ok {
		for _, v := range arr {
			if id, ok := v.(string); ok {
				neighbours[id] = struct{}{}
			}
		}
	}

	w.mu.Lock()
	w.neighbours = neighbours
	w.hasTopology = true
	w.mu.Unlock()

	return w.rt.Reply(env.Src, msgID, node.Body{"type": "topology_ok"})
}

// handleRead replies with a snapshot copy of msg_set, taken under a
// read lock so no torn view is possible.
func (w *Workload) handleRead(ctx context.Context, env node.Envelope) error {
	msgID, _ := env.Body.MsgID()
	return w.rt.Reply(env.Src, msgID, node.Body{
		"type":     "read_ok",
		"messages": w.snapshot(),
	})
}

func (w *Workload) snapshot() []int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]int, 0, len(w.msgSet))
	for v := range w.msgSet {
		out = append(out, v)
	}
	return out
}

// handleBroadcast inserts the message into msg_set and, only if it was
// newly inserted, fans out a gossip broadcast to every neighbour except
// the sender. Always replies broadcast_ok to the sender.
func (w *Workload) handleBroadcast(ctx context.Context, env node.Envelope) error {
	msgID, _ := env.Body.MsgID()
	value, ok := env.Body.Int("message")
	if !ok {
		return w.rt.Reply(env.Src, msgID, node.Body{"type": "broadcast_ok"})
	}

	if w.insert(value) {
		w.fanOut(ctx, value, env.Src)
	}

	return w.rt.Reply(env.Src, msgID, node.Body{"type": "broadcast_ok"})
}

// insert reports whether value was newly added to msg_set — set
// semantics, not multiset.
func (w *Workload) insert(value int) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.msgSet[value]; exists {
		return false
	}
	w.msgSet[value] = struct{}{}
	return true
}

func (w *Workload) neighbourList() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, 0, len(w.neighbours))
	for n := range w.neighbours {
		out = append(out, n)
	}
	return out
}

func (w *Workload) fanOut(ctx context.Context, value int, except string) {
	for _, peer := range w.neighbourList() {
		if peer == except {
			continue
		}
		body := node.Body{"type": "broadcast", "message": value}
		msgID, err := w.rt.Send(peer, body)
		if err != nil {
			w.rt.Logger().Errorf("broadcast fan-out to %s failed: %v", peer, err)
			continue
		}
		body["msg_id"] = msgID
		entry := w.retries.register(peer, msgID)
		spawnRetry(ctx, w.rt, peer, body, entry)
	}
}

// handleBroadcastOk marks the matching retry entry done; its worker
// observes this on its next tick and exits.
func (w *Workload) handleBroadcastOk(ctx context.Context, env node.Envelope) error {
	inReplyTo, ok := env.Body.InReplyTo()
	if !ok {
		return nil
	}
	w.retries.ack(env.Src, inReplyTo)
	return nil
}

// Snapshot exposes msg_set for tests.
func (w *Workload) Snapshot() []int { return w.snapshot() }
