package crdt

import (
	"context"
	"sync"
	"time"

	"github.com/jabolina/maelnode/internal/node"
)

// antiEntropyInterval is the fixed anti-entropy cadence.
const antiEntropyInterval = 10 * time.Millisecond

// Workload wires the add/read/replicate handlers and the anti-entropy
// ticker for whichever Variant it is constructed with.
type Workload struct {
	rt    *node.Runtime
	mu    sync.RWMutex
	state Variant
}

// Register builds a CRDT Workload around state and wires its handlers
// onto rt. Call StartAntiEntropy separately, once the init handshake
// has populated rt's peer list.
func Register(rt *node.Runtime, state Variant) *Workload {
	w := &Workload{rt: rt, state: state}
	rt.RegisterHandler("add", w.handleAdd)
	rt.RegisterHandler("read", w.handleRead)
	rt.RegisterHandler("replicate", w.handleReplicate)
	return w
}

func (w *Workload) handleAdd(ctx context.Context, env node.Envelope) error {
	msgID, _ := env.Body.MsgID()

	w.mu.Lock()
	err := w.state.Add(w.rt.NodeID(), env.Body)
	w.mu.Unlock()
	if err != nil {
		return w.rt.Reply(env.Src, msgID, node.Body{
			"type": "error",
			"code": node.CodeAbort,
			"text": err.Error(),
		})
	}

	return w.rt.Reply(env.Src, msgID, node.Body{"type": "add_ok"})
}

func (w *Workload) handleRead(ctx context.Context, env node.Envelope) error {
	msgID, _ := env.Body.MsgID()

	w.mu.RLock()
	value := w.state.Read()
	w.mu.RUnlock()

	return w.rt.Reply(env.Src, msgID, node.Body{
		"type":  "read_ok",
		"value": value,
	})
}

// handleReplicate merges an incoming full-state snapshot. No reply is
// sent — replicate is one-way.
func (w *Workload) handleReplicate(ctx context.Context, env node.Envelope) error {
	data, _ := env.Body["data"].(map[string]interface{})
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state.Merge(data)
}

// StartAntiEntropy spawns the periodic task that, every antiEntropyInterval,
// sends one "replicate" to every neighbour carrying a full-state snapshot.
// At-least-once delivery is not required — state-based CRDT merges are
// idempotent and commutative, so a dropped tick is simply caught by the
// next one. The ticker loop also selects on rt.Stopped(), so it winds down
// when Run returns on stdin EOF, not only on ctx cancellation from an
// external kill signal.
func (w *Workload) StartAntiEntropy(ctx context.Context) {
	w.rt.Spawn(func() {
		ticker := time.NewTicker(antiEntropyInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.rt.Stopped():
				return
			case <-ticker.C:
				w.tick()
			}
		}
	})
}

func (w *Workload) tick() {
	w.mu.RLock()
	data := w.state.Export()
	w.mu.RUnlock()

	for _, peer := range w.rt.PeerIDs() {
		if _, err := w.rt.Send(peer, node.Body{"type": "replicate", "data": data}); err != nil {
			w.rt.Logger().Errorf("crdt anti-entropy send to %s failed: %v", peer, err)
		}
	}
}

// Snapshot exposes the variant's Read() value for tests.
func (w *Workload) Snapshot() interface{} {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state.Read()
}
