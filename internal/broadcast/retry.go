package broadcast

import (
	"context"
	"sync"
	"time"

	"github.com/jabolina/maelnode/internal/node"
)

type retryKey struct {
	peer  string
	msgID int
}

// retryEntry is the RPC retry entry: { done, worker }, created when a
// gossip message is sent to a neighbour. done flips
// true when the matching broadcast_ok arrives; the worker observes it
// on its next tick and exits.
type retryEntry struct {
	mu   sync.Mutex
	done bool
}

func (e *retryEntry) markDone() {
	e.mu.Lock()
	e.done = true
	e.mu.Unlock()
}

func (e *retryEntry) isDone() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.done
}

// retryRegistry is the retry_map, keyed by (peer, msg_id).
type retryRegistry struct {
	mu      sync.Mutex
	entries map[retryKey]*retryEntry
}

func newRetryRegistry() *retryRegistry {
	return &retryRegistry{entries: make(map[retryKey]*retryEntry)}
}

func (r *retryRegistry) register(peer string, msgID int) *retryEntry {
	e := &retryEntry{}
	r.mu.Lock()
	r.entries[retryKey{peer, msgID}] = e
	r.mu.Unlock()
	return e
}

// ack flips the done flag for (peer, msgID), if a retry entry for it is
// still tracked. A broadcast_ok with no matching entry (already acked,
// or never ours) is a no-op.
func (r *retryRegistry) ack(peer string, msgID int) {
	r.mu.Lock()
	e, ok := r.entries[retryKey{peer, msgID}]
	r.mu.Unlock()
	if ok {
		e.markDone()
	}
}

// retryInterval is the fixed gossip retry cadence.
const retryInterval = 10 * time.Millisecond

// spawnRetry starts the worker that keeps re-sending the exact same
// envelope (same msg_id) to peer every retryInterval until entry.done
// flips. There is no give-up; the worker only stops on ack, on ctx
// cancellation, or on rt.Stopped() closing — which covers Run returning
// on stdin EOF, not only an external kill signal — so the invoker can
// always join it on Run's return.
func spawnRetry(ctx context.Context, rt *node.Runtime, peer string, body node.Body, entry *retryEntry) {
	rt.Spawn(func() {
		tick := func() bool {
			if entry.isDone() {
				return true
			}
			if err := rt.SendRaw(peer, body); err != nil {
				rt.Logger().Errorf("broadcast retry send to %s failed: %v", peer, err)
			}
			return false
		}
		if tick() {
			return
		}

		ticker := time.NewTicker(retryInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-rt.Stopped():
				return
			case <-ticker.C:
				if tick() {
					return
				}
			}
		}
	})
}
