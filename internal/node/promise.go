package node

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jabolina/maelnode/internal/logging"
)

// promiseResult is what a Promise resolves to: either a peer's reply
// body, or a failure (peer-reported error, or a synthetic timeout).
type promiseResult struct {
	body Body
	err  error
}

// Promise is the single-shot synchronization primitive: created when
// an outbound RPC is sent with message id M, fulfilled when a reply
// with in_reply_to = M arrives. A buffered
// channel of capacity 1 plays the role the original gave a condition
// variable — exactly one delivery, consumed at most once, deliverable
// before or after the consumer starts waiting.
type Promise struct {
	ch   chan promiseResult
	once sync.Once
}

func newPromise() *Promise {
	return &Promise{ch: make(chan promiseResult, 1)}
}

func (p *Promise) deliver(res promiseResult) {
	p.once.Do(func() { p.ch <- res })
}

// Wait blocks until a reply is delivered or timeout elapses, whichever
// is first. A bounded wait with no reply resolves to ErrTimeout, never
// a hang.
func (p *Promise) Wait(ctx context.Context, timeout time.Duration) (Body, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case res := <-p.ch:
		return res.body, res.err
	case <-timer.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// PromiseRegistry is the promise map, keyed by outbound msg_id.
// Insert/remove/delivery-lookup are all performed under the same lock:
// write-locked on insert/remove, because delivery removes on success.
type PromiseRegistry struct {
	mu       sync.Mutex
	promises map[int]*Promise
	log      logging.Logger
}

func newPromiseRegistry(log logging.Logger) *PromiseRegistry {
	return &PromiseRegistry{promises: make(map[int]*Promise), log: log}
}

// New registers a fresh promise under msgID. Reusing a msg_id still
// pending is a contract violation and is reported as an error rather
// than silently overwriting the older waiter.
func (r *PromiseRegistry) New(msgID int) (*Promise, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.promises[msgID]; exists {
		return nil, fmt.Errorf("promise already registered for msg_id %d", msgID)
	}
	p := newPromise()
	r.promises[msgID] = p
	return p, nil
}

// Deliver fulfils the promise registered under msgID, if any, and
// reports whether one was found. A delivery for an id nobody is
// waiting on is dropped — this is the normal path for reply types a
// workload handles itself (e.g. broadcast_ok), which never go through
// the promise registry at all.
func (r *PromiseRegistry) Deliver(msgID int, body Body, err error) bool {
	r.mu.Lock()
	p, ok := r.promises[msgID]
	if ok {
		delete(r.promises, msgID)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	p.deliver(promiseResult{body: body, err: err})
	return true
}

// Cancel removes a registered promise without delivering it, used when
// the send that would have fulfilled it failed before leaving the
// process.
func (r *PromiseRegistry) Cancel(msgID int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.promises, msgID)
}

// Pending reports how many promises are currently awaiting a reply —
// used by tests to check that delivery removes the promise.
func (r *PromiseRegistry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.promises)
}
