// Package node implements the shared message-driven runtime: transport,
// msg_id allocator, promise registry, and handler dispatch, common to
// every workload (echo, broadcast, CRDT, transactor, raft stub).
package node

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-version"
	"github.com/jabolina/maelnode/internal/invoker"
	"github.com/jabolina/maelnode/internal/logging"
)

// ProtocolVersion is the version this runtime's init handshake
// advertises compatibility with. Grounded on the teacher's
// checkRPCHeader/ErrUnsupportedProtocol version gate
// (pkg/mcast/protocol.go): an init message may optionally carry a
// "version" field (the workbench harness itself never sends one, so
// this is forward-compatible, not a hard requirement). A mismatched or
// unparsable version is logged as a warning; the handshake still
// completes with init_ok.
var ProtocolVersion = version.Must(version.NewVersion("1.0.0"))

// Handler processes one dispatched inbound envelope. Handlers run on
// their own goroutine and reply (if any) by calling Runtime.Reply/Send/RPC
// themselves.
type Handler func(ctx context.Context, env Envelope) error

// Runtime is the per-process node state: node_id, peer_ids, the msg_id
// allocator, and the promise registry, plus the dispatcher that ties
// them to the transport.
type Runtime struct {
	mu       sync.RWMutex
	nodeID   string
	peerIDs  []string
	nextMsg  int64
	initDone chan struct{}
	stopped  chan struct{}

	transport *Transport
	promises  *PromiseRegistry
	log       logging.Logger
	invoker   invoker.Invoker

	hmu      sync.RWMutex
	handlers map[string]Handler
}

// New builds a Runtime reading/writing the given streams. Call
// RegisterHandler for every message type the workload understands,
// then Run.
func New(in io.Reader, out io.Writer, log logging.Logger) *Runtime {
	return &Runtime{
		transport: NewTransport(in, out, log),
		promises:  newPromiseRegistry(log),
		log:       log,
		invoker:   invoker.New(),
		handlers:  make(map[string]Handler),
		initDone:  make(chan struct{}),
		stopped:   make(chan struct{}),
	}
}

// RegisterHandler wires a handler for one inbound message type. Not
// safe to call concurrently with Run's dispatch loop; register every
// handler before calling Run.
func (r *Runtime) RegisterHandler(msgType string, h Handler) {
	r.hmu.Lock()
	defer r.hmu.Unlock()
	r.handlers[msgType] = h
}

func (r *Runtime) handler(msgType string) (Handler, bool) {
	r.hmu.RLock()
	defer r.hmu.RUnlock()
	h, ok := r.handlers[msgType]
	return h, ok
}

// NodeID returns this node's id, valid only after the init handshake.
func (r *Runtime) NodeID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nodeID
}

// PeerIDs returns a snapshot of the other node ids in the cluster, as
// given at init, valid only after the init handshake.
func (r *Runtime) PeerIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.peerIDs))
	copy(out, r.peerIDs)
	return out
}

// Logger exposes the runtime's configured Logger to workloads.
func (r *Runtime) Logger() logging.Logger { return r.log }

// nextMsgID is the identifier allocator: thread-safe, read-then-increment
// atomic with respect to concurrent callers.
func (r *Runtime) nextMsgID() int {
	return int(atomic.AddInt64(&r.nextMsg, 1)) - 1
}

// Send assigns a fresh msg_id to body, sets its "type", and emits a
// fire-and-forget envelope to dest. It returns the assigned msg_id so
// callers that need at-least-once delivery (broadcast gossip) can key
// a retry entry on it.
func (r *Runtime) Send(dest string, body Body) (int, error) {
	id := r.nextMsgID()
	body = body.Clone()
	body["msg_id"] = id
	env := Envelope{Src: r.NodeID(), Dest: dest, Body: body}
	r.trace("send", env)
	if err := r.transport.Send(env); err != nil {
		return id, fmt.Errorf("send to %s: %w", dest, err)
	}
	return id, nil
}

// SendRaw re-emits body to dest unchanged — no fresh msg_id is
// allocated. Used by at-least-once senders (broadcast gossip retry)
// that must resend the exact same envelope, including its original
// msg_id, until acknowledged.
func (r *Runtime) SendRaw(dest string, body Body) error {
	env := Envelope{Src: r.NodeID(), Dest: dest, Body: body}
	r.trace("send", env)
	if err := r.transport.Send(env); err != nil {
		return fmt.Errorf("send to %s: %w", dest, err)
	}
	return nil
}

// Reply sends body back to dest carrying in_reply_to, completing one
// request.
func (r *Runtime) Reply(dest string, inReplyTo int, body Body) error {
	id := r.nextMsgID()
	body = body.Clone()
	body["msg_id"] = id
	body["in_reply_to"] = inReplyTo
	env := Envelope{Src: r.NodeID(), Dest: dest, Body: body}
	r.trace("send", env)
	if err := r.transport.Send(env); err != nil {
		return fmt.Errorf("reply to %s: %w", dest, err)
	}
	return nil
}

// RPC sends body to dest and blocks until a matching reply arrives or
// timeout elapses — the synchronous-RPC-over-async-transport pattern
// the transactor uses against lin-kv. The promise is registered before
// the request leaves the process, so a reply can never race ahead of
// the registration.
func (r *Runtime) RPC(ctx context.Context, dest string, body Body, timeout time.Duration) (Body, error) {
	id := r.nextMsgID()
	body = body.Clone()
	body["msg_id"] = id

	p, err := r.promises.New(id)
	if err != nil {
		return nil, err
	}

	env := Envelope{Src: r.NodeID(), Dest: dest, Body: body}
	r.trace("send", env)
	if err := r.transport.Send(env); err != nil {
		r.promises.Cancel(id)
		return nil, fmt.Errorf("rpc send to %s: %w", dest, err)
	}

	return p.Wait(ctx, timeout)
}

// Run performs the init handshake and then dispatches general traffic
// until stdin is exhausted or ctx is cancelled. Each dispatched line
// runs on its own goroutine; Run joins them all before returning.
func (r *Runtime) Run(ctx context.Context) error {
	go r.transport.Run()

	defer r.invoker.Stop()
	defer close(r.stopped)

	if err := r.awaitInit(ctx); err != nil {
		return err
	}
	close(r.initDone)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-r.transport.Lines():
			if !ok {
				return nil
			}
			e := env
			r.invoker.Spawn(func() { r.dispatch(ctx, e) })
		}
	}
}

// Stopped is closed as Run returns, for any reason — stdin EOF, context
// cancellation, or a failed init handshake — before Run joins the
// goroutines spawned on its invoker. Background workers
// spawned via Spawn should select on it alongside their own ctx so they
// wind down on stdin EOF too, not only on an external kill signal.
func (r *Runtime) Stopped() <-chan struct{} {
	return r.stopped
}

// WaitForInit blocks until the init handshake has completed, for
// callers (e.g. periodic anti-entropy/retry tasks) that must not start
// before NodeID/PeerIDs are populated.
func (r *Runtime) WaitForInit(ctx context.Context) error {
	select {
	case <-r.initDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Spawn runs f on the runtime's invoker, so it is joined on shutdown
// along with dispatched handlers. Used for a workload's background
// tasks: the CRDT anti-entropy ticker and each broadcast retry worker.
func (r *Runtime) Spawn(f func()) {
	r.invoker.Spawn(f)
}

func (r *Runtime) awaitInit(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-r.transport.Lines():
			if !ok {
				return io.EOF
			}
			r.trace("recv", env)
			if env.Body.Type() != "init" {
				r.log.Warnf("dropping message of type %q received before init", env.Body.Type())
				continue
			}
			return r.handleInit(env)
		}
	}
}

func (r *Runtime) handleInit(env Envelope) error {
	nodeID, _ := env.Body.Str("node_id")
	nodeIDs := env.Body.StrSlice("node_ids")

	r.mu.Lock()
	r.nodeID = nodeID
	r.peerIDs = excluding(nodeIDs, nodeID)
	r.mu.Unlock()

	if raw, ok := env.Body.Str("version"); ok {
		if err := checkProtocolVersion(raw); err != nil {
			r.log.Warnf("peer advertised protocol version %q: %v", raw, err)
		}
	}

	msgID, _ := env.Body.MsgID()
	r.log.Infof("node %s initialized with peers %v", nodeID, r.peerIDs)
	return r.Reply(env.Src, msgID, Body{"type": "init_ok"})
}

func checkProtocolVersion(raw string) error {
	v, err := version.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("parse protocol version %q: %w", raw, err)
	}
	if v.Segments()[0] != ProtocolVersion.Segments()[0] {
		return ErrUnsupportedProtocol
	}
	return nil
}

func excluding(ids []string, self string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id != self {
			out = append(out, id)
		}
	}
	return out
}

// dispatch routes one inbound envelope: first as a possible RPC reply
// (in_reply_to resolved against the promise registry), falling back to
// the type-registered handler. A reply whose in_reply_to nobody
// registered a promise for (e.g. broadcast_ok, which the broadcast
// workload tracks in its own retry map, not the promise registry) falls
// through to its handler exactly as any other inbound message would.
func (r *Runtime) dispatch(ctx context.Context, env Envelope) {
	r.trace("recv", env)

	if irt, ok := env.Body.InReplyTo(); ok {
		if r.tryDeliverPromise(irt, env.Body) {
			return
		}
	}

	typ := env.Body.Type()
	h, ok := r.handler(typ)
	if !ok {
		r.log.Warnf("no handler registered for message type %q from %s", typ, env.Src)
		return
	}
	if err := h(ctx, env); err != nil {
		r.log.Errorf("handler for %q from %s failed: %v", typ, env.Src, err)
	}
}

func (r *Runtime) tryDeliverPromise(inReplyTo int, body Body) bool {
	if body.Type() == "error" {
		code, _ := body.Int("code")
		text, _ := body.Str("text")
		return r.promises.Deliver(inReplyTo, nil, &PeerError{Code: code, Text: text})
	}
	return r.promises.Deliver(inReplyTo, body, nil)
}

func (r *Runtime) trace(direction string, env Envelope) {
	r.log.Debugf("%s %s->%s %v", direction, env.Src, env.Dest, map[string]interface{}(env.Body))
}
