package raftstub_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/jabolina/maelnode/internal/logging"
	"github.com/jabolina/maelnode/internal/node"
	"github.com/jabolina/maelnode/internal/raftstub"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) lines(t *testing.T) []node.Envelope {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []node.Envelope
	sc := bufio.NewScanner(bytes.NewReader(b.buf.Bytes()))
	for sc.Scan() {
		if len(bytes.TrimSpace(sc.Bytes())) == 0 {
			continue
		}
		var env node.Envelope
		dec := json.NewDecoder(bytes.NewReader(sc.Bytes()))
		dec.UseNumber()
		if err := dec.Decode(&env); err != nil {
			t.Fatalf("decode outbound line: %v", err)
		}
		out = append(out, env)
	}
	return out
}

func writeLine(t *testing.T, w io.Writer, v interface{}) {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if _, err := w.Write(append(data, '\n')); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("condition never became true within %s", timeout)
}

func lastReply(t *testing.T, out *syncBuffer, typ string) node.Envelope {
	t.Helper()
	var reply node.Envelope
	waitFor(t, time.Second, func() bool {
		for _, e := range out.lines(t) {
			if e.Body.Type() == typ {
				reply = e
			}
		}
		return reply.Body != nil
	})
	return reply
}

func newHarness(t *testing.T) (io.Writer, *syncBuffer, context.CancelFunc, <-chan error) {
	t.Helper()
	inR, inW := io.Pipe()
	t.Cleanup(func() { inW.Close() })
	out := &syncBuffer{}

	rt := node.New(inR, out, logging.NewPrometheusLogger())
	raftstub.Register(rt)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx) }()

	writeLine(t, inW, node.Envelope{
		Dest: "n1",
		Body: node.Body{"type": "init", "msg_id": 1, "node_id": "n1", "node_ids": []string{"n1"}},
	})
	if err := rt.WaitForInit(ctx); err != nil {
		t.Fatalf("WaitForInit: %v", err)
	}
	return inW, out, cancel, done
}

func TestRaftStubReadMissingKey(t *testing.T) {
	inW, out, cancel, done := newHarness(t)
	defer func() { cancel(); <-done }()

	writeLine(t, inW, node.Envelope{
		Src: "c1", Dest: "n1",
		Body: node.Body{"type": "read", "msg_id": 2, "key": "missing"},
	})

	reply := lastReply(t, out, "error")
	code, _ := node.AsInt(reply.Body["code"])
	if code != node.CodeKeyNotFound {
		t.Errorf("error code = %v, want %d", reply.Body["code"], node.CodeKeyNotFound)
	}
}

func TestRaftStubWriteThenRead(t *testing.T) {
	inW, out, cancel, done := newHarness(t)
	defer func() { cancel(); <-done }()

	writeLine(t, inW, node.Envelope{
		Src: "c1", Dest: "n1",
		Body: node.Body{"type": "write", "msg_id": 2, "key": "x", "value": 41},
	})
	lastReply(t, out, "write_ok")

	writeLine(t, inW, node.Envelope{
		Src: "c1", Dest: "n1",
		Body: node.Body{"type": "read", "msg_id": 3, "key": "x"},
	})
	reply := lastReply(t, out, "read_ok")
	v, _ := node.AsInt(reply.Body["value"])
	if v != 41 {
		t.Errorf("read_ok value = %v, want 41", reply.Body["value"])
	}
}

func TestRaftStubCasSuccessAndConflict(t *testing.T) {
	inW, out, cancel, done := newHarness(t)
	defer func() { cancel(); <-done }()

	writeLine(t, inW, node.Envelope{
		Src: "c1", Dest: "n1",
		Body: node.Body{"type": "write", "msg_id": 2, "key": "x", "value": 1},
	})
	lastReply(t, out, "write_ok")

	writeLine(t, inW, node.Envelope{
		Src: "c1", Dest: "n1",
		Body: node.Body{"type": "cas", "msg_id": 3, "key": "x", "from": 1, "to": 2},
	})
	lastReply(t, out, "cas_ok")

	writeLine(t, inW, node.Envelope{
		Src: "c1", Dest: "n1",
		Body: node.Body{"type": "cas", "msg_id": 4, "key": "x", "from": 1, "to": 3},
	})
	reply := lastReply(t, out, "error")
	code, _ := node.AsInt(reply.Body["code"])
	if code != node.CodePreconditionFailed {
		t.Errorf("error code = %v, want %d", reply.Body["code"], node.CodePreconditionFailed)
	}
}

func TestRaftStubCasCreateIfNotExists(t *testing.T) {
	inW, out, cancel, done := newHarness(t)
	defer func() { cancel(); <-done }()

	writeLine(t, inW, node.Envelope{
		Src: "c1", Dest: "n1",
		Body: node.Body{"type": "cas", "msg_id": 2, "key": "root", "from": "ignored", "to": "n1-0", "create_if_not_exists": true},
	})
	lastReply(t, out, "cas_ok")
}
