package echo_test

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

	"github.com/jabolina/maelnode/internal/echo"
	"github.com/jabolina/maelnode/internal/logging"
	"github.com/jabolina/maelnode/internal/node"
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

func TestEchoReply(t *testing.T) {
	inR, inW := io.Pipe()
	defer inW.Close()
	out := &syncBuffer{}

	rt := node.New(inR, out, logging.NewPrometheusLogger())
	echo.Register(rt)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- rt.Run(ctx) }()

	writeLine(t, inW, node.Envelope{
		Dest: "n1",
		Body: node.Body{"type": "init", "msg_id": 1, "node_id": "n1", "node_ids": []string{"n1"}},
	})
	if err := rt.WaitForInit(ctx); err != nil {
		t.Fatalf("WaitForInit: %v", err)
	}

	writeLine(t, inW, node.Envelope{
		Src: "c1", Dest: "n1",
		Body: node.Body{"type": "echo", "msg_id": 7, "echo": "please"},
	})

	deadline := time.Now().Add(time.Second)
	var envs []node.Envelope
	for time.Now().Before(deadline) {
		envs = out.lines(t)
		if len(envs) == 2 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	if len(envs) != 2 {
		t.Fatalf("outbound lines = %v, want init_ok then echo_ok", envs)
	}
	reply := envs[1]
	if reply.Body.Type() != "echo_ok" {
		t.Fatalf("reply type = %q, want echo_ok", reply.Body.Type())
	}
	if got, _ := reply.Body.Str("echo"); got != "please" {
		t.Errorf("echo field = %q, want %q", got, "please")
	}
	if irt, _ := reply.Body.InReplyTo(); irt != 7 {
		t.Errorf("in_reply_to = %d, want 7", irt)
	}
	if reply.Dest != "c1" {
		t.Errorf("reply dest = %q, want c1", reply.Dest)
	}

	cancel()
	<-done
}
