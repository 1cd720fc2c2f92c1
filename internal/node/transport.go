package node

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"sync"

	"github.com/jabolina/maelnode/internal/logging"
)

// Transport is the line-oriented JSON reader/writer: read-line
// (blocking, parses one JSON envelope per line) and send (serializes an
// envelope and appends a single newline, atomically with respect to
// other senders). The teacher's ReliableTransport
// (pkg/mcast/core/transport.go) has the same shape — a background poll
// goroutine feeding a channel — with the network relt socket swapped
// for stdin/stdout. There is no Close: Run ends when the reader reaches
// EOF.
type Transport struct {
	in    *bufio.Scanner
	out   *bufio.Writer
	wmu   sync.Mutex
	log   logging.Logger
	lines chan Envelope
}

const maxLineBytes = 16 * 1024 * 1024

// NewTransport builds a Transport over the given reader/writer, normally
// os.Stdin/os.Stdout.
func NewTransport(in io.Reader, out io.Writer, log logging.Logger) *Transport {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Transport{
		in:    sc,
		out:   bufio.NewWriter(out),
		log:   log,
		lines: make(chan Envelope, 64),
	}
}

// Run reads stdin line by line until EOF, parsing and forwarding each
// envelope onto Lines(). Malformed lines are logged and skipped rather
// than ending the process. Run returns (closing Lines()) when the
// reader hits EOF.
func (t *Transport) Run() {
	defer close(t.lines)
	for t.in.Scan() {
		line := t.in.Bytes()
		if len(bytes.TrimSpace(line)) == 0 {
			continue
		}
		env, err := parseEnvelope(line)
		if err != nil {
			t.log.Errorf("dropping malformed inbound line: %v", err)
			continue
		}
		t.lines <- env
	}
	if err := t.in.Err(); err != nil {
		t.log.Errorf("stdin scan error: %v", err)
	}
}

// Lines is the dispatch queue: one envelope per inbound line, in
// arrival order.
func (t *Transport) Lines() <-chan Envelope {
	return t.lines
}

// Send serializes env and writes it as exactly one line, holding the
// writer lock for the whole write+flush so no two sends interleave
// bytes.
func (t *Transport) Send(env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	t.wmu.Lock()
	defer t.wmu.Unlock()
	if _, err := t.out.Write(data); err != nil {
		return err
	}
	if err := t.out.WriteByte('\n'); err != nil {
		return err
	}
	return t.out.Flush()
}

// parseEnvelope decodes one JSON line into an Envelope, using
// json.Number for numeric fields inside Body so msg_id/in_reply_to
// round-trip exactly instead of going through float64.
func parseEnvelope(line []byte) (Envelope, error) {
	var env Envelope
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return Envelope{}, err
	}
	if env.Body == nil {
		env.Body = Body{}
	}
	return env, nil
}
