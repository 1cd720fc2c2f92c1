package node

import (
	"bytes"
	"encoding/json"
	"testing"
)

func decodeBody(t *testing.T, raw string) Body {
	t.Helper()
	var body Body
	dec := json.NewDecoder(bytes.NewReader([]byte(raw)))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body
}

func TestBodyAccessors(t *testing.T) {
	body := decodeBody(t, `{"type":"echo","msg_id":3,"in_reply_to":2,"echo":"hi","peers":["a","b"]}`)

	if got := body.Type(); got != "echo" {
		t.Errorf("Type() = %q, want %q", got, "echo")
	}
	if got, ok := body.MsgID(); !ok || got != 3 {
		t.Errorf("MsgID() = (%d, %v), want (3, true)", got, ok)
	}
	if got, ok := body.InReplyTo(); !ok || got != 2 {
		t.Errorf("InReplyTo() = (%d, %v), want (2, true)", got, ok)
	}
	if got, ok := body.Str("echo"); !ok || got != "hi" {
		t.Errorf("Str(echo) = (%q, %v), want (\"hi\", true)", got, ok)
	}
	if got := body.StrSlice("peers"); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("StrSlice(peers) = %v, want [a b]", got)
	}
}

func TestAsInt(t *testing.T) {
	cases := []struct {
		name string
		in   interface{}
		want int
		ok   bool
	}{
		{"json.Number", json.Number("42"), 42, true},
		{"float64", float64(7), 7, true},
		{"int", 9, 9, true},
		{"string", "nope", 0, false},
		{"nil", nil, 0, false},
	}
	for _, c := range cases {
		got, ok := AsInt(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("%s: AsInt(%v) = (%d, %v), want (%d, %v)", c.name, c.in, got, ok, c.want, c.ok)
		}
	}
}

func TestBodyClone(t *testing.T) {
	b := Body{"type": "echo", "echo": "hi"}
	c := b.Clone()
	c["echo"] = "changed"
	if b["echo"] != "hi" {
		t.Errorf("mutating clone affected original: %v", b)
	}
}
