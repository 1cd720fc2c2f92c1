package node

import "encoding/json"

// Body is the flattened, type-tagged message payload: a "type" tag,
// optional "msg_id"/"in_reply_to", plus type-specific fields at the
// same level. It is a map rather than one
// struct per message because a single runtime carries bodies for five
// unrelated workloads (echo, broadcast, CRDT, transactor, raft stub)
// without knowing any of their shapes in advance; each workload decodes
// the fields it cares about.
type Body map[string]interface{}

// Type returns the body's "type" tag, or "" if absent/not a string.
func (b Body) Type() string {
	s, _ := b["type"].(string)
	return s
}

// Int reads an integer-valued field, tolerating every numeric
// representation AsInt accepts (json.Number from parseEnvelope, float64
// or int from bodies built in code).
func (b Body) Int(key string) (int, bool) {
	return AsInt(b[key])
}

// Str reads a string-valued field.
func (b Body) Str(key string) (string, bool) {
	s, ok := b[key].(string)
	return s, ok
}

// StrSlice reads a []string field decoded from a JSON array of strings.
func (b Body) StrSlice(key string) []string {
	raw, ok := b[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// MsgID reads the envelope's "msg_id" field.
func (b Body) MsgID() (int, bool) { return b.Int("msg_id") }

// InReplyTo reads the envelope's "in_reply_to" field.
func (b Body) InReplyTo() (int, bool) { return b.Int("in_reply_to") }

// AsInt normalizes any of the numeric representations that can appear
// in a decoded Body (json.Number from the wire, float64 from a plain
// map[string]interface{} literal, or a native int from code-constructed
// bodies) into a plain int. Exported so other packages decoding nested
// maps out of a Body field (CRDT replicate payloads, transactor thunk
// values) share one conversion rule.
func AsInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case float64:
		return int(n), true
	case int:
		return n, true
	default:
		return 0, false
	}
}

// Clone returns a shallow copy of b, safe to mutate independently.
func (b Body) Clone() Body {
	out := make(Body, len(b))
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Envelope is the wire message envelope:
// { "src", "dest", "body": {...} }.
type Envelope struct {
	Src  string `json:"src"`
	Dest string `json:"dest"`
	Body Body   `json:"body"`
}
