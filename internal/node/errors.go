package node

import (
	"errors"
	"fmt"
)

// Maelstrom-shared error codes.
const (
	CodeAbort               = 14
	CodeKeyNotFound         = 20
	CodePreconditionFailed  = 22
	CodeCASConflict         = 30
	codeTimeout             = 0
)

// ErrUnsupportedProtocol mirrors the teacher's protocol.go sentinel: an
// RPC/handshake arrives in a version this runtime cannot handle.
var ErrUnsupportedProtocol = errors.New("protocol version not supported")

// PeerError is the typed failure delivered into an awaiting promise
// when a peer replies with type "error", or synthesized locally on
// timeout.
type PeerError struct {
	Code int
	Text string
}

func (e *PeerError) Error() string {
	return fmt.Sprintf("peer error %d: %s", e.Code, e.Text)
}

// ErrTimeout is the distinguished, code-0 failure a Promise resolves
// with when no reply arrives before its deadline.
var ErrTimeout = &PeerError{Code: codeTimeout, Text: "rpc timed out waiting for reply"}

// AsPeerError reports whether err is a *PeerError and returns it.
func AsPeerError(err error) (*PeerError, bool) {
	var pe *PeerError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
