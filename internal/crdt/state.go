// Package crdt implements the grow-only-set and PN-counter workload: a
// CRDT polymorphic over two variants, merged via periodic state-based
// anti-entropy.
package crdt

import "github.com/jabolina/maelnode/internal/node"

// Variant is implemented by each concrete CRDT (GSet, PNCounter). The
// Workload holds exactly one Variant for the process lifetime — which
// one is chosen at construction by the binary (cmd/crdt defaults to
// PNCounter, the only variant the original implementation exposed as
// its own binary).
type Variant interface {
	// Add applies a local add/increment/decrement operation described
	// by body's type-specific fields.
	Add(self string, body node.Body) error

	// Read returns the variant's current externally-visible value: an
	// int for PNCounter, a []int for GSet.
	Read() interface{}

	// Export returns a snapshot of the variant's full internal state,
	// suitable for sending as a "replicate" payload and for Merge on
	// the receiving end.
	Export() map[string]interface{}

	// Merge folds a remote snapshot (as produced by Export) into local
	// state. Must be idempotent, commutative, and associative.
	Merge(data map[string]interface{}) error
}
