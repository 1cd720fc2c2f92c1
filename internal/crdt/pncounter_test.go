package crdt

import (
	"testing"

	"github.com/jabolina/maelnode/internal/node"
)

func TestPNCounterAddSplitsIncrDecr(t *testing.T) {
	c := NewPNCounter([]string{"n1", "n2"})

	if err := c.Add("n1", node.Body{"delta": 5}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := c.Add("n1", node.Body{"delta": -2}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if c.incr["n1"] != 5 {
		t.Errorf("incr[n1] = %d, want 5", c.incr["n1"])
	}
	if c.decr["n1"] != -2 {
		t.Errorf("decr[n1] = %d, want -2", c.decr["n1"])
	}
	if got := c.Read(); got != 3 {
		t.Errorf("Read() = %v, want 3", got)
	}
}

func TestPNCounterAddMissingDelta(t *testing.T) {
	c := NewPNCounter(nil)
	if err := c.Add("n1", node.Body{}); err == nil {
		t.Errorf("expected an error adding a body with no delta field")
	}
}

// TestPNCounterMergeKeepsLargerAbsoluteValue is the abs-value merge
// rule from spec §4.4: each peer's incr/decr slot is a monotonic
// sequence authored by exactly one replica, so keeping the
// larger-in-magnitude value never loses an update.
func TestPNCounterMergeKeepsLargerAbsoluteValue(t *testing.T) {
	local := NewPNCounter([]string{"n1", "n2"})
	local.Add("n1", node.Body{"delta": 2})  // incr[n1] = 2
	local.Add("n2", node.Body{"delta": -1}) // decr[n2] = -1

	remote := NewPNCounter([]string{"n1", "n2"})
	remote.Add("n1", node.Body{"delta": 5}) // incr[n1] = 5, newer than local's 2
	remote.Add("n2", node.Body{"delta": -1})

	if err := local.Merge(remote.Export()); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	if local.incr["n1"] != 5 {
		t.Errorf("incr[n1] after merge = %d, want 5 (remote's larger value)", local.incr["n1"])
	}
	if local.decr["n2"] != -1 {
		t.Errorf("decr[n2] after merge = %d, want -1", local.decr["n2"])
	}
}

func TestPNCounterMergeDoesNotRegressOnStaleRemote(t *testing.T) {
	local := NewPNCounter([]string{"n1"})
	local.Add("n1", node.Body{"delta": 7})

	stale := NewPNCounter([]string{"n1"})
	stale.Add("n1", node.Body{"delta": 3})

	if err := local.Merge(stale.Export()); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if local.incr["n1"] != 7 {
		t.Errorf("incr[n1] regressed to %d after merging a stale (smaller) remote value", local.incr["n1"])
	}
}

func TestAbs(t *testing.T) {
	if abs(-4) != 4 || abs(4) != 4 || abs(0) != 0 {
		t.Errorf("abs(-4)=%d abs(4)=%d abs(0)=%d", abs(-4), abs(4), abs(0))
	}
}
