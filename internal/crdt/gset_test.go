package crdt

import (
	"reflect"
	"testing"

	"github.com/jabolina/maelnode/internal/node"
)

func TestGSetAddAndRead(t *testing.T) {
	g := NewGSet()
	if err := g.Add("n1", node.Body{"element": 3}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := g.Add("n1", node.Body{"element": 1}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := g.Add("n1", node.Body{"element": 3}); err != nil {
		t.Fatalf("Add duplicate: %v", err)
	}

	got := g.Read()
	want := []int{1, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Read() = %v, want %v", got, want)
	}
}

func TestGSetAddMissingElement(t *testing.T) {
	g := NewGSet()
	if err := g.Add("n1", node.Body{}); err == nil {
		t.Errorf("expected an error adding a body with no element field")
	}
}

func TestGSetMergeIsUnion(t *testing.T) {
	a := NewGSet()
	a.Add("n1", node.Body{"element": 1})
	a.Add("n1", node.Body{"element": 2})

	b := NewGSet()
	b.Add("n2", node.Body{"element": 2})
	b.Add("n2", node.Body{"element": 3})

	if err := a.Merge(b.Export()); err != nil {
		t.Fatalf("Merge: %v", err)
	}

	got := a.Read()
	want := []int{1, 2, 3}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("after merge Read() = %v, want %v", got, want)
	}
}

func TestGSetMergeIsIdempotent(t *testing.T) {
	a := NewGSet()
	a.Add("n1", node.Body{"element": 1})
	snapshot := a.Export()

	if err := a.Merge(snapshot); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if got := a.Read(); !reflect.DeepEqual(got, []int{1}) {
		t.Errorf("merging own snapshot changed state: %v", got)
	}
}
