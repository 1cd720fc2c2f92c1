package crdt

import (
	"fmt"
	"sort"

	"github.com/jabolina/maelnode/internal/node"
)

// GSet is the grow-only set of integers. Merge is union, which is
// trivially idempotent, commutative, and associative.
type GSet struct {
	values map[int]struct{}
}

// NewGSet returns an empty grow-only set.
func NewGSet() *GSet {
	return &GSet{values: make(map[int]struct{})}
}

// Add implements Variant: body must carry an integer "element" field.
func (g *GSet) Add(self string, body node.Body) error {
	v, ok := body.Int("element")
	if !ok {
		return fmt.Errorf("gset add: missing integer \"element\" field")
	}
	g.values[v] = struct{}{}
	return nil
}

// Read implements Variant, returning a sorted []int snapshot.
func (g *GSet) Read() interface{} {
	out := make([]int, 0, len(g.values))
	for v := range g.values {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

// Export implements Variant.
func (g *GSet) Export() map[string]interface{} {
	values := make([]interface{}, 0, len(g.values))
	for _, v := range g.Read().([]int) {
		values = append(values, v)
	}
	return map[string]interface{}{"values": values}
}

// Merge implements Variant: set union with the remote snapshot.
func (g *GSet) Merge(data map[string]interface{}) error {
	raw, _ := data["values"].([]interface{})
	for _, v := range raw {
		if n, ok := node.AsInt(v); ok {
			g.values[n] = struct{}{}
		}
	}
	return nil
}
