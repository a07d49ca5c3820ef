package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder logs every event it receives and can be told to prune branches or
// claim leaves.
type recorder struct {
	log []string

	pruneNames  map[string]bool
	handleLeaf  bool
	pruneSecond string // prune the named branch on its second advance only
	advances    map[string]int
}

func newRecorder() *recorder {
	return &recorder{pruneNames: map[string]bool{}, advances: map[string]int{}}
}

func (r *recorder) Init(root Spatial) {
	r.log = append(r.log, "init:"+root.AsNode().Name())
}

func (r *recorder) BranchAdvance(branch Spatial) bool {
	name := branch.AsNode().Name()
	r.advances[name]++
	r.log = append(r.log, "advance:"+name)
	if r.pruneNames[name] {
		return true
	}
	return r.pruneSecond == name && r.advances[name] == 2
}

func (r *recorder) LeafVisited(leaf Spatial) bool {
	r.log = append(r.log, "leaf:"+leaf.AsNode().Name())
	return r.handleLeaf
}

func (r *recorder) BranchExhausted(branch Spatial) {
	r.log = append(r.log, "exhausted:"+branch.AsNode().Name())
}

func (r *recorder) leaves() []string {
	var out []string
	for _, e := range r.log {
		if len(e) > 5 && e[:5] == "leaf:" {
			out = append(out, e[5:])
		}
	}
	return out
}

func (r *recorder) count(prefix string) int {
	n := 0
	for _, e := range r.log {
		if len(e) >= len(prefix) && e[:len(prefix)] == prefix {
			n++
		}
	}
	return n
}

func TestTraverserCompleteness(t *testing.T) {
	root, _, _, _, _, _ := buildTree() // 3 branches (root, a, b), 3 leaves
	r := newRecorder()
	NewTraverser(r).Traverse(root)

	assert.Equal(t, 3, r.count("leaf:"))
	assert.Equal(t, 3, r.count("exhausted:"))
	assert.Equal(t, 1, r.count("init:"))
	assert.ElementsMatch(t, []string{"leaf1", "leaf2", "leaf3"}, r.leaves())
}

func TestTraverserEventOrder(t *testing.T) {
	// root -> A -> (leaf1, leaf2), root -> leaf3
	root := NewGroup("root")
	a := NewGroup("A")
	leaf1 := NewGroup("leaf1")
	leaf2 := NewGroup("leaf2")
	leaf3 := NewGroup("leaf3")
	root.AddChild(a)
	root.AddChild(leaf3)
	a.AddChild(leaf1)
	a.AddChild(leaf2)

	r := newRecorder()
	NewTraverser(r).Traverse(root)

	assert.Equal(t, []string{
		"init:root",
		"advance:root",
		"advance:A",
		"leaf:leaf1",
		"advance:A",
		"leaf:leaf2",
		"exhausted:A",
		"advance:root",
		"leaf:leaf3",
		"exhausted:root",
	}, r.log)
}

func TestTraverserRepeatedPassesMatch(t *testing.T) {
	root, _, _, _, _, _ := buildTree()
	r := newRecorder()
	tv := NewTraverser(r)

	tv.Traverse(root)
	first := append([]string(nil), r.log...)
	r.log = nil
	tv.Traverse(root)

	assert.Equal(t, first, r.log, "cursors reset, every pass is identical")
}

func TestTraverserPrune(t *testing.T) {
	root, a, _, _, _, _ := buildTree()
	_ = a
	r := newRecorder()
	r.pruneNames["a"] = true
	NewTraverser(r).Traverse(root)

	assert.Equal(t, []string{"leaf3"}, r.leaves(), "pruned branch leaves skipped, siblings visited")
	assert.Equal(t, 0, r.count("exhausted:a"), "pruned branch never reports exhausted")
	assert.Equal(t, 1, r.count("exhausted:root"))
	assert.Equal(t, 1, r.count("exhausted:b"))
}

func TestTraverserPruneCursorResumes(t *testing.T) {
	// A branch pruned after its first child keeps its cursor, so the next
	// pass resumes at the second child instead of restarting.
	root := NewGroup("root")
	a := NewGroup("A")
	leaf1 := NewGroup("leaf1")
	leaf2 := NewGroup("leaf2")
	root.AddChild(a)
	a.AddChild(leaf1)
	a.AddChild(leaf2)

	r := newRecorder()
	r.pruneSecond = "A"
	tv := NewTraverser(r)

	tv.Traverse(root)
	assert.Equal(t, []string{"leaf1"}, r.leaves())

	r.log = nil
	r.pruneSecond = "" // no pruning on the second pass
	tv.Traverse(root)
	assert.Equal(t, []string{"leaf2"}, r.leaves(), "resumed from the kept cursor, leaf1 skipped")

	r.log = nil
	tv.Traverse(root)
	assert.Equal(t, []string{"leaf1", "leaf2"}, r.leaves(), "cursor reset after completion, full visit again")
}

func TestTraverserDisabledSubtreeSkipped(t *testing.T) {
	root, a, _, _, _, _ := buildTree()
	a.SetEnabled(false)

	r := newRecorder()
	NewTraverser(r).Traverse(root)

	assert.Equal(t, []string{"leaf3"}, r.leaves())
	assert.Equal(t, 0, r.count("advance:a"), "no events fire for a disabled node")
	assert.Equal(t, 0, r.count("exhausted:a"))
}

func TestTraverserDisabledLeafSkipped(t *testing.T) {
	root, _, _, leaf1, _, _ := buildTree()
	leaf1.SetEnabled(false)

	r := newRecorder()
	NewTraverser(r).Traverse(root)

	assert.Equal(t, []string{"leaf2", "leaf3"}, r.leaves())
}

func TestTraverserDisabledRoot(t *testing.T) {
	root, _, _, _, _, _ := buildTree()
	root.SetEnabled(false)

	r := newRecorder()
	NewTraverser(r).Traverse(root)

	assert.Equal(t, []string{"init:root"}, r.log, "only init fires for a disabled root")
}

func TestTraverserLeafShortCircuit(t *testing.T) {
	root, _, _, _, _, _ := buildTree()

	first := newRecorder()
	first.handleLeaf = true
	second := newRecorder()

	NewTraverser(first, second).Traverse(root)

	assert.Equal(t, 3, first.count("leaf:"))
	assert.Equal(t, 0, second.count("leaf:"), "handled leaves stop later listeners")
	// Branch events are never short-circuited.
	assert.Equal(t, second.count("advance:"), first.count("advance:"))
	assert.Equal(t, second.count("exhausted:"), first.count("exhausted:"))
}

func TestTraverserPruneNotifiesAllListeners(t *testing.T) {
	root, _, _, _, _, _ := buildTree()

	pruner := newRecorder()
	pruner.pruneNames["a"] = true
	after := newRecorder()

	NewTraverser(pruner, after).Traverse(root)

	assert.Equal(t, 1, after.count("advance:a"), "listeners after the pruner still see the advance")
}

func TestTraverserNilRoot(t *testing.T) {
	r := newRecorder()
	NewTraverser(r).Traverse(nil)
	assert.Empty(t, r.log)
}

func TestTraverserSingleLeafRoot(t *testing.T) {
	leaf := NewGroup("only")
	r := newRecorder()
	NewTraverser(r).Traverse(leaf)

	assert.Equal(t, []string{"init:only", "leaf:only"}, r.log)
}

func TestTraverserAddListener(t *testing.T) {
	root, _, _, _, _, _ := buildTree()
	tv := NewTraverser()
	r := newRecorder()
	tv.AddListener(r)
	tv.Traverse(root)
	require.NotEmpty(t, r.log)
}

func TestBoundsListenerEndToEnd(t *testing.T) {
	root, a, b, leaf1, leaf2, leaf3 := buildTree()
	leaf1.SetBounds(boxAt(0, 0, 0, 1))
	leaf2.SetBounds(boxAt(4, 0, 0, 1))
	leaf3.SetBounds(boxAt(0, 0, 0, 1))
	a.SetTransform(translated(0, 10, 0))

	tv := NewTraverser(BoundsListener{})
	tv.Traverse(root)

	// a's hierarchical bounds enclose both translated leaves.
	got := a.WorldBounds()
	assert.Equal(t, [3]float32{-1, 9, -1}, got.Min())
	assert.Equal(t, [3]float32{5, 11, 1}, got.Max())

	// After cleaning, moving one leaf refreshes the union on the next pass.
	for _, n := range []*Group{root, a, b, leaf1, leaf2, leaf3} {
		n.Clean()
	}
	leaf2.SetTransform(translated(10, 0, 0))
	tv.Traverse(root)

	got = a.WorldBounds()
	assert.Equal(t, [3]float32{-1, 9, -1}, got.Min())
	assert.Equal(t, [3]float32{15, 11, 1}, got.Max())
}
