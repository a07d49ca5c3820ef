// Package spatial implements the scene hierarchy: nodes carrying local
// transforms and bounding volumes, dirty-flag propagation between them, and
// the depth-first traverser that walks the tree once per frame.
//
// Local edits are cheap flag sets; derived state (world transforms, world
// bounds, hierarchical bounds) is recomputed lazily during traversal and only
// for the nodes whose flags are raised. Flags are cleared once per frame by
// an explicit Clean call after rendering, never by the recomputation itself,
// so every consumer of a dirty flag within the same frame observes it.
package spatial

import (
	"github.com/helio-engine/helio-go/common"
)

// Spatial is a node in the scene hierarchy. Concrete node types (Group and
// the renderable leaves) embed NodeBase, which carries all hierarchy state;
// AsNode exposes it. Tree edges hold Spatial values of the concrete types so
// traversal listeners can type-switch on what they visit.
type Spatial interface {
	// AsNode returns the embedded NodeBase carrying this node's hierarchy
	// state: parent/children edges, transforms, bounds, and dirty flags.
	//
	// Returns:
	//   - *NodeBase: the node's base state, never nil
	AsNode() *NodeBase
}

// NodeBase is the base struct embedded by every scene node type. The zero
// value is not usable; call Init from the concrete type's constructor.
type NodeBase struct {
	self     Spatial
	name     string
	parent   Spatial
	children []Spatial

	local       common.Transform
	world       [16]float32
	localBounds common.BoundingBox
	worldBounds common.BoundingBox

	enabled            bool
	hierarchicalBounds bool

	transformDirty           bool
	descendantTransformDirty bool
	boundsDirty              bool

	// next is the traversal cursor: the index of the child to visit next.
	// Reset to zero when a full visit of the children completes. A pruned
	// branch keeps its cursor (see Traverser.Traverse).
	next int
}

// Init wires the base to its outer type and sets the documented defaults:
// identity transform, infinite bounds, enabled, hierarchical bounds on.
// Every concrete node constructor must call it with the outer value.
//
// Parameters:
//   - self: the outer node value embedding this base
//   - name: the node's name, used for lookups and diagnostics
func (nb *NodeBase) Init(self Spatial, name string) {
	nb.self = self
	nb.name = name
	nb.local = common.IdentityTransform()
	common.Identity(nb.world[:])
	nb.localBounds = common.InfiniteBox()
	nb.worldBounds = common.InfiniteBox()
	nb.enabled = true
	nb.hierarchicalBounds = true
}

// AsNode returns the base itself, satisfying Spatial for every embedder.
func (nb *NodeBase) AsNode() *NodeBase { return nb }

// Name returns the node's name.
func (nb *NodeBase) Name() string { return nb.name }

// Parent returns the parent node, or nil for a root. The parent edge is a
// non-owning back-reference; ownership runs parent to child only.
func (nb *NodeBase) Parent() Spatial { return nb.parent }

// Children returns the node's children in insertion order. The returned
// slice is the node's own; callers must not mutate it.
func (nb *NodeBase) Children() []Spatial { return nb.children }

// Enabled reports whether traversal descends into this node. Disabled nodes
// and their entire subtrees are skipped silently.
func (nb *NodeBase) Enabled() bool { return nb.enabled }

// SetEnabled toggles traversal visibility for this node and its subtree.
func (nb *NodeBase) SetEnabled(enabled bool) { nb.enabled = enabled }

// Transform returns the node's local transform.
func (nb *NodeBase) Transform() common.Transform { return nb.local }

// WorldTransform returns the node's cached world matrix (column-major). It is
// current only after UpdateWorldTransform ran with current ancestor state,
// which traversal guarantees top-down.
func (nb *NodeBase) WorldTransform() []float32 { return nb.world[:] }

// Bounds returns the node's local bounding box.
func (nb *NodeBase) Bounds() common.BoundingBox { return nb.localBounds }

// WorldBounds returns the node's cached world bounding box: the transformed
// local bounds for leaves, or the union of child world bounds for branches
// with hierarchical bounds enabled.
func (nb *NodeBase) WorldBounds() common.BoundingBox { return nb.worldBounds }

// TransformDirty reports whether the node's world transform is stale.
func (nb *NodeBase) TransformDirty() bool { return nb.transformDirty }

// DescendantTransformDirty reports whether some descendant changed since the
// last Clean, requiring this node's hierarchical bounds to be recomputed.
func (nb *NodeBase) DescendantTransformDirty() bool { return nb.descendantTransformDirty }

// BoundsDirty reports whether the node's local bounds changed since the last
// Clean.
func (nb *NodeBase) BoundsDirty() bool { return nb.boundsDirty }

// SetHierarchicalBounds controls whether UpdateHierarchicalBounds maintains
// this branch's world bounds as the union of its children. On by default;
// turning it off leaves the branch's world bounds untouched by traversal,
// which keeps an explicitly assigned conservative volume in place.
func (nb *NodeBase) SetHierarchicalBounds(on bool) { nb.hierarchicalBounds = on }

// SetTransform replaces the node's local transform and propagates dirtiness:
// this node and every descendant get transformDirty raised (their cached
// world matrices all depend on this node), and every ancestor up to the root
// gets descendantTransformDirty raised so hierarchical bounds are recomputed
// on the next traversal. Both walks cover their full extent.
//
// Parameters:
//   - t: the new local transform
func (nb *NodeBase) SetTransform(t common.Transform) {
	nb.local = t
	nb.markTransformDirtyDown()
	nb.escalateUp()
}

// SetBounds replaces the node's local bounding box, marks the node's bounds
// dirty, and escalates to ancestors so enclosing hierarchical bounds are
// recomputed.
//
// Parameters:
//   - b: the new local bounds
func (nb *NodeBase) SetBounds(b common.BoundingBox) {
	nb.localBounds = b
	nb.boundsDirty = true
	nb.escalateUp()
}

// AddChild appends c under this node in insertion order. The child's whole
// subtree is marked transform-dirty (its cached world state was computed
// against a different parent chain, if any), and dirtiness escalates up
// through the new ancestor chain. This keeps a pre-built, already-transformed
// subtree correct when grafted onto a live scene.
//
// Renderable leaves must stay childless: traversal treats any node with
// children as a branch, so a leaf that gains children stops receiving
// leaf-visited events.
//
// Parameters:
//   - c: the node to attach; detached from any previous parent first
func (nb *NodeBase) AddChild(c Spatial) {
	cn := c.AsNode()
	if cn.parent != nil {
		cn.parent.AsNode().RemoveChild(c)
	}
	cn.parent = nb.self
	nb.children = append(nb.children, c)
	cn.markTransformDirtyDown()
	nb.escalateSelfAndUp()
}

// RemoveChild detaches c from this node, clearing its parent back-reference.
// The vacated branch is marked so its hierarchical bounds shrink on the next
// traversal.
//
// Parameters:
//   - c: the child to detach
//
// Returns:
//   - bool: true if c was a child of this node
func (nb *NodeBase) RemoveChild(c Spatial) bool {
	for i, child := range nb.children {
		if child == c {
			nb.children = append(nb.children[:i], nb.children[i+1:]...)
			c.AsNode().parent = nil
			nb.escalateSelfAndUp()
			return true
		}
	}
	return false
}

// UpdateWorldTransform recomputes the cached world matrix from the local
// transform and the parent's world matrix (identity for roots). No-op unless
// transformDirty. The parent's world matrix must already be current, which
// top-down traversal guarantees. Does not clear the flag; Clean does.
func (nb *NodeBase) UpdateWorldTransform() {
	if !nb.transformDirty {
		return
	}
	var local [16]float32
	nb.local.Matrix(local[:])
	if nb.parent == nil {
		copy(nb.world[:], local[:])
		return
	}
	common.Mul4(nb.world[:], nb.parent.AsNode().world[:], local[:])
}

// UpdateWorldBounds recomputes the cached world bounds as the local bounds
// transformed by the (current) world matrix. No-op unless the transform or
// the local bounds changed. Used for leaves; branches get their world bounds
// from UpdateHierarchicalBounds instead.
func (nb *NodeBase) UpdateWorldBounds() {
	if !nb.transformDirty && !nb.boundsDirty {
		return
	}
	nb.worldBounds = nb.localBounds.Transform(nb.world[:])
}

// UpdateHierarchicalBounds recomputes a branch's world bounds as the union of
// all child world bounds, seeded from the zero box. Children's world bounds
// must already be current, which post-order traversal guarantees. Applies
// only to non-root branches with hierarchical bounds enabled, and only when
// this node or some descendant changed.
func (nb *NodeBase) UpdateHierarchicalBounds() {
	if nb.parent == nil || len(nb.children) == 0 || !nb.hierarchicalBounds {
		return
	}
	if !nb.transformDirty && !nb.descendantTransformDirty {
		return
	}
	bounds := common.ZeroBox()
	for _, c := range nb.children {
		bounds = bounds.Combine(c.AsNode().worldBounds)
	}
	nb.worldBounds = bounds
}

// Clean clears this node's dirty flags. It touches no other node: the render
// loop records which nodes traversal visited and cleans exactly those after
// the frame, so branches that stayed culled keep their flags for the frame
// in which they become visible again.
func (nb *NodeBase) Clean() {
	nb.transformDirty = false
	nb.descendantTransformDirty = false
	nb.boundsDirty = false
}

// markTransformDirtyDown raises transformDirty on this node and every
// descendant. Unconditional full-depth walk: coverage is the correctness
// property, the flags are idempotent.
func (nb *NodeBase) markTransformDirtyDown() {
	nb.transformDirty = true
	for _, c := range nb.children {
		c.AsNode().markTransformDirtyDown()
	}
}

// escalateUp raises descendantTransformDirty on every ancestor, excluding
// this node itself.
func (nb *NodeBase) escalateUp() {
	p := nb.parent
	for p != nil {
		pn := p.AsNode()
		pn.descendantTransformDirty = true
		p = pn.parent
	}
}

// escalateSelfAndUp raises descendantTransformDirty on this node and every
// ancestor. Used when this node's child set changed.
func (nb *NodeBase) escalateSelfAndUp() {
	nb.descendantTransformDirty = true
	nb.escalateUp()
}

// Group is a pure grouping branch with no renderable payload.
type Group struct {
	NodeBase
}

// NewGroup creates an empty, enabled group node.
//
// Parameters:
//   - name: the node name
//
// Returns:
//   - *Group: the new group
func NewGroup(name string) *Group {
	g := &Group{}
	g.Init(g, name)
	return g
}

// Find returns the first node named name in the subtree rooted at root,
// searching depth-first in child order, or nil if absent.
//
// Parameters:
//   - root: subtree root to search from
//   - name: the node name to match exactly
//
// Returns:
//   - Spatial: the matching node, or nil
func Find(root Spatial, name string) Spatial {
	if root == nil {
		return nil
	}
	n := root.AsNode()
	if n.name == name {
		return root
	}
	for _, c := range n.children {
		if found := Find(c, name); found != nil {
			return found
		}
	}
	return nil
}
