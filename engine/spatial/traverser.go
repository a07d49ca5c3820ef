package spatial

// Listener receives traversal lifecycle events. Independent concerns (bounds
// maintenance, culling, light and material collection, shape partitioning)
// each implement Listener and subscribe to one Traverser; the traverser knows
// nothing about any of them.
type Listener interface {
	// Init fires once per traversal pass, before any step, with the pass's
	// root node.
	//
	// Parameters:
	//   - root: the node the pass starts from
	Init(root Spatial)

	// BranchAdvance fires each time the walk is about to descend from a
	// branch into its next unvisited child. Every registered listener is
	// notified on every advance regardless of the answers of the others.
	//
	// Parameters:
	//   - branch: the branch about to advance
	//
	// Returns:
	//   - bool: true to prune the branch; its remaining children are skipped
	//     for this pass
	BranchAdvance(branch Spatial) bool

	// LeafVisited fires when the walk reaches a childless node. Listeners
	// are notified in registration order until one returns true; listeners
	// registered after it are not consulted for this leaf.
	//
	// Parameters:
	//   - leaf: the leaf being visited
	//
	// Returns:
	//   - bool: true when this listener handled the leaf
	LeafVisited(leaf Spatial) bool

	// BranchExhausted fires when every child of a branch has been visited,
	// immediately before the branch's cursor resets and the walk ascends.
	// Hierarchical bounds are recomputed here, once all child bounds are
	// current.
	//
	// Parameters:
	//   - branch: the exhausted branch
	BranchExhausted(branch Spatial)
}

// Traverser walks a scene hierarchy depth-first, firing lifecycle events to
// its listeners. One traverser instance is reused across frames; all walk
// state lives in the nodes' cursors.
type Traverser interface {
	// AddListener appends a listener. Registration order is notification
	// order for every event.
	//
	// Parameters:
	//   - l: the listener to register
	AddListener(l Listener)

	// Traverse runs one full depth-first pass from root. The hierarchy must
	// be acyclic; the traverser does not defend against cycles.
	//
	// A branch pruned mid-pass keeps its cursor, so re-entering it on a
	// later pass resumes from the first unvisited child rather than
	// restarting. Cursors otherwise reset on branch completion, and the
	// root's cursor resets when the pass starts.
	//
	// Parameters:
	//   - root: the node to start from; nil is a no-op
	Traverse(root Spatial)
}

type traverser struct {
	listeners []Listener
}

var _ Traverser = &traverser{}

// NewTraverser creates a traverser with the given listeners registered in
// order.
//
// Parameters:
//   - listeners: initial listeners, notified in the given order
//
// Returns:
//   - Traverser: the new traverser
func NewTraverser(listeners ...Listener) Traverser {
	return &traverser{listeners: listeners}
}

func (tv *traverser) AddListener(l Listener) {
	tv.listeners = append(tv.listeners, l)
}

func (tv *traverser) Traverse(root Spatial) {
	if root == nil {
		return
	}
	root.AsNode().next = 0
	for _, l := range tv.listeners {
		l.Init(root)
	}

	current := root
	for current != nil {
		n := current.AsNode()

		if !n.enabled {
			// Silent subtree skip, not an event.
			current = n.parent
			continue
		}

		if len(n.children) > 0 {
			if n.next >= len(n.children) {
				for _, l := range tv.listeners {
					l.BranchExhausted(current)
				}
				n.next = 0
				current = n.parent
				continue
			}

			prune := false
			for _, l := range tv.listeners {
				if l.BranchAdvance(current) {
					prune = true
				}
			}
			if prune {
				// Cursor intentionally kept; see Traverse doc.
				current = n.parent
				continue
			}

			current = n.children[n.next]
			n.next++
			continue
		}

		for _, l := range tv.listeners {
			if l.LeafVisited(current) {
				break
			}
		}
		current = n.parent
	}
}

// BoundsListener keeps world transforms and bounds current during traversal:
// world transforms refresh on the way down, leaf world bounds at leaf visits,
// and branch hierarchical bounds once a branch is exhausted, which is exactly
// when all child bounds are current. It never prunes and never handles a
// leaf, so it composes in front of any other listener.
type BoundsListener struct{}

var _ Listener = BoundsListener{}

func (BoundsListener) Init(Spatial) {}

func (BoundsListener) BranchAdvance(branch Spatial) bool {
	branch.AsNode().UpdateWorldTransform()
	return false
}

func (BoundsListener) LeafVisited(leaf Spatial) bool {
	n := leaf.AsNode()
	n.UpdateWorldTransform()
	n.UpdateWorldBounds()
	return false
}

func (BoundsListener) BranchExhausted(branch Spatial) {
	branch.AsNode().UpdateHierarchicalBounds()
}
