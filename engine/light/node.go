package light

import (
	"github.com/helio-engine/helio-go/common"
	"github.com/helio-engine/helio-go/engine/spatial"
)

// Node places a light in the scene graph. The node's world transform drives
// the light: the translation column becomes the light position and the
// rotated local direction becomes the light direction. The illumination
// listener calls Sync at leaf-visited time before collecting the light.
//
// Point and spot nodes take their local bounds from the light's range, so a
// light whose influence cube cannot touch the view frustum is pruned with the
// rest of its branch. Directional nodes carry the infinite sentinel and are
// never culled.
type Node struct {
	spatial.NodeBase

	light          Light
	localDirection [3]float32
}

// NewNode creates a scene node owning the given light. The light's direction
// at attach time becomes the node's local direction, so rotating the node
// afterwards reorients the light.
//
// Parameters:
//   - name: the node name
//   - l: the light the node places in the scene
//
// Returns:
//   - *Node: the new light node
func NewNode(name string, l Light) *Node {
	if l == nil {
		panic("light: NewNode requires a non-nil light")
	}
	n := &Node{
		light:          l,
		localDirection: l.Direction(),
	}
	n.Init(n, name)
	n.SetBounds(rangeBounds(l))
	return n
}

// Light returns the light this node places in the scene.
//
// Returns:
//   - Light: the owned light
func (n *Node) Light() Light {
	return n.light
}

// LocalDirection returns the light direction in the node's local space.
//
// Returns:
//   - [3]float32: the normalized local direction
func (n *Node) LocalDirection() [3]float32 {
	return n.localDirection
}

// SetLocalDirection sets the light direction in the node's local space.
// The direction is normalized before storing.
//
// Parameters:
//   - x, y, z: direction components (will be normalized)
func (n *Node) SetLocalDirection(x, y, z float32) {
	n.localDirection = normalize3(x, y, z)
}

// Sync pushes the node's world transform into the light and refreshes the
// node's local bounds from the light's range. Position and direction are
// written through the light's setters only when they actually changed, so a
// static node does not dirty its light every frame.
func (n *Node) Sync() {
	world := n.WorldTransform()

	pos := [3]float32{world[12], world[13], world[14]}
	if pos != n.light.Position() {
		n.light.SetPosition(pos[0], pos[1], pos[2])
	}

	d := common.TransformDirection(world, n.localDirection)
	dir := normalize3(d[0], d[1], d[2])
	if dir != n.light.Direction() {
		n.light.SetDirection(dir[0], dir[1], dir[2])
	}

	if b := rangeBounds(n.light); b != n.Bounds() {
		n.SetBounds(b)
		// The bounds listener has already run for this visit and the world
		// matrix is current, so refresh the cached world bounds in place.
		// Otherwise the clean pass would wipe the flag before the next
		// traversal recomputes, leaving the old influence volume cached.
		n.UpdateWorldBounds()
	}
}

// rangeBounds derives a light node's local bounds from its light: the range
// cube for point and spot lights, the infinite sentinel for directional
// lights.
func rangeBounds(l Light) common.BoundingBox {
	if l.Type() == LightTypeDirectional {
		return common.InfiniteBox()
	}
	r := l.Range()
	return common.BoundingBox{Extent: [3]float32{r, r, r}}
}
