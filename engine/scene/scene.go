// Package scene ties the pieces of a renderable world together: the root of
// the spatial hierarchy, the ambient light term, and an optional sky backdrop.
// Lights and shapes live in the graph itself, not in scene-level lists; the
// renderer's traversal collects them fresh each frame.
package scene

import (
	"github.com/helio-engine/helio-go/engine/sky"
	"github.com/helio-engine/helio-go/engine/spatial"
)

// sceneImpl is the implementation of the Scene interface.
type sceneImpl struct {
	name    string
	root    *spatial.Group
	ambient [3]float32
	sky     *sky.Sky
}

// Scene owns the root group of a spatial hierarchy plus the handful of
// world-level settings that are not attached to any one node: the ambient
// color fed into the light header and the sky drawn behind everything else.
//
// A scene is not safe for concurrent mutation; the frame loop owns it.
type Scene interface {
	// Name returns the scene's identifier.
	//
	// Returns:
	//   - string: the scene name
	Name() string

	// Root returns the root group of the spatial hierarchy. Traversal passes
	// start here.
	//
	// Returns:
	//   - *spatial.Group: the root group, never nil
	Root() *spatial.Group

	// Add attaches a node under the root group.
	//
	// Parameters:
	//   - node: the node to attach
	Add(node spatial.Spatial)

	// Remove detaches a direct child of the root group.
	//
	// Parameters:
	//   - node: the node to detach
	//
	// Returns:
	//   - bool: true if the node was a direct child and was removed
	Remove(node spatial.Spatial) bool

	// Find searches the hierarchy depth-first for a node by name.
	//
	// Parameters:
	//   - name: the node name to search for
	//
	// Returns:
	//   - spatial.Spatial: the first match, or nil
	Find(name string) spatial.Spatial

	// Ambient returns the scene's ambient RGB color.
	//
	// Returns:
	//   - [3]float32: ambient color as (r, g, b)
	Ambient() [3]float32

	// SetAmbient sets the scene's ambient RGB color. The illumination
	// processor picks the change up on the next frame's header upload.
	//
	// Parameters:
	//   - r, g, b: ambient color components
	SetAmbient(r, g, b float32)

	// Sky returns the scene's sky backdrop, or nil when the scene has none.
	//
	// Returns:
	//   - *sky.Sky: the sky, or nil
	Sky() *sky.Sky

	// SetSky installs or clears the sky backdrop. The sky is a property of
	// the scene rather than a graph node: it follows the camera and has no
	// meaningful world transform, so it is never traversed or culled.
	//
	// Parameters:
	//   - s: the sky to install, or nil to clear
	SetSky(s *sky.Sky)
}

var _ Scene = &sceneImpl{}

// NewScene creates a scene with an empty root group, a dim gray ambient term,
// no sky, and any provided options applied.
//
// Parameters:
//   - name: the scene's identifier, also used as the root group's name
//   - opts: variadic list of SceneBuilderOption functions to configure the scene
//
// Returns:
//   - Scene: the new scene
func NewScene(name string, opts ...SceneBuilderOption) Scene {
	s := &sceneImpl{
		name:    name,
		root:    spatial.NewGroup(name),
		ambient: [3]float32{0.03, 0.03, 0.03},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *sceneImpl) Name() string {
	return s.name
}

func (s *sceneImpl) Root() *spatial.Group {
	return s.root
}

func (s *sceneImpl) Add(node spatial.Spatial) {
	s.root.AddChild(node)
}

func (s *sceneImpl) Remove(node spatial.Spatial) bool {
	return s.root.RemoveChild(node)
}

func (s *sceneImpl) Find(name string) spatial.Spatial {
	return spatial.Find(s.root, name)
}

func (s *sceneImpl) Ambient() [3]float32 {
	return s.ambient
}

func (s *sceneImpl) SetAmbient(r, g, b float32) {
	s.ambient = [3]float32{r, g, b}
}

func (s *sceneImpl) Sky() *sky.Sky {
	return s.sky
}

func (s *sceneImpl) SetSky(sk *sky.Sky) {
	s.sky = sk
}
