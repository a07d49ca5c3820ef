package scene

import "github.com/helio-engine/helio-go/engine/sky"

// SceneBuilderOption configures a Scene during construction.
type SceneBuilderOption func(*sceneImpl)

// WithAmbient sets the scene's ambient RGB color.
//
// Parameters:
//   - r, g, b: ambient color components
//
// Returns:
//   - SceneBuilderOption: the option function
func WithAmbient(r, g, b float32) SceneBuilderOption {
	return func(s *sceneImpl) {
		s.ambient = [3]float32{r, g, b}
	}
}

// WithSky installs a sky backdrop on the scene.
//
// Parameters:
//   - sk: the sky to install
//
// Returns:
//   - SceneBuilderOption: the option function
func WithSky(sk *sky.Sky) SceneBuilderOption {
	return func(s *sceneImpl) {
		s.sky = sk
	}
}
