package material

import "github.com/helio-engine/helio-go/engine/texture"

// MaterialBuilderOption is a function that configures a material instance during construction.
type MaterialBuilderOption func(*material)

// WithName is an option builder that sets the name of the material.
//
// Parameters:
//   - name: the identifier for the material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the name option to a material
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor is an option builder that sets the albedo RGBA factor of the material.
//
// Parameters:
//   - r, g, b, a: base color components
//
// Returns:
//   - MaterialBuilderOption: a function that applies the base color option to a material
func WithBaseColor(r, g, b, a float32) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = [4]float32{r, g, b, a}
	}
}

// WithMetallic is an option builder that sets the metallic factor of the material.
//
// Parameters:
//   - metallic: the metallic factor (0.0 = dielectric, 1.0 = metal)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the metallic option to a material
func WithMetallic(metallic float32) MaterialBuilderOption {
	return func(m *material) {
		m.metallic = metallic
	}
}

// WithRoughness is an option builder that sets the roughness factor of the material.
//
// Parameters:
//   - roughness: the roughness factor (0.0 = smooth, 1.0 = rough)
//
// Returns:
//   - MaterialBuilderOption: a function that applies the roughness option to a material
func WithRoughness(roughness float32) MaterialBuilderOption {
	return func(m *material) {
		m.roughness = roughness
	}
}

// WithEmissive is an option builder that sets the emissive RGB color of the material.
//
// Parameters:
//   - r, g, b: emissive color components
//
// Returns:
//   - MaterialBuilderOption: a function that applies the emissive option to a material
func WithEmissive(r, g, b float32) MaterialBuilderOption {
	return func(m *material) {
		m.emissive = [3]float32{r, g, b}
	}
}

// WithTexture is an option builder that sets the base color texture of the material.
//
// Parameters:
//   - tex: the base color texture
//
// Returns:
//   - MaterialBuilderOption: a function that applies the texture option to a material
func WithTexture(tex texture.Texture) MaterialBuilderOption {
	return func(m *material) {
		m.texture = tex
	}
}

// WithDoubleSided is an option builder that sets whether both faces of the
// surface are rendered.
//
// Parameters:
//   - doubleSided: true to disable back-face culling for this material
//
// Returns:
//   - MaterialBuilderOption: a function that applies the double-sided option to a material
func WithDoubleSided(doubleSided bool) MaterialBuilderOption {
	return func(m *material) {
		m.doubleSided = doubleSided
	}
}
