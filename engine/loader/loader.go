// Package loader imports glTF 2.0 assets (.gltf and .glb) into engine
// resources: a spatial hierarchy of groups and shapes, plus the geometries,
// materials, textures, and animation clips it references.
package loader

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/helio-engine/helio-go/engine/animation"
	"github.com/helio-engine/helio-go/engine/geometry"
	"github.com/helio-engine/helio-go/engine/renderer/material"
	"github.com/helio-engine/helio-go/engine/spatial"
	"github.com/helio-engine/helio-go/engine/texture"
)

// Result is everything imported from one asset. Root is ready to attach to a
// scene; the flat slices exist so callers can inspect or share the resources.
// Clip channels target node names within Root, so an animation player built
// with Root binds without extra plumbing.
type Result struct {
	Root       *spatial.Group
	Geometries []geometry.Geometry
	Materials  []material.Material
	Textures   []texture.Texture
	Clips      []animation.Clip
}

// Loader imports glTF assets.
type Loader interface {
	// Load imports the asset at path. The container format is detected from
	// the extension and the GLB magic bytes. Relative buffer and image URIs
	// resolve against the file's directory.
	//
	// Parameters:
	//   - path: path to a .gltf or .glb file
	//
	// Returns:
	//   - *Result: the imported resources
	//   - error: an error if reading or conversion fails
	Load(path string) (*Result, error)

	// LoadReader imports an asset from a stream. External file URIs are not
	// resolvable in this mode; assets must embed their buffers (GLB or data
	// URIs).
	//
	// Parameters:
	//   - r: the asset bytes
	//   - isGLB: true when the stream carries GLB framing
	//
	// Returns:
	//   - *Result: the imported resources
	//   - error: an error if reading or conversion fails
	LoadReader(r io.Reader, isGLB bool) (*Result, error)
}

type loaderImpl struct {
	workers int
}

var _ Loader = &loaderImpl{}

func (l *loaderImpl) Load(path string) (*Result, error) {
	parser := newGLTFParser()
	if err := parser.Parse(path); err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if name == "" {
		name = "model"
	}
	return l.convert(parser, name)
}

func (l *loaderImpl) LoadReader(r io.Reader, isGLB bool) (*Result, error) {
	parser := newGLTFParser()
	if err := parser.ParseReader(r, isGLB); err != nil {
		return nil, fmt.Errorf("failed to parse stream: %w", err)
	}
	return l.convert(parser, "model")
}

// convert runs the extraction phases in dependency order: textures feed
// materials, geometries and materials feed the scene, clips stand alone.
func (l *loaderImpl) convert(parser gltfParser, fallbackName string) (*Result, error) {
	textures, err := extractTextures(parser, l.workers)
	if err != nil {
		return nil, fmt.Errorf("failed to load textures: %w", err)
	}

	materials, err := extractMaterials(parser, textures)
	if err != nil {
		return nil, fmt.Errorf("failed to load materials: %w", err)
	}

	geometries, byMesh, err := extractGeometries(parser)
	if err != nil {
		return nil, fmt.Errorf("failed to load geometry: %w", err)
	}

	root, err := buildScene(parser, fallbackName, geometries, byMesh, materials)
	if err != nil {
		return nil, fmt.Errorf("failed to build scene: %w", err)
	}

	clips, err := extractClips(parser)
	if err != nil {
		return nil, fmt.Errorf("failed to load animations: %w", err)
	}

	return &Result{
		Root:       root,
		Geometries: geometries,
		Materials:  materials,
		Textures:   textures,
		Clips:      clips,
	}, nil
}
