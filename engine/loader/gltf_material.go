package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/helio-engine/helio-go/engine/renderer/driver"
	"github.com/helio-engine/helio-go/engine/renderer/material"
	"github.com/helio-engine/helio-go/engine/texture"
)

// extractTextures decodes every texture in the document. Image bytes are
// gathered serially (buffer views, data URIs, external files), then decoded
// across the worker pool since image decode dominates load time on textured
// assets.
func extractTextures(parser gltfParser, workers int) ([]texture.Texture, error) {
	doc := parser.Document()
	if len(doc.Textures) == 0 {
		return nil, nil
	}

	type pending struct {
		name    string
		data    []byte
		options []texture.TextureBuilderOption
	}
	jobs := make([]pending, len(doc.Textures))
	for i, tex := range doc.Textures {
		if tex.Source == nil || *tex.Source < 0 || *tex.Source >= len(doc.Images) {
			return nil, fmt.Errorf("texture %d has no valid image source", i)
		}
		img := &doc.Images[*tex.Source]

		data, err := loadImageBytes(parser, img)
		if err != nil {
			return nil, fmt.Errorf("texture %d: %w", i, err)
		}

		name := img.Name
		if name == "" {
			name = fmt.Sprintf("texture_%d", i)
		}
		jobs[i] = pending{name: name, data: data, options: samplerOptions(doc, tex.Sampler)}
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(jobs) {
		workers = len(jobs)
	}

	textures := make([]texture.Texture, len(jobs))
	errs := make([]error, len(jobs))
	pool := worker.NewDynamicWorkerPool(workers, 256, 1*time.Second)
	var wg sync.WaitGroup
	for i := range jobs {
		wg.Add(1)
		job := &jobs[i]
		idx := i
		pool.SubmitTask(worker.Task{
			ID: idx,
			Do: func() (any, error) {
				defer wg.Done()
				textures[idx], errs[idx] = texture.Decode(job.name, job.data, job.options...)
				return nil, errs[idx]
			},
		})
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("texture %d: %w", i, err)
		}
	}
	return textures, nil
}

// loadImageBytes resolves an image's raw encoded bytes from whichever of the
// three glTF image sources it uses.
func loadImageBytes(parser gltfParser, img *gltfImage) ([]byte, error) {
	switch {
	case img.BufferView != nil:
		data, err := parser.ReadBufferView(*img.BufferView)
		if err != nil {
			return nil, fmt.Errorf("failed to read image bufferView: %w", err)
		}
		return data, nil
	case img.URI == "":
		return nil, fmt.Errorf("image has neither URI nor bufferView")
	case isDataURI(img.URI):
		data, _, err := decodeDataURI(img.URI)
		if err != nil {
			return nil, fmt.Errorf("failed to decode image data URI: %w", err)
		}
		return data, nil
	default:
		data, err := os.ReadFile(filepath.Join(parser.BaseDir(), img.URI))
		if err != nil {
			return nil, fmt.Errorf("failed to read image file: %w", err)
		}
		return data, nil
	}
}

func isDataURI(uri string) bool {
	return len(uri) > 5 && uri[:5] == "data:"
}

// samplerOptions maps a glTF sampler onto texture builder options. glTF's
// mirrored repeat mode has no driver equivalent and falls back to repeat.
func samplerOptions(doc *gltfDocument, samplerIndex *int) []texture.TextureBuilderOption {
	if samplerIndex == nil || *samplerIndex < 0 || *samplerIndex >= len(doc.Samplers) {
		return nil
	}
	sampler := &doc.Samplers[*samplerIndex]

	var options []texture.TextureBuilderOption
	if sampler.MagFilter != nil && *sampler.MagFilter == gltfFilterNearest {
		options = append(options, texture.WithFilter(driver.FilterNearest))
	}
	if sampler.WrapS != nil && *sampler.WrapS == gltfWrapClampToEdge {
		options = append(options, texture.WithWrap(driver.WrapClampToEdge))
	}
	return options
}

// extractMaterials maps the pbrMetallicRoughness subset onto engine
// materials, one per document material in order.
func extractMaterials(parser gltfParser, textures []texture.Texture) ([]material.Material, error) {
	doc := parser.Document()
	materials := make([]material.Material, 0, len(doc.Materials))

	for i, mat := range doc.Materials {
		name := mat.Name
		if name == "" {
			name = fmt.Sprintf("material_%d", i)
		}
		options := []material.MaterialBuilderOption{material.WithName(name)}

		if pbr := mat.PbrMetallicRoughness; pbr != nil {
			if c := pbr.BaseColorFactor; c != nil {
				options = append(options, material.WithBaseColor(c[0], c[1], c[2], c[3]))
			}
			if pbr.MetallicFactor != nil {
				options = append(options, material.WithMetallic(*pbr.MetallicFactor))
			}
			if pbr.RoughnessFactor != nil {
				options = append(options, material.WithRoughness(*pbr.RoughnessFactor))
			}
			if info := pbr.BaseColorTexture; info != nil {
				if info.Index < 0 || info.Index >= len(textures) {
					return nil, fmt.Errorf("material %d: base color texture index %d out of range", i, info.Index)
				}
				options = append(options, material.WithTexture(textures[info.Index]))
			}
		}
		if e := mat.EmissiveFactor; e != nil {
			options = append(options, material.WithEmissive(e[0], e[1], e[2]))
		}
		if mat.DoubleSided {
			options = append(options, material.WithDoubleSided(true))
		}

		materials = append(materials, material.NewMaterial(options...))
	}
	return materials, nil
}
