package loader

import (
	"fmt"

	"github.com/helio-engine/helio-go/engine/animation"
)

// extractClips converts document animations into engine clips. Channel
// targets are node names, matching the names the scene builder gives the
// spatial groups, so clips bind to the loaded hierarchy without index
// bookkeeping. Morph target weight channels are skipped.
func extractClips(parser gltfParser) ([]animation.Clip, error) {
	doc := parser.Document()
	clips := make([]animation.Clip, 0, len(doc.Animations))

	for ai, anim := range doc.Animations {
		name := anim.Name
		if name == "" {
			name = fmt.Sprintf("animation_%d", ai)
		}

		options := make([]animation.ClipBuilderOption, 0, len(anim.Channels))
		for ci, ch := range anim.Channels {
			if ch.Target.Node == nil {
				continue
			}
			if ch.Target.Path == gltfAnimPathWeights {
				continue
			}
			if ch.Sampler < 0 || ch.Sampler >= len(anim.Samplers) {
				return nil, fmt.Errorf("animation %q channel %d: sampler %d out of range", name, ci, ch.Sampler)
			}

			channel, err := extractChannel(parser, doc, &ch, &anim.Samplers[ch.Sampler])
			if err != nil {
				return nil, fmt.Errorf("animation %q channel %d: %w", name, ci, err)
			}
			options = append(options, animation.WithChannel(channel))
		}
		if len(options) == 0 {
			continue
		}

		clips = append(clips, animation.NewClip(name, options...))
	}
	return clips, nil
}

func extractChannel(parser gltfParser, doc *gltfDocument, ch *gltfAnimChannel, sampler *gltfAnimSampler) (animation.Channel, error) {
	var channel animation.Channel

	times, err := parser.ReadFloatAccessor(sampler.Input, gltfAccessorTypeScalar)
	if err != nil {
		return channel, fmt.Errorf("failed to read keyframe times: %w", err)
	}
	// Validate here so malformed files surface as errors rather than
	// tripping the clip builder's construction panics.
	if len(times) == 0 {
		return channel, fmt.Errorf("channel has no keyframes")
	}
	for i := 1; i < len(times); i++ {
		if times[i] < times[i-1] {
			return channel, fmt.Errorf("keyframe times are not ascending")
		}
	}

	channel.Target = nodeName(doc, *ch.Target.Node)
	channel.Interpolation = animation.InterpolationLinear
	if sampler.Interpolation == gltfAnimInterpolationStep {
		channel.Interpolation = animation.InterpolationStep
	}

	switch ch.Target.Path {
	case gltfAnimPathTranslation, gltfAnimPathScale:
		channel.Path = animation.PathTranslation
		if ch.Target.Path == gltfAnimPathScale {
			channel.Path = animation.PathScale
		}
		values, err := parser.ReadFloatAccessor(sampler.Output, gltfAccessorTypeVec3)
		if err != nil {
			return channel, fmt.Errorf("failed to read keyframe values: %w", err)
		}
		if len(values) != len(times)*3 {
			return channel, fmt.Errorf("keyframe value count %d does not match %d times", len(values)/3, len(times))
		}
		channel.VectorKeys = make([]animation.VectorKey, len(times))
		for i, t := range times {
			channel.VectorKeys[i] = animation.VectorKey{
				Time:  t,
				Value: [3]float32{values[i*3], values[i*3+1], values[i*3+2]},
			}
		}
	case gltfAnimPathRotation:
		channel.Path = animation.PathRotation
		values, err := parser.ReadFloatAccessor(sampler.Output, gltfAccessorTypeVec4)
		if err != nil {
			return channel, fmt.Errorf("failed to read keyframe values: %w", err)
		}
		if len(values) != len(times)*4 {
			return channel, fmt.Errorf("keyframe value count %d does not match %d times", len(values)/4, len(times))
		}
		channel.QuaternionKeys = make([]animation.QuaternionKey, len(times))
		for i, t := range times {
			channel.QuaternionKeys[i] = animation.QuaternionKey{
				Time:  t,
				Value: [4]float32{values[i*4], values[i*4+1], values[i*4+2], values[i*4+3]},
			}
		}
	default:
		return channel, fmt.Errorf("unsupported animation path %q", ch.Target.Path)
	}

	return channel, nil
}

// nodeName returns the node's name, or a stable synthetic one when the
// document leaves it blank. The scene builder uses the same convention.
func nodeName(doc *gltfDocument, nodeIndex int) string {
	if nodeIndex >= 0 && nodeIndex < len(doc.Nodes) && doc.Nodes[nodeIndex].Name != "" {
		return doc.Nodes[nodeIndex].Name
	}
	return fmt.Sprintf("node_%d", nodeIndex)
}
