// annotations.go defines the annotation types, argument constants, and parser
// for the Helio WGSL pre-processor. Annotations are single-line WGSL comments
// prefixed with @helio: that drive automatic struct injection, bind group
// declaration, and resource provider registration. The parsed results are
// stored as Annotation values and consumed by the PreProcessor and the
// renderer to wire GPU resources without manual string lookups.
package shader

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// annotationPrefix is the marker that identifies a Helio annotation within a
// WGSL comment line. Every annotation must appear on a line beginning with
// "//" followed by this prefix.
const annotationPrefix = "@helio:"

// AnnotationType identifies the kind of annotation parsed from a WGSL comment
// line. Each type corresponds to a distinct pre-processor action and produces
// different fields on the resulting Annotation struct.
type AnnotationType string

const (
	// annotationTypeInclude injects the WGSL source of a registered struct
	// definition into the shader at the annotation site. The struct source is
	// embedded from the corresponding Go GPU type's .wgsl asset file. This
	// annotation does not produce a declaration and is consumed entirely
	// during pre-processing.
	//
	// Syntax: //@helio:include <struct_type>
	//
	// Example: //@helio:include camera
	annotationTypeInclude AnnotationType = "include"

	// AnnotationTypeBindingGroup generates a WGSL @group/@binding variable
	// declaration and appends an Annotation to the PreProcessor's declarations
	// list. The declaration carries the group index, binding index, and the
	// resolved struct type, enabling the renderer to semantically match
	// bindings to resource providers without string lookups.
	//
	// Syntax: //@helio:group <group> <binding> <address_space> <var_name> <type>
	//
	// Example: //@helio:group 0 0 storage_uniform camera camera
	AnnotationTypeBindingGroup AnnotationType = "group"

	// AnnotationTypeProvider registers a resource provider identity for a
	// group and binding without generating any WGSL output. The WGSL binding
	// declaration remains hand-written in the shader source directly below the
	// annotation. This is used for bindings that contain raw WGSL types
	// (textures, samplers) which have no corresponding registered struct in
	// the pre-processor's struct registry.
	//
	// An optional binding role can be appended after the provider identity to
	// declare the semantic purpose of an individual binding within a
	// multi-binding provider group.
	//
	// Syntax:
	//   //@helio:provider <group> <binding> <provider_identity>
	//   //@helio:provider <group> <binding> <provider_identity> <binding_role>
	//
	// Examples:
	//   //@helio:provider 2 0 material base_color_texture
	//   //@helio:provider 0 4 shadow shadow_map
	AnnotationTypeProvider AnnotationType = "provider"
)

// Annotation represents a single parsed @helio: annotation from a WGSL source
// line. It carries the annotation type, its arguments, the source line number,
// and optional group/binding indices. Annotations of type
// AnnotationTypeBindingGroup and AnnotationTypeProvider are appended to the
// PreProcessor's declarations list for consumption by the renderer during
// resource wiring.
type Annotation struct {
	// Type identifies which annotation was parsed (include, group, or provider).
	Type AnnotationType

	// Args holds the annotation's arguments. The contents depend on Type:
	//   - include:  [0] = struct type key (e.g. "camera")
	//   - group:    [0] = address space, [1] = var name, [2] = WGSL type key
	//   - provider: [0] = provider identity (e.g. "material", "shadow"), [1] = binding role (optional)
	Args []AnnotationArg

	// Line is the 1-based line number in the composed WGSL source where this
	// annotation was found. Used for error reporting.
	Line int

	// Group is the @group index for group and provider annotations. Nil for
	// include annotations.
	Group *int

	// Binding is the @binding index for group and provider annotations. Nil
	// for include annotations.
	Binding *int
}

// AnnotationArg is a typed string constant used as an argument in annotations.
// Arguments fall into four categories: struct type keys (used with include and
// group), address space identifiers (used with group), provider identity keys,
// and binding roles (both used with provider).
type AnnotationArg string

// ── Struct type arguments ──────────────────────────────────────────────────────
// These identify registered WGSL struct types. They can appear in
// @helio:include annotations (to inject the struct source) and in @helio:group
// annotations (as the type field, optionally wrapped in array<>). Each maps to
// a Go GPU type with an embedded .wgsl asset file.

const (
	// AnnotationArgCamera identifies the CameraUniform struct.
	// Source: engine/camera/assets/camera_uniform.wgsl
	AnnotationArgCamera AnnotationArg = "camera"

	// annotationArgVertex identifies the VertexInput struct for mesh pipelines.
	// Source: engine/geometry/assets/vertex.wgsl
	annotationArgVertex AnnotationArg = "vertex"

	// AnnotationArgModelData identifies the ModelData struct holding per-instance
	// model matrices and material slots.
	// Source: engine/geometry/assets/model_data.wgsl
	AnnotationArgModelData AnnotationArg = "model_data"

	// AnnotationArgLight identifies the Light struct for per-light GPU data.
	// Source: engine/light/assets/light.wgsl
	AnnotationArgLight AnnotationArg = "light"

	// AnnotationArgLightHeader identifies the LightHeader struct containing the
	// light count and ambient color.
	// Source: engine/light/assets/light_header.wgsl
	AnnotationArgLightHeader AnnotationArg = "light_header"

	// AnnotationArgShadowData identifies the ShadowData struct for the lit
	// fragment shader's shadow sampling.
	// Source: engine/light/assets/shadow_data.wgsl
	AnnotationArgShadowData AnnotationArg = "shadow_data"

	// AnnotationArgShadowUniform identifies the ShadowUniform struct for the
	// shadow depth pass.
	// Source: engine/light/assets/shadow_uniform.wgsl
	AnnotationArgShadowUniform AnnotationArg = "shadow_uniform"

	// AnnotationArgMaterialParams identifies the MaterialParams struct.
	// Source: engine/renderer/material/assets/material_params.wgsl
	AnnotationArgMaterialParams AnnotationArg = "material_params"

	// AnnotationArgSkyParams identifies the SkyParams struct for the backdrop
	// gradient.
	// Source: engine/sky/assets/sky_params.wgsl
	AnnotationArgSkyParams AnnotationArg = "sky_params"
)

// ── Address space arguments ────────────────────────────────────────────────────
// These specify the WGSL variable address space in @helio:group annotations.
// They map to WGSL var<> declarations.

const (
	// annotationArgStorageTypeUniform maps to var<uniform> in WGSL.
	annotationArgStorageTypeUniform AnnotationArg = "storage_uniform"

	// annotationArgStorageTypeRead maps to var<storage, read> in WGSL.
	annotationArgStorageTypeRead AnnotationArg = "storage_read"
)

// ── Provider identity arguments ────────────────────────────────────────────────
// These identify which renderer-level resource provider owns a binding. Used
// in @helio:provider annotations and matched by the renderer's bind group
// assembly to wire the correct GPU resource for each hand-written binding.

const (
	// AnnotationArgMaterial identifies the material provider (base color
	// texture and sampler, bound per material).
	AnnotationArgMaterial AnnotationArg = "material"

	// AnnotationArgLights identifies the lights provider (light header plus
	// light storage array).
	AnnotationArgLights AnnotationArg = "lights"

	// AnnotationArgShadow identifies the shadow provider (shadow depth texture
	// array and comparison sampler).
	AnnotationArgShadow AnnotationArg = "shadow"

	// AnnotationArgSky identifies the sky provider (panorama texture and sampler).
	AnnotationArgSky AnnotationArg = "sky"
)

// ── Binding role arguments ─────────────────────────────────────────────────────
// These qualify individual bindings within a provider group. They appear as
// the optional fourth argument of an @helio:provider annotation, telling the
// renderer which resource each binding fulfils without relying on
// variable-name string matching.

const (
	// AnnotationArgBaseColorTexture identifies a base-color texture binding.
	AnnotationArgBaseColorTexture AnnotationArg = "base_color_texture"

	// AnnotationArgBaseColorSampler identifies the sampler paired with the
	// base-color texture.
	AnnotationArgBaseColorSampler AnnotationArg = "base_color_sampler"

	// AnnotationArgShadowMap identifies the shadow depth texture array binding.
	AnnotationArgShadowMap AnnotationArg = "shadow_map"

	// AnnotationArgShadowSampler identifies the shadow comparison sampler binding.
	AnnotationArgShadowSampler AnnotationArg = "shadow_sampler"
)

// validStructTypes lists all AnnotationArg values that are accepted as struct
// type arguments in @helio:include and @helio:group annotations. Each entry
// must have a corresponding registryEntry in the PreProcessor's structRegistry.
var validStructTypes = []AnnotationArg{
	AnnotationArgCamera,
	annotationArgVertex,
	AnnotationArgModelData,
	AnnotationArgLight,
	AnnotationArgLightHeader,
	AnnotationArgShadowData,
	AnnotationArgShadowUniform,
	AnnotationArgMaterialParams,
	AnnotationArgSkyParams,
}

// validAddressSpaces lists all AnnotationArg values that are accepted as
// address space arguments in @helio:group annotations. Each maps to a WGSL
// var<> declaration.
var validAddressSpaces = []AnnotationArg{
	annotationArgStorageTypeUniform,
	annotationArgStorageTypeRead,
}

// validProviderIdentities lists all AnnotationArg values that are accepted as
// provider identity arguments in @helio:provider annotations. Each maps to a
// renderer-level resource provider used during bind group assembly.
var validProviderIdentities = []AnnotationArg{
	AnnotationArgCamera,
	AnnotationArgMaterial,
	AnnotationArgLights,
	AnnotationArgShadow,
	AnnotationArgSky,
}

// validBindingRoles lists all AnnotationArg values that are accepted as
// binding role qualifiers in @helio:provider annotations. These identify the
// semantic purpose of individual bindings within a provider group.
var validBindingRoles = []AnnotationArg{
	AnnotationArgBaseColorTexture,
	AnnotationArgBaseColorSampler,
	AnnotationArgShadowMap,
	AnnotationArgShadowSampler,
}

// parseAnnotation attempts to parse a single line of WGSL source as an @helio:
// annotation. Returns nil with no error for lines that do not contain the
// annotation prefix. Returns a populated Annotation for valid annotations, or
// an error describing the problem for malformed annotations with correct
// prefix but invalid syntax or unknown arguments.
//
// Parameters:
//   - line: the raw WGSL source line to parse
//   - lineNum: the 1-based line number for error reporting
//
// Returns:
//   - *Annotation: the parsed annotation, or nil if the line is not an annotation
//   - error: a descriptive error if the annotation is malformed
func parseAnnotation(line string, lineNum int) (*Annotation, error) {
	trimmed := strings.TrimSpace(line)
	_, after, ok := strings.Cut(trimmed, annotationPrefix)
	if !ok {
		return nil, nil
	}

	args := strings.Fields(after)
	if len(args) == 0 {
		return nil, fmt.Errorf("line %d: empty @helio annotation", lineNum)
	}

	switch args[0] {
	case string(annotationTypeInclude):
		if len(args) != 2 {
			return nil, fmt.Errorf("line %d: @helio include annotation requires exactly one argument", lineNum)
		}
		if !slices.Contains(validStructTypes, AnnotationArg(args[1])) {
			return nil, fmt.Errorf("line %d: unknown struct type %q in @helio include annotation", lineNum, args[1])
		}
		return &Annotation{
			Type: annotationTypeInclude,
			Args: []AnnotationArg{AnnotationArg(args[1])},
			Line: lineNum,
		}, nil
	case string(AnnotationTypeBindingGroup):
		if len(args) != 6 {
			return nil, fmt.Errorf("line %d: @helio group annotation requires exactly five arguments (group number, binding number, address space, var name, struct type)", lineNum)
		}
		groupInt, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid group number %q in @helio group annotation: %v", lineNum, args[1], err)
		}
		bindingInt, err := strconv.Atoi(args[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid binding number %q in @helio group annotation: %v", lineNum, args[2], err)
		}
		if !slices.Contains(validAddressSpaces, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown address space %q in @helio group annotation", lineNum, args[3])
		}
		typeArg := args[5]
		if inner, ok := strings.CutPrefix(typeArg, "array<"); ok {
			inner = strings.TrimSuffix(inner, ">")
			if !slices.Contains(validStructTypes, AnnotationArg(inner)) {
				return nil, fmt.Errorf("line %d: unknown array element type %q in @helio group annotation", lineNum, inner)
			}
		} else {
			if !slices.Contains(validStructTypes, AnnotationArg(typeArg)) {
				return nil, fmt.Errorf("line %d: unknown struct type %q in @helio group annotation", lineNum, typeArg)
			}
		}
		return &Annotation{
			Type:    AnnotationTypeBindingGroup,
			Args:    []AnnotationArg{AnnotationArg(args[3]), AnnotationArg(args[4]), AnnotationArg(args[5])},
			Line:    lineNum,
			Group:   &groupInt,
			Binding: &bindingInt,
		}, nil
	case string(AnnotationTypeProvider):
		if len(args) < 4 || len(args) > 5 {
			return nil, fmt.Errorf("line %d: @helio provider annotation requires three or four arguments (group, binding, provider identity[, binding role])", lineNum)
		}
		groupInt, err := strconv.Atoi(args[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid group number %q: %v", lineNum, args[1], err)
		}
		bindingInt, err := strconv.Atoi(args[2])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid binding number %q in @helio provider annotation: %v", lineNum, args[2], err)
		}
		if !slices.Contains(validProviderIdentities, AnnotationArg(args[3])) {
			return nil, fmt.Errorf("line %d: unknown provider identity %q in @helio provider annotation", lineNum, args[3])
		}
		providerArgs := []AnnotationArg{AnnotationArg(args[3])}
		if len(args) == 5 {
			if !slices.Contains(validBindingRoles, AnnotationArg(args[4])) {
				return nil, fmt.Errorf("line %d: unknown binding role %q in @helio provider annotation", lineNum, args[4])
			}
			providerArgs = append(providerArgs, AnnotationArg(args[4]))
		}
		return &Annotation{
			Type:    AnnotationTypeProvider,
			Args:    providerArgs,
			Line:    lineNum,
			Group:   &groupInt,
			Binding: &bindingInt,
		}, nil
	default:
		return nil, fmt.Errorf("line %d: unknown @helio annotation type %q", lineNum, args[0])
	}
}
