// Package driver is the narrow graphics-API boundary of the renderer.
// Everything above it (modules, caches, materials, geometry) speaks in opaque
// handles and descriptor structs; everything below it is one concrete GPU
// binding. Two implementations are provided: a WebGPU driver for real output
// and a headless driver that records operations for tests and CI.
package driver

import (
	"github.com/cogentcore/webgpu/wgpu"
)

// BufferHandle identifies a GPU buffer created through a Driver.
// The zero value is never a live handle.
type BufferHandle uint32

// TextureHandle identifies a GPU texture (with its view and sampler) created
// through a Driver. The zero value is never a live handle.
type TextureHandle uint32

// FramebufferHandle identifies an off-screen depth render target created
// through a Driver. The zero value is never a live handle.
type FramebufferHandle uint32

// ProgramHandle identifies a compiled shader program (shader module plus its
// bind group and pipeline layouts). The zero value is never a live handle.
type ProgramHandle uint32

// PipelineHandle identifies a render pipeline derived from a program and a
// fixed-function state block. The zero value is never a live handle.
type PipelineHandle uint32

// BindGroupHandle identifies a GPU bind group created through a Driver.
// The zero value is never a live handle.
type BindGroupHandle uint32

// PresentMode controls how rendered frames are presented to the display surface.
type PresentMode int

const (
	// PresentModeVSync waits for the next vertical blank before presenting, capping frame rate
	// to the monitor's refresh rate. Eliminates tearing.
	PresentModeVSync PresentMode = iota

	// PresentModeUncapped presents frames immediately without waiting for vertical blank.
	// May cause screen tearing but provides the lowest latency.
	PresentModeUncapped
)

// MSAASampleCount controls the number of samples used for multisample anti-aliasing (MSAA).
// Only specific power-of-two values are valid for GPU hardware. WebGPU guarantees support for
// 1 (off) and 4; higher values (8, 16) are adapter-dependent and may not be available.
type MSAASampleCount uint32

const (
	// MSAAOff disables multisample anti-aliasing (sample count 1).
	MSAAOff MSAASampleCount = 1

	// MSAA4x enables 4× multisample anti-aliasing. This is the default.
	MSAA4x MSAASampleCount = 4

	// MSAA8x enables 8× multisample anti-aliasing. Adapter-dependent; not all hardware supports this.
	MSAA8x MSAASampleCount = 8

	// MSAA16x enables 16× multisample anti-aliasing. Adapter-dependent; not all hardware supports this.
	MSAA16x MSAASampleCount = 16
)

// BufferKind selects the GPU usage flags a buffer is created with.
type BufferKind int

const (
	// BufferVertex is a vertex attribute buffer.
	BufferVertex BufferKind = iota

	// BufferIndex is a 32-bit index buffer.
	BufferIndex

	// BufferUniform is a uniform buffer, bindable in shader bind groups.
	BufferUniform

	// BufferStorage is a storage buffer, bindable in shader bind groups.
	BufferStorage
)

// FilterMode selects texture magnification/minification filtering.
type FilterMode int

const (
	// FilterLinear samples with bilinear interpolation.
	FilterLinear FilterMode = iota

	// FilterNearest samples the nearest texel.
	FilterNearest
)

// WrapMode selects texture addressing outside the [0, 1] coordinate range.
type WrapMode int

const (
	// WrapRepeat tiles the texture.
	WrapRepeat WrapMode = iota

	// WrapClampToEdge clamps coordinates to the edge texel.
	WrapClampToEdge
)

// CullMode selects which triangle faces a pipeline discards.
type CullMode int

const (
	// CullNone renders both faces.
	CullNone CullMode = iota

	// CullBack discards back faces.
	CullBack

	// CullFront discards front faces. Used by depth-only shadow pipelines to
	// reduce self-shadowing on closed meshes.
	CullFront
)

// BufferDescriptor describes a GPU buffer to create.
type BufferDescriptor struct {
	// Label is a debug label attached to the GPU object.
	Label string
	// Kind selects the usage flags.
	Kind BufferKind
	// Size is the buffer size in bytes. When Data is longer than Size, the
	// data length wins.
	Size uint64
	// Data is optional initial contents, written at offset 0 after creation.
	Data []byte
}

// TextureDescriptor describes a 2D RGBA8 texture and its sampler.
type TextureDescriptor struct {
	// Label is a debug label attached to the GPU objects.
	Label string
	// Width and Height are the texture dimensions in texels.
	Width, Height uint32
	// Pixels is the RGBA8 pixel data, Width*Height*4 bytes, row-major.
	Pixels []byte
	// Filter selects mag/min filtering.
	Filter FilterMode
	// Wrap selects the addressing mode on all axes.
	Wrap WrapMode
	// SRGB selects an sRGB texture format so sampling converts to linear.
	SRGB bool
}

// FramebufferDescriptor describes an off-screen depth render target suitable
// for shadow mapping. The created framebuffer owns a Depth32Float texture
// array, one render view per layer, a sampled array view, and a comparison
// sampler for PCF lookups in the lit pass.
type FramebufferDescriptor struct {
	// Label is a debug label attached to the GPU objects.
	Label string
	// Width and Height are the target dimensions in texels.
	Width, Height uint32
	// Layers is the number of array layers, one per shadow-casting light.
	// Zero is treated as one. The sampled view is a texture_depth_2d_array
	// regardless of the layer count.
	Layers uint32
}

// ProgramDescriptor describes a shader program to compile. The source is the
// fully composed WGSL produced by the shader package; the layout descriptors
// and vertex layouts are parsed from that source before compilation.
type ProgramDescriptor struct {
	// Label is a debug label attached to the GPU objects.
	Label string
	// Source is the complete WGSL source for the program.
	Source string
	// VertexEntry is the vertex entry point function name.
	VertexEntry string
	// FragmentEntry is the fragment entry point function name. Empty for
	// depth-only programs (shadow passes have no fragment stage).
	FragmentEntry string
	// BindGroupLayouts maps group indices to their layout descriptors.
	BindGroupLayouts map[int]wgpu.BindGroupLayoutDescriptor
	// VertexLayouts describes the vertex buffer attribute layout.
	VertexLayouts []wgpu.VertexBufferLayout
}

// PipelineDescriptor describes a render pipeline derived from a compiled
// program plus a fixed-function state block. Multiple pipelines may share one
// program (for example an opaque pipeline and a no-depth-write sky pipeline).
// Pipelines are owned by their program and are released with it.
type PipelineDescriptor struct {
	// Label is a debug label attached to the GPU object.
	Label string
	// Program is the compiled program the pipeline executes.
	Program ProgramHandle
	// VertexEntry and FragmentEntry override the program's default entry
	// points when non-empty. A program carrying several entry point pairs
	// (lit pass, sky pass) serves multiple pipelines this way.
	VertexEntry   string
	FragmentEntry string
	// DepthTest enables depth comparison (Less). When false the pipeline
	// always passes the depth test.
	DepthTest bool
	// DepthLessEqual widens the depth comparison to LessEqual. Backdrop
	// passes drawn at the far plane need this to cover pixels the clear
	// left at depth 1.
	DepthLessEqual bool
	// DepthWrite enables depth buffer writes.
	DepthWrite bool
	// Blend enables standard source-over alpha blending.
	Blend bool
	// CullMode selects face culling.
	CullMode CullMode
	// DepthBias and DepthBiasSlopeScale offset depth output; shadow pipelines
	// use these to reduce acne.
	DepthBias           int32
	DepthBiasSlopeScale float32
	// DepthOnly builds a pipeline with no fragment stage and no color target,
	// rendering into a Depth32Float framebuffer at sample count 1. The
	// program's FragmentEntry is ignored.
	DepthOnly bool
}

// BindingKind selects which resource a BindGroupEntry references.
type BindingKind int

const (
	// BindingBuffer binds a uniform or storage buffer.
	BindingBuffer BindingKind = iota

	// BindingTexture binds a texture's sampled view.
	BindingTexture

	// BindingSampler binds a texture's sampler.
	BindingSampler

	// BindingShadowMap binds a framebuffer's depth texture view for sampling.
	BindingShadowMap

	// BindingShadowSampler binds a framebuffer's comparison sampler.
	BindingShadowSampler
)

// BindGroupEntry references one previously created resource at a binding index.
type BindGroupEntry struct {
	// Binding is the @binding index within the group.
	Binding uint32
	// Kind selects which handle field is read.
	Kind BindingKind
	// Buffer is read when Kind is BindingBuffer.
	Buffer BufferHandle
	// Texture is read when Kind is BindingTexture or BindingSampler.
	Texture TextureHandle
	// Target is read when Kind is BindingShadowMap or BindingShadowSampler.
	Target FramebufferHandle
}

// BindGroupDescriptor describes a bind group created against one of a
// program's parsed group layouts. Every referenced resource must already
// exist; the driver never creates resources implicitly.
type BindGroupDescriptor struct {
	// Label is a debug label attached to the GPU object.
	Label string
	// Program supplies the bind group layout.
	Program ProgramHandle
	// Group is the @group index whose layout is used.
	Group int
	// Entries are the resources bound, one per layout entry.
	Entries []BindGroupEntry
}

// DrawCall is a single indexed, instanced draw encoded into the open pass.
type DrawCall struct {
	// Pipeline is the render pipeline to draw with.
	Pipeline PipelineHandle
	// Vertex and Index are the mesh buffers.
	Vertex BufferHandle
	Index  BufferHandle
	// IndexCount is the number of indices to draw.
	IndexCount uint32
	// InstanceCount is the number of instances to draw.
	InstanceCount uint32
	// FirstInstance offsets the instance index, letting a shader address this
	// draw's slot in a shared per-object storage buffer.
	FirstInstance uint32
	// BindGroups are set by slice position as the group index. A zero handle
	// leaves that group untouched.
	BindGroups []BindGroupHandle
}

// Driver is the GPU interface the rendering core programs against. All
// methods must be called from the goroutine driving the frame loop; a Driver
// performs no internal locking.
//
// Resource creation returns an error carrying the underlying API's reason
// string. A failed creation never yields a usable handle. Destroy methods
// tolerate handles that are already destroyed or were never created.
type Driver interface {
	// CreateBuffer creates a GPU buffer and optionally uploads initial contents.
	//
	// Parameters:
	//   - desc: the buffer kind, size, and optional initial data
	//
	// Returns:
	//   - BufferHandle: the handle of the created buffer
	//   - error: an error if the buffer could not be created
	CreateBuffer(desc BufferDescriptor) (BufferHandle, error)

	// WriteBuffer uploads data to a buffer at the given byte offset. Writes to
	// unknown handles are ignored.
	//
	// Parameters:
	//   - h: the target buffer
	//   - offset: the destination byte offset
	//   - data: the bytes to upload
	WriteBuffer(h BufferHandle, offset uint64, data []byte)

	// DestroyBuffer releases a buffer.
	//
	// Parameters:
	//   - h: the buffer to release
	DestroyBuffer(h BufferHandle)

	// CreateTexture creates a sampled 2D texture, uploads its pixels, and
	// creates the sampler described by the descriptor's filter and wrap modes.
	//
	// Parameters:
	//   - desc: the texture dimensions, pixel data, and sampler configuration
	//
	// Returns:
	//   - TextureHandle: the handle of the created texture
	//   - error: an error if the texture or sampler could not be created
	CreateTexture(desc TextureDescriptor) (TextureHandle, error)

	// DestroyTexture releases a texture, its view, and its sampler.
	//
	// Parameters:
	//   - h: the texture to release
	DestroyTexture(h TextureHandle)

	// CreateFramebuffer creates a depth-only render target for shadow passes.
	// On failure the returned error carries the API's status reason.
	//
	// Parameters:
	//   - desc: the target dimensions
	//
	// Returns:
	//   - FramebufferHandle: the handle of the created framebuffer
	//   - error: an error if the depth texture or comparison sampler could not be created
	CreateFramebuffer(desc FramebufferDescriptor) (FramebufferHandle, error)

	// DestroyFramebuffer releases a framebuffer's depth texture, view, and sampler.
	//
	// Parameters:
	//   - h: the framebuffer to release
	DestroyFramebuffer(h FramebufferHandle)

	// CreateProgram compiles composed WGSL source into a shader module and
	// builds the bind group layouts and pipeline layout parsed from it.
	// Compile and link failures surface the API's message in the error.
	//
	// Parameters:
	//   - desc: the source, entry points, and parsed layout descriptors
	//
	// Returns:
	//   - ProgramHandle: the handle of the compiled program
	//   - error: an error if compilation or layout creation failed
	CreateProgram(desc ProgramDescriptor) (ProgramHandle, error)

	// DestroyProgram releases a program, its layouts, and every pipeline
	// created from it.
	//
	// Parameters:
	//   - h: the program to release
	DestroyProgram(h ProgramHandle)

	// CreatePipeline creates a render pipeline from a compiled program and a
	// fixed-function state block. The pipeline is released together with its
	// program.
	//
	// Parameters:
	//   - desc: the program handle and pipeline state
	//
	// Returns:
	//   - PipelineHandle: the handle of the created pipeline
	//   - error: an error if the program is unknown or pipeline creation failed
	CreatePipeline(desc PipelineDescriptor) (PipelineHandle, error)

	// CreateBindGroup creates a bind group against one of a program's group
	// layouts. Every entry must reference a live resource.
	//
	// Parameters:
	//   - desc: the program, group index, and resource entries
	//
	// Returns:
	//   - BindGroupHandle: the handle of the created bind group
	//   - error: an error if a referenced resource or layout is missing
	CreateBindGroup(desc BindGroupDescriptor) (BindGroupHandle, error)

	// DestroyBindGroup releases a bind group.
	//
	// Parameters:
	//   - h: the bind group to release
	DestroyBindGroup(h BindGroupHandle)

	// Resize reconfigures the presentation surface and recreates the
	// swapchain-sized attachments (MSAA color, depth).
	//
	// Parameters:
	//   - width: the new surface width in pixels
	//   - height: the new surface height in pixels
	Resize(width, height int)

	// SetPresentMode sets the surface present mode, applied on the next Resize.
	//
	// Parameters:
	//   - mode: the PresentMode to use (VSync or Uncapped)
	SetPresentMode(mode PresentMode)

	// BeginShadowPass begins a depth-only render pass targeting one layer of
	// the given framebuffer. Draw calls encode into this pass until
	// EndShadowPass. A shadow pass may be encoded while the main frame is
	// open: its command buffer submits on EndShadowPass, ahead of the main
	// pass submission at EndFrame, so its GPU work always precedes the main
	// pass that samples it.
	//
	// Parameters:
	//   - fb: the depth framebuffer to render into
	//   - layer: the array layer to render into
	//
	// Returns:
	//   - error: an error if the framebuffer or layer is unknown or encoding could not start
	BeginShadowPass(fb FramebufferHandle, layer int) error

	// EndShadowPass ends the open shadow pass and submits it to the GPU queue.
	EndShadowPass()

	// BeginFrame acquires the next swapchain texture and begins the main
	// render pass, clearing color to the given value and depth to 1.
	//
	// Parameters:
	//   - clear: the RGBA clear color
	//
	// Returns:
	//   - error: an error if the swapchain texture could not be acquired
	BeginFrame(clear [4]float32) error

	// Draw encodes one indexed, instanced draw into the open pass (shadow pass
	// if one is open, otherwise the main pass). Draws outside any open pass
	// are ignored.
	//
	// Parameters:
	//   - call: the pipeline, mesh buffers, instance range, and bind groups
	Draw(call DrawCall)

	// EndFrame ends the main render pass, submits the command buffer, and
	// presents the surface.
	EndFrame()

	// Release releases every live resource and the underlying device objects.
	// The driver is unusable afterwards.
	Release()
}
