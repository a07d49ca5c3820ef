package driver

import (
	"fmt"
)

// headlessBuffer mirrors a GPU buffer in CPU memory so tests can inspect
// uploaded contents and count writes.
type headlessBuffer struct {
	desc   BufferDescriptor
	data   []byte
	writes int
}

// headlessProgram records a compiled program and the pipelines derived from it.
type headlessProgram struct {
	desc      ProgramDescriptor
	pipelines []PipelineHandle
}

// Headless implements the full Driver contract with no GPU. Every resource is
// tracked in CPU-side tables and every draw is recorded, so tests and CI runs
// can assert on exactly what the rendering core asked the GPU to do.
type Headless struct {
	nextHandle   uint32
	buffers      map[BufferHandle]*headlessBuffer
	textures     map[TextureHandle]TextureDescriptor
	framebuffers map[FramebufferHandle]FramebufferDescriptor
	programs     map[ProgramHandle]*headlessProgram
	pipelines    map[PipelineHandle]PipelineDescriptor
	bindGroups   map[BindGroupHandle]BindGroupDescriptor

	createdBuffers      int
	createdTextures     int
	createdFramebuffers int
	createdPrograms     int

	width, height int
	presentMode   PresentMode

	frames       [][]DrawCall
	shadowPasses [][]DrawCall
	shadowLayers []int
	frameDraws   []DrawCall
	shadowDraws  []DrawCall
	shadowLayer  int
	inFrame      bool
	inShadow     bool

	failFramebuffer string
	failProgram     string
}

var _ Driver = &Headless{}

// NewHeadless creates a recording driver with a 800×600 default surface size.
//
// Returns:
//   - *Headless: the recording driver
func NewHeadless() *Headless {
	return &Headless{
		buffers:      make(map[BufferHandle]*headlessBuffer),
		textures:     make(map[TextureHandle]TextureDescriptor),
		framebuffers: make(map[FramebufferHandle]FramebufferDescriptor),
		programs:     make(map[ProgramHandle]*headlessProgram),
		pipelines:    make(map[PipelineHandle]PipelineDescriptor),
		bindGroups:   make(map[BindGroupHandle]BindGroupDescriptor),
		width:        800,
		height:       600,
	}
}

func (d *Headless) handle() uint32 {
	d.nextHandle++
	return d.nextHandle
}

func (d *Headless) CreateBuffer(desc BufferDescriptor) (BufferHandle, error) {
	size := desc.Size
	if uint64(len(desc.Data)) > size {
		size = uint64(len(desc.Data))
	}
	b := &headlessBuffer{
		desc: desc,
		data: make([]byte, size),
	}
	copy(b.data, desc.Data)

	h := BufferHandle(d.handle())
	d.buffers[h] = b
	d.createdBuffers++
	return h, nil
}

func (d *Headless) WriteBuffer(h BufferHandle, offset uint64, data []byte) {
	b := d.buffers[h]
	if b == nil {
		return
	}
	end := offset + uint64(len(data))
	if end > uint64(len(b.data)) {
		grown := make([]byte, end)
		copy(grown, b.data)
		b.data = grown
	}
	copy(b.data[offset:], data)
	b.writes++
}

func (d *Headless) DestroyBuffer(h BufferHandle) {
	delete(d.buffers, h)
}

func (d *Headless) CreateTexture(desc TextureDescriptor) (TextureHandle, error) {
	h := TextureHandle(d.handle())
	d.textures[h] = desc
	d.createdTextures++
	return h, nil
}

func (d *Headless) DestroyTexture(h TextureHandle) {
	delete(d.textures, h)
}

func (d *Headless) CreateFramebuffer(desc FramebufferDescriptor) (FramebufferHandle, error) {
	if d.failFramebuffer != "" {
		reason := d.failFramebuffer
		d.failFramebuffer = ""
		return 0, fmt.Errorf("failed to create framebuffer depth texture %q: %s", desc.Label, reason)
	}
	h := FramebufferHandle(d.handle())
	d.framebuffers[h] = desc
	d.createdFramebuffers++
	return h, nil
}

func (d *Headless) DestroyFramebuffer(h FramebufferHandle) {
	delete(d.framebuffers, h)
}

func (d *Headless) CreateProgram(desc ProgramDescriptor) (ProgramHandle, error) {
	if d.failProgram != "" {
		reason := d.failProgram
		d.failProgram = ""
		return 0, fmt.Errorf("failed to compile program %q: %s", desc.Label, reason)
	}
	h := ProgramHandle(d.handle())
	d.programs[h] = &headlessProgram{desc: desc}
	d.createdPrograms++
	return h, nil
}

func (d *Headless) DestroyProgram(h ProgramHandle) {
	p := d.programs[h]
	if p == nil {
		return
	}
	for _, ph := range p.pipelines {
		delete(d.pipelines, ph)
	}
	delete(d.programs, h)
}

func (d *Headless) CreatePipeline(desc PipelineDescriptor) (PipelineHandle, error) {
	p := d.programs[desc.Program]
	if p == nil {
		return 0, fmt.Errorf("cannot create pipeline %q: unknown program", desc.Label)
	}
	h := PipelineHandle(d.handle())
	d.pipelines[h] = desc
	p.pipelines = append(p.pipelines, h)
	return h, nil
}

func (d *Headless) CreateBindGroup(desc BindGroupDescriptor) (BindGroupHandle, error) {
	p := d.programs[desc.Program]
	if p == nil {
		return 0, fmt.Errorf("cannot create bind group %q: unknown program", desc.Label)
	}
	if _, ok := p.desc.BindGroupLayouts[desc.Group]; !ok {
		return 0, fmt.Errorf("cannot create bind group %q: program has no layout for group %d", desc.Label, desc.Group)
	}
	for _, e := range desc.Entries {
		switch e.Kind {
		case BindingBuffer:
			if d.buffers[e.Buffer] == nil {
				return 0, fmt.Errorf("bind group %q binding %d references an unknown buffer", desc.Label, e.Binding)
			}
		case BindingTexture, BindingSampler:
			if _, ok := d.textures[e.Texture]; !ok {
				return 0, fmt.Errorf("bind group %q binding %d references an unknown texture", desc.Label, e.Binding)
			}
		case BindingShadowMap, BindingShadowSampler:
			if _, ok := d.framebuffers[e.Target]; !ok {
				return 0, fmt.Errorf("bind group %q binding %d references an unknown framebuffer", desc.Label, e.Binding)
			}
		}
	}
	h := BindGroupHandle(d.handle())
	d.bindGroups[h] = desc
	return h, nil
}

func (d *Headless) DestroyBindGroup(h BindGroupHandle) {
	delete(d.bindGroups, h)
}

func (d *Headless) Resize(width, height int) {
	d.width = width
	d.height = height
}

func (d *Headless) SetPresentMode(mode PresentMode) {
	d.presentMode = mode
}

func (d *Headless) BeginShadowPass(fb FramebufferHandle, layer int) error {
	desc, ok := d.framebuffers[fb]
	if !ok {
		return fmt.Errorf("cannot begin shadow pass: unknown framebuffer")
	}
	layers := int(desc.Layers)
	if layers == 0 {
		layers = 1
	}
	if layer < 0 || layer >= layers {
		return fmt.Errorf("cannot begin shadow pass: framebuffer has no layer %d", layer)
	}
	d.inShadow = true
	d.shadowDraws = nil
	d.shadowLayer = layer
	return nil
}

func (d *Headless) EndShadowPass() {
	if !d.inShadow {
		return
	}
	d.shadowPasses = append(d.shadowPasses, d.shadowDraws)
	d.shadowLayers = append(d.shadowLayers, d.shadowLayer)
	d.shadowDraws = nil
	d.inShadow = false
}

func (d *Headless) BeginFrame(clear [4]float32) error {
	if d.inFrame {
		return fmt.Errorf("previous frame surface not yet presented")
	}
	d.inFrame = true
	d.frameDraws = nil
	return nil
}

func (d *Headless) Draw(call DrawCall) {
	// Callers may reuse their bind group slice between draws; record a copy.
	call.BindGroups = append([]BindGroupHandle(nil), call.BindGroups...)
	if d.inShadow {
		d.shadowDraws = append(d.shadowDraws, call)
		return
	}
	if d.inFrame {
		d.frameDraws = append(d.frameDraws, call)
	}
}

func (d *Headless) EndFrame() {
	if !d.inFrame {
		return
	}
	d.frames = append(d.frames, d.frameDraws)
	d.frameDraws = nil
	d.inFrame = false
}

func (d *Headless) Release() {
	d.buffers = make(map[BufferHandle]*headlessBuffer)
	d.textures = make(map[TextureHandle]TextureDescriptor)
	d.framebuffers = make(map[FramebufferHandle]FramebufferDescriptor)
	d.programs = make(map[ProgramHandle]*headlessProgram)
	d.pipelines = make(map[PipelineHandle]PipelineDescriptor)
	d.bindGroups = make(map[BindGroupHandle]BindGroupDescriptor)
}

// FailNextFramebuffer makes the next CreateFramebuffer call fail with the
// given reason, exercising the resource-error path.
//
// Parameters:
//   - reason: the status string the returned error carries
func (d *Headless) FailNextFramebuffer(reason string) {
	d.failFramebuffer = reason
}

// FailNextProgram makes the next CreateProgram call fail with the given
// reason, exercising the compile-error path.
//
// Parameters:
//   - reason: the status string the returned error carries
func (d *Headless) FailNextProgram(reason string) {
	d.failProgram = reason
}

// BufferData returns the current contents of a buffer, or nil for unknown handles.
//
// Parameters:
//   - h: the buffer to inspect
//
// Returns:
//   - []byte: the mirrored buffer contents
func (d *Headless) BufferData(h BufferHandle) []byte {
	b := d.buffers[h]
	if b == nil {
		return nil
	}
	return b.data
}

// BufferWrites returns how many WriteBuffer calls have targeted a buffer.
//
// Parameters:
//   - h: the buffer to inspect
//
// Returns:
//   - int: the write count, 0 for unknown handles
func (d *Headless) BufferWrites(h BufferHandle) int {
	b := d.buffers[h]
	if b == nil {
		return 0
	}
	return b.writes
}

// BufferDesc returns the descriptor a buffer was created with.
//
// Parameters:
//   - h: the buffer to inspect
//
// Returns:
//   - BufferDescriptor: the creation descriptor
//   - bool: false for unknown handles
func (d *Headless) BufferDesc(h BufferHandle) (BufferDescriptor, bool) {
	b := d.buffers[h]
	if b == nil {
		return BufferDescriptor{}, false
	}
	return b.desc, true
}

// TextureDesc returns the descriptor a texture was created with.
//
// Parameters:
//   - h: the texture to inspect
//
// Returns:
//   - TextureDescriptor: the creation descriptor
//   - bool: false for unknown handles
func (d *Headless) TextureDesc(h TextureHandle) (TextureDescriptor, bool) {
	desc, ok := d.textures[h]
	return desc, ok
}

// ProgramDesc returns the descriptor a program was created with.
//
// Parameters:
//   - h: the program to inspect
//
// Returns:
//   - ProgramDescriptor: the creation descriptor
//   - bool: false for unknown handles
func (d *Headless) ProgramDesc(h ProgramHandle) (ProgramDescriptor, bool) {
	p := d.programs[h]
	if p == nil {
		return ProgramDescriptor{}, false
	}
	return p.desc, true
}

// PipelineDesc returns the descriptor a pipeline was created with.
//
// Parameters:
//   - h: the pipeline to inspect
//
// Returns:
//   - PipelineDescriptor: the creation descriptor
//   - bool: false for unknown handles
func (d *Headless) PipelineDesc(h PipelineHandle) (PipelineDescriptor, bool) {
	desc, ok := d.pipelines[h]
	return desc, ok
}

// Frames returns the draw calls of every completed main frame in order.
//
// Returns:
//   - [][]DrawCall: one slice of draws per frame
func (d *Headless) Frames() [][]DrawCall {
	return d.frames
}

// ShadowPassDraws returns the draw calls of every completed shadow pass in order.
//
// Returns:
//   - [][]DrawCall: one slice of draws per shadow pass
func (d *Headless) ShadowPassDraws() [][]DrawCall {
	return d.shadowPasses
}

// ShadowPassLayers returns the framebuffer layer each completed shadow pass
// rendered into, in pass order.
//
// Returns:
//   - []int: one layer index per shadow pass
func (d *Headless) ShadowPassLayers() []int {
	return d.shadowLayers
}

// LiveBuffers returns the number of buffers currently alive.
func (d *Headless) LiveBuffers() int { return len(d.buffers) }

// LiveTextures returns the number of textures currently alive.
func (d *Headless) LiveTextures() int { return len(d.textures) }

// LiveFramebuffers returns the number of framebuffers currently alive.
func (d *Headless) LiveFramebuffers() int { return len(d.framebuffers) }

// LivePrograms returns the number of programs currently alive.
func (d *Headless) LivePrograms() int { return len(d.programs) }

// LivePipelines returns the number of pipelines currently alive.
func (d *Headless) LivePipelines() int { return len(d.pipelines) }

// LiveBindGroups returns the number of bind groups currently alive.
func (d *Headless) LiveBindGroups() int { return len(d.bindGroups) }

// CreatedBuffers returns the total number of buffers ever created.
func (d *Headless) CreatedBuffers() int { return d.createdBuffers }

// CreatedTextures returns the total number of textures ever created.
func (d *Headless) CreatedTextures() int { return d.createdTextures }

// CreatedFramebuffers returns the total number of framebuffers ever created.
func (d *Headless) CreatedFramebuffers() int { return d.createdFramebuffers }

// CreatedPrograms returns the total number of programs ever created.
func (d *Headless) CreatedPrograms() int { return d.createdPrograms }

// Size returns the current surface size set by Resize.
//
// Returns:
//   - int: the surface width in pixels
//   - int: the surface height in pixels
func (d *Headless) Size() (int, int) { return d.width, d.height }
