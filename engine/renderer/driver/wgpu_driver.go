package driver

import (
	"fmt"
	"runtime"

	"github.com/cogentcore/webgpu/wgpu"
)

// wgpuTexture pairs a sampled texture with its view and sampler.
type wgpuTexture struct {
	texture *wgpu.Texture
	view    *wgpu.TextureView
	sampler *wgpu.Sampler
}

// wgpuFramebuffer is a depth-only shadow render target: a Depth32Float
// texture array, one render view per layer, a sampled array view, and a
// comparison sampler for PCF lookups.
type wgpuFramebuffer struct {
	texture    *wgpu.Texture
	view       *wgpu.TextureView
	layerViews []*wgpu.TextureView
	sampler    *wgpu.Sampler
}

// wgpuProgram is a compiled shader module plus the layouts parsed from its
// source. Pipelines created from the program are tracked here so they are
// released together.
type wgpuProgram struct {
	module         *wgpu.ShaderModule
	vertexEntry    string
	fragmentEntry  string
	groupLayouts   map[int]*wgpu.BindGroupLayout
	pipelineLayout *wgpu.PipelineLayout
	vertexLayouts  []wgpu.VertexBufferLayout
	pipelines      []PipelineHandle
}

type wgpuDriver struct {
	device *wgpu.Device
	queue  *wgpu.Queue

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	surface  *wgpu.Surface

	surfaceFormat        *wgpu.TextureFormat
	msaaTexture          *wgpu.Texture
	msaaTextureView      *wgpu.TextureView
	depthTexture         *wgpu.Texture
	depthTextureView     *wgpu.TextureView
	renderPassDescriptor *wgpu.RenderPassDescriptor

	presentMode wgpu.PresentMode
	sampleCount MSAASampleCount
	width       int
	height      int

	nextHandle   uint32
	buffers      map[BufferHandle]*wgpu.Buffer
	textures     map[TextureHandle]*wgpuTexture
	framebuffers map[FramebufferHandle]*wgpuFramebuffer
	programs     map[ProgramHandle]*wgpuProgram
	pipelines    map[PipelineHandle]*wgpu.RenderPipeline
	bindGroups   map[BindGroupHandle]*wgpu.BindGroup

	// Frame state for batched rendering across multiple draw calls
	frameEncoder *wgpu.CommandEncoder
	framePass    *wgpu.RenderPassEncoder
	frameSurface *wgpu.Texture
	frameView    *wgpu.TextureView

	// Shadow pass state for depth-only passes rendered before the main pass
	shadowEncoder *wgpu.CommandEncoder
	shadowPass    *wgpu.RenderPassEncoder
}

var _ Driver = &wgpuDriver{}

// NewWGPU creates the WebGPU driver for the given presentation surface and
// configures it at the given size. Instance, adapter, and device acquisition
// failures are unrecoverable and panic.
//
// Parameters:
//   - surfaceDescriptor: the platform surface to present to
//   - width: the initial surface width in pixels
//   - height: the initial surface height in pixels
//   - opts: a variadic list of WGPUDriverOption functions to configure the driver
//
// Returns:
//   - Driver: the configured WebGPU driver
func NewWGPU(surfaceDescriptor *wgpu.SurfaceDescriptor, width, height int, opts ...WGPUDriverOption) Driver {
	runtime.LockOSThread()
	d := &wgpuDriver{
		instance:     wgpu.CreateInstance(nil),
		presentMode:  wgpu.PresentModeImmediate,
		sampleCount:  MSAA4x,
		buffers:      make(map[BufferHandle]*wgpu.Buffer),
		textures:     make(map[TextureHandle]*wgpuTexture),
		framebuffers: make(map[FramebufferHandle]*wgpuFramebuffer),
		programs:     make(map[ProgramHandle]*wgpuProgram),
		pipelines:    make(map[PipelineHandle]*wgpu.RenderPipeline),
		bindGroups:   make(map[BindGroupHandle]*wgpu.BindGroup),
	}
	cfg := &wgpuDriverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.sampleCount != 0 {
		d.sampleCount = cfg.sampleCount
	}
	if cfg.vsync {
		d.presentMode = wgpu.PresentModeFifo
	}

	d.surface = d.instance.CreateSurface(surfaceDescriptor)

	a, err := d.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		ForceFallbackAdapter: cfg.forceFallbackAdapter,
		CompatibleSurface:    d.surface,
	})
	if err != nil {
		panic(err)
	}
	d.adapter = a

	// Start from the WebGPU spec default limits and raise MaxBindGroups to 8
	// so the lit fragment shader's bind groups are allowed.
	limits := wgpu.DefaultLimits()
	limits.MaxBindGroups = 8

	dev, err := a.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "Main Device",
		RequiredLimits: &wgpu.RequiredLimits{
			Limits: limits,
		},
	})
	if err != nil {
		panic(err)
	}
	d.device = dev
	d.queue = dev.GetQueue()

	d.Resize(width, height)

	return d
}

func (d *wgpuDriver) handle() uint32 {
	d.nextHandle++
	return d.nextHandle
}

func (d *wgpuDriver) CreateBuffer(desc BufferDescriptor) (BufferHandle, error) {
	size := desc.Size
	if uint64(len(desc.Data)) > size {
		size = uint64(len(desc.Data))
	}

	var usage wgpu.BufferUsage
	switch desc.Kind {
	case BufferVertex:
		usage = wgpu.BufferUsageVertex | wgpu.BufferUsageCopyDst
	case BufferIndex:
		usage = wgpu.BufferUsageIndex | wgpu.BufferUsageCopyDst
	case BufferUniform:
		usage = wgpu.BufferUsageUniform | wgpu.BufferUsageCopyDst
	case BufferStorage:
		usage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst
	}

	buf, err := d.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label:            desc.Label,
		Size:             size,
		Usage:            usage,
		MappedAtCreation: false,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create buffer %q: %w", desc.Label, err)
	}
	if len(desc.Data) > 0 {
		d.queue.WriteBuffer(buf, 0, desc.Data)
	}

	h := BufferHandle(d.handle())
	d.buffers[h] = buf
	return h, nil
}

func (d *wgpuDriver) WriteBuffer(h BufferHandle, offset uint64, data []byte) {
	buf := d.buffers[h]
	if buf == nil {
		return
	}
	d.queue.WriteBuffer(buf, offset, data)
}

func (d *wgpuDriver) DestroyBuffer(h BufferHandle) {
	buf := d.buffers[h]
	if buf == nil {
		return
	}
	buf.Release()
	delete(d.buffers, h)
}

func (d *wgpuDriver) CreateTexture(desc TextureDescriptor) (TextureHandle, error) {
	format := wgpu.TextureFormatRGBA8Unorm
	if desc.SRGB {
		format = wgpu.TextureFormatRGBA8UnormSrgb
	}

	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:     desc.Label,
		Usage:     wgpu.TextureUsageTextureBinding | wgpu.TextureUsageCopyDst,
		Dimension: wgpu.TextureDimension2D,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
		Format:        format,
		MipLevelCount: 1,
		SampleCount:   1,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create texture %q: %w", desc.Label, err)
	}

	d.queue.WriteTexture(
		&wgpu.ImageCopyTexture{
			Texture:  tex,
			MipLevel: 0,
			Origin:   wgpu.Origin3D{},
			Aspect:   wgpu.TextureAspectAll,
		},
		desc.Pixels,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  desc.Width * 4,
			RowsPerImage: desc.Height,
		},
		&wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: 1,
		},
	)

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return 0, fmt.Errorf("failed to create texture view %q: %w", desc.Label, err)
	}

	filter := wgpu.FilterModeLinear
	mipFilter := wgpu.MipmapFilterModeLinear
	if desc.Filter == FilterNearest {
		filter = wgpu.FilterModeNearest
		mipFilter = wgpu.MipmapFilterModeNearest
	}
	address := wgpu.AddressModeRepeat
	if desc.Wrap == WrapClampToEdge {
		address = wgpu.AddressModeClampToEdge
	}

	samp, err := d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         desc.Label,
		AddressModeU:  address,
		AddressModeV:  address,
		AddressModeW:  address,
		MagFilter:     filter,
		MinFilter:     filter,
		MipmapFilter:  mipFilter,
		LodMinClamp:   0.0,
		LodMaxClamp:   32.0,
		MaxAnisotropy: 1,
	})
	if err != nil {
		view.Release()
		tex.Release()
		return 0, fmt.Errorf("failed to create sampler %q: %w", desc.Label, err)
	}

	h := TextureHandle(d.handle())
	d.textures[h] = &wgpuTexture{texture: tex, view: view, sampler: samp}
	return h, nil
}

func (d *wgpuDriver) DestroyTexture(h TextureHandle) {
	t := d.textures[h]
	if t == nil {
		return
	}
	t.sampler.Release()
	t.view.Release()
	t.texture.Release()
	delete(d.textures, h)
}

func (d *wgpuDriver) CreateFramebuffer(desc FramebufferDescriptor) (FramebufferHandle, error) {
	layers := desc.Layers
	if layers == 0 {
		layers = 1
	}
	tex, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: desc.Label,
		Size: wgpu.Extent3D{
			Width:              desc.Width,
			Height:             desc.Height,
			DepthOrArrayLayers: layers,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth32Float,
		Usage:         wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create framebuffer depth texture %q: %w", desc.Label, err)
	}

	view, err := tex.CreateView(&wgpu.TextureViewDescriptor{
		Label:           desc.Label + " array view",
		Format:          wgpu.TextureFormatDepth32Float,
		Dimension:       wgpu.TextureViewDimension2DArray,
		MipLevelCount:   1,
		ArrayLayerCount: layers,
	})
	if err != nil {
		tex.Release()
		return 0, fmt.Errorf("failed to create framebuffer depth view %q: %w", desc.Label, err)
	}

	layerViews := make([]*wgpu.TextureView, layers)
	for i := uint32(0); i < layers; i++ {
		lv, lerr := tex.CreateView(&wgpu.TextureViewDescriptor{
			Label:           fmt.Sprintf("%s layer %d", desc.Label, i),
			Format:          wgpu.TextureFormatDepth32Float,
			Dimension:       wgpu.TextureViewDimension2D,
			MipLevelCount:   1,
			BaseArrayLayer:  i,
			ArrayLayerCount: 1,
		})
		if lerr != nil {
			for _, v := range layerViews[:i] {
				v.Release()
			}
			view.Release()
			tex.Release()
			return 0, fmt.Errorf("failed to create framebuffer layer view %q: %w", desc.Label, lerr)
		}
		layerViews[i] = lv
	}

	samp, err := d.device.CreateSampler(&wgpu.SamplerDescriptor{
		Label:         desc.Label,
		AddressModeU:  wgpu.AddressModeClampToEdge,
		AddressModeV:  wgpu.AddressModeClampToEdge,
		AddressModeW:  wgpu.AddressModeClampToEdge,
		MagFilter:     wgpu.FilterModeLinear,
		MinFilter:     wgpu.FilterModeLinear,
		MipmapFilter:  wgpu.MipmapFilterModeNearest,
		Compare:       wgpu.CompareFunctionLess,
		MaxAnisotropy: 1,
	})
	if err != nil {
		for _, v := range layerViews {
			v.Release()
		}
		view.Release()
		tex.Release()
		return 0, fmt.Errorf("failed to create framebuffer comparison sampler %q: %w", desc.Label, err)
	}

	h := FramebufferHandle(d.handle())
	d.framebuffers[h] = &wgpuFramebuffer{texture: tex, view: view, layerViews: layerViews, sampler: samp}
	return h, nil
}

func (d *wgpuDriver) DestroyFramebuffer(h FramebufferHandle) {
	fb := d.framebuffers[h]
	if fb == nil {
		return
	}
	fb.sampler.Release()
	for _, v := range fb.layerViews {
		v.Release()
	}
	fb.view.Release()
	fb.texture.Release()
	delete(d.framebuffers, h)
}

func (d *wgpuDriver) CreateProgram(desc ProgramDescriptor) (ProgramHandle, error) {
	module, err := d.device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label: desc.Label,
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{
			Code: desc.Source,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to compile program %q: %w", desc.Label, err)
	}

	maxGroup := -1
	for g := range desc.BindGroupLayouts {
		if g > maxGroup {
			maxGroup = g
		}
	}
	groupLayouts := make(map[int]*wgpu.BindGroupLayout, len(desc.BindGroupLayouts))
	orderedLayouts := make([]*wgpu.BindGroupLayout, maxGroup+1)
	for g, layoutDesc := range desc.BindGroupLayouts {
		layout, layoutErr := d.device.CreateBindGroupLayout(&layoutDesc)
		if layoutErr != nil {
			module.Release()
			for _, l := range groupLayouts {
				l.Release()
			}
			return 0, fmt.Errorf("failed to create bind group layout for group %d: %w", g, layoutErr)
		}
		groupLayouts[g] = layout
		orderedLayouts[g] = layout
	}

	pipelineLayout, err := d.device.CreatePipelineLayout(&wgpu.PipelineLayoutDescriptor{
		Label:            desc.Label,
		BindGroupLayouts: orderedLayouts,
	})
	if err != nil {
		module.Release()
		for _, l := range groupLayouts {
			l.Release()
		}
		return 0, fmt.Errorf("failed to create pipeline layout for program %q: %w", desc.Label, err)
	}

	h := ProgramHandle(d.handle())
	d.programs[h] = &wgpuProgram{
		module:         module,
		vertexEntry:    desc.VertexEntry,
		fragmentEntry:  desc.FragmentEntry,
		groupLayouts:   groupLayouts,
		pipelineLayout: pipelineLayout,
		vertexLayouts:  desc.VertexLayouts,
	}
	return h, nil
}

func (d *wgpuDriver) DestroyProgram(h ProgramHandle) {
	p := d.programs[h]
	if p == nil {
		return
	}
	for _, ph := range p.pipelines {
		if rp := d.pipelines[ph]; rp != nil {
			rp.Release()
			delete(d.pipelines, ph)
		}
	}
	p.pipelineLayout.Release()
	for _, l := range p.groupLayouts {
		l.Release()
	}
	p.module.Release()
	delete(d.programs, h)
}

func (d *wgpuDriver) CreatePipeline(desc PipelineDescriptor) (PipelineHandle, error) {
	p := d.programs[desc.Program]
	if p == nil {
		return 0, fmt.Errorf("cannot create pipeline %q: unknown program", desc.Label)
	}

	cullMode := wgpu.CullModeNone
	switch desc.CullMode {
	case CullBack:
		cullMode = wgpu.CullModeBack
	case CullFront:
		cullMode = wgpu.CullModeFront
	}

	depthCompare := wgpu.CompareFunctionLess
	if desc.DepthLessEqual {
		depthCompare = wgpu.CompareFunctionLessEqual
	}
	if !desc.DepthTest {
		depthCompare = wgpu.CompareFunctionAlways
	}

	vertexEntry := p.vertexEntry
	if desc.VertexEntry != "" {
		vertexEntry = desc.VertexEntry
	}
	fragmentEntry := p.fragmentEntry
	if desc.FragmentEntry != "" {
		fragmentEntry = desc.FragmentEntry
	}

	var created *wgpu.RenderPipeline
	var err error
	if desc.DepthOnly {
		created, err = d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
			Label:  desc.Label,
			Layout: p.pipelineLayout,
			Vertex: wgpu.VertexState{
				Module:     p.module,
				EntryPoint: vertexEntry,
				Buffers:    p.vertexLayouts,
			},
			// No fragment stage and no color target in a depth-only pass
			Fragment: nil,
			Primitive: wgpu.PrimitiveState{
				Topology:  wgpu.PrimitiveTopologyTriangleList,
				FrontFace: wgpu.FrontFaceCCW,
				CullMode:  cullMode,
			},
			Multisample: wgpu.MultisampleState{
				Count: 1,
				Mask:  0xFFFFFFFF,
			},
			DepthStencil: &wgpu.DepthStencilState{
				Format:              wgpu.TextureFormatDepth32Float,
				DepthWriteEnabled:   true,
				DepthCompare:        wgpu.CompareFunctionLess,
				DepthBias:           desc.DepthBias,
				DepthBiasSlopeScale: desc.DepthBiasSlopeScale,
				StencilFront: wgpu.StencilFaceState{
					Compare: wgpu.CompareFunctionAlways,
				},
				StencilBack: wgpu.StencilFaceState{
					Compare: wgpu.CompareFunctionAlways,
				},
			},
		})
	} else {
		target := wgpu.ColorTargetState{
			Format:    *d.surfaceFormat,
			WriteMask: wgpu.ColorWriteMaskAll,
		}
		if desc.Blend {
			target.Blend = &wgpu.BlendState{
				Color: wgpu.BlendComponent{
					SrcFactor: wgpu.BlendFactorSrcAlpha,
					DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
					Operation: wgpu.BlendOperationAdd,
				},
				Alpha: wgpu.BlendComponent{
					SrcFactor: wgpu.BlendFactorOne,
					DstFactor: wgpu.BlendFactorOneMinusSrcAlpha,
					Operation: wgpu.BlendOperationAdd,
				},
			}
		}
		created, err = d.device.CreateRenderPipeline(&wgpu.RenderPipelineDescriptor{
			Label:  desc.Label,
			Layout: p.pipelineLayout,
			Vertex: wgpu.VertexState{
				Module:     p.module,
				EntryPoint: vertexEntry,
				Buffers:    p.vertexLayouts,
			},
			Fragment: &wgpu.FragmentState{
				Module:     p.module,
				EntryPoint: fragmentEntry,
				Targets:    []wgpu.ColorTargetState{target},
			},
			Primitive: wgpu.PrimitiveState{
				Topology:  wgpu.PrimitiveTopologyTriangleList,
				FrontFace: wgpu.FrontFaceCCW,
				CullMode:  cullMode,
			},
			Multisample: wgpu.MultisampleState{
				Count: uint32(d.sampleCount),
				Mask:  0xFFFFFFFF,
			},
			DepthStencil: &wgpu.DepthStencilState{
				Format:              wgpu.TextureFormatDepth24Plus,
				DepthWriteEnabled:   desc.DepthWrite,
				DepthCompare:        depthCompare,
				DepthBias:           desc.DepthBias,
				DepthBiasSlopeScale: desc.DepthBiasSlopeScale,
				StencilFront: wgpu.StencilFaceState{
					Compare: wgpu.CompareFunctionAlways,
				},
				StencilBack: wgpu.StencilFaceState{
					Compare: wgpu.CompareFunctionAlways,
				},
			},
		})
	}
	if err != nil {
		return 0, fmt.Errorf("failed to create pipeline %q: %w", desc.Label, err)
	}

	h := PipelineHandle(d.handle())
	d.pipelines[h] = created
	p.pipelines = append(p.pipelines, h)
	return h, nil
}

func (d *wgpuDriver) CreateBindGroup(desc BindGroupDescriptor) (BindGroupHandle, error) {
	p := d.programs[desc.Program]
	if p == nil {
		return 0, fmt.Errorf("cannot create bind group %q: unknown program", desc.Label)
	}
	layout := p.groupLayouts[desc.Group]
	if layout == nil {
		return 0, fmt.Errorf("cannot create bind group %q: program has no layout for group %d", desc.Label, desc.Group)
	}

	entries := make([]wgpu.BindGroupEntry, len(desc.Entries))
	for i, e := range desc.Entries {
		switch e.Kind {
		case BindingBuffer:
			buf := d.buffers[e.Buffer]
			if buf == nil {
				return 0, fmt.Errorf("bind group %q binding %d references an unknown buffer", desc.Label, e.Binding)
			}
			entries[i] = wgpu.BindGroupEntry{
				Binding: e.Binding,
				Buffer:  buf,
				Offset:  0,
				Size:    wgpu.WholeSize,
			}
		case BindingTexture:
			t := d.textures[e.Texture]
			if t == nil {
				return 0, fmt.Errorf("bind group %q binding %d references an unknown texture", desc.Label, e.Binding)
			}
			entries[i] = wgpu.BindGroupEntry{
				Binding:     e.Binding,
				TextureView: t.view,
			}
		case BindingSampler:
			t := d.textures[e.Texture]
			if t == nil {
				return 0, fmt.Errorf("bind group %q binding %d references an unknown texture", desc.Label, e.Binding)
			}
			entries[i] = wgpu.BindGroupEntry{
				Binding: e.Binding,
				Sampler: t.sampler,
			}
		case BindingShadowMap:
			fb := d.framebuffers[e.Target]
			if fb == nil {
				return 0, fmt.Errorf("bind group %q binding %d references an unknown framebuffer", desc.Label, e.Binding)
			}
			entries[i] = wgpu.BindGroupEntry{
				Binding:     e.Binding,
				TextureView: fb.view,
			}
		case BindingShadowSampler:
			fb := d.framebuffers[e.Target]
			if fb == nil {
				return 0, fmt.Errorf("bind group %q binding %d references an unknown framebuffer", desc.Label, e.Binding)
			}
			entries[i] = wgpu.BindGroupEntry{
				Binding: e.Binding,
				Sampler: fb.sampler,
			}
		}
	}

	bg, err := d.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:   desc.Label,
		Layout:  layout,
		Entries: entries,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create bind group %q: %w", desc.Label, err)
	}

	h := BindGroupHandle(d.handle())
	d.bindGroups[h] = bg
	return h, nil
}

func (d *wgpuDriver) DestroyBindGroup(h BindGroupHandle) {
	bg := d.bindGroups[h]
	if bg == nil {
		return
	}
	bg.Release()
	delete(d.bindGroups, h)
}

func (d *wgpuDriver) Resize(width, height int) {
	d.width = width
	d.height = height

	capabilities := d.surface.GetCapabilities(d.adapter)
	d.surfaceFormat = &capabilities.Formats[0]

	d.surface.Configure(d.adapter, d.device, &wgpu.SurfaceConfiguration{
		Usage:       wgpu.TextureUsageRenderAttachment,
		Format:      *d.surfaceFormat,
		Width:       uint32(width),
		Height:      uint32(height),
		PresentMode: d.presentMode,
		AlphaMode:   capabilities.AlphaModes[0],
	})

	count := uint32(d.sampleCount)
	msaaEnabled := count > 1

	if d.msaaTextureView != nil {
		d.msaaTextureView.Release()
		d.msaaTexture.Release()
		d.msaaTextureView = nil
		d.msaaTexture = nil
	}
	if d.depthTextureView != nil {
		d.depthTextureView.Release()
		d.depthTexture.Release()
	}

	if msaaEnabled {
		// The render pass draws into the MSAA texture; the resolved result is
		// written to the swapchain view as the ResolveTarget.
		msaaTexture, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
			Label: "MSAA Texture",
			Size: wgpu.Extent3D{
				Width:              uint32(width),
				Height:             uint32(height),
				DepthOrArrayLayers: 1,
			},
			MipLevelCount: 1,
			SampleCount:   count,
			Dimension:     wgpu.TextureDimension2D,
			Format:        *d.surfaceFormat,
			Usage:         wgpu.TextureUsageRenderAttachment,
		})
		if err != nil {
			panic(err)
		}
		d.msaaTexture = msaaTexture
		d.msaaTextureView, err = msaaTexture.CreateView(nil)
		if err != nil {
			panic(err)
		}
	}

	// Depth texture sample count must match the color attachment.
	depthTexture, err := d.device.CreateTexture(&wgpu.TextureDescriptor{
		Label: "Depth Texture",
		Size: wgpu.Extent3D{
			Width:              uint32(width),
			Height:             uint32(height),
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   count,
		Dimension:     wgpu.TextureDimension2D,
		Format:        wgpu.TextureFormatDepth24Plus,
		Usage:         wgpu.TextureUsageRenderAttachment,
	})
	if err != nil {
		panic(err)
	}
	d.depthTexture = depthTexture
	d.depthTextureView, err = depthTexture.CreateView(nil)
	if err != nil {
		panic(err)
	}

	// Cached render pass descriptor for the main target. When MSAA is enabled,
	// View is the MSAA texture and ResolveTarget is set per-frame to the
	// swapchain view. When disabled, View is set per-frame to the swapchain
	// view and ResolveTarget remains nil.
	storeOp := wgpu.StoreOpStore
	if msaaEnabled {
		storeOp = wgpu.StoreOpDiscard
	}
	d.renderPassDescriptor = &wgpu.RenderPassDescriptor{
		ColorAttachments: []wgpu.RenderPassColorAttachment{
			{
				View:          d.msaaTextureView,
				ResolveTarget: nil,
				LoadOp:        wgpu.LoadOpClear,
				StoreOp:       storeOp,
				ClearValue: wgpu.Color{
					R: 0.1, G: 0.1, B: 0.1, A: 1.0,
				},
			},
		},
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            d.depthTextureView,
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpDiscard,
			DepthClearValue: 1.0,
		},
	}
}

func (d *wgpuDriver) SetPresentMode(mode PresentMode) {
	switch mode {
	case PresentModeVSync:
		d.presentMode = wgpu.PresentModeFifo
	case PresentModeUncapped:
		fallthrough
	default:
		d.presentMode = wgpu.PresentModeImmediate
	}
}

func (d *wgpuDriver) BeginShadowPass(fb FramebufferHandle, layer int) error {
	target := d.framebuffers[fb]
	if target == nil {
		return fmt.Errorf("cannot begin shadow pass: unknown framebuffer")
	}
	if layer < 0 || layer >= len(target.layerViews) {
		return fmt.Errorf("cannot begin shadow pass: framebuffer has no layer %d", layer)
	}

	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		return err
	}

	pass := encoder.BeginRenderPass(&wgpu.RenderPassDescriptor{
		// No color attachments in a depth-only pass
		ColorAttachments: nil,
		DepthStencilAttachment: &wgpu.RenderPassDepthStencilAttachment{
			View:            target.layerViews[layer],
			DepthLoadOp:     wgpu.LoadOpClear,
			DepthStoreOp:    wgpu.StoreOpStore,
			DepthClearValue: 1.0,
		},
	})

	d.shadowEncoder = encoder
	d.shadowPass = pass
	return nil
}

func (d *wgpuDriver) EndShadowPass() {
	if d.shadowPass == nil {
		return
	}

	d.shadowPass.End()

	commandBuffer, err := d.shadowEncoder.Finish(nil)
	if err != nil {
		d.shadowEncoder.Release()
		d.shadowEncoder = nil
		d.shadowPass = nil
		return
	}

	d.queue.Submit(commandBuffer)
	commandBuffer.Release()
	d.shadowEncoder.Release()
	d.shadowEncoder = nil
	d.shadowPass = nil
}

func (d *wgpuDriver) BeginFrame(clear [4]float32) error {
	// If a previous frame's surface texture is still held, avoid acquiring
	// another one. This prevents wgpu-native validation errors like
	// "Surface image is already acquired" when frames overlap.
	if d.frameSurface != nil {
		return fmt.Errorf("previous frame surface not yet presented")
	}

	surfaceTexture, err := d.surface.GetCurrentTexture()
	if err != nil {
		return err
	}

	view, err := surfaceTexture.CreateView(nil)
	if err != nil {
		surfaceTexture.Release()
		return err
	}

	encoder, err := d.device.CreateCommandEncoder(nil)
	if err != nil {
		view.Release()
		surfaceTexture.Release()
		return err
	}

	d.renderPassDescriptor.ColorAttachments[0].ClearValue = wgpu.Color{
		R: float64(clear[0]),
		G: float64(clear[1]),
		B: float64(clear[2]),
		A: float64(clear[3]),
	}
	if d.sampleCount > 1 {
		d.renderPassDescriptor.ColorAttachments[0].ResolveTarget = view
	} else {
		d.renderPassDescriptor.ColorAttachments[0].View = view
	}
	pass := encoder.BeginRenderPass(d.renderPassDescriptor)

	d.frameEncoder = encoder
	d.framePass = pass
	d.frameSurface = surfaceTexture
	d.frameView = view

	return nil
}

func (d *wgpuDriver) Draw(call DrawCall) {
	pass := d.framePass
	if d.shadowPass != nil {
		pass = d.shadowPass
	}
	if pass == nil {
		return
	}

	pipeline := d.pipelines[call.Pipeline]
	vertex := d.buffers[call.Vertex]
	index := d.buffers[call.Index]
	if pipeline == nil || vertex == nil || index == nil {
		return
	}

	pass.SetPipeline(pipeline)
	for i, bgh := range call.BindGroups {
		if bgh == 0 {
			continue
		}
		if bg := d.bindGroups[bgh]; bg != nil {
			pass.SetBindGroup(uint32(i), bg, nil)
		}
	}
	pass.SetVertexBuffer(0, vertex, 0, wgpu.WholeSize)
	pass.SetIndexBuffer(index, wgpu.IndexFormatUint32, 0, wgpu.WholeSize)
	pass.DrawIndexed(call.IndexCount, call.InstanceCount, 0, 0, call.FirstInstance)
}

func (d *wgpuDriver) EndFrame() {
	if d.framePass == nil {
		return
	}

	d.framePass.End()

	commandBuffer, err := d.frameEncoder.Finish(nil)
	if err == nil {
		d.queue.Submit(commandBuffer)
		commandBuffer.Release()
	}
	d.frameEncoder.Release()
	d.frameEncoder = nil
	d.framePass = nil

	d.surface.Present()

	d.frameView.Release()
	d.frameView = nil
	d.frameSurface.Release()
	d.frameSurface = nil
}

func (d *wgpuDriver) Release() {
	for h := range d.bindGroups {
		d.DestroyBindGroup(h)
	}
	for h := range d.programs {
		d.DestroyProgram(h)
	}
	for h := range d.buffers {
		d.DestroyBuffer(h)
	}
	for h := range d.textures {
		d.DestroyTexture(h)
	}
	for h := range d.framebuffers {
		d.DestroyFramebuffer(h)
	}
	if d.msaaTextureView != nil {
		d.msaaTextureView.Release()
		d.msaaTexture.Release()
	}
	if d.depthTextureView != nil {
		d.depthTextureView.Release()
		d.depthTexture.Release()
	}
	if d.device != nil {
		d.device.Release()
	}
	if d.surface != nil {
		d.surface.Release()
	}
	if d.instance != nil {
		d.instance.Release()
	}
}
