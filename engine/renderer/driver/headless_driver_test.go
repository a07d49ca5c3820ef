package driver

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProgram(t *testing.T, d *Headless) ProgramHandle {
	t.Helper()
	h, err := d.CreateProgram(ProgramDescriptor{
		Label:       "test program",
		Source:      "fn vs_main() {}",
		VertexEntry: "vs_main",
		BindGroupLayouts: map[int]wgpu.BindGroupLayoutDescriptor{
			0: {Entries: []wgpu.BindGroupLayoutEntry{{Binding: 0}}},
		},
	})
	require.NoError(t, err)
	return h
}

func TestHeadlessBufferMirroring(t *testing.T) {
	d := NewHeadless()

	h, err := d.CreateBuffer(BufferDescriptor{
		Label: "uniforms",
		Kind:  BufferUniform,
		Size:  16,
		Data:  []byte{1, 2, 3, 4},
	})
	require.NoError(t, err)

	data := d.BufferData(h)
	require.Len(t, data, 16)
	assert.Equal(t, []byte{1, 2, 3, 4}, data[:4])
	assert.Equal(t, 0, d.BufferWrites(h), "initial data is not a write")

	d.WriteBuffer(h, 8, []byte{9, 9})
	assert.Equal(t, 1, d.BufferWrites(h))
	assert.Equal(t, []byte{9, 9}, d.BufferData(h)[8:10])

	d.DestroyBuffer(h)
	assert.Nil(t, d.BufferData(h))
	assert.Equal(t, 0, d.LiveBuffers())
	assert.Equal(t, 1, d.CreatedBuffers())
}

func TestHeadlessBufferSizeFollowsData(t *testing.T) {
	d := NewHeadless()

	h, err := d.CreateBuffer(BufferDescriptor{Kind: BufferVertex, Size: 4, Data: make([]byte, 32)})
	require.NoError(t, err)
	assert.Len(t, d.BufferData(h), 32)
}

func TestHeadlessFramebufferFailureCarriesReason(t *testing.T) {
	d := NewHeadless()

	d.FailNextFramebuffer("device lost")
	_, err := d.CreateFramebuffer(FramebufferDescriptor{Label: "shadow map", Width: 1024, Height: 1024})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device lost")
	assert.Contains(t, err.Error(), "shadow map")

	h, err := d.CreateFramebuffer(FramebufferDescriptor{Label: "shadow map", Width: 1024, Height: 1024})
	require.NoError(t, err, "failure injection applies to one call only")
	assert.NotZero(t, h)
}

func TestHeadlessProgramOwnsPipelines(t *testing.T) {
	d := NewHeadless()
	prog := testProgram(t, d)

	opaque, err := d.CreatePipeline(PipelineDescriptor{Label: "opaque", Program: prog, DepthTest: true, DepthWrite: true})
	require.NoError(t, err)
	sky, err := d.CreatePipeline(PipelineDescriptor{Label: "sky", Program: prog, DepthTest: true})
	require.NoError(t, err)
	assert.Equal(t, 2, d.LivePipelines())

	desc, ok := d.PipelineDesc(sky)
	require.True(t, ok)
	assert.False(t, desc.DepthWrite)

	d.DestroyProgram(prog)
	assert.Equal(t, 0, d.LivePipelines())
	_, ok = d.PipelineDesc(opaque)
	assert.False(t, ok)
}

func TestHeadlessPipelineRequiresProgram(t *testing.T) {
	d := NewHeadless()

	_, err := d.CreatePipeline(PipelineDescriptor{Label: "orphan", Program: 42})
	assert.ErrorContains(t, err, "unknown program")
}

func TestHeadlessBindGroupValidation(t *testing.T) {
	d := NewHeadless()
	prog := testProgram(t, d)

	buf, err := d.CreateBuffer(BufferDescriptor{Kind: BufferUniform, Size: 64})
	require.NoError(t, err)

	t.Run("valid", func(t *testing.T) {
		h, err := d.CreateBindGroup(BindGroupDescriptor{
			Program: prog,
			Group:   0,
			Entries: []BindGroupEntry{{Binding: 0, Kind: BindingBuffer, Buffer: buf}},
		})
		require.NoError(t, err)
		assert.NotZero(t, h)
	})

	t.Run("unknown group", func(t *testing.T) {
		_, err := d.CreateBindGroup(BindGroupDescriptor{Program: prog, Group: 3})
		assert.ErrorContains(t, err, "no layout for group 3")
	})

	t.Run("unknown buffer", func(t *testing.T) {
		_, err := d.CreateBindGroup(BindGroupDescriptor{
			Program: prog,
			Group:   0,
			Entries: []BindGroupEntry{{Binding: 0, Kind: BindingBuffer, Buffer: 999}},
		})
		assert.ErrorContains(t, err, "unknown buffer")
	})

	t.Run("unknown texture", func(t *testing.T) {
		_, err := d.CreateBindGroup(BindGroupDescriptor{
			Program: prog,
			Group:   0,
			Entries: []BindGroupEntry{{Binding: 0, Kind: BindingTexture, Texture: 999}},
		})
		assert.ErrorContains(t, err, "unknown texture")
	})
}

func TestHeadlessFrameRecording(t *testing.T) {
	d := NewHeadless()
	prog := testProgram(t, d)
	pipe, err := d.CreatePipeline(PipelineDescriptor{Program: prog})
	require.NoError(t, err)
	vtx, _ := d.CreateBuffer(BufferDescriptor{Kind: BufferVertex, Size: 12})
	idx, _ := d.CreateBuffer(BufferDescriptor{Kind: BufferIndex, Size: 12})

	require.NoError(t, d.BeginFrame([4]float32{0, 0, 0, 1}))
	assert.Error(t, d.BeginFrame([4]float32{0, 0, 0, 1}), "nested frames are rejected")

	d.Draw(DrawCall{Pipeline: pipe, Vertex: vtx, Index: idx, IndexCount: 3, InstanceCount: 1})
	d.Draw(DrawCall{Pipeline: pipe, Vertex: vtx, Index: idx, IndexCount: 3, InstanceCount: 1, FirstInstance: 1})
	d.EndFrame()

	require.Len(t, d.Frames(), 1)
	require.Len(t, d.Frames()[0], 2)
	assert.Equal(t, uint32(1), d.Frames()[0][1].FirstInstance)

	// A draw outside any pass is dropped.
	d.Draw(DrawCall{Pipeline: pipe, Vertex: vtx, Index: idx})
	require.NoError(t, d.BeginFrame([4]float32{0, 0, 0, 1}))
	d.EndFrame()
	assert.Empty(t, d.Frames()[1])
}

func TestHeadlessShadowPassRouting(t *testing.T) {
	d := NewHeadless()
	prog := testProgram(t, d)
	pipe, err := d.CreatePipeline(PipelineDescriptor{Program: prog, DepthOnly: true})
	require.NoError(t, err)
	vtx, _ := d.CreateBuffer(BufferDescriptor{Kind: BufferVertex, Size: 12})
	idx, _ := d.CreateBuffer(BufferDescriptor{Kind: BufferIndex, Size: 12})
	fb, err := d.CreateFramebuffer(FramebufferDescriptor{Width: 512, Height: 512, Layers: 2})
	require.NoError(t, err)

	assert.Error(t, d.BeginShadowPass(999, 0), "unknown framebuffer is rejected")
	assert.Error(t, d.BeginShadowPass(fb, 2), "out-of-range layer is rejected")

	require.NoError(t, d.BeginShadowPass(fb, 1))
	d.Draw(DrawCall{Pipeline: pipe, Vertex: vtx, Index: idx, IndexCount: 3, InstanceCount: 1})
	d.EndShadowPass()

	require.NoError(t, d.BeginFrame([4]float32{0, 0, 0, 1}))
	d.Draw(DrawCall{Pipeline: pipe, Vertex: vtx, Index: idx, IndexCount: 3, InstanceCount: 1})
	d.EndFrame()

	require.Len(t, d.ShadowPassDraws(), 1)
	assert.Len(t, d.ShadowPassDraws()[0], 1)
	assert.Equal(t, []int{1}, d.ShadowPassLayers())
	require.Len(t, d.Frames(), 1)
	assert.Len(t, d.Frames()[0], 1)
}

func TestHeadlessProgramFailureCarriesReason(t *testing.T) {
	d := NewHeadless()

	d.FailNextProgram("parse error at line 3")
	_, err := d.CreateProgram(ProgramDescriptor{Label: "broken"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse error at line 3")
}
