package gpu

import (
	_ "embed"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sprite/backend"
)

//go:embed shaders/sprite.wgsl
var spriteShaderSource string

// spriteVertexStride is the byte stride per vertex:
//
//	position (vec2<f32>) = 8 bytes (location 0)
//	uv       (vec2<f32>) = 8 bytes (location 1)
const spriteVertexStride = 16

// quadBytes is the vertex data of one sprite quad.
const quadBytes = 4 * spriteVertexStride

// spriteUniformSize is the size of the Uniforms struct in sprite.wgsl.
const spriteUniformSize = 128

// uniformAlignment is the minimum offset alignment of uniform bindings.
const uniformAlignment = 256

// renderFormat is the format of every render target.
const renderFormat = gputypes.TextureFormatRGBA8Unorm

// spritePipeline owns the shader, layouts, samplers and render pipeline.
type spritePipeline struct {
	device hal.Device
	spirv  bool

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
	samplers   [2]hal.Sampler // indexed by backend.Filter
}

func newSpritePipeline(device hal.Device, spirv bool) *spritePipeline {
	return &spritePipeline{device: device, spirv: spirv}
}

// ensure creates the pipeline if it does not exist yet.
func (p *spritePipeline) ensure() error {
	if p.pipeline != nil {
		return nil
	}
	if err := p.create(); err != nil {
		p.destroy()
		return err
	}
	return nil
}

func (p *spritePipeline) sampler(f backend.Filter) hal.Sampler {
	if f == backend.FilterLinear {
		return p.samplers[1]
	}
	return p.samplers[0]
}

func (p *spritePipeline) shaderSource() (hal.ShaderSource, error) {
	if !p.spirv {
		return hal.ShaderSource{WGSL: spriteShaderSource}, nil
	}
	code, err := compileSPIRV(spriteShaderSource)
	if err != nil {
		return hal.ShaderSource{}, err
	}
	return hal.ShaderSource{SPIRV: code}, nil
}

func (p *spritePipeline) create() error { //nolint:funlen // pipeline setup is one sequence of descriptor builds
	if spriteShaderSource == "" {
		return fmt.Errorf("sprite shader source is empty")
	}
	src, err := p.shaderSource()
	if err != nil {
		return err
	}

	shader, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "sprite_shader",
		Source: src,
	})
	if err != nil {
		return fmt.Errorf("compile sprite shader: %w", err)
	}
	p.shader = shader

	bindLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "sprite_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create sprite bind layout: %w", err)
	}
	p.bindLayout = bindLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "sprite_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create sprite pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	for i, filter := range []gputypes.FilterMode{gputypes.FilterModeNearest, gputypes.FilterModeLinear} {
		s, err := p.device.CreateSampler(&hal.SamplerDescriptor{
			Label:        fmt.Sprintf("sprite_sampler_%s", backend.Filter(i)),
			AddressModeU: gputypes.AddressModeClampToEdge,
			AddressModeV: gputypes.AddressModeClampToEdge,
			AddressModeW: gputypes.AddressModeClampToEdge,
			MagFilter:    filter,
			MinFilter:    filter,
			MipmapFilter: gputypes.FilterModeNearest,
		})
		if err != nil {
			return fmt.Errorf("create sprite sampler: %w", err)
		}
		p.samplers[i] = s
	}

	blend := gputypes.BlendStateAlpha()
	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "sprite_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
			Buffers:    spriteVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    renderFormat,
					Blend:     &blend,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleStrip,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create sprite pipeline: %w", err)
	}
	p.pipeline = pipeline
	return nil
}

// destroy releases all pipeline resources in reverse creation order.
func (p *spritePipeline) destroy() {
	if p.device == nil {
		return
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	for i, s := range p.samplers {
		if s != nil {
			p.device.DestroySampler(s)
			p.samplers[i] = nil
		}
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		p.device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}

func spriteVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: spriteVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x2, Offset: 0, ShaderLocation: 0}, // position
				{Format: gputypes.VertexFormatFloat32x2, Offset: 8, ShaderLocation: 1}, // uv
			},
		},
	}
}

// compileSPIRV compiles WGSL to little-endian SPIR-V words.
func compileSPIRV(source string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(source)
	if err != nil {
		return nil, fmt.Errorf("compile sprite shader to SPIR-V: %w", err)
	}
	code := make([]uint32, len(spirvBytes)/4)
	for i := range code {
		code[i] = binary.LittleEndian.Uint32(spirvBytes[i*4:])
	}
	return code, nil
}

// writeQuad writes the four vertices of cmd into buf.
func writeQuad(buf []byte, verts *[4]backend.Vertex) {
	for i, v := range verts {
		off := i * spriteVertexStride
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(v.X))
		binary.LittleEndian.PutUint32(buf[off+4:], math.Float32bits(v.Y))
		binary.LittleEndian.PutUint32(buf[off+8:], math.Float32bits(v.U))
		binary.LittleEndian.PutUint32(buf[off+12:], math.Float32bits(v.V))
	}
}

// writeUniforms encodes the Uniforms struct of sprite.wgsl for one draw
// into a target of the given size.
func writeUniforms(buf []byte, cmd *backend.DrawCommand, width, height int) {
	var f [spriteUniformSize / 4]float32
	m := cmd.Transform.Floats()
	copy(f[0:16], m[:])
	f[16] = float32(width) / 2
	f[17] = float32(height) / 2

	bp := &cmd.Blend
	copy(f[20:23], bp.Color[:])
	f[23] = bp.Alpha
	copy(f[24:27], bp.Tint[:])
	f[27] = bp.Saturation
	f[28] = float32(bp.Mode)
	f[29] = bp.Light
	if cmd.Opaque {
		f[30] = 1
	}
	for i, v := range f {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
}
