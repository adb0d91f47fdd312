package gpu

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/sprite/backend"
)

// BeginFrame starts recording a frame into rt.
func (b *Backend) BeginFrame(h backend.RenderTarget) error {
	if !b.initialized {
		return backend.ErrNotInitialized
	}
	if b.lost {
		return backend.ErrDeviceLost
	}
	rt, ok := b.targets[h]
	if !ok {
		return fmt.Errorf("gpu: unknown render target %d", h)
	}
	b.current = rt
	b.clipOn = false
	b.draws = b.draws[:0]
	b.inFrame = true
	return nil
}

// SetClip restricts subsequent draws to r.
func (b *Backend) SetClip(r image.Rectangle, enabled bool) {
	b.clip = r
	b.clipOn = enabled
}

// Submit records one quad. Draws are encoded on EndFrame.
func (b *Backend) Submit(cmd *backend.DrawCommand) error {
	if !b.inFrame {
		return backend.ErrNotInFrame
	}
	if _, ok := b.textures[cmd.Texture]; !ok {
		return backend.ErrInvalidTexture
	}
	scissor := image.Rect(0, 0, b.current.width, b.current.height)
	if b.clipOn {
		scissor = scissor.Intersect(b.clip)
	}
	if scissor.Empty() {
		return nil
	}
	b.draws = append(b.draws, drawCall{cmd: *cmd, scissor: scissor})
	return nil
}

// frameResources are the per-frame buffers and bind groups.
type frameResources struct {
	vertBuf    hal.Buffer
	uniformBuf hal.Buffer
	bindGroups []hal.BindGroup
}

func (r *frameResources) destroy(device hal.Device) {
	for _, g := range r.bindGroups {
		device.DestroyBindGroup(g)
	}
	if r.uniformBuf != nil {
		device.DestroyBuffer(r.uniformBuf)
	}
	if r.vertBuf != nil {
		device.DestroyBuffer(r.vertBuf)
	}
}

func (b *Backend) buildFrameResources(rt *target) (*frameResources, error) {
	res := &frameResources{}
	n := len(b.draws)
	if n == 0 {
		return res, nil
	}

	verts := make([]byte, n*quadBytes)
	uniforms := make([]byte, n*uniformAlignment)
	for i := range b.draws {
		d := &b.draws[i]
		writeQuad(verts[i*quadBytes:], &d.cmd.Vertices)
		writeUniforms(uniforms[i*uniformAlignment:], &d.cmd, rt.width, rt.height)
	}

	var err error
	res.vertBuf, err = b.createAndUploadBuffer("sprite_verts", verts,
		gputypes.BufferUsageVertex|gputypes.BufferUsageCopyDst)
	if err != nil {
		return nil, err
	}
	res.uniformBuf, err = b.createAndUploadBuffer("sprite_uniforms", uniforms,
		gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst)
	if err != nil {
		res.destroy(b.device)
		return nil, err
	}

	res.bindGroups = make([]hal.BindGroup, 0, n)
	for i := range b.draws {
		cmd := &b.draws[i].cmd
		tex := b.textures[cmd.Texture]
		group, err := b.device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  "sprite_bind",
			Layout: b.pipe.bindLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{
					Buffer: res.uniformBuf.NativeHandle(), Offset: uint64(i * uniformAlignment), Size: spriteUniformSize, //nolint:gosec // non-negative
				}},
				{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: tex.view.NativeHandle()}},
				{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: b.pipe.sampler(cmd.Filter).NativeHandle()}},
			},
		})
		if err != nil {
			res.destroy(b.device)
			return nil, b.deviceError("create bind group", err)
		}
		res.bindGroups = append(res.bindGroups, group)
	}
	return res, nil
}

func (b *Backend) createAndUploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage,
	})
	if err != nil {
		return nil, b.deviceError("create "+label, err)
	}
	if err := b.queue.WriteBuffer(buf, 0, data); err != nil {
		b.device.DestroyBuffer(buf)
		return nil, b.deviceError("write "+label, err)
	}
	return buf, nil
}

// EndFrame encodes the recorded draws into one render pass, submits it
// and waits for the GPU.
func (b *Backend) EndFrame() error {
	if !b.inFrame {
		return backend.ErrNotInFrame
	}
	b.inFrame = false
	rt := b.current
	b.current = nil

	res, err := b.buildFrameResources(rt)
	if err != nil {
		return err
	}
	defer res.destroy(b.device)

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "sprite_encoder"})
	if err != nil {
		return b.deviceError("create command encoder", err)
	}
	if err := encoder.BeginEncoding("sprite_frame"); err != nil {
		return b.deviceError("begin encoding", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "sprite_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:       rt.view,
			LoadOp:     gputypes.LoadOpClear,
			StoreOp:    gputypes.StoreOpStore,
			ClearValue: gputypes.Color{R: 0, G: 0, B: 0, A: 0},
		}},
	})
	if len(b.draws) > 0 {
		rp.SetPipeline(b.pipe.pipeline)
		for i := range b.draws {
			s := b.draws[i].scissor
			rp.SetScissorRect(uint32(s.Min.X), uint32(s.Min.Y), uint32(s.Dx()), uint32(s.Dy())) //nolint:gosec // clipped to target
			rp.SetBindGroup(0, res.bindGroups[i], nil)
			rp.SetVertexBuffer(0, res.vertBuf, uint64(i*quadBytes)) //nolint:gosec // non-negative
			rp.Draw(4, 1, 0, 0)
		}
	}
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return b.deviceError("end encoding", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	if _, err := b.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return b.deviceError("submit", err)
	}
	if err := b.device.WaitIdle(); err != nil {
		return b.deviceError("wait", err)
	}
	b.finished = rt
	b.frames++
	return nil
}

// Present makes the last finished frame the one ReadPixels returns.
func (b *Backend) Present() error {
	if !b.initialized {
		return backend.ErrNotInitialized
	}
	if b.lost {
		return backend.ErrDeviceLost
	}
	if b.finished != nil {
		b.front = b.finished
		b.log.Debug("gpu: present", "frame", b.frames)
	}
	return nil
}

// ReadPixels copies the presented target back to the CPU.
func (b *Backend) ReadPixels() (*image.NRGBA, error) { //nolint:funlen // readback is a single copy-submit-map sequence
	if b.front == nil {
		return nil, fmt.Errorf("gpu: nothing presented yet")
	}
	rt := b.front
	w, h := uint32(rt.width), uint32(rt.height) //nolint:gosec // positive

	const copyPitchAlignment = 256
	bytesPerRow := w * 4
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	size := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "sprite_readback",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, b.deviceError("create readback buffer", err)
	}
	defer b.device.DestroyBuffer(staging)

	encoder, err := b.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "sprite_readback"})
	if err != nil {
		return nil, b.deviceError("create command encoder", err)
	}
	if err := encoder.BeginEncoding("sprite_readback"); err != nil {
		return nil, b.deviceError("begin encoding", err)
	}
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: rt.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(rt.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: rt.tex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: rt.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, b.deviceError("end encoding", err)
	}
	defer b.device.FreeCommandBuffer(cmdBuf)

	if _, err := b.queue.Submit([]hal.CommandBuffer{cmdBuf}); err != nil {
		return nil, b.deviceError("submit readback", err)
	}
	if err := b.device.WaitIdle(); err != nil {
		return nil, b.deviceError("wait readback", err)
	}

	mapping, err := b.device.MapBuffer(staging, 0, size)
	if err != nil {
		return nil, b.deviceError("map readback buffer", err)
	}
	defer func() { _ = b.device.UnmapBuffer(staging) }()
	data := unsafe.Slice((*byte)(mapping.Ptr), size)

	img := image.NewNRGBA(image.Rect(0, 0, rt.width, rt.height))
	for y := 0; y < rt.height; y++ {
		src := data[uint32(y)*alignedBytesPerRow:] //nolint:gosec // y < height
		copy(img.Pix[y*img.Stride:y*img.Stride+int(bytesPerRow)], src[:bytesPerRow])
	}
	return img, nil
}
