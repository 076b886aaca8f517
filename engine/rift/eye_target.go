package rift

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-vr/common"
	"github.com/Carmen-Shannon/oxy-vr/engine/hmd"
	"github.com/Carmen-Shannon/oxy-vr/engine/renderer"
	"github.com/Carmen-Shannon/oxy-vr/engine/renderer/pipeline"
)

// eyeDebugColors fill each eye target once at creation so an eye that never receives a
// pass 1 draw is easy to spot.
var eyeDebugColors = [2][4]float32{
	common.EyeLeft:  {0, 1, 0, 1},
	common.EyeRight: {1, 0, 0, 1},
}

// meshChannelAttribs names the distortion attribute fed by each UV channel.
// TexCoord0 carries green, which is also the channel shared by meshes without chromatic data.
var meshChannelAttribs = []struct {
	name    string
	channel int
}{
	{"TexCoord0", 1},
	{"TexCoordR", 0},
	{"TexCoordG", 1},
	{"TexCoordB", 2},
}

// eyeTarget is the offscreen view of one eye and the distortion mesh that warps it to the display.
type eyeTarget struct {
	eye     common.Eye
	backend renderer.RendererBackend
	target  renderer.RenderTarget

	uvScale  [2]float32
	uvOffset [2]float32

	positions  renderer.BufferID
	indices    renderer.BufferID
	indexCount int32
	uvs        [3]renderer.BufferID
}

func newEyeTarget(r renderer.Renderer, eye common.Eye, h hmd.HMD) (*eyeTarget, error) {
	mesh := h.DistortionMesh(eye)
	if mesh.VertexCount() == 0 || len(mesh.Indices) == 0 {
		return nil, fmt.Errorf("%s eye has an empty distortion mesh", eye)
	}

	size := h.EyeTextureSize(eye)
	target, err := r.CreateRenderTarget(size, renderer.TextureOptions{Filter: renderer.FilterLinear})
	if err != nil {
		return nil, fmt.Errorf("%s eye target: %w", eye, err)
	}
	target.Clear(eyeDebugColors[eye])

	e := &eyeTarget{
		eye:        eye,
		backend:    r.Backend(),
		target:     target,
		positions:  r.CreateVertexBuffer(mesh.Positions),
		indices:    r.CreateIndexBuffer(mesh.Indices),
		indexCount: int32(len(mesh.Indices)),
	}
	e.uvScale, e.uvOffset = h.EyeUVScaleOffset(eye)

	if mesh.PerChannel() {
		for c := range e.uvs {
			e.uvs[c] = r.CreateVertexBuffer(mesh.UVs[c])
		}
	} else {
		shared := r.CreateVertexBuffer(mesh.ChannelUVs(1))
		e.uvs = [3]renderer.BufferID{shared, shared, shared}
	}

	logger.Debug("eye target created",
		"eye", eye,
		"size", size,
		"vertices", mesh.VertexCount(),
		"indices", e.indexCount,
		"per_channel", mesh.PerChannel(),
	)
	return e, nil
}

func (e *eyeTarget) Texture() renderer.TextureID {
	return e.target.Texture()
}

func (e *eyeTarget) Framebuffer() renderer.FramebufferID {
	return e.target.Framebuffer()
}

func (e *eyeTarget) Size() common.Size {
	return e.target.Size()
}

// bindMesh points the distortion program's attributes at the mesh buffers and binds the
// index buffer for DrawIndexedTriangles.
func (e *eyeTarget) bindMesh(p pipeline.Pipeline) {
	e.backend.BindBuffer(renderer.BufferTargetArray, e.positions)
	e.backend.VertexAttribPointer(p.Location("Position"), 2)
	for _, a := range meshChannelAttribs {
		e.backend.BindBuffer(renderer.BufferTargetArray, e.uvs[a.channel])
		e.backend.VertexAttribPointer(p.Location(a.name), 2)
	}
	e.backend.BindBuffer(renderer.BufferTargetElementArray, e.indices)
}

func (e *eyeTarget) unbindMesh(p pipeline.Pipeline) {
	e.backend.DisableVertexAttrib(p.Location("Position"))
	for _, a := range meshChannelAttribs {
		e.backend.DisableVertexAttrib(p.Location(a.name))
	}
}

func (e *eyeTarget) Destroy() {
	released := make(map[renderer.BufferID]bool)
	for _, id := range append([]renderer.BufferID{e.positions, e.indices}, e.uvs[:]...) {
		if id == 0 || released[id] {
			continue
		}
		e.backend.DeleteBuffer(id)
		released[id] = true
	}
	e.positions, e.indices, e.uvs = 0, 0, [3]renderer.BufferID{}
	e.target.Destroy()
}
