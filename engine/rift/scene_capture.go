package rift

import (
	"github.com/Carmen-Shannon/oxy-vr/common"
	"github.com/Carmen-Shannon/oxy-vr/engine/renderer"
)

// defaultCaptureSize is the resolution of the scene capture when the host gives none.
var defaultCaptureSize = common.Size{Width: 1920, Height: 1080}

// captureQuadZ places the scene quad just in front of the origin before the modelview moves it.
const captureQuadZ float32 = -0.5

// captureFraming selects which part of the captured frame an eye samples.
type captureFraming int

const (
	framingLeftHalf captureFraming = iota
	framingRightHalf
	framingFull
)

// sceneCapture is the offscreen target the host renders its finished frame into, plus the
// static quad that pass 1 draws it with.
type sceneCapture struct {
	backend renderer.RendererBackend
	target  renderer.RenderTarget
	quad    renderer.BufferID
	uvs     [3]renderer.BufferID
}

func newSceneCapture(r renderer.Renderer, size common.Size) (*sceneCapture, error) {
	target, err := r.CreateRenderTarget(size, renderer.TextureOptions{Filter: renderer.FilterLinear})
	if err != nil {
		return nil, err
	}

	c := &sceneCapture{backend: r.Backend(), target: target}
	c.quad = r.CreateVertexBuffer(captureQuadPositions())
	for _, f := range []captureFraming{framingLeftHalf, framingRightHalf, framingFull} {
		c.uvs[f] = r.CreateVertexBuffer(captureQuadUVs(f))
	}
	logger.Debug("scene capture created", "size", size, "framebuffer", target.Framebuffer(), "texture", target.Texture())
	return c, nil
}

// captureQuadPositions returns two triangles covering [-1,1] in x and y.
func captureQuadPositions() []float32 {
	z := captureQuadZ
	return []float32{
		-1, -1, z,
		1, -1, z,
		-1, 1, z,
		1, -1, z,
		1, 1, z,
		-1, 1, z,
	}
}

// captureQuadUVs returns the texture coordinates matching captureQuadPositions, squeezed into
// the half of the capture the framing selects.
func captureQuadUVs(f captureFraming) []float32 {
	uvs := []float32{
		0, 0,
		1, 0,
		0, 1,
		1, 0,
		1, 1,
		0, 1,
	}
	if f == framingFull {
		return uvs
	}
	var offset float32
	if f == framingRightHalf {
		offset = 0.5
	}
	for i := 0; i < len(uvs); i += 2 {
		uvs[i] = offset + uvs[i]*0.5
	}
	return uvs
}

// QuadBuffer is the vec3 position buffer of the scene quad.
func (c *sceneCapture) QuadBuffer() renderer.BufferID {
	return c.quad
}

// UVBuffer selects the quad's texture coordinates for an eye. In side-by-side mode each eye
// gets its own half of the capture, otherwise both eyes see the whole frame.
func (c *sceneCapture) UVBuffer(sideBySide bool, eye common.Eye) renderer.BufferID {
	if !sideBySide {
		return c.uvs[framingFull]
	}
	if eye == common.EyeRight {
		return c.uvs[framingRightHalf]
	}
	return c.uvs[framingLeftHalf]
}

func (c *sceneCapture) Target() renderer.RenderTarget {
	return c.target
}

func (c *sceneCapture) Destroy() {
	if c.quad != 0 {
		c.backend.DeleteBuffer(c.quad)
		c.quad = 0
	}
	for i, id := range c.uvs {
		if id != 0 {
			c.backend.DeleteBuffer(id)
			c.uvs[i] = 0
		}
	}
	c.target.Destroy()
}
