package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-vr/common"
)

// renderTarget is the implementation of the RenderTarget interface.
type renderTarget struct {
	backend     RendererBackend
	framebuffer FramebufferID
	texture     TextureID
	size        common.Size
}

// RenderTarget is an offscreen framebuffer with a single RGBA8 color texture.
type RenderTarget interface {
	// Bind makes this render target the current drawing destination and sets the viewport
	// to cover the whole texture.
	Bind()

	// Clear binds the render target and clears it to the given color.
	//
	// Parameters:
	//   - color: the RGBA clear color
	Clear(color [4]float32)

	// Framebuffer returns the framebuffer handle.
	//
	// Returns:
	//   - FramebufferID: the framebuffer
	Framebuffer() FramebufferID

	// Texture returns the color attachment.
	//
	// Returns:
	//   - TextureID: the texture holding the rendered content
	Texture() TextureID

	// Size returns the dimensions of the color attachment.
	//
	// Returns:
	//   - common.Size: the texture size in pixels
	Size() common.Size

	// Destroy releases the framebuffer and its texture. Safe to call more than once.
	Destroy()
}

var _ RenderTarget = &renderTarget{}

func newRenderTarget(backend RendererBackend, size common.Size, opts TextureOptions) (*renderTarget, error) {
	if size.Empty() {
		return nil, fmt.Errorf("invalid render target size: %s", size)
	}

	rt := &renderTarget{backend: backend, size: size}
	rt.texture = backend.CreateTexture(size, opts, nil)
	rt.framebuffer = backend.CreateFramebuffer(rt.texture)

	status := backend.CheckFramebuffer(rt.framebuffer)
	backend.BindFramebuffer(DefaultFramebuffer)
	if status != FramebufferComplete {
		rt.Destroy()
		return nil, fmt.Errorf("%w: %s (%s)", ErrFramebufferIncomplete, status, size)
	}
	return rt, nil
}

func (rt *renderTarget) Bind() {
	rt.backend.BindFramebuffer(rt.framebuffer)
	rt.backend.Viewport(0, 0, rt.size.Width, rt.size.Height)
}

func (rt *renderTarget) Clear(color [4]float32) {
	rt.Bind()
	rt.backend.Clear(color[0], color[1], color[2], color[3])
}

func (rt *renderTarget) Framebuffer() FramebufferID {
	return rt.framebuffer
}

func (rt *renderTarget) Texture() TextureID {
	return rt.texture
}

func (rt *renderTarget) Size() common.Size {
	return rt.size
}

func (rt *renderTarget) Destroy() {
	if rt.framebuffer != 0 {
		rt.backend.DeleteFramebuffer(rt.framebuffer)
		rt.framebuffer = 0
	}
	if rt.texture != 0 {
		rt.backend.DeleteTexture(rt.texture)
		rt.texture = 0
	}
}
