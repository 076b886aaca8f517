package renderer

import "fmt"

// RendererBackendType identifies the GPU backend implementation used by the Renderer.
type RendererBackendType int

const (
	// BackendTypeGL selects the OpenGL 3.3 core backend. It draws into whatever GL context is
	// current on the calling thread, which is how it shares textures with a host compositor.
	BackendTypeGL RendererBackendType = iota
)

// Handle types returned by the backend. Zero is never a valid object, matching GL naming rules,
// and FramebufferID(0) is the default output framebuffer.
type (
	TextureID     uint32
	FramebufferID uint32
	BufferID      uint32
	ProgramID     uint32
	ShaderID      uint32
	VertexArrayID uint32
)

// DefaultFramebuffer is the window-system provided framebuffer that reaches the display.
const DefaultFramebuffer FramebufferID = 0

// BufferTarget selects which binding point a buffer is attached to.
type BufferTarget int

const (
	// BufferTargetArray holds vertex attribute data.
	BufferTargetArray BufferTarget = iota
	// BufferTargetElementArray holds index data.
	BufferTargetElementArray
)

// Capability is a fixed-function toggle managed with glEnable/glDisable.
type Capability int

const (
	CapabilityDepthTest Capability = iota
	CapabilityBlend
	CapabilityCullFace
)

func (c Capability) String() string {
	switch c {
	case CapabilityDepthTest:
		return "depth-test"
	case CapabilityBlend:
		return "blend"
	case CapabilityCullFace:
		return "cull-face"
	default:
		return fmt.Sprintf("Capability(%d)", int(c))
	}
}

// TextureFilter selects minification and magnification filtering.
type TextureFilter int

const (
	FilterLinear TextureFilter = iota
	FilterNearest
)

// TextureOptions configures a texture created by the backend. The zero value gives a
// linear-filtered RGBA8 texture clamped to its edges.
type TextureOptions struct {
	// Filter is applied to both minification and magnification.
	Filter TextureFilter
	// Repeat wraps texture coordinates instead of clamping them to the edge texels.
	Repeat bool
}

// FramebufferStatus is the value reported by glCheckFramebufferStatus.
type FramebufferStatus uint32

// The values are the GL enums so the GL backend can convert directly.
const (
	FramebufferComplete                    FramebufferStatus = 0x8CD5
	FramebufferIncompleteAttachment        FramebufferStatus = 0x8CD6
	FramebufferIncompleteMissingAttachment FramebufferStatus = 0x8CD7
	// FramebufferIncompleteDimensions only exists in GLES 2 but some desktop drivers still report it.
	FramebufferIncompleteDimensions  FramebufferStatus = 0x8CD9
	FramebufferIncompleteDrawBuffer  FramebufferStatus = 0x8CDB
	FramebufferIncompleteReadBuffer  FramebufferStatus = 0x8CDC
	FramebufferUnsupported           FramebufferStatus = 0x8CDD
	FramebufferIncompleteMultisample FramebufferStatus = 0x8D56
	FramebufferUndefined             FramebufferStatus = 0x8219
)

func (s FramebufferStatus) String() string {
	switch s {
	case FramebufferComplete:
		return "complete"
	case FramebufferIncompleteAttachment:
		return "incomplete attachment"
	case FramebufferIncompleteMissingAttachment:
		return "incomplete missing attachment"
	case FramebufferIncompleteDimensions:
		return "incomplete dimensions"
	case FramebufferIncompleteDrawBuffer:
		return "incomplete draw buffer"
	case FramebufferIncompleteReadBuffer:
		return "incomplete read buffer"
	case FramebufferUnsupported:
		return "unsupported"
	case FramebufferIncompleteMultisample:
		return "incomplete multisample"
	case FramebufferUndefined:
		return "undefined"
	default:
		return fmt.Sprintf("unknown status 0x%04X", uint32(s))
	}
}

// GLError is an error code reported by glGetError.
type GLError uint32

// The values are the GL enums.
const (
	GLNoError                     GLError = 0
	GLInvalidEnum                 GLError = 0x0500
	GLInvalidValue                GLError = 0x0501
	GLInvalidOperation            GLError = 0x0502
	GLOutOfMemory                 GLError = 0x0505
	GLInvalidFramebufferOperation GLError = 0x0506
)

func (e GLError) String() string {
	switch e {
	case GLNoError:
		return "no-error"
	case GLInvalidEnum:
		return "invalid-enum"
	case GLInvalidValue:
		return "invalid-value"
	case GLInvalidOperation:
		return "invalid-operation"
	case GLOutOfMemory:
		return "out-of-memory"
	case GLInvalidFramebufferOperation:
		return "invalid-framebuffer-operation"
	default:
		return fmt.Sprintf("gl-error-0x%04X", uint32(e))
	}
}

func (e GLError) Error() string {
	return "gl: " + e.String()
}

// StateSnapshot captures the GL state the pipeline touches so it can hand the context back
// to its caller unchanged.
type StateSnapshot struct {
	Program       ProgramID
	Framebuffer   FramebufferID
	VertexArray   VertexArrayID
	ArrayBuffer   BufferID
	Texture       TextureID
	ActiveTexture uint32
	Viewport      [4]int32
	DepthTest     bool
	Blend         bool
	CullFace      bool
}

// RendererBackend is the top-level backend interface for the Renderer.
// It embeds the concrete backend interface for the selected GPU API.
type RendererBackend interface {
	glRendererBackend
}
