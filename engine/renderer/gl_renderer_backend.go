package renderer

import (
	"fmt"
	"strings"

	"github.com/Carmen-Shannon/oxy-vr/common"
	"github.com/Carmen-Shannon/oxy-vr/engine/renderer/shader"
	"github.com/go-gl/gl/v3.3-core/gl"
)

// glRendererBackendImpl issues OpenGL 3.3 core calls against the context current on the
// calling thread. It owns no context of its own.
type glRendererBackendImpl struct {
	initialized bool
}

// glRendererBackend is the narrow set of GL operations the renderer needs. Handles are typed
// so that a texture can never be passed where a framebuffer is expected, and strings are Go
// strings so implementations never deal with C memory.
type glRendererBackend interface {
	// Init loads the GL function pointers for the current context.
	// Must be called on the thread that owns the context, after the context is made current.
	//
	// Returns:
	//   - error: an error if the GL entry points cannot be loaded
	Init() error

	// CreateShader creates an empty shader object for the given stage.
	//
	// Parameters:
	//   - stage: the shader stage
	//
	// Returns:
	//   - ShaderID: the new shader object
	CreateShader(stage shader.ShaderType) ShaderID

	// CompileShader uploads source to a shader object and compiles it.
	//
	// Parameters:
	//   - id: the shader object
	//   - source: the GLSL source
	//
	// Returns:
	//   - bool: true if compilation succeeded
	//   - string: the compiler info log, empty when the driver reported none
	CompileShader(id ShaderID, source string) (bool, string)

	// DeleteShader releases a shader object.
	//
	// Parameters:
	//   - id: the shader object
	DeleteShader(id ShaderID)

	// CreateProgram creates an empty program object.
	//
	// Returns:
	//   - ProgramID: the new program object
	CreateProgram() ProgramID

	// AttachShader attaches a compiled shader object to a program.
	//
	// Parameters:
	//   - program: the program object
	//   - id: the shader object
	AttachShader(program ProgramID, id ShaderID)

	// LinkProgram links a program from its attached shaders.
	//
	// Parameters:
	//   - program: the program object
	//
	// Returns:
	//   - bool: true if linking succeeded
	//   - string: the linker info log, empty when the driver reported none
	LinkProgram(program ProgramID) (bool, string)

	// DeleteProgram releases a program object.
	//
	// Parameters:
	//   - program: the program object
	DeleteProgram(program ProgramID)

	// UseProgram makes a program current. ProgramID(0) unbinds.
	//
	// Parameters:
	//   - program: the program object
	UseProgram(program ProgramID)

	// AttribLocation looks up a vertex attribute location.
	//
	// Parameters:
	//   - program: a linked program
	//   - name: the attribute name
	//
	// Returns:
	//   - int32: the location, or -1 if the attribute is not active
	AttribLocation(program ProgramID, name string) int32

	// UniformLocation looks up a uniform location.
	//
	// Parameters:
	//   - program: a linked program
	//   - name: the uniform name
	//
	// Returns:
	//   - int32: the location, or -1 if the uniform is not active
	UniformLocation(program ProgramID, name string) int32

	// SetUniformMatrix4 uploads a column-major 4x4 matrix to the current program.
	SetUniformMatrix4(location int32, m [16]float32)

	// SetUniform2f uploads a vec2 to the current program.
	SetUniform2f(location int32, v [2]float32)

	// SetUniform1i uploads an int, bool or sampler unit to the current program.
	SetUniform1i(location int32, v int32)

	// SetUniform1f uploads a float to the current program.
	SetUniform1f(location int32, v float32)

	// CreateTexture allocates an RGBA8 2D texture.
	//
	// Parameters:
	//   - size: the texture dimensions
	//   - opts: sampling options
	//   - pixels: initial RGBA contents, or nil to leave the texture uninitialized
	//
	// Returns:
	//   - TextureID: the new texture
	CreateTexture(size common.Size, opts TextureOptions, pixels []byte) TextureID

	// BindTexture binds a 2D texture to a texture unit and leaves that unit active.
	//
	// Parameters:
	//   - unit: the zero-based texture unit
	//   - id: the texture, or 0 to unbind
	BindTexture(unit uint32, id TextureID)

	// DeleteTexture releases a texture.
	DeleteTexture(id TextureID)

	// CreateFramebuffer creates a framebuffer with the texture as its color attachment and
	// leaves it bound.
	//
	// Parameters:
	//   - texture: the color attachment
	//
	// Returns:
	//   - FramebufferID: the new framebuffer
	CreateFramebuffer(texture TextureID) FramebufferID

	// CheckFramebuffer binds a framebuffer and reports its completeness.
	//
	// Parameters:
	//   - id: the framebuffer
	//
	// Returns:
	//   - FramebufferStatus: FramebufferComplete or the reason it is incomplete
	CheckFramebuffer(id FramebufferID) FramebufferStatus

	// BindFramebuffer binds a framebuffer for drawing. DefaultFramebuffer targets the display.
	BindFramebuffer(id FramebufferID)

	// DeleteFramebuffer releases a framebuffer. The attached texture is not released.
	DeleteFramebuffer(id FramebufferID)

	// CreateBuffer allocates a buffer with static contents and leaves it bound to target.
	//
	// Parameters:
	//   - target: the binding point
	//   - data: the buffer contents
	//
	// Returns:
	//   - BufferID: the new buffer
	CreateBuffer(target BufferTarget, data []byte) BufferID

	// BindBuffer binds a buffer to a binding point. BufferID(0) unbinds.
	BindBuffer(target BufferTarget, id BufferID)

	// DeleteBuffer releases a buffer.
	DeleteBuffer(id BufferID)

	// CreateVertexArray creates a vertex array object.
	CreateVertexArray() VertexArrayID

	// BindVertexArray binds a vertex array object. VertexArrayID(0) unbinds.
	BindVertexArray(id VertexArrayID)

	// DeleteVertexArray releases a vertex array object.
	DeleteVertexArray(id VertexArrayID)

	// VertexAttribPointer points an attribute at tightly packed float32 data in the buffer
	// currently bound to BufferTargetArray and enables it. A negative location is ignored.
	//
	// Parameters:
	//   - location: the attribute location
	//   - components: floats per vertex
	VertexAttribPointer(location int32, components int32)

	// DisableVertexAttrib disables an attribute array. A negative location is ignored.
	DisableVertexAttrib(location int32)

	// Viewport sets the viewport rectangle.
	Viewport(x, y, width, height int32)

	// Clear clears the color buffer of the bound framebuffer to the given color.
	Clear(r, g, b, a float32)

	// SetCapability enables or disables a fixed-function capability.
	SetCapability(c Capability, enabled bool)

	// DrawTriangles draws non-indexed triangles from the enabled attribute arrays.
	//
	// Parameters:
	//   - first: the first vertex
	//   - count: the number of vertices
	DrawTriangles(first, count int32)

	// DrawIndexedTriangles draws triangles using uint16 indices from the bound element buffer.
	//
	// Parameters:
	//   - count: the number of indices
	DrawIndexedTriangles(count int32)

	// Error pops the oldest recorded GL error.
	//
	// Returns:
	//   - GLError: the error, or GLNoError when none is pending
	Error() GLError

	// SaveState captures the bindings and capabilities this renderer modifies.
	//
	// Returns:
	//   - StateSnapshot: the captured state
	SaveState() StateSnapshot

	// RestoreState re-applies a snapshot taken with SaveState.
	//
	// Parameters:
	//   - s: the snapshot to restore
	RestoreState(s StateSnapshot)
}

var _ RendererBackend = &glRendererBackendImpl{}

// newGLRendererBackend returns a GL backend. Init must be called once a context is current.
func newGLRendererBackend() RendererBackend {
	return &glRendererBackendImpl{}
}

var glCapabilities = map[Capability]uint32{
	CapabilityDepthTest: gl.DEPTH_TEST,
	CapabilityBlend:     gl.BLEND,
	CapabilityCullFace:  gl.CULL_FACE,
}

var glBufferTargets = map[BufferTarget]uint32{
	BufferTargetArray:        gl.ARRAY_BUFFER,
	BufferTargetElementArray: gl.ELEMENT_ARRAY_BUFFER,
}

func (b *glRendererBackendImpl) Init() error {
	if b.initialized {
		return nil
	}
	if err := gl.Init(); err != nil {
		return fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	b.initialized = true
	logger.Info("OpenGL initialized", "version", gl.GoStr(gl.GetString(gl.VERSION)), "renderer", gl.GoStr(gl.GetString(gl.RENDERER)))
	return nil
}

func (b *glRendererBackendImpl) CreateShader(stage shader.ShaderType) ShaderID {
	switch stage {
	case shader.ShaderTypeFragment:
		return ShaderID(gl.CreateShader(gl.FRAGMENT_SHADER))
	default:
		return ShaderID(gl.CreateShader(gl.VERTEX_SHADER))
	}
}

func (b *glRendererBackendImpl) CompileShader(id ShaderID, source string) (bool, string) {
	csources, free := gl.Strs(source + "\x00")
	gl.ShaderSource(uint32(id), 1, csources, nil)
	free()
	gl.CompileShader(uint32(id))

	var status int32
	gl.GetShaderiv(uint32(id), gl.COMPILE_STATUS, &status)
	var logLength int32
	gl.GetShaderiv(uint32(id), gl.INFO_LOG_LENGTH, &logLength)
	var infoLog string
	if logLength > 0 {
		buf := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(uint32(id), logLength, nil, gl.Str(buf))
		infoLog = strings.TrimRight(buf, "\x00")
	}
	return status != gl.FALSE, infoLog
}

func (b *glRendererBackendImpl) DeleteShader(id ShaderID) {
	gl.DeleteShader(uint32(id))
}

func (b *glRendererBackendImpl) CreateProgram() ProgramID {
	return ProgramID(gl.CreateProgram())
}

func (b *glRendererBackendImpl) AttachShader(program ProgramID, id ShaderID) {
	gl.AttachShader(uint32(program), uint32(id))
}

func (b *glRendererBackendImpl) LinkProgram(program ProgramID) (bool, string) {
	gl.LinkProgram(uint32(program))

	var status int32
	gl.GetProgramiv(uint32(program), gl.LINK_STATUS, &status)
	var logLength int32
	gl.GetProgramiv(uint32(program), gl.INFO_LOG_LENGTH, &logLength)
	var infoLog string
	if logLength > 0 {
		buf := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(uint32(program), logLength, nil, gl.Str(buf))
		infoLog = strings.TrimRight(buf, "\x00")
	}
	return status != gl.FALSE, infoLog
}

func (b *glRendererBackendImpl) DeleteProgram(program ProgramID) {
	gl.DeleteProgram(uint32(program))
}

func (b *glRendererBackendImpl) UseProgram(program ProgramID) {
	gl.UseProgram(uint32(program))
}

func (b *glRendererBackendImpl) AttribLocation(program ProgramID, name string) int32 {
	return gl.GetAttribLocation(uint32(program), gl.Str(name+"\x00"))
}

func (b *glRendererBackendImpl) UniformLocation(program ProgramID, name string) int32 {
	return gl.GetUniformLocation(uint32(program), gl.Str(name+"\x00"))
}

func (b *glRendererBackendImpl) SetUniformMatrix4(location int32, m [16]float32) {
	gl.UniformMatrix4fv(location, 1, false, &m[0])
}

func (b *glRendererBackendImpl) SetUniform2f(location int32, v [2]float32) {
	gl.Uniform2fv(location, 1, &v[0])
}

func (b *glRendererBackendImpl) SetUniform1i(location int32, v int32) {
	gl.Uniform1i(location, v)
}

func (b *glRendererBackendImpl) SetUniform1f(location int32, v float32) {
	gl.Uniform1f(location, v)
}

func (b *glRendererBackendImpl) CreateTexture(size common.Size, opts TextureOptions, pixels []byte) TextureID {
	var id uint32
	gl.GenTextures(1, &id)
	gl.BindTexture(gl.TEXTURE_2D, id)

	filter := int32(gl.LINEAR)
	if opts.Filter == FilterNearest {
		filter = gl.NEAREST
	}
	wrap := int32(gl.CLAMP_TO_EDGE)
	if opts.Repeat {
		wrap = gl.REPEAT
	}
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, filter)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, wrap)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, wrap)

	var ptr = gl.Ptr(nil)
	if len(pixels) > 0 {
		ptr = gl.Ptr(pixels)
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA8, size.Width, size.Height, 0, gl.RGBA, gl.UNSIGNED_BYTE, ptr)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return TextureID(id)
}

func (b *glRendererBackendImpl) BindTexture(unit uint32, id TextureID) {
	gl.ActiveTexture(gl.TEXTURE0 + unit)
	gl.BindTexture(gl.TEXTURE_2D, uint32(id))
}

func (b *glRendererBackendImpl) DeleteTexture(id TextureID) {
	t := uint32(id)
	gl.DeleteTextures(1, &t)
}

func (b *glRendererBackendImpl) CreateFramebuffer(texture TextureID) FramebufferID {
	var id uint32
	gl.GenFramebuffers(1, &id)
	gl.BindFramebuffer(gl.FRAMEBUFFER, id)
	gl.FramebufferTexture2D(gl.FRAMEBUFFER, gl.COLOR_ATTACHMENT0, gl.TEXTURE_2D, uint32(texture), 0)
	return FramebufferID(id)
}

func (b *glRendererBackendImpl) CheckFramebuffer(id FramebufferID) FramebufferStatus {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(id))
	return FramebufferStatus(gl.CheckFramebufferStatus(gl.FRAMEBUFFER))
}

func (b *glRendererBackendImpl) BindFramebuffer(id FramebufferID) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(id))
}

func (b *glRendererBackendImpl) DeleteFramebuffer(id FramebufferID) {
	f := uint32(id)
	gl.DeleteFramebuffers(1, &f)
}

func (b *glRendererBackendImpl) CreateBuffer(target BufferTarget, data []byte) BufferID {
	var id uint32
	gl.GenBuffers(1, &id)
	gl.BindBuffer(glBufferTargets[target], id)
	gl.BufferData(glBufferTargets[target], len(data), gl.Ptr(data), gl.STATIC_DRAW)
	return BufferID(id)
}

func (b *glRendererBackendImpl) BindBuffer(target BufferTarget, id BufferID) {
	gl.BindBuffer(glBufferTargets[target], uint32(id))
}

func (b *glRendererBackendImpl) DeleteBuffer(id BufferID) {
	buf := uint32(id)
	gl.DeleteBuffers(1, &buf)
}

func (b *glRendererBackendImpl) CreateVertexArray() VertexArrayID {
	var id uint32
	gl.GenVertexArrays(1, &id)
	return VertexArrayID(id)
}

func (b *glRendererBackendImpl) BindVertexArray(id VertexArrayID) {
	gl.BindVertexArray(uint32(id))
}

func (b *glRendererBackendImpl) DeleteVertexArray(id VertexArrayID) {
	v := uint32(id)
	gl.DeleteVertexArrays(1, &v)
}

func (b *glRendererBackendImpl) VertexAttribPointer(location int32, components int32) {
	if location < 0 {
		return
	}
	gl.VertexAttribPointer(uint32(location), components, gl.FLOAT, false, components*4, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(uint32(location))
}

func (b *glRendererBackendImpl) DisableVertexAttrib(location int32) {
	if location < 0 {
		return
	}
	gl.DisableVertexAttribArray(uint32(location))
}

func (b *glRendererBackendImpl) Viewport(x, y, width, height int32) {
	gl.Viewport(x, y, width, height)
}

func (b *glRendererBackendImpl) Clear(r, g, bl, a float32) {
	gl.ClearColor(r, g, bl, a)
	gl.Clear(gl.COLOR_BUFFER_BIT | gl.DEPTH_BUFFER_BIT)
}

func (b *glRendererBackendImpl) SetCapability(c Capability, enabled bool) {
	if enabled {
		gl.Enable(glCapabilities[c])
		return
	}
	gl.Disable(glCapabilities[c])
}

func (b *glRendererBackendImpl) DrawTriangles(first, count int32) {
	gl.DrawArrays(gl.TRIANGLES, first, count)
}

func (b *glRendererBackendImpl) DrawIndexedTriangles(count int32) {
	gl.DrawElements(gl.TRIANGLES, count, gl.UNSIGNED_SHORT, gl.PtrOffset(0))
}

func (b *glRendererBackendImpl) Error() GLError {
	return GLError(gl.GetError())
}

func (b *glRendererBackendImpl) SaveState() StateSnapshot {
	var s StateSnapshot
	var v int32
	gl.GetIntegerv(gl.CURRENT_PROGRAM, &v)
	s.Program = ProgramID(v)
	gl.GetIntegerv(gl.FRAMEBUFFER_BINDING, &v)
	s.Framebuffer = FramebufferID(v)
	gl.GetIntegerv(gl.VERTEX_ARRAY_BINDING, &v)
	s.VertexArray = VertexArrayID(v)
	gl.GetIntegerv(gl.ARRAY_BUFFER_BINDING, &v)
	s.ArrayBuffer = BufferID(v)
	gl.GetIntegerv(gl.ACTIVE_TEXTURE, &v)
	s.ActiveTexture = uint32(v) - gl.TEXTURE0
	gl.GetIntegerv(gl.TEXTURE_BINDING_2D, &v)
	s.Texture = TextureID(v)
	gl.GetIntegerv(gl.VIEWPORT, &s.Viewport[0])
	s.DepthTest = gl.IsEnabled(gl.DEPTH_TEST)
	s.Blend = gl.IsEnabled(gl.BLEND)
	s.CullFace = gl.IsEnabled(gl.CULL_FACE)
	return s
}

func (b *glRendererBackendImpl) RestoreState(s StateSnapshot) {
	b.SetCapability(CapabilityDepthTest, s.DepthTest)
	b.SetCapability(CapabilityBlend, s.Blend)
	b.SetCapability(CapabilityCullFace, s.CullFace)
	gl.Viewport(s.Viewport[0], s.Viewport[1], s.Viewport[2], s.Viewport[3])
	b.BindTexture(s.ActiveTexture, s.Texture)
	gl.BindVertexArray(uint32(s.VertexArray))
	gl.BindBuffer(gl.ARRAY_BUFFER, uint32(s.ArrayBuffer))
	gl.BindFramebuffer(gl.FRAMEBUFFER, uint32(s.Framebuffer))
	gl.UseProgram(uint32(s.Program))
}
