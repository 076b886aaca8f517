// Package renderertest provides a RendererBackend that records calls instead of issuing them
// to a GPU, so passes built on the renderer can be tested without a GL context.
package renderertest

import (
	"strings"
	"sync"

	"github.com/Carmen-Shannon/oxy-vr/common"
	"github.com/Carmen-Shannon/oxy-vr/engine/renderer"
	"github.com/Carmen-Shannon/oxy-vr/engine/renderer/shader"
)

// AttribBinding is the array buffer and component count an attribute was pointed at.
type AttribBinding struct {
	Buffer     renderer.BufferID
	Components int32
}

// DrawCall is the state captured when a draw was issued. Attribute and uniform locations are
// translated back to the names the program resolved them for.
type DrawCall struct {
	Program       renderer.ProgramID
	Framebuffer   renderer.FramebufferID
	Viewport      [4]int32
	Texture       renderer.TextureID
	ElementBuffer renderer.BufferID
	Indexed       bool
	First         int32
	Count         int32
	Attribs       map[string]AttribBinding
	Uniforms      map[string]any
	DepthTest     bool
	Blend         bool
	CullFace      bool
}

// ClearCall is a recorded clear of the bound framebuffer.
type ClearCall struct {
	Framebuffer renderer.FramebufferID
	Color       [4]float32
}

// TextureCall is a recorded texture allocation.
type TextureCall struct {
	ID      renderer.TextureID
	Size    common.Size
	Options renderer.TextureOptions
}

// Recorder is a RendererBackend that keeps every object in memory.
// The exported scripting fields must be set before the recorder is used.
type Recorder struct {
	// FailCompile makes CompileShader fail for any source containing this text.
	FailCompile string
	// FailLink makes every LinkProgram fail.
	FailLink bool
	// MissingLocations lists attribute or uniform names that resolve to -1.
	MissingLocations map[string]bool
	// FramebufferStatus overrides the status reported for a framebuffer. Nil reports complete.
	FramebufferStatus func(id renderer.FramebufferID) renderer.FramebufferStatus
	// PendingErrors is drained one entry per Error call.
	PendingErrors []renderer.GLError

	mu sync.Mutex

	nextID   uint32
	live     map[string]map[uint32]bool
	locNames map[renderer.ProgramID]map[int32]string
	locIDs   map[renderer.ProgramID]map[string]int32
	uniforms map[renderer.ProgramID]map[int32]any
	buffers  map[renderer.BufferID][]byte

	state         renderer.StateSnapshot
	elementBuffer renderer.BufferID
	textureUnits  map[uint32]renderer.TextureID
	attribs       map[int32]AttribBinding

	Draws      []DrawCall
	Clears     []ClearCall
	Textures   []TextureCall
	Restored   []renderer.StateSnapshot
	InitCalled bool
}

var _ renderer.RendererBackend = &Recorder{}

// NewRecorder returns an empty recorder with no scripted failures.
func NewRecorder() *Recorder {
	return &Recorder{
		MissingLocations: make(map[string]bool),
		live:             make(map[string]map[uint32]bool),
		locNames:         make(map[renderer.ProgramID]map[int32]string),
		locIDs:           make(map[renderer.ProgramID]map[string]int32),
		uniforms:         make(map[renderer.ProgramID]map[int32]any),
		buffers:          make(map[renderer.BufferID][]byte),
		textureUnits:     make(map[uint32]renderer.TextureID),
		attribs:          make(map[int32]AttribBinding),
	}
}

func (r *Recorder) create(kind string) uint32 {
	r.nextID++
	if r.live[kind] == nil {
		r.live[kind] = make(map[uint32]bool)
	}
	r.live[kind][r.nextID] = true
	return r.nextID
}

func (r *Recorder) release(kind string, id uint32) {
	delete(r.live[kind], id)
}

// Live returns the number of objects of a kind that were created and not deleted.
// Kinds are "shader", "program", "texture", "framebuffer", "buffer" and "vertexarray".
func (r *Recorder) Live(kind string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live[kind])
}

// State returns the currently bound state.
func (r *Recorder) State() renderer.StateSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// SetState overwrites the bound state, standing in for whatever the host left bound.
func (r *Recorder) SetState(s renderer.StateSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
	r.textureUnits[s.ActiveTexture] = s.Texture
}

// BufferData returns the contents uploaded to a buffer.
func (r *Recorder) BufferData(id renderer.BufferID) []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.buffers[id]
}

// Reset forgets recorded draws, clears and restores but keeps every live object.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Draws = nil
	r.Clears = nil
	r.Restored = nil
}

func (r *Recorder) Init() error {
	r.InitCalled = true
	return nil
}

func (r *Recorder) CreateShader(stage shader.ShaderType) renderer.ShaderID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return renderer.ShaderID(r.create("shader"))
}

func (r *Recorder) CompileShader(id renderer.ShaderID, source string) (bool, string) {
	if r.FailCompile != "" && strings.Contains(source, r.FailCompile) {
		return false, "0:1(1): error: syntax error"
	}
	return true, ""
}

func (r *Recorder) DeleteShader(id renderer.ShaderID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.release("shader", uint32(id))
}

func (r *Recorder) CreateProgram() renderer.ProgramID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := renderer.ProgramID(r.create("program"))
	r.locNames[id] = make(map[int32]string)
	r.locIDs[id] = make(map[string]int32)
	r.uniforms[id] = make(map[int32]any)
	return id
}

func (r *Recorder) AttachShader(program renderer.ProgramID, id renderer.ShaderID) {}

func (r *Recorder) LinkProgram(program renderer.ProgramID) (bool, string) {
	if r.FailLink {
		return false, "error: linking failed"
	}
	return true, ""
}

func (r *Recorder) DeleteProgram(program renderer.ProgramID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.release("program", uint32(program))
}

func (r *Recorder) UseProgram(program renderer.ProgramID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Program = program
}

func (r *Recorder) location(program renderer.ProgramID, name string) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.MissingLocations[name] {
		return -1
	}
	ids := r.locIDs[program]
	if ids == nil {
		return -1
	}
	if loc, ok := ids[name]; ok {
		return loc
	}
	loc := int32(len(ids))
	ids[name] = loc
	r.locNames[program][loc] = name
	return loc
}

func (r *Recorder) AttribLocation(program renderer.ProgramID, name string) int32 {
	return r.location(program, name)
}

func (r *Recorder) UniformLocation(program renderer.ProgramID, name string) int32 {
	return r.location(program, name)
}

func (r *Recorder) setUniform(location int32, v any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if location < 0 {
		return
	}
	if u := r.uniforms[r.state.Program]; u != nil {
		u[location] = v
	}
}

func (r *Recorder) SetUniformMatrix4(location int32, m [16]float32) { r.setUniform(location, m) }
func (r *Recorder) SetUniform2f(location int32, v [2]float32) { r.setUniform(location, v) }
func (r *Recorder) SetUniform1i(location int32, v int32) { r.setUniform(location, v) }
func (r *Recorder) SetUniform1f(location int32, v float32) { r.setUniform(location, v) }

func (r *Recorder) CreateTexture(size common.Size, opts renderer.TextureOptions, pixels []byte) renderer.TextureID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := renderer.TextureID(r.create("texture"))
	r.Textures = append(r.Textures, TextureCall{ID: id, Size: size, Options: opts})
	return id
}

func (r *Recorder) BindTexture(unit uint32, id renderer.TextureID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.ActiveTexture = unit
	r.state.Texture = id
	r.textureUnits[unit] = id
}

func (r *Recorder) DeleteTexture(id renderer.TextureID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.release("texture", uint32(id))
}

func (r *Recorder) CreateFramebuffer(texture renderer.TextureID) renderer.FramebufferID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := renderer.FramebufferID(r.create("framebuffer"))
	r.state.Framebuffer = id
	return id
}

func (r *Recorder) CheckFramebuffer(id renderer.FramebufferID) renderer.FramebufferStatus {
	r.mu.Lock()
	r.state.Framebuffer = id
	r.mu.Unlock()
	if r.FramebufferStatus != nil {
		return r.FramebufferStatus(id)
	}
	return renderer.FramebufferComplete
}

func (r *Recorder) BindFramebuffer(id renderer.FramebufferID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Framebuffer = id
}

func (r *Recorder) DeleteFramebuffer(id renderer.FramebufferID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.release("framebuffer", uint32(id))
}

func (r *Recorder) CreateBuffer(target renderer.BufferTarget, data []byte) renderer.BufferID {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := renderer.BufferID(r.create("buffer"))
	r.buffers[id] = append([]byte(nil), data...)
	r.bind(target, id)
	return id
}

func (r *Recorder) bind(target renderer.BufferTarget, id renderer.BufferID) {
	if target == renderer.BufferTargetElementArray {
		r.elementBuffer = id
		return
	}
	r.state.ArrayBuffer = id
}

func (r *Recorder) BindBuffer(target renderer.BufferTarget, id renderer.BufferID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bind(target, id)
}

func (r *Recorder) DeleteBuffer(id renderer.BufferID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.release("buffer", uint32(id))
	delete(r.buffers, id)
}

func (r *Recorder) CreateVertexArray() renderer.VertexArrayID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return renderer.VertexArrayID(r.create("vertexarray"))
}

func (r *Recorder) BindVertexArray(id renderer.VertexArrayID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.VertexArray = id
}

func (r *Recorder) DeleteVertexArray(id renderer.VertexArrayID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.release("vertexarray", uint32(id))
}

func (r *Recorder) VertexAttribPointer(location int32, components int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if location < 0 {
		return
	}
	r.attribs[location] = AttribBinding{Buffer: r.state.ArrayBuffer, Components: components}
}

func (r *Recorder) DisableVertexAttrib(location int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.attribs, location)
}

func (r *Recorder) Viewport(x, y, width, height int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state.Viewport = [4]int32{x, y, width, height}
}

func (r *Recorder) Clear(cr, cg, cb, ca float32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Clears = append(r.Clears, ClearCall{Framebuffer: r.state.Framebuffer, Color: [4]float32{cr, cg, cb, ca}})
}

func (r *Recorder) SetCapability(c renderer.Capability, enabled bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch c {
	case renderer.CapabilityDepthTest:
		r.state.DepthTest = enabled
	case renderer.CapabilityBlend:
		r.state.Blend = enabled
	case renderer.CapabilityCullFace:
		r.state.CullFace = enabled
	}
}

func (r *Recorder) record(indexed bool, first, count int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := r.locNames[r.state.Program]
	d := DrawCall{
		Program:       r.state.Program,
		Framebuffer:   r.state.Framebuffer,
		Viewport:      r.state.Viewport,
		Texture:       r.textureUnits[0],
		ElementBuffer: r.elementBuffer,
		Indexed:       indexed,
		First:         first,
		Count:         count,
		Attribs:       make(map[string]AttribBinding),
		Uniforms:      make(map[string]any),
		DepthTest:     r.state.DepthTest,
		Blend:         r.state.Blend,
		CullFace:      r.state.CullFace,
	}
	for loc, b := range r.attribs {
		if name, ok := names[loc]; ok {
			d.Attribs[name] = b
		}
	}
	for loc, v := range r.uniforms[r.state.Program] {
		if name, ok := names[loc]; ok {
			d.Uniforms[name] = v
		}
	}
	r.Draws = append(r.Draws, d)
}

func (r *Recorder) DrawTriangles(first, count int32) {
	r.record(false, first, count)
}

func (r *Recorder) DrawIndexedTriangles(count int32) {
	r.record(true, 0, count)
}

func (r *Recorder) Error() renderer.GLError {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.PendingErrors) == 0 {
		return renderer.GLNoError
	}
	e := r.PendingErrors[0]
	r.PendingErrors = r.PendingErrors[1:]
	return e
}

func (r *Recorder) SaveState() renderer.StateSnapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Recorder) RestoreState(s renderer.StateSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
	r.textureUnits[s.ActiveTexture] = s.Texture
	r.Restored = append(r.Restored, s)
}
