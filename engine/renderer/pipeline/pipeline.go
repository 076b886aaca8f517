package pipeline

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-vr/engine/renderer/shader"
)

// pipeline is the implementation of the Pipeline interface.
// It holds the linked GL program handle, the resolved binding locations, and the fixed
// function state applied whenever the program is bound.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for caching and lookups
	pipelineKey string

	// vertexShader and fragmentShader are required to be set before registering a pipeline.
	vertexShader, fragmentShader shader.Shader

	// program is the linked program handle, 0 until the renderer registers the pipeline
	program uint32

	// locations maps every declared attribute and uniform name to its resolved location.
	// Unreferenced declarations the linker dropped map to -1.
	locations map[string]int32

	depthTestEnabled bool
	blendEnabled     bool
	cullFaceEnabled  bool
}

// Pipeline defines the interface for a linked GPU program: a vertex and fragment shader pair,
// its location table, and the fixed function state (depth test, blending, face culling) a
// draw pass applies when it binds the program.
type Pipeline interface {
	// PipelineKey returns the unique identifier of this pipeline.
	//
	// Returns:
	//   - string: the pipeline key
	PipelineKey() string

	// Shader returns the shader attached for the given stage.
	//
	// Parameters:
	//   - shaderType: the stage to look up
	//
	// Returns:
	//   - shader.Shader: the shader for that stage, or nil if none is attached
	Shader(shaderType shader.ShaderType) shader.Shader

	// Program returns the linked program handle, or 0 if the pipeline has not been registered.
	//
	// Returns:
	//   - uint32: the program handle
	Program() uint32

	// SetProgram stores the linked program handle. Called by the renderer after a successful link.
	//
	// Parameters:
	//   - program: the linked program handle, or 0 to mark the pipeline unregistered
	SetProgram(program uint32)

	// Location returns the resolved location of an attribute or uniform.
	//
	// Parameters:
	//   - name: the variable name as declared in GLSL
	//
	// Returns:
	//   - int32: the location, or -1 if the variable was dropped by the linker or never declared
	Location(name string) int32

	// MustLocation returns the resolved location of a variable that must be active.
	// Panics if the name was never resolved, which indicates a mismatch between the draw code
	// and the shader source rather than a runtime condition.
	//
	// Parameters:
	//   - name: the variable name as declared in GLSL
	//
	// Returns:
	//   - int32: the location
	MustLocation(name string) int32

	// Locations returns the full location table.
	//
	// Returns:
	//   - map[string]int32: the variable names mapped to their locations
	Locations() map[string]int32

	// SetLocations replaces the location table. Called by the renderer after resolving every declaration.
	//
	// Parameters:
	//   - locations: the variable names mapped to their locations
	SetLocations(locations map[string]int32)

	// DepthTestEnabled reports whether depth testing is enabled while this program is bound.
	//
	// Returns:
	//   - bool: true if depth testing is enabled
	DepthTestEnabled() bool

	// BlendEnabled reports whether blending is enabled while this program is bound.
	//
	// Returns:
	//   - bool: true if blending is enabled
	BlendEnabled() bool

	// CullFaceEnabled reports whether face culling is enabled while this program is bound.
	//
	// Returns:
	//   - bool: true if face culling is enabled
	CullFaceEnabled() bool
}

var _ Pipeline = &pipeline{}

// NewPipeline creates a new Pipeline with the given key and applies all provided builder options.
// Depth testing defaults to enabled, blending and face culling default to disabled.
// Panics if either shader stage is missing after the options are applied.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline instance with the specified configuration
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey:      pipelineKey,
		locations:        make(map[string]int32),
		depthTestEnabled: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.vertexShader == nil || p.fragmentShader == nil {
		panic(fmt.Sprintf("pipeline: %s requires both a vertex and a fragment shader", pipelineKey))
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) Program() uint32 {
	return p.program
}

func (p *pipeline) SetProgram(program uint32) {
	p.program = program
}

func (p *pipeline) Location(name string) int32 {
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	return -1
}

func (p *pipeline) MustLocation(name string) int32 {
	loc, ok := p.locations[name]
	if !ok {
		panic(fmt.Sprintf("pipeline: %s has no declaration named %q", p.pipelineKey, name))
	}
	return loc
}

func (p *pipeline) Locations() map[string]int32 {
	return p.locations
}

func (p *pipeline) SetLocations(locations map[string]int32) {
	p.locations = locations
}

func (p *pipeline) DepthTestEnabled() bool {
	return p.depthTestEnabled
}

func (p *pipeline) BlendEnabled() bool {
	return p.blendEnabled
}

func (p *pipeline) CullFaceEnabled() bool {
	return p.cullFaceEnabled
}
