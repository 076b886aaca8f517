package renderer

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-vr/common"
	"github.com/Carmen-Shannon/oxy-vr/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-vr/engine/renderer/shader"
	"github.com/charmbracelet/log"
)

var logger = log.WithPrefix("renderer")

var (
	// ErrShaderCompile is returned when a shader stage fails to compile.
	ErrShaderCompile = errors.New("shader compile failed")
	// ErrProgramLink is returned when a program fails to link.
	ErrProgramLink = errors.New("program link failed")
	// ErrMissingLocation is returned when a referenced attribute or uniform has no location
	// in the linked program.
	ErrMissingLocation = errors.New("missing attribute or uniform location")
	// ErrFramebufferIncomplete is returned when a render target fails its completeness check.
	ErrFramebufferIncomplete = errors.New("framebuffer incomplete")
	// ErrPipelineNotFound is returned when a pipeline key has not been registered.
	ErrPipelineNotFound = errors.New("pipeline not found")
)

// maxCheckpointErrors bounds how many queued GL errors a single Checkpoint drains. A lost
// context can report errors forever.
const maxCheckpointErrors = 16

// renderer is the implementation of the Renderer interface.
type renderer struct {
	mu *sync.Mutex

	pipelineCache map[string]pipeline.Pipeline

	backendType RendererBackendType
	backend     RendererBackend
}

// Renderer defines the interface for the rendering system.
//
// The Renderer owns the compiled GPU programs (as pipeline.Pipeline objects), creates render
// targets and static buffers, and exposes the backend for the draw calls a pass issues.
// It never creates a GL context: every method must be called on the thread whose context
// is current, after Init.
type Renderer interface {
	// Init prepares the backend for the current context.
	//
	// Returns:
	//   - error: an error if the backend could not be initialized
	Init() error

	// Backend returns the backend used to issue draw state and draw calls.
	//
	// Returns:
	//   - RendererBackend: the backend
	Backend() RendererBackend

	// Pipeline retrieves the cached Pipeline associated with the given key.
	// If the Pipeline does not exist, this will return nil.
	//
	// Parameters:
	//   - key: the unique identifier for the Pipeline to retrieve
	//
	// Returns:
	//   - pipeline.Pipeline: the Pipeline associated with the key, or nil if not found
	Pipeline(key string) pipeline.Pipeline

	// Pipelines retrieves the entire cache of Pipelines.
	//
	// Returns:
	//   - map[string]pipeline.Pipeline: a map of pipeline keys to their corresponding Pipeline objects
	Pipelines() map[string]pipeline.Pipeline

	// RegisterPipelines compiles, links and resolves the locations of one or more pipelines,
	// then caches them by PipelineKey. Pipelines whose keys are already registered are skipped.
	//
	// Every shader object created along the way is released whether or not the program links.
	// A referenced attribute or uniform that resolves to a negative location fails the
	// pipeline. Declarations the source never uses are recorded as -1.
	//
	// Parameters:
	//   - pipelines: the Pipelines to register
	//
	// Returns:
	//   - error: ErrShaderCompile, ErrProgramLink or ErrMissingLocation wrapped with the
	//     pipeline key and the driver log
	RegisterPipelines(pipelines ...pipeline.Pipeline) error

	// UsePipeline binds a registered pipeline's program and applies its depth test, blend and
	// face cull state.
	//
	// Parameters:
	//   - key: the pipeline key
	//
	// Returns:
	//   - pipeline.Pipeline: the bound pipeline
	//   - error: ErrPipelineNotFound if the key is not registered
	UsePipeline(key string) (pipeline.Pipeline, error)

	// CreateRenderTarget creates an offscreen framebuffer with an RGBA8 color texture and
	// verifies it is complete. The default framebuffer is bound when this returns.
	//
	// Parameters:
	//   - size: the texture size
	//   - opts: sampling options for the texture
	//
	// Returns:
	//   - RenderTarget: the render target
	//   - error: ErrFramebufferIncomplete naming the reason, or a size error
	CreateRenderTarget(size common.Size, opts TextureOptions) (RenderTarget, error)

	// CreateVertexBuffer uploads float32 vertex data into a static array buffer.
	//
	// Parameters:
	//   - data: the vertex attribute data
	//
	// Returns:
	//   - BufferID: the buffer
	CreateVertexBuffer(data []float32) BufferID

	// CreateIndexBuffer uploads uint16 indices into a static element buffer.
	//
	// Parameters:
	//   - indices: the triangle list indices
	//
	// Returns:
	//   - BufferID: the buffer
	CreateIndexBuffer(indices []uint16) BufferID

	// Checkpoint drains the GL error queue, logging every error with the operation that
	// preceded it. Errors found here are advisory and never abort a frame.
	//
	// Parameters:
	//   - op: a short description of the work just issued
	//
	// Returns:
	//   - []GLError: the drained errors, nil when there were none
	Checkpoint(op string) []GLError

	// Destroy releases every registered program.
	Destroy()
}

var _ Renderer = &renderer{}

// NewRenderer creates a new Renderer instance with the specified backend type.
// The backend is not initialized until Init is called with a context current.
//
// Parameters:
//   - backendType: the type of rendering backend to use
//   - options: variadic list of RendererBuilderOption functions to configure the Renderer
//
// Returns:
//   - Renderer: a new instance of Renderer configured with the specified backend and options
func NewRenderer(backendType RendererBackendType, options ...RendererBuilderOption) Renderer {
	r := &renderer{
		mu:            &sync.Mutex{},
		pipelineCache: make(map[string]pipeline.Pipeline),
		backendType:   backendType,
	}

	for _, opt := range options {
		opt(r)
	}

	if r.backend == nil {
		switch backendType {
		case BackendTypeGL:
			fallthrough
		default:
			r.backend = newGLRendererBackend()
		}
	}
	return r
}

func (r *renderer) Init() error {
	return r.backend.Init()
}

func (r *renderer) Backend() RendererBackend {
	return r.backend
}

func (r *renderer) Pipeline(key string) pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache[key]
}

func (r *renderer) Pipelines() map[string]pipeline.Pipeline {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pipelineCache
}

func (r *renderer) RegisterPipelines(pipelines ...pipeline.Pipeline) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range pipelines {
		key := p.PipelineKey()
		if _, exists := r.pipelineCache[key]; exists {
			continue
		}
		if err := r.compilePipeline(p); err != nil {
			return err
		}
		r.pipelineCache[key] = p
		logger.Debug("pipeline registered", "pipeline", key, "program", p.Program(), "locations", len(p.Locations()))
	}
	return nil
}

func (r *renderer) compilePipeline(p pipeline.Pipeline) error {
	key := p.PipelineKey()
	stages := []shader.Shader{p.Shader(shader.ShaderTypeVertex), p.Shader(shader.ShaderTypeFragment)}

	ids := make([]ShaderID, 0, len(stages))
	release := func() {
		for _, id := range ids {
			r.backend.DeleteShader(id)
		}
	}

	for _, s := range stages {
		id := r.backend.CreateShader(s.ShaderType())
		ids = append(ids, id)
		if ok, infoLog := r.backend.CompileShader(id, s.Source()); !ok {
			logger.Error("shader compile failed", "pipeline", key, "shader", s.Key(), "stage", s.ShaderType(), "log", infoLog)
			release()
			return fmt.Errorf("%w: pipeline %s, %s shader %s: %s", ErrShaderCompile, key, s.ShaderType(), s.Key(), infoLog)
		}
	}

	program := r.backend.CreateProgram()
	for _, id := range ids {
		r.backend.AttachShader(program, id)
	}
	ok, infoLog := r.backend.LinkProgram(program)
	release()
	if !ok {
		logger.Error("program link failed", "pipeline", key, "log", infoLog)
		r.backend.DeleteProgram(program)
		return fmt.Errorf("%w: pipeline %s: %s", ErrProgramLink, key, infoLog)
	}

	locations := make(map[string]int32)
	for _, s := range stages {
		for _, d := range s.Declarations() {
			if _, seen := locations[d.Name]; seen {
				continue
			}
			var loc int32
			switch d.Qualifier {
			case shader.QualifierAttribute:
				loc = r.backend.AttribLocation(program, d.Name)
			default:
				loc = r.backend.UniformLocation(program, d.Name)
			}
			if loc < 0 && d.Referenced {
				logger.Error("missing location", "pipeline", key, "name", d.Name, "qualifier", d.Qualifier)
				r.backend.DeleteProgram(program)
				return fmt.Errorf("%w: pipeline %s has no location for %s %q", ErrMissingLocation, key, d.Qualifier, d.Name)
			}
			locations[d.Name] = loc
		}
	}

	p.SetProgram(uint32(program))
	p.SetLocations(locations)
	return nil
}

func (r *renderer) UsePipeline(key string) (pipeline.Pipeline, error) {
	r.mu.Lock()
	p, exists := r.pipelineCache[key]
	r.mu.Unlock()

	if !exists {
		return nil, fmt.Errorf("%w: %q", ErrPipelineNotFound, key)
	}

	r.backend.UseProgram(ProgramID(p.Program()))
	r.backend.SetCapability(CapabilityDepthTest, p.DepthTestEnabled())
	r.backend.SetCapability(CapabilityBlend, p.BlendEnabled())
	r.backend.SetCapability(CapabilityCullFace, p.CullFaceEnabled())
	return p, nil
}

func (r *renderer) CreateRenderTarget(size common.Size, opts TextureOptions) (RenderTarget, error) {
	rt, err := newRenderTarget(r.backend, size, opts)
	if err != nil {
		logger.Error("render target creation failed", "size", size, "err", err)
		return nil, err
	}
	return rt, nil
}

func (r *renderer) CreateVertexBuffer(data []float32) BufferID {
	return r.backend.CreateBuffer(BufferTargetArray, common.SliceToBytes(data))
}

func (r *renderer) CreateIndexBuffer(indices []uint16) BufferID {
	return r.backend.CreateBuffer(BufferTargetElementArray, common.SliceToBytes(indices))
}

func (r *renderer) Checkpoint(op string) []GLError {
	var errs []GLError
	for range maxCheckpointErrors {
		e := r.backend.Error()
		if e == GLNoError {
			break
		}
		logger.Warn("gl error", "op", op, "error", e)
		errs = append(errs, e)
	}
	return errs
}

func (r *renderer) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, p := range r.pipelineCache {
		if p.Program() != 0 {
			r.backend.DeleteProgram(ProgramID(p.Program()))
			p.SetProgram(0)
		}
		delete(r.pipelineCache, key)
	}
}
