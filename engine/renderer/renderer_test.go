package renderer_test

import (
	"errors"
	"testing"

	"github.com/Carmen-Shannon/oxy-vr/common"
	"github.com/Carmen-Shannon/oxy-vr/engine/renderer"
	"github.com/Carmen-Shannon/oxy-vr/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-vr/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-vr/engine/renderer/shader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const vertexSource = `#version 330 core
uniform mat4 Projection;
uniform mat4 ModelView;
uniform bool Unused;
in vec3 Position;
in vec2 TexCoord0;
out vec2 oTexCoord;
void main() {
    oTexCoord = TexCoord0;
    gl_Position = Projection * ModelView * vec4(Position, 1.0);
}
`

const fragmentSource = `#version 330 core
in vec2 oTexCoord;
uniform sampler2D Texture0;
out vec4 FragColor;
void main() {
    FragColor = texture(Texture0, oTexCoord);
}
`

func newTestPipeline(key string) pipeline.Pipeline {
	return pipeline.NewPipeline(key,
		pipeline.WithVertexShader(shader.NewShader(key+".vert", shader.ShaderTypeVertex, vertexSource)),
		pipeline.WithFragmentShader(shader.NewShader(key+".frag", shader.ShaderTypeFragment, fragmentSource)),
	)
}

func newTestRenderer() (renderer.Renderer, *renderertest.Recorder) {
	rec := renderertest.NewRecorder()
	return renderer.NewRenderer(renderer.BackendTypeGL, renderer.WithBackend(rec)), rec
}

func TestRegisterPipelinesResolvesLocations(t *testing.T) {
	r, rec := newTestRenderer()
	p := newTestPipeline("eye")

	require.NoError(t, r.RegisterPipelines(p))

	assert.NotZero(t, p.Program())
	assert.Same(t, p, r.Pipeline("eye"))
	for _, name := range []string{"Projection", "ModelView", "Position", "TexCoord0", "Texture0"} {
		assert.GreaterOrEqual(t, p.Location(name), int32(0), name)
	}
	assert.Equal(t, 0, rec.Live("shader"), "stage objects are released after linking")
	assert.Equal(t, 1, rec.Live("program"))
}

func TestRegisterPipelinesSkipsRegisteredKeys(t *testing.T) {
	r, rec := newTestRenderer()

	require.NoError(t, r.RegisterPipelines(newTestPipeline("eye")))
	require.NoError(t, r.RegisterPipelines(newTestPipeline("eye")))

	assert.Equal(t, 1, rec.Live("program"))
	assert.Len(t, r.Pipelines(), 1)
}

func TestRegisterPipelinesCompileFailureReleasesStages(t *testing.T) {
	r, rec := newTestRenderer()
	rec.FailCompile = "sampler2D"

	err := r.RegisterPipelines(newTestPipeline("eye"))

	require.Error(t, err)
	assert.True(t, errors.Is(err, renderer.ErrShaderCompile))
	assert.Contains(t, err.Error(), "syntax error")
	assert.Equal(t, 0, rec.Live("shader"))
	assert.Equal(t, 0, rec.Live("program"))
	assert.Nil(t, r.Pipeline("eye"))
}

func TestRegisterPipelinesLinkFailureReleasesEverything(t *testing.T) {
	r, rec := newTestRenderer()
	rec.FailLink = true

	err := r.RegisterPipelines(newTestPipeline("eye"))

	assert.ErrorIs(t, err, renderer.ErrProgramLink)
	assert.Equal(t, 0, rec.Live("shader"))
	assert.Equal(t, 0, rec.Live("program"))
}

func TestRegisterPipelinesMissingReferencedLocation(t *testing.T) {
	r, rec := newTestRenderer()
	rec.MissingLocations["ModelView"] = true

	err := r.RegisterPipelines(newTestPipeline("eye"))

	require.ErrorIs(t, err, renderer.ErrMissingLocation)
	assert.Contains(t, err.Error(), "ModelView")
	assert.Equal(t, 0, rec.Live("program"))
	assert.Nil(t, r.Pipeline("eye"))
}

func TestRegisterPipelinesToleratesUnreferencedDeclaration(t *testing.T) {
	r, rec := newTestRenderer()
	rec.MissingLocations["Unused"] = true
	p := newTestPipeline("eye")

	require.NoError(t, r.RegisterPipelines(p))

	assert.Equal(t, int32(-1), p.Location("Unused"))
	assert.Equal(t, int32(-1), p.MustLocation("Unused"))
}

func TestUsePipelineAppliesState(t *testing.T) {
	r, rec := newTestRenderer()
	p := pipeline.NewPipeline("distortion",
		pipeline.WithVertexShader(shader.NewShader("d.vert", shader.ShaderTypeVertex, vertexSource)),
		pipeline.WithFragmentShader(shader.NewShader("d.frag", shader.ShaderTypeFragment, fragmentSource)),
		pipeline.WithDepthTestEnabled(false),
		pipeline.WithBlendEnabled(true),
	)
	require.NoError(t, r.RegisterPipelines(p))

	bound, err := r.UsePipeline("distortion")
	require.NoError(t, err)

	s := rec.State()
	assert.Same(t, p, bound)
	assert.Equal(t, renderer.ProgramID(p.Program()), s.Program)
	assert.False(t, s.DepthTest)
	assert.True(t, s.Blend)
	assert.False(t, s.CullFace)

	_, err = r.UsePipeline("missing")
	assert.ErrorIs(t, err, renderer.ErrPipelineNotFound)
}

func TestCreateRenderTarget(t *testing.T) {
	r, rec := newTestRenderer()
	size := common.Size{Width: 1182, Height: 1464}

	rt, err := r.CreateRenderTarget(size, renderer.TextureOptions{})
	require.NoError(t, err)

	assert.Equal(t, size, rt.Size())
	assert.NotZero(t, rt.Texture())
	assert.NotZero(t, rt.Framebuffer())
	assert.Equal(t, renderer.DefaultFramebuffer, rec.State().Framebuffer)
	require.Len(t, rec.Textures, 1)
	assert.Equal(t, size, rec.Textures[0].Size)

	rt.Clear([4]float32{0, 1, 0, 1})
	require.Len(t, rec.Clears, 1)
	assert.Equal(t, rt.Framebuffer(), rec.Clears[0].Framebuffer)
	assert.Equal(t, [4]int32{0, 0, 1182, 1464}, rec.State().Viewport)

	rt.Destroy()
	rt.Destroy()
	assert.Equal(t, 0, rec.Live("texture"))
	assert.Equal(t, 0, rec.Live("framebuffer"))
}

func TestCreateRenderTargetIncomplete(t *testing.T) {
	r, rec := newTestRenderer()
	rec.FramebufferStatus = func(renderer.FramebufferID) renderer.FramebufferStatus {
		return renderer.FramebufferIncompleteMissingAttachment
	}

	rt, err := r.CreateRenderTarget(common.Size{Width: 64, Height: 64}, renderer.TextureOptions{})

	assert.Nil(t, rt)
	require.ErrorIs(t, err, renderer.ErrFramebufferIncomplete)
	assert.Contains(t, err.Error(), "incomplete missing attachment")
	assert.Equal(t, 0, rec.Live("texture"))
	assert.Equal(t, 0, rec.Live("framebuffer"))
}

func TestCreateRenderTargetRejectsEmptySize(t *testing.T) {
	r, _ := newTestRenderer()

	_, err := r.CreateRenderTarget(common.Size{Width: 0, Height: 64}, renderer.TextureOptions{})

	assert.Error(t, err)
}

func TestCreateBuffers(t *testing.T) {
	r, rec := newTestRenderer()

	vb := r.CreateVertexBuffer([]float32{1, 2, 3})
	ib := r.CreateIndexBuffer([]uint16{0, 1, 2, 2, 1, 3})

	assert.Len(t, rec.BufferData(vb), 12)
	assert.Len(t, rec.BufferData(ib), 12)
	assert.Equal(t, 2, rec.Live("buffer"))
}

func TestCheckpointDrainsErrors(t *testing.T) {
	r, rec := newTestRenderer()
	rec.PendingErrors = []renderer.GLError{renderer.GLInvalidOperation, renderer.GLInvalidValue}

	errs := r.Checkpoint("pass 1")

	assert.Equal(t, []renderer.GLError{renderer.GLInvalidOperation, renderer.GLInvalidValue}, errs)
	assert.Nil(t, r.Checkpoint("pass 2"))
}

func TestDestroyReleasesPrograms(t *testing.T) {
	r, rec := newTestRenderer()
	p := newTestPipeline("eye")
	require.NoError(t, r.RegisterPipelines(p))

	r.Destroy()

	assert.Equal(t, 0, rec.Live("program"))
	assert.Zero(t, p.Program())
	assert.Empty(t, r.Pipelines())
}

func TestStatusNames(t *testing.T) {
	assert.Equal(t, "incomplete dimensions", renderer.FramebufferIncompleteDimensions.String())
	assert.Equal(t, "unsupported", renderer.FramebufferUnsupported.String())
	assert.Equal(t, "invalid-framebuffer-operation", renderer.GLInvalidFramebufferOperation.String())
	assert.Equal(t, "gl: out-of-memory", renderer.GLOutOfMemory.Error())
}
