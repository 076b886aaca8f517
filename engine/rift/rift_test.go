package rift

import (
	"errors"
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-vr/common"
	"github.com/Carmen-Shannon/oxy-vr/engine/hmd"
	"github.com/Carmen-Shannon/oxy-vr/engine/renderer"
	"github.com/Carmen-Shannon/oxy-vr/engine/renderer/renderertest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDisplay = common.Size{Width: 1920, Height: 1080}

// trackedHMD is a no-device HMD with a scripted pose and render order.
type trackedHMD struct {
	hmd.HMD
	order []common.Eye
	poses [2]common.Matrix
	begun []uint64
	ended int
}

func newTrackedHMD(t *testing.T) *trackedHMD {
	base, err := hmd.NewHMD(hmd.DriverTypeNone, hmd.WithDisplaySize(testDisplay))
	require.NoError(t, err)
	return &trackedHMD{
		HMD:   base,
		order: []common.Eye{common.EyeLeft, common.EyeRight},
		poses: [2]common.Matrix{common.Identity(), common.Identity()},
	}
}

func (h *trackedHMD) EyeRenderOrder() []common.Eye { return h.order }
func (h *trackedHMD) EyeModelview(eye common.Eye) common.Matrix { return h.poses[eye] }
func (h *trackedHMD) BeginFrame(index uint64) { h.begun = append(h.begun, index) }
func (h *trackedHMD) EndFrame() { h.ended++ }

func newTestPipeline(t *testing.T, h hmd.HMD, opts ...PipelineBuilderOption) (*riftPipeline, *renderertest.Recorder) {
	t.Helper()
	rec := renderertest.NewRecorder()
	r := renderer.NewRenderer(renderer.BackendTypeGL, renderer.WithBackend(rec))
	if h == nil {
		var err error
		h, err = hmd.NewHMD(hmd.DriverTypeNone, hmd.WithDisplaySize(testDisplay))
		require.NoError(t, err)
	}
	return NewPipeline(r, h, opts...).(*riftPipeline), rec
}

func initTestPipeline(t *testing.T, h hmd.HMD, opts ...PipelineBuilderOption) (*riftPipeline, *renderertest.Recorder) {
	t.Helper()
	p, rec := newTestPipeline(t, h, opts...)
	require.NoError(t, p.Init(OutputHints{}))
	rec.Reset()
	return p, rec
}

func expectedModelview(depth, scale float32) [16]float32 {
	return common.Multiply(common.Translation(0, 0, depth), common.Scale(3.2*scale, 1.8*scale, 1)).D
}

func TestInitAllocatesTargets(t *testing.T) {
	p, rec := newTestPipeline(t, nil)
	require.NoError(t, p.Init(OutputHints{}))

	assert.True(t, p.Enabled())
	assert.Equal(t, testDisplay, p.displaySize)
	assert.Equal(t, common.Size{Width: 1920, Height: 1080}, p.SceneCapture().Size())
	assert.Equal(t, 3, rec.Live("framebuffer"))
	assert.Equal(t, 3, rec.Live("texture"))
	assert.Equal(t, 10, rec.Live("buffer"), "quad and three framings, plus positions, indices and one shared UV buffer per eye")
	assert.Equal(t, 1, rec.Live("vertexarray"))
	assert.Equal(t, 2, rec.Live("program"))
	assert.Equal(t, 0, rec.Live("shader"))

	assert.Equal(t, []renderertest.ClearCall{
		{Framebuffer: p.eyes[common.EyeLeft].Framebuffer(), Color: [4]float32{0, 1, 0, 1}},
		{Framebuffer: p.eyes[common.EyeRight].Framebuffer(), Color: [4]float32{1, 0, 0, 1}},
	}, rec.Clears)
	assert.Empty(t, rec.Draws)
	require.Len(t, rec.Restored, 1)

	// a second Init is a no-op
	require.NoError(t, p.Init(OutputHints{}))
	assert.Equal(t, 3, rec.Live("framebuffer"))
}

func TestInitUsesOutputHints(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	hints := OutputHints{DisplaySize: common.Size{Width: 2160, Height: 1200}, CaptureSize: common.Size{Width: 1280, Height: 720}}
	require.NoError(t, p.Init(hints))

	assert.Equal(t, hints.DisplaySize, p.displaySize)
	assert.Equal(t, hints.CaptureSize, p.SceneCapture().Size())
}

func TestRenderFrameWithoutDevice(t *testing.T) {
	p, rec := initTestPipeline(t, nil)

	require.NoError(t, p.RenderFrame(0, 0))
	require.Len(t, rec.Draws, 4)

	identity := [16]float32(common.Identity().D)
	for i, eye := range common.Eyes {
		d := rec.Draws[i]
		assert.Equal(t, p.eyes[eye].Framebuffer(), d.Framebuffer, eye.String())
		assert.Equal(t, [4]int32{0, 0, 1920, 1080}, d.Viewport)
		assert.Equal(t, p.SceneCapture().Texture(), d.Texture)
		assert.Equal(t, identity, d.Uniforms["Projection"])
		assert.Equal(t, expectedModelview(-5, 1), d.Uniforms["ModelView"])
		assert.Equal(t, int32(0), d.Uniforms["Texture0"])
		assert.False(t, d.Indexed)
		assert.Equal(t, int32(6), d.Count)
		assert.True(t, d.DepthTest)
		assert.Equal(t, renderertest.AttribBinding{Buffer: p.capture.QuadBuffer(), Components: 3}, d.Attribs["Position"])
		assert.Equal(t, renderertest.AttribBinding{Buffer: p.capture.UVBuffer(false, eye), Components: 2}, d.Attribs["TexCoord0"])
	}

	for i, eye := range common.Eyes {
		d := rec.Draws[2+i]
		target := p.eyes[eye]
		assert.Equal(t, renderer.DefaultFramebuffer, d.Framebuffer, eye.String())
		assert.Equal(t, [4]int32{0, 0, 1920, 1080}, d.Viewport)
		assert.Equal(t, target.Texture(), d.Texture)
		assert.True(t, d.Indexed)
		assert.Equal(t, int32(6), d.Count)
		assert.Equal(t, target.indices, d.ElementBuffer)
		assert.False(t, d.DepthTest)
		assert.False(t, d.Blend)
		assert.False(t, d.CullFace)
		assert.Equal(t, [2]float32{1, 1}, d.Uniforms["EyeToSourceUVScale"])
		assert.Equal(t, [2]float32{0, 0}, d.Uniforms["EyeToSourceUVOffset"])
		assert.Equal(t, int32(i), d.Uniforms["RightEye"])
		assert.Equal(t, float32(0), d.Uniforms["angle"])
		assert.Equal(t, renderertest.AttribBinding{Buffer: target.positions, Components: 2}, d.Attribs["Position"])
		for _, name := range []string{"TexCoord0", "TexCoordR", "TexCoordB"} {
			assert.Equal(t, target.uvs[1], d.Attribs[name].Buffer, name)
		}
	}

	assert.Equal(t, []renderertest.ClearCall{
		{Framebuffer: p.eyes[common.EyeLeft].Framebuffer(), Color: eyePassClearColor},
		{Framebuffer: p.eyes[common.EyeRight].Framebuffer(), Color: eyePassClearColor},
		{Framebuffer: renderer.DefaultFramebuffer, Color: distortionPassClearColor},
	}, rec.Clears)
	assert.Equal(t, uint64(1), p.FrameIndex())
}

func TestRenderFrameUsesGivenSceneTexture(t *testing.T) {
	p, rec := initTestPipeline(t, nil)

	require.NoError(t, p.RenderFrame(renderer.TextureID(500), 0))
	assert.Equal(t, renderer.TextureID(500), rec.Draws[0].Texture)
	assert.Equal(t, renderer.TextureID(500), rec.Draws[1].Texture)
}

func TestRenderFrameBeforeInit(t *testing.T) {
	p, rec := newTestPipeline(t, nil)

	assert.ErrorIs(t, p.RenderFrame(0, 0), ErrNotInitialized)
	assert.Nil(t, p.SceneCapture())
	assert.Empty(t, rec.Draws)
}

func TestIncompleteFramebufferHaltsSetup(t *testing.T) {
	p, rec := newTestPipeline(t, nil)
	rec.FramebufferStatus = func(renderer.FramebufferID) renderer.FramebufferStatus {
		return renderer.FramebufferIncompleteMissingAttachment
	}

	err := p.Init(OutputHints{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSetupFatal)
	assert.ErrorIs(t, err, renderer.ErrFramebufferIncomplete)
	assert.Contains(t, err.Error(), "incomplete missing attachment")
	assert.False(t, p.Enabled())

	assert.ErrorIs(t, p.RenderFrame(0, 0), ErrNotInitialized)
	assert.Empty(t, rec.Draws)
	assert.Empty(t, rec.Clears)
	for _, kind := range []string{"framebuffer", "texture", "buffer", "vertexarray"} {
		assert.Zero(t, rec.Live(kind), kind)
	}
}

func TestIncompleteEyeTargetReleasesCapture(t *testing.T) {
	p, rec := newTestPipeline(t, nil)
	framebuffers := 0
	rec.FramebufferStatus = func(renderer.FramebufferID) renderer.FramebufferStatus {
		framebuffers++
		if framebuffers == 3 {
			return renderer.FramebufferIncompleteAttachment
		}
		return renderer.FramebufferComplete
	}

	err := p.Init(OutputHints{})
	assert.ErrorIs(t, err, ErrSetupFatal)
	assert.Contains(t, err.Error(), "right eye target")
	assert.Empty(t, rec.Draws)
	assert.Zero(t, rec.Live("framebuffer"))
	assert.Zero(t, rec.Live("buffer"))
}

func TestFirstFrameRevalidatesTargets(t *testing.T) {
	p, rec := initTestPipeline(t, nil)
	rec.FramebufferStatus = func(renderer.FramebufferID) renderer.FramebufferStatus {
		return renderer.FramebufferUnsupported
	}

	err := p.RenderFrame(0, 0)
	assert.ErrorIs(t, err, ErrSetupFatal)
	assert.ErrorIs(t, err, renderer.ErrFramebufferIncomplete)
	assert.False(t, p.Enabled())
	assert.Empty(t, rec.Draws)
	assert.Zero(t, rec.Live("framebuffer"))
	assert.ErrorIs(t, p.RenderFrame(0, 0), ErrNotInitialized)
}

func TestShaderFailureIsFatal(t *testing.T) {
	p, rec := newTestPipeline(t, nil)
	rec.FailCompile = "tanEyeAngleToTexture"

	err := p.Init(OutputHints{})
	assert.ErrorIs(t, err, ErrSetupFatal)
	assert.ErrorIs(t, err, renderer.ErrShaderCompile)
	assert.Zero(t, rec.Live("shader"))
	assert.Zero(t, rec.Live("vertexarray"))
}

func TestMissingLocationIsFatal(t *testing.T) {
	p, rec := newTestPipeline(t, nil)
	rec.MissingLocations["ModelView"] = true

	err := p.Init(OutputHints{})
	assert.ErrorIs(t, err, ErrSetupFatal)
	assert.ErrorIs(t, err, renderer.ErrMissingLocation)
	assert.False(t, p.Enabled())
}

func TestSideBySideSwitchesFramingOnly(t *testing.T) {
	p, rec := initTestPipeline(t, nil)

	require.NoError(t, p.RenderFrame(0, 0))
	full := p.capture.uvs[framingFull]
	assert.Equal(t, full, rec.Draws[0].Attribs["TexCoord0"].Buffer)
	assert.Equal(t, full, rec.Draws[1].Attribs["TexCoord0"].Buffer)
	viewports := [2][4]int32{rec.Draws[0].Viewport, rec.Draws[1].Viewport}
	textures := len(rec.Textures)

	p.Commands() <- CommandToggleSideBySide
	rec.Reset()
	require.NoError(t, p.RenderFrame(0, 0))

	assert.True(t, p.Toggles().SideBySide)
	assert.Equal(t, p.capture.uvs[framingLeftHalf], rec.Draws[0].Attribs["TexCoord0"].Buffer)
	assert.Equal(t, p.capture.uvs[framingRightHalf], rec.Draws[1].Attribs["TexCoord0"].Buffer)
	assert.Equal(t, viewports, [2][4]int32{rec.Draws[0].Viewport, rec.Draws[1].Viewport})
	assert.Equal(t, textures, len(rec.Textures))
	assert.Equal(t, testDisplay, p.eyes[common.EyeLeft].Size())
}

func TestRotateSwapsViewportAndAngle(t *testing.T) {
	p, rec := initTestPipeline(t, nil)

	p.Apply(CommandToggleRotate)
	require.NoError(t, p.RenderFrame(0, 0))
	for _, d := range rec.Draws[2:] {
		assert.Equal(t, [4]int32{0, 0, 1080, 1920}, d.Viewport)
		assert.NotZero(t, d.Uniforms["angle"])
		assert.Equal(t, rotateAngle, d.Uniforms["angle"])
	}
	// the eye pass is unaffected
	assert.Equal(t, [4]int32{0, 0, 1920, 1080}, rec.Draws[0].Viewport)

	p.Apply(CommandToggleRotate)
	rec.Reset()
	require.NoError(t, p.RenderFrame(0, 0))
	for _, d := range rec.Draws[2:] {
		assert.Equal(t, [4]int32{0, 0, 1920, 1080}, d.Viewport)
		assert.Equal(t, float32(0), d.Uniforms["angle"])
	}
}

func TestRenderFrameRestoresHostState(t *testing.T) {
	p, rec := initTestPipeline(t, nil)
	host := renderer.StateSnapshot{
		Program:     99,
		Framebuffer: 7,
		ArrayBuffer: 3,
		Texture:     11,
		Viewport:    [4]int32{0, 0, 640, 480},
		Blend:       true,
	}
	rec.SetState(host)

	require.NoError(t, p.RenderFrame(0, 42))

	got := rec.State()
	assert.Equal(t, renderer.ProgramID(42), got.Program)
	assert.Equal(t, host.Framebuffer, got.Framebuffer)
	assert.Equal(t, host.ArrayBuffer, got.ArrayBuffer)
	assert.Equal(t, host.Texture, got.Texture)
	assert.Equal(t, host.Viewport, got.Viewport)
	assert.True(t, got.Blend)
	assert.False(t, got.DepthTest)
	require.Len(t, rec.Restored, 1)
	assert.Equal(t, host, rec.Restored[0])
}

func TestRenderFrameToleratesGLErrors(t *testing.T) {
	p, rec := initTestPipeline(t, nil)
	rec.PendingErrors = []renderer.GLError{renderer.GLInvalidOperation, renderer.GLInvalidEnum}

	require.NoError(t, p.RenderFrame(0, 0))
	assert.Len(t, rec.Draws, 4)
	assert.Empty(t, rec.PendingErrors)
}

func TestRenderFrameFollowsTracking(t *testing.T) {
	h := newTrackedHMD(t)
	h.order = []common.Eye{common.EyeRight, common.EyeLeft}
	h.poses[common.EyeLeft] = common.Translation(0.032, 0, 0)
	h.poses[common.EyeRight] = common.Translation(-0.032, 0, 0)
	p, rec := initTestPipeline(t, h)

	require.NoError(t, p.RenderFrame(0, 0))
	require.NoError(t, p.RenderFrame(0, 0))

	assert.Equal(t, []uint64{0, 1}, h.begun)
	assert.Equal(t, 2, h.ended)

	// pass 1 follows the driver order, pass 2 always runs left then right
	assert.Equal(t, p.eyes[common.EyeRight].Framebuffer(), rec.Draws[0].Framebuffer)
	assert.Equal(t, p.eyes[common.EyeLeft].Framebuffer(), rec.Draws[1].Framebuffer)
	assert.Equal(t, p.eyes[common.EyeLeft].Texture(), rec.Draws[2].Texture)
	assert.Equal(t, p.eyes[common.EyeRight].Texture(), rec.Draws[3].Texture)

	placement := common.Multiply(common.Translation(0, 0, -5), common.Scale(3.2, 1.8, 1))
	wantRight := common.Multiply(common.Translation(-0.032, 0, 0), placement)
	assert.Equal(t, [16]float32(wantRight.D), rec.Draws[0].Uniforms["ModelView"])
}

func TestRenderFrameRendersBothEyesForInvalidOrder(t *testing.T) {
	for name, order := range map[string][]common.Eye{
		"duplicate":    {common.EyeRight, common.EyeRight},
		"out of range": {common.EyeLeft, common.Eye(2)},
		"empty":        nil,
	} {
		t.Run(name, func(t *testing.T) {
			h := newTrackedHMD(t)
			h.order = order
			p, rec := initTestPipeline(t, h)

			require.NotPanics(t, func() { require.NoError(t, p.RenderFrame(0, 0)) })
			require.Len(t, rec.Draws, 4)
			assert.Equal(t, p.eyes[common.EyeLeft].Framebuffer(), rec.Draws[0].Framebuffer)
			assert.Equal(t, p.eyes[common.EyeRight].Framebuffer(), rec.Draws[1].Framebuffer)
		})
	}
}

func TestToggleCommandsFromOtherGoroutines(t *testing.T) {
	p, rec := initTestPipeline(t, nil)

	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Commands() <- CommandScaleUp
		}()
	}
	wg.Wait()

	assert.Equal(t, float32(1), p.Toggles().Scale, "queued commands wait for the next frame")

	require.NoError(t, p.RenderFrame(0, 0))
	assert.InDelta(t, 1.3, p.Toggles().Scale, 1e-5)

	got := rec.Draws[0].Uniforms["ModelView"].([16]float32)
	assert.InDelta(t, 3.2*1.3, got[0], 1e-5)
	assert.InDelta(t, 1.8*1.3, got[5], 1e-5)
}

func TestWithToggles(t *testing.T) {
	toggles := Toggles{SideBySide: true, DepthOffset: -3, Scale: 2}
	p, rec := initTestPipeline(t, nil, WithToggles(toggles))

	require.NoError(t, p.RenderFrame(0, 0))
	assert.Equal(t, toggles, p.Toggles())
	assert.Equal(t, expectedModelview(-3, 2), rec.Draws[0].Uniforms["ModelView"])
	assert.Equal(t, p.capture.uvs[framingLeftHalf], rec.Draws[0].Attribs["TexCoord0"].Buffer)
}

func TestCloseReleasesEverything(t *testing.T) {
	p, rec := initTestPipeline(t, nil)

	p.Close()
	p.Close()

	assert.False(t, p.Enabled())
	assert.Nil(t, p.SceneCapture())
	for _, kind := range []string{"framebuffer", "texture", "buffer", "vertexarray"} {
		assert.Zero(t, rec.Live(kind), kind)
	}
	assert.True(t, errors.Is(p.RenderFrame(0, 0), ErrNotInitialized))
}

func TestNewPipelinePanicsWithoutCollaborators(t *testing.T) {
	assert.Panics(t, func() { NewPipeline(nil, nil) })
}

func TestCaptureQuadUVs(t *testing.T) {
	for _, tc := range []struct {
		framing  captureFraming
		min, max float32
	}{
		{framingLeftHalf, 0, 0.5},
		{framingRightHalf, 0.5, 1},
		{framingFull, 0, 1},
	} {
		uvs := captureQuadUVs(tc.framing)
		require.Len(t, uvs, 12)
		var lo, hi float32 = 1, 0
		for i := 0; i < len(uvs); i += 2 {
			lo, hi = min(lo, uvs[i]), max(hi, uvs[i])
		}
		assert.Equal(t, tc.min, lo)
		assert.Equal(t, tc.max, hi)
	}

	positions := captureQuadPositions()
	require.Len(t, positions, 18)
	for i := 2; i < len(positions); i += 3 {
		assert.Equal(t, captureQuadZ, positions[i])
	}
}
