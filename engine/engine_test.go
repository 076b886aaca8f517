package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-vr/common"
	"github.com/Carmen-Shannon/oxy-vr/engine/hmd"
	"github.com/Carmen-Shannon/oxy-vr/engine/renderer"
	"github.com/Carmen-Shannon/oxy-vr/engine/renderer/renderertest"
	"github.com/Carmen-Shannon/oxy-vr/engine/rift"
	"github.com/Carmen-Shannon/oxy-vr/engine/window"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeWindow runs a fixed number of loop iterations instead of polling a real window.
type fakeWindow struct {
	size     common.Size
	frames   int
	delay    time.Duration
	ran      int
	swaps    int
	closed   bool
	onUpdate func()
	bound    map[common.KeyChord]func()
}

var _ window.Window = &fakeWindow{}

func newFakeWindow(frames int) *fakeWindow {
	return &fakeWindow{
		size:   common.Size{Width: 1280, Height: 720},
		frames: frames,
		bound:  make(map[common.KeyChord]func()),
	}
}

func (w *fakeWindow) SetUpdateCallback(callback func()) { w.onUpdate = callback }
func (w *fakeWindow) SetResizeCallback(callback func(width, height int)) {}
func (w *fakeWindow) SwapBuffers() { w.swaps++ }
func (w *fakeWindow) IsRunning() bool { return !w.closed }
func (w *fakeWindow) Width() int { return int(w.size.Width) }
func (w *fakeWindow) Height() int { return int(w.size.Height) }
func (w *fakeWindow) Size() common.Size { return w.size }

func (w *fakeWindow) BindKey(mods common.ModifierKey, key common.KeyCode, handler func()) error {
	w.bound[common.KeyChord{Mods: mods, Key: key}] = handler
	return nil
}

func (w *fakeWindow) Close() error {
	w.closed = true
	return nil
}

func (w *fakeWindow) ProcessMessages() {
	for ; w.ran < w.frames && w.IsRunning(); w.ran++ {
		if w.onUpdate != nil {
			w.onUpdate()
		}
		w.SwapBuffers()
		time.Sleep(w.delay)
	}
}

type frame struct {
	size        common.Size
	framebuffer renderer.FramebufferID
	vertexArray renderer.VertexArrayID
}

func newTestEngine(t *testing.T, w *fakeWindow, withPipeline bool) (Engine, *renderertest.Recorder, *[]frame) {
	t.Helper()
	rec := renderertest.NewRecorder()
	r := renderer.NewRenderer(renderer.BackendTypeGL, renderer.WithBackend(rec))

	options := []EngineBuilderOption{WithWindow(w), WithRenderer(r), WithTickRate(1000)}
	if withPipeline {
		h, err := hmd.NewHMD(hmd.DriverTypeNone, hmd.WithDisplaySize(common.Size{Width: 1920, Height: 1080}))
		require.NoError(t, err)
		t.Cleanup(func() { _ = h.Close() })
		options = append(options, WithPipeline(rift.NewPipeline(r, h), rift.OutputHints{CaptureSize: common.Size{Width: 1600, Height: 900}}))
	}

	e := NewEngine(options...)
	frames := &[]frame{}
	e.SetRenderCallback(func(dt float32, target common.Size) {
		state := rec.State()
		*frames = append(*frames, frame{size: target, framebuffer: state.Framebuffer, vertexArray: state.VertexArray})
	})
	return e, rec, frames
}

func TestRunRoutesFramesThroughPipeline(t *testing.T) {
	w := newFakeWindow(3)
	e, rec, frames := newTestEngine(t, w, true)

	require.NoError(t, e.Run())
	assert.True(t, rec.InitCalled)
	assert.Len(t, w.bound, 6)
	assert.Equal(t, 3, w.swaps)

	require.Len(t, *frames, 3)
	for _, f := range *frames {
		assert.Equal(t, common.Size{Width: 1600, Height: 900}, f.size)
		assert.NotEqual(t, renderer.DefaultFramebuffer, f.framebuffer)
		assert.NotZero(t, f.vertexArray)
	}
	assert.Len(t, rec.Draws, 12)
	assert.Equal(t, uint64(3), e.Pipeline().FrameIndex())

	assert.True(t, w.closed)
	assert.False(t, e.VREnabled())
	for _, kind := range []string{"program", "framebuffer", "texture", "buffer", "vertexarray"} {
		assert.Zero(t, rec.Live(kind), kind)
	}
}

func TestRunFallsBackToFlatWhenSetupFails(t *testing.T) {
	w := newFakeWindow(2)
	e, rec, frames := newTestEngine(t, w, true)
	rec.FailCompile = "tanEyeAngleToTexture"

	require.NoError(t, e.Run())
	assert.Empty(t, w.bound)
	assert.Empty(t, rec.Draws)

	require.Len(t, *frames, 2)
	for _, f := range *frames {
		assert.Equal(t, w.size, f.size)
		assert.Equal(t, renderer.DefaultFramebuffer, f.framebuffer)
		assert.NotZero(t, f.vertexArray)
	}
}

func TestRunWithoutPipelineRendersFlat(t *testing.T) {
	w := newFakeWindow(1)
	e, rec, frames := newTestEngine(t, w, false)

	require.NoError(t, e.Run())
	assert.Nil(t, e.Pipeline())
	require.Len(t, *frames, 1)
	assert.Equal(t, w.size, (*frames)[0].size)
	assert.NotZero(t, (*frames)[0].vertexArray)
	assert.Zero(t, rec.Live("vertexarray"))
}

func TestHostVertexArrayIsRestoredEachFrame(t *testing.T) {
	w := newFakeWindow(2)
	e, rec, frames := newTestEngine(t, w, true)

	require.NoError(t, e.Run())
	require.Len(t, *frames, 2)
	assert.NotZero(t, (*frames)[0].vertexArray)
	// the vr passes bind their own vertex array, so the host one is rebound every frame
	assert.Equal(t, (*frames)[0].vertexArray, (*frames)[1].vertexArray)
	assert.Zero(t, rec.Live("vertexarray"))
}

func TestFailedFrameRedrawsFlat(t *testing.T) {
	w := newFakeWindow(2)
	e, rec, frames := newTestEngine(t, w, true)
	var failing bool
	rec.FramebufferStatus = func(renderer.FramebufferID) renderer.FramebufferStatus {
		if failing {
			return renderer.FramebufferUnsupported
		}
		return renderer.FramebufferComplete
	}
	e.SetRenderCallback(func(dt float32, target common.Size) {
		failing = true
		*frames = append(*frames, frame{size: target, framebuffer: rec.State().Framebuffer})
	})

	require.NoError(t, e.Run())
	require.Len(t, *frames, 3)
	assert.Equal(t, common.Size{Width: 1600, Height: 900}, (*frames)[0].size)
	assert.Equal(t, w.size, (*frames)[1].size)
	assert.Equal(t, renderer.DefaultFramebuffer, (*frames)[1].framebuffer)
	assert.Equal(t, w.size, (*frames)[2].size)
	assert.Empty(t, rec.Draws)
}

func TestQuitStopsLoop(t *testing.T) {
	w := newFakeWindow(10)
	e, _, frames := newTestEngine(t, w, false)
	e.SetRenderCallback(func(dt float32, target common.Size) {
		*frames = append(*frames, frame{size: target})
		e.Quit()
		e.Quit()
	})

	require.NoError(t, e.Run())
	assert.Len(t, *frames, 1)
	assert.Equal(t, 2, w.ran)
	assert.True(t, w.closed)
}

func TestTickCommandsReachPipeline(t *testing.T) {
	w := newFakeWindow(10000)
	w.delay = time.Millisecond
	e, _, _ := newTestEngine(t, w, true)

	var once sync.Once
	e.SetTickCallback(func(dt float32) {
		once.Do(func() { e.Pipeline().Commands() <- rift.CommandScaleUp })
	})
	e.SetRenderCallback(func(dt float32, target common.Size) {
		if e.Pipeline().Toggles().Scale > 1 {
			e.Quit()
		}
	})

	require.NoError(t, e.Run())
	assert.Less(t, w.ran, w.frames)
	assert.InDelta(t, 1.1, e.Pipeline().Toggles().Scale, 1e-5)
}

func TestRunRequiresWindowAndRenderer(t *testing.T) {
	assert.ErrorIs(t, NewEngine().Run(), ErrNoWindow)
}
