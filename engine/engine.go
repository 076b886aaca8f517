package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-vr/common"
	"github.com/Carmen-Shannon/oxy-vr/engine/profiler"
	"github.com/Carmen-Shannon/oxy-vr/engine/renderer"
	"github.com/Carmen-Shannon/oxy-vr/engine/rift"
	"github.com/Carmen-Shannon/oxy-vr/engine/window"
	"github.com/charmbracelet/log"
)

var logger = log.WithPrefix("engine")

// ErrNoWindow is returned by Run when the engine was built without a window or renderer.
var ErrNoWindow = errors.New("engine has no window or renderer")

// engine implements the Engine interface.
// Coordinates the tick goroutine with the render loop on the window thread.
type engine struct {
	tickRateChannel chan time.Duration // Channel for dynamic tick rate updates

	running bool
	wg      sync.WaitGroup

	quitChannel  chan struct{}
	quitOnce     sync.Once // Ensures quitChannel is only closed once
	shutdownOnce sync.Once

	window   window.Window
	renderer renderer.Renderer
	pipeline rift.Pipeline
	hints    rift.OutputHints

	// hostVAO is bound while the render callback runs, since a core profile context has no
	// default vertex array.
	hostVAO renderer.VertexArrayID

	profiler         *profiler.Profiler
	profilingEnabled bool

	engineTickRate time.Duration
	tickCallback   func(deltaTime float32)
	renderCallback func(deltaTime float32, target common.Size)

	lastRender       time.Time
	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped
}

// Engine is the main entry point for the VR preview host.
// It owns the window loop, renders the host frame each iteration and, while the VR pipeline
// is enabled, hands that frame to the pipeline for lens distortion. When the pipeline cannot
// be set up, or fails later, the host frame goes straight to the window instead.
type Engine interface {
	// Window returns the underlying window.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Renderer returns the renderer the host frame and the VR passes draw with.
	//
	// Returns:
	//   - renderer.Renderer: the renderer instance
	Renderer() renderer.Renderer

	// Pipeline returns the VR pipeline, or nil if the engine renders flat only.
	//
	// Returns:
	//   - rift.Pipeline: the pipeline instance
	Pipeline() rift.Pipeline

	// VREnabled reports whether the next frame goes through the VR pipeline.
	//
	// Returns:
	//   - bool: true if the pipeline is set up and enabled
	VREnabled() bool

	// EnableProfiler enables performance profiling output to the log.
	EnableProfiler()

	// DisableProfiler disables performance profiling output.
	DisableProfiler()

	// SetTickRate sets the engine tick rate in frames per second.
	// The tick callback will be called at this rate for animation and input updates.
	//
	// Parameters:
	//   - fps: target frames per second (defaults to 60 if <= 0)
	SetTickRate(fps float64)

	// SetTickCallback registers the function called each engine tick. It runs on its own
	// goroutine and must not issue GL calls.
	//
	// Parameters:
	//   - callback: function to call at the configured tick rate, receiving the delta time in seconds
	SetTickCallback(callback func(deltaTime float32))

	// SetRenderCallback registers the function that draws the host frame. It runs on the window
	// thread with the destination framebuffer bound, its viewport set and a vertex array owned
	// by the engine bound for the callback's attribute setup.
	//
	// Parameters:
	//   - callback: function receiving the delta time in seconds and the size of the bound target
	SetRenderCallback(callback func(deltaTime float32, target common.Size))

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run initializes the renderer and pipeline, then runs the window loop until the window
	// closes or Quit is called. It must be called on the thread that created the window.
	//
	// Returns:
	//   - error: an error if the renderer could not be initialized
	Run() error

	// Quit signals all engine goroutines to stop and closes the window after the current frame.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()
}

// NewEngine creates a new Engine instance with the provided options.
// Initializes channels and the profiler with sensible defaults.
// Options are applied directly to the engine struct via the option-builder pattern.
//
// Parameters:
//   - options: functional options for engine configuration (window, renderer, pipeline, etc.)
//
// Returns:
//   - Engine: the newly created engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engine{
		tickRateChannel:  make(chan time.Duration, 1),
		quitChannel:      make(chan struct{}),
		running:          false,
		wg:               sync.WaitGroup{},
		profiler:         profiler.NewProfiler(),
		profilingEnabled: false,
		engineTickRate:   time.Second / 60,
	}

	for _, opt := range options {
		opt(e)
	}

	if e.window != nil {
		e.window.SetResizeCallback(func(width, height int) {
			logger.Debug("framebuffer resized", "width", width, "height", height)
		})
	}

	return e
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Renderer() renderer.Renderer {
	return e.renderer
}

func (e *engine) Pipeline() rift.Pipeline {
	return e.pipeline
}

func (e *engine) VREnabled() bool {
	return e.pipeline != nil && e.pipeline.Enabled()
}

func (e *engine) Run() error {
	if e.window == nil || e.renderer == nil {
		return ErrNoWindow
	}
	if err := e.init(); err != nil {
		return err
	}

	e.running = true
	e.lastRender = time.Now()
	e.handle()
	e.window.SetUpdateCallback(e.renderFrame)
	e.window.ProcessMessages()

	e.signalQuit()
	e.wg.Wait()
	e.shutdown()
	return nil
}

// init brings up the renderer and the VR pipeline. A pipeline that fails to set up leaves
// the engine rendering flat.
func (e *engine) init() error {
	if err := e.renderer.Init(); err != nil {
		return fmt.Errorf("initializing renderer: %w", err)
	}
	e.hostVAO = e.renderer.Backend().CreateVertexArray()
	if e.pipeline == nil {
		logger.Info("no vr pipeline configured, rendering flat")
		return nil
	}

	if err := e.pipeline.Init(e.hints); err != nil {
		logger.Warn("vr pipeline unavailable, rendering flat", "err", err)
		return nil
	}
	if err := e.pipeline.RegisterKeyBindings(e.window); err != nil {
		logger.Warn("vr key bindings not registered", "err", err)
	}
	return nil
}

// shutdown releases the GPU objects and the window. It runs once, from whichever of Quit
// or the end of the window loop gets there first, while the context is still current.
func (e *engine) shutdown() {
	e.shutdownOnce.Do(func() {
		if e.pipeline != nil {
			e.pipeline.Close()
		}
		if e.hostVAO != 0 {
			e.renderer.Backend().DeleteVertexArray(e.hostVAO)
			e.hostVAO = 0
		}
		e.renderer.Destroy()
		if err := e.window.Close(); err != nil {
			logger.Debug("closing window", "err", err)
		}
		logger.Info("engine stopped")
	})
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		e.running = false
		close(e.quitChannel)
	})
}

func (e *engine) quitting() bool {
	select {
	case <-e.quitChannel:
		return true
	default:
		return false
	}
}

// handle launches the engine tick and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleEngine()
	go e.handleQuit()
}

// handleEngine runs the fixed-rate engine tick loop in its own goroutine.
// Fires the tick callback at the configured tick rate and listens for dynamic rate changes
// via tickRateChannel. Exits when the quit channel is closed.
func (e *engine) handleEngine() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.engineTickRate)
	defer ticker.Stop()

	lastTick := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		case <-ticker.C:
			now := time.Now()
			dt := float32(now.Sub(lastTick).Seconds())
			lastTick = now

			if e.tickCallback != nil {
				e.tickCallback(dt)
			}
		case newRate := <-e.tickRateChannel:
			ticker.Reset(newRate)
			e.engineTickRate = newRate
		}
	}
}

// renderFrame draws one output frame. It is the window's update callback, so it runs on the
// thread that owns the GL context. Recovers from panics and signals quit on recovery.
func (e *engine) renderFrame() {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("render loop recovered from panic", "panic", r)
			e.signalQuit()
			e.shutdown()
		}
	}()

	if e.quitting() {
		e.shutdown()
		return
	}

	now := time.Now()
	dt := float32(now.Sub(e.lastRender).Seconds())
	e.lastRender = now

	if e.VREnabled() {
		err := e.renderVR(dt)
		if err == nil {
			e.finishFrame(now)
			return
		}
		logger.Error("vr frame failed, falling back to flat output", "err", err)
	}
	e.renderFlat(dt)
	e.finishFrame(now)
}

// renderVR draws the host frame into the scene capture and runs both VR passes over it.
func (e *engine) renderVR(dt float32) error {
	backend := e.renderer.Backend()
	restore := backend.SaveState().Program

	capture := e.pipeline.SceneCapture()
	capture.Bind()
	backend.BindVertexArray(e.hostVAO)
	if e.renderCallback != nil {
		e.renderCallback(dt, capture.Size())
	}
	return e.pipeline.RenderFrame(capture.Texture(), restore)
}

// renderFlat draws the host frame directly to the window.
func (e *engine) renderFlat(dt float32) {
	backend := e.renderer.Backend()
	size := e.window.Size()
	backend.BindFramebuffer(renderer.DefaultFramebuffer)
	backend.Viewport(0, 0, size.Width, size.Height)
	backend.BindVertexArray(e.hostVAO)
	if e.renderCallback != nil {
		e.renderCallback(dt, size)
	}
}

// finishFrame ticks the profiler and sleeps out the rest of a capped frame.
func (e *engine) finishFrame(frameStart time.Time) {
	if e.profilingEnabled && e.profiler != nil {
		if e.profiler.Tick() && e.pipeline != nil {
			logger.Debug("vr status", "enabled", e.pipeline.Enabled(), "frame", e.pipeline.FrameIndex())
		}
	}

	if e.renderFrameLimit > 0 {
		elapsed := time.Since(frameStart)
		if remaining := e.renderFrameLimit - elapsed; remaining > 0 {
			time.Sleep(remaining)
		}
	}
}

// handleQuit blocks until the quit channel is closed, then decrements the WaitGroup.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
}

// EnableProfiler enables performance profiling output to the log.
func (e *engine) EnableProfiler() {
	e.profilingEnabled = true
}

// DisableProfiler disables performance profiling output.
func (e *engine) DisableProfiler() {
	e.profilingEnabled = false
}

// SetTickRate sets the engine tick rate in frames per second.
// If the engine is running, the change takes effect immediately.
func (e *engine) SetTickRate(fps float64) {
	if fps <= 0 {
		fps = 60
	}
	newRate := time.Second / time.Duration(fps)

	if e.running {
		// Non-blocking send - if channel is full, replace the pending value
		select {
		case e.tickRateChannel <- newRate:
		default:
			select {
			case <-e.tickRateChannel:
			default:
			}
			e.tickRateChannel <- newRate
		}
	} else {
		e.engineTickRate = newRate
	}
}

// SetTickCallback registers the function called each engine tick.
func (e *engine) SetTickCallback(callback func(deltaTime float32)) {
	e.tickCallback = callback
}

// SetRenderCallback registers the function that draws the host frame.
func (e *engine) SetRenderCallback(callback func(deltaTime float32, target common.Size)) {
	e.renderCallback = callback
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Second / time.Duration(fps)
}
