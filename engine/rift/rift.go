package rift

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-vr/common"
	"github.com/Carmen-Shannon/oxy-vr/engine/hmd"
	"github.com/Carmen-Shannon/oxy-vr/engine/renderer"
	"github.com/charmbracelet/log"
)

var logger = log.WithPrefix("rift")

var (
	// ErrSetupFatal wraps every failure that leaves the pipeline without a usable GPU resource.
	// The host is expected to stop using the pipeline and fall back to flat output.
	ErrSetupFatal = errors.New("vr pipeline setup failed")
	// ErrNotInitialized is returned by RenderFrame before a successful Init.
	ErrNotInitialized = errors.New("vr pipeline not initialized")
)

// rotateAngle is the distortion output rotation for a portrait display, in radians.
const rotateAngle float32 = 1.57079633

var (
	eyePassClearColor        = [4]float32{0, 0, 0.2, 1}
	distortionPassClearColor = [4]float32{0, 0.1, 0, 1}
)

// sceneQuadWidth and sceneQuadHeight size the scene quad at unit scale, a 16:9 screen.
const (
	sceneQuadWidth  float32 = 3.2
	sceneQuadHeight float32 = 1.8
)

// OutputHints describes the host's output. Zero fields fall back to the HMD display size and
// a 1920x1080 capture.
type OutputHints struct {
	// DisplaySize is the size of the framebuffer the distortion pass draws to.
	DisplaySize common.Size
	// CaptureSize is the resolution the host renders its frame at.
	CaptureSize common.Size
}

// riftPipeline is the implementation of the Pipeline interface.
type riftPipeline struct {
	mu *sync.Mutex

	renderer renderer.Renderer
	hmd      hmd.HMD

	toggles       Toggles
	commands      chan ToggleCommand
	commandBuffer int
	bindings      KeyBindings

	enabled     bool
	validated   bool
	frameIndex  uint64
	displaySize common.Size
	vertexArray renderer.VertexArrayID
	capture     *sceneCapture
	eyes        [2]*eyeTarget
}

// Pipeline is the post-compositor VR pass. The host renders its finished frame into
// SceneCapture, then calls RenderFrame once per output frame. RenderFrame draws the capture
// into both eye targets with the tracked view of each eye, warps the eye targets through the
// lens distortion mesh onto the default framebuffer, and hands the GL state back unchanged.
//
// Init, RenderFrame and Close must run on the thread that owns the GL context. Toggles may be
// changed from any goroutine through Commands or Apply.
type Pipeline interface {
	// Init compiles the programs and allocates every GPU object. The GL state is restored
	// before it returns, whether or not setup succeeded.
	//
	// Parameters:
	//   - hints: the output description
	//
	// Returns:
	//   - error: ErrSetupFatal wrapping the renderer error that stopped setup
	Init(hints OutputHints) error

	// RenderFrame runs both passes for one output frame.
	//
	// Parameters:
	//   - sceneTexture: the texture holding the host's frame, or 0 to use the scene capture
	//   - restore: the program bound when RenderFrame returns
	//
	// Returns:
	//   - error: ErrNotInitialized before Init, or ErrSetupFatal when a render target fails
	//     validation before its first use. GL errors raised while drawing are only logged.
	RenderFrame(sceneTexture renderer.TextureID, restore renderer.ProgramID) error

	// SceneCapture returns the render target the host draws its frame into.
	//
	// Returns:
	//   - renderer.RenderTarget: the capture target, or nil before Init
	SceneCapture() renderer.RenderTarget

	// Toggles returns the current render configuration, including commands applied since the
	// last frame but not those still queued on the Commands channel.
	//
	// Returns:
	//   - Toggles: a copy of the configuration
	Toggles() Toggles

	// Commands returns the channel toggle commands can be sent on. Queued commands are
	// applied in order at the start of the next frame.
	//
	// Returns:
	//   - chan<- ToggleCommand: the command channel
	Commands() chan<- ToggleCommand

	// Apply changes the configuration immediately.
	//
	// Parameters:
	//   - cmd: the command to apply
	Apply(cmd ToggleCommand)

	// RegisterKeyBindings binds every configured chord to its toggle command.
	//
	// Parameters:
	//   - binder: the key binding registry, usually the window
	//
	// Returns:
	//   - error: an error if the chords are invalid or a binding is rejected
	RegisterKeyBindings(binder KeyBinder) error

	// Enabled reports whether Init succeeded and no render target has failed since.
	//
	// Returns:
	//   - bool: true if RenderFrame will draw
	Enabled() bool

	// FrameIndex returns the number of frames started so far.
	//
	// Returns:
	//   - uint64: the frame count
	FrameIndex() uint64

	// Close releases every GPU object created by Init. The HMD stays open.
	Close()
}

var _ Pipeline = &riftPipeline{}

// NewPipeline creates a Pipeline drawing with r and tracking with h.
// Nothing touches the GPU until Init. Panics if either collaborator is nil.
//
// Parameters:
//   - r: the renderer owning the GL context
//   - h: the head-mounted display, connected or not
//   - opts: a variadic list of PipelineBuilderOption functions
//
// Returns:
//   - Pipeline: the new pipeline
func NewPipeline(r renderer.Renderer, h hmd.HMD, opts ...PipelineBuilderOption) Pipeline {
	if r == nil || h == nil {
		panic("rift: NewPipeline requires a renderer and an HMD")
	}
	p := &riftPipeline{
		mu:            &sync.Mutex{},
		renderer:      r,
		hmd:           h,
		toggles:       DefaultToggles(),
		bindings:      DefaultKeyBindings(),
		commandBuffer: 32,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.commands = make(chan ToggleCommand, max(p.commandBuffer, 1))
	return p
}

func (p *riftPipeline) Init(hints OutputHints) error {
	if p.enabled {
		return nil
	}

	backend := p.renderer.Backend()
	saved := backend.SaveState()
	defer backend.RestoreState(saved)

	if err := p.setup(hints); err != nil {
		p.release()
		logger.Error("setup failed, vr pipeline disabled", "err", err)
		return fmt.Errorf("%w: %w", ErrSetupFatal, err)
	}
	p.renderer.Checkpoint("setup")

	p.enabled = true
	p.validated = false
	info := p.hmd.DeviceInfo()
	logger.Info("vr pipeline ready",
		"connected", p.hmd.Connected(),
		"driver", info.Driver,
		"product", info.Product,
		"display", p.displaySize,
		"capture", p.capture.Target().Size(),
		"left_eye", p.eyes[common.EyeLeft].Size(),
		"right_eye", p.eyes[common.EyeRight].Size(),
	)
	return nil
}

func (p *riftPipeline) setup(hints OutputHints) error {
	p.displaySize = common.Coalesce(hints.DisplaySize, p.hmd.DisplaySize())
	captureSize := common.Coalesce(hints.CaptureSize, defaultCaptureSize)

	if err := p.renderer.RegisterPipelines(newEyePipeline(), newDistortionPipeline()); err != nil {
		return err
	}

	backend := p.renderer.Backend()
	p.vertexArray = backend.CreateVertexArray()
	backend.BindVertexArray(p.vertexArray)

	capture, err := newSceneCapture(p.renderer, captureSize)
	if err != nil {
		return fmt.Errorf("scene capture: %w", err)
	}
	p.capture = capture

	for _, eye := range common.Eyes {
		target, err := newEyeTarget(p.renderer, eye, p.hmd)
		if err != nil {
			return err
		}
		p.eyes[eye] = target
	}
	return nil
}

// release deletes whatever setup managed to create.
func (p *riftPipeline) release() {
	backend := p.renderer.Backend()
	for i, e := range p.eyes {
		if e != nil {
			e.Destroy()
			p.eyes[i] = nil
		}
	}
	if p.capture != nil {
		p.capture.Destroy()
		p.capture = nil
	}
	if p.vertexArray != 0 {
		backend.DeleteVertexArray(p.vertexArray)
		p.vertexArray = 0
	}
	p.enabled = false
}

// validateTargets re-checks framebuffer completeness before the first frame draws into them.
func (p *riftPipeline) validateTargets() error {
	backend := p.renderer.Backend()
	targets := []struct {
		name string
		rt   renderer.RenderTarget
	}{
		{"scene capture", p.capture.Target()},
		{"left eye target", p.eyes[common.EyeLeft].target},
		{"right eye target", p.eyes[common.EyeRight].target},
	}
	for _, t := range targets {
		if status := backend.CheckFramebuffer(t.rt.Framebuffer()); status != renderer.FramebufferComplete {
			return fmt.Errorf("%w: %s: %s", renderer.ErrFramebufferIncomplete, t.name, status)
		}
	}
	return nil
}

func (p *riftPipeline) RenderFrame(sceneTexture renderer.TextureID, restore renderer.ProgramID) error {
	if !p.enabled {
		return ErrNotInitialized
	}

	backend := p.renderer.Backend()
	saved := backend.SaveState()

	if !p.validated {
		if err := p.validateTargets(); err != nil {
			backend.RestoreState(saved)
			logger.Error("render target invalid, vr pipeline disabled", "err", err)
			p.release()
			return fmt.Errorf("%w: %w", ErrSetupFatal, err)
		}
		p.validated = true
	}

	toggles := p.snapshot()
	index := p.frameIndex
	p.frameIndex++
	p.hmd.BeginFrame(index)

	if sceneTexture == 0 {
		sceneTexture = p.capture.Target().Texture()
	}

	backend.BindVertexArray(p.vertexArray)
	if err := p.renderEyes(sceneTexture, toggles); err != nil {
		logger.Error("eye pass skipped", "frame", index, "err", err)
	}
	p.renderer.Checkpoint("eye pass")

	if err := p.renderDistortion(toggles); err != nil {
		logger.Error("distortion pass skipped", "frame", index, "err", err)
	}
	p.renderer.Checkpoint("distortion pass")

	backend.SetCapability(renderer.CapabilityDepthTest, true)
	p.hmd.EndFrame()
	backend.RestoreState(saved)
	backend.UseProgram(restore)
	return nil
}

// sceneModelview places the scene quad in front of the eye: scaled first, then pushed to the
// depth offset, then moved by the eye pose.
func sceneModelview(eyeModelview common.Matrix, t Toggles) common.Matrix {
	placement := common.Multiply(
		common.Translation(0, 0, t.DepthOffset),
		common.Scale(sceneQuadWidth*t.Scale, sceneQuadHeight*t.Scale, 1),
	)
	return common.Multiply(eyeModelview, placement)
}

// renderEyes is pass 1: the captured scene drawn into each eye target.
func (p *riftPipeline) renderEyes(sceneTexture renderer.TextureID, t Toggles) error {
	prog, err := p.renderer.UsePipeline(EyePipelineKey)
	if err != nil {
		return err
	}
	backend := p.renderer.Backend()

	order := p.hmd.EyeRenderOrder()
	if !hmd.ValidEyeRenderOrder(order) {
		order = common.Eyes[:]
	}
	for _, eye := range order {
		target := p.eyes[eye]
		target.target.Clear(eyePassClearColor)

		backend.SetUniformMatrix4(prog.Location("Projection"), p.hmd.EyeProjection(eye).D)
		backend.SetUniformMatrix4(prog.Location("ModelView"), sceneModelview(p.hmd.EyeModelview(eye), t).D)
		backend.SetUniform1i(prog.Location("Texture0"), 0)
		backend.BindTexture(0, sceneTexture)

		backend.BindBuffer(renderer.BufferTargetArray, p.capture.QuadBuffer())
		backend.VertexAttribPointer(prog.Location("Position"), 3)
		backend.BindBuffer(renderer.BufferTargetArray, p.capture.UVBuffer(t.SideBySide, eye))
		backend.VertexAttribPointer(prog.Location("TexCoord0"), 2)

		backend.DrawTriangles(0, 6)
	}

	backend.DisableVertexAttrib(prog.Location("Position"))
	backend.DisableVertexAttrib(prog.Location("TexCoord0"))
	return nil
}

// renderDistortion is pass 2: each eye target warped through its mesh onto the display.
func (p *riftPipeline) renderDistortion(t Toggles) error {
	backend := p.renderer.Backend()
	backend.BindFramebuffer(renderer.DefaultFramebuffer)

	prog, err := p.renderer.UsePipeline(DistortionPipelineKey)
	if err != nil {
		return err
	}

	viewport, angle := p.displaySize, float32(0)
	if t.Rotate {
		viewport, angle = viewport.Swapped(), rotateAngle
	}
	backend.Viewport(0, 0, viewport.Width, viewport.Height)
	c := distortionPassClearColor
	backend.Clear(c[0], c[1], c[2], c[3])

	for _, eye := range common.Eyes {
		target := p.eyes[eye]
		var rightEye int32
		if eye == common.EyeRight {
			rightEye = 1
		}

		backend.SetUniform2f(prog.Location("EyeToSourceUVScale"), target.uvScale)
		backend.SetUniform2f(prog.Location("EyeToSourceUVOffset"), target.uvOffset)
		backend.SetUniform1i(prog.Location("RightEye"), rightEye)
		backend.SetUniform1f(prog.Location("angle"), angle)
		backend.SetUniform1i(prog.Location("Texture0"), 0)
		backend.BindTexture(0, target.Texture())

		target.bindMesh(prog)
		backend.DrawIndexedTriangles(target.indexCount)
		target.unbindMesh(prog)
	}
	return nil
}

// snapshot applies every queued command and returns the resulting configuration.
func (p *riftPipeline) snapshot() Toggles {
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		select {
		case cmd := <-p.commands:
			p.toggles = p.toggles.apply(cmd)
			logger.Debug("toggle applied", "command", cmd, "toggles", p.toggles)
		default:
			return p.toggles
		}
	}
}

func (p *riftPipeline) SceneCapture() renderer.RenderTarget {
	if p.capture == nil {
		return nil
	}
	return p.capture.Target()
}

func (p *riftPipeline) Toggles() Toggles {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.toggles
}

func (p *riftPipeline) Commands() chan<- ToggleCommand {
	return p.commands
}

func (p *riftPipeline) Apply(cmd ToggleCommand) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.toggles = p.toggles.apply(cmd)
}

// send queues cmd without blocking. A full queue drops the command.
func (p *riftPipeline) send(cmd ToggleCommand) {
	select {
	case p.commands <- cmd:
	default:
		logger.Warn("toggle command dropped, queue full", "command", cmd)
	}
}

func (p *riftPipeline) RegisterKeyBindings(binder KeyBinder) error {
	if err := p.bindings.validate(); err != nil {
		return fmt.Errorf("invalid key bindings: %w", err)
	}
	for _, b := range p.bindings.bindings() {
		cmd := b.command
		if err := binder.BindKey(b.chord.Mods, b.chord.Key, func() { p.send(cmd) }); err != nil {
			return fmt.Errorf("binding %s to %s: %w", b.chord, cmd, err)
		}
		logger.Debug("key bound", "chord", b.chord, "command", cmd)
	}
	return nil
}

func (p *riftPipeline) Enabled() bool {
	return p.enabled
}

func (p *riftPipeline) FrameIndex() uint64 {
	return p.frameIndex
}

func (p *riftPipeline) Close() {
	p.release()
}
