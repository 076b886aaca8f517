package rift

import "fmt"

// toggleStep is how far one depth or scale command moves its value.
const toggleStep float32 = 0.1

// Toggles is the render configuration the host can change while frames are running.
// RenderFrame reads one snapshot of it at the start of every frame.
type Toggles struct {
	// SideBySide frames each eye from its own half of the captured scene instead of the whole frame.
	SideBySide bool
	// Rotate turns the distortion output by 90 degrees for displays mounted in portrait.
	Rotate bool
	// DepthOffset is the z translation of the scene quad in front of the eyes.
	DepthOffset float32
	// Scale multiplies the size of the scene quad.
	Scale float32
}

// DefaultToggles returns the configuration used when the host does not supply one.
//
// Returns:
//   - Toggles: side-by-side and rotate off, the quad 5 units away at unit scale
func DefaultToggles() Toggles {
	return Toggles{
		SideBySide:  false,
		Rotate:      false,
		DepthOffset: -5.0,
		Scale:       1.0,
	}
}

// ToggleCommand is one change to the Toggles, sent by key bindings or the host.
type ToggleCommand int

const (
	// CommandToggleSideBySide flips Toggles.SideBySide.
	CommandToggleSideBySide ToggleCommand = iota
	// CommandToggleRotate flips Toggles.Rotate.
	CommandToggleRotate
	// CommandDepthIn moves the scene quad 0.1 towards the viewer.
	CommandDepthIn
	// CommandDepthOut moves the scene quad 0.1 away from the viewer.
	CommandDepthOut
	// CommandScaleUp grows the scene quad by 0.1.
	CommandScaleUp
	// CommandScaleDown shrinks the scene quad by 0.1.
	CommandScaleDown
)

func (c ToggleCommand) String() string {
	switch c {
	case CommandToggleSideBySide:
		return "toggle-side-by-side"
	case CommandToggleRotate:
		return "toggle-rotate"
	case CommandDepthIn:
		return "depth-in"
	case CommandDepthOut:
		return "depth-out"
	case CommandScaleUp:
		return "scale-up"
	case CommandScaleDown:
		return "scale-down"
	default:
		return fmt.Sprintf("ToggleCommand(%d)", int(c))
	}
}

// apply returns t with cmd applied. Unknown commands leave t unchanged.
func (t Toggles) apply(cmd ToggleCommand) Toggles {
	switch cmd {
	case CommandToggleSideBySide:
		t.SideBySide = !t.SideBySide
	case CommandToggleRotate:
		t.Rotate = !t.Rotate
	case CommandDepthIn:
		t.DepthOffset += toggleStep
	case CommandDepthOut:
		t.DepthOffset -= toggleStep
	case CommandScaleUp:
		t.Scale += toggleStep
	case CommandScaleDown:
		t.Scale -= toggleStep
	}
	return t
}
