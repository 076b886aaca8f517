// package common contains common types that are used throughout this engine. They are not interface-wrapped structs, just plain structs that express
// commonly used data-types.
package common

import "fmt"

// Eye identifies one of the two views rendered for a head-mounted display.
// The numeric value doubles as the index into per-eye arrays.
type Eye int

const (
	// EyeLeft is the left eye view, index 0.
	EyeLeft Eye = iota
	// EyeRight is the right eye view, index 1.
	EyeRight
)

// Eyes is the default eye order used when a tracking driver expresses no preference.
var Eyes = [2]Eye{EyeLeft, EyeRight}

func (e Eye) String() string {
	switch e {
	case EyeLeft:
		return "left"
	case EyeRight:
		return "right"
	default:
		return fmt.Sprintf("eye(%d)", int(e))
	}
}

// Size is a width and height in pixels. The fields are int32 because every consumer
// hands them straight to the graphics API.
type Size struct {
	// Width is the horizontal extent in pixels.
	Width int32
	// Height is the vertical extent in pixels.
	Height int32
}

// Swapped returns the size with width and height exchanged, as used for a display
// mounted in portrait orientation.
//
// Returns:
//   - Size: (Height, Width)
func (s Size) Swapped() Size {
	return Size{Width: s.Height, Height: s.Width}
}

// Empty reports whether either dimension is zero or negative.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}
