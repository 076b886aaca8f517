package rift

import (
	"fmt"

	"github.com/Carmen-Shannon/oxy-vr/common"
)

// KeyBinder registers a handler for a key chord. The window implements it, but the pipeline
// only needs the registration call.
type KeyBinder interface {
	// BindKey calls handler every time key is pressed while exactly the given modifiers are held.
	//
	// Parameters:
	//   - mods: the modifiers that must be held
	//   - key: the key that triggers the handler
	//   - handler: the function to run on the press
	//
	// Returns:
	//   - error: an error if the chord is already bound or cannot be bound
	BindKey(mods common.ModifierKey, key common.KeyCode, handler func()) error
}

// KeyBindings maps every ToggleCommand to the chord that sends it.
type KeyBindings struct {
	ToggleSideBySide common.KeyChord
	ToggleRotate     common.KeyChord
	DepthIn          common.KeyChord
	DepthOut         common.KeyChord
	ScaleUp          common.KeyChord
	ScaleDown        common.KeyChord
}

// DefaultKeyBindings returns Super+5 through Super+0, in ToggleCommand order.
//
// Returns:
//   - KeyBindings: the default chords
func DefaultKeyBindings() KeyBindings {
	return KeyBindings{
		ToggleSideBySide: common.KeyChord{Mods: common.ModSuper, Key: common.Key5},
		ToggleRotate:     common.KeyChord{Mods: common.ModSuper, Key: common.Key6},
		DepthIn:          common.KeyChord{Mods: common.ModSuper, Key: common.Key7},
		DepthOut:         common.KeyChord{Mods: common.ModSuper, Key: common.Key8},
		ScaleUp:          common.KeyChord{Mods: common.ModSuper, Key: common.Key9},
		ScaleDown:        common.KeyChord{Mods: common.ModSuper, Key: common.Key0},
	}
}

type binding struct {
	chord   common.KeyChord
	command ToggleCommand
}

func (k KeyBindings) bindings() []binding {
	return []binding{
		{k.ToggleSideBySide, CommandToggleSideBySide},
		{k.ToggleRotate, CommandToggleRotate},
		{k.DepthIn, CommandDepthIn},
		{k.DepthOut, CommandDepthOut},
		{k.ScaleUp, CommandScaleUp},
		{k.ScaleDown, CommandScaleDown},
	}
}

// validate rejects bindings that leave a command unbound or bind one chord twice.
func (k KeyBindings) validate() error {
	seen := make(map[common.KeyChord]ToggleCommand)
	for _, b := range k.bindings() {
		if b.chord.Key == 0 {
			return fmt.Errorf("no key bound to %s", b.command)
		}
		if prev, ok := seen[b.chord]; ok {
			return fmt.Errorf("%s is bound to both %s and %s", b.chord, prev, b.command)
		}
		seen[b.chord] = b.command
	}
	return nil
}
