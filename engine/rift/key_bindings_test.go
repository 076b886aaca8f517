package rift

import (
	"errors"
	"fmt"
	"testing"

	"github.com/Carmen-Shannon/oxy-vr/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBinder stores handlers the way the window does and lets tests press chords.
type fakeBinder struct {
	handlers map[common.KeyChord]func()
	failOn   common.KeyCode
}

func newFakeBinder() *fakeBinder {
	return &fakeBinder{handlers: make(map[common.KeyChord]func())}
}

func (b *fakeBinder) BindKey(mods common.ModifierKey, key common.KeyCode, handler func()) error {
	if key == b.failOn {
		return errors.New("grab failed")
	}
	chord := common.KeyChord{Mods: mods, Key: key}
	if _, ok := b.handlers[chord]; ok {
		return fmt.Errorf("%s already bound", chord)
	}
	b.handlers[chord] = handler
	return nil
}

func (b *fakeBinder) press(mods common.ModifierKey, key common.KeyCode) bool {
	h, ok := b.handlers[common.KeyChord{Mods: mods, Key: key}]
	if ok {
		h()
	}
	return ok
}

func TestDefaultKeyBindings(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	binder := newFakeBinder()
	require.NoError(t, p.RegisterKeyBindings(binder))
	assert.Len(t, binder.handlers, 6)

	for _, key := range []common.KeyCode{common.Key5, common.Key6, common.Key7, common.Key8, common.Key8, common.Key9, common.Key0, common.Key0} {
		require.True(t, binder.press(common.ModSuper, key), "super+%c", rune(key))
	}
	assert.False(t, binder.press(0, common.Key5), "bare keys stay with the host")

	got := p.snapshot()
	assert.True(t, got.SideBySide)
	assert.True(t, got.Rotate)
	assert.InDelta(t, -5.1, got.DepthOffset, 1e-5)
	assert.InDelta(t, 0.9, got.Scale, 1e-5)
}

func TestCustomKeyBindings(t *testing.T) {
	bindings := DefaultKeyBindings()
	bindings.DepthIn = common.KeyChord{Mods: common.ModControl | common.ModShift, Key: common.KeyW}
	p, _ := newTestPipeline(t, nil, WithKeyBindings(bindings))
	binder := newFakeBinder()
	require.NoError(t, p.RegisterKeyBindings(binder))

	assert.False(t, binder.press(common.ModSuper, common.Key7))
	require.True(t, binder.press(common.ModControl|common.ModShift, common.KeyW))
	assert.InDelta(t, -4.9, p.snapshot().DepthOffset, 1e-5)
}

func TestKeyBindingsRejectDuplicates(t *testing.T) {
	bindings := DefaultKeyBindings()
	bindings.ScaleDown = bindings.ScaleUp
	p, _ := newTestPipeline(t, nil, WithKeyBindings(bindings))

	err := p.RegisterKeyBindings(newFakeBinder())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "super+9")

	bindings = DefaultKeyBindings()
	bindings.ToggleRotate = common.KeyChord{}
	p, _ = newTestPipeline(t, nil, WithKeyBindings(bindings))
	assert.Error(t, p.RegisterKeyBindings(newFakeBinder()))
}

func TestKeyBindingsPropagateBinderErrors(t *testing.T) {
	p, _ := newTestPipeline(t, nil)
	binder := newFakeBinder()
	binder.failOn = common.Key8

	err := p.RegisterKeyBindings(binder)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "depth-out")
}

func TestFullCommandQueueDropsCommands(t *testing.T) {
	p, _ := newTestPipeline(t, nil, WithCommandBuffer(2))
	binder := newFakeBinder()
	require.NoError(t, p.RegisterKeyBindings(binder))

	for range 5 {
		binder.press(common.ModSuper, common.Key9)
	}
	assert.InDelta(t, 1.2, p.snapshot().Scale, 1e-5)
}

func TestToggleApply(t *testing.T) {
	toggles := DefaultToggles()
	assert.Equal(t, Toggles{DepthOffset: -5, Scale: 1}, toggles)

	toggles = toggles.apply(CommandToggleSideBySide).apply(CommandToggleSideBySide)
	assert.False(t, toggles.SideBySide)
	toggles = toggles.apply(CommandDepthIn)
	assert.InDelta(t, -4.9, toggles.DepthOffset, 1e-6)
	assert.Equal(t, toggles, toggles.apply(ToggleCommand(42)))
	assert.Equal(t, "scale-down", CommandScaleDown.String())
	assert.Equal(t, "ToggleCommand(42)", ToggleCommand(42).String())
}
