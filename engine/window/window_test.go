package window

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-vr/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBindKeyMatchesExactModifiers(t *testing.T) {
	w := newEngineWindow()
	var pressed int
	require.NoError(t, w.BindKey(common.ModSuper, common.Key5, func() { pressed++ }))

	assert.True(t, w.dispatchKey(common.ModSuper, common.Key5))
	assert.False(t, w.dispatchKey(0, common.Key5))
	assert.False(t, w.dispatchKey(common.ModSuper|common.ModShift, common.Key5))
	assert.Equal(t, 1, pressed)
}

func TestBindKeyIgnoresLockModifiers(t *testing.T) {
	w := newEngineWindow()
	var pressed bool
	require.NoError(t, w.BindKey(common.ModControl, common.KeyR, func() { pressed = true }))

	// caps lock and num lock bits as reported by GLFW
	assert.True(t, w.dispatchKey(common.ModControl|0x0010|0x0020, common.KeyR))
	assert.True(t, pressed)
}

func TestBindKeyRejectsDuplicatesAndNil(t *testing.T) {
	w := newEngineWindow()
	require.NoError(t, w.BindKey(common.ModSuper, common.Key9, func() {}))

	err := w.BindKey(common.ModSuper, common.Key9, func() {})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "super+9")

	assert.Error(t, w.BindKey(common.ModSuper, common.Key0, nil))
}

func TestResizedUpdatesSize(t *testing.T) {
	w := newEngineWindow()
	var got [2]int
	w.SetResizeCallback(func(width, height int) { got = [2]int{width, height} })

	w.resized(2160, 1200)
	assert.Equal(t, [2]int{2160, 1200}, got)
	assert.Equal(t, common.Size{Width: 2160, Height: 1200}, w.Size())
}

func TestBuilderOptions(t *testing.T) {
	w := newEngineWindow()
	for _, opt := range []WindowBuilderOption{WithTitle("preview"), WithWidth(1280), WithHeight(800), WithVSync(false), WithMaxWidth(4096)} {
		opt(w)
	}
	assert.Equal(t, "preview", w.title)
	assert.Equal(t, common.Size{Width: 1280, Height: 800}, w.Size())
	assert.False(t, w.vsync)
	assert.Equal(t, 4096, w.maxWidth)
	assert.False(t, w.IsRunning())
}
