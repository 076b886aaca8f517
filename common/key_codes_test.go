package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeyChord(t *testing.T) {
	tests := []struct {
		in   string
		want KeyChord
	}{
		{"super+5", KeyChord{Mods: ModSuper, Key: Key5}},
		{"Super + 0", KeyChord{Mods: ModSuper, Key: Key0}},
		{"mod4+9", KeyChord{Mods: ModSuper, Key: Key9}},
		{"ctrl+shift+r", KeyChord{Mods: ModControl | ModShift, Key: KeyR}},
		{"alt+space", KeyChord{Mods: ModAlt, Key: KeySpace}},
		{"q", KeyChord{Key: KeyQ}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKeyChord(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseKeyChordErrors(t *testing.T) {
	for _, in := range []string{"", "super+", "super", "super+5+6", "super+f13"} {
		_, err := ParseKeyChord(in)
		assert.Error(t, err, in)
	}
}

func TestKeyChordString(t *testing.T) {
	assert.Equal(t, "super+5", KeyChord{Mods: ModSuper, Key: Key5}.String())
	assert.Equal(t, "shift+ctrl+r", KeyChord{Mods: ModControl | ModShift, Key: KeyR}.String())
	assert.Equal(t, "esc", KeyChord{Key: KeyEsc}.String())
}
