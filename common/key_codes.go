package common

import (
	"fmt"
	"strings"
)

// KeyCode is a virtual key code.
// The values match GLFW key codes which use ASCII values for printable keys.
// Reference: https://pkg.go.dev/github.com/go-gl/glfw/v3.3/glfw#Key
type KeyCode uint32

const (
	KeyW         KeyCode = 87  // W key (ASCII)
	KeyA         KeyCode = 65  // A key (ASCII)
	KeyS         KeyCode = 83  // S key (ASCII)
	KeyD         KeyCode = 68  // D key (ASCII)
	KeyQ         KeyCode = 81  // Q key (ASCII)
	KeyE         KeyCode = 69  // E key (ASCII)
	KeyR         KeyCode = 82  // R key (ASCII)
	KeySpace     KeyCode = 32  // Spacebar (ASCII)
	KeyBackspace KeyCode = 259 // Backspace key (GLFW)
	KeyEsc       KeyCode = 256 // Escape key (GLFW)

	Key0 KeyCode = 48 // 0 key (ASCII)
	Key1 KeyCode = 49 // 1 key (ASCII)
	Key2 KeyCode = 50 // 2 key (ASCII)
	Key3 KeyCode = 51 // 3 key (ASCII)
	Key4 KeyCode = 52 // 4 key (ASCII)
	Key5 KeyCode = 53 // 5 key (ASCII)
	Key6 KeyCode = 54 // 6 key (ASCII)
	Key7 KeyCode = 55 // 7 key (ASCII)
	Key8 KeyCode = 56 // 8 key (ASCII)
	Key9 KeyCode = 57 // 9 key (ASCII)
)

// ModifierKey is a bit set of held modifier keys.
// The bits match glfw.ModifierKey.
type ModifierKey uint32

const (
	ModShift   ModifierKey = 0x0001
	ModControl ModifierKey = 0x0002
	ModAlt     ModifierKey = 0x0004
	ModSuper   ModifierKey = 0x0008
)

// KeyChord is a key pressed together with a set of modifiers.
type KeyChord struct {
	Mods ModifierKey
	Key  KeyCode
}

func (c KeyChord) String() string {
	var parts []string
	for _, m := range modifierNames {
		if c.Mods&m.mod != 0 {
			parts = append(parts, m.name)
		}
	}
	name, ok := keyNameOf(c.Key)
	if !ok {
		name = fmt.Sprintf("key(%d)", uint32(c.Key))
	}
	return strings.Join(append(parts, name), "+")
}

var modifierNames = []struct {
	name string
	mod  ModifierKey
}{
	{"shift", ModShift},
	{"ctrl", ModControl},
	{"alt", ModAlt},
	{"super", ModSuper},
}

var namedKeys = map[string]KeyCode{
	"space":     KeySpace,
	"backspace": KeyBackspace,
	"esc":       KeyEsc,
	"escape":    KeyEsc,
}

func keyNameOf(k KeyCode) (string, bool) {
	if (k >= Key0 && k <= Key9) || (k >= KeyA && k <= 90) {
		return strings.ToLower(string(rune(k))), true
	}
	for name, code := range namedKeys {
		if code == k && name != "escape" {
			return name, true
		}
	}
	return "", false
}

// ParseKeyChord parses a binding such as "super+5" or "ctrl+shift+r".
// Modifier and key names are case-insensitive; "mod4" and "logo" are accepted for super,
// and "control" for ctrl. Exactly one non-modifier key must be present.
//
// Parameters:
//   - s: the textual chord
//
// Returns:
//   - KeyChord: the parsed chord
//   - error: an error if the chord is empty, names an unknown key, or has no key
func ParseKeyChord(s string) (KeyChord, error) {
	var chord KeyChord
	var haveKey bool
	for _, raw := range strings.Split(s, "+") {
		part := strings.ToLower(strings.TrimSpace(raw))
		switch part {
		case "":
			return KeyChord{}, fmt.Errorf("invalid key chord %q: empty component", s)
		case "shift":
			chord.Mods |= ModShift
			continue
		case "ctrl", "control":
			chord.Mods |= ModControl
			continue
		case "alt":
			chord.Mods |= ModAlt
			continue
		case "super", "mod4", "logo":
			chord.Mods |= ModSuper
			continue
		}

		if haveKey {
			return KeyChord{}, fmt.Errorf("invalid key chord %q: more than one key", s)
		}
		if code, ok := namedKeys[part]; ok {
			chord.Key = code
		} else if len(part) == 1 && ((part[0] >= '0' && part[0] <= '9') || (part[0] >= 'a' && part[0] <= 'z')) {
			chord.Key = KeyCode(strings.ToUpper(part)[0])
		} else {
			return KeyChord{}, fmt.Errorf("invalid key chord %q: unknown key %q", s, part)
		}
		haveKey = true
	}
	if !haveKey {
		return KeyChord{}, fmt.Errorf("invalid key chord %q: no key", s)
	}
	return chord, nil
}
