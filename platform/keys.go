package platform

import "fmt"

// Virtual key codes. Windows codes are used as the canonical key space on
// every platform.
const (
	VKBack    = 0x08
	VKTab     = 0x09
	VKReturn  = 0x0D
	VKShift   = 0x10
	VKControl = 0x11
	VKMenu    = 0x12 // Alt
	VKCapital = 0x14 // Caps Lock
	VKEscape  = 0x1B
	VKSpace   = 0x20
	VKUp      = 0x26
	VKDown    = 0x28
	VKLWin    = 0x5B
	VKRWin    = 0x5C
	VKPacket  = 0xE7 // Unicode packet from SendInput
)

var keyCodes = map[string]int{
	"a": 0x41, "b": 0x42, "c": 0x43, "d": 0x44, "e": 0x45,
	"f": 0x46, "g": 0x47, "h": 0x48, "i": 0x49, "j": 0x4A,
	"k": 0x4B, "l": 0x4C, "m": 0x4D, "n": 0x4E, "o": 0x4F,
	"p": 0x50, "q": 0x51, "r": 0x52, "s": 0x53, "t": 0x54,
	"u": 0x55, "v": 0x56, "w": 0x57, "x": 0x58, "y": 0x59, "z": 0x5A,
	"0": 0x30, "1": 0x31, "2": 0x32, "3": 0x33, "4": 0x34,
	"5": 0x35, "6": 0x36, "7": 0x37, "8": 0x38, "9": 0x39,
	"f1": 0x70, "f2": 0x71, "f3": 0x72, "f4": 0x73,
	"f5": 0x74, "f6": 0x75, "f7": 0x76, "f8": 0x77,
	"f9": 0x78, "f10": 0x79, "f11": 0x7A, "f12": 0x7B,
	"space": VKSpace, "enter": VKReturn, "esc": VKEscape,
	"tab": VKTab, "backspace": VKBack,
}

// VKCode returns the virtual key code for a key name
// Returns 0 for empty string (modifier-only hotkey)
func VKCode(key string) (int, error) {
	if key == "" {
		return 0, nil
	}

	if code, ok := keyCodes[key]; ok {
		return code, nil
	}

	return 0, fmt.Errorf("unknown key: %s", key)
}

// KeyCombo represents a keyboard key combination
type KeyCombo struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Win   bool
	Key   int // Virtual key code, 0 for modifier-only combos
}

// Matches reports whether a key-down event completes the combo.
// Modifier-only combos are completed by pressing their last modifier.
func (c KeyCombo) Matches(ev KeyEvent) bool {
	if !ev.Down {
		return false
	}
	if c.Key == 0 {
		if !c.isModifierKey(ev.VK) {
			return false
		}
	} else if ev.VK != uint32(c.Key) {
		return false
	}

	return ev.Mods.Ctrl == c.Ctrl &&
		ev.Mods.Shift == c.Shift &&
		ev.Mods.Alt == c.Alt &&
		ev.Mods.Win == c.Win
}

func (c KeyCombo) isModifierKey(vk uint32) bool {
	switch vk {
	case VKControl:
		return c.Ctrl
	case VKShift:
		return c.Shift
	case VKMenu:
		return c.Alt
	case VKLWin, VKRWin:
		return c.Win
	}
	return false
}
