package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVKCode(t *testing.T) {
	code, err := VKCode("e")
	require.NoError(t, err)
	assert.Equal(t, 0x45, code)

	code, err = VKCode("")
	require.NoError(t, err)
	assert.Equal(t, 0, code)

	_, err = VKCode("hyper")
	assert.Error(t, err)
}

func TestKeyComboMatches(t *testing.T) {
	combo := KeyCombo{Ctrl: true, Alt: true, Key: 0x45}

	assert.True(t, combo.Matches(KeyEvent{VK: 0x45, Down: true, Mods: Modifiers{Ctrl: true, Alt: true}}))
	assert.False(t, combo.Matches(KeyEvent{VK: 0x45, Down: false, Mods: Modifiers{Ctrl: true, Alt: true}}), "key up")
	assert.False(t, combo.Matches(KeyEvent{VK: 0x45, Down: true, Mods: Modifiers{Ctrl: true}}), "missing alt")
	assert.False(t, combo.Matches(KeyEvent{VK: 0x45, Down: true, Mods: Modifiers{Ctrl: true, Alt: true, Shift: true}}), "extra shift")
	assert.False(t, combo.Matches(KeyEvent{VK: 0x46, Down: true, Mods: Modifiers{Ctrl: true, Alt: true}}), "other key")
}

func TestKeyComboModifierOnly(t *testing.T) {
	combo := KeyCombo{Ctrl: true, Win: true}

	assert.True(t, combo.Matches(KeyEvent{VK: VKLWin, Down: true, Mods: Modifiers{Ctrl: true, Win: true}}))
	assert.True(t, combo.Matches(KeyEvent{VK: VKControl, Down: true, Mods: Modifiers{Ctrl: true, Win: true}}))
	assert.False(t, combo.Matches(KeyEvent{VK: VKShift, Down: true, Mods: Modifiers{Ctrl: true, Win: true, Shift: true}}))
	assert.False(t, combo.Matches(KeyEvent{VK: 0x41, Down: true, Mods: Modifiers{Ctrl: true, Win: true}}))
}
