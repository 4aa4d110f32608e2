package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaults(t *testing.T) {
	t.Setenv("APPDATA", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	path, err := ConfigPath()
	require.NoError(t, err)
	assert.FileExists(t, path)
	assert.Equal(t, path, cfg.Path())
	assert.Equal(t, Default().Web.Port, cfg.Web.Port)
	assert.Equal(t, 30*time.Millisecond, cfg.FocusDelay())
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[capture]
toggle = "ctrl+shift+f12"

[injection]
focus_delay_ms = 50

[web]
port = 8080

[logging]
level = "debug"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "ctrl+shift+f12", cfg.Capture.Toggle)
	assert.True(t, cfg.Capture.Enabled, "unset values keep their defaults")
	assert.Equal(t, 50*time.Millisecond, cfg.FocusDelay())
	assert.Equal(t, 8080, cfg.Web.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFileRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[web]\nport = 70000\n"), 0644))

	_, err := LoadFile(path)
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("not toml ==="), 0644))
	_, err = LoadFile(path)
	assert.Error(t, err)
}

func TestLoadFileRejectsUnknownToggleKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("[capture]\ntoggle = \"ctrl+alt+pgup\"\n"), 0644))

	_, err := LoadFile(path)
	assert.ErrorContains(t, err, "unknown key: pgup")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg, err := LoadFile(path)
	require.NoError(t, err)

	cfg.Injection.FocusDelayMs = 75
	cfg.Tray.Enabled = false
	require.NoError(t, cfg.Save())

	reloaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 75, reloaded.Injection.FocusDelayMs)
	assert.False(t, reloaded.Tray.Enabled)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Injection.FocusDelayMs = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Logging.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Capture.Toggle = "hyper+e"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Capture.Toggle = "ctrl+alt+pgup"
	assert.Error(t, cfg.Validate(), "key must have a virtual key code")

	cfg = Default()
	cfg.Capture.Toggle = "ctrl+win"
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.Capture.Toggle = ""
	assert.NoError(t, cfg.Validate())
}

func TestParseLevel(t *testing.T) {
	level, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestParseHotkey(t *testing.T) {
	kc, err := ParseHotkey("ctrl+alt+e")
	require.NoError(t, err)
	assert.Equal(t, KeyCombo{Ctrl: true, Alt: true, Key: "e"}, kc)

	kc, err = ParseHotkey("Ctrl + Win")
	require.NoError(t, err)
	assert.Equal(t, KeyCombo{Ctrl: true, Win: true}, kc)

	_, err = ParseHotkey("e")
	assert.Error(t, err)

	_, err = ParseHotkey("super+e")
	assert.Error(t, err)

	_, err = ParseHotkey("")
	assert.Error(t, err)
}
