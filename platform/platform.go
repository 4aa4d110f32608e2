package platform

import (
	"context"
	"errors"
)

// ErrNotAvailable is returned when global input capture or synthesis
// is not implemented for the running platform.
var ErrNotAvailable = errors.New("global input capture not available on this platform")

// Modifiers holds the modifier key state sampled when an event was observed
type Modifiers struct {
	Ctrl  bool
	Shift bool
	Alt   bool
	Win   bool
}

// KeyEvent is a low-level keyboard event observed system-wide
type KeyEvent struct {
	VK       uint32 // Virtual key code
	Scan     uint32 // Hardware scan code
	Down     bool
	Injected bool // Synthesized by SendInput or a similar API
	Mods     Modifiers
}

// MouseButton identifies a mouse button
type MouseButton int

const (
	LeftButton MouseButton = iota
	RightButton
	MiddleButton
)

// MouseEvent is a low-level mouse button-down event in screen coordinates
type MouseEvent struct {
	Button MouseButton
	X, Y   int32
}

// Handler receives events on the capture thread. Every method must return
// promptly; the OS detaches hooks whose callbacks stall.
type Handler interface {
	// HandleKey returns true to swallow the key event.
	HandleKey(ev KeyEvent) bool
	HandleMouse(ev MouseEvent)
	// HandleWake runs on the capture thread after Wake was called.
	HandleWake()
}

// Hook installs the global keyboard and mouse observers
type Hook interface {
	// Run installs the observers and pumps events on the calling goroutine,
	// locked to its OS thread, until ctx is cancelled. It returns an error
	// immediately if the observers cannot be installed.
	Run(ctx context.Context, h Handler) error

	// Wake asks the capture thread to call Handler.HandleWake.
	Wake()
}

// Translator converts a virtual key into the character it produces
type Translator interface {
	Translate(vk, scan uint32, shift bool) (rune, bool)
}

// WindowLocator answers window-under-point queries
type WindowLocator interface {
	WindowAt(x, y int32) uintptr
	Parent(hwnd uintptr) uintptr
}

// Synthesizer submits synthesized keyboard input to the focused application
type Synthesizer interface {
	SendBackspaces(n int) error
	SendText(text string) error
}

// Input bundles the platform capabilities the core depends on
type Input struct {
	Hook        Hook
	Translator  Translator
	Locator     WindowLocator
	Synthesizer Synthesizer
}
