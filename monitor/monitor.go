package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"markestedt/emoki/buffer"
	"markestedt/emoki/platform"
	"markestedt/emoki/selection"
)

// Sink receives the monitor's notifications on the capture thread.
// Implementations must not block.
type Sink interface {
	// BufferChanged is called after every buffer mutation.
	BufferChanged(value string)

	// SuggestionsActive reports whether a suggestion list is showing.
	SuggestionsActive() bool

	// NavigateRequested asks for the highlight to move.
	NavigateRequested(dir selection.Direction)

	// ConfirmRequested asks to inject the highlighted suggestion using the
	// given buffer snapshot. Returning true swallows the confirming key.
	ConfirmRequested(snapshot string) bool

	// PauseChanged is called whenever capture is paused or resumed, from
	// the goroutine that changed it.
	PauseChanged(paused bool)
}

// Monitor owns the hook lifecycle and the character buffer.
// HandleKey, HandleMouse and HandleWake run on the capture thread inside the
// OS hook callback; they never block and never let a panic escape.
type Monitor struct {
	hook       platform.Hook
	translator platform.Translator
	locator    platform.WindowLocator
	sink       Sink
	machine    *buffer.Machine

	toggle  platform.KeyCombo
	overlay atomic.Uintptr
	paused  atomic.Bool
	running atomic.Bool

	// Requests from other goroutines, applied on the capture thread
	resetPending atomic.Bool
	pausePending atomic.Bool
}

// Option configures a Monitor
type Option func(*Monitor)

// WithToggle sets the key combo that pauses and resumes capture
func WithToggle(combo platform.KeyCombo) Option {
	return func(m *Monitor) {
		m.toggle = combo
	}
}

// New creates a monitor. The buffer starts empty.
func New(in platform.Input, sink Sink, opts ...Option) *Monitor {
	m := &Monitor{
		hook:       in.Hook,
		translator: in.Translator,
		locator:    in.Locator,
		sink:       sink,
	}
	m.machine = buffer.New(sink.BufferChanged)

	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run installs the global observers and pumps events until ctx is
// cancelled. It returns early with an error if installation fails.
func (m *Monitor) Run(ctx context.Context) error {
	if !m.running.CompareAndSwap(false, true) {
		return fmt.Errorf("monitor already running")
	}
	defer m.running.Store(false)

	slog.Info("Input capture starting")
	if err := m.hook.Run(ctx, m); err != nil {
		return fmt.Errorf("failed to install input hooks: %w", err)
	}
	slog.Info("Input capture stopped")
	return nil
}

// Running reports whether the hooks are installed
func (m *Monitor) Running() bool {
	return m.running.Load()
}

// RegisterOverlayWindow sets the window whose clicks do not reset the buffer
func (m *Monitor) RegisterOverlayWindow(hwnd uintptr) {
	m.overlay.Store(hwnd)
}

// RequestReset asks the capture thread to empty the buffer. Safe to call
// from any goroutine.
func (m *Monitor) RequestReset() {
	m.resetPending.Store(true)
	m.hook.Wake()
}

// SetPaused pauses or resumes capture. Safe to call from any goroutine.
func (m *Monitor) SetPaused(paused bool) {
	if m.paused.Swap(paused) == paused {
		return
	}
	slog.Info("Input capture toggled", "paused", paused)
	if paused {
		m.pausePending.Store(true)
		m.hook.Wake()
	}
	m.sink.PauseChanged(paused)
}

// Paused reports whether capture is paused
func (m *Monitor) Paused() bool {
	return m.paused.Load()
}

// HandleWake applies requests posted from other goroutines
func (m *Monitor) HandleWake() {
	defer m.recover("wake")
	m.applyPending()
}

func (m *Monitor) applyPending() {
	reset := m.resetPending.Swap(false)
	if m.pausePending.Swap(false) {
		reset = true
	}
	if reset {
		m.machine.Apply(buffer.Action{Kind: buffer.Reset})
	}
}

// HandleKey classifies a keyboard event and applies the resulting action.
// It returns true when the physical key must be swallowed.
func (m *Monitor) HandleKey(ev platform.KeyEvent) (suppress bool) {
	defer m.recover("keyboard")

	m.applyPending()

	if !ev.Down || ev.Injected {
		return false
	}

	if m.toggle != (platform.KeyCombo{}) && m.toggle.Matches(ev) {
		m.SetPaused(!m.paused.Load())
		m.applyPending()
		return true
	}

	if m.paused.Load() {
		return false
	}

	switch ev.VK {
	case platform.VKBack:
		m.machine.Apply(buffer.Action{Kind: buffer.RemoveLast})
		return false

	case platform.VKReturn, platform.VKTab:
		if ev.Mods.Ctrl || ev.Mods.Alt {
			return false
		}
		if m.sink.ConfirmRequested(m.machine.Value()) {
			return true
		}
		// No separator right after the trigger
		if last, ok := m.machine.Last(); !ok || last != buffer.Trigger {
			m.machine.Apply(buffer.Action{Kind: buffer.AppendSeparator})
		}
		return false

	case platform.VKUp, platform.VKDown:
		if !m.sink.SuggestionsActive() {
			return false
		}
		dir := selection.Down
		if ev.VK == platform.VKUp {
			dir = selection.Up
		}
		m.sink.NavigateRequested(dir)
		return true
	}

	if !isPrintable(ev.VK) || ev.Mods.Ctrl || ev.Mods.Alt {
		return false
	}

	c, ok := m.translator.Translate(ev.VK, ev.Scan, ev.Mods.Shift)
	if !ok {
		return false
	}
	m.machine.Apply(buffer.Char(c))
	return false
}

// HandleMouse resets the buffer when a button goes down outside the overlay
func (m *Monitor) HandleMouse(ev platform.MouseEvent) {
	defer m.recover("mouse")

	m.applyPending()

	overlay := m.overlay.Load()
	if overlay != 0 {
		under := m.locator.WindowAt(ev.X, ev.Y)
		if under == overlay || m.locator.Parent(under) == overlay {
			return
		}
	}

	if m.machine.Len() > 0 {
		m.machine.Apply(buffer.Action{Kind: buffer.Reset})
	}
}

func (m *Monitor) recover(where string) {
	if r := recover(); r != nil {
		slog.Error("Recovered panic in input callback", "callback", where, "panic", r)
	}
}

// isPrintable reports whether vk is in a character-producing range:
// digits and letters, OEM punctuation, numpad, and space
func isPrintable(vk uint32) bool {
	switch {
	case vk >= 0x30 && vk <= 0x5A:
	case vk >= 0xBA && vk <= 0xC0:
	case vk >= 0xDB && vk <= 0xDF:
	case vk >= 0x60 && vk <= 0x6F:
	case vk == platform.VKSpace:
	default:
		return false
	}
	return true
}
