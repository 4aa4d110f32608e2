package monitor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"markestedt/emoki/platform"
	"markestedt/emoki/selection"
)

type fakeHook struct {
	wakes  int
	runErr error
}

func (f *fakeHook) Run(ctx context.Context, h platform.Handler) error {
	if f.runErr != nil {
		return f.runErr
	}
	<-ctx.Done()
	return nil
}

func (f *fakeHook) Wake() { f.wakes++ }

// asciiTranslator maps letter and digit keys plus a few OEM keys
type asciiTranslator struct{}

func (asciiTranslator) Translate(vk, scan uint32, shift bool) (rune, bool) {
	switch {
	case vk >= 'A' && vk <= 'Z':
		if shift {
			return rune(vk), true
		}
		return rune(vk) + ('a' - 'A'), true
	case vk == 0xBA: // OEM_1, ';' or ':' with shift
		if shift {
			return ':', true
		}
		return ';', true
	case vk == 0xBD: // OEM_MINUS
		if shift {
			return '_', true
		}
		return '-', true
	case vk == platform.VKSpace:
		return ' ', true
	case vk >= '0' && vk <= '9':
		return rune(vk), true
	}
	return 0, false
}

type fakeLocator struct {
	under  uintptr
	parent uintptr
}

func (f fakeLocator) WindowAt(x, y int32) uintptr   { return f.under }
func (f fakeLocator) Parent(hwnd uintptr) uintptr { return f.parent }

type fakeSink struct {
	buffers   []string
	active    bool
	navs      []selection.Direction
	confirm   bool
	confirms  []string
	pauses    []bool
	panicNext bool
}

func (f *fakeSink) BufferChanged(v string) {
	if f.panicNext {
		f.panicNext = false
		panic("subscriber blew up")
	}
	f.buffers = append(f.buffers, v)
}

func (f *fakeSink) SuggestionsActive() bool { return f.active }

func (f *fakeSink) NavigateRequested(d selection.Direction) { f.navs = append(f.navs, d) }

func (f *fakeSink) ConfirmRequested(snapshot string) bool {
	f.confirms = append(f.confirms, snapshot)
	return f.confirm
}

func (f *fakeSink) PauseChanged(paused bool) { f.pauses = append(f.pauses, paused) }

func (f *fakeSink) last() string {
	if len(f.buffers) == 0 {
		return ""
	}
	return f.buffers[len(f.buffers)-1]
}

func newTestMonitor(opts ...Option) (*Monitor, *fakeSink, *fakeHook) {
	hook := &fakeHook{}
	sink := &fakeSink{}
	m := New(platform.Input{
		Hook:       hook,
		Translator: asciiTranslator{},
		Locator:    fakeLocator{under: 0x100},
	}, sink, opts...)
	return m, sink, hook
}

func down(vk uint32) platform.KeyEvent {
	return platform.KeyEvent{VK: vk, Down: true}
}

func shifted(vk uint32) platform.KeyEvent {
	return platform.KeyEvent{VK: vk, Down: true, Mods: platform.Modifiers{Shift: true}}
}

// typeText presses keys for lowercase letters, ':' and '_'
func typeText(m *Monitor, s string) {
	for _, c := range s {
		switch {
		case c == ':':
			m.HandleKey(shifted(0xBA))
		case c == '_':
			m.HandleKey(shifted(0xBD))
		case c >= 'a' && c <= 'z':
			m.HandleKey(down(uint32(c - 'a' + 'A')))
		case c >= '0' && c <= '9':
			m.HandleKey(down(uint32(c)))
		case c == ' ':
			m.HandleKey(down(platform.VKSpace))
		}
	}
}

func TestTypingPublishesBuffer(t *testing.T) {
	m, sink, _ := newTestMonitor()

	typeText(m, "hi:so")
	assert.Equal(t, []string{"h", "hi", "hi:", "hi:s", "hi:so"}, sink.buffers)

	m.HandleKey(shifted('B'))
	assert.Equal(t, "hi:soB", sink.last())
}

func TestBackspace(t *testing.T) {
	m, sink, _ := newTestMonitor()

	typeText(m, "ab:")
	suppressed := m.HandleKey(down(platform.VKBack))

	assert.False(t, suppressed)
	assert.Equal(t, "", sink.last(), "deleting the trigger empties the buffer")
}

func TestKeyUpAndInjectedEventsIgnored(t *testing.T) {
	m, sink, _ := newTestMonitor()

	m.HandleKey(platform.KeyEvent{VK: 'A', Down: false})
	m.HandleKey(platform.KeyEvent{VK: platform.VKBack, Down: true, Injected: true})
	m.HandleKey(platform.KeyEvent{VK: platform.VKPacket, Down: true, Injected: true})

	assert.Empty(t, sink.buffers)
}

func TestCtrlAltCharactersIgnored(t *testing.T) {
	m, sink, _ := newTestMonitor()

	m.HandleKey(platform.KeyEvent{VK: 'C', Down: true, Mods: platform.Modifiers{Ctrl: true}})
	m.HandleKey(platform.KeyEvent{VK: 'C', Down: true, Mods: platform.Modifiers{Alt: true}})
	m.HandleKey(down(0x70)) // F1

	assert.Empty(t, sink.buffers)
}

func TestUntranslatableKeyIgnored(t *testing.T) {
	m, sink, _ := newTestMonitor()

	m.HandleKey(down(0xDE)) // OEM_7, not mapped by the fake translator
	assert.Empty(t, sink.buffers)
}

func TestEnterWithoutSelectionAppendsSeparator(t *testing.T) {
	m, sink, _ := newTestMonitor()

	typeText(m, "ab")
	suppressed := m.HandleKey(down(platform.VKReturn))

	assert.False(t, suppressed)
	assert.Equal(t, []string{"ab"}, sink.confirms)
	assert.Equal(t, "ab ", sink.last())
}

func TestEnterAfterTriggerAddsNoSeparator(t *testing.T) {
	m, sink, _ := newTestMonitor()

	typeText(m, "ab:")
	n := len(sink.buffers)
	m.HandleKey(down(platform.VKTab))

	assert.Len(t, sink.buffers, n)
	assert.Equal(t, "ab:", sink.last())
}

func TestEnterConfirmsAndSuppresses(t *testing.T) {
	m, sink, _ := newTestMonitor()
	sink.confirm = true

	typeText(m, "hello:wor")
	n := len(sink.buffers)
	suppressed := m.HandleKey(down(platform.VKReturn))

	assert.True(t, suppressed)
	assert.Equal(t, []string{"hello:wor"}, sink.confirms)
	assert.Len(t, sink.buffers, n, "confirm does not touch the buffer")
}

func TestEnterWithModifiersPassesThrough(t *testing.T) {
	m, sink, _ := newTestMonitor()
	sink.confirm = true

	typeText(m, ":sob")
	suppressed := m.HandleKey(platform.KeyEvent{VK: platform.VKReturn, Down: true, Mods: platform.Modifiers{Ctrl: true}})

	assert.False(t, suppressed)
	assert.Empty(t, sink.confirms)
}

func TestNavigationOnlyWhenActive(t *testing.T) {
	m, sink, _ := newTestMonitor()

	assert.False(t, m.HandleKey(down(platform.VKDown)))
	assert.Empty(t, sink.navs)

	sink.active = true
	assert.True(t, m.HandleKey(down(platform.VKDown)))
	assert.True(t, m.HandleKey(down(platform.VKUp)))
	assert.Equal(t, []selection.Direction{selection.Down, selection.Up}, sink.navs)
}

func TestMouseClickOutsideOverlayResets(t *testing.T) {
	m, sink, _ := newTestMonitor()
	m.RegisterOverlayWindow(0x200)

	typeText(m, ":so")
	m.HandleMouse(platform.MouseEvent{Button: platform.LeftButton, X: 10, Y: 10})

	assert.Equal(t, "", sink.last())
}

func TestMouseClickInsideOverlayKeepsBuffer(t *testing.T) {
	for _, loc := range []fakeLocator{{under: 0x200}, {under: 0x300, parent: 0x200}} {
		sink := &fakeSink{}
		m := New(platform.Input{Hook: &fakeHook{}, Translator: asciiTranslator{}, Locator: loc}, sink)
		m.RegisterOverlayWindow(0x200)

		typeText(m, ":so")
		m.HandleMouse(platform.MouseEvent{Button: platform.LeftButton})

		assert.Equal(t, ":so", sink.last())
	}
}

func TestRequestResetAppliedOnCaptureThread(t *testing.T) {
	m, sink, hook := newTestMonitor()

	typeText(m, ":sob")
	m.RequestReset()
	assert.Equal(t, 1, hook.wakes)
	assert.Equal(t, ":sob", sink.last(), "not applied until the capture thread wakes")

	m.HandleWake()
	assert.Equal(t, "", sink.last())

	// A second wake with nothing pending publishes nothing
	n := len(sink.buffers)
	m.HandleWake()
	assert.Len(t, sink.buffers, n)
}

func TestPendingResetAppliedBeforeNextKey(t *testing.T) {
	m, sink, _ := newTestMonitor()

	typeText(m, ":sob")
	m.RequestReset()
	typeText(m, "a")

	assert.Equal(t, []string{"", "a"}, sink.buffers[len(sink.buffers)-2:])
}

func TestToggleHotkeyPausesCapture(t *testing.T) {
	combo := platform.KeyCombo{Ctrl: true, Alt: true, Key: 'E'}
	m, sink, _ := newTestMonitor(WithToggle(combo))

	typeText(m, ":so")
	toggle := platform.KeyEvent{VK: 'E', Down: true, Mods: platform.Modifiers{Ctrl: true, Alt: true}}

	assert.True(t, m.HandleKey(toggle))
	assert.True(t, m.Paused())
	assert.Equal(t, "", sink.last())

	n := len(sink.buffers)
	typeText(m, "abc")
	assert.Len(t, sink.buffers, n, "paused capture ignores typing")

	assert.True(t, m.HandleKey(toggle))
	assert.False(t, m.Paused())
	typeText(m, "a")
	assert.Equal(t, "a", sink.last())

	assert.Equal(t, []bool{true, false}, sink.pauses)
}

func TestSetPausedNotifiesOnlyOnChange(t *testing.T) {
	m, sink, _ := newTestMonitor()

	m.SetPaused(true)
	m.SetPaused(true)
	m.SetPaused(false)

	assert.Equal(t, []bool{true, false}, sink.pauses)
}

func TestPanicInSubscriberIsContained(t *testing.T) {
	m, sink, _ := newTestMonitor()
	sink.panicNext = true

	assert.NotPanics(t, func() {
		assert.False(t, m.HandleKey(down('A')))
	})

	typeText(m, "b")
	assert.Equal(t, "ab", sink.last())
}

func TestRunReportsInstallFailure(t *testing.T) {
	hook := &fakeHook{runErr: platform.ErrNotAvailable}
	m := New(platform.Input{Hook: hook, Translator: asciiTranslator{}, Locator: fakeLocator{}}, &fakeSink{})

	err := m.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, platform.ErrNotAvailable))
	assert.False(t, m.Running())
}

func TestRunUntilCancelled(t *testing.T) {
	m, _, _ := newTestMonitor()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	cancel()
	assert.NoError(t, <-done)
}
