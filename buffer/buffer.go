package buffer

import "slices"

// Trigger starts a shortcut token and switches the buffer to Unlimited mode
const Trigger = ':'

const (
	LimitedMax   = 5
	UnlimitedMax = 16
)

// Mode is the capacity regime of the buffer
type Mode int

const (
	Limited Mode = iota
	Unlimited
)

func (m Mode) String() string {
	if m == Unlimited {
		return "unlimited"
	}
	return "limited"
}

// ActionKind identifies a buffer mutation
type ActionKind int

const (
	AppendChar ActionKind = iota
	AppendSeparator
	RemoveLast
	Reset
)

// Action is a semantic buffer mutation derived from an input event
type Action struct {
	Kind ActionKind
	Char rune // AppendChar only
}

// Char returns an AppendChar action
func Char(c rune) Action { return Action{Kind: AppendChar, Char: c} }

// Machine applies actions to the buffer. It is not safe for concurrent
// use: it has a single writer, the capture thread, and hands out string
// snapshots to everyone else.
type Machine struct {
	buf     []rune
	mode    Mode
	publish func(string)
}

// New creates an empty buffer. publish, if non-nil, receives the buffer
// value after every applied action.
func New(publish func(string)) *Machine {
	return &Machine{
		buf:     make([]rune, 0, UnlimitedMax+1),
		publish: publish,
	}
}

// Value returns a snapshot of the buffer
func (m *Machine) Value() string {
	return string(m.buf)
}

// Len returns the number of characters in the buffer
func (m *Machine) Len() int {
	return len(m.buf)
}

// Mode returns the current capacity regime
func (m *Machine) Mode() Mode {
	return m.mode
}

// Last returns the last character, if any
func (m *Machine) Last() (rune, bool) {
	if len(m.buf) == 0 {
		return 0, false
	}
	return m.buf[len(m.buf)-1], true
}

// Apply mutates the buffer, enforces the capacity rules and publishes
// the result. It returns the new buffer value.
func (m *Machine) Apply(a Action) string {
	wasUnlimited := m.mode == Unlimited

	switch a.Kind {
	case AppendChar:
		m.buf = append(m.buf, a.Char)
		m.enforce(wasUnlimited)
	case AppendSeparator:
		m.buf = append(m.buf, ' ')
		m.enforce(wasUnlimited)
	case RemoveLast:
		if len(m.buf) > 0 {
			m.buf = m.buf[:len(m.buf)-1]
		}
		m.enforce(wasUnlimited)
	case Reset:
		m.buf = m.buf[:0]
	}

	m.mode = modeOf(m.buf)

	value := string(m.buf)
	if m.publish != nil {
		m.publish(value)
	}
	return value
}

// enforce applies the length rules. wasUnlimited is the mode held before
// the action, so removing the trigger is seen as leaving Unlimited mode.
func (m *Machine) enforce(wasUnlimited bool) {
	if wasUnlimited && len(m.buf) > UnlimitedMax {
		// A runaway capture is discarded; truncating could cut the token start
		m.buf = m.buf[:0]
		return
	}

	isUnlimited := slices.Contains(m.buf, Trigger)
	switch {
	case !isUnlimited && len(m.buf) > LimitedMax:
		m.buf = append(m.buf[:0], m.buf[len(m.buf)-LimitedMax:]...)
	case !isUnlimited && wasUnlimited:
		m.buf = m.buf[:0]
	}
}

func modeOf(buf []rune) Mode {
	if slices.Contains(buf, Trigger) {
		return Unlimited
	}
	return Limited
}
