//go:build windows

package platform

import (
	"fmt"
	"unicode/utf16"
	"unsafe"
)

var (
	sendInput      = user32.NewProc("SendInput")
	mapVirtualKeyW = user32.NewProc("MapVirtualKeyW")
	toUnicode      = user32.NewProc("ToUnicode")
	getKeyState    = user32.NewProc("GetKeyState")
	windowFromPt   = user32.NewProc("WindowFromPoint")
	getParent      = user32.NewProc("GetParent")
)

const (
	inputKeyboard    = 1
	keyeventfKeyup   = 0x0002
	keyeventfUnicode = 0x0004
	mapvkVkToVsc     = 0

	// Do not change keyboard state (Windows 10 1607+), keeps dead keys intact
	toUnicodeNoState = 0x4
)

type keyboardInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

type input struct {
	inputType uint32
	ki        keyboardInput
	padding   [8]byte // Padding to match C struct size
}

// NewInput returns the Windows implementations of every platform capability
func NewInput() Input {
	return Input{
		Hook:        NewHook(),
		Translator:  WindowsTranslator{},
		Locator:     WindowsLocator{},
		Synthesizer: WindowsSynthesizer{},
	}
}

// WindowsSynthesizer implements the Synthesizer interface with SendInput
type WindowsSynthesizer struct{}

// SendBackspaces sends n backspace key-down/key-up pairs in one batch
func (WindowsSynthesizer) SendBackspaces(n int) error {
	if n <= 0 {
		return nil
	}

	// Scan codes for better compatibility with elevated applications
	backScan, _, _ := mapVirtualKeyW.Call(VKBack, mapvkVkToVsc)

	inputs := make([]input, 0, n*2)
	for i := 0; i < n; i++ {
		inputs = append(inputs,
			input{
				inputType: inputKeyboard,
				ki:        keyboardInput{wVk: VKBack, wScan: uint16(backScan)},
			},
			input{
				inputType: inputKeyboard,
				ki:        keyboardInput{wVk: VKBack, wScan: uint16(backScan), dwFlags: keyeventfKeyup},
			},
		)
	}

	return send(inputs)
}

// SendText types text as Unicode packets, one key-down/key-up pair per
// UTF-16 code unit so surrogate pairs reach the target intact
func (WindowsSynthesizer) SendText(text string) error {
	if text == "" {
		return nil
	}

	units := utf16.Encode([]rune(text))
	inputs := make([]input, 0, len(units)*2)
	for _, u := range units {
		inputs = append(inputs,
			input{
				inputType: inputKeyboard,
				ki:        keyboardInput{wScan: u, dwFlags: keyeventfUnicode},
			},
			input{
				inputType: inputKeyboard,
				ki:        keyboardInput{wScan: u, dwFlags: keyeventfUnicode | keyeventfKeyup},
			},
		)
	}

	return send(inputs)
}

func send(inputs []input) error {
	// Send all inputs at once for better atomicity
	ret, _, err := sendInput.Call(
		uintptr(len(inputs)),
		uintptr(unsafe.Pointer(&inputs[0])),
		unsafe.Sizeof(inputs[0]),
	)

	if ret == 0 {
		return fmt.Errorf("SendInput failed: %w", err)
	}
	if int(ret) != len(inputs) {
		return fmt.Errorf("SendInput accepted %d of %d events", ret, len(inputs))
	}

	return nil
}

// WindowsTranslator implements the Translator interface with ToUnicode
type WindowsTranslator struct{}

// Translate returns the visible character produced by vk with the given shift state
func (WindowsTranslator) Translate(vk, scan uint32, shift bool) (rune, bool) {
	var state [256]byte
	if shift {
		state[VKShift] = 0x80
	}
	if capsLock, _, _ := getKeyState.Call(VKCapital); capsLock&1 != 0 {
		state[VKCapital] = 0x01
	}

	var buf [4]uint16
	n, _, _ := toUnicode.Call(
		uintptr(vk),
		uintptr(scan),
		uintptr(unsafe.Pointer(&state[0])),
		uintptr(unsafe.Pointer(&buf[0])),
		uintptr(len(buf)),
		toUnicodeNoState,
	)
	if int32(n) != 1 {
		return 0, false
	}

	c := rune(buf[0])
	if c < 0x20 {
		return 0, false
	}
	return c, true
}

// WindowsLocator implements the WindowLocator interface
type WindowsLocator struct{}

// WindowAt returns the window under a screen point
func (WindowsLocator) WindowAt(x, y int32) uintptr {
	// POINT is passed by value packed into one register on amd64/arm64
	pt := uintptr(uint32(x)) | uintptr(uint32(y))<<32
	hwnd, _, _ := windowFromPt.Call(pt)
	return hwnd
}

// Parent returns the parent window, or 0
func (WindowsLocator) Parent(hwnd uintptr) uintptr {
	if hwnd == 0 {
		return 0
	}
	p, _, _ := getParent.Call(hwnd)
	return p
}
