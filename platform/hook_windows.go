//go:build windows

package platform

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	setWindowsHookEx    = user32.NewProc("SetWindowsHookExW")
	callNextHookEx      = user32.NewProc("CallNextHookEx")
	unhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	getMessage          = user32.NewProc("GetMessageW")
	translateMessage    = user32.NewProc("TranslateMessage")
	dispatchMessage     = user32.NewProc("DispatchMessageW")
	postThreadMessage   = user32.NewProc("PostThreadMessageW")
	getAsyncKeyState    = user32.NewProc("GetAsyncKeyState")
)

const (
	whKeyboardLL = 13
	whMouseLL    = 14

	wmQuit        = 0x0012
	wmKeydown     = 0x0100
	wmKeyup       = 0x0101
	wmSyskeydown  = 0x0104
	wmSyskeyup    = 0x0105
	wmLbuttondown = 0x0201
	wmRbuttondown = 0x0204
	wmMbuttondown = 0x0207
	wmApp         = 0x8000
	wmWake        = wmApp + 1

	llkhfInjected = 0x10
)

// Left/right variants reported by low-level hooks
const (
	vkLShift   = 0xA0
	vkRShift   = 0xA1
	vkLControl = 0xA2
	vkRControl = 0xA3
	vkLMenu    = 0xA4
	vkRMenu    = 0xA5
)

type kbdllhookstruct struct {
	vkCode      uint32
	scanCode    uint32
	flags       uint32
	time        uint32
	dwExtraInfo uintptr
}

type msllhookstruct struct {
	pt          struct{ x, y int32 }
	mouseData   uint32
	flags       uint32
	time        uint32
	dwExtraInfo uintptr
}

type msg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      struct{ x, y int32 }
}

// Windows allows a bounded number of callbacks per process, so the hook
// procedures are created once and dispatch to whichever hook is running.
var (
	callbacksOnce sync.Once
	keyboardProc  uintptr
	mouseProc     uintptr
	activeHook    atomic.Pointer[WindowsHook]
)

// WindowsHook implements the Hook interface with WH_KEYBOARD_LL and
// WH_MOUSE_LL hooks
type WindowsHook struct {
	mu        sync.Mutex
	threadID  uint32
	keyboard  uintptr
	mouse     uintptr
	handler   Handler
	installed bool
}

// NewHook creates a new Windows low-level hook
func NewHook() *WindowsHook {
	return &WindowsHook{}
}

// Run installs both hooks and runs the message loop until ctx is cancelled
func (h *WindowsHook) Run(ctx context.Context, handler Handler) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if !activeHook.CompareAndSwap(nil, h) {
		return fmt.Errorf("another input hook is already running")
	}
	defer activeHook.Store(nil)

	callbacksOnce.Do(func() {
		keyboardProc = windows.NewCallback(keyboardCallback)
		mouseProc = windows.NewCallback(mouseCallback)
	})

	h.mu.Lock()
	h.handler = handler
	h.threadID = windows.GetCurrentThreadId()
	h.mu.Unlock()

	kb, _, err := setWindowsHookEx.Call(whKeyboardLL, keyboardProc, 0, 0)
	if kb == 0 {
		return fmt.Errorf("SetWindowsHookEx keyboard failed: %w", err)
	}

	ms, _, err := setWindowsHookEx.Call(whMouseLL, mouseProc, 0, 0)
	if ms == 0 {
		unhookWindowsHookEx.Call(kb)
		return fmt.Errorf("SetWindowsHookEx mouse failed: %w", err)
	}

	h.mu.Lock()
	h.keyboard = kb
	h.mouse = ms
	h.installed = true
	h.mu.Unlock()

	defer h.uninstall()

	stop := context.AfterFunc(ctx, func() {
		h.post(wmQuit)
	})
	defer stop()

	// Message loop; low-level hooks are only called while it pumps
	var m msg
	for {
		r, _, err := getMessage.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		switch int32(r) {
		case 0:
			return nil
		case -1:
			return fmt.Errorf("GetMessage failed: %w", err)
		}

		if m.hwnd == 0 && m.message == wmWake {
			handler.HandleWake()
			continue
		}

		translateMessage.Call(uintptr(unsafe.Pointer(&m)))
		dispatchMessage.Call(uintptr(unsafe.Pointer(&m)))
	}
}

// Wake posts a wake message to the capture thread
func (h *WindowsHook) Wake() {
	h.post(wmWake)
}

func (h *WindowsHook) post(message uint32) {
	h.mu.Lock()
	tid := h.threadID
	h.mu.Unlock()

	if tid != 0 {
		postThreadMessage.Call(uintptr(tid), uintptr(message), 0, 0)
	}
}

func (h *WindowsHook) uninstall() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.installed {
		return
	}
	unhookWindowsHookEx.Call(h.keyboard)
	unhookWindowsHookEx.Call(h.mouse)
	h.keyboard, h.mouse = 0, 0
	h.installed = false
	h.threadID = 0
}

func keyboardCallback(nCode int32, wParam uintptr, lParam uintptr) uintptr {
	if h := activeHook.Load(); h != nil && nCode >= 0 {
		kbInfo := (*kbdllhookstruct)(unsafe.Pointer(lParam))
		if h.handleKeyEvent(wParam, kbInfo) {
			return 1
		}
	}
	r, _, _ := callNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return r
}

func mouseCallback(nCode int32, wParam uintptr, lParam uintptr) uintptr {
	if h := activeHook.Load(); h != nil && nCode >= 0 {
		var button MouseButton
		isDown := true
		switch wParam {
		case wmLbuttondown:
			button = LeftButton
		case wmRbuttondown:
			button = RightButton
		case wmMbuttondown:
			button = MiddleButton
		default:
			isDown = false
		}

		if isDown {
			info := (*msllhookstruct)(unsafe.Pointer(lParam))
			h.handler.HandleMouse(MouseEvent{Button: button, X: info.pt.x, Y: info.pt.y})
		}
	}
	r, _, _ := callNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return r
}

func (h *WindowsHook) handleKeyEvent(wParam uintptr, kbInfo *kbdllhookstruct) bool {
	var isKeyDown bool
	switch wParam {
	case wmKeydown, wmSyskeydown:
		isKeyDown = true
	case wmKeyup, wmSyskeyup:
		isKeyDown = false
	default:
		return false
	}

	vk := normalizeVK(kbInfo.vkCode)
	ev := KeyEvent{
		VK:       vk,
		Scan:     kbInfo.scanCode,
		Down:     isKeyDown,
		Injected: kbInfo.flags&llkhfInjected != 0,
		Mods:     currentModifiers(),
	}

	// Async key state is updated after low-level hooks run, so account
	// for the modifier being pressed or released right now.
	switch vk {
	case VKControl:
		ev.Mods.Ctrl = isKeyDown
	case VKShift:
		ev.Mods.Shift = isKeyDown
	case VKMenu:
		ev.Mods.Alt = isKeyDown
	case VKLWin, VKRWin:
		ev.Mods.Win = isKeyDown
	}

	return h.handler.HandleKey(ev)
}

func normalizeVK(vk uint32) uint32 {
	switch vk {
	case vkLShift, vkRShift:
		return VKShift
	case vkLControl, vkRControl:
		return VKControl
	case vkLMenu, vkRMenu:
		return VKMenu
	}
	return vk
}

func currentModifiers() Modifiers {
	return Modifiers{
		Ctrl:  isKeyPressed(VKControl),
		Shift: isKeyPressed(VKShift),
		Alt:   isKeyPressed(VKMenu),
		Win:   isKeyPressed(VKLWin) || isKeyPressed(VKRWin),
	}
}

func isKeyPressed(vk int) bool {
	r, _, _ := getAsyncKeyState.Call(uintptr(vk))
	return r&0x8000 != 0
}
