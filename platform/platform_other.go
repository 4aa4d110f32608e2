//go:build !windows

package platform

import "context"

// NewInput returns stub capabilities on unsupported platforms.
// Capture fails to install and synthesis reports ErrNotAvailable.
func NewInput() Input {
	return Input{
		Hook:        stubHook{},
		Translator:  stubTranslator{},
		Locator:     stubLocator{},
		Synthesizer: stubSynthesizer{},
	}
}

type stubHook struct{}

func (stubHook) Run(ctx context.Context, h Handler) error { return ErrNotAvailable }
func (stubHook) Wake()                                    {}

type stubTranslator struct{}

func (stubTranslator) Translate(vk, scan uint32, shift bool) (rune, bool) { return 0, false }

type stubLocator struct{}

func (stubLocator) WindowAt(x, y int32) uintptr   { return 0 }
func (stubLocator) Parent(hwnd uintptr) uintptr { return 0 }

type stubSynthesizer struct{}

func (stubSynthesizer) SendBackspaces(n int) error { return ErrNotAvailable }
func (stubSynthesizer) SendText(text string) error { return ErrNotAvailable }
