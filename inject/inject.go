package inject

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"markestedt/emoki/buffer"
	"markestedt/emoki/emoji"
	"markestedt/emoki/platform"
)

// DefaultFocusDelay lets the OS hand focus back after the overlay hides
const DefaultFocusDelay = 30 * time.Millisecond

// Request is the erase-then-insert work computed at confirm time
type Request struct {
	Match      emoji.Match
	EraseCount int
	Text       string
}

// NewRequest computes the request from the buffer snapshot held when the
// selection was confirmed. It fails when the buffer carries no real token.
func NewRequest(m emoji.Match, snapshot string) (Request, error) {
	i := strings.LastIndexByte(snapshot, buffer.Trigger)
	if i < 0 {
		return Request{}, fmt.Errorf("no trigger in buffer %q", snapshot)
	}

	erase := utf8.RuneCountInString(snapshot[i:])
	if erase < 2 {
		return Request{}, fmt.Errorf("token too short in buffer %q", snapshot)
	}

	return Request{Match: m, EraseCount: erase, Text: m.Glyph}, nil
}

// Report describes a finished injection
type Report struct {
	Request  Request
	Started  time.Time
	Duration time.Duration
	Err      error
}

// Hooks connect the executor to its collaborators. Any may be nil.
type Hooks struct {
	// HideOverlay is called before work is handed to the worker.
	HideOverlay func()
	// ResetBuffer is called once the glyph has been sent, or sending failed.
	ResetBuffer func()
	// Completed runs on the worker after ResetBuffer.
	Completed func(Report)
}

// Executor performs at most one injection at a time
type Executor struct {
	synth    platform.Synthesizer
	delay    time.Duration
	hooks    Hooks
	inFlight atomic.Bool
	wg       sync.WaitGroup
}

// New creates an executor
func New(synth platform.Synthesizer, delay time.Duration, hooks Hooks) *Executor {
	return &Executor{
		synth: synth,
		delay: delay,
		hooks: hooks,
	}
}

// InFlight reports whether an injection is running
func (e *Executor) InFlight() bool {
	return e.inFlight.Load()
}

// Inject starts replacing the shortcut in snapshot with m's glyph. It returns
// false without side effects when the request is not actionable or another
// injection is still running. It never blocks.
func (e *Executor) Inject(m emoji.Match, snapshot string) bool {
	req, err := NewRequest(m, snapshot)
	if err != nil {
		slog.Debug("Ignoring confirm", "reason", err)
		return false
	}

	if !e.inFlight.CompareAndSwap(false, true) {
		slog.Debug("Injection already in flight, ignoring confirm", "shortcut", m.Key)
		return false
	}

	if e.hooks.HideOverlay != nil {
		e.hooks.HideOverlay()
	}

	e.wg.Add(1)
	go e.run(req)
	return true
}

// Wait blocks until the running injection, if any, has finished
func (e *Executor) Wait() {
	e.wg.Wait()
}

func (e *Executor) run(req Request) {
	defer e.wg.Done()

	report := Report{Request: req, Started: time.Now()}
	defer func() {
		if r := recover(); r != nil {
			report.Err = fmt.Errorf("injection panicked: %v", r)
			slog.Error("Injection panicked", "panic", r)
		}
		report.Duration = time.Since(report.Started)

		// Reset even on failure; a retry could type the glyph twice
		if e.hooks.ResetBuffer != nil {
			e.hooks.ResetBuffer()
		}
		e.inFlight.Store(false)

		if e.hooks.Completed != nil {
			e.hooks.Completed(report)
		}
	}()

	if e.delay > 0 {
		time.Sleep(e.delay)
	}

	if err := e.synth.SendBackspaces(req.EraseCount); err != nil {
		report.Err = fmt.Errorf("failed to erase shortcut: %w", err)
		slog.Error("Failed to erase shortcut", "error", err, "count", req.EraseCount)
		return
	}

	if err := e.synth.SendText(req.Text); err != nil {
		report.Err = fmt.Errorf("failed to type glyph: %w", err)
		slog.Error("Failed to type glyph", "error", err, "shortcut", req.Match.Key)
		return
	}

	slog.Debug("Injected glyph", "shortcut", req.Match.Key, "erased", req.EraseCount)
}
