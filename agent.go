package main

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"markestedt/emoki/config"
	"markestedt/emoki/emoji"
	"markestedt/emoki/inject"
	"markestedt/emoki/monitor"
	"markestedt/emoki/overlay"
	"markestedt/emoki/platform"
	"markestedt/emoki/selection"
	"markestedt/emoki/storage"
	"markestedt/emoki/web"
)

const eventQueueSize = 256

// StatusObserver is told about capture state changes on the UI goroutine
type StatusObserver interface {
	BroadcastStatus(capture string)
}

// InjectionObserver is told about finished injections on the UI goroutine
type InjectionObserver interface {
	BroadcastInjection(in *storage.Injection)
}

type eventKind int

const (
	eventNavigate eventKind = iota
	eventHover
	eventClickConfirm
	eventHide
	eventInjected
	eventStatus
)

type uiEvent struct {
	kind      eventKind
	dir       selection.Direction
	match     emoji.Match
	injection *storage.Injection
	capture   string
}

// Agent wires input capture, matching, selection and injection together.
//
// The capture thread owns the buffer, the UI goroutine (Run) owns the
// selection and the presenters, and the executor's worker performs the
// injection. They talk through the events channel.
type Agent struct {
	cfg        *config.Config
	table      *emoji.Table
	monitor    *monitor.Monitor
	selection  *selection.Coordinator
	executor   *inject.Executor
	presenters overlay.Multi
	statuses   []StatusObserver
	injections []InjectionObserver
	db         *storage.DB

	events chan uiEvent

	// Only the newest buffer value matters; bufferSignal holds at most one
	// pending wakeup so a change is never lost to a full events queue.
	buffer       atomic.Pointer[string]
	bufferSignal chan struct{}
}

// NewAgent creates a new agent instance. db may be nil when history is
// disabled.
func NewAgent(cfg *config.Config, in platform.Input, table *emoji.Table, db *storage.DB) (*Agent, error) {
	toggle, err := toggleCombo(cfg.Capture.Toggle)
	if err != nil {
		return nil, fmt.Errorf("failed to parse toggle hotkey: %w", err)
	}

	a := &Agent{
		cfg:          cfg,
		table:        table,
		selection:    selection.New(),
		presenters:   overlay.Multi{overlay.Log{}},
		db:           db,
		events:       make(chan uiEvent, eventQueueSize),
		bufferSignal: make(chan struct{}, 1),
	}
	empty := ""
	a.buffer.Store(&empty)

	a.monitor = monitor.New(in, a, monitor.WithToggle(toggle))
	a.executor = inject.New(in.Synthesizer, cfg.FocusDelay(), inject.Hooks{
		HideOverlay: func() { a.post(uiEvent{kind: eventHide}) },
		ResetBuffer: a.monitor.RequestReset,
		Completed:   a.injectionCompleted,
	})

	return a, nil
}

// toggleCombo converts the configured pause hotkey; empty disables it
func toggleCombo(combo string) (platform.KeyCombo, error) {
	if combo == "" {
		return platform.KeyCombo{}, nil
	}

	kc, err := config.ParseHotkey(combo)
	if err != nil {
		return platform.KeyCombo{}, err
	}

	// Convert key to VK code (0 means modifier-only combo)
	vkCode, err := platform.VKCode(kc.Key)
	if err != nil {
		return platform.KeyCombo{}, fmt.Errorf("failed to get VK code: %w", err)
	}

	return platform.KeyCombo{
		Ctrl:  kc.Ctrl,
		Shift: kc.Shift,
		Alt:   kc.Alt,
		Win:   kc.Win,
		Key:   vkCode,
	}, nil
}

// AddPresenter attaches another overlay. Call before Run.
func (a *Agent) AddPresenter(p overlay.Presenter) {
	a.presenters = append(a.presenters, p)
}

// AddStatusObserver attaches a capture state listener. Call before Run.
func (a *Agent) AddStatusObserver(o StatusObserver) {
	a.statuses = append(a.statuses, o)
}

// AddInjectionObserver attaches a history listener. Call before Run.
func (a *Agent) AddInjectionObserver(o InjectionObserver) {
	a.injections = append(a.injections, o)
}

// RegisterOverlayWindow sets the native overlay window whose clicks keep the
// buffer. Overlays that create their window lazily call this once it exists.
func (a *Agent) RegisterOverlayWindow(hwnd uintptr) {
	a.monitor.RegisterOverlayWindow(hwnd)
}

// Run starts capture and processes UI events until ctx is cancelled
func (a *Agent) Run(ctx context.Context) error {
	if hwnd := a.presenters.Window(); hwnd != 0 {
		a.monitor.RegisterOverlayWindow(hwnd)
	}

	var captureErr chan error
	if a.cfg.Capture.Enabled {
		captureErr = make(chan error, 1)
		go func() {
			captureErr <- a.monitor.Run(ctx)
		}()
	} else {
		slog.Warn("Input capture disabled in config")
	}

	slog.Info("Emoki started", "shortcuts", a.table.Len(), "toggle", a.cfg.Capture.Toggle)

	// Main event loop
	for {
		select {
		case <-ctx.Done():
			a.executor.Wait()
			return nil

		case err := <-captureErr:
			if err != nil {
				slog.Error("Input capture failed, shortcuts are disabled", "error", err)
			}
			captureErr = nil
			a.notifyStatus(a.captureState())

		case <-a.bufferSignal:
			a.bufferChanged(a.currentBuffer())

		case ev := <-a.events:
			a.handle(ev)
		}
	}
}

func (a *Agent) handle(ev uiEvent) {
	switch ev.kind {
	case eventNavigate:
		if i, ok := a.selection.Navigate(ev.dir); ok {
			a.presenters.SelectionChanged(i)
		}

	case eventHover:
		if i, ok := a.selection.Hover(ev.match); ok {
			a.presenters.SelectionChanged(i)
		}

	case eventClickConfirm:
		a.executor.Inject(ev.match, a.currentBuffer())

	case eventHide:
		a.hide()

	case eventInjected:
		for _, o := range a.injections {
			o.BroadcastInjection(ev.injection)
		}

	case eventStatus:
		a.notifyStatus(ev.capture)
	}
}

func (a *Agent) bufferChanged(value string) {
	results := emoji.Search(a.table, value)
	if len(results) == 0 {
		if a.selection.Active() {
			a.hide()
		}
		return
	}

	a.selection.ResultsUpdated(results)
	a.presenters.UpdateResults(results)
	a.presenters.SelectionChanged(a.selection.Index())
}

func (a *Agent) hide() {
	a.selection.Clear()
	a.presenters.Hide()
}

func (a *Agent) notifyStatus(state string) {
	for _, o := range a.statuses {
		o.BroadcastStatus(state)
	}
}

// post hands an event to the UI goroutine without blocking the caller
func (a *Agent) post(ev uiEvent) {
	select {
	case a.events <- ev:
	default:
		slog.Warn("UI event queue full, dropping event", "kind", ev.kind)
	}
}

// BufferChanged is called on the capture thread after every buffer mutation
func (a *Agent) BufferChanged(value string) {
	a.buffer.Store(&value)
	select {
	case a.bufferSignal <- struct{}{}:
	default:
		// A wakeup is already pending and will read the newest value
	}
}

// SuggestionsActive is called on the capture thread
func (a *Agent) SuggestionsActive() bool {
	return a.selection.Active()
}

// NavigateRequested is called on the capture thread
func (a *Agent) NavigateRequested(dir selection.Direction) {
	a.post(uiEvent{kind: eventNavigate, dir: dir})
}

// ConfirmRequested is called on the capture thread for Enter and Tab
func (a *Agent) ConfirmRequested(snapshot string) bool {
	m, ok := a.selection.Confirm()
	if !ok {
		return false
	}
	return a.executor.Inject(m, snapshot)
}

// Hover highlights a suggestion under the pointer. Safe from any goroutine.
func (a *Agent) Hover(m emoji.Match) {
	a.post(uiEvent{kind: eventHover, match: m})
}

// ClickConfirm injects a clicked suggestion. Safe from any goroutine.
func (a *Agent) ClickConfirm(m emoji.Match) {
	a.post(uiEvent{kind: eventClickConfirm, match: m})
}

// PauseChanged is called by the monitor from whichever goroutine toggled
// capture, including the capture thread for the toggle hotkey
func (a *Agent) PauseChanged(paused bool) {
	state := "running"
	switch {
	case !a.monitor.Running():
		state = "disabled"
	case paused:
		state = "paused"
	}
	a.post(uiEvent{kind: eventStatus, capture: state})
}

// SetPaused pauses or resumes capture. Safe from any goroutine.
func (a *Agent) SetPaused(paused bool) {
	a.monitor.SetPaused(paused)
}

// Paused reports whether capture is paused
func (a *Agent) Paused() bool {
	return a.monitor.Paused()
}

// injectionCompleted runs on the executor's worker
func (a *Agent) injectionCompleted(report inject.Report) {
	in := &storage.Injection{
		Timestamp:  report.Started,
		Shortcut:   report.Request.Match.Key,
		Glyph:      report.Request.Match.Glyph,
		EraseCount: report.Request.EraseCount,
		LatencyMs:  report.Duration.Milliseconds(),
		Success:    report.Err == nil,
	}
	if report.Err != nil {
		in.ErrorMessage = report.Err.Error()
	}

	if a.db != nil && a.cfg.History.Enabled {
		if err := a.db.SaveInjection(in); err != nil {
			slog.Error("Failed to save injection", "error", err)
		}
	}

	a.post(uiEvent{kind: eventInjected, injection: in})
}

func (a *Agent) currentBuffer() string {
	return *a.buffer.Load()
}

func (a *Agent) captureState() string {
	switch {
	case !a.monitor.Running():
		return "disabled"
	case a.monitor.Paused():
		return "paused"
	}
	return "running"
}

// Status reports the live state for the dashboard. Safe from any goroutine.
func (a *Agent) Status() web.Status {
	snap := a.selection.Snapshot()
	return web.Status{
		Capture:   a.captureState(),
		Buffer:    a.currentBuffer(),
		Results:   snap.Results,
		Selected:  snap.Index,
		Injecting: a.executor.InFlight(),
		Shortcuts: a.table.Len(),
	}
}

// loadTable loads the configured emoji database, falling back to the
// built-in set when no path is configured
func loadTable(cfg *config.Config) *emoji.Table {
	if cfg.Database.Path == "" {
		table := emoji.Default()
		slog.Info("Using built-in emoji set", "shortcuts", table.Len())
		return table
	}

	table, err := emoji.Load(cfg.Database.Path)
	if err != nil {
		slog.Warn("Failed to load emoji database, suggestions disabled", "error", err, "path", cfg.Database.Path)
		return emoji.NewTable()
	}
	slog.Info("Emoji database loaded", "path", cfg.Database.Path, "shortcuts", table.Len())
	return table
}
