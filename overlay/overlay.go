package overlay

import (
	"log/slog"

	"markestedt/emoki/emoji"
)

// Presenter is the capability the suggestion overlay implements.
// Methods are only called from the UI goroutine.
type Presenter interface {
	// UpdateResults shows a new suggestion list
	UpdateResults(results []emoji.Match)

	// SelectionChanged moves the highlight
	SelectionChanged(index int)

	// Hide hides the overlay and gives focus back to the previous window
	Hide()

	// Window returns the native overlay window, or 0 when there is none.
	// Clicks inside it do not reset the buffer.
	Window() uintptr
}

// Multi fans calls out to several presenters
type Multi []Presenter

func (m Multi) UpdateResults(results []emoji.Match) {
	for _, p := range m {
		p.UpdateResults(results)
	}
}

func (m Multi) SelectionChanged(index int) {
	for _, p := range m {
		p.SelectionChanged(index)
	}
}

func (m Multi) Hide() {
	for _, p := range m {
		p.Hide()
	}
}

// Window returns the first native window among the presenters
func (m Multi) Window() uintptr {
	for _, p := range m {
		if w := p.Window(); w != 0 {
			return w
		}
	}
	return 0
}

// Log is a headless presenter that writes suggestions to the debug log
type Log struct{}

func (Log) UpdateResults(results []emoji.Match) {
	keys := make([]string, len(results))
	for i, r := range results {
		keys[i] = r.Key
	}
	slog.Debug("Suggestions", "shortcuts", keys)
}

func (Log) SelectionChanged(index int) {
	slog.Debug("Selection changed", "index", index)
}

func (Log) Hide() {
	slog.Debug("Overlay hidden")
}

func (Log) Window() uintptr { return 0 }
