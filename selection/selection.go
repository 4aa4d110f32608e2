package selection

import (
	"slices"
	"sync/atomic"

	"markestedt/emoki/emoji"
)

// None is the index when no suggestion is highlighted
const None = -1

// Direction of a navigation request
type Direction int

const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Up {
		return "up"
	}
	return "down"
}

// Snapshot is an immutable view of the selection state
type Snapshot struct {
	Results []emoji.Match
	Index   int
}

// Selected returns the highlighted match
func (s *Snapshot) Selected() (emoji.Match, bool) {
	if s == nil || s.Index < 0 || s.Index >= len(s.Results) {
		return emoji.Match{}, false
	}
	return s.Results[s.Index], true
}

// Coordinator owns the selected index. Only the UI goroutine mutates it;
// the capture thread reads the published snapshot.
type Coordinator struct {
	state atomic.Pointer[Snapshot]
}

// New creates a coordinator with an empty result list
func New() *Coordinator {
	c := &Coordinator{}
	c.state.Store(&Snapshot{Index: None})
	return c
}

// Snapshot returns the current state
func (c *Coordinator) Snapshot() *Snapshot {
	return c.state.Load()
}

// Active reports whether a suggestion list is showing
func (c *Coordinator) Active() bool {
	return len(c.state.Load().Results) > 0
}

// Index returns the highlighted index or None
func (c *Coordinator) Index() int {
	return c.state.Load().Index
}

// ResultsUpdated replaces the list and highlights its first item
func (c *Coordinator) ResultsUpdated(results []emoji.Match) {
	index := None
	if len(results) > 0 {
		index = 0
	}
	c.state.Store(&Snapshot{Results: slices.Clone(results), Index: index})
}

// Hover highlights result if it belongs to the current list
func (c *Coordinator) Hover(result emoji.Match) (int, bool) {
	s := c.state.Load()
	i := slices.Index(s.Results, result)
	if i < 0 {
		return s.Index, false
	}
	if i != s.Index {
		c.state.Store(&Snapshot{Results: s.Results, Index: i})
	}
	return i, true
}

// Navigate moves the highlight by one, clamped to the list bounds.
// It returns the new index and whether it changed.
func (c *Coordinator) Navigate(dir Direction) (int, bool) {
	s := c.state.Load()
	if s.Index == None {
		return None, false
	}

	i := s.Index
	switch dir {
	case Up:
		i--
	case Down:
		i++
	}
	i = max(0, min(i, len(s.Results)-1))

	if i == s.Index {
		return i, false
	}
	c.state.Store(&Snapshot{Results: s.Results, Index: i})
	return i, true
}

// Confirm returns the highlighted match without changing state
func (c *Coordinator) Confirm() (emoji.Match, bool) {
	return c.state.Load().Selected()
}

// Clear drops the list
func (c *Coordinator) Clear() {
	c.state.Store(&Snapshot{Index: None})
}
