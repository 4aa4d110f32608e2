package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"markestedt/emoki/emoji"
)

type recorder struct {
	window  uintptr
	results [][]emoji.Match
	indexes []int
	hides   int
}

func (r *recorder) UpdateResults(results []emoji.Match) { r.results = append(r.results, results) }
func (r *recorder) SelectionChanged(index int)          { r.indexes = append(r.indexes, index) }
func (r *recorder) Hide()                               { r.hides++ }
func (r *recorder) Window() uintptr                     { return r.window }

func TestMultiFansOut(t *testing.T) {
	a, b := &recorder{}, &recorder{window: 42}
	m := Multi{Log{}, a, b}

	results := []emoji.Match{{Key: ":sob:", Glyph: "😭"}}
	m.UpdateResults(results)
	m.SelectionChanged(0)
	m.Hide()

	for _, r := range []*recorder{a, b} {
		assert.Equal(t, [][]emoji.Match{results}, r.results)
		assert.Equal(t, []int{0}, r.indexes)
		assert.Equal(t, 1, r.hides)
	}
	assert.Equal(t, uintptr(42), m.Window())
	assert.Equal(t, uintptr(0), Multi{Log{}}.Window())
}
