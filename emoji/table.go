package emoji

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/tidwall/gjson"
)

//go:embed data/emojis.json
var defaultData []byte

// Entry maps a normalized shortcut key to its glyph
type Entry struct {
	Key   string // ":name:"
	Glyph string
}

// Table is the read-only shortcut table. Iteration order is the order in
// which keys were first seen in the source data.
type Table struct {
	entries []Entry
	index   map[string]int
}

// NewTable builds a table from entries. Keys are normalized and duplicate
// keys keep the first glyph seen.
func NewTable(entries ...Entry) *Table {
	t := &Table{index: make(map[string]int, len(entries))}
	for _, e := range entries {
		t.add(e.Key, e.Glyph)
	}
	return t
}

func (t *Table) add(shortcut, glyph string) {
	key := NormalizeKey(shortcut)
	if key == "" || glyph == "" {
		return
	}
	if _, exists := t.index[key]; exists {
		return
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, Entry{Key: key, Glyph: glyph})
}

// Len returns the number of shortcuts
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}

// Lookup returns the glyph for a shortcut in any casing, with or without colons
func (t *Table) Lookup(shortcut string) (string, bool) {
	if t == nil {
		return "", false
	}
	i, ok := t.index[NormalizeKey(shortcut)]
	if !ok {
		return "", false
	}
	return t.entries[i].Glyph, true
}

// Entries returns the entries in table order
func (t *Table) Entries() []Entry {
	if t == nil {
		return nil
	}
	return t.entries
}

// NormalizeKey turns " Sob ", "sob" or ":SOB:" into ":sob:"
func NormalizeKey(shortcut string) string {
	name := strings.Trim(strings.TrimSpace(shortcut), ":")
	if name == "" {
		return ""
	}
	return ":" + strings.ToLower(name) + ":"
}

// Load reads a shortcut database: a JSON array of
// {"emoji": "😭", "shortcuts": ["sob", "crying"]} objects.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read emoji database: %w", err)
	}

	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse emoji database %s: %w", path, err)
	}
	return t, nil
}

// Default returns the table embedded in the binary
func Default() *Table {
	t, err := Parse(defaultData)
	if err != nil {
		// The embedded data is part of the build
		panic(err)
	}
	return t
}

// Parse flattens database JSON into a table
func Parse(data []byte) (*Table, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON")
	}

	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, fmt.Errorf("expected a JSON array, got %s", root.Type)
	}

	t := &Table{index: make(map[string]int)}
	root.ForEach(func(_, item gjson.Result) bool {
		glyph := field(item, "emoji")
		shortcuts := field(item, "shortcuts")
		if glyph.Type != gjson.String || !shortcuts.IsArray() {
			return true
		}

		for _, s := range shortcuts.Array() {
			if s.Type == gjson.String {
				t.add(s.Str, glyph.Str)
			}
		}
		return true
	})

	return t, nil
}

// field looks up an object field by name, ignoring case
func field(obj gjson.Result, name string) gjson.Result {
	var found gjson.Result
	obj.ForEach(func(key, value gjson.Result) bool {
		if strings.EqualFold(key.Str, name) {
			found = value
			return false
		}
		return true
	})
	return found
}
