package emoji

import (
	"slices"
	"strings"

	"markestedt/emoki/buffer"
)

// MaxResults bounds the suggestion list
const MaxResults = 5

// Match is one ranked suggestion
type Match struct {
	Key   string `json:"shortcut"`
	Glyph string `json:"glyph"`
}

// Token extracts the search token from a buffer: the text from the last
// trigger character to the end, lowercased, keeping only [a-z0-9_:-].
// It returns "" when the buffer holds no trigger.
func Token(buf string) string {
	i := strings.LastIndexByte(buf, buffer.Trigger)
	if i < 0 {
		return ""
	}

	var b strings.Builder
	for _, c := range buf[i:] {
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		if (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '_' || c == '-' || c == buffer.Trigger {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Search returns up to MaxResults shortcuts that start with the buffer's
// token, shortest key first. Keys of equal length keep table order.
func Search(t *Table, buf string) []Match {
	token := Token(buf)
	if len(token) <= 1 {
		return nil
	}

	var matches []Match
	for _, e := range t.Entries() {
		if strings.HasPrefix(e.Key, token) {
			matches = append(matches, Match{Key: e.Key, Glyph: e.Glyph})
		}
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		return len(a.Key) - len(b.Key)
	})

	if len(matches) > MaxResults {
		matches = matches[:MaxResults]
	}
	return matches
}
